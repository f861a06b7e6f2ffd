/*
   HIR: function container.

   Copyright (c) 2024, the ppcjit authors.
*/

package hir

// Function is a complete HIR translation unit for one guest function: a
// sequence of basic blocks in layout order, strict-SSA, acyclic at the
// instruction level (labels provide the only forward references).
type Function struct {
	Address    uint64
	Name       string
	blocks     []*Block
	entry      *Block
}

// NewFunction creates an empty HIR function for the given guest address.
func NewFunction(address uint64, name string) *Function {
	f := &Function{Address: address, Name: name}
	f.entry = f.NewBlock()
	return f
}

// Entry returns the function's first basic block.
func (f *Function) Entry() *Block { return f.entry }

// Blocks returns all basic blocks in layout order.
func (f *Function) Blocks() []*Block { return f.blocks }

// NewBlock appends and returns a fresh basic block with its own label.
func (f *Function) NewBlock() *Block {
	b := &Block{}
	b.Label = NewLabel(b)
	f.blocks = append(f.blocks, b)
	return b
}

// Instrs returns every instruction across all blocks in layout order,
// useful for single-pass lowering that doesn't care about block
// boundaries beyond what labels already encode.
func (f *Function) Instrs() []*Instr {
	var out []*Instr
	for _, b := range f.blocks {
		out = append(out, b.Instrs()...)
	}
	return out
}
