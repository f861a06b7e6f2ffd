/*
   HIR: forward-reference labels.

   Copyright (c) 2024, the ppcjit authors.
*/

package hir

// resolvedBit marks a Label's Tag as carrying a final backend address
// rather than being unresolved. See the design note in SPEC_FULL.md on
// label patching: the label's own Tag doubles as the "resolved" bit plus
// the address, so backends never need raw pointers back into the IR.
const resolvedBit = 0x80000000

// Label is a jump target. Block is set once the label's owning block is
// known; Tag is lowering-backend scratch space recording whether (and
// where) the label has already been placed in the backend's output.
type Label struct {
	Block *Block
	Tag   uint32
}

// NewLabel creates an unresolved label for block.
func NewLabel(block *Block) *Label {
	return &Label{Block: block}
}

// Resolved reports whether the label has been assigned a backend address.
func (l *Label) Resolved() bool {
	return l.Tag&resolvedBit != 0
}

// Address returns the backend address once Resolved is true.
func (l *Label) Address() uint32 {
	return l.Tag &^ resolvedBit
}

// Resolve records addr as the label's final backend address.
func (l *Label) Resolve(addr uint32) {
	l.Tag = addr | resolvedBit
}

// LabelRef is a forward reference awaiting patching once its Label
// resolves. Backends allocate these out of a scratch arena and walk them
// in a single linear pass after lowering completes.
type LabelRef struct {
	Label *Label
	// Patch is called with the label's resolved address once known.
	Patch func(addr uint32)
	next  *LabelRef
}

// LabelRefList is the arena-owned singly-linked list of pending patches.
type LabelRefList struct {
	head *LabelRef
}

// Push records a new pending patch.
func (l *LabelRefList) Push(ref *LabelRef) {
	ref.next = l.head
	l.head = ref
}

// PatchAll walks every pending reference and applies Patch with the
// label's now-final address. Every label referenced must be Resolved.
func (l *LabelRefList) PatchAll() {
	for r := l.head; r != nil; r = r.next {
		r.Patch(r.Label.Address())
	}
	l.head = nil
}
