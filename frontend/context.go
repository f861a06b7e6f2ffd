/*
   Frontend: guest register sugar over the HIR builder.

   Copyright (c) 2024, the ppcjit authors.

   Offsets are stable and published as compile-time constants in
   state.GPROffset/FPROffset/VROffset; this file is the only place that
   turns a PPC register number into a LOAD_CONTEXT/STORE_CONTEXT pair.
*/

package frontend

import (
	"github.com/rcornwell/ppcjit/hir"
	"github.com/rcornwell/ppcjit/state"
)

// Context wraps an hir.Builder with PPC register-file sugar: LoadGPR,
// StoreGPR, LoadVR, StoreVR, as named in SPEC_FULL.md's FunctionBuilder
// contract.
type Context struct {
	*hir.Builder
}

func NewContext(b *hir.Builder) *Context { return &Context{Builder: b} }

func (c *Context) LoadGPR(r uint32) *hir.Value {
	return c.LoadContext(hir.TypeI64, state.GPROffset(r))
}

func (c *Context) StoreGPR(r uint32, v *hir.Value) {
	c.StoreContext(state.GPROffset(r), v)
}

func (c *Context) LoadFPR(r uint32) *hir.Value {
	return c.LoadContext(hir.TypeF64, state.FPROffset(r))
}

func (c *Context) StoreFPR(r uint32, v *hir.Value) {
	c.StoreContext(state.FPROffset(r), v)
}

func (c *Context) LoadVR(r uint32) *hir.Value {
	return c.LoadContext(hir.TypeV128, state.VROffset(r))
}

func (c *Context) StoreVR(r uint32, v *hir.Value) {
	c.StoreContext(state.VROffset(r), v)
}

// EffectiveAddress computes ra ? GPR[ra]+GPR[rb] : GPR[rb], the X-form
// indexed addressing mode shared by nearly every load/store variant.
func (c *Context) EffectiveAddress(ra, rb uint32) *hir.Value {
	rbVal := c.LoadGPR(rb)
	if ra == 0 {
		return rbVal
	}
	return c.Add(hir.TypeI64, c.LoadGPR(ra), rbVal)
}

// EffectiveAddressD computes the D-form base+displacement address:
// ra ? GPR[ra]+d : d.
func (c *Context) EffectiveAddressD(ra uint32, d int32) *hir.Value {
	disp := c.LoadConstant(hir.TypeI64, hir.ConstFromU64(uint64(int64(d))))
	if ra == 0 {
		return disp
	}
	return c.Add(hir.TypeI64, c.LoadGPR(ra), disp)
}
