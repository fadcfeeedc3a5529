package vm

import "github.com/ril-lang/rilc/internal/bytecode"

// pointerTable gives every distinct ptr(T) heap handle (a boxed
// one-element *ArrayInstance, see bytecode/value.go) a stable integer
// identity for `as` conversions to/from an unsigned integer
// (ConvPtrToInt/ConvIntToPtr).
//
// A real native backend would round-trip through unsafe.Pointer<->
// uintptr, but that pattern is only safe across a call that doesn't
// let the GC run in between — an interpreter with no such boundary has
// no safe place to do it, since a stored uintptr is invisible to the
// garbage collector and the pointed-to array could be freed and its
// memory reused before the integer round-trips back. A bijective table
// keeps the *ArrayInstance reachable for as long as its integer alias
// might still be converted back, at the cost of every converted
// pointer living for the rest of the unit's run — an acceptable
// tradeoff given that reference cycles already leak memory by design.
type pointerTable struct {
	ptrToID map[*bytecode.ArrayInstance]int64
	idToPtr map[int64]*bytecode.ArrayInstance
	next int64
}

func newPointerTable() *pointerTable {
	return &pointerTable{
		ptrToID: make(map[*bytecode.ArrayInstance]int64),
		idToPtr: make(map[int64]*bytecode.ArrayInstance),
		next: 1, // 0 is reserved for the null pointer
	}
}

func (t *pointerTable) idFor(p *bytecode.ArrayInstance) int64 {
	if p == nil {
		return 0
	}
	if id, ok := t.ptrToID[p]; ok {
		return id
	}
	id := t.next
	t.next++
	t.ptrToID[p] = id
	t.idToPtr[id] = p
	return id
}

func (t *pointerTable) ptrFor(id int64) (*bytecode.ArrayInstance, bool) {
	if id == 0 {
		return nil, true
	}
	p, ok := t.idToPtr[id]
	return p, ok
}

// convert implements OpConvert's four ConvertKind cases.
func (vm *VM) convert(kind bytecode.ConvertKind, v bytecode.Value) (bytecode.Value, error) {
	switch kind {
	case bytecode.ConvNoop:
		return v, nil
	case bytecode.ConvIntToFloat:
		return bytecode.FloatValue(float64(v.I)), nil
	case bytecode.ConvFloatToInt:
		return bytecode.IntValue(int64(v.F)), nil
	case bytecode.ConvPtrToInt:
		if v.Kind != bytecode.VArray {
			return bytecode.Value{}, runtimeErrorf("ptr->int conversion of non-pointer value")
		}
		return bytecode.IntValue(vm.ptrs.idFor(v.Arr)), nil
	case bytecode.ConvIntToPtr:
		p, ok := vm.ptrs.ptrFor(v.I)
		if !ok {
			return bytecode.Value{}, runtimeErrorf("int->ptr conversion of unknown pointer identity %d", v.I)
		}
		return bytecode.ArrayValue(p), nil
	}
	return bytecode.Value{}, runtimeErrorf("unknown convert kind %v", kind)
}
