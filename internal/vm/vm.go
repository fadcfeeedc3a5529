// Package vm implements the stack-based interpreter over a compiled
// bytecode.Program: an operand stack shared by every live call, a
// per-call frame of locals addressed by OpPushVar/OpSetVar, and a
// unit-scope global array addressed by OpPushGlobal/OpSetGlobal.
//
// A conventional frame-stack-of-locals-plus-shared-operand-stack VM
// shape, scaled down to a much smaller instruction set with no
// closures, objects, try/catch, or virtual dispatch, and with a
// name-keyed builtin table replaced by internal/host's Table plus
// handle-keyed User/Foreign/Intrinsic dispatch.
package vm

import (
	"fmt"

	"github.com/ril-lang/rilc/internal/bytecode"
	"github.com/ril-lang/rilc/internal/host"
	"github.com/ril-lang/rilc/internal/types"
)

// RuntimeError is a failure raised by executing bytecode, as opposed to an error in the VM's own Go code.
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string { return e.Message }

func runtimeErrorf(format string, args ...any) error {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}

// frame is one live call's operand addressing context: its chunk, program
// counter, and frame-local slots (arguments occupy slots 0..Arity-1).
type frame struct {
	chunk *bytecode.Chunk
	pc int
	locals []bytecode.Value
}

// VM executes one unit's compiled Program against a shared host.Table.
// A fresh VM is scoped to one Program; internal/unit creates one VM per
// loaded unit and seeds its globals from already-computed dependency
// values via Program.GlobalNames (see SeedGlobal).
type VM struct {
	program *bytecode.Program
	host *host.Table

	stack []bytecode.Value
	frames []*frame
	globals []bytecode.Value

	ptrs *pointerTable
}

// New builds a VM ready to run prog's top_level function, or any other
// function reached from it via a call. hostTable supplies every `cbind`
// foreign binding's implementation.
func New(prog *bytecode.Program, hostTable *host.Table) *VM {
	return &VM{
		program: prog,
		host: hostTable,
		globals: make([]bytecode.Value, prog.GlobalCount),
		ptrs: newPointerTable(),
	}
}

// SeedGlobal sets global slot name's initial value before Run — how
// internal/unit forwards an already-computed dependency global into a
// dependent unit's own global array, keyed by the dependency's exported
// name rather than by slot number (slot numbers are assigned
// independently per compiled Program).
func (vm *VM) SeedGlobal(name string, v bytecode.Value) {
	for slot, n := range vm.program.GlobalNames {
		if n == name {
			vm.globals[slot] = v
			return
		}
	}
}

// GlobalByName reads a global slot's current value by name, the
// complement to SeedGlobal: how a dependent unit picks up a value this
// unit computed in its own top_level.
func (vm *VM) GlobalByName(name string) (bytecode.Value, bool) {
	for slot, n := range vm.program.GlobalNames {
		if n == name {
			return vm.globals[slot], true
		}
	}
	return bytecode.Value{}, false
}

// Run executes prog.TopLevel and returns its result.
func (vm *VM) Run() (bytecode.Value, error) {
	chunk, ok := vm.program.Functions[vm.program.TopLevel]
	if !ok {
		return bytecode.Value{}, runtimeErrorf("program has no top_level chunk")
	}
	return vm.callChunk(chunk, nil)
}

// RunFunction calls a specific User function by handle — how a unit's
// `cbind` re-entry or an embedding host might invoke a single exported
// function directly rather than the whole top_level sequence.
func (vm *VM) RunFunction(id types.FunctionID, args []bytecode.Value) (bytecode.Value, error) {
	chunk, ok := vm.program.Functions[id]
	if !ok {
		return bytecode.Value{}, runtimeErrorf("no such function handle %d", id)
	}
	return vm.callChunk(chunk, args)
}

func (vm *VM) push(v bytecode.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() (bytecode.Value, error) {
	if len(vm.stack) == 0 {
		return bytecode.Value{}, runtimeErrorf("operand stack underflow")
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

// popN pops n values, restoring their original left-to-right order —
// every call site's arguments are pushed in order, so the last one
// pushed (index n-1) sits on top.
func (vm *VM) popN(n int) ([]bytecode.Value, error) {
	if n == 0 {
		return nil, nil
	}
	if len(vm.stack) < n {
		return nil, runtimeErrorf("operand stack underflow popping %d values", n)
	}
	args := make([]bytecode.Value, n)
	copy(args, vm.stack[len(vm.stack)-n:])
	vm.stack = vm.stack[:len(vm.stack)-n]
	return args, nil
}

// callChunk runs one User function's chunk to completion (its OpReturn)
// and returns the popped result, isolating the new frame's locals from
// the caller's — frames never share a locals array, only the operand
// stack, matching "Frames" rule.
func (vm *VM) callChunk(chunk *bytecode.Chunk, args []bytecode.Value) (bytecode.Value, error) {
	locals := make([]bytecode.Value, chunk.MaxSlots)
	copy(locals, args)
	f := &frame{chunk: chunk, locals: locals}
	vm.frames = append(vm.frames, f)
	defer func() { vm.frames = vm.frames[:len(vm.frames)-1] }()

	for {
		if f.pc >= len(f.chunk.Code) {
			return bytecode.VoidValue(), nil
		}
		inst := f.chunk.Code[f.pc]
		f.pc++
		done, result, err := vm.step(f, inst)
		if err != nil {
			return bytecode.Value{}, err
		}
		if done {
			return result, nil
		}
	}
}

// step executes one instruction against frame f, reporting done=true
// with the function's result once an OpReturn is reached.
func (vm *VM) step(f *frame, inst bytecode.Instruction) (done bool, result bytecode.Value, err error) {
	op, a, b := inst.OpCode(), inst.A(), inst.B()
	switch op {
	case bytecode.OpPushLit:
		if int(b) >= len(f.chunk.Constants) {
			return false, bytecode.Value{}, runtimeErrorf("constant index %d out of range", b)
		}
		vm.push(f.chunk.Constants[b])
	case bytecode.OpPushVoid:
		vm.push(bytecode.VoidValue())
	case bytecode.OpPushVar:
		if int(b) >= len(f.locals) {
			return false, bytecode.Value{}, runtimeErrorf("local slot %d out of range", b)
		}
		vm.push(f.locals[b])
	case bytecode.OpSetVar:
		v, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		if int(b) >= len(f.locals) {
			return false, bytecode.Value{}, runtimeErrorf("local slot %d out of range", b)
		}
		f.locals[b] = v
	case bytecode.OpPushGlobal:
		if int(b) >= len(vm.globals) {
			return false, bytecode.Value{}, runtimeErrorf("global slot %d out of range", b)
		}
		vm.push(vm.globals[b])
	case bytecode.OpSetGlobal:
		v, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		if int(b) >= len(vm.globals) {
			return false, bytecode.Value{}, runtimeErrorf("global slot %d out of range", b)
		}
		vm.globals[b] = v
	case bytecode.OpPop:
		if _, err := vm.pop(); err != nil {
			return false, bytecode.Value{}, err
		}
	case bytecode.OpNewArray:
		elems, err := vm.popN(int(b))
		if err != nil {
			return false, bytecode.Value{}, err
		}
		vm.push(bytecode.ArrayValue(bytecode.NewArrayInstance(elems)))
	case bytecode.OpArrayIndex:
		idxVal, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		arrVal, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		elem, err := vm.arrayGet(arrVal, idxVal)
		if err != nil {
			return false, bytecode.Value{}, err
		}
		vm.push(elem)
	case bytecode.OpSetArrayIndex:
		val, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		idxVal, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		arrVal, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		if err := vm.arraySet(arrVal, idxVal, val); err != nil {
			return false, bytecode.Value{}, err
		}
	case bytecode.OpNewStruct:
		if int(b) >= len(f.chunk.Types) {
			return false, bytecode.Value{}, runtimeErrorf("type index %d out of range", b)
		}
		typeName := f.chunk.Types[b]
		fieldCount, err := vm.fieldCount(typeName)
		if err != nil {
			return false, bytecode.Value{}, err
		}
		vm.push(bytecode.StructValue(bytecode.NewStructInstance(typeName, fieldCount)))
	case bytecode.OpStructFieldInit:
		val, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		top, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		if top.Kind != bytecode.VStruct {
			return false, bytecode.Value{}, runtimeErrorf("STRUCT_FIELD_INIT on non-struct value")
		}
		if int(b) >= len(top.St.Fields) {
			return false, bytecode.Value{}, runtimeErrorf("field index %d out of range", b)
		}
		top.St.Fields[b] = val
		vm.push(top)
	case bytecode.OpPushStructField:
		top, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		if top.Kind != bytecode.VStruct {
			return false, bytecode.Value{}, runtimeErrorf("PUSH_STRUCT_FIELD on non-struct value")
		}
		if int(b) >= len(top.St.Fields) {
			return false, bytecode.Value{}, runtimeErrorf("field index %d out of range", b)
		}
		vm.push(top.St.Fields[b])
	case bytecode.OpSetStructField:
		val, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		top, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		if top.Kind != bytecode.VStruct {
			return false, bytecode.Value{}, runtimeErrorf("SET_STRUCT_FIELD on non-struct value")
		}
		if int(b) >= len(top.St.Fields) {
			return false, bytecode.Value{}, runtimeErrorf("field index %d out of range", b)
		}
		top.St.Fields[b] = val
	case bytecode.OpCallFunction:
		v, err := vm.callByHandle(bytecode.FuncKind(a), f.chunk.Functions[b])
		if err != nil {
			return false, bytecode.Value{}, err
		}
		vm.push(v)
	case bytecode.OpCallFirstClassFunction:
		callee, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		if callee.Kind != bytecode.VFuncRef {
			return false, bytecode.Value{}, runtimeErrorf("call of non-function value")
		}
		v, err := vm.callFuncRef(callee.Func)
		if err != nil {
			return false, bytecode.Value{}, err
		}
		vm.push(v)
	case bytecode.OpPushFunctionRef:
		vm.push(bytecode.FuncRefValue(vm.makeFuncRef(bytecode.FuncKind(a), f.chunk.Functions[b])))
	case bytecode.OpJump:
		f.pc = int(b)
	case bytecode.OpJumpIfFalse:
		cond, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		if !cond.Bool() {
			f.pc = int(b)
		}
	case bytecode.OpBinaryOp:
		right, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		left, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		v, err := applyBinOp(bytecode.BinOp(a), left, right)
		if err != nil {
			return false, bytecode.Value{}, err
		}
		vm.push(v)
	case bytecode.OpUnaryOp:
		operand, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		v, err := applyUnOp(bytecode.UnOp(a), operand)
		if err != nil {
			return false, bytecode.Value{}, err
		}
		vm.push(v)
	case bytecode.OpReturn:
		if a != 0 {
			v, err := vm.pop()
			if err != nil {
				return false, bytecode.Value{}, err
			}
			return true, v, nil
		}
		return true, bytecode.VoidValue(), nil
	case bytecode.OpConvert:
		v, err := vm.pop()
		if err != nil {
			return false, bytecode.Value{}, err
		}
		cv, err := vm.convert(bytecode.ConvertKind(a), v)
		if err != nil {
			return false, bytecode.Value{}, err
		}
		vm.push(cv)
	default:
		return false, bytecode.Value{}, runtimeErrorf("unimplemented opcode %s", op)
	}
	return false, bytecode.Value{}, nil
}

func (vm *VM) fieldCount(typeName string) (int, error) {
	n, ok := vm.program.StructFieldCounts[typeName]
	if !ok {
		return 0, runtimeErrorf("no field count recorded for type %q", typeName)
	}
	return n, nil
}

func (vm *VM) arrayGet(arrVal, idxVal bytecode.Value) (bytecode.Value, error) {
	if arrVal.Kind != bytecode.VArray {
		return bytecode.Value{}, runtimeErrorf("index of non-array value")
	}
	idx := idxVal.I
	if idx < 0 || int(idx) >= len(arrVal.Arr.Elems) {
		return bytecode.Value{}, runtimeErrorf("array index %d out of range (length %d)", idx, len(arrVal.Arr.Elems))
	}
	return arrVal.Arr.Elems[idx], nil
}

func (vm *VM) arraySet(arrVal, idxVal, val bytecode.Value) error {
	if arrVal.Kind != bytecode.VArray {
		return runtimeErrorf("index-assign of non-array value")
	}
	idx := idxVal.I
	if idx < 0 || int(idx) >= len(arrVal.Arr.Elems) {
		return runtimeErrorf("array index %d out of range (length %d)", idx, len(arrVal.Arr.Elems))
	}
	arrVal.Arr.Elems[idx] = val
	return nil
}
