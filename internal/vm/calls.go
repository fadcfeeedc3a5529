package vm

import (
	"github.com/ril-lang/rilc/internal/bytecode"
	"github.com/ril-lang/rilc/internal/types"
)

// callByHandle dispatches OpCallFunction: kind names which of the
// Program's three function tables handle belongs to.
func (vm *VM) callByHandle(kind bytecode.FuncKind, handle types.FunctionID) (bytecode.Value, error) {
	switch kind {
	case bytecode.FuncUser:
		chunk, ok := vm.program.Functions[handle]
		if !ok {
			return bytecode.Value{}, runtimeErrorf("no chunk for user function handle %d", handle)
		}
		args, err := vm.popN(chunk.Arity)
		if err != nil {
			return bytecode.Value{}, err
		}
		return vm.callChunk(chunk, args)
	case bytecode.FuncForeign:
		name, ok := vm.program.ForeignNames[handle]
		if !ok {
			return bytecode.Value{}, runtimeErrorf("no host binding recorded for foreign handle %d", handle)
		}
		arity := vm.program.FuncArity[handle]
		args, err := vm.popN(arity)
		if err != nil {
			return bytecode.Value{}, err
		}
		return vm.callHost(name, args)
	case bytecode.FuncIntrinsic:
		name, ok := vm.program.IntrinsicNames[handle]
		if !ok {
			return bytecode.Value{}, runtimeErrorf("no intrinsic name recorded for handle %d", handle)
		}
		arity := vm.program.FuncArity[handle]
		args, err := vm.popN(arity)
		if err != nil {
			return bytecode.Value{}, err
		}
		return vm.applyIntrinsicByName(name, args)
	}
	return bytecode.Value{}, runtimeErrorf("unknown function kind %d", kind)
}

// makeFuncRef builds the first-class value OpPushFunctionRef leaves on
// the stack, recording enough of handle's identity for callFuncRef to
// dispatch later without re-consulting the Program's tables at call time
// for the User case (a FuncRef's Handle already is the FunctionID).
func (vm *VM) makeFuncRef(kind bytecode.FuncKind, handle types.FunctionID) bytecode.FuncRef {
	name := ""
	switch kind {
	case bytecode.FuncForeign:
		name = vm.program.ForeignNames[handle]
	case bytecode.FuncIntrinsic:
		name = vm.program.IntrinsicNames[handle]
	}
	return bytecode.FuncRef{Kind: kind, Name: name, Handle: uint64(handle)}
}

// callFuncRef dispatches OpCallFirstClassFunction's popped callee value,
// mirroring callByHandle's three-way split.
func (vm *VM) callFuncRef(ref bytecode.FuncRef) (bytecode.Value, error) {
	return vm.callByHandle(ref.Kind, types.FunctionID(ref.Handle))
}

// callHost marshals args into host.Table.Call's native argument
// convention and boxes its result back into a bytecode.Value.
func (vm *VM) callHost(name string, args []bytecode.Value) (bytecode.Value, error) {
	hostArgs := make([]any, len(args))
	for i, a := range args {
		hostArgs[i] = vm.toHostArg(a)
	}
	result, err := vm.host.Call(name, hostArgs)
	if err != nil {
		return bytecode.Value{}, runtimeErrorf("host call %q failed: %v", name, err)
	}
	return vm.fromHostResult(result), nil
}

// toHostArg converts one runtime Value into the plain Go type
// internal/host's bindings type-switch on. An array of VInt elements is
// treated as the conventional byte-string representation (see
// bytecode's stringLitValue doc comment) since no host binding ever
// receives a raw array for any other reason.
func (vm *VM) toHostArg(v bytecode.Value) any {
	switch v.Kind {
	case bytecode.VBool:
		return v.Bool()
	case bytecode.VInt:
		return v.I
	case bytecode.VFloat:
		return v.F
	case bytecode.VArray:
		if s, ok := arrayAsString(v.Arr); ok {
			return s
		}
		return v.Arr
	default:
		return v
	}
}

// fromHostResult boxes a host binding's native Go return value back
// into a runtime Value. nil marshals to Void (every host binding with
// nothing meaningful to return, e.g. print/thread_sleep).
func (vm *VM) fromHostResult(result any) bytecode.Value {
	switch r := result.(type) {
	case nil:
		return bytecode.VoidValue()
	case bool:
		return bytecode.BoolValue(r)
	case int:
		return bytecode.IntValue(int64(r))
	case int64:
		return bytecode.IntValue(r)
	case uint64:
		return bytecode.IntValue(int64(r))
	case uintptr:
		return bytecode.IntValue(int64(r))
	case float64:
		return bytecode.FloatValue(r)
	case string:
		return stringValue(r)
	default:
		return bytecode.VoidValue()
	}
}

func arrayAsString(arr *bytecode.ArrayInstance) (string, bool) {
	buf := make([]byte, len(arr.Elems))
	for i, e := range arr.Elems {
		if e.Kind != bytecode.VInt {
			return "", false
		}
		buf[i] = byte(e.I)
	}
	return string(buf), true
}

// stringValue builds the array(i8) runtime representation a Ril string
// literal compiles to (bytecode.stringLitValue's unexported runtime
// twin), for boxing a host string result back into the VM's value
// model.
func stringValue(s string) bytecode.Value {
	elems := make([]bytecode.Value, len(s))
	for i := 0; i < len(s); i++ {
		elems[i] = bytecode.IntValue(int64(s[i]))
	}
	return bytecode.ArrayValue(bytecode.NewArrayInstance(elems))
}

// applyIntrinsicByName evaluates a first-class reference to an
// intrinsic operator at runtime — the same Index/*/&/binary/unary
// dispatch bytecode.Compiler's compileIntrinsicFunctionCall lowers at
// compile time, reproduced here because OpCallFirstClassFunction only
// learns which intrinsic it's calling once the FuncRef reaches the top
// of stack, too late for the compiler to have emitted a direct
// OpBinaryOp/OpArrayIndex instead.
func (vm *VM) applyIntrinsicByName(name string, args []bytecode.Value) (bytecode.Value, error) {
	switch name {
	case "Index":
		return vm.arrayGet(args[0], args[1])
	case "*":
		if len(args) == 1 {
			return vm.arrayGet(args[0], bytecode.IntValue(0))
		}
	case "&":
		return bytecode.ArrayValue(bytecode.NewArrayInstance([]bytecode.Value{args[0]})), nil
	case "-":
		if len(args) == 1 {
			return applyUnOp(bytecode.UnNeg, args[0])
		}
	case "!":
		if len(args) == 1 {
			return applyUnOp(bytecode.UnNot, args[0])
		}
	}
	if op, ok := bytecode.BinOpFromName(name); ok && len(args) == 2 {
		return applyBinOp(op, args[0], args[1])
	}
	return bytecode.Value{}, runtimeErrorf("unknown intrinsic %q applied as a first-class value", name)
}

func applyBinOp(op bytecode.BinOp, left, right bytecode.Value) (bytecode.Value, error) {
	if left.Kind == bytecode.VFloat || right.Kind == bytecode.VFloat {
		return applyFloatBinOp(op, left.F, right.F)
	}
	return applyIntBinOp(op, left.I, right.I)
}

func applyIntBinOp(op bytecode.BinOp, l, r int64) (bytecode.Value, error) {
	switch op {
	case bytecode.BinAdd:
		return bytecode.IntValue(l + r), nil
	case bytecode.BinSub:
		return bytecode.IntValue(l - r), nil
	case bytecode.BinMul:
		return bytecode.IntValue(l * r), nil
	case bytecode.BinDiv:
		if r == 0 {
			return bytecode.Value{}, runtimeErrorf("integer division by zero")
		}
		return bytecode.IntValue(l / r), nil
	case bytecode.BinEq:
		return bytecode.BoolValue(l == r), nil
	case bytecode.BinNe:
		return bytecode.BoolValue(l != r), nil
	case bytecode.BinLt:
		return bytecode.BoolValue(l < r), nil
	case bytecode.BinLe:
		return bytecode.BoolValue(l <= r), nil
	case bytecode.BinGt:
		return bytecode.BoolValue(l > r), nil
	case bytecode.BinGe:
		return bytecode.BoolValue(l >= r), nil
	}
	return bytecode.Value{}, runtimeErrorf("unknown integer binary op %v", op)
}

// applyFloatBinOp never traps on division by zero: IEEE-754 gives ±Inf
// or NaN, matching Go's native float semantics.
func applyFloatBinOp(op bytecode.BinOp, l, r float64) (bytecode.Value, error) {
	switch op {
	case bytecode.BinAdd:
		return bytecode.FloatValue(l + r), nil
	case bytecode.BinSub:
		return bytecode.FloatValue(l - r), nil
	case bytecode.BinMul:
		return bytecode.FloatValue(l * r), nil
	case bytecode.BinDiv:
		return bytecode.FloatValue(l / r), nil
	case bytecode.BinEq:
		return bytecode.BoolValue(l == r), nil
	case bytecode.BinNe:
		return bytecode.BoolValue(l != r), nil
	case bytecode.BinLt:
		return bytecode.BoolValue(l < r), nil
	case bytecode.BinLe:
		return bytecode.BoolValue(l <= r), nil
	case bytecode.BinGt:
		return bytecode.BoolValue(l > r), nil
	case bytecode.BinGe:
		return bytecode.BoolValue(l >= r), nil
	}
	return bytecode.Value{}, runtimeErrorf("unknown float binary op %v", op)
}

func applyUnOp(op bytecode.UnOp, v bytecode.Value) (bytecode.Value, error) {
	switch op {
	case bytecode.UnNeg:
		if v.Kind == bytecode.VFloat {
			return bytecode.FloatValue(-v.F), nil
		}
		return bytecode.IntValue(-v.I), nil
	case bytecode.UnNot:
		return bytecode.BoolValue(!v.Bool()), nil
	}
	return bytecode.Value{}, runtimeErrorf("unknown unary op %v", op)
}
