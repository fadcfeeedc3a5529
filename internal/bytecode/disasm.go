package bytecode

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ril-lang/rilc/internal/types"
)

// Disassemble renders every function in prog as human-readable text:
// one function header per Chunk, followed by its instructions as
// "<offset> <mnemonic> <operands>" lines. Functions are ordered by
// handle so the output is deterministic across runs of the same
// Program, which is what makes it suitable for go-snaps golden tests
// and for `cmd/rilc --dump-bytecode`.
func Disassemble(prog *Program) string {
	ids := make([]int, 0, len(prog.Functions))
	for id := range prog.Functions {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	var b strings.Builder
	for _, id := range ids {
		chunk := prog.Functions[types.FunctionID(id)]
		fmt.Fprintf(&b, "function %s(arity=%d, slots=%d)\n", chunk.Name, chunk.Arity, chunk.MaxSlots)
		b.WriteString(DisassembleChunk(chunk))
	}
	return b.String()
}

// DisassembleChunk renders one function's instruction stream.
func DisassembleChunk(c *Chunk) string {
	var b strings.Builder
	for offset, inst := range c.Code {
		fmt.Fprintf(&b, "%4d %s\n", offset, disassembleInstruction(c, inst))
	}
	return b.String()
}

func disassembleInstruction(c *Chunk, inst Instruction) string {
	op := inst.OpCode()
	a, operand := inst.A(), inst.B()
	switch op {
	case OpPushLit:
		return fmt.Sprintf("%-12s %d ; %s", op, operand, constantAt(c, operand))
	case OpPushVar, OpSetVar:
		return fmt.Sprintf("%-12s slot %d", op, operand)
	case OpPushGlobal, OpSetGlobal:
		return fmt.Sprintf("%-12s global %d", op, operand)
	case OpNewArray:
		return fmt.Sprintf("%-12s n=%d", op, operand)
	case OpNewStruct:
		return fmt.Sprintf("%-12s %s", op, typeAt(c, operand))
	case OpStructFieldInit, OpPushStructField, OpSetStructField:
		return fmt.Sprintf("%-12s field %d", op, operand)
	case OpCallFunction:
		return fmt.Sprintf("%-12s %s %s", op, FuncKind(a), functionAt(c, operand))
	case OpPushFunctionRef:
		return fmt.Sprintf("%-12s %s %s", op, FuncKind(a), functionAt(c, operand))
	case OpJump, OpJumpIfFalse:
		return fmt.Sprintf("%-12s -> %d", op, operand)
	case OpBinaryOp:
		return fmt.Sprintf("%-12s %s", op, BinOp(a))
	case OpUnaryOp:
		return fmt.Sprintf("%-12s %s", op, UnOp(a))
	case OpConvert:
		return fmt.Sprintf("%-12s %s", op, ConvertKind(a))
	case OpReturn:
		if a != 0 {
			return fmt.Sprintf("%-12s (value)", op)
		}
		return op.String()
	default:
		return op.String()
	}
}

func constantAt(c *Chunk, idx uint16) string {
	if int(idx) >= len(c.Constants) {
		return "<bad constant>"
	}
	return c.Constants[idx].String()
}

func typeAt(c *Chunk, idx uint16) string {
	if int(idx) >= len(c.Types) {
		return "<bad type>"
	}
	return c.Types[idx]
}

func functionAt(c *Chunk, idx uint16) string {
	if int(idx) >= len(c.Functions) {
		return "<bad function>"
	}
	return fmt.Sprintf("#%d", c.Functions[idx])
}
