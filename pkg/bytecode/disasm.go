package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the function.
func (f *Function) Disassemble() string {
	return f.DisassembleWithName("")
}

// DisassembleWithName returns a listing with a name header.
func (f *Function) DisassembleWithName(name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; Nightjar Bytecode, %d bytes\n", len(f.Code)))
	sb.WriteString(fmt.Sprintf("; Locals: %d slots", f.NumLocals))
	if f.Varargs {
		sb.WriteString(" [VARARGS]")
	}
	sb.WriteString("\n")

	if len(f.Constants) > 0 {
		sb.WriteString("; Constants:\n")
		for i, v := range f.Constants {
			display := v.String()
			if len(display) > 40 {
				display = display[:37] + "..."
			}
			display = strings.ReplaceAll(display, "\n", "\\n")
			sb.WriteString(fmt.Sprintf(";   [%3d] %s\n", i, display))
		}
	}
	sb.WriteString("\n")

	pc := 0
	for pc < len(f.Code) {
		pc = f.disassembleInstruction(&sb, pc)
	}
	return sb.String()
}

// disassembleInstruction renders one instruction and returns the offset of
// the next one. Truncated operands end the listing.
func (f *Function) disassembleInstruction(sb *strings.Builder, pc int) int {
	op := Opcode(f.Code[pc])
	sb.WriteString(fmt.Sprintf("%04d  %-13s", pc, op.String()))
	next := pc + 1

	words := make([]Word, 0, 2)
	for i := 0; i < op.OperandWords(); i++ {
		if next+WordSize > len(f.Code) {
			sb.WriteString("  <truncated>\n")
			return len(f.Code)
		}
		words = append(words, f.WordAt(next))
		next += WordSize
	}

	switch op {
	case OpLoadConst, OpLoadFuncref:
		sb.WriteString(fmt.Sprintf(" %4d  ; %s", words[0], f.constPreview(words[0])))
	case OpSend, OpSuperSend:
		sb.WriteString(fmt.Sprintf(" %4d %4d  ; %s", words[0], words[1], f.constPreview(words[0])))
	case OpOperator:
		sb.WriteString(fmt.Sprintf(" %4d  ; %s", words[0], Operator(words[0])))
	case OpJump, OpJumpIf, OpJumpIfNot:
		sb.WriteString(fmt.Sprintf(" -> %04d", words[0]))
	default:
		for _, w := range words {
			sb.WriteString(fmt.Sprintf(" %4d", w))
		}
	}
	sb.WriteString("\n")
	return next
}

func (f *Function) constPreview(i Word) string {
	if int(i) >= len(f.Constants) {
		return "<bad pool index>"
	}
	return f.Constants[i].String()
}
