package tagre

import (
	"fmt"
	"strings"
)

// Dump returns a symbolic listing of the compiled program, one instruction
// per line. The body of a closure is indented below it.
//
//	pattern:  \(fo.*\)-\1
//	listing:  BOT 1
//	          CHR f
//	          CHR o
//	          CLOSURE
//	              ANY
//	          EOT 1
//	          CHR -
//	          REF 1
//	          END
func (re *Regexp) Dump() string {
	var b strings.Builder
	dumpProgram(&b, re.prog, 0, len(re.prog), 0)
	return b.String()
}

func dumpProgram(b *strings.Builder, prog []inst, pc, end, depth int) {
	for pc < end {
		in := &prog[pc]
		b.WriteString(strings.Repeat("    ", depth))
		switch in.op {
		case opEnd:
			b.WriteString("END")
		case opLiteral:
			b.WriteString("CHR " + printable(in.c))
		case opAny:
			b.WriteString("ANY")
		case opClass:
			if in.high {
				// list the characters the class rejects
				neg := in.set
				neg.complement()
				b.WriteString("NCL [" + printableString(neg.members()) + "]")
			} else {
				b.WriteString("CCL [" + printableString(in.set.members()) + "]")
			}
		case opLineStart:
			b.WriteString("BOL")
		case opLineEnd:
			b.WriteString("EOL")
		case opGroupStart:
			fmt.Fprintf(b, "BOT %d", in.arg)
		case opGroupEnd:
			fmt.Fprintf(b, "EOT %d", in.arg)
		case opWordStart:
			b.WriteString("BOW")
		case opWordEnd:
			b.WriteString("EOW")
		case opBackref:
			fmt.Fprintf(b, "REF %d", in.arg)
		case opClosure:
			b.WriteString("CLOSURE\n")
			dumpProgram(b, prog, pc+1, pc+1+in.arg, depth+1)
			pc += 1 + in.arg
			continue
		default:
			fmt.Fprintf(b, "BAD %d", in.op)
		}
		b.WriteByte('\n')
		pc++
	}
}

func printable(c byte) string {
	switch {
	case c < ' ':
		return "^" + string(rune(c^0x40))
	case c >= 0x7f:
		return fmt.Sprintf(`\x%02x`, c)
	}
	return string(rune(c))
}

func printableString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		b.WriteString(printable(s[i]))
	}
	return b.String()
}
