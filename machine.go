package tagre

import (
	"bytes"
	"context"
	"errors"
	"fmt"
)

// ErrStepLimit is returned by FindContext when the matcher's step limit is
// exhausted before the search completes.
var ErrStepLimit = errors.New("tagre: step limit exceeded")

// ctxCheckInterval is how many steps run between context checks.
const ctxCheckInterval = 1024

// machine is the backtracking interpreter. run executes prog[pc:end] from
// input position pos and, when it reaches end, hands the final position to
// the continuation k. A false return means no path through the rest of the
// program succeeded.
type machine struct {
	prog  []inst
	input []byte
	words charSet

	// trial start of the current attempt
	trial int

	start [maxTag + 1]int
	end   [maxTag + 1]int

	ctx   context.Context
	limit int
	steps int
	err   error
}

func (vm *machine) reset() {
	for i := range vm.start {
		vm.start[i] = -1
		vm.end[i] = -1
	}
	vm.steps = 0
	vm.err = nil
}

func (vm *machine) step() bool {
	if vm.err != nil {
		return false
	}
	vm.steps++
	if vm.limit > 0 && vm.steps > vm.limit {
		vm.err = ErrStepLimit
		return false
	}
	if vm.ctx != nil && vm.steps%ctxCheckInterval == 0 {
		if err := vm.ctx.Err(); err != nil {
			vm.err = err
			return false
		}
	}
	return true
}

func (vm *machine) isWordAt(pos int) bool {
	return pos < len(vm.input) && vm.words.has(vm.input[pos])
}

func (vm *machine) run(pc, end, pos int, k func(pos int) bool) bool {
	for ; pc < end; pc++ {
		if !vm.step() {
			return false
		}
		in := &vm.prog[pc]
		switch in.op {
		case opEnd:
			return k(pos)
		case opLiteral, opAny, opClass:
			if pos >= len(vm.input) || !in.accepts(vm.input[pos]) {
				return false
			}
			pos++
		case opLineStart:
			if pos != vm.trial {
				return false
			}
		case opLineEnd:
			if pos != len(vm.input) {
				return false
			}
		case opGroupStart:
			saved := vm.start[in.arg]
			vm.start[in.arg] = pos
			if vm.run(pc+1, end, pos, k) {
				return true
			}
			vm.start[in.arg] = saved
			return false
		case opGroupEnd:
			saved := vm.end[in.arg]
			vm.end[in.arg] = pos
			if vm.run(pc+1, end, pos, k) {
				return true
			}
			vm.end[in.arg] = saved
			return false
		case opWordStart:
			if pos > 0 && vm.isWordAt(pos-1) || !vm.isWordAt(pos) {
				return false
			}
		case opWordEnd:
			if pos == 0 || !vm.isWordAt(pos-1) || vm.isWordAt(pos) {
				return false
			}
		case opBackref:
			s, e := vm.start[in.arg], vm.end[in.arg]
			if s >= 0 && e > s {
				if !bytes.HasPrefix(vm.input[pos:], vm.input[s:e]) {
					return false
				}
				pos += e - s
			}
		case opClosure:
			return vm.closure(pc, end, pos, k)
		default:
			panic(fmt.Sprintf("tagre: bad program: opcode %d at %d", in.op, pc))
		}
	}
	return k(pos)
}

// closure matches the longest run of the repeated sub-program, then retries
// the rest of the program at each shorter run down to zero repetitions.
func (vm *machine) closure(pc, end, pos int, k func(pos int) bool) bool {
	n := vm.prog[pc].arg
	body := pc + 1
	next := body + n
	if n < 1 || next > end {
		panic(fmt.Sprintf("tagre: bad program: closure of length %d at %d", n, pc))
	}
	if n > 1 {
		return vm.repeat(body, next, end, pos, k)
	}

	in := &vm.prog[body]
	switch in.op {
	case opLiteral, opAny, opClass:
	default:
		panic(fmt.Sprintf("tagre: bad program: closure over opcode %d at %d", in.op, pc))
	}
	far := pos
	for far < len(vm.input) && in.accepts(vm.input[far]) {
		far++
	}
	for p := far; p >= pos; p-- {
		if vm.run(next, end, p, k) {
			return true
		}
		if vm.err != nil {
			return false
		}
	}
	return false
}

// repeat runs one more iteration of prog[body:next] before falling back to
// the rest of the program, so the most repetitions are tried first.
// An iteration that consumes nothing ends the repetition.
func (vm *machine) repeat(body, next, end, pos int, k func(pos int) bool) bool {
	more := vm.run(body, next, pos, func(p int) bool {
		return p > pos && vm.repeat(body, next, end, p, k)
	})
	if more {
		return true
	}
	if vm.err != nil {
		return false
	}
	return vm.run(next, end, pos, k)
}
