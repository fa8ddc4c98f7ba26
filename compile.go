package tagre

import (
	"errors"
	"slices"
	"strconv"
)

// Flag is a bitmask of compile options.
// The zero value selects the classic syntax.
type Flag uint8

const (
	// FlagExtendedEscapes maps \b \n \f \r \t to their control characters
	// and lets a backslash escape the next character inside [...].
	FlagExtendedEscapes Flag = 1 << iota
)

// maxTag is the highest capture tag. Tag 0 is the whole match.
const maxTag = 9

var (
	ErrMissingBracket        = errors.New("missing ]")
	ErrEmptyClosure          = errors.New("empty closure")
	ErrIllegalClosure        = errors.New("illegal closure")
	ErrTooManyGroups         = errors.New(`too many \(\) pairs`)
	ErrUnmatchedCloseGroup   = errors.New(`unmatched \)`)
	ErrUnmatchedOpenGroup    = errors.New(`unmatched \(`)
	ErrNullGroup             = errors.New(`null pattern inside \(\)`)
	ErrNullWordBoundary      = errors.New(`null pattern inside \<\>`)
	ErrUndeterminedReference = errors.New("undetermined reference")
	ErrCyclicalReference     = errors.New("cyclical reference")
	ErrEmptyPattern          = errors.New("empty pattern")
)

// SyntaxError describes why a pattern failed to compile.
// Kind is one of the Err* values of this package, so
// errors.Is(err, ErrMissingBracket) works on the returned error.
type SyntaxError struct {
	Kind error
	// Offset is the byte offset in the pattern where the error was found.
	Offset int
}

func (e *SyntaxError) Error() string {
	return e.Kind.Error() + " at offset " + strconv.Itoa(e.Offset)
}

func (e *SyntaxError) Unwrap() error {
	return e.Kind
}

var _ error = (*SyntaxError)(nil)

func newSyntaxError(kind error, offset int) *SyntaxError {
	return &SyntaxError{Kind: kind, Offset: offset}
}

type opcode uint8

const (
	opEnd opcode = iota
	opLiteral
	opAny
	opClass
	opLineStart
	opLineEnd
	opGroupStart
	opGroupEnd
	opWordStart
	opWordEnd
	opBackref
	opClosure
)

type inst struct {
	op opcode
	// opLiteral
	c byte
	// tag for opGroupStart, opGroupEnd and opBackref;
	// length of the repeated sub-program for opClosure
	arg int
	// opClass. high is true when bytes >= 128 belong to the class,
	// which is the case for negated classes.
	set  charSet
	high bool
}

// accepts reports whether a single-character instruction consumes c.
func (in *inst) accepts(c byte) bool {
	switch in.op {
	case opLiteral:
		return in.c == c
	case opAny:
		return true
	case opClass:
		if c >= maxChar {
			return in.high
		}
		return in.set.has(c)
	}
	return false
}

// construct classifies the most recently compiled element, which is the
// operand of a following closure.
type constructKind uint8

const (
	constructNone constructKind = iota
	constructAtom
	constructGroup
	constructClosure
	constructLineStart
	constructLineEnd
	constructGroupStart
	constructWordStart
	constructWordEnd
	constructBackref
)

type construct struct {
	kind constructKind
	// index of the first instruction of the construct
	start int
}

type openTag struct {
	tag   int
	start int
}

type compiler struct {
	pattern string
	flags   Flag
	pos     int
	prog    []inst
	tags    []openTag
	nextTag int
	last    construct
}

func (c *compiler) emit(in inst) int {
	pos := len(c.prog)
	c.prog = append(c.prog, in)
	return pos
}

func (c *compiler) compile() error {
	if c.pattern == "" {
		return newSyntaxError(ErrEmptyPattern, 0)
	}
	c.nextTag = 1
	for c.pos < len(c.pattern) {
		offset := c.pos
		ch := c.pattern[c.pos]
		c.pos++
		start := len(c.prog)
		switch ch {
		case '.':
			c.emit(inst{op: opAny})
			c.last = construct{kind: constructAtom, start: start}
		case '^':
			if offset == 0 {
				c.emit(inst{op: opLineStart})
				c.last = construct{kind: constructLineStart, start: start}
			} else {
				c.emitLiteral(ch)
			}
		case '$':
			if c.pos == len(c.pattern) {
				c.emit(inst{op: opLineEnd})
				c.last = construct{kind: constructLineEnd, start: start}
			} else {
				c.emitLiteral(ch)
			}
		case '[':
			if err := c.compileClass(offset); err != nil {
				return err
			}
		case '*', '+':
			if err := c.compileClosure(ch == '+', offset); err != nil {
				return err
			}
		case '\\':
			if err := c.compileEscape(offset); err != nil {
				return err
			}
		default:
			c.emitLiteral(ch)
		}
	}
	if len(c.tags) > 0 {
		return newSyntaxError(ErrUnmatchedOpenGroup, len(c.pattern))
	}
	c.emit(inst{op: opEnd})
	return nil
}

func (c *compiler) emitLiteral(ch byte) {
	start := c.emit(inst{op: opLiteral, c: ch})
	c.last = construct{kind: constructAtom, start: start}
}

// compileClass parses a bracket expression. c.pos is just past the '['.
func (c *compiler) compileClass(offset int) error {
	p := c.pattern
	var set charSet
	negated := false
	if c.pos < len(p) && p[c.pos] == '^' {
		negated = true
		c.pos++
	}
	if c.pos < len(p) && p[c.pos] == '-' {
		set.add('-')
		c.pos++
	}
	if c.pos < len(p) && p[c.pos] == ']' {
		set.add(']')
		c.pos++
	}
	for c.pos < len(p) && p[c.pos] != ']' {
		ch := p[c.pos]
		switch {
		case ch == '-' && c.pos+1 < len(p) && p[c.pos+1] != ']':
			// the range starts after the previous pattern character,
			// which is already in the set
			set.addRange(int(p[c.pos-1])+1, int(p[c.pos+1]))
			c.pos += 2
		case ch == '\\' && c.flags&FlagExtendedEscapes != 0 && c.pos+1 < len(p):
			set.add(p[c.pos+1])
			c.pos += 2
		default:
			set.add(ch)
			c.pos++
		}
	}
	if c.pos >= len(p) {
		return newSyntaxError(ErrMissingBracket, offset)
	}
	c.pos++
	if negated {
		set.complement()
	}
	start := c.emit(inst{op: opClass, set: set, high: negated})
	c.last = construct{kind: constructAtom, start: start}
	return nil
}

// compileClosure wraps the previous construct in a closure.
// For '+' the construct is first duplicated so that the closure
// covers the copy.
func (c *compiler) compileClosure(plus bool, offset int) error {
	switch c.last.kind {
	case constructNone:
		return newSyntaxError(ErrEmptyClosure, offset)
	case constructClosure:
		// a** is a*
		return nil
	case constructAtom, constructGroup:
	default:
		return newSyntaxError(ErrIllegalClosure, offset)
	}
	operand := c.last.start
	if plus {
		dup := slices.Clone(c.prog[operand:])
		c.prog = append(c.prog, dup...)
		operand += len(dup)
	}
	inner := len(c.prog) - operand
	c.prog = slices.Insert(c.prog, operand, inst{op: opClosure, arg: inner})
	c.last = construct{kind: constructClosure, start: operand}
	return nil
}

func (c *compiler) isOpen(tag int) bool {
	for _, t := range c.tags {
		if t.tag == tag {
			return true
		}
	}
	return false
}

// compileEscape handles a backslash sequence. c.pos is just past the '\'.
func (c *compiler) compileEscape(offset int) error {
	if c.pos >= len(c.pattern) {
		// trailing backslash
		c.emitLiteral('\\')
		return nil
	}
	ch := c.pattern[c.pos]
	c.pos++
	start := len(c.prog)
	switch ch {
	case '(':
		if c.nextTag > maxTag {
			return newSyntaxError(ErrTooManyGroups, offset)
		}
		c.tags = append(c.tags, openTag{tag: c.nextTag, start: start})
		c.emit(inst{op: opGroupStart, arg: c.nextTag})
		c.nextTag++
		c.last = construct{kind: constructGroupStart, start: start}
	case ')':
		if c.last.kind == constructGroupStart {
			return newSyntaxError(ErrNullGroup, offset)
		}
		if len(c.tags) == 0 {
			return newSyntaxError(ErrUnmatchedCloseGroup, offset)
		}
		open := c.tags[len(c.tags)-1]
		c.tags = c.tags[:len(c.tags)-1]
		c.emit(inst{op: opGroupEnd, arg: open.tag})
		c.last = construct{kind: constructGroup, start: open.start}
	case '<':
		c.emit(inst{op: opWordStart})
		c.last = construct{kind: constructWordStart, start: start}
	case '>':
		if c.last.kind == constructWordStart {
			return newSyntaxError(ErrNullWordBoundary, offset)
		}
		c.emit(inst{op: opWordEnd})
		c.last = construct{kind: constructWordEnd, start: start}
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		n := int(ch - '0')
		if c.isOpen(n) {
			return newSyntaxError(ErrCyclicalReference, offset)
		}
		if n >= c.nextTag {
			return newSyntaxError(ErrUndeterminedReference, offset)
		}
		c.emit(inst{op: opBackref, arg: n})
		c.last = construct{kind: constructBackref, start: start}
	default:
		if c.flags&FlagExtendedEscapes != 0 {
			switch ch {
			case 'b':
				ch = '\b'
			case 'n':
				ch = '\n'
			case 'f':
				ch = '\f'
			case 'r':
				ch = '\r'
			case 't':
				ch = '\t'
			}
		}
		c.emitLiteral(ch)
	}
	return nil
}

func compilePattern(pattern string, flags Flag) (*compiler, error) {
	c := compiler{
		pattern: pattern,
		flags:   flags,
	}
	if err := c.compile(); err != nil {
		return nil, err
	}
	return &c, nil
}
