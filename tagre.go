// Package tagre implements classic tagged regular expressions: the syntax
// of ed and early grep with \( \) tags, \1..\9 backreferences, \< \> word
// boundaries and & / \N substitution templates.
//
// A pattern is compiled into a program that is run by a backtracking
// matcher. Matching is leftmost, and every closure takes the longest run
// that still lets the rest of the pattern match.
//
// Syntax:
//
//	c       any character other than . \ [ * + ^ $ matches itself
//	.       any character
//	\c      c itself, except for the forms below
//	[set]   one character of set; [^set] one character not in set.
//	        A - or ] right after [ or [^ is literal, a-z is a range
//	x*      zero or more x, where x is one of the forms above or a group
//	x+      one or more x
//	\(x\)   tagged group, numbered from 1 to 9 by its \(
//	\N      the text matched by group N
//	\<  \>  beginning and end of a word
//	^   $   beginning and end of the input, only as the first and last
//	        pattern character; elsewhere they are literal
//
// The alphabet is the 128 ASCII characters. Other bytes only match
// themselves, '.' and negated classes.
package tagre

import (
	"bytes"
	"context"
)

// Regexp is a compiled pattern.
// It is safe for concurrent use by multiple goroutines.
// All methods on Regexp do not mutate internal state.
type Regexp struct {
	expr    string
	flags   Flag
	prog    []inst
	numTags int
}

// Compile parses a pattern and returns a Regexp that can be applied
// against any number of inputs.
func Compile(pattern string, flags Flag) (*Regexp, error) {
	c, err := compilePattern(pattern, flags)
	if err != nil {
		return nil, err
	}
	return &Regexp{
		expr:    pattern,
		flags:   flags,
		prog:    c.prog,
		numTags: c.nextTag - 1,
	}, nil
}

// MustCompile is like [Compile] but panics if the expression cannot be parsed.
// It simplifies safe initialization of global variables containing regular
// expressions.
func MustCompile(pattern string, flags Flag) *Regexp {
	re, err := Compile(pattern, flags)
	if err != nil {
		panic("tagre: MustCompile: " + err.Error())
	}
	return re
}

// String returns the source pattern.
func (re *Regexp) String() string {
	return re.expr
}

// NumTags returns the number of tagged groups in the pattern.
func (re *Regexp) NumTags() int {
	return re.numTags
}

// Matcher returns a new Matcher for re that classifies word characters
// with DefaultWordTable.
func (re *Regexp) Matcher() *Matcher {
	return NewMatcher(re, nil)
}

// Match reports whether input contains a match of re.
func (re *Regexp) Match(input []byte) bool {
	_, ok := re.Matcher().Find(input)
	return ok
}

// MatchString is like Match but takes a string.
func (re *Regexp) MatchString(s string) bool {
	_, ok := re.Matcher().FindString(s)
	return ok
}

// ReplaceAll returns a copy of input in which every match of re is replaced
// by the expansion of template. See [Matcher.Substitute] for the template
// syntax.
func (re *Regexp) ReplaceAll(input []byte, template string) ([]byte, error) {
	return re.Matcher().ReplaceAll(input, template)
}

// Span is the half-open byte range [Start, End) of a match or a tag.
type Span struct {
	Start int
	End   int
}

// Len returns the length of the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Matcher runs a Regexp and holds the tag boundaries of its last search.
// The boundaries are only valid until the next search; copy them out to
// keep them.
//
// A Matcher is not safe for concurrent use. Use one Matcher per goroutine;
// they may share the same Regexp.
type Matcher struct {
	re      *Regexp
	words   *WordTable
	vm      machine
	matched bool
}

// NewMatcher returns a Matcher for re. A nil words selects DefaultWordTable.
func NewMatcher(re *Regexp, words *WordTable) *Matcher {
	if words == nil {
		words = DefaultWordTable
	}
	m := &Matcher{re: re, words: words}
	m.vm.prog = re.prog
	m.vm.reset()
	return m
}

// SetStepLimit bounds the number of program steps a single search may
// take. Zero, the default, means no limit. A search that runs out of steps
// reports no match; FindContext also returns ErrStepLimit.
//
// Groups and repetitions of groups recurse once per step, so the limit also
// bounds stack growth. Without one, a group closure such as \(.\)* over a
// very long input can exhaust the goroutine stack.
func (m *Matcher) SetStepLimit(n int) {
	if n < 0 {
		n = 0
	}
	m.vm.limit = n
}

// Find searches input for the leftmost match of the pattern.
func (m *Matcher) Find(input []byte) (Span, bool) {
	span, ok, _ := m.FindContext(context.Background(), input, 0)
	return span, ok
}

// FindString is like Find but takes a string.
func (m *Matcher) FindString(s string) (Span, bool) {
	return m.Find([]byte(s))
}

// FindAt searches input for the leftmost match that starts at or after
// from. Characters before from are still seen by \< and \>, and a pattern
// anchored with ^ only matches when from is 0.
func (m *Matcher) FindAt(input []byte, from int) (Span, bool) {
	span, ok, _ := m.FindContext(context.Background(), input, from)
	return span, ok
}

// FindContext is like FindAt but stops with an error when ctx is done or
// the step limit is exhausted. A search that ends with an error reports no
// match.
func (m *Matcher) FindContext(ctx context.Context, input []byte, from int) (Span, bool, error) {
	vm := &m.vm
	vm.reset()
	vm.input = input
	vm.words = m.words.snapshot()
	vm.ctx = ctx
	if ctx != nil && ctx.Done() == nil {
		// never canceled
		vm.ctx = nil
	}
	m.matched = false
	if from < 0 || from > len(input) {
		return Span{}, false, nil
	}

	final := -1
	accept := func(pos int) bool {
		final = pos
		return true
	}
	try := func(pos int) bool {
		vm.trial = pos
		return vm.run(0, len(vm.prog), pos, accept)
	}

	if len(vm.prog) == 0 {
		panic("tagre: bad program: empty")
	}
	trial := -1
	switch first := &vm.prog[0]; first.op {
	case opLineStart:
		if from == 0 && try(0) {
			trial = 0
		}
	case opLiteral:
		for pos := from; pos < len(input) && vm.err == nil; pos++ {
			i := bytes.IndexByte(input[pos:], first.c)
			if i < 0 {
				break
			}
			pos += i
			if try(pos) {
				trial = pos
				break
			}
		}
	default:
		for pos := from; pos <= len(input) && vm.err == nil; pos++ {
			if try(pos) {
				trial = pos
				break
			}
		}
	}
	vm.ctx = nil
	if err := vm.err; err != nil {
		vm.reset()
		return Span{}, false, err
	}
	if trial < 0 {
		return Span{}, false, nil
	}
	vm.start[0] = trial
	vm.end[0] = final
	m.matched = true
	return Span{Start: trial, End: final}, true, nil
}

// Matched reports whether the last search found a match.
func (m *Matcher) Matched() bool {
	return m.matched
}

// Group returns the span of tag 0..9 from the last successful search.
// Tag 0 is the whole match. It returns false when there was no match, the
// tag does not exist, or the tag did not take part in the match.
func (m *Matcher) Group(tag int) (Span, bool) {
	if !m.matched || tag < 0 || tag > maxTag {
		return Span{}, false
	}
	s, e := m.vm.start[tag], m.vm.end[tag]
	if s < 0 || e < 0 {
		return Span{}, false
	}
	return Span{Start: s, End: e}, true
}

// Bytes returns the text of tag from the last successful search, or nil
// when Group would return false. The slice aliases the searched input.
func (m *Matcher) Bytes(tag int) []byte {
	span, ok := m.Group(tag)
	if !ok || span.End < span.Start || span.End > len(m.vm.input) {
		return nil
	}
	return m.vm.input[span.Start:span.End]
}

// ReplaceAll returns a copy of input in which every non-overlapping match
// is replaced by the expansion of template. After an empty match the search
// resumes one byte further on, and an empty match adjacent to the previous
// match is left alone. Running out of steps is returned as
// ErrStepLimit. The step limit applies to each search separately; see
// SetStepLimit for why unbounded searches over long input are unsafe.
func (m *Matcher) ReplaceAll(input []byte, template string) ([]byte, error) {
	out := make([]byte, 0, len(input))
	pos := 0
	lastEnd := -1
	for pos <= len(input) {
		span, ok, err := m.FindContext(context.Background(), input, pos)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if span.Len() == 0 && span.Start == lastEnd {
			// an empty match right after the previous match is not replaced
			if span.Start < len(input) {
				out = append(out, input[pos:span.Start+1]...)
			}
			pos = span.Start + 1
			continue
		}
		out = append(out, input[pos:span.Start]...)
		if out, err = m.AppendSubstitute(out, template); err != nil {
			return nil, err
		}
		lastEnd = span.End
		pos = span.End
		if span.Len() == 0 {
			if pos < len(input) {
				out = append(out, input[pos])
			}
			pos++
		}
	}
	if pos < len(input) {
		out = append(out, input[pos:]...)
	}
	return out, nil
}
