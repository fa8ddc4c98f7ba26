package tagre

import "errors"

var (
	// ErrNoPriorMatch is returned by Substitute when the last search did not
	// find a match.
	ErrNoPriorMatch = errors.New("tagre: substitute without a successful match")
	// ErrCorruptCapture is returned by Substitute when a tag's boundaries
	// do not describe a range of the searched input.
	ErrCorruptCapture = errors.New("tagre: corrupt capture range")
)

// Substitute expands template with the result of the last successful
// search:
//
//	&       the whole match
//	\0..\9  the text of that tag; nothing if the tag did not take part
//	\c      c, for any other character c
//
// Every other character is copied verbatim. On error no output is
// produced.
func (m *Matcher) Substitute(template string) (string, error) {
	out, err := m.AppendSubstitute(nil, template)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// AppendSubstitute is like Substitute but appends the expansion to dst.
// On error dst is returned unchanged.
func (m *Matcher) AppendSubstitute(dst []byte, template string) ([]byte, error) {
	if !m.matched {
		return dst, ErrNoPriorMatch
	}
	out := dst
	for i := 0; i < len(template); i++ {
		c := template[i]
		tag := -1
		switch c {
		case '&':
			tag = 0
		case '\\':
			if i+1 == len(template) {
				break
			}
			i++
			c = template[i]
			if c >= '0' && c <= '9' {
				tag = int(c - '0')
			}
		}
		if tag < 0 {
			out = append(out, c)
			continue
		}
		s, e := m.vm.start[tag], m.vm.end[tag]
		if s < 0 || e < 0 {
			continue
		}
		if e < s || e > len(m.vm.input) {
			return dst, ErrCorruptCapture
		}
		out = append(out, m.vm.input[s:e]...)
	}
	return out, nil
}
