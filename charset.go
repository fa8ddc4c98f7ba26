package tagre

import "strings"

// maxChar is the size of the classified alphabet. Bytes at or above it are
// never members of a charSet.
const maxChar = 128

// charSet is a 128-bit membership set. Character c lives in bit c&7 of
// byte c>>3.
type charSet [maxChar / 8]byte

func (s *charSet) add(c byte) {
	if c < maxChar {
		s[c>>3] |= 1 << (c & 7)
	}
}

// addRange adds lo..hi inclusive. An empty range (lo > hi) adds nothing.
func (s *charSet) addRange(lo, hi int) {
	if hi >= maxChar {
		hi = maxChar - 1
	}
	for c := lo; c <= hi; c++ {
		if c >= 0 {
			s.add(byte(c))
		}
	}
}

func (s *charSet) complement() {
	for i := range s {
		s[i] = ^s[i]
	}
}

func (s *charSet) has(c byte) bool {
	return c < maxChar && s[c>>3]&(1<<(c&7)) != 0
}

// members lists the set in ascending order.
func (s *charSet) members() string {
	var b strings.Builder
	for c := 0; c < maxChar; c++ {
		if s.has(byte(c)) {
			b.WriteByte(byte(c))
		}
	}
	return b.String()
}
