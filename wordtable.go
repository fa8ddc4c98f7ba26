package tagre

import "sync"

// defaultWordSet holds 0-9 A-Z a-z and _.
var defaultWordSet = charSet{
	0, 0, 0, 0, 0, 0, 0377, 003, 0376, 0377, 0377, 0207,
	0376, 0377, 0377, 007,
}

// WordTable classifies characters as word characters for the \< and \>
// operators. Only characters below 128 can be classified.
//
// Additions are monotonic: Add never clears a character, and Reset is the
// only way back to the default table.
// It is safe for concurrent use by multiple goroutines.
type WordTable struct {
	mu  sync.RWMutex
	set charSet
}

// DefaultWordTable is the process-wide table used by matchers that were not
// given a table of their own.
var DefaultWordTable = NewWordTable()

// NewWordTable returns a table holding the default word characters
// A-Z a-z 0-9 and _.
func NewWordTable() *WordTable {
	return &WordTable{set: defaultWordSet}
}

// Add marks every byte of chars below 128 as a word character.
// Other bytes are ignored.
func (t *WordTable) Add(chars string) {
	t.mu.Lock()
	for i := 0; i < len(chars); i++ {
		t.set.add(chars[i])
	}
	t.mu.Unlock()
}

// Reset restores the default table.
func (t *WordTable) Reset() {
	t.mu.Lock()
	t.set = defaultWordSet
	t.mu.Unlock()
}

// IsWord reports whether c is a word character.
func (t *WordTable) IsWord(c byte) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.set.has(c)
}

// Chars returns every word character in ascending order.
func (t *WordTable) Chars() string {
	s := t.snapshot()
	return s.members()
}

func (t *WordTable) snapshot() charSet {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.set
}

// SetWordChars adds chars to DefaultWordTable. An empty string resets the
// table to its default contents instead.
func SetWordChars(chars string) {
	if chars == "" {
		DefaultWordTable.Reset()
		return
	}
	DefaultWordTable.Add(chars)
}

// ResetWordChars restores DefaultWordTable to its default contents.
func ResetWordChars() {
	DefaultWordTable.Reset()
}
