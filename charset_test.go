package tagre

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestCharSet(t *testing.T) {
	var s charSet
	s.add('a')
	s.add(0)
	s.add(127)
	s.add(200)
	assert.Assert(t, s.has('a'))
	assert.Assert(t, s.has(0))
	assert.Assert(t, s.has(127))
	assert.Assert(t, !s.has(200))
	assert.Assert(t, !s.has('b'))
	assert.Equal(t, s.members(), "\x00a\x7f")

	var r charSet
	r.addRange('a', 'e')
	assert.Equal(t, r.members(), "abcde")

	var empty charSet
	empty.addRange('z', 'a')
	assert.Equal(t, empty, charSet{})

	var high charSet
	high.addRange(120, 300)
	assert.Equal(t, high.members(), "xyz{|}~\x7f")

	r.complement()
	assert.Assert(t, !r.has('c'))
	assert.Assert(t, r.has('f'))
	assert.Assert(t, !r.has(0x80))
	assert.Equal(t, len(r.members()), maxChar-5)
}

func TestInstAccepts(t *testing.T) {
	var set charSet
	set.add('x')
	pos := inst{op: opClass, set: set}
	neg := inst{op: opClass, set: set, high: true}
	neg.set.complement()

	assert.Assert(t, pos.accepts('x'))
	assert.Assert(t, !pos.accepts('y'))
	assert.Assert(t, !pos.accepts(0xe9))
	assert.Assert(t, !neg.accepts('x'))
	assert.Assert(t, neg.accepts('y'))
	assert.Assert(t, neg.accepts(0xe9))

	any := inst{op: opAny}
	assert.Assert(t, any.accepts(0))
	assert.Assert(t, any.accepts(0xff))

	lit := inst{op: opLiteral, c: 0xe9}
	assert.Assert(t, lit.accepts(0xe9))
	assert.Assert(t, !lit.accepts('e'))

	assert.Assert(t, !(&inst{op: opBackref}).accepts('a'))
}
