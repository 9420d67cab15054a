package labelstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperast/hyperast-go/pkg/labelstore"
)

func TestIntern_SameBytesSameID(t *testing.T) {
	s := labelstore.New()

	a := s.InternString("foo")
	b := s.InternString("foo")

	assert.Equal(t, a, b)
}

func TestIntern_DifferentBytesDifferentID(t *testing.T) {
	s := labelstore.New()

	a := s.InternString("foo")
	b := s.InternString("bar")

	assert.NotEqual(t, a, b)
}

func TestIntern_EmptyIsNoLabel(t *testing.T) {
	s := labelstore.New()

	assert.Equal(t, labelstore.NoLabel, s.InternString(""))
}

func TestResolve_RoundTrip(t *testing.T) {
	s := labelstore.New()

	id := s.InternString("hello world")

	text, ok := s.ResolveString(id)
	require.True(t, ok)
	assert.Equal(t, "hello world", text)
}

func TestResolve_UnknownID(t *testing.T) {
	s := labelstore.New()

	_, ok := s.Resolve(labelstore.ID(999))
	assert.False(t, ok)
}

func TestLen_CountsDistinctLabels(t *testing.T) {
	s := labelstore.New()

	s.InternString("a")
	s.InternString("b")
	s.InternString("a")

	assert.Equal(t, 2, s.Len())
}
