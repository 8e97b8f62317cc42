package interp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSymbolInterningIdentity(t *testing.T) {
	a := Intern("foo")
	b := Intern("foo")
	require.True(t, a == b, "two interned symbols with the same name must be the same pointer")

	c := Intern("bar")
	require.False(t, a == c)
}

func TestTruthiness(t *testing.T) {
	require.True(t, IsTruthy(Integer(0)))
	require.True(t, IsTruthy(Nil))
	require.True(t, IsTruthy(StringValue("")))
	require.True(t, IsTruthy(True))
	require.False(t, IsTruthy(False))
}

func TestArityAccepts(t *testing.T) {
	exact := Arity{Kind: ArityExact, Lo: 2}
	require.True(t, exact.Accepts(2))
	require.False(t, exact.Accepts(1))

	atLeast := Arity{Kind: ArityAtLeast, Lo: 1}
	require.True(t, atLeast.Accepts(1))
	require.True(t, atLeast.Accepts(5))
	require.False(t, atLeast.Accepts(0))

	rng := Arity{Kind: ArityRange, Lo: 1, Hi: 3}
	require.True(t, rng.Accepts(2))
	require.False(t, rng.Accepts(4))
}

func TestStringValRefcount(t *testing.T) {
	s := NewStringVal("hi")
	require.Equal(t, int32(1), s.refs)
	s.Retain()
	require.Equal(t, int32(2), s.refs)
	s.Release()
	require.Equal(t, int32(1), s.refs)
	require.Equal(t, "hi", s.String())
}
