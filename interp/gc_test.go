package interp

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestHeapCollectsUnreachableCons(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	h := NewHeap(log)

	root := NewCons(h, Integer(1), Nil)
	_ = NewCons(h, Integer(2), Nil) // never rooted

	require.Equal(t, 2, h.Len())
	h.Collect([]GCObject{root.Cons})
	require.Equal(t, 1, h.Len())
}

func TestHeapRunsFinalizerOnCollection(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	h := NewHeap(log)

	c := NewCons(h, Integer(1), Nil)
	finalized := false
	h.SetFinalizer(c.Cons, func() { finalized = true })

	h.Collect(nil)
	require.True(t, finalized)
	require.Equal(t, 0, h.Len())
}

func TestHeapKeepsReachableCycle(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	h := NewHeap(log)

	a := NewCons(h, Nil, Nil)
	b := NewCons(h, Nil, Nil)
	a.Cons.Cdr = b
	b.Cons.Cdr = a // reference cycle

	h.Collect([]GCObject{a.Cons})
	require.Equal(t, 2, h.Len())
}

func TestEnvLookupAndShadowing(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	h := NewHeap(log)

	outer := NewEnv(h, nil)
	outer.Define("x", Integer(1))
	inner := NewEnv(h, outer)
	inner.Define("x", Integer(2))

	v, ok := inner.Lookup("x")
	require.True(t, ok)
	require.Equal(t, int64(2), v.Int)

	v, ok = outer.Lookup("x")
	require.True(t, ok)
	require.Equal(t, int64(1), v.Int)

	_, ok = inner.Lookup("y")
	require.False(t, ok)
}

func TestEnvSetFindsInnermostBinding(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	h := NewHeap(log)

	outer := NewEnv(h, nil)
	outer.Define("x", Integer(1))
	inner := NewEnv(h, outer)

	require.True(t, inner.Set("x", Integer(99)))
	v, _ := outer.Lookup("x")
	require.Equal(t, int64(99), v.Int)

	require.False(t, inner.Set("undefined", Integer(0)))
}
