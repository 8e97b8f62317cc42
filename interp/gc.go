package interp

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// GCObject is implemented by every mutable, GC-managed runtime value kind:
// cons cells, vectors, closures, continuations, environments, and frames
// (spec.md §3's category 3, §9's "tracing GC is required" design note).
// Atomic and immutable-shared kinds never implement this — they use value
// semantics or the ref-counted handles in value.go instead, per the
// invariant that only category-3 kinds may form reference cycles.
type GCObject interface {
	// gcID is a stable identity used by the heap's visited-set bookkeeping.
	gcID() uint64
	// gcTrace calls mark for every GCObject directly reachable from this
	// one (its "children" in the tracing sense).
	gcTrace(mark func(GCObject))
}

// gcHeader is embedded in every GCObject implementation to supply gcID.
type gcHeader struct {
	id uint64
}

func (h *gcHeader) gcID() uint64 { return h.id }

// Heap owns every live mutable-GC'd value and the roots that keep them
// alive. Unlike Go's own runtime GC (which already reclaims the Go memory
// behind these objects once nothing references them), this Heap exists to
// give the interpreter the *deterministic* collection semantics spec.md §5
// asks for: registered finalizers run exactly at Collect time, not at some
// unspecified point chosen by the host runtime.
type Heap struct {
	log *logrus.Logger

	nextID    uint64
	live      map[uint64]GCObject
	finalizer map[uint64]func()

	gcSem *semaphore.Weighted // serializes Collect against re-entrant calls
}

// NewHeap builds an empty heap.
func NewHeap(log *logrus.Logger) *Heap {
	return &Heap{
		log:       log,
		live:      make(map[uint64]GCObject),
		finalizer: make(map[uint64]func()),
		gcSem:     semaphore.NewWeighted(1),
	}
}

// nextHeapID hands out the next identity for a newly allocated GCObject.
// Callers (NewCons, NewVector, ...) set the embedded gcHeader.id to this
// value and then call Register.
func (h *Heap) nextHeapID() uint64 {
	h.nextID++
	return h.nextID
}

// Register adds a freshly allocated object to the live set.
func (h *Heap) Register(o GCObject) {
	h.live[o.gcID()] = o
}

// SetFinalizer installs a finalizer for o, run once when a Collect
// determines o is unreachable from the current roots.
func (h *Heap) SetFinalizer(o GCObject, fn func()) {
	h.finalizer[o.gcID()] = fn
}

// Len reports how many objects the heap currently considers live (i.e.
// survived the most recent Collect, or were allocated since).
func (h *Heap) Len() int { return len(h.live) }

// Collect performs a mark-sweep pass from roots, running finalizers for
// anything unreachable and dropping it from the live set. It is safe to
// call from within a builtin that is itself mid-allocation; gcSem ensures
// only one Collect runs at a time (spec.md §5: "no step is allowed to
// block" — this only blocks a second concurrent Collect, never ordinary
// evaluation, since this interpreter drives a single step loop per Interp
// and a second Collect can only be attempted by a host-registered builtin
// reentering the evaluator, which Non-goals already disallow threading
// around).
func (h *Heap) Collect(roots []GCObject) {
	ctx := context.Background()
	if err := h.gcSem.Acquire(ctx, 1); err != nil {
		return
	}
	defer h.gcSem.Release(1)

	if h.log != nil {
		h.log.WithField("liveBefore", len(h.live)).Debug("gc: collect start")
	}

	marked := make(map[uint64]bool, len(h.live))
	var stack []GCObject
	stack = append(stack, roots...)
	for len(stack) > 0 {
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if o == nil || marked[o.gcID()] {
			continue
		}
		marked[o.gcID()] = true
		o.gcTrace(func(child GCObject) {
			if child != nil && !marked[child.gcID()] {
				stack = append(stack, child)
			}
		})
	}

	for id, o := range h.live {
		if marked[id] {
			continue
		}
		if fn, ok := h.finalizer[id]; ok {
			fn()
			delete(h.finalizer, id)
		}
		delete(h.live, id)
	}

	if h.log != nil {
		h.log.WithField("liveAfter", len(h.live)).Debug("gc: collect done")
	}
}
