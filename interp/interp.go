package interp

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options configures an Interp, following the teacher's plain-struct (not
// functional-options) convention.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Trace logs every evalExpr transition at Debug level when true. Off by
	// default: this is a diagnostic hook, never on the hot path otherwise.
	Trace bool

	// MaxDepth bounds parser recursion (spec.md §4.2's guard against
	// pathological nesting). Zero means defaultMaxDepth.
	MaxDepth int

	// GCThreshold is how many heap allocations accumulate between automatic
	// Collect passes. Zero means defaultGCThreshold. Automatic collection is
	// opportunistic, triggered from applyValue's closure-call path
	// rather than from every single allocation site.
	GCThreshold int
}

const defaultGCThreshold = 10000

// Interp is the top-level interpreter: owns the heap, the global
// environment, and the logger every other component logs through.
// Mirroring the teacher's mutex-guarded Interpreter, this module's
// Non-goals (no threading) mean Interp itself needs no lock — only the GC's
// own re-entrancy guard (gc.go) needs one.
type Interp struct {
	opts Options
	log  *logrus.Logger

	heap   *Heap
	global *Env
	conv   *PositionConverter

	allocSinceGC int
	gcMarkID     uint64 // heap.nextID at the last automatic Collect
}

// New builds an Interp with env populated by make_global_env's builtin set
// (spec.md §6).
func New(opts Options) *Interp {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	if opts.GCThreshold == 0 {
		opts.GCThreshold = defaultGCThreshold
	}

	log := logrus.New()
	log.SetOutput(opts.Stderr)
	if opts.Trace {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	in := &Interp{opts: opts, log: log, heap: NewHeap(log)}
	in.global = in.MakeGlobalEnv()
	return in
}

// MakeGlobalEnv builds a fresh environment populated with every builtin —
// spec.md §6's make_global_env(). Interp.New calls this once for its own
// global environment; hosts that want an isolated sandboxed environment
// (e.g. per-request in a server) can call it again directly.
func (in *Interp) MakeGlobalEnv() *Env {
	env := NewEnv(in.heap, nil)
	registerBuiltins(in.heap, env)
	return env
}

// GlobalEnv returns this Interp's global environment.
func (in *Interp) GlobalEnv() *Env { return in.global }

// RegisterBuiltin installs a host-provided procedure into env under name —
// spec.md §6's register_builtin(env, name, arity, impl) extension point.
func (in *Interp) RegisterBuiltin(env *Env, name string, arity Arity, impl BuiltinFunc) {
	env.Define(name, BuiltinValue(&Builtin{Name: name, Arity: arity, Fn: impl}))
}

// Run parses source and evaluates each top-level form in sequence against
// env, returning the value of the last form (Nil if source has no forms).
// It is the convenience driver a REPL or test harness uses on top of the
// lower-level parse/evaluate primitives that spec.md §6 actually specifies.
func (in *Interp) Run(source string, env *Env) (RuntimeObject, error) {
	in.conv = NewPositionConverter(source)
	p := NewParser(source)
	p.maxDepth = in.opts.MaxDepth
	forms, _, err := p.ParseProgram()
	if err != nil {
		switch e := err.(type) {
		case *ParseError:
			e.Conv = in.conv
		case *LexError:
			e.Conv = in.conv
		}
		return RuntimeObject{}, err
	}
	result := Nil
	for _, f := range forms {
		v, err := in.Eval(f, env)
		if err != nil {
			return RuntimeObject{}, err
		}
		result = v
	}
	return result, nil
}

// CollectGarbage runs one Heap.Collect pass rooted at env (and every
// ancestor Frame/Env reachable from it is already reachable transitively
// through gcTrace, so a single Env root suffices for a normal top-level
// collection).
func (in *Interp) CollectGarbage(env *Env) {
	in.heap.Collect([]GCObject{env})
}

// maybeCollect is called from the closure-application path in eval.go
// after each call's argument environment is built; it triggers a Collect
// once opts.GCThreshold allocations have accumulated since the last pass.
// roots must include every Env/Frame live on the Go stack right now, not
// just the global environment — the call in progress holds its freshly
// built argument frame only in a local variable, which a collection rooted
// at the global environment alone would otherwise reclaim out from under
// it.
func (in *Interp) maybeCollect(roots ...GCObject) {
	in.allocSinceGC = int(in.heap.nextID - in.gcMarkID)
	if in.allocSinceGC < in.opts.GCThreshold {
		return
	}
	in.allocSinceGC = 0
	in.gcMarkID = in.heap.nextID
	in.heap.Collect(roots)
}
