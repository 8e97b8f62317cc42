package interp

import "strconv"

// EvalState is the evaluator's transition state (spec.md §3): the frame
// the current expression will hand its value to, the expression itself
// (already loaded into runtime form), whether it sits in tail position,
// and an optional binding-name hint used to name anonymous lambdas created
// directly inside a define. It is not GC-managed — it is the transient
// driver state of evalExpr's loop, held on the Go stack rather than the
// heap.
//
// evalExpr below does not literally pass an *EvalState through its loop:
// a call Frame only marks closure-call boundaries for the call-chain dump
// (errors.go's CallFrame), not every lexical scope, so the environment a
// Frame would need to carry (per spec.md's "Frame is a triple of
// (environment, continuation, parent frame)") changes more often than the
// Frame chain does (every let, every begin, every cond clause can open a
// new Env without pushing a Frame). evalExpr threads Env as an explicit
// parameter instead and updates Frame only at call boundaries, which keeps
// the same transition semantics (current expression, current lexical
// environment, tail-position flag, binding hint) without allocating a
// fresh GC-invisible struct on every step.
type EvalState struct {
	Frame       *Frame
	Expr        RuntimeObject
	Tail        bool
	BindingHint string
}

// tailStep is what a special-form handler returns to evalExpr's driver
// loop: either a final value (Done) or the next (expr, env) pair to
// continue stepping with in the *same* loop iteration — the mechanism by
// which tail calls avoid growing the Go call stack (spec.md §4.4.4).
type tailStep struct {
	Done  bool
	Value RuntimeObject
	Expr  RuntimeObject
	Env   *Env
}

func doneStep(v RuntimeObject) tailStep { return tailStep{Done: true, Value: v} }
func tailTo(expr RuntimeObject, env *Env) tailStep { return tailStep{Expr: expr, Env: env} }

type specialFormFn func(in *Interp, list RuntimeObject, env *Env, frame *Frame, tail bool, hint string) (tailStep, error)

var specialForms map[string]specialFormFn

func init() {
	specialForms = map[string]specialFormFn{
		"quote":      sfQuote,
		"if":         sfIf,
		"lambda":     sfLambda,
		"define":     sfDefine,
		"set!":       sfSet,
		"let":        sfLet,
		"begin":      sfBegin,
		"cond":       sfCond,
		"and":        sfAnd,
		"or":         sfOr,
	}
}

func spanOf(v RuntimeObject) Span {
	if v.Source != nil {
		return v.Source.Span
	}
	return Span{}
}

// Eval is the §6 external interface entry point: it loads src into the
// runtime graph and evaluates it in env.
func (in *Interp) Eval(src *SExpr, env *Env) (RuntimeObject, error) {
	v := in.Load(src)
	return in.evalExpr(v, env, nil, true, "")
}

// evalExpr drives the single-step transition function of spec.md §4.4 to
// completion. The for loop is the "no host stack growth per tail call"
// mechanism: a tail-position special form or call reassigns expr/env and
// loops instead of recursing.
func (in *Interp) evalExpr(expr RuntimeObject, env *Env, frame *Frame, tail bool, hint string) (RuntimeObject, error) {
	for {
		if in.opts.Trace {
			in.log.Debugf("eval: step %s (tail=%v)", expr.Kind, tail)
		}
		switch expr.Kind {
		case KindSymbol:
			v, ok := env.Lookup(expr.Sym.Name)
			if !ok {
				return RuntimeObject{}, &EvalError{Kind: ErrUndefinedVariable, Name: expr.Sym.Name, Span: spanOf(expr), Conv: in.conv, Frames: frame.CallChain()}
			}
			return v, nil

		case KindCons:
			head := expr.Cons.Car
			if head.Kind == KindSymbol {
				if sf, ok := specialForms[head.Sym.Name]; ok {
					step, err := sf(in, expr, env, frame, tail, hint)
					if err != nil {
						return RuntimeObject{}, err
					}
					if step.Done {
						return step.Value, nil
					}
					expr, env = step.Expr, step.Env
					continue
				}
			}

			step, err := in.evalApplication(expr, env, frame, tail, hint)
			if err != nil {
				return RuntimeObject{}, err
			}
			if step.Done {
				return step.Value, nil
			}
			expr, env = step.Expr, step.Env
			continue

		default:
			// Atomic value other than a symbol: hand it back unchanged
			// (spec.md §4.4.1).
			return expr, nil
		}
	}
}

// evalSeq evaluates exprs in order, all but the last in non-tail position,
// and returns a tailStep continuing on the last one (inheriting tail),
// or Done(Nil) if exprs is empty (an unspecified value).
func (in *Interp) evalSeq(exprs []RuntimeObject, env *Env, frame *Frame, tail bool) (tailStep, error) {
	if len(exprs) == 0 {
		return doneStep(Nil), nil
	}
	for _, e := range exprs[:len(exprs)-1] {
		if _, err := in.evalExpr(e, env, frame, false, ""); err != nil {
			return tailStep{}, err
		}
	}
	last := exprs[len(exprs)-1]
	if tail {
		return tailTo(last, env), nil
	}
	v, err := in.evalExpr(last, env, frame, false, "")
	if err != nil {
		return tailStep{}, err
	}
	return doneStep(v), nil
}

// --- quote ---

func sfQuote(in *Interp, list RuntimeObject, env *Env, frame *Frame, tail bool, hint string) (tailStep, error) {
	elems, _ := listElems(list)
	if len(elems) != 2 {
		return tailStep{}, &EvalError{Kind: ErrInvalidQuoteSyntax, Span: spanOf(list), Conv: in.conv, Message: "quote takes exactly one argument"}
	}
	return doneStep(elems[1]), nil
}

// --- if ---

func sfIf(in *Interp, list RuntimeObject, env *Env, frame *Frame, tail bool, hint string) (tailStep, error) {
	elems, _ := listElems(list)
	if len(elems) < 3 || len(elems) > 4 {
		return tailStep{}, &EvalError{Kind: ErrInvalidIfSyntax, Span: spanOf(list), Conv: in.conv, Message: "if takes (test then [else])"}
	}
	cond, err := in.evalExpr(elems[1], env, frame, false, "")
	if err != nil {
		return tailStep{}, err
	}
	if IsTruthy(cond) {
		return tailTo(elems[2], env), nil
	}
	if len(elems) == 4 {
		return tailTo(elems[3], env), nil
	}
	return doneStep(Nil), nil
}

// --- lambda ---

func sfLambda(in *Interp, list RuntimeObject, env *Env, frame *Frame, tail bool, hint string) (tailStep, error) {
	elems, _ := listElems(list)
	if len(elems) < 2 {
		return tailStep{}, &EvalError{Kind: ErrInvalidLambdaSyntax, Span: spanOf(list), Conv: in.conv, Message: "lambda takes (params body...)"}
	}
	params, hasRest, rest, err := parseParamList(in, elems[1])
	if err != nil {
		return tailStep{}, err
	}
	body := elems[2:]
	clo := NewClosureValue(in.heap, params, hasRest, rest, body, env, hint, list.Source)
	return doneStep(clo), nil
}

// parseParamList resolves spec.md §9's variadic-lambda Open Question:
// both (a b . r) and a bare symbol "args" are accepted.
func parseParamList(in *Interp, p RuntimeObject) (params []string, hasRest bool, rest string, err error) {
	if p.Kind == KindSymbol {
		return nil, true, p.Sym.Name, nil
	}
	cur := p
	for cur.Kind == KindCons {
		if cur.Cons.Car.Kind != KindSymbol {
			return nil, false, "", &EvalError{Kind: ErrInvalidParameterName, Span: spanOf(cur.Cons.Car), Conv: in.conv}
		}
		params = append(params, cur.Cons.Car.Sym.Name)
		cur = cur.Cons.Cdr
	}
	if cur.Kind == KindSymbol {
		return params, true, cur.Sym.Name, nil
	}
	if cur.Kind == KindNil {
		return params, false, "", nil
	}
	return nil, false, "", &EvalError{Kind: ErrInvalidParameterList, Span: spanOf(p), Conv: in.conv}
}

// --- define ---

func sfDefine(in *Interp, list RuntimeObject, env *Env, frame *Frame, tail bool, hint string) (tailStep, error) {
	elems, _ := listElems(list)
	if len(elems) < 2 {
		return tailStep{}, &EvalError{Kind: ErrInvalidDefineSyntax, Span: spanOf(list), Conv: in.conv}
	}
	target := elems[1]

	// (define (name . params) body...) sugar for (define name (lambda params body...))
	if target.Kind == KindCons {
		nameVal := target.Cons.Car
		if nameVal.Kind != KindSymbol {
			return tailStep{}, &EvalError{Kind: ErrInvalidDefineSyntax, Span: spanOf(target), Conv: in.conv, Message: "function name must be a symbol"}
		}
		if len(elems) < 3 {
			return tailStep{}, &EvalError{Kind: ErrInvalidDefineSyntax, Span: spanOf(list), Conv: in.conv, Message: "function define needs a body"}
		}
		params, hasRest, rest, err := parseParamList(in, target.Cons.Cdr)
		if err != nil {
			return tailStep{}, err
		}
		body := elems[2:]
		clo := NewClosureValue(in.heap, params, hasRest, rest, body, env, nameVal.Sym.Name, list.Source)
		env.Define(nameVal.Sym.Name, clo)
		return doneStep(Nil), nil
	}

	if target.Kind != KindSymbol {
		return tailStep{}, &EvalError{Kind: ErrInvalidDefineSyntax, Span: spanOf(target), Conv: in.conv, Message: "define target must be a symbol"}
	}
	var valueExpr RuntimeObject = Nil
	if len(elems) >= 3 {
		valueExpr = elems[2]
	}
	v, err := in.evalExpr(valueExpr, env, frame, false, target.Sym.Name)
	if err != nil {
		return tailStep{}, err
	}
	if v.Kind == KindClosure && v.Clo.Name == "" {
		v.Clo.Name = target.Sym.Name
	}
	env.Define(target.Sym.Name, v)
	return doneStep(Nil), nil
}

// --- set! ---

func sfSet(in *Interp, list RuntimeObject, env *Env, frame *Frame, tail bool, hint string) (tailStep, error) {
	elems, _ := listElems(list)
	if len(elems) != 3 || elems[1].Kind != KindSymbol {
		return tailStep{}, &EvalError{Kind: ErrInvalidSetSyntax, Span: spanOf(list), Conv: in.conv, Message: "set! takes (set! name value)"}
	}
	name := elems[1].Sym.Name
	v, err := in.evalExpr(elems[2], env, frame, false, name)
	if err != nil {
		return tailStep{}, err
	}
	if !env.Set(name, v) {
		return tailStep{}, &EvalError{Kind: ErrUndefinedVariable, Name: name, Span: spanOf(elems[1]), Conv: in.conv, Frames: frame.CallChain()}
	}
	return doneStep(Nil), nil
}

// --- let ---

func sfLet(in *Interp, list RuntimeObject, env *Env, frame *Frame, tail bool, hint string) (tailStep, error) {
	elems, _ := listElems(list)
	if len(elems) < 2 {
		return tailStep{}, &EvalError{Kind: ErrInvalidLetSyntax, Span: spanOf(list), Conv: in.conv}
	}
	bindings, _ := listElems(elems[1])
	names := make([]string, 0, len(bindings))
	values := make([]RuntimeObject, 0, len(bindings))
	for _, b := range bindings {
		be, _ := listElems(b)
		if len(be) != 2 || be[0].Kind != KindSymbol {
			return tailStep{}, &EvalError{Kind: ErrInvalidLetBinding, Span: spanOf(b), Conv: in.conv}
		}
		v, err := in.evalExpr(be[1], env, frame, false, be[0].Sym.Name)
		if err != nil {
			return tailStep{}, err
		}
		names = append(names, be[0].Sym.Name)
		values = append(values, v)
	}
	child := NewEnv(in.heap, env)
	for i, n := range names {
		child.Define(n, values[i])
	}
	return in.evalSeq(elems[2:], child, frame, tail)
}

// --- begin ---

func sfBegin(in *Interp, list RuntimeObject, env *Env, frame *Frame, tail bool, hint string) (tailStep, error) {
	elems, _ := listElems(list)
	return in.evalSeq(elems[1:], env, frame, tail)
}

// --- cond ---

func sfCond(in *Interp, list RuntimeObject, env *Env, frame *Frame, tail bool, hint string) (tailStep, error) {
	clauses, _ := listElems(list)
	for _, clause := range clauses[1:] {
		ce, _ := listElems(clause)
		if len(ce) == 0 {
			return tailStep{}, &EvalError{Kind: ErrInvalidCondSyntax, Span: spanOf(clause), Conv: in.conv}
		}
		isElse := ce[0].Kind == KindSymbol && ce[0].Sym.Name == "else"
		var test RuntimeObject
		if isElse {
			test = True
		} else {
			v, err := in.evalExpr(ce[0], env, frame, false, "")
			if err != nil {
				return tailStep{}, err
			}
			test = v
		}
		if IsTruthy(test) {
			if len(ce) == 1 {
				return doneStep(test), nil
			}
			return in.evalSeq(ce[1:], env, frame, tail)
		}
	}
	return doneStep(Nil), nil
}

// --- and / or ---

func sfAnd(in *Interp, list RuntimeObject, env *Env, frame *Frame, tail bool, hint string) (tailStep, error) {
	elems, _ := listElems(list)
	operands := elems[1:]
	if len(operands) == 0 {
		return doneStep(True), nil
	}
	for _, e := range operands[:len(operands)-1] {
		v, err := in.evalExpr(e, env, frame, false, "")
		if err != nil {
			return tailStep{}, err
		}
		if !IsTruthy(v) {
			return doneStep(v), nil
		}
	}
	last := operands[len(operands)-1]
	if tail {
		return tailTo(last, env), nil
	}
	v, err := in.evalExpr(last, env, frame, false, "")
	if err != nil {
		return tailStep{}, err
	}
	return doneStep(v), nil
}

func sfOr(in *Interp, list RuntimeObject, env *Env, frame *Frame, tail bool, hint string) (tailStep, error) {
	elems, _ := listElems(list)
	operands := elems[1:]
	if len(operands) == 0 {
		return doneStep(False), nil
	}
	for _, e := range operands[:len(operands)-1] {
		v, err := in.evalExpr(e, env, frame, false, "")
		if err != nil {
			return tailStep{}, err
		}
		if IsTruthy(v) {
			return doneStep(v), nil
		}
	}
	last := operands[len(operands)-1]
	if tail {
		return tailTo(last, env), nil
	}
	v, err := in.evalExpr(last, env, frame, false, "")
	if err != nil {
		return tailStep{}, err
	}
	return doneStep(v), nil
}

// --- function application (spec.md §4.4.3) ---

func (in *Interp) evalApplication(list RuntimeObject, env *Env, frame *Frame, tail bool, hint string) (tailStep, error) {
	elems, _ := listElems(list)
	fnExpr := elems[0]
	fn, err := in.evalExpr(fnExpr, env, frame, false, "")
	if err != nil {
		return tailStep{}, err
	}
	args := make([]RuntimeObject, 0, len(elems)-1)
	for _, a := range elems[1:] {
		v, err := in.evalExpr(a, env, frame, false, "")
		if err != nil {
			return tailStep{}, err
		}
		args = append(args, v)
	}
	return in.applyValue(fn, args, frame, spanOf(list), tail)
}

// Apply invokes fn with already-evaluated args, fully resolving to a final
// value. This is the entry point call/cc (continuation.go) and the
// apply/map builtins use: unlike evalApplication it is never itself in
// tail position, so it always drives applyValue's continuation to
// completion rather than handing a tailStep back to a trampoline loop.
func (in *Interp) Apply(fn RuntimeObject, args []RuntimeObject, frame *Frame, span Span) (RuntimeObject, error) {
	step, err := in.applyValue(fn, args, frame, span, false)
	if err != nil {
		return RuntimeObject{}, err
	}
	if step.Done {
		return step.Value, nil
	}
	return in.evalExpr(step.Expr, step.Env, frame, true, "")
}

// applyValue is the call-a-procedure-with-these-arguments core shared by
// evalApplication (operator position of a form, args not yet evaluated
// here) and Apply (already-evaluated args from a builtin or call/cc).
func (in *Interp) applyValue(fn RuntimeObject, args []RuntimeObject, frame *Frame, span Span, tail bool) (tailStep, error) {
	switch fn.Kind {
	case KindBuiltin:
		v, err := in.callBuiltin(fn.Blt, args, span, frame)
		if err != nil {
			return tailStep{}, err
		}
		return doneStep(v), nil

	case KindContinuation:
		if len(args) != 1 {
			return tailStep{}, &EvalError{Kind: ErrArity, Expected: "1", Actual: strconv.Itoa(len(args)), Span: span, Conv: in.conv}
		}
		v, err := in.InvokeContinuation(fn.Cnt, args[0], span)
		return doneStep(v), err

	case KindClosure:
		clo := fn.Clo
		if err := checkClosureArity(in, clo, len(args), span); err != nil {
			return tailStep{}, err
		}
		child := NewEnv(in.heap, clo.Env)
		for i, p := range clo.Params {
			child.Define(p, args[i])
		}
		if clo.HasRest {
			child.Define(clo.Rest, properList(in, args[len(clo.Params):]))
		}
		gcRoots := []GCObject{in.global, child}
		if frame != nil {
			gcRoots = append(gcRoots, frame)
		}
		in.maybeCollect(gcRoots...)
		name := clo.Name
		if name == "" {
			name = "lambda"
		}
		if tail {
			return in.evalSeq(clo.Body, child, frame, true)
		}
		callFrame := NewFrame(in.heap, child, frame, name, span)
		step, err := in.evalSeq(clo.Body, child, callFrame, true)
		if err != nil {
			return tailStep{}, err
		}
		if step.Done {
			return step, nil
		}
		v, err := in.evalExpr(step.Expr, step.Env, callFrame, true, "")
		if err != nil {
			return tailStep{}, err
		}
		return doneStep(v), nil

	default:
		return tailStep{}, &EvalError{Kind: ErrNotCallable, Value: &fn, Span: span, Conv: in.conv, Frames: frame.CallChain()}
	}
}

func checkClosureArity(in *Interp, clo *Closure, n int, span Span) error {
	if clo.HasRest {
		if n < len(clo.Params) {
			return &EvalError{Kind: ErrArity, Expected: "at least " + strconv.Itoa(len(clo.Params)), Actual: strconv.Itoa(n), Span: span, Conv: in.conv}
		}
		return nil
	}
	if n != len(clo.Params) {
		return &EvalError{Kind: ErrArity, Expected: strconv.Itoa(len(clo.Params)), Actual: strconv.Itoa(n), Span: span, Conv: in.conv}
	}
	return nil
}

// properList builds a proper runtime list from elems (used to bind a rest
// parameter, and by the list builtin).
func properList(in *Interp, elems []RuntimeObject) RuntimeObject {
	result := Nil
	for i := len(elems) - 1; i >= 0; i-- {
		result = NewCons(in.heap, elems[i], result)
	}
	return result
}

// listElems converts a runtime cons-list value into a Go slice, including
// the head, for special-form argument destructuring. It does not validate
// properness — callers that need a dotted-list check do it themselves.
func listElems(v RuntimeObject) (elems []RuntimeObject, tail RuntimeObject) {
	cur := v
	for cur.Kind == KindCons {
		elems = append(elems, cur.Cons.Car)
		cur = cur.Cons.Cdr
	}
	return elems, cur
}

