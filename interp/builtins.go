package interp

import (
	"fmt"
	"strconv"
)

// callBuiltin checks arity and invokes a builtin's Fn, wrapping an arity
// mismatch as an EvalError the way checkClosureArity does for closures.
func (in *Interp) callBuiltin(b *Builtin, args []RuntimeObject, span Span, frame *Frame) (RuntimeObject, error) {
	if !b.Arity.Accepts(len(args)) {
		return RuntimeObject{}, &EvalError{
			Kind: ErrArity, Expected: b.Arity.String(), Actual: strconv.Itoa(len(args)),
			Span: span, Conv: in.conv, Frames: frame.CallChain(),
		}
	}
	return b.Fn(in, args, span)
}

// registerBuiltins populates env with the minimum builtin set, following
// the teacher's initUniverse table-of-implementations idiom: one *Builtin
// per entry, installed under its Scheme name.
func registerBuiltins(h *Heap, env *Env) {
	table := []*Builtin{
		{Name: "+", Arity: Arity{Kind: ArityAtLeast, Lo: 0}, Fn: bltnAdd},
		{Name: "-", Arity: Arity{Kind: ArityAtLeast, Lo: 1}, Fn: bltnSub},
		{Name: "*", Arity: Arity{Kind: ArityAtLeast, Lo: 0}, Fn: bltnMul},
		{Name: "/", Arity: Arity{Kind: ArityAtLeast, Lo: 1}, Fn: bltnDiv},
		{Name: "=", Arity: Arity{Kind: ArityAtLeast, Lo: 1}, Fn: bltnNumEq},
		{Name: "<", Arity: Arity{Kind: ArityAtLeast, Lo: 1}, Fn: bltnNumLt},
		{Name: "<=", Arity: Arity{Kind: ArityAtLeast, Lo: 1}, Fn: bltnNumLe},
		{Name: ">", Arity: Arity{Kind: ArityAtLeast, Lo: 1}, Fn: bltnNumGt},
		{Name: ">=", Arity: Arity{Kind: ArityAtLeast, Lo: 1}, Fn: bltnNumGe},
		{Name: "abs", Arity: Arity{Kind: ArityExact, Lo: 1}, Fn: bltnAbs},
		{Name: "max", Arity: Arity{Kind: ArityAtLeast, Lo: 1}, Fn: bltnMax},
		{Name: "min", Arity: Arity{Kind: ArityAtLeast, Lo: 1}, Fn: bltnMin},

		{Name: "cons", Arity: Arity{Kind: ArityExact, Lo: 2}, Fn: bltnCons},
		{Name: "car", Arity: Arity{Kind: ArityExact, Lo: 1}, Fn: bltnCar},
		{Name: "cdr", Arity: Arity{Kind: ArityExact, Lo: 1}, Fn: bltnCdr},
		{Name: "list", Arity: Arity{Kind: ArityAtLeast, Lo: 0}, Fn: bltnList},
		{Name: "null?", Arity: Arity{Kind: ArityExact, Lo: 1}, Fn: bltnNullP},
		{Name: "pair?", Arity: Arity{Kind: ArityExact, Lo: 1}, Fn: bltnPairP},
		{Name: "set-car!", Arity: Arity{Kind: ArityExact, Lo: 2}, Fn: bltnSetCar},
		{Name: "set-cdr!", Arity: Arity{Kind: ArityExact, Lo: 2}, Fn: bltnSetCdr},

		{Name: "vector", Arity: Arity{Kind: ArityAtLeast, Lo: 0}, Fn: bltnVector},
		{Name: "vector-ref", Arity: Arity{Kind: ArityExact, Lo: 2}, Fn: bltnVectorRef},
		{Name: "vector-set!", Arity: Arity{Kind: ArityExact, Lo: 3}, Fn: bltnVectorSet},
		{Name: "vector-length", Arity: Arity{Kind: ArityExact, Lo: 1}, Fn: bltnVectorLength},

		{Name: "number?", Arity: Arity{Kind: ArityExact, Lo: 1}, Fn: bltnNumberP},
		{Name: "string?", Arity: Arity{Kind: ArityExact, Lo: 1}, Fn: bltnStringP},
		{Name: "symbol?", Arity: Arity{Kind: ArityExact, Lo: 1}, Fn: bltnSymbolP},
		{Name: "boolean?", Arity: Arity{Kind: ArityExact, Lo: 1}, Fn: bltnBooleanP},
		{Name: "procedure?", Arity: Arity{Kind: ArityExact, Lo: 1}, Fn: bltnProcedureP},

		{Name: "display", Arity: Arity{Kind: ArityExact, Lo: 1}, Fn: bltnDisplay},
		{Name: "newline", Arity: Arity{Kind: ArityExact, Lo: 0}, Fn: bltnNewline},

		{Name: "apply", Arity: Arity{Kind: ArityAtLeast, Lo: 2}, Fn: bltnApply},
		{Name: "map", Arity: Arity{Kind: ArityAtLeast, Lo: 2}, Fn: bltnMap},

		{Name: "call/cc", Arity: Arity{Kind: ArityExact, Lo: 1}, Fn: bltnCallCC},
		{Name: "call-with-current-continuation", Arity: Arity{Kind: ArityExact, Lo: 1}, Fn: bltnCallCC},
	}
	for _, b := range table {
		env.Define(b.Name, BuiltinValue(b))
	}
}

func typeErr(in *Interp, span Span, expected string, got RuntimeObject) error {
	return &EvalError{Kind: ErrType, Expected: expected, Actual: got.Kind.String(), Span: span, Conv: in.conv}
}

// --- numeric tower (spec.md §3: integer, float, rational) ---

func isNumberKind(k ValueKind) bool { return k == KindInt || k == KindFloat || k == KindRational }

func asFloat(v RuntimeObject) float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.Int)
	case KindFloat:
		return v.Flt
	case KindRational:
		return float64(v.RatNum) / float64(v.RatDen)
	default:
		return 0
	}
}

func gcdInt(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// rational builds a reduced rational value, collapsing to KindInt when the
// denominator divides the numerator evenly.
func rational(num, den int64) RuntimeObject {
	if den < 0 {
		num, den = -num, -den
	}
	g := gcdInt(num, den)
	num, den = num/g, den/g
	if den == 1 {
		return Integer(num)
	}
	return RuntimeObject{Kind: KindRational, RatNum: num, RatDen: den}
}

func asRatio(v RuntimeObject) (num, den int64) {
	switch v.Kind {
	case KindInt:
		return v.Int, 1
	case KindRational:
		return v.RatNum, v.RatDen
	default:
		return 0, 1
	}
}

func numAdd(a, b RuntimeObject) RuntimeObject {
	if a.Kind == KindFloat || b.Kind == KindFloat {
		return Float(asFloat(a) + asFloat(b))
	}
	if a.Kind == KindRational || b.Kind == KindRational {
		an, ad := asRatio(a)
		bn, bd := asRatio(b)
		return rational(an*bd+bn*ad, ad*bd)
	}
	return Integer(a.Int + b.Int)
}

func numSub(a, b RuntimeObject) RuntimeObject {
	if a.Kind == KindFloat || b.Kind == KindFloat {
		return Float(asFloat(a) - asFloat(b))
	}
	if a.Kind == KindRational || b.Kind == KindRational {
		an, ad := asRatio(a)
		bn, bd := asRatio(b)
		return rational(an*bd-bn*ad, ad*bd)
	}
	return Integer(a.Int - b.Int)
}

func numMul(a, b RuntimeObject) RuntimeObject {
	if a.Kind == KindFloat || b.Kind == KindFloat {
		return Float(asFloat(a) * asFloat(b))
	}
	if a.Kind == KindRational || b.Kind == KindRational {
		an, ad := asRatio(a)
		bn, bd := asRatio(b)
		return rational(an*bn, ad*bd)
	}
	return Integer(a.Int * b.Int)
}

func numDiv(in *Interp, a, b RuntimeObject, span Span) (RuntimeObject, error) {
	if a.Kind == KindFloat || b.Kind == KindFloat {
		bf := asFloat(b)
		if bf == 0 {
			return RuntimeObject{}, &EvalError{Kind: ErrDivisionByZero, Span: span, Conv: in.conv}
		}
		return Float(asFloat(a) / bf), nil
	}
	an, ad := asRatio(a)
	bn, bd := asRatio(b)
	if bn == 0 {
		return RuntimeObject{}, &EvalError{Kind: ErrDivisionByZero, Span: span, Conv: in.conv}
	}
	return rational(an*bd, ad*bn), nil
}

func numCmp(a, b RuntimeObject) int {
	if a.Kind == KindFloat || b.Kind == KindFloat {
		af, bf := asFloat(a), asFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	an, ad := asRatio(a)
	bn, bd := asRatio(b)
	lhs, rhs := an*bd, bn*ad
	switch {
	case lhs < rhs:
		return -1
	case lhs > rhs:
		return 1
	default:
		return 0
	}
}

func checkNumbers(in *Interp, args []RuntimeObject, span Span) error {
	for _, a := range args {
		if !isNumberKind(a.Kind) {
			return typeErr(in, span, "number", a)
		}
	}
	return nil
}

func bltnAdd(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	if err := checkNumbers(in, args, span); err != nil {
		return RuntimeObject{}, err
	}
	result := Integer(0)
	for _, a := range args {
		result = numAdd(result, a)
	}
	return result, nil
}

func bltnSub(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	if err := checkNumbers(in, args, span); err != nil {
		return RuntimeObject{}, err
	}
	if len(args) == 1 {
		return numSub(Integer(0), args[0]), nil
	}
	result := args[0]
	for _, a := range args[1:] {
		result = numSub(result, a)
	}
	return result, nil
}

func bltnMul(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	if err := checkNumbers(in, args, span); err != nil {
		return RuntimeObject{}, err
	}
	result := Integer(1)
	for _, a := range args {
		result = numMul(result, a)
	}
	return result, nil
}

func bltnDiv(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	if err := checkNumbers(in, args, span); err != nil {
		return RuntimeObject{}, err
	}
	if len(args) == 1 {
		return numDiv(in, Integer(1), args[0], span)
	}
	result := args[0]
	for _, a := range args[1:] {
		v, err := numDiv(in, result, a, span)
		if err != nil {
			return RuntimeObject{}, err
		}
		result = v
	}
	return result, nil
}

func numCompareChain(in *Interp, args []RuntimeObject, span Span, ok func(int) bool) (RuntimeObject, error) {
	if err := checkNumbers(in, args, span); err != nil {
		return RuntimeObject{}, err
	}
	for i := 1; i < len(args); i++ {
		if !ok(numCmp(args[i-1], args[i])) {
			return False, nil
		}
	}
	return True, nil
}

func bltnNumEq(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	return numCompareChain(in, args, span, func(c int) bool { return c == 0 })
}
func bltnNumLt(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	return numCompareChain(in, args, span, func(c int) bool { return c < 0 })
}
func bltnNumLe(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	return numCompareChain(in, args, span, func(c int) bool { return c <= 0 })
}
func bltnNumGt(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	return numCompareChain(in, args, span, func(c int) bool { return c > 0 })
}
func bltnNumGe(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	return numCompareChain(in, args, span, func(c int) bool { return c >= 0 })
}

func bltnAbs(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	if err := checkNumbers(in, args, span); err != nil {
		return RuntimeObject{}, err
	}
	a := args[0]
	if numCmp(a, Integer(0)) < 0 {
		return numSub(Integer(0), a), nil
	}
	return a, nil
}

func bltnMax(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	if err := checkNumbers(in, args, span); err != nil {
		return RuntimeObject{}, err
	}
	best := args[0]
	for _, a := range args[1:] {
		if numCmp(a, best) > 0 {
			best = a
		}
	}
	return best, nil
}

func bltnMin(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	if err := checkNumbers(in, args, span); err != nil {
		return RuntimeObject{}, err
	}
	best := args[0]
	for _, a := range args[1:] {
		if numCmp(a, best) < 0 {
			best = a
		}
	}
	return best, nil
}

// --- pairs and lists ---

func bltnCons(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	return NewCons(in.heap, args[0], args[1]), nil
}

func bltnCar(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	if args[0].Kind != KindCons {
		return RuntimeObject{}, typeErr(in, span, "pair", args[0])
	}
	return args[0].Cons.Car, nil
}

func bltnCdr(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	if args[0].Kind != KindCons {
		return RuntimeObject{}, typeErr(in, span, "pair", args[0])
	}
	return args[0].Cons.Cdr, nil
}

func bltnList(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	return properList(in, args), nil
}

func bltnNullP(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	return Bool2(args[0].Kind == KindNil), nil
}

func bltnPairP(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	return Bool2(args[0].Kind == KindCons), nil
}

func bltnSetCar(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	if args[0].Kind != KindCons {
		return RuntimeObject{}, typeErr(in, span, "pair", args[0])
	}
	args[0].Cons.Car = args[1]
	return Nil, nil
}

func bltnSetCdr(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	if args[0].Kind != KindCons {
		return RuntimeObject{}, typeErr(in, span, "pair", args[0])
	}
	args[0].Cons.Cdr = args[1]
	return Nil, nil
}

// --- vectors ---

func bltnVector(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	return NewVectorValue(in.heap, args), nil
}

func bltnVectorRef(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	if args[0].Kind != KindVector {
		return RuntimeObject{}, typeErr(in, span, "vector", args[0])
	}
	if args[1].Kind != KindInt {
		return RuntimeObject{}, typeErr(in, span, "integer", args[1])
	}
	idx := args[1].Int
	vec := args[0].Vec
	if idx < 0 || idx >= int64(len(vec.Elems)) {
		return RuntimeObject{}, &EvalError{Kind: ErrType, Message: fmt.Sprintf("vector index %d out of range", idx), Span: span, Conv: in.conv}
	}
	return vec.Elems[idx], nil
}

func bltnVectorSet(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	if args[0].Kind != KindVector {
		return RuntimeObject{}, typeErr(in, span, "vector", args[0])
	}
	if args[1].Kind != KindInt {
		return RuntimeObject{}, typeErr(in, span, "integer", args[1])
	}
	idx := args[1].Int
	vec := args[0].Vec
	if idx < 0 || idx >= int64(len(vec.Elems)) {
		return RuntimeObject{}, &EvalError{Kind: ErrType, Message: fmt.Sprintf("vector index %d out of range", idx), Span: span, Conv: in.conv}
	}
	vec.Elems[idx] = args[2]
	return Nil, nil
}

func bltnVectorLength(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	if args[0].Kind != KindVector {
		return RuntimeObject{}, typeErr(in, span, "vector", args[0])
	}
	return Integer(int64(len(args[0].Vec.Elems))), nil
}

// --- predicates ---

func bltnNumberP(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	return Bool2(isNumberKind(args[0].Kind)), nil
}
func bltnStringP(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	return Bool2(args[0].Kind == KindString), nil
}
func bltnSymbolP(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	return Bool2(args[0].Kind == KindSymbol), nil
}
func bltnBooleanP(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	return Bool2(args[0].Kind == KindBool), nil
}
func bltnProcedureP(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	k := args[0].Kind
	return Bool2(k == KindClosure || k == KindBuiltin || k == KindContinuation), nil
}

// --- I/O ---

func bltnDisplay(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	if args[0].Kind == KindString {
		fmt.Fprint(in.opts.Stdout, args[0].Str.String())
		return Nil, nil
	}
	fmt.Fprint(in.opts.Stdout, Print(args[0]))
	return Nil, nil
}

func bltnNewline(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	fmt.Fprintln(in.opts.Stdout)
	return Nil, nil
}

// --- higher-order ---

func bltnApply(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	fn := args[0]
	last := args[len(args)-1]
	if last.Kind != KindCons && last.Kind != KindNil {
		return RuntimeObject{}, typeErr(in, span, "list", last)
	}
	tail, tailTerm := listElems(last)
	if tailTerm.Kind != KindNil {
		return RuntimeObject{}, typeErr(in, span, "proper list", last)
	}
	callArgs := make([]RuntimeObject, 0, len(args)-2+len(tail))
	callArgs = append(callArgs, args[1:len(args)-1]...)
	callArgs = append(callArgs, tail...)
	return in.Apply(fn, callArgs, nil, span)
}

func bltnMap(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	fn := args[0]
	lists := args[1:]
	cursors := make([]RuntimeObject, len(lists))
	copy(cursors, lists)
	var results []RuntimeObject
	for {
		done := false
		callArgs := make([]RuntimeObject, len(cursors))
		for i, c := range cursors {
			if c.Kind != KindCons {
				done = true
				break
			}
			callArgs[i] = c.Cons.Car
		}
		if done {
			break
		}
		v, err := in.Apply(fn, callArgs, nil, span)
		if err != nil {
			return RuntimeObject{}, err
		}
		results = append(results, v)
		for i, c := range cursors {
			cursors[i] = c.Cons.Cdr
		}
	}
	return properList(in, results), nil
}

func bltnCallCC(in *Interp, args []RuntimeObject, span Span) (RuntimeObject, error) {
	return in.CallCC(args[0], nil, span)
}
