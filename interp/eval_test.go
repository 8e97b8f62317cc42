package interp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, source string) RuntimeObject {
	t.Helper()
	in := New(Options{})
	v, err := in.Run(source, in.GlobalEnv())
	require.NoError(t, err, "%s", DebugString(&v))
	return v
}

func TestEvalArithmetic(t *testing.T) {
	require.Equal(t, int64(6), run(t, "(+ 1 2 3)").Int)
	require.Equal(t, int64(-4), run(t, "(- 10 6 8)").Int)
	require.Equal(t, int64(24), run(t, "(* 2 3 4)").Int)
	require.Equal(t, True, run(t, "(< 1 2 3)"))
	require.Equal(t, False, run(t, "(< 1 3 2)"))
}

func TestEvalDivisionProducesRational(t *testing.T) {
	v := run(t, "(/ 1 3)")
	require.Equal(t, KindRational, v.Kind)
	require.Equal(t, int64(1), v.RatNum)
	require.Equal(t, int64(3), v.RatDen)
}

func TestEvalDivisionByZero(t *testing.T) {
	in := New(Options{})
	_, err := in.Run("(/ 1 0)", in.GlobalEnv())
	require.Error(t, err)
	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, ErrDivisionByZero, ee.Kind)
}

func TestEvalIfAndQuote(t *testing.T) {
	require.Equal(t, int64(1), run(t, "(if #t 1 2)").Int)
	require.Equal(t, int64(2), run(t, "(if #f 1 2)").Int)
	require.Equal(t, SymbolValue("a").Sym, run(t, "'a").Sym)
}

func TestEvalDefineAndLambda(t *testing.T) {
	require.Equal(t, int64(5), run(t, "(define x 5) x").Int)
	require.Equal(t, int64(30), run(t, "(define (add a b) (+ a b)) (add 10 20)").Int)
	require.Equal(t, int64(9), run(t, "((lambda (x) (* x x)) 3)").Int)
}

func TestEvalLetAndLexicalScope(t *testing.T) {
	v := run(t, `
		(define x 1)
		(let ((x 2) (y 3))
		  (+ x y))`)
	require.Equal(t, int64(5), v.Int)
	require.Equal(t, int64(1), run(t, "(define x 1) (let ((x 2)) x) x").Int)
}

func TestEvalClosureCapturesDefiningEnv(t *testing.T) {
	v := run(t, `
		(define (make-adder n) (lambda (x) (+ x n)))
		(define add5 (make-adder 5))
		(add5 10)`)
	require.Equal(t, int64(15), v.Int)
}

func TestEvalCondAndLogical(t *testing.T) {
	require.Equal(t, int64(2), run(t, "(cond (#f 1) (#t 2) (else 3))").Int)
	require.Equal(t, int64(3), run(t, "(cond (#f 1) (#f 2) (else 3))").Int)
	// The result is the literal operand itself, which carries its Source
	// back-reference; strip it to compare the value.
	require.Equal(t, False, run(t, "(and #t #f #t)").WithSource(nil))
	require.Equal(t, True, run(t, "(or #f #f #t)").WithSource(nil))
}

func TestEvalSetCarObservability(t *testing.T) {
	v := run(t, `
		(define p (cons 1 2))
		(define q p)
		(set-car! q 99)
		(car p)`)
	require.Equal(t, int64(99), v.Int)
}

func TestEvalSetBangMutatesOuterBinding(t *testing.T) {
	v := run(t, `
		(define counter 0)
		(define (bump) (set! counter (+ counter 1)))
		(bump) (bump) (bump)
		counter`)
	require.Equal(t, int64(3), v.Int)
}

func TestEvalVariadicLambda(t *testing.T) {
	v := run(t, `
		(define (sum-all . xs)
		  (if (null? xs) 0 (+ (car xs) (apply sum-all (cdr xs)))))
		(sum-all 1 2 3 4)`)
	require.Equal(t, int64(10), v.Int)
}

func TestEvalTailRecursionIsConstantStackSpace(t *testing.T) {
	v := run(t, `
		(define (loop n acc)
		  (if (= n 0) acc (loop (- n 1) (+ acc 1))))
		(loop 1000000 0)`)
	require.Equal(t, int64(1000000), v.Int)
}

func TestEvalCallCCEscapes(t *testing.T) {
	v := run(t, `
		(+ 1 (call/cc (lambda (k) (k 41) 999)))`)
	require.Equal(t, int64(42), v.Int)
}

func TestEvalCallCCOrdinaryReturn(t *testing.T) {
	v := run(t, `(call/cc (lambda (k) (+ 1 2)))`)
	require.Equal(t, int64(3), v.Int)
}

func TestEvalUndefinedVariable(t *testing.T) {
	in := New(Options{})
	_, err := in.Run("undefined-name", in.GlobalEnv())
	require.Error(t, err)
	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, ErrUndefinedVariable, ee.Kind)
	require.Equal(t, "undefined-name", ee.Name)
}

func TestEvalArityError(t *testing.T) {
	in := New(Options{})
	_, err := in.Run("(define (f x y) (+ x y)) (f 1)", in.GlobalEnv())
	require.Error(t, err)
	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, ErrArity, ee.Kind)
}

func TestEvalNotCallable(t *testing.T) {
	in := New(Options{})
	_, err := in.Run("(1 2 3)", in.GlobalEnv())
	require.Error(t, err)
	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, ErrNotCallable, ee.Kind)
}

func TestEvalDisplayWritesToStdout(t *testing.T) {
	var buf bytes.Buffer
	in := New(Options{Stdout: &buf})
	_, err := in.Run(`(display "hello") (display 42)`, in.GlobalEnv())
	require.NoError(t, err)
	require.Equal(t, `hello42`, buf.String())
}

func TestEvalMapAndVectors(t *testing.T) {
	v := run(t, `
		(define v (vector 1 2 3))
		(vector-set! v 1 99)
		(vector-ref v 1)`)
	require.Equal(t, int64(99), v.Int)

	v2 := run(t, `(map (lambda (x) (* x x)) (list 1 2 3))`)
	elems, _ := listElems(v2)
	require.Len(t, elems, 3)
	require.Equal(t, int64(1), elems[0].Int)
	require.Equal(t, int64(4), elems[1].Int)
	require.Equal(t, int64(9), elems[2].Int)
}

func TestEvalPrinterCanonicalForm(t *testing.T) {
	require.Equal(t, "42", Print(Integer(42)))
	require.Equal(t, "#t", Print(True))
	require.Equal(t, "()", Print(Nil))
	require.Equal(t, `"hi"`, Print(StringValue("hi")))

	in := New(Options{})
	v, err := in.Run("(cons 1 (cons 2 3))", in.GlobalEnv())
	require.NoError(t, err)
	require.Equal(t, "(1 2 . 3)", Print(v))

	v2, err := in.Run("(list 1 2 3)", in.GlobalEnv())
	require.NoError(t, err)
	require.Equal(t, "(1 2 3)", Print(v2))
}
