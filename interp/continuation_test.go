package interp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContinuationExpiresAfterCallCCReturns(t *testing.T) {
	in := New(Options{})
	env := in.GlobalEnv()

	_, err := in.Run(`(define saved-k #f)
		(call/cc (lambda (k) (set! saved-k k)))`, env)
	require.NoError(t, err)

	_, err = in.Run(`(saved-k 1)`, env)
	require.Error(t, err)
	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, ErrContinuationExpired, ee.Kind)
}

func TestCallCCEscapesNestedSearch(t *testing.T) {
	v := run(t, `
		(define (find-first pred lst)
		  (call/cc (lambda (return)
		    (define (go xs)
		      (cond ((null? xs) #f)
		            ((pred (car xs)) (return (car xs)))
		            (else (go (cdr xs)))))
		    (go lst))))
		(find-first (lambda (x) (> x 3)) (list 1 2 3 4 5))`)
	require.Equal(t, int64(4), v.Int)
}
