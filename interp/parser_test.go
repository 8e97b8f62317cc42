package interp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParserBasicAtoms(t *testing.T) {
	forms, _, err := Parse("42 3.5 \"hi\" #t #f sym")
	require.NoError(t, err)
	require.Len(t, forms, 6)
	require.Equal(t, SExprInteger, forms[0].Kind)
	require.Equal(t, int64(42), forms[0].Int)
	require.Equal(t, SExprFloat, forms[1].Kind)
	require.Equal(t, SExprString, forms[2].Kind)
	require.Equal(t, "hi", forms[2].Str)
	require.True(t, forms[3].Bool)
	require.False(t, forms[4].Bool)
	require.Equal(t, SExprSymbol, forms[5].Kind)
}

func TestParserProperAndImproperLists(t *testing.T) {
	forms, _, err := Parse("(1 2 3) (1 . 2) ()")
	require.NoError(t, err)
	require.Len(t, forms, 3)

	elems, tail := forms[0].ListElements()
	require.Len(t, elems, 3)
	require.Nil(t, tail)

	elems2, tail2 := forms[1].ListElements()
	require.Len(t, elems2, 1)
	require.NotNil(t, tail2)
	require.Equal(t, int64(2), tail2.Int)

	require.True(t, forms[2].IsNil())
}

func TestParserSpanCoverage(t *testing.T) {
	forms, _, err := Parse("(a (b c))")
	require.NoError(t, err)
	require.Len(t, forms, 1)
	var checkCoverage func(n *SExpr)
	checkCoverage = func(n *SExpr) {
		if n.IsPair() {
			require.True(t, n.Span.Contains(n.Car.Span))
			require.True(t, n.Span.Contains(n.Cdr.Span) || n.Cdr.IsNil())
			checkCoverage(n.Car)
			checkCoverage(n.Cdr)
		}
	}
	checkCoverage(forms[0])
}

func TestParserQuoteDesugaring(t *testing.T) {
	quoted, _, err := Parse("'x")
	require.NoError(t, err)
	plain, _, err := Parse("(quote x)")
	require.NoError(t, err)
	require.Len(t, quoted, 1)
	require.Len(t, plain, 1)

	qe, _ := quoted[0].ListElements()
	pe, _ := plain[0].ListElements()
	require.Len(t, qe, 2)
	require.Len(t, pe, 2)
	require.Equal(t, qe[0].Sym, pe[0].Sym)
	require.Equal(t, qe[1].Sym, pe[1].Sym)
}

func TestParserVector(t *testing.T) {
	forms, _, err := Parse("#(1 2 3)")
	require.NoError(t, err)
	require.Len(t, forms, 1)
	require.Equal(t, SExprVector, forms[0].Kind)
	require.Len(t, forms[0].Elems, 3)
}

func TestParserUnterminatedListError(t *testing.T) {
	_, _, err := Parse("(1 2")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ParseUnterminatedList, perr.Reason)
}

func TestParserInvalidDottedList(t *testing.T) {
	_, _, err := Parse("(1 . 2 3)")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ParseInvalidDottedList, perr.Reason)
}

func TestParserStrayDotIsInvalidPosition(t *testing.T) {
	for _, source := range []string{".", "#(1 . 2)"} {
		_, _, err := Parse(source)
		require.Error(t, err, "source %q", source)
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, ParseInvalidDottedList, perr.Reason)
		require.Equal(t, DotInvalidPosition, perr.Problem)
	}
}

func TestParserReconstructsSourceVerbatim(t *testing.T) {
	source := "(foo  1 ; comment\n  2)"
	_, recon, err := Parse(source)
	require.NoError(t, err)
	require.Equal(t, source, recon)
}
