package interp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, source string) []Token {
	t.Helper()
	l := NewLexer(source)
	var toks []Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.IsEOF() {
			break
		}
	}
	return toks
}

func TestLexerSpansAreMonotonicAndNonOverlapping(t *testing.T) {
	toks := lexAll(t, "(define (square x) (* x x))")
	for i := 1; i < len(toks); i++ {
		require.GreaterOrEqual(t, toks[i].Span.Start, toks[i-1].Span.End)
	}
}

func TestLexerRoundTripsSourceFromTokenSpans(t *testing.T) {
	source := "(+ 1 2.5 \"hi\\n\" #\\a #t ; comment\n  'sym)"
	// Reconstruction from spans (not decoded Text, which string/char tokens
	// overwrite with their decoded value) always recovers the raw source.
	l := NewLexer(source)
	var rebuilt []byte
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		rebuilt = append(rebuilt, []byte(source[tok.Span.Start:tok.Span.End])...)
		if tok.IsEOF() {
			break
		}
	}
	require.Equal(t, source, string(rebuilt))
}

func TestLexerTokenKinds(t *testing.T) {
	toks := lexAll(t, "(a 1 2.0 #t #f \"s\" #\\c)")
	var kinds []TokenKind
	for _, tok := range toks {
		if !tok.IsTrivia() {
			kinds = append(kinds, tok.Kind)
		}
	}
	require.Equal(t, []TokenKind{
		TokLParen, TokSymbol, TokInteger, TokFloat, TokBoolean, TokBoolean,
		TokString, TokCharacter, TokRParen, TokEOF,
	}, kinds)
}

func TestLexerUnterminatedString(t *testing.T) {
	l := NewLexer(`"abc`)
	_, err := l.Next()
	require.Error(t, err)
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	require.Equal(t, LexUnterminatedString, lexErr.Reason)
}

func TestLexerEmitsDotForDottedPairSeparator(t *testing.T) {
	toks := lexAll(t, "(a . b)")
	var kinds []TokenKind
	for _, tok := range toks {
		if !tok.IsTrivia() {
			kinds = append(kinds, tok.Kind)
		}
	}
	require.Equal(t, []TokenKind{
		TokLParen, TokSymbol, TokDot, TokSymbol, TokRParen, TokEOF,
	}, kinds)
}

func TestLexerDotPrefixedIdentifiersStayAsSymbols(t *testing.T) {
	for _, source := range []string{"...", "a.b", ".5"} {
		toks := lexAll(t, source)
		require.Equal(t, TokSymbol, toks[0].Kind, "source %q", source)
		require.Equal(t, source, toks[0].Text)
	}
}

func TestLexerNamedCharacters(t *testing.T) {
	l := NewLexer(`#\newline #\space #\tab`)
	for _, want := range []rune{'\n', ' ', '\t'} {
		tok, err := l.Next()
		require.NoError(t, err)
		require.Equal(t, TokCharacter, tok.Kind)
		require.Equal(t, string(want), tok.Text)
		ws, err := l.Next()
		require.NoError(t, err)
		require.True(t, ws.IsTrivia() || ws.IsEOF())
	}
}
