package interp

import (
	"errors"
	"fmt"
	"strings"
)

// Top-level error kinds. Every concrete error type below returns one of
// these sentinels from its Unwrap method, so callers can test the stage that
// failed with errors.Is(err, ErrLex) / ErrParse / ErrEval without caring
// about the specific variant — the mcvoid-json sentinel+wrap idiom.
var (
	ErrLex   = errors.New("lex error")
	ErrParse = errors.New("parse error")
	ErrEval  = errors.New("eval error")
)

// posString renders "line L, column C" for an offset, given the converter
// for the source the offset belongs to. conv may be nil (e.g. in unit tests
// constructing errors without a full source), in which case the raw offset
// is shown instead.
func posString(conv *PositionConverter, offset int) string {
	if conv == nil {
		return fmt.Sprintf("offset %d", offset)
	}
	p := conv.Position(offset)
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// --- Lex errors ---

// LexError is the lexer's single error type; Reason distinguishes the
// variants named in spec.md §4.1.
type LexError struct {
	Reason   LexErrorReason
	Offset   int
	Buffered string // the text accumulated when the error was detected
	Conv     *PositionConverter
}

type LexErrorReason int

const (
	LexInvalidNumber LexErrorReason = iota
	LexUnterminatedString
	LexInvalidEscape
	LexInvalidCharacter
	LexUnexpectedEOF
)

func (r LexErrorReason) String() string {
	switch r {
	case LexInvalidNumber:
		return "InvalidNumber"
	case LexUnterminatedString:
		return "UnterminatedString"
	case LexInvalidEscape:
		return "InvalidEscape"
	case LexInvalidCharacter:
		return "InvalidCharacter"
	case LexUnexpectedEOF:
		return "UnexpectedEof"
	default:
		return "Unknown"
	}
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %s: %s (buffered %q)", posString(e.Conv, e.Offset), e.Reason, e.Buffered)
}

func (e *LexError) Unwrap() error { return ErrLex }

// --- Parse errors ---

type ParseErrorReason int

const (
	ParseExpected ParseErrorReason = iota
	ParseUnexpectedEOF
	ParseUnterminatedList
	ParseUnterminatedVector
	ParseInvalidDottedList
	ParseDepthExceeded
	ParseOther
)

func (r ParseErrorReason) String() string {
	switch r {
	case ParseExpected:
		return "Expected"
	case ParseUnexpectedEOF:
		return "UnexpectedEof"
	case ParseUnterminatedList:
		return "UnterminatedList"
	case ParseUnterminatedVector:
		return "UnterminatedVector"
	case ParseInvalidDottedList:
		return "InvalidDottedList"
	case ParseDepthExceeded:
		return "DepthExceeded"
	default:
		return "Other"
	}
}

// DottedListProblem refines ParseInvalidDottedList per spec.md §4.2.
type DottedListProblem int

const (
	DotInvalidPosition DottedListProblem = iota
	DotMissingTailElement
	DotMultipleTailElements
	DotInsufficientElements
)

func (p DottedListProblem) String() string {
	switch p {
	case DotInvalidPosition:
		return "InvalidDotPosition"
	case DotMissingTailElement:
		return "MissingTailElement"
	case DotMultipleTailElements:
		return "MultipleTailElements"
	case DotInsufficientElements:
		return "InsufficientElements"
	default:
		return "Unknown"
	}
}

// ParseError is the parser's single error type. Got/Want describe the
// token mismatch for ParseExpected; Problem refines ParseInvalidDottedList.
type ParseError struct {
	Reason  ParseErrorReason
	Problem DottedListProblem
	Span    Span
	Got     TokenKind
	Want    []TokenKind
	Message string
	Conv    *PositionConverter

	// Wrapped, when non-nil, is an underlying error that Error and Unwrap
	// defer to. The parser itself does not set it: a lexer failure reaches
	// the caller as the *LexError unchanged.
	Wrapped error
}

func (e *ParseError) Error() string {
	if e.Wrapped != nil {
		return e.Wrapped.Error()
	}
	loc := posString(e.Conv, e.Span.Start)
	switch e.Reason {
	case ParseExpected:
		want := make([]string, len(e.Want))
		for i, k := range e.Want {
			want[i] = k.String()
		}
		return fmt.Sprintf("parse error at %s: expected %s, got %s", loc, strings.Join(want, " or "), e.Got)
	case ParseInvalidDottedList:
		return fmt.Sprintf("parse error at %s: invalid dotted list: %s", loc, e.Problem)
	default:
		if e.Message != "" {
			return fmt.Sprintf("parse error at %s: %s: %s", loc, e.Reason, e.Message)
		}
		return fmt.Sprintf("parse error at %s: %s", loc, e.Reason)
	}
}

func (e *ParseError) Unwrap() error {
	if e.Wrapped != nil {
		return e.Wrapped
	}
	return ErrParse
}

// --- Eval errors ---

// EvalError is the evaluator's single error type; Kind discriminates the
// syntax/runtime/system taxonomy of spec.md §4.4.6, and the Kind-specific
// fields are populated according to which Kind is set.
type EvalError struct {
	Kind EvalErrorKind
	Span Span
	Conv *PositionConverter

	// Runtime fields
	Name     string // UndefinedVariable, UndefinedFunction, set!
	Value    *RuntimeObject // NotCallable
	Expected string         // ArityError, TypeError
	Actual   string         // ArityError, TypeError

	Message string
	Frames  []CallFrame // captured call chain, outermost first
}

type EvalErrorKind int

const (
	// Syntax
	ErrInvalidQuoteSyntax EvalErrorKind = iota
	ErrInvalidIfSyntax
	ErrInvalidLambdaSyntax
	ErrInvalidDefineSyntax
	ErrInvalidLetSyntax
	ErrInvalidLetBinding
	ErrInvalidParameterName
	ErrInvalidParameterList
	ErrInvalidArgumentList
	ErrInvalidCondSyntax
	ErrInvalidSetSyntax

	// Runtime
	ErrUndefinedVariable
	ErrUndefinedFunction
	ErrNotCallable
	ErrArity
	ErrType
	ErrDivisionByZero
	ErrContinuationExpired

	// System
	ErrStackOverflow
	ErrOutOfMemory
)

var evalErrorKindStrings = map[EvalErrorKind]string{
	ErrInvalidQuoteSyntax:   "InvalidQuoteSyntax",
	ErrInvalidIfSyntax:      "InvalidIfSyntax",
	ErrInvalidLambdaSyntax:  "InvalidLambdaSyntax",
	ErrInvalidDefineSyntax:  "InvalidDefineSyntax",
	ErrInvalidLetSyntax:     "InvalidLetSyntax",
	ErrInvalidLetBinding:    "InvalidLetBinding",
	ErrInvalidParameterName: "InvalidParameterName",
	ErrInvalidParameterList: "InvalidParameterList",
	ErrInvalidArgumentList:  "InvalidArgumentList",
	ErrInvalidCondSyntax:    "InvalidCondSyntax",
	ErrInvalidSetSyntax:     "InvalidSetSyntax",
	ErrUndefinedVariable:    "UndefinedVariable",
	ErrUndefinedFunction:    "UndefinedFunction",
	ErrNotCallable:          "NotCallable",
	ErrArity:                "ArityError",
	ErrType:                 "TypeError",
	ErrDivisionByZero:       "DivisionByZero",
	ErrContinuationExpired:  "ContinuationExpired",
	ErrStackOverflow:        "StackOverflow",
	ErrOutOfMemory:          "OutOfMemory",
}

func (k EvalErrorKind) String() string {
	if s, ok := evalErrorKindStrings[k]; ok {
		return s
	}
	return "Unknown"
}

// CallFrame is one line of a rendered call-chain, captured from the Frame
// chain live at the time an EvalError was raised.
type CallFrame struct {
	Name string
	Span Span
}

func (e *EvalError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s at %s", e.Kind, posString(e.Conv, e.Span.Start))
	switch e.Kind {
	case ErrUndefinedVariable, ErrUndefinedFunction:
		fmt.Fprintf(&b, ": %s", e.Name)
	case ErrNotCallable:
		fmt.Fprintf(&b, ": %s", DebugString(e.Value))
	case ErrArity:
		fmt.Fprintf(&b, ": expected %s, got %s", e.Expected, e.Actual)
	case ErrType:
		fmt.Fprintf(&b, ": expected %s, found %s", e.Expected, e.Actual)
	default:
		if e.Message != "" {
			fmt.Fprintf(&b, ": %s", e.Message)
		}
	}
	for _, f := range e.Frames {
		fmt.Fprintf(&b, "\n\tat %s (%s)", f.Name, posString(e.Conv, f.Span.Start))
	}
	return b.String()
}

func (e *EvalError) Unwrap() error { return ErrEval }
