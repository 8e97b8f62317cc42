package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/repr"
)

// Print renders v in the canonical textual form of spec.md §6. For
// integers, strings, symbols, booleans, characters, the empty list, and
// pairs and vectors built from them, the form read back by Parse+Load
// reconstructs an equal value. Floats print in Go's shortest 'g' form, so
// an integral float such as 2.0 prints as "2" and a large one in exponent
// form; rationals print as "N/D", which the lexer does not read as a
// number; procedures print as an opaque "#<procedure NAME>" tag and
// continuations as "#<continuation>".
func Print(v RuntimeObject) string {
	var b strings.Builder
	printTo(&b, v)
	return b.String()
}

func printTo(b *strings.Builder, v RuntimeObject) {
	switch v.Kind {
	case KindInt:
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case KindFloat:
		b.WriteString(strconv.FormatFloat(v.Flt, 'g', -1, 64))
	case KindRational:
		fmt.Fprintf(b, "%d/%d", v.RatNum, v.RatDen)
	case KindChar:
		b.WriteString(printChar(v.Char))
	case KindBool:
		if v.Bool {
			b.WriteString("#t")
		} else {
			b.WriteString("#f")
		}
	case KindNil:
		b.WriteString("()")
	case KindString:
		b.WriteString(quoteString(v.Str.String()))
	case KindSymbol:
		b.WriteString(v.Sym.Name)
	case KindBuiltin:
		fmt.Fprintf(b, "#<procedure %s>", v.Blt.Name)
	case KindClosure:
		name := v.Clo.Name
		if name == "" {
			name = "anonymous"
		}
		fmt.Fprintf(b, "#<procedure %s>", name)
	case KindContinuation:
		b.WriteString("#<continuation>")
	case KindCons:
		printList(b, v)
	case KindVector:
		b.WriteString("#(")
		for i, e := range v.Vec.Elems {
			if i > 0 {
				b.WriteByte(' ')
			}
			printTo(b, e)
		}
		b.WriteByte(')')
	default:
		b.WriteString("#<unknown>")
	}
}

func printList(b *strings.Builder, v RuntimeObject) {
	b.WriteByte('(')
	cur := v
	first := true
	for cur.Kind == KindCons {
		if !first {
			b.WriteByte(' ')
		}
		first = false
		printTo(b, cur.Cons.Car)
		cur = cur.Cons.Cdr
	}
	if cur.Kind != KindNil {
		b.WriteString(" . ")
		printTo(b, cur)
	}
	b.WriteByte(')')
}

// charNames mirrors lexer.go's namedChars so that Print followed by Parse
// round-trips a character literal back to an equal value.
var charNames = map[rune]string{
	' ':  "space",
	'\n': "newline",
	'\t': "tab",
	'\r': "return",
}

func printChar(r rune) string {
	if name, ok := charNames[r]; ok {
		return "#\\" + name
	}
	return "#\\" + string(r)
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// DebugString renders v using github.com/alecthomas/repr for test-failure
// diagnostics. It is not the canonical form (Print is) — this exposes
// internal struct shape, which is useful exactly because it differs from
// what Print intentionally hides.
func DebugString(v *RuntimeObject) string {
	if v == nil {
		return "<nil>"
	}
	return repr.String(*v, repr.Indent("  "))
}
