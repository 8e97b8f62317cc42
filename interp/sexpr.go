package interp

// SExprKind tags the content a SExpr node carries.
type SExprKind int

const (
	SExprInteger SExprKind = iota
	SExprFloat
	SExprString
	SExprSymbol
	SExprBoolean
	SExprCharacter
	SExprPair // cons: Car/Cdr; proper or improper depending on Cdr's tail
	SExprNil  // the empty list
	SExprVector
)

// SExpr is the parser's immutable output node: an atom, cons pair, empty
// list, or vector literal, always carrying the span its text occupied (or,
// for synthesized sub-expressions such as a desugared quote's trailing nil,
// an empty span marking where it was inserted). Shared children are plain
// *SExpr pointers — the parser never mutates a node after constructing it,
// so ordinary Go pointer sharing is safe and macro expansion (out of scope
// here, see spec.md §9) could later build a DAG over the same nodes without
// deep-copying.
type SExpr struct {
	Kind SExprKind
	Span Span

	// Atom payloads; exactly one is meaningful per Kind.
	Int  int64
	Flt  float64
	Str  string
	Sym  string
	Bool bool
	Char rune

	// SExprPair
	Car *SExpr
	Cdr *SExpr

	// SExprVector
	Elems []*SExpr
}

// invariant (checked by tests, not at runtime): for every node N with
// children c_i, min(c_i.Span.Start) >= N.Span.Start and
// max(c_i.Span.End) <= N.Span.End.

// NewInteger builds an integer atom.
func NewInteger(v int64, sp Span) *SExpr { return &SExpr{Kind: SExprInteger, Int: v, Span: sp} }

// NewFloat builds a float atom.
func NewFloat(v float64, sp Span) *SExpr { return &SExpr{Kind: SExprFloat, Flt: v, Span: sp} }

// NewString builds a string atom (already escape-decoded).
func NewString(v string, sp Span) *SExpr { return &SExpr{Kind: SExprString, Str: v, Span: sp} }

// NewSymbol builds a symbol atom.
func NewSymbol(v string, sp Span) *SExpr { return &SExpr{Kind: SExprSymbol, Sym: v, Span: sp} }

// NewBoolean builds a boolean atom.
func NewBoolean(v bool, sp Span) *SExpr { return &SExpr{Kind: SExprBoolean, Bool: v, Span: sp} }

// NewCharacter builds a character atom.
func NewCharacter(v rune, sp Span) *SExpr { return &SExpr{Kind: SExprCharacter, Char: v, Span: sp} }

// NewNil builds the empty list (used both for literal "()" and as the
// terminator of a proper list built up by NewPair).
func NewNil(sp Span) *SExpr { return &SExpr{Kind: SExprNil, Span: sp} }

// NewPair builds a cons cell. The caller supplies the covering span (for a
// list element this is normally car.Span merged with the remainder's span).
func NewPair(car, cdr *SExpr, sp Span) *SExpr {
	return &SExpr{Kind: SExprPair, Car: car, Cdr: cdr, Span: sp}
}

// NewVector builds a vector literal from its elements.
func NewVector(elems []*SExpr, sp Span) *SExpr {
	return &SExpr{Kind: SExprVector, Elems: elems, Span: sp}
}

// IsNil reports whether this node is the empty list.
func (e *SExpr) IsNil() bool { return e != nil && e.Kind == SExprNil }

// IsPair reports whether this node is a cons cell (proper or improper).
func (e *SExpr) IsPair() bool { return e != nil && e.Kind == SExprPair }

// ListElements walks a proper or improper list, returning its elements in
// order and, for an improper list, the final non-nil/non-pair tail (nil for
// a proper list). It does not copy Car/Cdr — the returned slice aliases the
// existing nodes.
func (e *SExpr) ListElements() (elems []*SExpr, tail *SExpr) {
	cur := e
	for cur.IsPair() {
		elems = append(elems, cur.Car)
		cur = cur.Cdr
	}
	if !cur.IsNil() {
		tail = cur
	}
	return elems, tail
}
