package interp

// Load converts a parsed SExpr into a runtime value graph, per spec.md
// §4.3. Atoms become atomic runtime values; cons pairs become *mutable*
// cons cells (so set-car!/set-cdr! work on quoted, user-constructed list
// literals); vector literals become mutable vectors. Every produced value
// keeps src as its Source back-reference.
func (in *Interp) Load(src *SExpr) RuntimeObject {
	switch src.Kind {
	case SExprInteger:
		return Integer(src.Int).WithSource(src)
	case SExprFloat:
		return Float(src.Flt).WithSource(src)
	case SExprString:
		return StringValue(src.Str).WithSource(src)
	case SExprSymbol:
		return SymbolValue(src.Sym).WithSource(src)
	case SExprBoolean:
		return Bool2(src.Bool).WithSource(src)
	case SExprCharacter:
		return Character(src.Char).WithSource(src)
	case SExprNil:
		return Nil.WithSource(src)
	case SExprPair:
		car := in.Load(src.Car)
		cdr := in.Load(src.Cdr)
		return NewCons(in.heap, car, cdr).WithSource(src)
	case SExprVector:
		elems := make([]RuntimeObject, len(src.Elems))
		for i, e := range src.Elems {
			elems[i] = in.Load(e)
		}
		return NewVectorValue(in.heap, elems).WithSource(src)
	default:
		return Nil
	}
}
