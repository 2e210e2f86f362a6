package value

// Shape is what a repeatable XML field resolves to. A single occurrence of an
// element is never wrapped by the parser, so consumers that expect a
// repeating field must handle both arms.
type Shape interface {
	isShape()
}

type Single struct {
	Value Value
}

type Many struct {
	Values []Value
}

func (Single) isShape() {}
func (Many) isShape() {}

func ShapeOf(v Value) Shape {
	if v.kind == KindList {
		return Many{Values: v.Items()}
	}
	return Single{Value: v}
}

func (v Value) Field(key string) (Shape, bool) {
	child, ok := v.Get(key)
	if !ok {
		return nil, false
	}
	return ShapeOf(child), true
}

// Values flattens a shape into a slice, wrapping a single value.
func Values(s Shape) []Value {
	switch s := s.(type) {
	case Single:
		return []Value{s.Value}
	case Many:
		return s.Values
	default:
		return nil
	}
}
