package domain

import "strconv"

type ValueKind int

const (
	KindNumeric ValueKind = iota
	KindCategorical
)

func (k ValueKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Value is a single scalar feature value.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
}

func Numeric(v float64) Value {
	return Value{Kind: KindNumeric, Num: v}
}

func Categorical(s string) Value {
	return Value{Kind: KindCategorical, Str: s}
}

func (v Value) String() string {
	if v.Kind == KindNumeric {
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	}
	return v.Str
}

// Record is one feature record describing a single entity to score.
type Record map[string]Value

// Map returns the record as plain JSON-compatible values.
func (r Record) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(r))
	for name, v := range r {
		if v.Kind == KindNumeric {
			out[name] = v.Num
		} else {
			out[name] = v.Str
		}
	}
	return out
}
