// Package decimal wraps github.com/shopspring/decimal, the
// arbitrary-precision decimal library this module depends on rather than
// rolling its own, as an Extension("Decimal") value.
package decimal

import (
	"github.com/shopspring/decimal"

	"github.com/sqlbridge/sqlbridge/dberr"
	"github.com/sqlbridge/sqlbridge/value"
)

// Decimal is a thin wrapper so the rest of this module only ever imports
// this package, not shopspring/decimal directly.
type Decimal struct {
	d decimal.Decimal
}

// New parses a decimal literal.
func New(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, dberr.Other("invalid decimal literal %q: %v", s, err)
	}
	return Decimal{d: d}, nil
}

// FromFloat64 builds a Decimal from a float64.
func FromFloat64(f float64) Decimal {
	return Decimal{d: decimal.NewFromFloat(f)}
}

// FromInt64 builds a Decimal from an int64.
func FromInt64(i int64) Decimal {
	return Decimal{d: decimal.NewFromInt(i)}
}

// String renders the canonical decimal text form.
func (d Decimal) String() string { return d.d.String() }

// WithScale returns a Decimal with the given number of digits after the
// decimal point, rounding half-away-from-zero when narrowing, the same
// semantics as the source's with_scale.
func (d Decimal) WithScale(scale int32) Decimal {
	return Decimal{d: d.d.Round(scale)}
}

// WithPrec returns a Decimal rounded to the given number of significant
// digits, half-away-from-zero, mirroring the source's with_prec.
func (d Decimal) WithPrec(prec int32) Decimal {
	return Decimal{d: d.d.RoundSignificant(prec)}
}

// Add, Sub, Mul, Div forward to shopspring/decimal with identical
// semantics to the source's operator overloads.
func (d Decimal) Add(o Decimal) Decimal { return Decimal{d: d.d.Add(o.d)} }
func (d Decimal) Sub(o Decimal) Decimal { return Decimal{d: d.d.Sub(o.d)} }
func (d Decimal) Mul(o Decimal) Decimal { return Decimal{d: d.d.Mul(o.d)} }
func (d Decimal) Div(o Decimal) Decimal { return Decimal{d: d.d.Div(o.d)} }

// Cmp compares two Decimals, -1/0/1.
func (d Decimal) Cmp(o Decimal) int { return d.d.Cmp(o.d) }

// ToValue wraps the Decimal as Extension("Decimal", String(text)), the
// exact tagged shape an Extension value needs so it round-trips through any
// engine's parameter binding.
func (d Decimal) ToValue() value.Value {
	return value.Ext("Decimal", value.String(d.d.String()))
}

// FromValue unwraps Extension("Decimal", String(text)) back into a Decimal.
func FromValue(v value.Value) (Decimal, error) {
	tag, inner, err := v.AsExtension()
	if err != nil {
		return Decimal{}, err
	}
	if tag != "Decimal" {
		return Decimal{}, dberr.TypeMismatch("expected Extension(\"Decimal\", ...), got tag %q", tag)
	}
	s, err := inner.AsString()
	if err != nil {
		return Decimal{}, err
	}
	return New(s)
}
