package timing

import (
	"fmt"
	"math/big"
)

// Positions, durations and intervals are exact rationals. Every helper here returns a
// freshly allocated value and never mutates its arguments, so a *big.Rat handed to the
// scheduler can be shared freely.

// R returns num/den.
func R(num, den int64) *big.Rat {
	return big.NewRat(num, den)
}

// Int returns n as a rational.
func Int(n int64) *big.Rat {
	return new(big.Rat).SetInt64(n)
}

// Parse reads "3/2", "1.5" or "7" into a rational.
func Parse(s string) (*big.Rat, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("cannot parse %q as a rational position", s)
	}
	return r, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) *big.Rat {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// FromFloat converts a float64 to its exact rational value. NaN and the infinities
// have none.
func FromFloat(f float64) (*big.Rat, error) {
	r := new(big.Rat)
	if r.SetFloat64(f) == nil {
		return nil, fmt.Errorf("cannot represent %v as a rational", f)
	}
	return r, nil
}

// Float is FromFloat for values known to be finite.
func Float(f float64) *big.Rat {
	r, err := FromFloat(f)
	if err != nil {
		panic(err)
	}
	return r
}

func Copy(a *big.Rat) *big.Rat {
	if a == nil {
		return nil
	}
	return new(big.Rat).Set(a)
}

func Add(a, b *big.Rat) *big.Rat { return new(big.Rat).Add(a, b) }
func Sub(a, b *big.Rat) *big.Rat { return new(big.Rat).Sub(a, b) }
func Mul(a, b *big.Rat) *big.Rat { return new(big.Rat).Mul(a, b) }
func Quo(a, b *big.Rat) *big.Rat { return new(big.Rat).Quo(a, b) }
func Neg(a *big.Rat) *big.Rat    { return new(big.Rat).Neg(a) }
func Abs(a *big.Rat) *big.Rat    { return new(big.Rat).Abs(a) }

// MulInt returns a*n.
func MulInt(a *big.Rat, n int64) *big.Rat {
	return new(big.Rat).Mul(a, Int(n))
}

func Cmp(a, b *big.Rat) int { return a.Cmp(b) }
func Equal(a, b *big.Rat) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}
func Less(a, b *big.Rat) bool { return a.Cmp(b) < 0 }

func Min(a, b *big.Rat) *big.Rat {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

func Max(a, b *big.Rat) *big.Rat {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Floor returns the largest integer not greater than a.
func Floor(a *big.Rat) *big.Int {
	// Euclidean division equals floor division because the denominator is positive.
	return new(big.Int).Div(a.Num(), a.Denom())
}

// Ceil returns the smallest integer not less than a.
func Ceil(a *big.Rat) *big.Int {
	q := Floor(a)
	if !a.IsInt() {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// Round rounds to the nearest integer, halves away from zero.
func Round(a *big.Rat) *big.Int {
	half := R(1, 2)
	if a.Sign() < 0 {
		return new(big.Int).Neg(Floor(Add(Neg(a), half)))
	}
	return Floor(Add(a, half))
}

// Format renders a position the way it reads in a score: integers without a
// denominator, everything else as a reduced fraction.
func Format(a *big.Rat) string {
	if a == nil {
		return "unset"
	}
	return a.RatString()
}
