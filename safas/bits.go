package safas

import "math/big"

func twoPow(n int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(n))
}

// Rewidth implements the `bits n v` operation: reinterpret
// v at bit width n. For Integers this truncates or sign-extends the
// numeric value; for binary literals it zero-extends or truncates the raw
// bit pattern on the left. Rewidth never fails for well-typed input; it is
// the only operation permitted to change a value's declared width.
func Rewidth(v *Value, n int) *Value {
	if n <= 0 {
		return Errorf(CondTypeError, "bits: width must be positive: %d", n)
	}
	switch v.Kind {
	case KInt:
		mod := twoPow(n)
		pattern := new(big.Int).Mod(v.Int, mod)
		val := new(big.Int).Set(pattern)
		if v.Signed && pattern.Bit(n-1) == 1 {
			val.Sub(pattern, mod)
		}
		return &Value{Kind: KInt, Int: val, Width: n, Signed: v.Signed, Source: v.Source}
	case KBinary:
		pattern := new(big.Int).Mod(v.Int, twoPow(n))
		return &Value{Kind: KBinary, Int: pattern, Width: n, Source: v.Source}
	default:
		return Errorf(CondTypeError, "bits: value is not numeric: %v", v.Kind)
	}
}

// EncodeMagnitude returns the width-bit unsigned two's-complement pattern
// used to emit v, applying the width policy: an Integer whose
// value does not fit in its declared width (unsigned range, or signed
// range) is a WidthError. Binary literals always fit their own declared
// width by construction and never error here.
func EncodeMagnitude(v *Value) (*big.Int, int, *Value) {
	switch v.Kind {
	case KInt:
		mod := twoPow(v.Width)
		if v.Signed {
			half := new(big.Int).Rsh(mod, 1)
			lo := new(big.Int).Neg(half)
			hi := new(big.Int).Sub(half, big.NewInt(1))
			if v.Int.Cmp(lo) < 0 || v.Int.Cmp(hi) > 0 {
				return nil, 0, Errorf(CondWidthError, "value %s does not fit in %d-bit signed width", v.Int.String(), v.Width)
			}
		} else {
			if v.Int.Sign() < 0 || v.Int.Cmp(mod) >= 0 {
				return nil, 0, Errorf(CondWidthError, "value %s does not fit in %d-bit unsigned width", v.Int.String(), v.Width)
			}
		}
		return new(big.Int).Mod(v.Int, mod), v.Width, nil
	case KBinary:
		return new(big.Int).Mod(v.Int, twoPow(v.Width)), v.Width, nil
	default:
		return nil, 0, Errorf(CondTypeError, "value is not emittable: %v", v.Kind)
	}
}
