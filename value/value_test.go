package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareOrderingAcrossClasses(t *testing.T) {
	seq := []Value{
		Null(),
		Bool(false),
		Bool(true),
		Int64(1),
		Int64(2),
		Float64(2.5),
		Float64(math.NaN()),
		String("a"),
		String("b"),
		Bytes([]byte{0x01}),
		Bytes([]byte{0x02}),
		Array([]Value{Int64(1)}),
		Array([]Value{Int64(1), Int64(2)}),
	}
	for i := 0; i < len(seq)-1; i++ {
		require.Negativef(t, Compare(seq[i], seq[i+1]), "expected %v < %v", seq[i], seq[i+1])
	}
}

func TestCompareNaNIsLast(t *testing.T) {
	require.Positive(t, Compare(Float64(math.NaN()), Float64(1e300)), "NaN must sort after any finite float")
	require.Zero(t, Compare(Float64(math.NaN()), Float64(math.NaN())), "NaN must equal NaN under this ordering")
}

func TestEqualAcrossIntWidths(t *testing.T) {
	require.True(t, Equal(Int32(5), Int64(5)), "Int32(5) and Int64(5) should compare structurally equal")
	require.True(t, Equal(Uint32(5), Uint64(5)), "Uint32(5) and Uint64(5) should compare structurally equal")
}

func TestMapComparesBySortedKeySequence(t *testing.T) {
	m1 := Map([]MapEntry{{Key: String("b"), Value: Int64(1)}, {Key: String("a"), Value: Int64(2)}})
	m2 := Map([]MapEntry{{Key: String("a"), Value: Int64(2)}, {Key: String("b"), Value: Int64(1)}})
	require.True(t, Equal(m1, m2), "maps with same entries in different insertion order must compare equal")
}

func TestExtensionComparesByTagThenInner(t *testing.T) {
	a := Ext("Decimal", String("1.50"))
	b := Ext("Decimal", String("1.50"))
	c := Ext("Decimal", String("1.51"))
	d := Ext("Uuid", String("1.50"))
	require.True(t, Equal(a, b), "identical extension values must be equal")
	require.False(t, Equal(a, c), "different inner values must not be equal")
	require.False(t, Equal(a, d), "different tags must not be equal")
}

func TestTypeMismatchOnWrongAccessor(t *testing.T) {
	_, err := String("x").AsInt64()
	require.Error(t, err, "expected TypeMismatch error")
}

func TestAsInt64WidensUnsigned(t *testing.T) {
	v := Uint64(42)
	got, err := v.AsInt64()
	require.NoError(t, err)
	require.EqualValues(t, 42, got)
}

// Large int64/uint64 values differing below float64's 52-bit mantissa
// must still compare exactly distinct: routing the comparison through
// float64 would collapse them to equal, which is within MySQL BIGINT
// range and must not happen.
func TestCompareLargeIntsExactNearFloat64Precision(t *testing.T) {
	require.False(t, Equal(Int64(math.MaxInt64), Int64(math.MaxInt64-1)),
		"adjacent int64 values near 2^63 must not compare equal")
	require.Negative(t, Compare(Int64(math.MaxInt64-1), Int64(math.MaxInt64)),
		"MaxInt64-1 must order before MaxInt64")

	require.False(t, Equal(Uint64(math.MaxUint64), Uint64(math.MaxUint64-1)),
		"adjacent uint64 values near 2^64 must not compare equal")
	require.Negative(t, Compare(Uint64(math.MaxUint64-1), Uint64(math.MaxUint64)),
		"MaxUint64-1 must order before MaxUint64")
}

func TestCompareMixedSignedUnsignedInts(t *testing.T) {
	require.Negative(t, Compare(Int64(-1), Uint64(0)), "a negative signed int must order before any unsigned value")
	require.Zero(t, Compare(Int64(5), Uint64(5)), "Int64(5) and Uint64(5) must compare numerically equal")
	require.Negative(t, Compare(Int64(5), Uint64(math.MaxUint64)), "a small non-negative signed int must order before a huge unsigned value")
}
