// Package value implements the tagged-union runtime value that carries
// every row cell, bound parameter and extension type end-to-end across
// engine back-ends.
package value

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/sqlbridge/sqlbridge/dberr"
)

// Kind discriminates the variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindBytes
	KindArray
	KindMap
	KindExtension
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindUint32:
		return "Uint32"
	case KindUint64:
		return "Uint64"
	case KindFloat32:
		return "Float32"
	case KindFloat64:
		return "Float64"
	case KindString:
		return "String"
	case KindBytes:
		return "Bytes"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	case KindExtension:
		return "Extension"
	default:
		return "Unknown"
	}
}

// MapEntry is one (key, value) pair of a Value holding KindMap; entries
// preserve insertion order, which is why a Map is a slice and not a
// map[Value]Value.
type MapEntry struct {
	Key   Value
	Value Value
}

// Extension carries a domain type tagged by name: "Date", "DateTime",
// "Time", "Timestamp", "Decimal", "Uuid", "Json" or "Bytes" are the tags
// recognized by the engines in this module.
type Extension struct {
	Tag   string
	Inner Value
}

// Value is the universal runtime value used for row cells and bound
// parameters across every engine.
type Value struct {
	kind  Kind
	b     bool
	i64   int64
	u64   uint64
	f64   float64
	s     string
	bytes []byte
	arr   []Value
	m     []MapEntry
	ext   *Extension
}

// Null returns the Null value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a bool.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int32 wraps a signed 32-bit integer.
func Int32(v int32) Value { return Value{kind: KindInt32, i64: int64(v)} }

// Int64 wraps a signed 64-bit integer.
func Int64(v int64) Value { return Value{kind: KindInt64, i64: v} }

// Uint32 wraps an unsigned 32-bit integer.
func Uint32(v uint32) Value { return Value{kind: KindUint32, u64: uint64(v)} }

// Uint64 wraps an unsigned 64-bit integer.
func Uint64(v uint64) Value { return Value{kind: KindUint64, u64: v} }

// Float32 wraps a 32-bit float.
func Float32(v float32) Value { return Value{kind: KindFloat32, f64: float64(v)} }

// Float64 wraps a 64-bit float.
func Float64(v float64) Value { return Value{kind: KindFloat64, f64: v} }

// String wraps a UTF-8 string.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Bytes wraps an opaque byte sequence. The slice is retained, not copied.
func Bytes(v []byte) Value { return Value{kind: KindBytes, bytes: v} }

// Array wraps an ordered sequence of Values.
func Array(v []Value) Value { return Value{kind: KindArray, arr: v} }

// Map wraps an ordered sequence of key/value pairs.
func Map(entries []MapEntry) Value { return Value{kind: KindMap, m: entries} }

// Ext wraps a tagged extension value.
func Ext(tag string, inner Value) Value {
	return Value{kind: KindExtension, ext: &Extension{Tag: tag, Inner: inner}}
}

// Kind reports which variant this Value holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether this Value is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the wrapped bool or TypeMismatch.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, dberr.TypeMismatch("cannot convert %s to bool", v.kind)
	}
	return v.b, nil
}

// AsInt64 returns the wrapped value widened to int64, accepting any
// integer kind, or TypeMismatch for anything else.
func (v Value) AsInt64() (int64, error) {
	switch v.kind {
	case KindInt32, KindInt64:
		return v.i64, nil
	case KindUint32, KindUint64:
		return int64(v.u64), nil
	}
	return 0, dberr.TypeMismatch("cannot convert %s to int64", v.kind)
}

// AsUint64 returns the wrapped value widened to uint64.
func (v Value) AsUint64() (uint64, error) {
	switch v.kind {
	case KindUint32, KindUint64:
		return v.u64, nil
	case KindInt32, KindInt64:
		if v.i64 < 0 {
			return 0, dberr.TypeMismatch("cannot convert negative int64 to uint64")
		}
		return uint64(v.i64), nil
	}
	return 0, dberr.TypeMismatch("cannot convert %s to uint64", v.kind)
}

// AsFloat64 returns the wrapped value widened to float64.
func (v Value) AsFloat64() (float64, error) {
	switch v.kind {
	case KindFloat32, KindFloat64:
		return v.f64, nil
	case KindInt32, KindInt64:
		return float64(v.i64), nil
	case KindUint32, KindUint64:
		return float64(v.u64), nil
	}
	return 0, dberr.TypeMismatch("cannot convert %s to float64", v.kind)
}

// AsString returns the wrapped string, or TypeMismatch.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", dberr.TypeMismatch("cannot convert %s to string", v.kind)
	}
	return v.s, nil
}

// AsBytes returns the wrapped byte sequence, or TypeMismatch. A String
// value is also convertible, mirroring how row decoders often don't know
// yet whether a cell is textual or opaque.
func (v Value) AsBytes() ([]byte, error) {
	switch v.kind {
	case KindBytes:
		return v.bytes, nil
	case KindString:
		return []byte(v.s), nil
	}
	return nil, dberr.TypeMismatch("cannot convert %s to bytes", v.kind)
}

// AsArray returns the wrapped element slice, or TypeMismatch.
func (v Value) AsArray() ([]Value, error) {
	if v.kind != KindArray {
		return nil, dberr.TypeMismatch("cannot convert %s to array", v.kind)
	}
	return v.arr, nil
}

// AsMap returns the wrapped entry slice, or TypeMismatch.
func (v Value) AsMap() ([]MapEntry, error) {
	if v.kind != KindMap {
		return nil, dberr.TypeMismatch("cannot convert %s to map", v.kind)
	}
	return v.m, nil
}

// AsExtension returns the wrapped (tag, inner) pair, or TypeMismatch.
func (v Value) AsExtension() (string, Value, error) {
	if v.kind != KindExtension {
		return "", Value{}, dberr.TypeMismatch("cannot convert %s to extension", v.kind)
	}
	return v.ext.Tag, v.ext.Inner, nil
}

// Equal implements structural equality, per the invariant that equality
// on Values ignores representation width and signedness: integers
// compare by numeric value, so Int32(1), Int64(1) and Uint64(1) are all
// equal.
func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}

// classRank orders the top-level Kinds for comparison: Null < bools <
// ints (by numeric value) < floats (NaN last) < strings < bytes < arrays
// < maps.
func classRank(k Kind) int {
	switch k {
	case KindNull:
		return 0
	case KindBool:
		return 1
	case KindInt32, KindInt64, KindUint32, KindUint64:
		return 2
	case KindFloat32, KindFloat64:
		return 3
	case KindString:
		return 4
	case KindBytes:
		return 5
	case KindArray:
		return 6
	case KindMap:
		return 7
	case KindExtension:
		return 8
	default:
		return 9
	}
}

func isIntKind(k Kind) bool {
	return k == KindInt32 || k == KindInt64 || k == KindUint32 || k == KindUint64
}

func isFloatKind(k Kind) bool {
	return k == KindFloat32 || k == KindFloat64
}

func numericValue(v Value) float64 {
	switch v.kind {
	case KindInt32, KindInt64:
		return float64(v.i64)
	case KindUint32, KindUint64:
		return float64(v.u64)
	case KindFloat32, KindFloat64:
		return v.f64
	}
	return 0
}

// Compare implements a total order: Null < bools <
// ints by numeric value < floats by numeric value with NaN last <
// strings lexicographic < bytes lexicographic < arrays elementwise <
// maps by sorted key sequence. Extension values compare by their
// (tag, inner) tuple, after everything else by Kind.
func Compare(a, b Value) int {
	ra, rb := classRank(a.kind), classRank(b.kind)
	if ra != rb {
		// numeric classes (int/float) compare across class by value,
		// under a single numeric ordering rule.
		if (isIntKind(a.kind) || isFloatKind(a.kind)) && (isIntKind(b.kind) || isFloatKind(b.kind)) {
			return compareNumeric(a, b)
		}
		if ra < rb {
			return -1
		}
		return 1
	}

	switch a.kind {
	case KindNull:
		return 0
	case KindBool:
		if a.b == b.b {
			return 0
		}
		if !a.b {
			return -1
		}
		return 1
	case KindInt32, KindInt64, KindUint32, KindUint64, KindFloat32, KindFloat64:
		return compareNumeric(a, b)
	case KindString:
		return bytes.Compare([]byte(a.s), []byte(b.s))
	case KindBytes:
		return bytes.Compare(a.bytes, b.bytes)
	case KindArray:
		return compareArrays(a.arr, b.arr)
	case KindMap:
		return compareMaps(a.m, b.m)
	case KindExtension:
		if a.ext.Tag != b.ext.Tag {
			if a.ext.Tag < b.ext.Tag {
				return -1
			}
			return 1
		}
		return Compare(a.ext.Inner, b.ext.Inner)
	}
	return 0
}

// compareNumeric compares two int/float Values. Two ints are compared
// exactly (never routed through float64, which loses precision above
// 2^53 and would make e.g. Int64(math.MaxInt64) and
// Int64(math.MaxInt64-1) collapse to equal); float64 conversion is only
// used once at least one operand is actually a float kind.
func compareNumeric(a, b Value) int {
	if !isFloatKind(a.kind) && !isFloatKind(b.kind) {
		return compareInts(a, b)
	}

	aNaN := isFloatKind(a.kind) && math.IsNaN(a.f64)
	bNaN := isFloatKind(b.kind) && math.IsNaN(b.f64)
	if aNaN && bNaN {
		return 0
	}
	if aNaN {
		return 1
	}
	if bNaN {
		return -1
	}
	av, bv := numericValue(a), numericValue(b)
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

// compareInts compares two non-float int Values exactly. Same-signedness
// pairs compare on their native width; a signed/unsigned pair compares a
// negative signed value as least, otherwise widens the signed side to
// uint64 (safe since it is known non-negative here).
func compareInts(a, b Value) int {
	aSigned := a.kind == KindInt32 || a.kind == KindInt64
	bSigned := b.kind == KindInt32 || b.kind == KindInt64

	switch {
	case aSigned && bSigned:
		return cmpInt64(a.i64, b.i64)
	case !aSigned && !bSigned:
		return cmpUint64(a.u64, b.u64)
	case aSigned:
		if a.i64 < 0 {
			return -1
		}
		return cmpUint64(uint64(a.i64), b.u64)
	default:
		if b.i64 < 0 {
			return 1
		}
		return cmpUint64(a.u64, uint64(b.i64))
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareArrays(a, b []Value) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func compareMaps(a, b []MapEntry) int {
	sa := sortedKeys(a)
	sb := sortedKeys(b)
	for i := 0; i < len(sa) && i < len(sb); i++ {
		if c := Compare(sa[i].Key, sb[i].Key); c != 0 {
			return c
		}
		if c := Compare(sa[i].Value, sb[i].Value); c != 0 {
			return c
		}
	}
	switch {
	case len(sa) < len(sb):
		return -1
	case len(sa) > len(sb):
		return 1
	default:
		return 0
	}
}

func sortedKeys(entries []MapEntry) []MapEntry {
	out := make([]MapEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return Compare(out[i].Key, out[j].Key) < 0
	})
	return out
}

// String implements fmt.Stringer for debugging; it is not a wire format.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "Null"
	case KindBool:
		return fmt.Sprintf("Bool(%v)", v.b)
	case KindInt32, KindInt64:
		return fmt.Sprintf("%s(%d)", v.kind, v.i64)
	case KindUint32, KindUint64:
		return fmt.Sprintf("%s(%d)", v.kind, v.u64)
	case KindFloat32, KindFloat64:
		return fmt.Sprintf("%s(%v)", v.kind, v.f64)
	case KindString:
		return fmt.Sprintf("String(%q)", v.s)
	case KindBytes:
		return fmt.Sprintf("Bytes(%d bytes)", len(v.bytes))
	case KindArray:
		return fmt.Sprintf("Array(%d)", len(v.arr))
	case KindMap:
		return fmt.Sprintf("Map(%d)", len(v.m))
	case KindExtension:
		return fmt.Sprintf("Extension(%s, %s)", v.ext.Tag, v.ext.Inner)
	default:
		return "Unknown"
	}
}
