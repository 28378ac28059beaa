package sqliteconn

import (
	"database/sql/driver"
	"strconv"
	"strings"
	"time"

	"github.com/sqlbridge/sqlbridge/dberr"
	"github.com/sqlbridge/sqlbridge/value"
)

// toDriverValues converts bound parameters into the narrow set of Go
// types database/sql/driver.Value accepts (int64, float64, bool,
// []byte, string, time.Time, nil), unwrapping Extension values to
// their inner representation.
func toDriverValues(params []value.Value) ([]driver.Value, error) {
	out := make([]driver.Value, len(params))
	for i, p := range params {
		v, err := toDriverValue(p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func toDriverValue(v value.Value) (driver.Value, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.AsBool()
		return b, nil
	case value.KindInt32, value.KindInt64:
		i, _ := v.AsInt64()
		return i, nil
	case value.KindUint32, value.KindUint64:
		u, _ := v.AsUint64()
		return int64(u), nil
	case value.KindFloat32, value.KindFloat64:
		f, _ := v.AsFloat64()
		return f, nil
	case value.KindString:
		s, _ := v.AsString()
		return s, nil
	case value.KindBytes:
		b, _ := v.AsBytes()
		return b, nil
	case value.KindExtension:
		_, inner, _ := v.AsExtension()
		return toDriverValue(inner)
	default:
		return nil, dberr.TypeMismatch("cannot bind %s as a sqlite parameter", v.Kind())
	}
}

// extensionTagForType classifies a SQLite declared column type (as
// reported by go-sqlite3's ColumnTypeDatabaseTypeName, itself derived
// from the column's declared affinity) into one of the recognized
// Extension tags.
func extensionTagForType(declared string) string {
	switch strings.ToUpper(declared) {
	case "DATE":
		return "Date"
	case "TIME":
		return "Time"
	case "DATETIME", "TIMESTAMP":
		return "DateTime"
	case "DECIMAL", "NUMERIC":
		return "Decimal"
	default:
		return ""
	}
}

// driverValueToValue converts one decoded cell, as go-sqlite3 hands it
// back, into a value.Value, tagging it as an Extension when the
// column's declared type matches a recognized tag.
func driverValueToValue(raw driver.Value, declaredType string) value.Value {
	if raw == nil {
		return value.Null()
	}
	tag := extensionTagForType(declaredType)
	switch v := raw.(type) {
	case bool:
		return value.Bool(v)
	case int64:
		return value.Int64(v)
	case float64:
		if tag == "Decimal" {
			return value.Ext(tag, value.String(strconv.FormatFloat(v, 'f', -1, 64)))
		}
		return value.Float64(v)
	case []byte:
		if tag != "" {
			return value.Ext(tag, value.String(string(v)))
		}
		return value.Bytes(append([]byte(nil), v...))
	case string:
		if tag != "" {
			return value.Ext(tag, value.String(v))
		}
		return value.String(v)
	case time.Time:
		if tag == "" {
			tag = "DateTime"
		}
		return value.Ext(tag, value.String(v.Format(time.RFC3339Nano)))
	default:
		return value.Null()
	}
}

