package pgconn

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/sqlbridge/sqlbridge/dberr"
	"github.com/sqlbridge/sqlbridge/value"
)

// extensionTagForType classifies a Postgres column's reported
// DatabaseTypeName into one of the recognized Extension tags,
// so callers decoding a result set see the same tagged shape regardless
// of which engine produced it.
func extensionTagForType(dbType string) string {
	switch strings.ToUpper(dbType) {
	case "DATE":
		return "Date"
	case "TIME", "TIMETZ":
		return "Time"
	case "TIMESTAMP":
		return "DateTime"
	case "TIMESTAMPTZ":
		return "Timestamp"
	case "NUMERIC", "DECIMAL":
		return "Decimal"
	case "UUID":
		return "Uuid"
	case "JSON", "JSONB":
		return "Json"
	case "BYTEA":
		return "Bytes"
	default:
		return ""
	}
}

// cellToValue converts one scanned cell (whatever Go type the driver
// handed back into an *any destination) into a value.Value, tagging
// it as an Extension when the column's declared type matches one of
// the recognized Extension tags.
func cellToValue(raw any, dbType string) value.Value {
	if raw == nil {
		return value.Null()
	}
	tag := extensionTagForType(dbType)
	switch v := raw.(type) {
	case bool:
		return value.Bool(v)
	case int64:
		if tag != "" {
			return value.Ext(tag, value.String(strconv.FormatInt(v, 10)))
		}
		return value.Int64(v)
	case float64:
		if tag == "Decimal" {
			return value.Ext(tag, value.String(strconv.FormatFloat(v, 'f', -1, 64)))
		}
		return value.Float64(v)
	case []byte:
		if tag == "Bytes" {
			return value.Ext(tag, value.Bytes(append([]byte(nil), v...)))
		}
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
		s := v.Format(time.RFC3339Nano)
		if tag == "" {
			tag = "DateTime"
		}
		return value.Ext(tag, value.String(s))
	default:
		return value.String(strconvFallback(raw))
	}
}

func strconvFallback(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}

// valueToArg converts a bound parameter value.Value into the `any`
// database/sql.ExecContext/QueryContext expects, unwrapping Extension
// values to their inner representation, following the parameter
// binding contract.
func valueToArg(v value.Value) (any, error) {
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
		return valueToArg(inner)
	default:
		return nil, dberr.TypeMismatch("cannot bind %s as a postgres parameter", v.Kind())
	}
}

// toArgs converts a parameter slice, stopping at the first failure.
func toArgs(params []value.Value) ([]any, error) {
	args := make([]any, len(params))
	for i, p := range params {
		a, err := valueToArg(p)
		if err != nil {
			return nil, err
		}
		args[i] = a
	}
	return args, nil
}

// scanRow scans one *sql.Rows row into value.Value cells by scanning
// each column into an *any, then classifies each by the
// column's DatabaseTypeName.
func scanRow(rows *sql.Rows, types []*sql.ColumnType) ([]value.Value, error) {
	dest := make([]any, len(types))
	ptrs := make([]any, len(types))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, dberr.IO("scan postgres row", err)
	}
	cells := make([]value.Value, len(types))
	for i, t := range types {
		cells[i] = cellToValue(dest[i], t.DatabaseTypeName())
	}
	return cells, nil
}
