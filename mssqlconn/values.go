package mssqlconn

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/sqlbridge/sqlbridge/dberr"
	"github.com/sqlbridge/sqlbridge/value"
)

// extensionTagForType mirrors pgconn's classification, using the
// DatabaseTypeName spellings go-mssqldb reports for T-SQL column types.
func extensionTagForType(dbType string) string {
	switch strings.ToUpper(dbType) {
	case "DATE":
		return "Date"
	case "TIME":
		return "Time"
	case "DATETIME", "DATETIME2", "SMALLDATETIME":
		return "DateTime"
	case "DATETIMEOFFSET":
		return "Timestamp"
	case "DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY":
		return "Decimal"
	case "UNIQUEIDENTIFIER":
		return "Uuid"
	default:
		return ""
	}
}

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
		return nil, dberr.TypeMismatch("cannot bind %s as an mssql parameter", v.Kind())
	}
}

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

func scanRow(rows *sql.Rows, types []*sql.ColumnType) ([]value.Value, error) {
	dest := make([]any, len(types))
	ptrs := make([]any, len(types))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, dberr.IO("scan mssql row", err)
	}
	cells := make([]value.Value, len(types))
	for i, t := range types {
		cells[i] = cellToValue(dest[i], t.DatabaseTypeName())
	}
	return cells, nil
}
