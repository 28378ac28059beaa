// Package mysqlconn implements the MySQL Driver/Connection contract by
// speaking the client/server wire protocol directly over net.Conn,
// rather than delegating to database/sql. Packet framing, handshake
// and protocol constants live in mysqlconn/proto; this file owns
// dialing, authentication, and COM_QUERY-based execution.
package mysqlconn

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/sqlbridge/sqlbridge/codec"
	"github.com/sqlbridge/sqlbridge/dberr"
	"github.com/sqlbridge/sqlbridge/driver"
	"github.com/sqlbridge/sqlbridge/dsn"
	"github.com/sqlbridge/sqlbridge/mysqlconn/proto"
	"github.com/sqlbridge/sqlbridge/value"
)

// Connection is a live MySQL transport. Only one operation may be in
// flight at a time, matching driver.Connection's contract.
type Connection struct {
	mu     sync.Mutex
	nc     net.Conn
	pc     *proto.PacketConn
	broken bool

	serverCapabilities uint32
	charset            uint8
	inTransaction      bool
}

var _ driver.Connection = (*Connection)(nil)

// dialOptions carries the subset of DSN params Connect interprets.
type dialOptions struct {
	tlsMode string // off, preferred, required
}

// Connect dials addr, performs the handshake for user/password/database
// and returns a ready Connection.
func Connect(ctx context.Context, info dsn.Info) (*Connection, error) {
	addr := net.JoinHostPort(info.Host, strconv.Itoa(info.Port))
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, dberr.Connect(fmt.Sprintf("dial %s", addr), err)
	}

	c := &Connection{nc: nc, pc: proto.NewPacketConn(nc)}
	if err := c.handshake(info); err != nil {
		nc.Close()
		return nil, err
	}
	return c, nil
}

func (c *Connection) handshake(info dsn.Info) error {
	greetingBuf, err := c.pc.ReadPacket()
	if err != nil {
		return dberr.Connect("read server greeting", err)
	}
	if len(greetingBuf) > 0 && greetingBuf[0] == proto.ErrPacket {
		return dberr.Connect("server rejected connection", parseErrPacket(greetingBuf[1:], 0))
	}
	greeting, err := parseHandshake(greetingBuf)
	if err != nil {
		return dberr.Connect("parse server greeting", err)
	}
	c.serverCapabilities = greeting.capabilities
	c.charset = greeting.charset

	tlsMode := info.Params["tls_mode"]
	clientCaps := clientCapabilities(info.Database)
	useTLS := tlsMode == "required" || tlsMode == "verifyca" || tlsMode == "verifyfull" || tlsMode == "preferred"
	if useTLS && greeting.capabilities&proto.CapabilityClientSSL != 0 {
		clientCaps |= proto.CapabilityClientSSL
		sslReq := codec.NewWriter(32)
		sslReq.PutUint32(clientCaps)
		sslReq.PutUint32(proto.MaxPacketSize)
		sslReq.PutUint8(greeting.charset)
		sslReq.PutBytes(make([]byte, 23))
		if err := c.pc.WritePacket(sslReq.Bytes()); err != nil {
			return dberr.Connect("send SSL request", err)
		}
		tlsConn := tls.Client(c.nc, &tls.Config{
			InsecureSkipVerify: tlsMode == "preferred" || tlsMode == "required",
			ServerName:         info.Host,
		})
		if err := tlsConn.Handshake(); err != nil {
			return dberr.Connect("TLS handshake", err)
		}
		c.nc = tlsConn
		c.pc = proto.NewPacketConn(tlsConn)
		c.pc.ResetSequence()
	} else if tlsMode == "required" || tlsMode == "verifyca" || tlsMode == "verifyfull" {
		return dberr.Connect("server does not support TLS but tls_mode requires it", nil)
	}

	resp := buildHandshakeResponse(greeting, info.User, info.Password, info.Database, clientCaps, greeting.charset)
	if err := c.pc.WritePacket(resp); err != nil {
		return dberr.Connect("send handshake response", err)
	}

	reply, err := c.pc.ReadPacket()
	if err != nil {
		return dberr.Connect("read auth result", err)
	}
	if len(reply) == 0 {
		return dberr.Connect("empty auth result", nil)
	}
	switch reply[0] {
	case proto.OKPacket:
		return nil
	case proto.ErrPacket:
		return dberr.Connect("authentication failed", parseErrPacket(reply[1:], greeting.capabilities))
	default:
		return dberr.Connect("unexpected auth result packet", nil)
	}
}

// Broken reports whether a transport error has made this Connection
// unsafe to keep using.
func (c *Connection) Broken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broken
}

func (c *Connection) markBroken(err error) error {
	c.broken = true
	return err
}

// Close shuts down the transport. Idempotent.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nc == nil {
		return nil
	}
	// COM_QUIT is advisory; ignore failures writing it.
	c.pc.ResetSequence()
	_ = c.pc.WritePacket([]byte{proto.ComQuit})
	err := c.nc.Close()
	c.nc = nil
	return err
}

// Ping sends COM_PING and expects an OK packet.
func (c *Connection) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pc.ResetSequence()
	if err := c.pc.WritePacket([]byte{proto.ComPing}); err != nil {
		return c.markBroken(dberr.IO("send COM_PING", err))
	}
	reply, err := c.pc.ReadPacket()
	if err != nil {
		return c.markBroken(dberr.IO("read COM_PING reply", err))
	}
	if len(reply) > 0 && reply[0] == proto.ErrPacket {
		return parseErrPacket(reply[1:], c.serverCapabilities)
	}
	return nil
}

// Begin/Commit/Rollback issue the corresponding statements directly;
// MySQL has no dedicated transaction-control packets outside COM_QUERY.
func (c *Connection) Begin(ctx context.Context) error {
	_, err := c.Execute(ctx, "START TRANSACTION", nil)
	if err == nil {
		c.inTransaction = true
	}
	return err
}

func (c *Connection) Commit(ctx context.Context) error {
	_, err := c.Execute(ctx, "COMMIT", nil)
	c.inTransaction = false
	return err
}

func (c *Connection) Rollback(ctx context.Context) error {
	_, err := c.Execute(ctx, "ROLLBACK", nil)
	c.inTransaction = false
	return err
}

// Execute runs sql expecting no result set (INSERT/UPDATE/DELETE/DDL).
// MySQL's text protocol has no placeholder syntax, so params must
// already be interpolated by the caller, or Execute substitutes simple
// positional '?' markers itself, rendering each param as a MySQL
// literal (see literal) — matching
// the positional-parameter convention Connection.Execute
// signature implies.
func (c *Connection) Execute(ctx context.Context, sql string, params []value.Value) (driver.ExecResult, error) {
	query, err := interpolate(sql, params)
	if err != nil {
		return driver.ExecResult{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sendQuery(query); err != nil {
		return driver.ExecResult{}, err
	}
	return c.readExecResult()
}

// Query runs sql and returns a streaming result set.
func (c *Connection) Query(ctx context.Context, sql string, params []value.Value) (driver.RowStream, error) {
	query, err := interpolate(sql, params)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if err := c.sendQuery(query); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	stream, err := c.readResultSetHeader()
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// GetValues runs sql and materializes the whole result set as an
// Array of Arrays, per driver.Connection's contract.
func (c *Connection) GetValues(ctx context.Context, sql string, params []value.Value) (value.Value, error) {
	stream, err := c.Query(ctx, sql, params)
	if err != nil {
		return value.Value{}, err
	}
	return driver.GetValuesFromStream(ctx, stream)
}

func (c *Connection) sendQuery(query string) error {
	c.pc.ResetSequence()
	payload := append([]byte{proto.ComQuery}, []byte(query)...)
	if err := c.pc.WritePacket(payload); err != nil {
		return c.markBroken(dberr.IO("send COM_QUERY", err))
	}
	return nil
}

func (c *Connection) readExecResult() (driver.ExecResult, error) {
	buf, err := c.pc.ReadPacket()
	if err != nil {
		return driver.ExecResult{}, c.markBroken(dberr.IO("read query result", err))
	}
	if len(buf) == 0 {
		return driver.ExecResult{}, dberr.Protocol("empty query result packet")
	}
	switch buf[0] {
	case proto.ErrPacket:
		return driver.ExecResult{}, parseErrPacket(buf[1:], c.serverCapabilities)
	case proto.OKPacket:
		return decodeOKPacket(buf[1:])
	default:
		// A result set was returned where none was expected; drain it so
		// the connection stays in sync, then report success with no count.
		stream, err := c.readResultSetHeaderFrom(buf)
		if err != nil {
			return driver.ExecResult{}, err
		}
		for {
			row, err := stream.Next(context.Background())
			if err != nil {
				return driver.ExecResult{}, err
			}
			if row == nil {
				break
			}
		}
		return driver.ExecResult{}, nil
	}
}

func decodeOKPacket(buf []byte) (driver.ExecResult, error) {
	r := codec.NewReader(buf)
	affected, err := r.GetLenencUint()
	if err != nil {
		return driver.ExecResult{}, err
	}
	insertID, err := r.GetLenencUint()
	if err != nil {
		return driver.ExecResult{}, err
	}
	return driver.ExecResult{
		RowsAffected: int64(affected),
		LastInsertID: int64(insertID),
		HasInsertID:  insertID != 0,
	}, nil
}

func (c *Connection) readResultSetHeader() (*RowStream, error) {
	buf, err := c.pc.ReadPacket()
	if err != nil {
		return nil, c.markBroken(dberr.IO("read result set header", err))
	}
	return c.readResultSetHeaderFrom(buf)
}

func (c *Connection) readResultSetHeaderFrom(buf []byte) (*RowStream, error) {
	if len(buf) > 0 && buf[0] == proto.ErrPacket {
		return nil, parseErrPacket(buf[1:], c.serverCapabilities)
	}
	r := codec.NewReader(buf)
	columnCount, err := r.GetLenencUint()
	if err != nil {
		return nil, dberr.Protocol("invalid result set header")
	}

	columns := make(driver.ColumnSet, 0, columnCount)
	for i := uint64(0); i < columnCount; i++ {
		colBuf, err := c.pc.ReadPacket()
		if err != nil {
			return nil, c.markBroken(dberr.IO("read column definition", err))
		}
		col, err := decodeColumnDefinition(colBuf)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}

	if c.serverCapabilities&proto.CapabilityClientDeprecateEOF == 0 {
		if _, err := c.pc.ReadPacket(); err != nil { // EOF after column defs
			return nil, c.markBroken(dberr.IO("read column EOF", err))
		}
	}

	return &RowStream{conn: c, columns: columns}, nil
}

func decodeColumnDefinition(buf []byte) (driver.Column, error) {
	r := codec.NewReader(buf)
	if _, err := r.GetLenencString(); err != nil { // catalog
		return driver.Column{}, err
	}
	if _, err := r.GetLenencString(); err != nil { // schema
		return driver.Column{}, err
	}
	if _, err := r.GetLenencString(); err != nil { // table
		return driver.Column{}, err
	}
	if _, err := r.GetLenencString(); err != nil { // org_table
		return driver.Column{}, err
	}
	name, err := r.GetLenencString()
	if err != nil {
		return driver.Column{}, err
	}
	if _, err := r.GetLenencString(); err != nil { // org_name
		return driver.Column{}, err
	}
	// Remaining fixed-width fields (filler, charset, length, type, flags,
	// decimals) are parsed for the column type byte only; mysqlconn
	// currently exposes cell values as text-protocol strings regardless
	// of declared type, so the numeric type code itself is not retained.
	engineType := "MYSQL"
	if err := r.Advance(1); err == nil { // length of fixed fields
		if _, err := r.GetUint16(); err == nil { // charset
			if _, err := r.GetUint32(); err == nil { // column length
				if typByte, err := r.GetUint8(); err == nil {
					engineType = columnTypeName(proto.ColumnType(typByte))
				}
			}
		}
	}
	return driver.Column{Name: name, EngineType: engineType}, nil
}

func columnTypeName(t proto.ColumnType) string {
	switch t {
	case proto.TypeTiny, proto.TypeShort, proto.TypeLong, proto.TypeLongLong, proto.TypeInt24:
		return "INT"
	case proto.TypeFloat, proto.TypeDouble:
		return "FLOAT"
	case proto.TypeDecimal, proto.TypeNewDecimal:
		return "DECIMAL"
	case proto.TypeDate:
		return "DATE"
	case proto.TypeTime:
		return "TIME"
	case proto.TypeDateTime:
		return "DATETIME"
	case proto.TypeTimestamp:
		return "TIMESTAMP"
	case proto.TypeJSON:
		return "JSON"
	case proto.TypeBlob, proto.TypeTinyBlob, proto.TypeMediumBlob, proto.TypeLongBlob:
		return "BLOB"
	default:
		return "VARCHAR"
	}
}

// RowStream decodes rows from the text result-set protocol lazily.
type RowStream struct {
	conn    *Connection
	columns driver.ColumnSet
	done    bool
}

func (s *RowStream) Columns() driver.ColumnSet { return s.columns }

func (s *RowStream) Next(ctx context.Context) (*driver.Row, error) {
	if s.done {
		return nil, nil
	}
	buf, err := s.conn.pc.ReadPacket()
	if err != nil {
		return nil, s.conn.markBroken(dberr.IO("read row packet", err))
	}
	if len(buf) == 0 {
		return nil, dberr.Protocol("empty row packet")
	}
	if buf[0] == proto.ErrPacket {
		s.done = true
		return nil, parseErrPacket(buf[1:], s.conn.serverCapabilities)
	}
	isEOFMarker := buf[0] == proto.EOFPacket && len(buf) < 9
	if isEOFMarker {
		s.done = true
		return nil, nil
	}

	cells, err := proto.DecodeTextRow(buf, len(s.columns))
	if err != nil {
		return nil, err
	}
	row := &driver.Row{Columns: s.columns, Cells: make([]value.Value, len(cells))}
	for i, cell := range cells {
		if cell.Null {
			row.Cells[i] = value.Null()
			continue
		}
		row.Cells[i] = value.String(string(buf[cell.Offset : cell.Offset+cell.Length]))
	}
	return row, nil
}

func (s *RowStream) Close() error {
	if s.done {
		return nil
	}
	// Drain remaining rows so the connection stays in sync for reuse.
	for {
		row, err := s.Next(context.Background())
		if err != nil || row == nil {
			return nil
		}
	}
}

// interpolate substitutes positional '?' markers in sql with params
// rendered as MySQL literals, since the text protocol carries no
// out-of-band parameter binding. This mirrors the conservative literal
// quoting real MySQL client libraries do for driver.Connection.Execute's
// positional-parameter contract.
func interpolate(sql string, params []value.Value) (string, error) {
	if len(params) == 0 {
		return sql, nil
	}
	out := make([]byte, 0, len(sql)+16*len(params))
	pi := 0
	for i := 0; i < len(sql); i++ {
		if sql[i] == '?' {
			if pi >= len(params) {
				return "", dberr.Other("not enough parameters for query")
			}
			lit, err := literal(params[pi])
			if err != nil {
				return "", err
			}
			out = append(out, lit...)
			pi++
			continue
		}
		out = append(out, sql[i])
	}
	return string(out), nil
}

func literal(v value.Value) (string, error) {
	if v.IsNull() {
		return "NULL", nil
	}
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.AsBool()
		if b {
			return "1", nil
		}
		return "0", nil
	case value.KindString:
		s, _ := v.AsString()
		return quoteMySQLString(s), nil
	case value.KindBytes:
		b, _ := v.AsBytes()
		return "0x" + hexEncode(b), nil
	case value.KindInt32, value.KindInt64:
		i, _ := v.AsInt64()
		return strconv.FormatInt(i, 10), nil
	case value.KindUint32, value.KindUint64:
		u, _ := v.AsUint64()
		return strconv.FormatUint(u, 10), nil
	case value.KindFloat32, value.KindFloat64:
		f, _ := v.AsFloat64()
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case value.KindExtension:
		_, inner, _ := v.AsExtension()
		return literal(inner)
	default:
		return "", dberr.TypeMismatch("cannot render %s as a MySQL literal", v.Kind())
	}
}

func quoteMySQLString(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			out = append(out, '\'', '\'')
		case '\\':
			out = append(out, '\\', '\\')
		default:
			out = append(out, s[i])
		}
	}
	out = append(out, '\'')
	return string(out)
}

const hexDigits = "0123456789abcdef"

func hexEncode(b []byte) string {
	out := make([]byte, 2*len(b))
	for i, v := range b {
		out[2*i] = hexDigits[v>>4]
		out[2*i+1] = hexDigits[v&0xf]
	}
	return string(out)
}
