package mysqlconn

import (
	"crypto/sha1"

	"github.com/sqlbridge/sqlbridge/codec"
	"github.com/sqlbridge/sqlbridge/dberr"
	"github.com/sqlbridge/sqlbridge/mysqlconn/proto"
)

// handshake is the parsed content of the server's initial greeting
// (Protocol::HandshakeV10).
type handshake struct {
	protocolVersion uint8
	serverVersion   string
	connectionID    uint32
	authPluginData  []byte
	capabilities    uint32
	charset         uint8
	statusFlags     uint16
	authPluginName  string
}

// parseHandshake decodes the server greeting packet. It supports both
// the pre- and post-CLIENT_PLUGIN_AUTH forms, mirroring the wire shape
// vitess's constants.go documents via its Capability* flags.
func parseHandshake(buf []byte) (*handshake, error) {
	r := codec.NewReader(buf)
	ver, err := r.GetUint8()
	if err != nil {
		return nil, err
	}
	h := &handshake{protocolVersion: ver}
	if h.serverVersion, err = r.GetNulString(); err != nil {
		return nil, err
	}
	connID, err := r.GetUint32()
	if err != nil {
		return nil, err
	}
	h.connectionID = connID

	authPart1, err := r.GetBytes(8)
	if err != nil {
		return nil, err
	}
	if err := r.Advance(1); err != nil { // filler
		return nil, err
	}
	capLow, err := r.GetUint16()
	if err != nil {
		return nil, err
	}
	charset, err := r.GetUint8()
	if err != nil {
		return nil, err
	}
	h.charset = charset
	status, err := r.GetUint16()
	if err != nil {
		return nil, err
	}
	h.statusFlags = status
	capHigh, err := r.GetUint16()
	if err != nil {
		return nil, err
	}
	h.capabilities = uint32(capLow) | uint32(capHigh)<<16

	authDataLen, err := r.GetUint8()
	if err != nil {
		return nil, err
	}
	if err := r.Advance(10); err != nil { // reserved
		return nil, err
	}

	h.authPluginData = append([]byte{}, authPart1...)
	if h.capabilities&proto.CapabilityClientSecureConnection != 0 {
		n := int(authDataLen) - 8
		if n < 13 {
			n = 13
		}
		authPart2, err := r.GetBytes(n)
		if err != nil {
			return nil, err
		}
		// authPart2 is NUL-terminated; drop the trailing byte.
		if len(authPart2) > 0 {
			authPart2 = authPart2[:len(authPart2)-1]
		}
		h.authPluginData = append(h.authPluginData, authPart2...)
	}
	if h.capabilities&proto.CapabilityClientPluginAuth != 0 {
		name, err := r.GetNulString()
		if err != nil {
			return nil, err
		}
		h.authPluginName = name
	}
	return h, nil
}

// scramblePassword implements mysql_native_password: SHA1(password) XOR
// SHA1(salt + SHA1(SHA1(password))).
func scramblePassword(salt []byte, password string) []byte {
	if password == "" {
		return nil
	}
	stage1 := sha1.Sum([]byte(password))
	stage2 := sha1.Sum(stage1[:])
	h := sha1.New()
	h.Write(salt)
	h.Write(stage2[:])
	stage3 := h.Sum(nil)

	out := make([]byte, len(stage3))
	for i := range out {
		out[i] = stage1[i] ^ stage3[i]
	}
	return out
}

// buildHandshakeResponse encodes Protocol::HandshakeResponse41.
func buildHandshakeResponse(h *handshake, user, password, database string, clientCaps uint32, charset uint8) []byte {
	w := codec.NewWriter(128 + len(user) + len(database))
	w.PutUint32(clientCaps)
	w.PutUint32(proto.MaxPacketSize)
	w.PutUint8(charset)
	w.PutBytes(make([]byte, 23)) // reserved

	w.PutNulString(user)

	scramble := scramblePassword(h.authPluginData, password)
	if clientCaps&proto.CapabilityClientPluginAuthLenencClientData != 0 {
		w.PutLenencUint(uint64(len(scramble)))
		w.PutBytes(scramble)
	} else {
		w.PutUint8(uint8(len(scramble)))
		w.PutBytes(scramble)
	}

	if clientCaps&proto.CapabilityClientConnectWithDB != 0 {
		w.PutNulString(database)
	}
	if clientCaps&proto.CapabilityClientPluginAuth != 0 {
		w.PutNulString(string(proto.MysqlNativePassword))
	}
	return w.Bytes()
}

// clientCapabilities builds the capability flags this client always
// requests; SSL is added separately by the caller once it knows whether
// tls_mode demands it.
func clientCapabilities(database string) uint32 {
	caps := uint32(proto.CapabilityClientLongPassword) |
		proto.CapabilityClientProtocol41 |
		proto.CapabilityClientSecureConnection |
		proto.CapabilityClientTransactions |
		proto.CapabilityClientMultiStatements |
		proto.CapabilityClientPluginAuth |
		proto.CapabilityClientPluginAuthLenencClientData |
		proto.CapabilityClientDeprecateEOF
	if database != "" {
		caps |= proto.CapabilityClientConnectWithDB
	}
	return caps
}

// parseErrPacket decodes Protocol::ERR_Packet (minus the 0xff header
// byte the caller has already consumed) into a dberr.Error.
func parseErrPacket(buf []byte, serverCaps uint32) error {
	r := codec.NewReader(buf)
	code, err := r.GetUint16()
	if err != nil {
		return dberr.Protocol("short error packet")
	}
	sqlState := ""
	if serverCaps&proto.CapabilityClientProtocol41 != 0 {
		marker, err := r.GetUint8()
		if err == nil && marker == '#' {
			if s, err := r.GetBytes(5); err == nil {
				sqlState = string(s)
			}
		}
	}
	message := string(r.Bytes()[r.Pos():])
	return dberr.Database(int(code), sqlState, message)
}
