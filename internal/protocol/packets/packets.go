// Package packets implements the concrete packet structs for the
// Handshake, Status, Login, and Play stages, per spec §6's packet ID
// map (authoritative for protocol version 761).
package packets

import (
	"bytes"

	"github.com/google/uuid"

	"github.com/go-mclib/server/internal/protocol/errs"
	"github.com/go-mclib/server/internal/protocol/varint"
)

// Packet is any type that can encode itself into a packet body (the
// packet ID is written by the caller, not the packet itself — frame.Writer
// takes the ID separately).
type Packet interface {
	Encode() []byte
}

// ---- Handshake (serverbound only; stage is chosen before this packet) ----

const (
	NextStateStatus = 1
	NextStateLogin  = 2
)

type HandShake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       int32
}

const HandShakeID = 0x00

func DecodeHandShake(body []byte) (*HandShake, error) {
	r := bytes.NewReader(body)
	pv, err := varint.ReadInt(r)
	if err != nil {
		return nil, err
	}
	addr, err := varint.ReadString(r)
	if err != nil {
		return nil, err
	}
	var portBuf [2]byte
	if _, err := r.Read(portBuf[:]); err != nil {
		return nil, errs.IO(err)
	}
	port := uint16(portBuf[0])<<8 | uint16(portBuf[1])
	next, err := varint.ReadInt(r)
	if err != nil {
		return nil, err
	}
	if next != NextStateStatus && next != NextStateLogin {
		return nil, errs.New(errs.KindInvalidData, "handshake next_state out of range")
	}
	if r.Len() != 0 {
		return nil, errs.New(errs.KindInvalidData, "handshake: surplus bytes")
	}
	return &HandShake{ProtocolVersion: pv, ServerAddress: addr, ServerPort: port, NextState: next}, nil
}

func (h *HandShake) Encode() []byte {
	buf := varint.WriteInt(nil, h.ProtocolVersion)
	buf = varint.WriteString(buf, h.ServerAddress)
	buf = append(buf, byte(h.ServerPort>>8), byte(h.ServerPort))
	buf = varint.WriteInt(buf, h.NextState)
	return buf
}

// ---- Status ----

const (
	StatusRequestID  = 0x00
	StatusPingID     = 0x01
	StatusResponseID = 0x00
	StatusPongID     = 0x01
)

type StatusRequest struct{}

func DecodeStatusRequest(body []byte) (*StatusRequest, error) {
	if len(body) != 0 {
		return nil, errs.New(errs.KindInvalidData, "status request: surplus bytes")
	}
	return &StatusRequest{}, nil
}

func (StatusRequest) Encode() []byte { return nil }

type StatusPing struct{ Payload int64 }

func DecodeStatusPing(body []byte) (*StatusPing, error) {
	r := bytes.NewReader(body)
	v, err := varint.ReadLong(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errs.New(errs.KindInvalidData, "status ping: surplus bytes")
	}
	return &StatusPing{Payload: v}, nil
}

func (p StatusPing) Encode() []byte { return varint.WriteLong(nil, p.Payload) }

type StatusResponse struct{ JSON string }

func (r StatusResponse) Encode() []byte { return varint.WriteString(nil, r.JSON) }

func DecodeStatusResponse(body []byte) (*StatusResponse, error) {
	r := bytes.NewReader(body)
	s, err := varint.ReadString(r)
	if err != nil {
		return nil, err
	}
	return &StatusResponse{JSON: s}, nil
}

type StatusPong struct{ Payload int64 }

func (p StatusPong) Encode() []byte { return varint.WriteLong(nil, p.Payload) }

func DecodeStatusPong(body []byte) (*StatusPong, error) {
	r := bytes.NewReader(body)
	v, err := varint.ReadLong(r)
	if err != nil {
		return nil, err
	}
	return &StatusPong{Payload: v}, nil
}

// ---- Login ----

const (
	LoginStartID              = 0x00
	LoginEncryptionResponseID = 0x01
	LoginPluginResponseID     = 0x02

	LoginDisconnectID        = 0x00
	LoginEncryptionRequestID = 0x01
	LoginSuccessID           = 0x02
	LoginSetCompressionID    = 0x03
	LoginPluginRequestID     = 0x04
)

type LoginStart struct {
	Name string
	UUID uuid.UUID
}

func DecodeLoginStart(body []byte) (*LoginStart, error) {
	r := bytes.NewReader(body)
	name, err := varint.ReadString(r)
	if err != nil {
		return nil, err
	}
	id, err := varint.ReadUUID(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errs.New(errs.KindInvalidData, "login start: surplus bytes")
	}
	return &LoginStart{Name: name, UUID: id}, nil
}

func (l LoginStart) Encode() []byte {
	buf := varint.WriteString(nil, l.Name)
	return varint.WriteUUID(buf, l.UUID)
}

type EncryptionRequest struct {
	ServerID    string
	PublicKey   []byte
	VerifyToken []byte
}

func (e EncryptionRequest) Encode() []byte {
	buf := varint.WriteString(nil, e.ServerID)
	buf = varint.WriteInt(buf, int32(len(e.PublicKey)))
	buf = append(buf, e.PublicKey...)
	buf = varint.WriteInt(buf, int32(len(e.VerifyToken)))
	buf = append(buf, e.VerifyToken...)
	return buf
}

func DecodeEncryptionRequest(body []byte) (*EncryptionRequest, error) {
	r := bytes.NewReader(body)
	sid, err := varint.ReadString(r)
	if err != nil {
		return nil, err
	}
	pk, err := readByteArray(r)
	if err != nil {
		return nil, err
	}
	vt, err := readByteArray(r)
	if err != nil {
		return nil, err
	}
	return &EncryptionRequest{ServerID: sid, PublicKey: pk, VerifyToken: vt}, nil
}

type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
}

func (e EncryptionResponse) Encode() []byte {
	buf := varint.WriteInt(nil, int32(len(e.SharedSecret)))
	buf = append(buf, e.SharedSecret...)
	buf = varint.WriteInt(buf, int32(len(e.VerifyToken)))
	buf = append(buf, e.VerifyToken...)
	return buf
}

func DecodeEncryptionResponse(body []byte) (*EncryptionResponse, error) {
	r := bytes.NewReader(body)
	ss, err := readByteArray(r)
	if err != nil {
		return nil, err
	}
	vt, err := readByteArray(r)
	if err != nil {
		return nil, err
	}
	return &EncryptionResponse{SharedSecret: ss, VerifyToken: vt}, nil
}

func readByteArray(r *bytes.Reader) ([]byte, error) {
	n, err := varint.ReadInt(r)
	if err != nil {
		return nil, err
	}
	if n < 0 || n > r.Len() {
		return nil, errs.New(errs.KindInvalidData, "byte array length out of range")
	}
	buf := make([]byte, n)
	if _, err := r.Read(buf); err != nil {
		return nil, errs.IO(err)
	}
	return buf, nil
}

type Property struct {
	Name      string
	Value     string
	Signature string
	Signed    bool
}

type LoginSuccess struct {
	UUID       uuid.UUID
	Name       string
	Properties []Property
}

func (l LoginSuccess) Encode() []byte {
	buf := varint.WriteUUID(nil, l.UUID)
	buf = varint.WriteString(buf, l.Name)
	buf = varint.WriteInt(buf, int32(len(l.Properties)))
	for _, p := range l.Properties {
		buf = varint.WriteString(buf, p.Name)
		buf = varint.WriteString(buf, p.Value)
		if p.Signed {
			buf = append(buf, 1)
			buf = varint.WriteString(buf, p.Signature)
		} else {
			buf = append(buf, 0)
		}
	}
	return buf
}

func DecodeLoginSuccess(body []byte) (*LoginSuccess, error) {
	r := bytes.NewReader(body)
	id, err := varint.ReadUUID(r)
	if err != nil {
		return nil, err
	}
	name, err := varint.ReadString(r)
	if err != nil {
		return nil, err
	}
	n, err := varint.ReadInt(r)
	if err != nil {
		return nil, err
	}
	props := make([]Property, 0, n)
	for i := int32(0); i < n; i++ {
		pn, err := varint.ReadString(r)
		if err != nil {
			return nil, err
		}
		pv, err := varint.ReadString(r)
		if err != nil {
			return nil, err
		}
		signedByte, err := r.ReadByte()
		if err != nil {
			return nil, errs.IO(err)
		}
		p := Property{Name: pn, Value: pv, Signed: signedByte != 0}
		if p.Signed {
			sig, err := varint.ReadString(r)
			if err != nil {
				return nil, err
			}
			p.Signature = sig
		}
		props = append(props, p)
	}
	return &LoginSuccess{UUID: id, Name: name, Properties: props}, nil
}

type LoginDisconnect struct{ Reason string }

func (d LoginDisconnect) Encode() []byte { return varint.WriteString(nil, d.Reason) }

func DecodeLoginDisconnect(body []byte) (*LoginDisconnect, error) {
	r := bytes.NewReader(body)
	s, err := varint.ReadString(r)
	if err != nil {
		return nil, err
	}
	return &LoginDisconnect{Reason: s}, nil
}

type SetCompression struct{ Threshold int32 }

func (s SetCompression) Encode() []byte { return varint.WriteInt(nil, s.Threshold) }

func DecodeSetCompression(body []byte) (*SetCompression, error) {
	r := bytes.NewReader(body)
	v, err := varint.ReadInt(r)
	if err != nil {
		return nil, err
	}
	return &SetCompression{Threshold: v}, nil
}

// ---- Play (selected subset per spec §6) ----

const (
	PlayKeepAliveCBID = 0x1F
	PlayKeepAliveSBID = 0x11
)

type PlayKeepAlive struct{ ID int64 }

func (k PlayKeepAlive) Encode() []byte { return varint.WriteLong(nil, k.ID) }

func DecodePlayKeepAlive(body []byte) (*PlayKeepAlive, error) {
	r := bytes.NewReader(body)
	v, err := varint.ReadLong(r)
	if err != nil {
		return nil, err
	}
	return &PlayKeepAlive{ID: v}, nil
}

type PlayDisconnect struct{ Reason string }

const PlayDisconnectID = 0x17

func (d PlayDisconnect) Encode() []byte { return varint.WriteString(nil, d.Reason) }

func DecodePlayDisconnect(body []byte) (*PlayDisconnect, error) {
	r := bytes.NewReader(body)
	s, err := varint.ReadString(r)
	if err != nil {
		return nil, err
	}
	return &PlayDisconnect{Reason: s}, nil
}

const PlayConfirmTeleportID = 0x00

type PlayConfirmTeleport struct{ TeleportID int32 }

func (c PlayConfirmTeleport) Encode() []byte { return varint.WriteInt(nil, c.TeleportID) }

func DecodePlayConfirmTeleport(body []byte) (*PlayConfirmTeleport, error) {
	r := bytes.NewReader(body)
	v, err := varint.ReadInt(r)
	if err != nil {
		return nil, err
	}
	return &PlayConfirmTeleport{TeleportID: v}, nil
}
