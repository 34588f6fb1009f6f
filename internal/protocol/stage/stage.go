// Package stage implements the static (stage, direction, protocol_version)
// dispatch tables of spec §4.8: a lookup from packet ID to decoder, and
// from packet variant to its numeric ID for encoding.
package stage

import (
	"golang.org/x/mod/semver"

	"github.com/go-mclib/server/internal/protocol/errs"
	"github.com/go-mclib/server/internal/protocol/packets"
)

type Stage int

const (
	Handshake Stage = iota
	Status
	Login
	Play
)

func (s Stage) String() string {
	switch s {
	case Handshake:
		return "Handshake"
	case Status:
		return "Status"
	case Login:
		return "Login"
	case Play:
		return "Play"
	default:
		return "Unknown"
	}
}

type Direction int

const (
	Serverbound Direction = iota
	Clientbound
)

// Decoder decodes a packet body into a packets.Packet.
type Decoder func(body []byte) (packets.Packet, error)

type tableKey struct {
	stage     Stage
	direction Direction
	id        int32
}

// minProtocolVersion marks dispatch table entries gated to the semver-ish
// protocol tag that protocolTag renders ("v0.0.761" and later); a table without an entry here applies to
// every protocol version this dispatcher knows about.
var minProtocolVersion = map[tableKey]string{}

var decoders = map[tableKey]Decoder{
	{Handshake, Serverbound, packets.HandShakeID}: func(b []byte) (packets.Packet, error) { return packets.DecodeHandShake(b) },

	{Status, Serverbound, packets.StatusRequestID}: func(b []byte) (packets.Packet, error) { return packets.DecodeStatusRequest(b) },
	{Status, Serverbound, packets.StatusPingID}:    func(b []byte) (packets.Packet, error) { return packets.DecodeStatusPing(b) },
	{Status, Clientbound, packets.StatusResponseID}: func(b []byte) (packets.Packet, error) { return packets.DecodeStatusResponse(b) },
	{Status, Clientbound, packets.StatusPongID}:    func(b []byte) (packets.Packet, error) { return packets.DecodeStatusPong(b) },

	{Login, Serverbound, packets.LoginStartID}:              func(b []byte) (packets.Packet, error) { return packets.DecodeLoginStart(b) },
	{Login, Serverbound, packets.LoginEncryptionResponseID}: func(b []byte) (packets.Packet, error) { return packets.DecodeEncryptionResponse(b) },
	{Login, Serverbound, packets.LoginPluginResponseID}:     func(b []byte) (packets.Packet, error) { return packets.DecodePluginResponse(b) },
	{Login, Clientbound, packets.LoginDisconnectID}:         func(b []byte) (packets.Packet, error) { return packets.DecodeLoginDisconnect(b) },
	{Login, Clientbound, packets.LoginEncryptionRequestID}:  func(b []byte) (packets.Packet, error) { return packets.DecodeEncryptionRequest(b) },
	{Login, Clientbound, packets.LoginSuccessID}:            func(b []byte) (packets.Packet, error) { return packets.DecodeLoginSuccess(b) },
	{Login, Clientbound, packets.LoginSetCompressionID}:     func(b []byte) (packets.Packet, error) { return packets.DecodeSetCompression(b) },
	{Login, Clientbound, packets.LoginPluginRequestID}:      func(b []byte) (packets.Packet, error) { return packets.DecodePluginRequest(b) },

	{Play, Serverbound, packets.PlayConfirmTeleportID}: func(b []byte) (packets.Packet, error) { return packets.DecodePlayConfirmTeleport(b) },
	{Play, Serverbound, packets.PlayKeepAliveSBID}:     func(b []byte) (packets.Packet, error) { return packets.DecodePlayKeepAlive(b) },
	{Play, Clientbound, packets.PlayKeepAliveCBID}:     func(b []byte) (packets.Packet, error) { return packets.DecodePlayKeepAlive(b) },
	{Play, Clientbound, packets.PlayDisconnectID}:      func(b []byte) (packets.Packet, error) { return packets.DecodePlayDisconnect(b) },
}

// Decode looks up the decoder for (stage, direction, id) gated by
// protocolVersion (a bare protocol-number integer, e.g. 761) and decodes
// body. Unknown IDs yield errs.KindUnknownPacketID (spec §4.8).
func Decode(st Stage, dir Direction, protocolVersion int32, id int32, body []byte) (packets.Packet, error) {
	key := tableKey{st, dir, id}
	dec, ok := decoders[key]
	if !ok {
		return nil, errs.New(errs.KindUnknownPacketID, st.String())
	}
	if min, gated := minProtocolVersion[key]; gated {
		if semver.Compare(protocolTag(protocolVersion), min) < 0 {
			return nil, errs.New(errs.KindUnknownPacketID, st.String())
		}
	}
	return dec(body)
}

// protocolTag renders a bare protocol number as a semver-comparable tag so
// gated table entries (see minProtocolVersion) can be compared with
// golang.org/x/mod/semver rather than hand-rolled integer comparisons.
func protocolTag(protocolVersion int32) string {
	return "v0.0." + itoa(protocolVersion)
}

func itoa(v int32) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [12]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
