package packets

import (
	"bytes"

	"github.com/go-mclib/server/internal/protocol/errs"
	"github.com/go-mclib/server/internal/protocol/varint"
)

// ---- Login: plugin channel negotiation (spec §6's Login SB 0x02 /
// CB 0x04) ----

// PluginRequest is a Login-stage clientbound query on an arbitrary
// plugin channel; Data is the remainder of the packet body verbatim
// (no length prefix — the frame itself already delimits the packet).
type PluginRequest struct {
	MessageID int32
	Channel   string
	Data      []byte
}

func (p PluginRequest) Encode() []byte {
	buf := varint.WriteInt(nil, p.MessageID)
	buf = varint.WriteString(buf, p.Channel)
	return append(buf, p.Data...)
}

func DecodePluginRequest(body []byte) (*PluginRequest, error) {
	r := bytes.NewReader(body)
	id, err := varint.ReadInt(r)
	if err != nil {
		return nil, err
	}
	channel, err := varint.ReadString(r)
	if err != nil {
		return nil, err
	}
	return &PluginRequest{MessageID: id, Channel: channel, Data: readRest(r)}, nil
}

// PluginResponse is the serverbound reply to a PluginRequest. Data is
// only present (and only meaningful) when Successful is true, per
// spec §6; an unrecognized channel responds with Successful: false and
// no Data.
type PluginResponse struct {
	MessageID  int32
	Successful bool
	Data       []byte
}

func (p PluginResponse) Encode() []byte {
	buf := varint.WriteInt(nil, p.MessageID)
	if p.Successful {
		buf = append(buf, 1)
		buf = append(buf, p.Data...)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

func DecodePluginResponse(body []byte) (*PluginResponse, error) {
	r := bytes.NewReader(body)
	id, err := varint.ReadInt(r)
	if err != nil {
		return nil, err
	}
	successfulByte, err := r.ReadByte()
	if err != nil {
		return nil, errs.IO(err)
	}
	resp := &PluginResponse{MessageID: id, Successful: successfulByte != 0}
	if resp.Successful {
		resp.Data = readRest(r)
	}
	return resp, nil
}

// readRest returns whatever remains of r, the shape Data fields in
// plugin-channel packets take (the channel payload has no length
// prefix of its own).
func readRest(r *bytes.Reader) []byte {
	if r.Len() == 0 {
		return nil
	}
	buf := make([]byte, r.Len())
	_, _ = r.Read(buf)
	return buf
}
