package packets

import (
	"bytes"
	"testing"
)

func TestPluginRequestRoundTrip(t *testing.T) {
	p := PluginRequest{MessageID: 5, Channel: "minecraft:brand", Data: []byte{1, 2, 3, 4}}
	got, err := DecodePluginRequest(p.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.MessageID != p.MessageID || got.Channel != p.Channel || !bytes.Equal(got.Data, p.Data) {
		t.Fatalf("round trip: got %+v, want %+v", got, p)
	}
}

func TestPluginRequestRoundTripWithEmptyData(t *testing.T) {
	p := PluginRequest{MessageID: 1, Channel: "minecraft:register"}
	got, err := DecodePluginRequest(p.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.MessageID != p.MessageID || got.Channel != p.Channel || len(got.Data) != 0 {
		t.Fatalf("round trip: got %+v, want %+v", got, p)
	}
}

func TestPluginResponseRoundTripSuccessful(t *testing.T) {
	p := PluginResponse{MessageID: 5, Successful: true, Data: []byte{9, 8, 7}}
	got, err := DecodePluginResponse(p.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.MessageID != p.MessageID || got.Successful != p.Successful || !bytes.Equal(got.Data, p.Data) {
		t.Fatalf("round trip: got %+v, want %+v", got, p)
	}
}

func TestPluginResponseRoundTripUnsuccessfulHasNoData(t *testing.T) {
	p := PluginResponse{MessageID: 5, Successful: false}
	got, err := DecodePluginResponse(p.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Successful || len(got.Data) != 0 {
		t.Fatalf("round trip: got %+v, want unsuccessful with no data", got)
	}
}
