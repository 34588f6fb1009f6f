package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"io"
	"log"
	"net"
	"testing"
	"time"

	"github.com/go-mclib/server/internal/protocol/crypto"
	"github.com/go-mclib/server/internal/protocol/frame"
	"github.com/go-mclib/server/internal/protocol/login"
	"github.com/go-mclib/server/internal/protocol/packets"
	"github.com/go-mclib/server/internal/protocol/stage"
)

func x509ParseRSAPublicKey(der []byte) (*rsa.PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, err
	}
	rk, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key")
	}
	return rk, nil
}

func deriveDecryptStream(sharedSecret []byte) (*crypto.Stream, error) {
	return crypto.NewDecryptStream(sharedSecret)
}

type stubSessionServer struct{ profile *login.Profile }

func (s *stubSessionServer) HasJoined(ctx context.Context, name, hash string) (*login.Profile, error) {
	return s.profile, nil
}

func pipeConnections(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	return a, b
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// TestStatusHandshakeEndToEnd drives the *Status handshake* end-to-end
// scenario from spec §8: Handshake{next_state=Status}, Status Request,
// assert a Response, Ping, assert echoed Pong.
func TestStatusHandshakeEndToEnd(t *testing.T) {
	server, client := pipeConnections(t)
	defer server.Close()
	defer client.Close()

	conn := NewConnection(server, nil, -1, func() string { return `{"version":{"name":"1.20.1"},"players":{"max":20}}` }, nil, discardLogger())
	done := make(chan error, 1)
	go func() { done <- conn.Serve(context.Background()) }()

	w := frame.NewWriter(client)
	r := frame.NewReader(client)

	hs := packets.HandShake{ProtocolVersion: 760, ServerAddress: "x", ServerPort: 25565, NextState: packets.NextStateStatus}
	if err := w.WriteFrame(packets.HandShakeID, hs.Encode()); err != nil {
		t.Fatalf("write handshake: %v", err)
	}
	if err := w.WriteFrame(packets.StatusRequestID, (packets.StatusRequest{}).Encode()); err != nil {
		t.Fatalf("write status request: %v", err)
	}

	id, body, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("read status response: %v", err)
	}
	if id != packets.StatusResponseID {
		t.Fatalf("id = %d, want StatusResponseID", id)
	}
	resp, err := packets.DecodeStatusResponse(body)
	if err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	if resp.JSON == "" {
		t.Fatal("expected non-empty status JSON")
	}

	if err := w.WriteFrame(packets.StatusPingID, (packets.StatusPing{Payload: 0x1122334455667788}).Encode()); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	id, body, err = r.ReadFrame()
	if err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if id != packets.StatusPongID {
		t.Fatalf("id = %d, want StatusPongID", id)
	}
	pong, err := packets.DecodeStatusPong(body)
	if err != nil || pong.Payload != 0x1122334455667788 {
		t.Fatalf("pong = %+v, err %v", pong, err)
	}

	client.Close()
	server.Close()
	<-done
}

// TestLoginWithoutEncryptionStubEndToEnd drives the *Login without
// encryption* scenario from spec §8, using a stub RSA key and a stub
// session server in place of the real Mojang HTTPS call.
func TestLoginWithoutEncryptionStubEndToEnd(t *testing.T) {
	server, client := pipeConnections(t)
	defer server.Close()
	defer client.Close()

	wantProfile := &login.Profile{Name: "Alice"}
	conn := NewConnection(server, &stubSessionServer{profile: wantProfile}, -1, nil, nil, discardLogger())

	serveErr := make(chan error, 1)
	go func() { serveErr <- conn.Serve(context.Background()) }()

	w := frame.NewWriter(client)
	r := frame.NewReader(client)

	hs := packets.HandShake{ProtocolVersion: 761, ServerAddress: "x", ServerPort: 25565, NextState: packets.NextStateLogin}
	if err := w.WriteFrame(packets.HandShakeID, hs.Encode()); err != nil {
		t.Fatalf("write handshake: %v", err)
	}
	if err := w.WriteFrame(packets.LoginStartID, (packets.LoginStart{Name: "Alice"}).Encode()); err != nil {
		t.Fatalf("write login start: %v", err)
	}

	id, body, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("read encryption request: %v", err)
	}
	if id != packets.LoginEncryptionRequestID {
		t.Fatalf("id = %d, want LoginEncryptionRequestID", id)
	}
	encReq, err := packets.DecodeEncryptionRequest(body)
	if err != nil {
		t.Fatalf("decode encryption request: %v", err)
	}

	pub, err := x509ParseRSAPublicKey(encReq.PublicKey)
	if err != nil {
		t.Fatalf("parse server public key: %v", err)
	}

	sharedSecret := make([]byte, 16)
	rand.Read(sharedSecret)
	encSecret, err := rsa.EncryptPKCS1v15(rand.Reader, pub, sharedSecret)
	if err != nil {
		t.Fatalf("encrypt shared secret: %v", err)
	}
	encToken, err := rsa.EncryptPKCS1v15(rand.Reader, pub, encReq.VerifyToken)
	if err != nil {
		t.Fatalf("encrypt verify token: %v", err)
	}

	resp := packets.EncryptionResponse{SharedSecret: encSecret, VerifyToken: encToken}
	if err := w.WriteFrame(packets.LoginEncryptionResponseID, resp.Encode()); err != nil {
		t.Fatalf("write encryption response: %v", err)
	}

	// The server now switches this writer's stream to encrypted; set up
	// a matching decrypt stream on the test client side.
	decStream, err := deriveDecryptStream(sharedSecret)
	if err != nil {
		t.Fatalf("derive decrypt stream: %v", err)
	}
	r.SetDecryptor(decStream)

	id, body, err = r.ReadFrame()
	if err != nil {
		t.Fatalf("read login success: %v", err)
	}
	if id != packets.LoginSuccessID {
		t.Fatalf("id = %d, want LoginSuccessID", id)
	}
	success, err := packets.DecodeLoginSuccess(body)
	if err != nil {
		t.Fatalf("decode login success: %v", err)
	}
	if success.Name != "Alice" {
		t.Fatalf("success.Name = %q, want Alice", success.Name)
	}
	if conn.State() != stage.Play {
		t.Fatalf("connection state = %v, want Play", conn.State())
	}

	client.Close()
	server.Close()
	select {
	case <-serveErr:
	case <-time.After(2 * time.Second):
		t.Fatal("server goroutine did not exit after socket close")
	}
}
