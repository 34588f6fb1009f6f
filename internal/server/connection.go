// Package server implements the per-connection protocol driver: the
// Handshake -> Status|Login -> Play state machine of spec §4.8/§4.9,
// threading a net.Conn through frame.Reader/Writer and the stage
// dispatch table, the same read-loop shape go-mclib-client/client/client.go
// drives from the client side. Replies are written directly to the socket;
// there is no outgoing queue.
package server

import (
	"context"
	"fmt"
	"log"
	"net"

	"github.com/go-mclib/server/internal/protocol/errs"
	"github.com/go-mclib/server/internal/protocol/frame"
	"github.com/go-mclib/server/internal/protocol/login"
	"github.com/go-mclib/server/internal/protocol/packets"
	"github.com/go-mclib/server/internal/protocol/stage"
)

// ConnectionState mirrors stage.Stage but is exposed at the server
// package boundary per SPEC_FULL.md's data-model package-homes list
// ("internal/server.ConnectionState").
type ConnectionState = stage.Stage

// StatusResponder supplies the JSON body for a Status Response packet;
// the connection driver only knows how to frame it, not to compute it
// (player counts, MOTD, and favicon belong to the caller).
type StatusResponder func() string

// Handler processes one decoded Play-stage packet. The protocol driver
// itself only implements the login/status plumbing and the keep-alive
// packets: SendKeepAlive emits one when called, and serverbound
// keep-alives are consumed without reaching the Handler. The driver does
// not send keep-alives on a schedule and does not disconnect a client
// that stops replying. Everything else is delegated here so this package
// stays ignorant of game logic.
type Handler func(c *Connection, pkt packets.Packet) error

// Connection owns one client socket end to end through every stage.
type Connection struct {
	conn            net.Conn
	reader          *frame.Reader
	writer          *frame.Writer
	state           ConnectionState
	protocolVersion int32

	compressionThreshold int32
	sessionServer        login.SessionServer
	loginSession         *login.Session

	status StatusResponder
	onPlay Handler
	logger *log.Logger

	remoteName string
}

// NewConnection wraps an accepted socket. compressionThreshold < 0
// disables compression negotiation (spec §4.9's "Compression may be
// negotiated" is optional).
func NewConnection(conn net.Conn, sessionServer login.SessionServer, compressionThreshold int32, status StatusResponder, onPlay Handler, logger *log.Logger) *Connection {
	return &Connection{
		conn:                 conn,
		reader:               frame.NewReader(conn),
		writer:               frame.NewWriter(conn),
		state:                stage.Handshake,
		compressionThreshold: compressionThreshold,
		sessionServer:        sessionServer,
		status:               status,
		onPlay:               onPlay,
		logger:               logger,
	}
}

// Serve drains frames until the connection closes or a fatal protocol
// error occurs, implementing spec §4.8's stage transitions inline.
func (c *Connection) Serve(ctx context.Context) error {
	defer c.conn.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		id, body, err := c.reader.ReadFrame()
		if err != nil {
			return err
		}

		pkt, err := stage.Decode(c.state, stage.Serverbound, c.protocolVersion, id, body)
		if err != nil {
			c.logger.Printf("connection %s: decode error in stage %s: %v", c.conn.RemoteAddr(), c.state, err)
			return err
		}

		if err := c.dispatch(ctx, pkt); err != nil {
			return err
		}
	}
}

func (c *Connection) dispatch(ctx context.Context, pkt packets.Packet) error {
	switch c.state {
	case stage.Handshake:
		return c.handleHandshake(pkt)
	case stage.Status:
		return c.handleStatus(pkt)
	case stage.Login:
		return c.handleLogin(ctx, pkt)
	case stage.Play:
		return c.handlePlay(pkt)
	default:
		return errs.New(errs.KindInvalidData, "unreachable connection state")
	}
}

func (c *Connection) handleHandshake(pkt packets.Packet) error {
	h, ok := pkt.(*packets.HandShake)
	if !ok {
		return errs.New(errs.KindInvalidData, "expected Handshake packet")
	}
	c.protocolVersion = h.ProtocolVersion
	switch h.NextState {
	case packets.NextStateStatus:
		c.state = stage.Status
	case packets.NextStateLogin:
		c.state = stage.Login
	default:
		return errs.New(errs.KindInvalidData, "handshake next_state out of range")
	}
	return nil
}

func (c *Connection) handleStatus(pkt packets.Packet) error {
	switch p := pkt.(type) {
	case *packets.StatusRequest:
		body := ""
		if c.status != nil {
			body = c.status()
		}
		return c.writer.WriteFrame(packets.StatusResponseID, (packets.StatusResponse{JSON: body}).Encode())
	case *packets.StatusPing:
		return c.writer.WriteFrame(packets.StatusPongID, (packets.StatusPong{Payload: p.Payload}).Encode())
	default:
		return errs.New(errs.KindInvalidData, "unexpected packet in Status stage")
	}
}

func (c *Connection) handleLogin(ctx context.Context, pkt packets.Packet) error {
	switch p := pkt.(type) {
	case *packets.LoginStart:
		sess, err := login.NewSession(c.sessionServer)
		if err != nil {
			return c.disconnectLogin(err)
		}
		c.loginSession = sess
		serverID, pubDER, nonce, err := sess.BeginEncryption(p.Name, p.UUID)
		if err != nil {
			return c.disconnectLogin(err)
		}
		c.remoteName = p.Name
		req := packets.EncryptionRequest{ServerID: serverID, PublicKey: pubDER, VerifyToken: nonce}
		return c.writer.WriteFrame(packets.LoginEncryptionRequestID, req.Encode())

	case *packets.EncryptionResponse:
		if c.loginSession == nil {
			return c.disconnectLogin(errs.New(errs.KindEncryption, "encryption response before login start"))
		}
		if err := c.loginSession.CompleteEncryption(ctx, p.SharedSecret, p.VerifyToken); err != nil {
			return c.disconnectLogin(err)
		}
		c.reader.SetDecryptor(c.loginSession.Decryptor)
		c.writer.SetEncryptor(c.loginSession.Encryptor)

		if c.compressionThreshold >= 0 {
			if err := c.writer.WriteFrame(packets.LoginSetCompressionID, (packets.SetCompression{Threshold: c.compressionThreshold}).Encode()); err != nil {
				return err
			}
			compression := frame.Compression{Threshold: c.compressionThreshold}
			c.reader.SetCompression(compression)
			c.writer.SetCompression(compression)
		}

		profile := c.loginSession.Profile
		success := packets.LoginSuccess{UUID: profile.ID, Name: profile.Name}
		for _, pr := range profile.Properties {
			success.Properties = append(success.Properties, packets.Property{Name: pr.Name, Value: pr.Value, Signature: pr.Signature, Signed: pr.Signature != ""})
		}
		if err := c.writer.WriteFrame(packets.LoginSuccessID, success.Encode()); err != nil {
			return err
		}
		if err := c.loginSession.CompletePlay(); err != nil {
			return err
		}
		c.state = stage.Play
		return nil

	default:
		return errs.New(errs.KindInvalidData, "unexpected packet in Login stage")
	}
}

func (c *Connection) disconnectLogin(cause error) error {
	reason := fmt.Sprintf(`{"text":%q}`, cause.Error())
	_ = c.writer.WriteFrame(packets.LoginDisconnectID, (packets.LoginDisconnect{Reason: reason}).Encode())
	return cause
}

func (c *Connection) handlePlay(pkt packets.Packet) error {
	if ka, ok := pkt.(*packets.PlayKeepAlive); ok {
		_ = ka
		return nil
	}
	if c.onPlay != nil {
		return c.onPlay(c, pkt)
	}
	return nil
}

// SendKeepAlive emits a Play keep-alive with the given nonce, per spec
// §5's liveness requirement.
func (c *Connection) SendKeepAlive(nonce int64) error {
	return c.writer.WriteFrame(packets.PlayKeepAliveCBID, (packets.PlayKeepAlive{ID: nonce}).Encode())
}

// SendDisconnect emits a Play disconnect with a human-readable reason
// and closes the socket, per spec §7's user-visible behavior.
func (c *Connection) SendDisconnect(reason string) error {
	body := fmt.Sprintf(`{"text":%q}`, reason)
	err := c.writer.WriteFrame(packets.PlayDisconnectID, (packets.PlayDisconnect{Reason: body}).Encode())
	c.conn.Close()
	return err
}

// WritePacket frames and sends an arbitrary packet, for handlers outside
// this package (Play-stage game logic) that need to reply.
func (c *Connection) WritePacket(id int32, pkt packets.Packet) error {
	return c.writer.WriteFrame(id, pkt.Encode())
}

func (c *Connection) RemoteAddr() net.Addr  { return c.conn.RemoteAddr() }
func (c *Connection) State() ConnectionState { return c.state }
func (c *Connection) RemoteName() string     { return c.remoteName }
