// Package login implements the server-side login state machine of spec
// §4.9: Pending -> EncryptionRequested -> Completed -> Play, including
// the RSA key exchange, the Notchian signed-hex server hash, and Mojang
// session-server validation.
package login

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/go-mclib/server/internal/protocol/crypto"
	"github.com/go-mclib/server/internal/protocol/errs"
)

type State int

const (
	StatePending State = iota
	StateEncryptionRequested
	StateCompleted
	StatePlay
)

// Profile is the parsed result of a Mojang session-server hasJoined check.
type Profile struct {
	ID         uuid.UUID
	Name       string
	Properties []ProfileProperty
}

type ProfileProperty struct {
	Name      string
	Value     string
	Signature string
}

// SessionServer abstracts the Mojang HTTPS validation call (spec §4.9,
// §5's "outbound HTTPS call" suspension point) so it can be stubbed in
// tests, per the end-to-end "Login without encryption" scenario.
type SessionServer interface {
	HasJoined(ctx context.Context, name, serverIDHash string) (*Profile, error)
}

// HTTPSessionServer calls the real Mojang session server.
type HTTPSessionServer struct {
	Client *http.Client
}

func NewHTTPSessionServer() *HTTPSessionServer {
	return &HTTPSessionServer{Client: &http.Client{Timeout: 10 * time.Second}}
}

type hasJoinedResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Properties []struct {
		Name      string `json:"name"`
		Value     string `json:"value"`
		Signature string `json:"signature"`
	} `json:"properties"`
}

func (h *HTTPSessionServer) HasJoined(ctx context.Context, name, serverIDHash string) (*Profile, error) {
	url := fmt.Sprintf("https://sessionserver.mojang.com/session/minecraft/hasJoined?username=%s&serverId=%s", name, serverIDHash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "session server request", err)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "session server call", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent {
		return nil, errs.New(errs.KindEncryption, "session server: not joined")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.New(errs.KindEncryption, fmt.Sprintf("session server: status %d", resp.StatusCode))
	}
	var body hasJoinedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errs.Wrap(errs.KindInvalidData, "session server body", err)
	}
	id, err := uuid.Parse(insertHyphens(body.ID))
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidData, "session server uuid", err)
	}
	profile := &Profile{ID: id, Name: body.Name}
	for _, p := range body.Properties {
		profile.Properties = append(profile.Properties, ProfileProperty{Name: p.Name, Value: p.Value, Signature: p.Signature})
	}
	return profile, nil
}

// insertHyphens turns Mojang's bare 32-hex-digit UUIDs into the standard
// 8-4-4-4-12 hyphenated form google/uuid expects.
func insertHyphens(id string) string {
	if len(id) != 32 {
		return id
	}
	return id[0:8] + "-" + id[8:12] + "-" + id[12:16] + "-" + id[16:20] + "-" + id[20:32]
}

// Session drives one connection's login handshake.
type Session struct {
	state  State
	name   string
	uuid   uuid.UUID
	nonce  []byte
	priv   *rsa.PrivateKey
	pubDER []byte
	server SessionServer

	Encryptor *crypto.Stream
	Decryptor *crypto.Stream
	Profile   *Profile
}

// NewSession generates a fresh RSA-1024 keypair (the historic Minecraft
// key size) for the encryption request, matching go-mclib-client's own
// PEM-round-tripped RSA keys in client.go, here generated rather than
// loaded since the server is the key's origin.
func NewSession(server SessionServer) (*Session, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		return nil, errs.Wrap(errs.KindEncryption, "generate server keypair", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, errs.Wrap(errs.KindEncryption, "marshal public key", err)
	}
	return &Session{state: StatePending, priv: priv, pubDER: der, server: server}, nil
}

func (s *Session) State() State { return s.state }

// BeginEncryption handles ServerBoundLoginStart: generate a nonce and
// return the fields for a ClientBoundEncryptionRequest.
func (s *Session) BeginEncryption(name string, playerUUID uuid.UUID) (serverID string, publicKeyDER, verifyToken []byte, err error) {
	if s.state != StatePending {
		return "", nil, nil, errs.New(errs.KindEncryption, "login start out of order")
	}
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", nil, nil, errs.Wrap(errs.KindEncryption, "generate nonce", err)
	}
	s.name = name
	s.uuid = playerUUID
	s.nonce = nonce
	s.state = StateEncryptionRequested
	return "", s.pubDER, nonce, nil
}

// CompleteEncryption handles ServerBoundEncryptionResponse: RSA-decrypts
// both fields, checks the verify token, derives the shared-secret
// ciphers, computes the Notchian signed-hex server hash, and validates
// the session against the Mojang session server.
func (s *Session) CompleteEncryption(ctx context.Context, encSharedSecret, encVerifyToken []byte) error {
	if s.state != StateEncryptionRequested {
		return errs.New(errs.KindEncryption, "encryption response out of order")
	}

	sharedSecret, err := rsa.DecryptPKCS1v15(rand.Reader, s.priv, encSharedSecret)
	if err != nil {
		return errs.Wrap(errs.KindEncryption, "rsa decrypt shared secret", err)
	}
	verifyToken, err := rsa.DecryptPKCS1v15(rand.Reader, s.priv, encVerifyToken)
	if err != nil {
		return errs.Wrap(errs.KindEncryption, "rsa decrypt verify token", err)
	}
	if !bytes.Equal(verifyToken, s.nonce) {
		return errs.New(errs.KindEncryption, "verify token mismatch")
	}

	enc, err := crypto.NewEncryptStream(sharedSecret)
	if err != nil {
		return errs.Wrap(errs.KindEncryption, "build encrypt stream", err)
	}
	dec, err := crypto.NewDecryptStream(sharedSecret)
	if err != nil {
		return errs.Wrap(errs.KindEncryption, "build decrypt stream", err)
	}
	s.Encryptor = enc
	s.Decryptor = dec

	hash := ServerHash(sharedSecret, s.pubDER)
	profile, err := s.server.HasJoined(ctx, s.name, hash)
	if err != nil {
		return err
	}
	s.Profile = profile
	s.state = StateCompleted
	return nil
}

// CompletePlay transitions Completed -> Play after LoginSuccess is sent.
func (s *Session) CompletePlay() error {
	if s.state != StateCompleted {
		return errs.New(errs.KindEncryption, "login success out of order")
	}
	s.state = StatePlay
	return nil
}

// ServerHash computes the Notchian "server ID hash": SHA-1 of
// ("" ‖ shared_secret ‖ public_key_DER) rendered as a signed hex
// BigInteger (Java's BigInteger.toString(16) semantics — a leading '-'
// for a negative two's-complement interpretation of the digest, no
// leading zeros).
func ServerHash(sharedSecret, publicKeyDER []byte) string {
	h := sha1.New()
	h.Write([]byte(""))
	h.Write(sharedSecret)
	h.Write(publicKeyDER)
	digest := h.Sum(nil)
	return bigIntSignedHex(digest)
}

func bigIntSignedHex(digest []byte) string {
	n := new(big.Int).SetBytes(digest)
	// SHA-1 digests are treated as Java's two's-complement BigInteger:
	// if the MSB is set, the value is negative.
	if len(digest) > 0 && digest[0]&0x80 != 0 {
		// two's complement negate: n - 2^(8*len)
		max := new(big.Int).Lsh(big.NewInt(1), uint(len(digest)*8))
		n.Sub(n, max)
		n.Neg(n)
		return "-" + n.Text(16)
	}
	return n.Text(16)
}
