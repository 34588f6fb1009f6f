// Package frame implements the framed packet reader and writer from
// spec §4.6/§4.7: VarInt length-prefixing, optional zlib compression,
// and optional AES-128-CFB8 encryption layered underneath framing.
package frame

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"io"

	"github.com/go-mclib/server/internal/protocol/crypto"
	"github.com/go-mclib/server/internal/protocol/errs"
	"github.com/go-mclib/server/internal/protocol/varint"
)

// Compression holds the negotiated compression threshold. A threshold
// of -1 means compression is disabled.
type Compression struct {
	Threshold int32
}

func (c Compression) Enabled() bool { return c.Threshold >= 0 }

// Reader pulls framed, optionally-compressed, optionally-encrypted
// packet bodies off an underlying byte stream.
//
// Decryption is applied only to newly arrived bytes (spec §4.6): since
// this Reader pulls directly from a bufio.Reader rather than owning its
// own growable buffer, "new bytes" are exactly the bytes of the next
// io.ReadFull call, so no last-decrypted-offset bookkeeping is needed —
// each read is decrypted exactly once, in place, as it arrives.
type Reader struct {
	r           *bufio.Reader
	decryptor   *crypto.Stream
	compression Compression
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r), compression: Compression{Threshold: -1}}
}

// SetDecryptor enables decryption for all subsequently read bytes.
func (f *Reader) SetDecryptor(s *crypto.Stream) { f.decryptor = s }

// SetCompression enables/disables compressed framing.
func (f *Reader) SetCompression(c Compression) { f.compression = c }

// readByte and readFull route every raw read through the decryptor (if
// any), satisfying "decryption ... applied in-place to newly arrived
// bytes only" without needing a separate buffer-offset cursor.
func (f *Reader) readByte() (byte, error) {
	b, err := f.r.ReadByte()
	if err != nil {
		return 0, err
	}
	if f.decryptor != nil {
		var out [1]byte
		f.decryptor.XORKeyStream(out[:], []byte{b})
		b = out[0]
	}
	return b, nil
}

func (f *Reader) readFull(buf []byte) error {
	if _, err := io.ReadFull(f.r, buf); err != nil {
		return err
	}
	if f.decryptor != nil {
		f.decryptor.XORKeyStream(buf, buf)
	}
	return nil
}

// byteReader adapts Reader.readByte to io.ByteReader for varint.ReadInt.
type byteReader struct{ f *Reader }

func (b byteReader) ReadByte() (byte, error) { return b.f.readByte() }

// ReadFrame reads one full frame and returns the packet ID and its
// decoded (decompressed) body, per the §4.6 algorithm.
func (f *Reader) ReadFrame() (id int32, body []byte, err error) {
	length, err := varint.ReadInt(byteReader{f})
	if err != nil {
		return 0, nil, err
	}
	if length < 0 {
		return 0, nil, errs.New(errs.KindInvalidData, "negative frame length")
	}

	framed := make([]byte, length)
	if err := f.readFull(framed); err != nil {
		return 0, nil, err
	}

	payload := framed
	if f.compression.Enabled() {
		r := bytes.NewReader(framed)
		uncompressedSize, err := varint.ReadInt(byteReaderOver{r})
		if err != nil {
			return 0, nil, err
		}
		rest := framed[len(framed)-r.Len():]
		if uncompressedSize == 0 {
			payload = rest
		} else {
			zr, err := zlib.NewReader(bytes.NewReader(rest))
			if err != nil {
				return 0, nil, errs.Wrap(errs.KindInvalidData, "zlib", err)
			}
			defer zr.Close()
			out := make([]byte, uncompressedSize)
			if _, err := io.ReadFull(zr, out); err != nil {
				return 0, nil, errs.Wrap(errs.KindInvalidData, "zlib truncated", err)
			}
			payload = out
		}
	}

	pr := bytes.NewReader(payload)
	pktID, err := varint.ReadInt(byteReaderOver{pr})
	if err != nil {
		return 0, nil, err
	}
	body = payload[len(payload)-pr.Len():]
	return pktID, body, nil
}

type byteReaderOver struct{ r *bytes.Reader }

func (b byteReaderOver) ReadByte() (byte, error) { return b.r.ReadByte() }

// Writer assembles a typed packet (ID + body) into a framed, optionally
// compressed, optionally encrypted buffer and emits it, per §4.7.
type Writer struct {
	w           io.Writer
	encryptor   *crypto.Stream
	compression Compression
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, compression: Compression{Threshold: -1}}
}

func (f *Writer) SetEncryptor(s *crypto.Stream) { f.encryptor = s }
func (f *Writer) SetCompression(c Compression)  { f.compression = c }

// WriteFrame frames id+body per the algorithm in §4.7 and emits it.
func (f *Writer) WriteFrame(id int32, body []byte) error {
	idBody := varint.WriteInt(nil, id)
	idBody = append(idBody, body...)

	var framed []byte
	if f.compression.Enabled() {
		if int32(len(idBody)) >= f.compression.Threshold {
			var zbuf bytes.Buffer
			zw := zlib.NewWriter(&zbuf)
			if _, err := zw.Write(idBody); err != nil {
				return errs.IO(err)
			}
			if err := zw.Close(); err != nil {
				return errs.IO(err)
			}
			uncompressedLen := varint.WriteInt(nil, int32(len(idBody)))
			inner := append(append([]byte(nil), uncompressedLen...), zbuf.Bytes()...)
			framed = varint.WriteInt(nil, int32(len(inner)))
			framed = append(framed, inner...)
		} else {
			inner := append(varint.WriteInt(nil, 0), idBody...)
			framed = varint.WriteInt(nil, int32(len(inner)))
			framed = append(framed, inner...)
		}
	} else {
		framed = varint.WriteInt(nil, int32(len(idBody)))
		framed = append(framed, idBody...)
	}

	if f.encryptor != nil {
		out := make([]byte, len(framed))
		f.encryptor.XORKeyStream(out, framed)
		framed = out
	}

	_, err := f.w.Write(framed)
	return err
}
