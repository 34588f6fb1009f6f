package region

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenWriteSaveReopenReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName(0, 0))

	r, existed, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if existed {
		t.Fatal("fresh region must report existed=false")
	}

	payload := []byte("chunk (0,0) nbt bytes with a known block at (1,2,3)")
	if err := r.WriteChunk(0, 0, RawChunk{Data: payload, Compression: CompressionZlib}); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}
	if err := r.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r2, existed2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !existed2 {
		t.Fatal("reopened region must report existed=true")
	}
	defer r2.Close()

	got, ok, err := r2.ReadChunk(0, 0)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if !ok {
		t.Fatal("expected chunk (0,0) to be present")
	}
	if string(got.Data) != string(payload) {
		t.Fatalf("round-trip payload mismatch: got %q want %q", got.Data, payload)
	}
}

func TestReadChunkMissingSlot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName(0, 0))
	r, _, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	_, ok, err := r.ReadChunk(5, 5)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if ok {
		t.Fatal("unallocated slot must report ok=false")
	}
}

func TestWriteChunkReusesSectorsWhenItFits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName(0, 0))
	r, _, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	small := []byte("small payload")
	if err := r.WriteChunk(2, 2, RawChunk{Data: small, Compression: CompressionUncompressed}); err != nil {
		t.Fatalf("WriteChunk small: %v", err)
	}
	firstLoc := r.header.locations[slotIndex(2, 2)]

	// A same-size-or-smaller rewrite must reuse the same offset.
	smaller := []byte("tiny")
	if err := r.WriteChunk(2, 2, RawChunk{Data: smaller, Compression: CompressionUncompressed}); err != nil {
		t.Fatalf("WriteChunk smaller: %v", err)
	}
	secondLoc := r.header.locations[slotIndex(2, 2)]
	if secondLoc.offset != firstLoc.offset {
		t.Errorf("offset changed on a same-size-or-smaller rewrite: %d -> %d", firstLoc.offset, secondLoc.offset)
	}
}

func TestReadChunkRejectsLengthPastEndOfFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName(0, 0))
	r, _, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Hand-corrupt a location entry to point at an absurd length.
	r.header.locations[0] = location{offset: headerSectors, count: 1}
	if err := r.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		t.Fatalf("reopen raw: %v", err)
	}
	var lenBuf [4]byte
	putBeUint32(lenBuf[:], 1<<20)
	if _, err := f.WriteAt(lenBuf[:], headerSectors*sectorSize); err != nil {
		t.Fatalf("write corrupt length: %v", err)
	}
	f.Close()
	r.Close()

	r2, _, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r2.Close()

	if _, _, err := r2.ReadChunk(0, 0); err == nil {
		t.Fatal("expected an error for a length exceeding the allocated sectors")
	}
}
