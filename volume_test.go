package goldfs_test

import (
	"errors"
	"path/filepath"
	"testing"

	goldfs "github.com/vladglv/OS-goldfs"
)

func formatTiny(t *testing.T, opts ...goldfs.Option) (string, *goldfs.Volume) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "volume.img")
	all := append([]goldfs.Option{
		goldfs.WithBlockSize(64),
		goldfs.WithBlockCount(64),
		goldfs.WithMaxFiles(8),
		goldfs.WithMaxOpenFiles(4),
	}, opts...)
	v, err := goldfs.Format(path, all...)
	if err != nil {
		t.Fatalf("Format: %s", err)
	}
	return path, v
}

// TestBasicRoundTripAcrossRemount mirrors scenario 1 of the testable
// properties: write, close, unmount, remount, read back the same bytes.
func TestBasicRoundTripAcrossRemount(t *testing.T) {
	path, v := formatTiny(t)

	fd, err := v.Open("a")
	if err != nil {
		t.Fatalf("Open: %s", err)
	}
	if fd != 0 {
		t.Errorf("expected the first descriptor to be 0, got %d", fd)
	}

	n, err := v.Write(fd, []byte("hello"))
	if err != nil {
		t.Fatalf("Write: %s", err)
	}
	if n != 5 {
		t.Errorf("expected 5 bytes written, got %d", n)
	}
	if err := v.Close(fd); err != nil {
		t.Fatalf("Close: %s", err)
	}
	if err := v.Unmount(); err != nil {
		t.Fatalf("Unmount: %s", err)
	}

	v2, err := goldfs.Mount(path,
		goldfs.WithBlockSize(64), goldfs.WithBlockCount(64),
		goldfs.WithMaxFiles(8), goldfs.WithMaxOpenFiles(4))
	if err != nil {
		t.Fatalf("Mount: %s", err)
	}
	defer v2.Unmount()

	fd2, err := v2.Open("a")
	if err != nil {
		t.Fatalf("Open after remount: %s", err)
	}
	if fd2 != 0 {
		t.Errorf("expected descriptor 0 after remount, got %d", fd2)
	}

	buf := make([]byte, 5)
	n, err = v2.Read(fd2, buf)
	if err != nil {
		t.Fatalf("Read after remount: %s", err)
	}
	if n != 5 || string(buf) != "hello" {
		t.Errorf("expected to read back %q, got %q (n=%d)", "hello", buf, n)
	}
}

// TestWriteToCapacityReturnsExhaustedButPersists mirrors scenario 2: the
// final write that exactly fills the file signals ErrExhausted even though
// the bytes made it to disk.
func TestWriteToCapacityReturnsExhaustedButPersists(t *testing.T) {
	_, v := formatTiny(t)

	fd, err := v.Open("full")
	if err != nil {
		t.Fatalf("Open: %s", err)
	}

	payload := make([]byte, v.MaxFileSize())
	for i := range payload {
		payload[i] = byte(i)
	}

	n, err := v.Write(fd, payload)
	if !errors.Is(err, goldfs.ErrExhausted) {
		t.Fatalf("expected ErrExhausted on a capacity-filling write, got n=%d err=%v", n, err)
	}

	if err := v.SeekRead(fd, 0); err != nil {
		t.Fatalf("SeekRead: %s", err)
	}
	got := make([]byte, len(payload))
	read := 0
	for read < len(got) {
		n, err := v.Read(fd, got[read:])
		if err != nil {
			t.Fatalf("Read: %s", err)
		}
		read += n
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Fatalf("byte %d: want %d got %d", i, payload[i], got[i])
			break
		}
	}
}

// TestDirectoryFillAndRecover mirrors scenario 3, scaled to the 8-file tiny
// geometry used by these tests instead of the documented 256. Every created
// file stays open, so the open-file table is widened to hold all of them.
func TestDirectoryFillAndRecover(t *testing.T) {
	_, v := formatTiny(t, goldfs.WithMaxOpenFiles(8))

	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, name := range names {
		if _, err := v.Open(name); err != nil {
			t.Fatalf("Open(%q): %s", name, err)
		}
	}

	if _, err := v.Open("zz"); !errors.Is(err, goldfs.ErrExhausted) {
		t.Fatalf("expected the 9th distinct file to fail with ErrExhausted, got %v", err)
	}

	if err := v.Remove("a"); err != nil {
		t.Fatalf("Remove: %s", err)
	}
	if _, err := v.Open("zz"); err != nil {
		t.Fatalf("expected Open to succeed after freeing a slot: %s", err)
	}
}

// TestOpenIsIdempotentUntilClosed mirrors scenario 4.
func TestOpenIsIdempotentUntilClosed(t *testing.T) {
	_, v := formatTiny(t)

	fd1, err := v.Open("x")
	if err != nil {
		t.Fatalf("Open: %s", err)
	}
	fd2, err := v.Open("x")
	if err != nil {
		t.Fatalf("second Open: %s", err)
	}
	if fd1 != fd2 {
		t.Errorf("expected repeated Open without an intervening Close to return the same descriptor, got %d and %d", fd1, fd2)
	}

	if err := v.Close(fd1); err != nil {
		t.Fatalf("Close: %s", err)
	}
	if _, err := v.Open("y"); err != nil {
		t.Fatalf("Open other file: %s", err)
	}
	fd3, err := v.Open("x")
	if err != nil {
		t.Fatalf("reopen: %s", err)
	}
	if fd3 == fd1 {
		t.Logf("reopen happened to reuse descriptor %d, which is allowed (lowest-free)", fd3)
	}
}

// TestRemoveInvertsCreate mirrors the Remove-inverts-create law as far as the
// public surface shows it: after Open, Close and Remove, the same name can be
// created afresh.
func TestRemoveInvertsCreate(t *testing.T) {
	_, v := formatTiny(t)

	fd, err := v.Open("x")
	if err != nil {
		t.Fatalf("Open: %s", err)
	}
	if err := v.Close(fd); err != nil {
		t.Fatalf("Close: %s", err)
	}
	if err := v.Remove("x"); err != nil {
		t.Fatalf("Remove: %s", err)
	}

	if _, err := v.Open("x"); err != nil {
		t.Fatalf("expected Open to behave like a fresh create after Remove: %s", err)
	}
}

// TestReadWriteComplement mirrors the read/write complement law.
func TestReadWriteComplement(t *testing.T) {
	_, v := formatTiny(t)

	fd, err := v.Open("x")
	if err != nil {
		t.Fatalf("Open: %s", err)
	}

	payload := []byte("the quick brown fox")
	if err := v.SeekWrite(fd, 0); err != nil {
		t.Fatalf("SeekWrite: %s", err)
	}
	n, err := v.Write(fd, payload)
	if err != nil {
		t.Fatalf("Write: %s", err)
	}
	if n != len(payload) {
		t.Fatalf("expected to write %d bytes, wrote %d", len(payload), n)
	}

	if err := v.SeekRead(fd, 0); err != nil {
		t.Fatalf("SeekRead: %s", err)
	}
	got := make([]byte, len(payload))
	n, err = v.Read(fd, got)
	if err != nil {
		t.Fatalf("Read: %s", err)
	}
	if n != len(payload) || string(got) != string(payload) {
		t.Errorf("read/write complement violated: want %q got %q", payload, got)
	}
}

// TestRemoveWhileOpenClosesDescriptor mirrors scenario 6.
func TestRemoveWhileOpenClosesDescriptor(t *testing.T) {
	_, v := formatTiny(t)

	fd, err := v.Open("x")
	if err != nil {
		t.Fatalf("Open: %s", err)
	}
	if _, err := v.Write(fd, []byte("data")); err != nil {
		t.Fatalf("Write: %s", err)
	}

	if err := v.Remove("x"); err != nil {
		t.Fatalf("Remove: %s", err)
	}

	buf := make([]byte, 4)
	if _, err := v.Read(fd, buf); err == nil {
		t.Errorf("expected Read on a descriptor closed by Remove to fail")
	}
}

// TestMountRejectsMismatchedGeometry ensures a remount with the wrong
// geometry options is rejected rather than silently misinterpreting blocks.
func TestMountRejectsMismatchedGeometry(t *testing.T) {
	path, v := formatTiny(t)
	if err := v.Unmount(); err != nil {
		t.Fatalf("Unmount: %s", err)
	}

	if _, err := goldfs.Mount(path, goldfs.WithBlockSize(128), goldfs.WithBlockCount(64)); err == nil {
		t.Errorf("expected Mount with a mismatched block size to fail")
	}
}
