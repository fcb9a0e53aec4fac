package blockdev_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vladglv/OS-goldfs/blockdev"
)

func tempImage(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "image.bin")
}

func TestFormatCreatesZeroFilledImage(t *testing.T) {
	path := tempImage(t)
	if err := blockdev.Format(path, 512, 8); err != nil {
		t.Fatalf("Format: %s", err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %s", err)
	}
	if fi.Size() != 512*8 {
		t.Errorf("expected image of %d bytes, got %d", 512*8, fi.Size())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %s", err)
	}
	for i, b := range raw {
		if b != 0 {
			t.Fatalf("expected zero-filled image, found non-zero byte at offset %d", i)
			break
		}
		_ = i
	}
}

func TestMountRejectsUndersizedFile(t *testing.T) {
	path := tempImage(t)
	if err := blockdev.Format(path, 512, 4); err != nil {
		t.Fatalf("Format: %s", err)
	}

	if _, err := blockdev.Mount(path, 512, 8); err == nil {
		t.Fatalf("expected Mount to reject an undersized backing file")
	}
}

func TestMountAcceptsLargerFile(t *testing.T) {
	path := tempImage(t)
	if err := blockdev.Format(path, 512, 8); err != nil {
		t.Fatalf("Format: %s", err)
	}

	dev, err := blockdev.Mount(path, 512, 4)
	if err != nil {
		t.Fatalf("Mount: %s", err)
	}
	defer dev.Unmount()

	if dev.NumBlocks() != 4 {
		t.Errorf("expected NumBlocks()=4, got %d", dev.NumBlocks())
	}
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	path := tempImage(t)
	if err := blockdev.Format(path, 64, 4); err != nil {
		t.Fatalf("Format: %s", err)
	}
	dev, err := blockdev.Mount(path, 64, 4)
	if err != nil {
		t.Fatalf("Mount: %s", err)
	}
	defer dev.Unmount()

	want := make([]byte, 128)
	for i := range want {
		want[i] = byte(i)
	}
	if n, err := dev.WriteAt(1, 2, want); err != nil || n != 2 {
		t.Fatalf("WriteAt: n=%d err=%s", n, err)
	}

	got := make([]byte, 128)
	if n, err := dev.ReadAt(1, 2, got); err != nil || n != 2 {
		t.Fatalf("ReadAt: n=%d err=%s", n, err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("round trip mismatch at byte %d: want %d got %d", i, want[i], got[i])
		}
	}
}

func TestReadWriteOutOfRange(t *testing.T) {
	path := tempImage(t)
	if err := blockdev.Format(path, 64, 4); err != nil {
		t.Fatalf("Format: %s", err)
	}
	dev, err := blockdev.Mount(path, 64, 4)
	if err != nil {
		t.Fatalf("Mount: %s", err)
	}
	defer dev.Unmount()

	buf := make([]byte, 64*2)
	if _, err := dev.ReadAt(3, 2, buf); err == nil {
		t.Errorf("expected out-of-range read to fail")
	}
	if _, err := dev.WriteAt(3, 2, buf); err == nil {
		t.Errorf("expected out-of-range write to fail")
	}
}

func TestSecondMountIsRejected(t *testing.T) {
	path := tempImage(t)
	if err := blockdev.Format(path, 64, 4); err != nil {
		t.Fatalf("Format: %s", err)
	}
	first, err := blockdev.Mount(path, 64, 4)
	if err != nil {
		t.Fatalf("Mount: %s", err)
	}
	defer first.Unmount()

	if _, err := blockdev.Mount(path, 64, 4); err == nil {
		t.Errorf("expected second concurrent mount to fail")
	}
}
