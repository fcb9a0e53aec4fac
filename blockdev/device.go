// Package blockdev implements the block-addressable virtual disk consumed
// by the goldfs core: a file-backed array of fixed-size blocks exposing
// fresh-initialize, open, read-N-blocks-at-LBA, write-N-blocks-at-LBA, close.
package blockdev

import (
	"fmt"
	"os"

	"github.com/google/renameio"
	"golang.org/x/sys/unix"
)

// Device is an open handle on a backing file, addressed in fixed-size blocks.
type Device struct {
	f          *os.File
	blockSize  uint32
	numBlocks  uint32
	locked     bool
}

// Format creates a backing file at path, zero-filled to blockSize*numBlocks
// bytes. The file is built in a temporary sibling and published atomically,
// so a process crash mid-format never leaves a half-written image visible
// at path.
func Format(path string, blockSize, numBlocks uint32) error {
	if blockSize == 0 || numBlocks == 0 {
		return fmt.Errorf("blockdev: format: block size and block count must be non-zero")
	}

	size := int64(blockSize) * int64(numBlocks)
	t, err := renameio.TempFile("", path)
	if err != nil {
		return fmt.Errorf("blockdev: format: %w", err)
	}
	defer t.Cleanup()

	if err := t.Truncate(size); err != nil {
		return fmt.Errorf("blockdev: format: %w", err)
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("blockdev: format: %w", err)
	}
	return nil
}

// Mount opens an existing backing file for block I/O. The file must already
// hold at least blockSize*numBlocks bytes. An advisory exclusive flock
// guards against a second, accidental concurrent mount of the same file;
// it is not a substitute for the single-threaded calling discipline the
// core itself requires.
func Mount(path string, blockSize, numBlocks uint32) (*Device, error) {
	if blockSize == 0 || numBlocks == 0 {
		return nil, fmt.Errorf("blockdev: mount: block size and block count must be non-zero")
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("blockdev: mount: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("blockdev: mount: %w", err)
	}

	want := int64(blockSize) * int64(numBlocks)
	if fi.Size() < want {
		f.Close()
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrSizeMismatch, fi.Size(), want)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrAlreadyMounted, err)
	}

	return &Device{f: f, blockSize: blockSize, numBlocks: numBlocks, locked: true}, nil
}

// BlockSize returns the device's fixed block size in bytes.
func (d *Device) BlockSize() uint32 { return d.blockSize }

// NumBlocks returns the device's total block count.
func (d *Device) NumBlocks() uint32 { return d.numBlocks }

// ReadAt transfers n contiguous blocks starting at lba into buf, which must
// be at least n*BlockSize() bytes long.
func (d *Device) ReadAt(lba, n uint32, buf []byte) (uint32, error) {
	if n == 0 {
		return 0, nil
	}
	if lba >= d.numBlocks || n > d.numBlocks-lba {
		return 0, ErrOutOfRange
	}
	need := int(n) * int(d.blockSize)
	if len(buf) < need {
		return 0, fmt.Errorf("blockdev: read: buffer too small, need %d bytes", need)
	}

	off := int64(lba) * int64(d.blockSize)
	got, err := d.f.ReadAt(buf[:need], off)
	if err != nil || got < need {
		return uint32(got / int(d.blockSize)), fmt.Errorf("%w: read %d of %d bytes at block %d: %v", ErrShortIO, got, need, lba, err)
	}
	return n, nil
}

// WriteAt transfers n contiguous blocks from buf to lba. The write is
// flushed to stable storage before returning.
func (d *Device) WriteAt(lba, n uint32, buf []byte) (uint32, error) {
	if n == 0 {
		return 0, nil
	}
	if lba >= d.numBlocks || n > d.numBlocks-lba {
		return 0, ErrOutOfRange
	}
	need := int(n) * int(d.blockSize)
	if len(buf) < need {
		return 0, fmt.Errorf("blockdev: write: buffer too small, need %d bytes", need)
	}

	off := int64(lba) * int64(d.blockSize)
	got, err := d.f.WriteAt(buf[:need], off)
	if err != nil || got < need {
		return uint32(got / int(d.blockSize)), fmt.Errorf("%w: wrote %d of %d bytes at block %d: %v", ErrShortIO, got, need, lba, err)
	}
	if err := d.f.Sync(); err != nil {
		return n, fmt.Errorf("blockdev: write: sync: %w", err)
	}
	return n, nil
}

// Unmount flushes and releases the backing file.
func (d *Device) Unmount() error {
	if d.locked {
		unix.Flock(int(d.f.Fd()), unix.LOCK_UN)
		d.locked = false
	}
	return d.f.Close()
}
