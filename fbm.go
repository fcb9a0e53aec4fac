package goldfs

import (
	"fmt"

	"github.com/vladglv/OS-goldfs/blockdev"
)

// freeBitmap is the free-block bitmap: one entry per block, persisted as
// one byte per entry in a single region starting at fbmIdx.
type freeBitmap struct {
	entries []State
	idx     int32
	num     int32
}

func (f *freeBitmap) init(count uint32, idx, num int32) {
	f.entries = make([]State, count)
	f.idx, f.num = idx, num
}

// allocate takes the hinted entry if free, otherwise the lowest-index free
// entry (deterministic, for reproducible layouts). Flushes on success.
func (f *freeBitmap) allocate(dev *blockdev.Device, hint int32) (int32, error) {
	if hint >= 0 && int(hint) < len(f.entries) && f.entries[hint] == Free {
		f.entries[hint] = Taken
		if err := f.flush(dev); err != nil {
			return Invalid, err
		}
		return hint, nil
	}

	for i := range f.entries {
		if f.entries[i] == Free {
			f.entries[i] = Taken
			if err := f.flush(dev); err != nil {
				return Invalid, err
			}
			return int32(i), nil
		}
	}

	return Invalid, fmt.Errorf("%w: no free blocks", ErrExhausted)
}

// deallocate frees idx. A double-free is a silent no-op.
func (f *freeBitmap) deallocate(dev *blockdev.Device, idx int32) error {
	if idx < 0 || int(idx) >= len(f.entries) {
		return fmt.Errorf("%w: block index %d out of range", ErrInvalidArgument, idx)
	}
	if f.entries[idx] == Free {
		return nil
	}
	f.entries[idx] = Free
	return f.flush(dev)
}

func (f *freeBitmap) flush(dev *blockdev.Device) error {
	buf := make([]byte, int(f.num)*int(dev.BlockSize()))
	for i, s := range f.entries {
		buf[i] = byte(s)
	}
	n, err := dev.WriteAt(uint32(f.idx), uint32(f.num), buf)
	if err != nil {
		return fmt.Errorf("%w: flush fbm: %v", ErrDeviceError, err)
	}
	if n != uint32(f.num) {
		return fmt.Errorf("%w: short fbm write", ErrDeviceError)
	}
	return nil
}

func (f *freeBitmap) load(dev *blockdev.Device) error {
	buf := make([]byte, int(f.num)*int(dev.BlockSize()))
	n, err := dev.ReadAt(uint32(f.idx), uint32(f.num), buf)
	if err != nil {
		return fmt.Errorf("%w: load fbm: %v", ErrDeviceError, err)
	}
	if n != uint32(f.num) {
		return fmt.Errorf("%w: short fbm read", ErrDeviceError)
	}
	for i := range f.entries {
		f.entries[i] = State(buf[i])
	}
	return nil
}
