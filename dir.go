package goldfs

import (
	"bytes"
	"fmt"

	"github.com/vladglv/OS-goldfs/blockdev"
)

// dirEntry is one 16-byte directory slot: {name[11], state, inode}.
type dirEntry struct {
	name  [nameMaxLen + 1]byte
	state State
	inode int32
}

// directory is the fixed F-entry name -> inode index table.
type directory struct {
	entries []dirEntry
	idx     int32
	num     int32
}

func (d *directory) init(count uint32, idx, num int32) {
	d.entries = make([]dirEntry, count)
	d.idx, d.num = idx, num
}

func encodeName(name string) ([nameMaxLen + 1]byte, error) {
	var out [nameMaxLen + 1]byte
	if len(name) == 0 || len(name) > nameMaxLen {
		return out, fmt.Errorf("%w: name must be 1-%d bytes, got %q", ErrInvalidArgument, nameMaxLen, name)
	}
	copy(out[:], name)
	return out, nil
}

func decodeName(b [nameMaxLen + 1]byte) string {
	n := bytes.IndexByte(b[:], 0)
	if n < 0 {
		n = len(b)
	}
	return string(b[:n])
}

// find returns the directory index of name, or Invalid if no TAKEN entry
// matches. Exact byte comparison up to the name length limit.
func (d *directory) find(name string) int32 {
	for i := range d.entries {
		if d.entries[i].state == Taken && decodeName(d.entries[i].name) == name {
			return int32(i)
		}
	}
	return Invalid
}

// add places name into the lowest-index FREE slot.
func (d *directory) add(name string, inodeIdx int32) (int32, error) {
	enc, err := encodeName(name)
	if err != nil {
		return Invalid, err
	}
	for i := range d.entries {
		if d.entries[i].state == Free {
			d.entries[i] = dirEntry{name: enc, state: Taken, inode: inodeIdx}
			return int32(i), nil
		}
	}
	return Invalid, fmt.Errorf("%w: directory full", ErrExhausted)
}

// remove clears the entry matching name.
func (d *directory) remove(name string) (int32, error) {
	idx := d.find(name)
	if idx == Invalid {
		return Invalid, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	d.entries[idx] = dirEntry{}
	return idx, nil
}

func (d *directory) flush(dev *blockdev.Device) error {
	buf := make([]byte, int(d.num)*int(dev.BlockSize()))
	for i, e := range d.entries {
		off := i * dirEntrySize
		copy(buf[off:off+nameMaxLen+1], e.name[:])
		buf[off+11] = byte(e.state)
		putInt32(buf[off+12:off+16], e.inode)
	}
	n, err := dev.WriteAt(uint32(d.idx), uint32(d.num), buf)
	if err != nil {
		return fmt.Errorf("%w: flush directory: %v", ErrDeviceError, err)
	}
	if n != uint32(d.num) {
		return fmt.Errorf("%w: short directory write", ErrDeviceError)
	}
	return nil
}

func (d *directory) load(dev *blockdev.Device) error {
	buf := make([]byte, int(d.num)*int(dev.BlockSize()))
	n, err := dev.ReadAt(uint32(d.idx), uint32(d.num), buf)
	if err != nil {
		return fmt.Errorf("%w: load directory: %v", ErrDeviceError, err)
	}
	if n != uint32(d.num) {
		return fmt.Errorf("%w: short directory read", ErrDeviceError)
	}
	for i := range d.entries {
		off := i * dirEntrySize
		var e dirEntry
		copy(e.name[:], buf[off:off+nameMaxLen+1])
		e.state = State(int8(buf[off+11]))
		e.inode = getInt32(buf[off+12 : off+16])
		d.entries[i] = e
	}
	return nil
}
