package goldfs

import (
	"fmt"

	"github.com/vladglv/OS-goldfs/blockdev"
)

// inode is the fixed 64-byte on-disk record: {size, direct[14], indirect, state}.
type inode struct {
	size     uint32
	direct   [DirectPointers]int32
	indirect int16
	state    State
}

// inodeTable is the fixed F-entry inode table.
type inodeTable struct {
	entries []inode
	idx     int32
	num     int32
	g       *geometry
}

func (t *inodeTable) init(g *geometry) {
	t.g = g
	t.entries = make([]inode, g.maxFiles)
	t.idx, t.num = g.inodeIdx, g.inodeNum
}

// allocate takes the lowest-index FREE inode, initializing size, direct
// pointers, and indirect pointer on the spot, so a reused slot never
// exposes a previous file's stale pointers.
func (t *inodeTable) allocate() (int32, error) {
	for i := range t.entries {
		if t.entries[i].state == Free {
			ino := inode{state: Taken, indirect: int16(Invalid)}
			for j := range ino.direct {
				ino.direct[j] = Invalid
			}
			t.entries[i] = ino
			return int32(i), nil
		}
	}
	return Invalid, fmt.Errorf("%w: inode table full", ErrExhausted)
}

// free resets idx to FREE; it does not release data blocks, which is the
// façade's responsibility.
func (t *inodeTable) free(idx int32) {
	t.entries[idx] = inode{}
}

// blockList materializes the full D+I logical-to-physical map for idx: the
// D direct entries followed by the I indirect entries read from the
// indirect block. If the indirect block is Invalid, the tail stays Invalid.
func (t *inodeTable) blockList(dev *blockdev.Device, idx int32) (blockList, error) {
	var list blockList
	for i := range list {
		list[i] = Invalid
	}

	ino := &t.entries[idx]
	copy(list[:DirectPointers], ino.direct[:])

	if ino.indirect == int16(Invalid) {
		return list, nil
	}

	buf := make([]byte, t.g.blockSize)
	n, err := dev.ReadAt(uint32(ino.indirect), 1, buf)
	if err != nil {
		return list, fmt.Errorf("%w: read indirect block: %v", ErrDeviceError, err)
	}
	if n != 1 {
		return list, fmt.Errorf("%w: short indirect block read", ErrDeviceError)
	}

	for i := uint32(0); i < t.g.indirectPerBlock; i++ {
		off := i * IndirectEntrySize
		list[DirectPointers+i] = getInt32(buf[off : off+IndirectEntrySize])
	}
	return list, nil
}

// setBlockList writes the first D entries back to direct pointers and the
// remaining I entries to the indirect block. The indirect block must
// already be allocated — the façade allocates it eagerly at file creation.
func (t *inodeTable) setBlockList(dev *blockdev.Device, idx int32, list blockList) error {
	ino := &t.entries[idx]
	if ino.indirect == int16(Invalid) {
		return fmt.Errorf("%w: indirect block not allocated", ErrInvalidArgument)
	}
	copy(ino.direct[:], list[:DirectPointers])

	buf := make([]byte, t.g.blockSize)
	for i := uint32(0); i < t.g.indirectPerBlock; i++ {
		off := i * IndirectEntrySize
		putInt32(buf[off:off+IndirectEntrySize], list[DirectPointers+i])
	}
	n, err := dev.WriteAt(uint32(ino.indirect), 1, buf)
	if err != nil {
		return fmt.Errorf("%w: write indirect block: %v", ErrDeviceError, err)
	}
	if n != 1 {
		return fmt.Errorf("%w: short indirect block write", ErrDeviceError)
	}
	return nil
}

func (t *inodeTable) flush(dev *blockdev.Device) error {
	buf := make([]byte, int(t.num)*int(dev.BlockSize()))
	for i, ino := range t.entries {
		off := i * inodeEntrySize
		putUint32(buf[off:off+4], ino.size)
		for j, p := range ino.direct {
			putInt32(buf[off+4+j*4:off+4+j*4+4], p)
		}
		putInt16(buf[off+60:off+62], ino.indirect)
		putInt16(buf[off+62:off+64], int16(ino.state))
	}
	n, err := dev.WriteAt(uint32(t.idx), uint32(t.num), buf)
	if err != nil {
		return fmt.Errorf("%w: flush inodes: %v", ErrDeviceError, err)
	}
	if n != uint32(t.num) {
		return fmt.Errorf("%w: short inode table write", ErrDeviceError)
	}
	return nil
}

func (t *inodeTable) load(dev *blockdev.Device) error {
	buf := make([]byte, int(t.num)*int(dev.BlockSize()))
	n, err := dev.ReadAt(uint32(t.idx), uint32(t.num), buf)
	if err != nil {
		return fmt.Errorf("%w: load inodes: %v", ErrDeviceError, err)
	}
	if n != uint32(t.num) {
		return fmt.Errorf("%w: short inode table read", ErrDeviceError)
	}
	for i := range t.entries {
		off := i * inodeEntrySize
		var ino inode
		ino.size = getUint32(buf[off : off+4])
		for j := range ino.direct {
			ino.direct[j] = getInt32(buf[off+4+j*4 : off+4+j*4+4])
		}
		ino.indirect = getInt16(buf[off+60 : off+62])
		ino.state = State(getInt16(buf[off+62 : off+64]))
		t.entries[i] = ino
	}
	return nil
}
