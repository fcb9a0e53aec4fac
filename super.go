package goldfs

import (
	"fmt"

	"github.com/vladglv/OS-goldfs/blockdev"
)

// superblock is the geometry persisted at block 0. It is written and read
// by hand, field by field, rather than through reflection: it carries no
// in-memory-only fields, so a fixed field order is simpler and keeps the
// 44-byte layout obviously correct by inspection.
type superblock struct {
	magic     uint32
	blocks    uint32
	blockSize uint32

	sbIdx, sbNum       int32
	fbmIdx, fbmNum     int32
	dirIdx, dirNum     int32
	inodeIdx, inodeNum int32
}

func (s *superblock) init(g *geometry) {
	s.magic = Magic
	s.blocks = g.blockCount
	s.blockSize = g.blockSize
	s.sbIdx, s.sbNum = g.sbIdx, g.sbNum
	s.fbmIdx, s.fbmNum = g.fbmIdx, g.fbmNum
	s.dirIdx, s.dirNum = g.dirIdx, g.dirNum
	s.inodeIdx, s.inodeNum = g.inodeIdx, g.inodeNum
}

// marshal encodes the 44-byte field block. Field order is sb, fbm, dir,
// inode — not the SB/DIR/INODE/FBM order the regions are laid out on disk
// in.
func (s *superblock) marshal() []byte {
	buf := make([]byte, superblockSize)
	putUint32(buf[0:4], s.magic)
	putUint32(buf[4:8], s.blocks)
	putUint32(buf[8:12], s.blockSize)
	putInt32(buf[12:16], s.sbIdx)
	putInt32(buf[16:20], s.sbNum)
	putInt32(buf[20:24], s.fbmIdx)
	putInt32(buf[24:28], s.fbmNum)
	putInt32(buf[28:32], s.dirIdx)
	putInt32(buf[32:36], s.dirNum)
	putInt32(buf[36:40], s.inodeIdx)
	putInt32(buf[40:44], s.inodeNum)
	return buf
}

func (s *superblock) unmarshal(buf []byte) error {
	if len(buf) < superblockSize {
		return fmt.Errorf("%w: superblock block shorter than %d bytes", ErrCorrupt, superblockSize)
	}
	magic := getUint32(buf[0:4])
	if magic != Magic {
		return fmt.Errorf("%w: bad magic 0x%x", ErrCorrupt, magic)
	}
	s.magic = magic
	s.blocks = getUint32(buf[4:8])
	s.blockSize = getUint32(buf[8:12])
	s.sbIdx = getInt32(buf[12:16])
	s.sbNum = getInt32(buf[16:20])
	s.fbmIdx = getInt32(buf[20:24])
	s.fbmNum = getInt32(buf[24:28])
	s.dirIdx = getInt32(buf[28:32])
	s.dirNum = getInt32(buf[32:36])
	s.inodeIdx = getInt32(buf[36:40])
	s.inodeNum = getInt32(buf[40:44])
	return nil
}

func (s *superblock) flush(dev *blockdev.Device) error {
	buf := make([]byte, dev.BlockSize())
	copy(buf, s.marshal())
	n, err := dev.WriteAt(uint32(s.sbIdx), 1, buf)
	if err != nil {
		return fmt.Errorf("%w: flush superblock: %v", ErrDeviceError, err)
	}
	if n != 1 {
		return fmt.Errorf("%w: short superblock write", ErrDeviceError)
	}
	return nil
}

func (s *superblock) load(dev *blockdev.Device) error {
	buf := make([]byte, dev.BlockSize())
	n, err := dev.ReadAt(0, 1, buf)
	if err != nil {
		return fmt.Errorf("%w: load superblock: %v", ErrDeviceError, err)
	}
	if n != 1 {
		return fmt.Errorf("%w: short superblock read", ErrDeviceError)
	}
	return s.unmarshal(buf)
}
