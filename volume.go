// Package goldfs implements SSFS, a simple single-volume file system layered
// on a block-addressable virtual disk: a flat namespace of fixed-length file
// names mapped to variable-length byte streams persisted as fixed-size
// blocks.
package goldfs

import (
	"fmt"
	"log"

	"github.com/vladglv/OS-goldfs/blockdev"
)

// Volume is a mounted SSFS volume handle. Every in-memory table it owns
// mirrors the corresponding persistent structure on the backing device; all
// writes to the device originate from here. A Volume is not safe for
// concurrent use — serializing all calls is the caller's responsibility.
type Volume struct {
	dev *blockdev.Device
	g   *geometry

	sb     superblock
	fbm    freeBitmap
	dir    directory
	inodes inodeTable
	open   openFileTable

	log *log.Logger
}

// Format creates a new backing file at path and mounts it: initialize every
// in-memory table, format the device, mark the SB/DIR/INODE/FBM ranges
// TAKEN in the FBM, then flush everything.
func Format(path string, opts ...Option) (*Volume, error) {
	g, err := newGeometry(opts...)
	if err != nil {
		return nil, err
	}

	if err := blockdev.Format(path, g.blockSize, g.blockCount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceError, err)
	}
	dev, err := blockdev.Mount(path, g.blockSize, g.blockCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceError, err)
	}

	v := &Volume{dev: dev, g: g, log: g.log}
	v.sb.init(g)
	v.fbm.init(g.blockCount, g.fbmIdx, g.fbmNum)
	v.dir.init(g.maxFiles, g.dirIdx, g.dirNum)
	v.inodes.init(g)
	v.open.init(g.maxOpen)

	regions := [][2]int32{
		{g.sbIdx, g.sbNum},
		{g.dirIdx, g.dirNum},
		{g.inodeIdx, g.inodeNum},
		{g.fbmIdx, g.fbmNum},
	}
	for _, r := range regions {
		for k := r[0]; k < r[0]+r[1]; k++ {
			if _, err := v.fbm.allocate(v.dev, k); err != nil {
				dev.Unmount()
				return nil, fmt.Errorf("goldfs: format: reserve block %d: %w", k, err)
			}
		}
	}

	if err := v.sb.flush(v.dev); err != nil {
		dev.Unmount()
		return nil, err
	}
	if err := v.inodes.flush(v.dev); err != nil {
		dev.Unmount()
		return nil, err
	}
	if err := v.dir.flush(v.dev); err != nil {
		dev.Unmount()
		return nil, err
	}

	v.log.Printf("goldfs: formatted %s blocks=%d block_size=%d max_files=%d", path, g.blockCount, g.blockSize, g.maxFiles)
	return v, nil
}

// Mount opens an existing backing file: probe with a minimal one-block
// geometry to validate the superblock magic, then reopen with the geometry
// the superblock names and load the rest of the persistent tables.
func Mount(path string, opts ...Option) (*Volume, error) {
	g, err := newGeometry(opts...)
	if err != nil {
		return nil, err
	}

	probe, err := blockdev.Mount(path, g.blockSize, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceError, err)
	}

	var sb superblock
	loadErr := sb.load(probe)
	probe.Unmount()
	if loadErr != nil {
		return nil, loadErr
	}

	if sb.blocks != g.blockCount || sb.blockSize != g.blockSize {
		return nil, fmt.Errorf("%w: volume geometry (blocks=%d block_size=%d) does not match requested options (blocks=%d block_size=%d)",
			ErrCorrupt, sb.blocks, sb.blockSize, g.blockCount, g.blockSize)
	}

	dev, err := blockdev.Mount(path, g.blockSize, g.blockCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceError, err)
	}

	v := &Volume{dev: dev, g: g, sb: sb, log: g.log}
	v.fbm.init(g.blockCount, sb.fbmIdx, sb.fbmNum)
	v.dir.init(g.maxFiles, sb.dirIdx, sb.dirNum)
	v.inodes.init(g)
	v.open.init(g.maxOpen)

	if err := v.inodes.load(v.dev); err != nil {
		dev.Unmount()
		return nil, err
	}
	if err := v.dir.load(v.dev); err != nil {
		dev.Unmount()
		return nil, err
	}
	if err := v.fbm.load(v.dev); err != nil {
		dev.Unmount()
		return nil, err
	}

	v.log.Printf("goldfs: mounted %s blocks=%d block_size=%d max_files=%d", path, g.blockCount, g.blockSize, g.maxFiles)
	return v, nil
}

// Unmount releases the backing device. In-memory tables are scoped to the
// mounted lifetime of the volume; after Unmount the Volume must not be
// used again.
func (v *Volume) Unmount() error {
	return v.dev.Unmount()
}

// MaxFileSize returns (D+I)*B, the largest size a single file can reach.
func (v *Volume) MaxFileSize() uint32 {
	return v.g.maxFileSize
}

// Open resolves name to a file descriptor, creating the file if it does not
// already exist in the directory.
func (v *Volume) Open(name string) (int, error) {
	if dirIdx := v.dir.find(name); dirIdx != Invalid {
		inodeIdx := v.dir.entries[dirIdx].inode
		if fd := v.open.findByInode(inodeIdx); fd != Invalid {
			return int(fd), nil
		}

		fd, err := v.open.add(inodeIdx)
		if err != nil {
			return -1, err
		}
		of := &v.open.entries[fd]
		of.readCursor = 0
		of.writeCursor = v.inodes.entries[inodeIdx].size
		return int(fd), nil
	}

	return v.createAndOpen(name)
}

// createAndOpen handles the name-absent case of Open: allocate an inode and
// its indirect block, add a directory entry, and open the first descriptor
// on it — rolling back every partial allocation, in reverse order of
// acquisition, on any later failure.
func (v *Volume) createAndOpen(name string) (int, error) {
	inodeIdx, err := v.inodes.allocate()
	if err != nil {
		return -1, err
	}

	indirectBlk, err := v.fbm.allocate(v.dev, Invalid)
	if err != nil {
		v.inodes.free(inodeIdx)
		return -1, err
	}

	if err := v.initIndirectBlock(indirectBlk); err != nil {
		v.fbm.deallocate(v.dev, indirectBlk)
		v.inodes.free(inodeIdx)
		return -1, err
	}
	v.inodes.entries[inodeIdx].indirect = int16(indirectBlk)

	if _, err := v.dir.add(name, inodeIdx); err != nil {
		v.fbm.deallocate(v.dev, indirectBlk)
		v.inodes.free(inodeIdx)
		return -1, err
	}

	if err := v.inodes.flush(v.dev); err != nil {
		v.dir.remove(name)
		v.fbm.deallocate(v.dev, indirectBlk)
		v.inodes.free(inodeIdx)
		return -1, err
	}
	if err := v.dir.flush(v.dev); err != nil {
		v.dir.remove(name)
		v.fbm.deallocate(v.dev, indirectBlk)
		v.inodes.free(inodeIdx)
		v.inodes.flush(v.dev)
		return -1, err
	}

	fd, err := v.open.add(inodeIdx)
	if err != nil {
		v.dir.remove(name)
		v.dir.flush(v.dev)
		v.fbm.deallocate(v.dev, indirectBlk)
		v.inodes.free(inodeIdx)
		v.inodes.flush(v.dev)
		return -1, err
	}

	return int(fd), nil
}

func (v *Volume) initIndirectBlock(blk int32) error {
	buf := make([]byte, v.g.blockSize)
	for i := uint32(0); i < v.g.indirectPerBlock; i++ {
		off := i * IndirectEntrySize
		putInt32(buf[off:off+IndirectEntrySize], Invalid)
	}
	n, err := v.dev.WriteAt(uint32(blk), 1, buf)
	if err != nil {
		return fmt.Errorf("%w: init indirect block: %v", ErrDeviceError, err)
	}
	if n != 1 {
		return fmt.Errorf("%w: short indirect block write", ErrDeviceError)
	}
	return nil
}

// Close releases fd. Closing an already-closed or never-opened fd is an
// error.
func (v *Volume) Close(fd int) error {
	return v.open.remove(int32(fd))
}

// SeekRead repositions fd's read cursor. loc must be within [0, size].
func (v *Volume) SeekRead(fd, loc int) error {
	of, err := v.open.get(int32(fd))
	if err != nil {
		return err
	}
	size := v.inodes.entries[of.inode].size
	if loc < 0 || uint32(loc) > size {
		return fmt.Errorf("%w: read seek %d out of range [0,%d]", ErrInvalidArgument, loc, size)
	}
	of.readCursor = uint32(loc)
	return nil
}

// SeekWrite repositions fd's write cursor. loc must be within [0, size] —
// seeking past the current size is not how a file grows; write does that.
func (v *Volume) SeekWrite(fd, loc int) error {
	of, err := v.open.get(int32(fd))
	if err != nil {
		return err
	}
	size := v.inodes.entries[of.inode].size
	if loc < 0 || uint32(loc) > size {
		return fmt.Errorf("%w: write seek %d out of range [0,%d]", ErrInvalidArgument, loc, size)
	}
	of.writeCursor = uint32(loc)
	return nil
}

// maxBlockIndex is the highest valid index into a materialized block list
// for this volume's geometry.
func (v *Volume) maxBlockIndex() int {
	return DirectPointers + int(v.g.indirectPerBlock) - 1
}

// Read copies up to len(buf) bytes from fd's current read cursor. It
// returns ErrInvalidArgument if there is nothing left to read at the
// cursor.
func (v *Volume) Read(fd int, buf []byte) (int, error) {
	if len(buf) == 0 {
		return -1, fmt.Errorf("%w: zero-length read", ErrInvalidArgument)
	}
	of, err := v.open.get(int32(fd))
	if err != nil {
		return -1, err
	}
	ino := &v.inodes.entries[of.inode]

	avail := int64(ino.size) - int64(of.readCursor)
	if avail <= 0 {
		return -1, fmt.Errorf("%w: nothing available to read at offset %d", ErrInvalidArgument, of.readCursor)
	}
	length := len(buf)
	if int64(length) > avail {
		length = int(avail)
	}

	lastBlock := int((of.readCursor + uint32(length)) / v.g.blockSize)
	if lastBlock > v.maxBlockIndex() {
		lastBlock = v.maxBlockIndex()
	}

	list, err := v.inodes.blockList(v.dev, of.inode)
	if err != nil {
		return -1, err
	}
	for b := 0; b <= lastBlock; b++ {
		if list[b] == Invalid {
			return -1, fmt.Errorf("%w: hole in block list at index %d", ErrCorrupt, b)
		}
	}

	stage := make([]byte, (lastBlock+1)*int(v.g.blockSize))
	for b := 0; b <= lastBlock; b++ {
		n, err := v.dev.ReadAt(uint32(list[b]), 1, stage[b*int(v.g.blockSize):(b+1)*int(v.g.blockSize)])
		if err != nil {
			return -1, fmt.Errorf("%w: read data block %d: %v", ErrDeviceError, list[b], err)
		}
		if n != 1 {
			return -1, fmt.Errorf("%w: short data block read", ErrDeviceError)
		}
	}

	copy(buf, stage[of.readCursor:uint32(of.readCursor)+uint32(length)])
	of.readCursor += uint32(length)
	return length, nil
}

// Write splices buf into fd at its write cursor, allocating data blocks
// lazily as the cursor reaches them; the indirect block already exists from
// file creation.
//
// When the requested length would exactly fill the file to MaxFileSize,
// Write returns (-1, ErrExhausted) even though the bytes were in fact
// written, so the caller cannot distinguish "wrote nothing" from "wrote
// right up to capacity" except by re-reading.
func (v *Volume) Write(fd int, buf []byte) (int, error) {
	if len(buf) == 0 {
		return -1, fmt.Errorf("%w: zero-length write", ErrInvalidArgument)
	}
	of, err := v.open.get(int32(fd))
	if err != nil {
		return -1, err
	}
	ino := &v.inodes.entries[of.inode]

	avail := int64(v.g.maxFileSize) - int64(of.writeCursor)
	if avail <= 0 {
		return -1, fmt.Errorf("%w: file at capacity", ErrExhausted)
	}

	length := len(buf)
	truncated := int64(length) >= avail
	if truncated {
		length = int(avail)
	}

	lastBlock := int((of.writeCursor + uint32(length)) / v.g.blockSize)
	if lastBlock > v.maxBlockIndex() {
		lastBlock = v.maxBlockIndex()
	}

	list, err := v.inodes.blockList(v.dev, of.inode)
	if err != nil {
		return -1, err
	}
	for b := 0; b <= lastBlock; b++ {
		if list[b] == Invalid {
			blk, err := v.fbm.allocate(v.dev, Invalid)
			if err != nil {
				return -1, err
			}
			list[b] = blk
		}
	}
	if err := v.inodes.setBlockList(v.dev, of.inode, list); err != nil {
		return -1, err
	}

	newEnd := of.writeCursor + uint32(length)
	if newEnd > ino.size {
		ino.size = newEnd
	}
	if err := v.inodes.flush(v.dev); err != nil {
		return -1, err
	}

	stage := make([]byte, (lastBlock+1)*int(v.g.blockSize))
	for b := 0; b <= lastBlock; b++ {
		n, err := v.dev.ReadAt(uint32(list[b]), 1, stage[b*int(v.g.blockSize):(b+1)*int(v.g.blockSize)])
		if err != nil {
			return -1, fmt.Errorf("%w: read data block %d: %v", ErrDeviceError, list[b], err)
		}
		if n != 1 {
			return -1, fmt.Errorf("%w: short data block read", ErrDeviceError)
		}
	}

	copy(stage[of.writeCursor:uint32(of.writeCursor)+uint32(length)], buf[:length])

	for b := 0; b <= lastBlock; b++ {
		n, err := v.dev.WriteAt(uint32(list[b]), 1, stage[b*int(v.g.blockSize):(b+1)*int(v.g.blockSize)])
		if err != nil {
			return -1, fmt.Errorf("%w: write data block %d: %v", ErrDeviceError, list[b], err)
		}
		if n != 1 {
			return -1, fmt.Errorf("%w: short data block write", ErrDeviceError)
		}
	}

	of.writeCursor += uint32(length)

	if truncated {
		return -1, fmt.Errorf("%w: write filled the file to capacity", ErrExhausted)
	}
	return length, nil
}

// Remove deletes name: closes any open descriptor on it, frees its data and
// indirect blocks, then its inode and directory entry.
func (v *Volume) Remove(name string) error {
	dirIdx := v.dir.find(name)
	if dirIdx == Invalid {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	inodeIdx := v.dir.entries[dirIdx].inode

	v.open.removeByInode(inodeIdx)

	list, err := v.inodes.blockList(v.dev, inodeIdx)
	if err != nil {
		return err
	}
	for _, blk := range list {
		if blk != Invalid {
			if err := v.fbm.deallocate(v.dev, blk); err != nil {
				return err
			}
		}
	}
	if indirect := v.inodes.entries[inodeIdx].indirect; indirect != int16(Invalid) {
		if err := v.fbm.deallocate(v.dev, int32(indirect)); err != nil {
			return err
		}
	}

	v.inodes.free(inodeIdx)
	if _, err := v.dir.remove(name); err != nil {
		return err
	}

	if err := v.inodes.flush(v.dev); err != nil {
		return err
	}
	if err := v.dir.flush(v.dev); err != nil {
		return err
	}
	return nil
}
