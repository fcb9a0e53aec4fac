package goldfs

import (
	"fmt"
	"log"
)

// geometry holds the compile/configuration-time constants together with
// the derived, fixed layout of the four on-disk regions, plus the ambient
// logger a Volume built from it will use.
type geometry struct {
	blockSize  uint32
	blockCount uint32
	maxFiles   uint32
	maxOpen    uint32

	indirectPerBlock uint32 // I = blockSize/4
	maxFileSize      uint32 // (D+I) * blockSize

	// Region layout, contiguous in the order SB, DIR, INODE, FBM, even
	// though the superblock's own field serialization order is
	// sb, fbm, dir, inode.
	sbIdx, sbNum       int32
	dirIdx, dirNum     int32
	inodeIdx, inodeNum int32
	fbmIdx, fbmNum     int32

	log *log.Logger
}

// Option configures volume geometry at Format or Mount time.
type Option func(*geometry) error

// WithBlockSize sets B, the block size in bytes (default 1024).
func WithBlockSize(n uint32) Option {
	return func(g *geometry) error {
		if n == 0 || n%IndirectEntrySize != 0 {
			return fmt.Errorf("%w: block size must be a positive multiple of %d", ErrInvalidArgument, IndirectEntrySize)
		}
		g.blockSize = n
		return nil
	}
}

// WithBlockCount sets N, the total number of blocks on the device (default 1024).
func WithBlockCount(n uint32) Option {
	return func(g *geometry) error {
		if n == 0 {
			return fmt.Errorf("%w: block count must be positive", ErrInvalidArgument)
		}
		g.blockCount = n
		return nil
	}
}

// WithMaxFiles sets F, the maximum number of files in the flat namespace (default 256).
func WithMaxFiles(n uint32) Option {
	return func(g *geometry) error {
		if n == 0 {
			return fmt.Errorf("%w: max files must be positive", ErrInvalidArgument)
		}
		g.maxFiles = n
		return nil
	}
}

// WithMaxOpenFiles sets O, the size of the in-memory open-file table (default 32).
func WithMaxOpenFiles(n uint32) Option {
	return func(g *geometry) error {
		if n == 0 {
			return fmt.Errorf("%w: max open files must be positive", ErrInvalidArgument)
		}
		g.maxOpen = n
		return nil
	}
}

func newGeometry(opts ...Option) (*geometry, error) {
	g := &geometry{
		blockSize:  DefaultBlockSize,
		blockCount: DefaultBlockCount,
		maxFiles:   DefaultMaxFiles,
		maxOpen:    DefaultMaxOpenFiles,
		log:        log.Default(),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	if err := g.compute(); err != nil {
		return nil, err
	}
	return g, nil
}

// ceilBlocks returns the number of blocks of blockSize needed to hold n bytes.
func ceilBlocks(n, blockSize uint32) int32 {
	return int32((n + blockSize - 1) / blockSize)
}

func (g *geometry) compute() error {
	g.indirectPerBlock = g.blockSize / IndirectEntrySize
	if g.indirectPerBlock > MaxIndirectEntries {
		return fmt.Errorf("%w: block size %d implies %d indirect entries, exceeds the %d-entry fixed block list",
			ErrInvalidArgument, g.blockSize, g.indirectPerBlock, MaxIndirectEntries)
	}
	g.maxFileSize = (DirectPointers + g.indirectPerBlock) * g.blockSize

	g.sbIdx, g.sbNum = 0, 1

	next := g.sbNum
	g.dirIdx, g.dirNum = next, ceilBlocks(g.maxFiles*dirEntrySize, g.blockSize)

	next += g.dirNum
	g.inodeIdx, g.inodeNum = next, ceilBlocks(g.maxFiles*inodeEntrySize, g.blockSize)

	next += g.inodeNum
	g.fbmIdx, g.fbmNum = next, ceilBlocks(g.blockCount, g.blockSize)

	total := uint32(g.fbmIdx + g.fbmNum)
	if total > g.blockCount {
		return fmt.Errorf("%w: geometry needs %d blocks but only %d are available", ErrInvalidArgument, total, g.blockCount)
	}
	return nil
}
