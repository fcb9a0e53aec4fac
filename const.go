package goldfs

// Magic identifies a formatted volume; mount fails on any other value.
const Magic uint32 = 0xDEADBEEF

// VolumeName is the fixed constant volume name. There is no environment
// variable or configuration for it.
const VolumeName = "goldfs"

// Recommended default geometry.
const (
	DefaultBlockSize    uint32 = 1024
	DefaultBlockCount   uint32 = 1024
	DefaultMaxFiles     uint32 = 256
	DefaultMaxOpenFiles uint32 = 32
)

// DirectPointers is D, the number of direct block pointers per inode.
const DirectPointers = 14

// IndirectEntrySize is the width, in bytes, of one indirect-block entry.
const IndirectEntrySize = 4

// MaxIndirectEntries bounds I, the number of indirect entries per block, to
// a compile-time constant so the combined direct+indirect block list can be
// a stack-resident fixed-size array instead of a heap-allocated one.
// Geometries whose block size implies more indirect entries than this are
// rejected at format/mount time.
const MaxIndirectEntries = 256

// MaxBlockListLen is D+I at the maximum supported block size.
const MaxBlockListLen = DirectPointers + MaxIndirectEntries

// Invalid is the sentinel pointer value meaning "no block".
const Invalid int32 = -1

// On-disk sizes, byte-exact.
const (
	superblockSize = 44
	dirEntrySize   = 16
	inodeEntrySize = 64
	nameMaxLen     = 10
)

// blockList is the materialized logical-to-physical map of a file: the D
// direct entries followed by the I indirect entries. Only the first
// D+indirectPerBlock entries of a given geometry are meaningful; the rest
// stay Invalid.
type blockList [MaxBlockListLen]int32
