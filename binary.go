package goldfs

import "encoding/binary"

// Multi-byte integers on disk are little-endian. These small helpers keep
// the hand-rolled struct encoders in super.go/dir.go/inode.go terse instead
// of each reaching for encoding/binary directly.

func putInt32(buf []byte, v int32) {
	binary.LittleEndian.PutUint32(buf, uint32(v))
}

func getInt32(buf []byte) int32 {
	return int32(binary.LittleEndian.Uint32(buf))
}

func putInt16(buf []byte, v int16) {
	binary.LittleEndian.PutUint16(buf, uint16(v))
}

func getInt16(buf []byte) int16 {
	return int16(binary.LittleEndian.Uint16(buf))
}

func putUint32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

func getUint32(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}
