package goldfs

import "fmt"

// openFile is an in-memory open-file descriptor with independent read and
// write cursors.
type openFile struct {
	state       State
	inode       int32
	readCursor  uint32
	writeCursor uint32
}

// openFileTable is the fixed O-entry open-file table. It is never persisted.
type openFileTable struct {
	entries []openFile
}

func (t *openFileTable) init(count uint32) {
	t.entries = make([]openFile, count)
}

// findByInode returns the fd of the TAKEN entry referencing inodeIdx, or
// Invalid if there is none — there is at most one open handle per inode.
func (t *openFileTable) findByInode(inodeIdx int32) int32 {
	for i := range t.entries {
		if t.entries[i].state == Taken && t.entries[i].inode == inodeIdx {
			return int32(i)
		}
	}
	return Invalid
}

// add takes the lowest-index FREE slot, resetting both cursors to zero.
func (t *openFileTable) add(inodeIdx int32) (int32, error) {
	for i := range t.entries {
		if t.entries[i].state == Free {
			t.entries[i] = openFile{state: Taken, inode: inodeIdx}
			return int32(i), nil
		}
	}
	return Invalid, fmt.Errorf("%w: open file table full", ErrExhausted)
}

func (t *openFileTable) get(fd int32) (*openFile, error) {
	if fd < 0 || int(fd) >= len(t.entries) {
		return nil, fmt.Errorf("%w: fd %d out of range", ErrInvalidArgument, fd)
	}
	if t.entries[fd].state == Free {
		return nil, fmt.Errorf("%w: fd %d not open", ErrInvalidArgument, fd)
	}
	return &t.entries[fd], nil
}

// remove clears fd. Idempotent close (closing an already-free fd) is an error.
func (t *openFileTable) remove(fd int32) error {
	of, err := t.get(fd)
	if err != nil {
		return err
	}
	*of = openFile{}
	return nil
}

// removeByInode closes every open descriptor referencing inodeIdx, used by
// Remove to close any open-file entries that reference the removed inode.
func (t *openFileTable) removeByInode(inodeIdx int32) {
	for i := range t.entries {
		if t.entries[i].state == Taken && t.entries[i].inode == inodeIdx {
			t.entries[i] = openFile{}
		}
	}
}
