package goldfs

import "errors"

// Package-specific error variables that can be used with errors.Is() for error handling.
// These correspond to the error taxonomy of kinds, not types: every public
// operation collapses whatever happened into one of these at the surface,
// the caller distinguishes further by context.
var (
	// ErrInvalidArgument is returned for a nil buffer, a negative length, an
	// out-of-range fd, or a name that does not fit the fixed name length.
	ErrInvalidArgument = errors.New("goldfs: invalid argument")

	// ErrNotFound is returned when a name lookup misses on open-existing or remove.
	ErrNotFound = errors.New("goldfs: name not found")

	// ErrExhausted is returned when the inode table, directory, open-file
	// table, or data region has no room left.
	ErrExhausted = errors.New("goldfs: exhausted")

	// ErrDeviceError is returned when the block device transferred fewer
	// blocks than requested, or could not be opened.
	ErrDeviceError = errors.New("goldfs: device error")

	// ErrCorrupt is returned when mount reads a superblock with a bad magic,
	// or an on-disk structure fails an internal invariant check.
	ErrCorrupt = errors.New("goldfs: corrupt volume")
)
