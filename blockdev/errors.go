package blockdev

import "errors"

// Package-specific error variables that can be used with errors.Is() for error handling.
var (
	// ErrOutOfRange is returned when an I/O request falls outside the device.
	ErrOutOfRange = errors.New("blockdev: request out of range")

	// ErrShortIO is returned when fewer blocks were transferred than requested.
	ErrShortIO = errors.New("blockdev: short transfer")

	// ErrSizeMismatch is returned when an existing backing file is smaller than
	// the requested geometry.
	ErrSizeMismatch = errors.New("blockdev: backing file size does not match geometry")

	// ErrAlreadyMounted is returned when a second mount of the same backing
	// file is attempted while the first is still holding its lock.
	ErrAlreadyMounted = errors.New("blockdev: backing file is already mounted")
)
