package filexfer

import (
	"errors"
	"io"
)

// OpenMode selects the access mode a Filesystem.Open call opens a file
// with. A file session's access mode is implicit in how it was opened; the
// module itself never reopens a handle in a different mode.
type OpenMode int

const (
	// OpenRead opens an existing file for sequential reading.
	OpenRead OpenMode = iota
	// OpenWrite opens (and truncates) a file for sequential writing.
	OpenWrite
)

// EntryKind distinguishes files from directories in a DirList reply.
type EntryKind byte

const (
	EntryFile EntryKind = 0x01
	EntryDir  EntryKind = 0x02
)

func (k EntryKind) String() string {
	switch k {
	case EntryFile:
		return "file"
	case EntryDir:
		return "directory"
	default:
		return "unknown"
	}
}

// DirEntry is one entry yielded by a DirHandle's iterator.
type DirEntry struct {
	Name string
	Kind EntryKind
}

// FileHandle is an open file, positioned by the sequence-derived seeks of
// the transfer engine. Implementations need not support concurrent use;
// the module holds at most one FileHandle open at a time.
type FileHandle interface {
	io.Reader
	io.Writer
	io.Seeker

	// Flush persists buffered writes. Called every 10 upload chunks and on
	// normal upload completion.
	Flush() error

	// Close releases the handle. Idempotent implementations are not
	// required; the module calls Close at most once per session.
	Close() error

	// Size reports the file's current length, used for FileDownload's open
	// reply and FileInfo.
	Size() (int64, error)
}

// DirHandle is an open directory iterator, positioned at the next entry to
// yield.
type DirHandle interface {
	// Next returns the next entry, or io.EOF once exhausted.
	Next() (DirEntry, error)

	// Close releases the iterator.
	Close() error
}

// Filesystem is the on-flash storage collaborator. The module is the sole
// mutator of this collaborator within the firmware; Filesystem
// implementations need no internal locking against concurrent callers.
type Filesystem interface {
	// Open opens path for reading or writing. OpenWrite truncates.
	Open(path string, mode OpenMode) (FileHandle, error)

	// OpenDir opens path for directory iteration.
	OpenDir(path string) (DirHandle, error)

	// Exists reports whether path names an existing file or directory.
	Exists(path string) bool

	// Remove deletes the file at path.
	Remove(path string) error

	// Rename moves oldPath to newPath.
	Rename(oldPath, newPath string) error

	// Mkdir creates a directory at path.
	Mkdir(path string) error

	// Rmdir removes the (assumed empty) directory at path.
	Rmdir(path string) error

	// Format reinitializes the entire filesystem, destroying its contents.
	Format() error
}

// Updater is the firmware staging/boot-switch collaborator exercised by
// FwUpdate and the periodic tick's deferred-reboot step.
type Updater interface {
	// Stage records path as the image to boot next.
	Stage(path string) error

	// Save persists any pending host state before a reboot.
	Save() error

	// Reboot restarts the device. Does not return.
	Reboot()
}

// ErrNotImplemented is returned by NotImplementedFilesystem's methods.
var ErrNotImplemented = errors.New("filexfer: not implemented")

// ErrMountFailed is returned by Module.Mount when given a nil Filesystem.
// A host that maps this to a wire status should use StatusMountFailed.
var ErrMountFailed = errors.New("filexfer: mount failed")

// NotImplementedFilesystem may be embedded by a partial Filesystem
// implementation to obtain default, uniformly-failing implementations of
// every method.
type NotImplementedFilesystem struct{}

var _ Filesystem = NotImplementedFilesystem{}

func (NotImplementedFilesystem) Open(path string, mode OpenMode) (FileHandle, error) {
	return nil, ErrNotImplemented
}

func (NotImplementedFilesystem) OpenDir(path string) (DirHandle, error) {
	return nil, ErrNotImplemented
}

func (NotImplementedFilesystem) Exists(path string) bool {
	return false
}

func (NotImplementedFilesystem) Remove(path string) error {
	return ErrNotImplemented
}

func (NotImplementedFilesystem) Rename(oldPath, newPath string) error {
	return ErrNotImplemented
}

func (NotImplementedFilesystem) Mkdir(path string) error {
	return ErrNotImplemented
}

func (NotImplementedFilesystem) Rmdir(path string) error {
	return ErrNotImplemented
}

func (NotImplementedFilesystem) Format() error {
	return ErrNotImplemented
}
