package filexfer_test

import (
	"bytes"
	"io"
	"os"
	"sort"

	"github.com/openbusfw/filexfer"
)

// fakeFilesystem is an in-memory filexfer.Filesystem double: a small,
// fully in-process implementation that makes the core testable without
// touching a real disk.
type fakeFilesystem struct {
	files map[string]*[]byte
	dirs  map[string]bool

	// openErr, if non-nil, is returned by the next Open call instead of
	// succeeding. Cleared after use.
	openErr error
}

func newFakeFilesystem() *fakeFilesystem {
	return &fakeFilesystem{
		files: make(map[string]*[]byte),
		dirs:  map[string]bool{"/": true},
	}
}

func (fs *fakeFilesystem) Open(path string, mode filexfer.OpenMode) (filexfer.FileHandle, error) {
	if fs.openErr != nil {
		err := fs.openErr
		fs.openErr = nil
		return nil, err
	}

	switch mode {
	case filexfer.OpenRead:
		buf, ok := fs.files[path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return &fakeFileHandle{data: buf}, nil
	case filexfer.OpenWrite:
		buf := new([]byte)
		fs.files[path] = buf
		return &fakeFileHandle{data: buf}, nil
	default:
		return nil, os.ErrInvalid
	}
}

func (fs *fakeFilesystem) OpenDir(path string) (filexfer.DirHandle, error) {
	var names []string
	for name := range fs.files {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]filexfer.DirEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, filexfer.DirEntry{Name: name, Kind: filexfer.EntryFile})
	}
	return &fakeDirHandle{entries: entries}, nil
}

func (fs *fakeFilesystem) Exists(path string) bool {
	if _, ok := fs.files[path]; ok {
		return true
	}
	return fs.dirs[path]
}

func (fs *fakeFilesystem) Remove(path string) error {
	if _, ok := fs.files[path]; !ok {
		return os.ErrNotExist
	}
	delete(fs.files, path)
	return nil
}

func (fs *fakeFilesystem) Rename(oldPath, newPath string) error {
	buf, ok := fs.files[oldPath]
	if !ok {
		return os.ErrNotExist
	}
	fs.files[newPath] = buf
	delete(fs.files, oldPath)
	return nil
}

func (fs *fakeFilesystem) Mkdir(path string) error {
	fs.dirs[path] = true
	return nil
}

func (fs *fakeFilesystem) Rmdir(path string) error {
	if !fs.dirs[path] {
		return os.ErrNotExist
	}
	delete(fs.dirs, path)
	return nil
}

func (fs *fakeFilesystem) Format() error {
	fs.files = make(map[string]*[]byte)
	fs.dirs = map[string]bool{"/": true}
	return nil
}

var _ filexfer.Filesystem = (*fakeFilesystem)(nil)

// fakeFileHandle is a seekable in-memory file, backed by a pointer to the
// byte slice owned by the fakeFilesystem so writes persist across Close.
type fakeFileHandle struct {
	data   *[]byte
	offset int64
	closed bool
}

func (h *fakeFileHandle) Read(p []byte) (int, error) {
	if h.offset >= int64(len(*h.data)) {
		return 0, io.EOF
	}
	n := copy(p, (*h.data)[h.offset:])
	h.offset += int64(n)
	return n, nil
}

func (h *fakeFileHandle) Write(p []byte) (int, error) {
	end := h.offset + int64(len(p))
	if end > int64(len(*h.data)) {
		grown := make([]byte, end)
		copy(grown, *h.data)
		*h.data = grown
	}
	copy((*h.data)[h.offset:end], p)
	h.offset = end
	return len(p), nil
}

func (h *fakeFileHandle) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		h.offset = offset
	case io.SeekCurrent:
		h.offset += offset
	case io.SeekEnd:
		h.offset = int64(len(*h.data)) + offset
	}
	return h.offset, nil
}

func (h *fakeFileHandle) Flush() error { return nil }
func (h *fakeFileHandle) Close() error { h.closed = true; return nil }

func (h *fakeFileHandle) Size() (int64, error) {
	return int64(len(*h.data)), nil
}

var _ filexfer.FileHandle = (*fakeFileHandle)(nil)

type fakeDirHandle struct {
	entries []filexfer.DirEntry
	pos     int
	closed  bool
}

func (h *fakeDirHandle) Next() (filexfer.DirEntry, error) {
	if h.pos >= len(h.entries) {
		return filexfer.DirEntry{}, io.EOF
	}
	entry := h.entries[h.pos]
	h.pos++
	return entry, nil
}

func (h *fakeDirHandle) Close() error { h.closed = true; return nil }

var _ filexfer.DirHandle = (*fakeDirHandle)(nil)

// fakeUpdater is a reference Updater double recording staged paths and
// reboots without touching a bootloader.
type fakeUpdater struct {
	staged   string
	saved    bool
	rebooted bool
}

func (u *fakeUpdater) Stage(path string) error {
	u.staged = path
	return nil
}

func (u *fakeUpdater) Save() error {
	u.saved = true
	return nil
}

func (u *fakeUpdater) Reboot() {
	u.rebooted = true
}

var _ filexfer.Updater = (*fakeUpdater)(nil)

// frame builds a raw byte slice from a mix of int (truncated to a byte),
// string (appended with a trailing NUL), and []byte arguments, a small
// test-only DSL for assembling wire payloads tersely.
func frame(parts ...interface{}) []byte {
	var buf bytes.Buffer
	for _, part := range parts {
		switch v := part.(type) {
		case int:
			buf.WriteByte(byte(v))
		case byte:
			buf.WriteByte(v)
		case string:
			buf.WriteString(v)
			buf.WriteByte(0)
		case []byte:
			buf.Write(v)
		}
	}
	return buf.Bytes()
}
