// Package diskfs is a reference filexfer.Filesystem backed by real files
// under a root directory. It exists for tests and the ftmdemo reference
// host; no production firmware target is expected to use it as-is.
package diskfs

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/detailyang/go-fallocate"

	"github.com/openbusfw/filexfer"
)

// FS roots a filexfer.Filesystem at a real directory. The zero value is
// not usable; construct with New.
type FS struct {
	root string

	// PreallocateBytes, if non-zero, is the size fallocate reserves for a
	// file opened with OpenWrite, before the first write lands. A real
	// deployment would size this from the controller's advertised upload
	// length; demo callers that don't know it ahead of time may leave this
	// zero to skip preallocation.
	PreallocateBytes int64
}

// New roots a FS at root, creating it if it does not already exist.
func New(root string) (*FS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FS{root: root}, nil
}

// resolve joins path onto the root, rejecting any attempt to escape it.
func (f *FS) resolve(path string) (string, error) {
	root := filepath.Clean(f.root)
	full := filepath.Join(root, path)
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", os.ErrPermission
	}
	return full, nil
}

func (f *FS) Open(path string, mode filexfer.OpenMode) (filexfer.FileHandle, error) {
	full, err := f.resolve(path)
	if err != nil {
		return nil, err
	}

	switch mode {
	case filexfer.OpenRead:
		file, err := os.Open(full)
		if err != nil {
			return nil, err
		}
		return &fileHandle{file: file}, nil
	case filexfer.OpenWrite:
		file, err := os.Create(full)
		if err != nil {
			return nil, err
		}
		if f.PreallocateBytes > 0 {
			if err := fallocate.Fallocate(file, 0, f.PreallocateBytes); err != nil {
				// Not every backing filesystem supports fallocate (tmpfs,
				// for one); the write path works fine without the hint.
				_ = err
			}
		}
		return &fileHandle{file: file}, nil
	default:
		return nil, os.ErrInvalid
	}
}

func (f *FS) OpenDir(path string) (filexfer.DirHandle, error) {
	full, err := f.resolve(path)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	return &dirHandle{entries: entries}, nil
}

func (f *FS) Exists(path string) bool {
	full, err := f.resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

func (f *FS) Remove(path string) error {
	full, err := f.resolve(path)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

func (f *FS) Rename(oldPath, newPath string) error {
	oldFull, err := f.resolve(oldPath)
	if err != nil {
		return err
	}
	newFull, err := f.resolve(newPath)
	if err != nil {
		return err
	}
	return os.Rename(oldFull, newFull)
}

func (f *FS) Mkdir(path string) error {
	full, err := f.resolve(path)
	if err != nil {
		return err
	}
	return os.Mkdir(full, 0o755)
}

func (f *FS) Rmdir(path string) error {
	full, err := f.resolve(path)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

// Format wipes every entry under the root, recreating an empty directory
// in its place. There is no flash-chip erase to model, so this is the
// closest real analogue.
func (f *FS) Format() error {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(f.root, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

var _ filexfer.Filesystem = (*FS)(nil)

type fileHandle struct {
	file *os.File
}

func (h *fileHandle) Read(p []byte) (int, error)  { return h.file.Read(p) }
func (h *fileHandle) Write(p []byte) (int, error) { return h.file.Write(p) }
func (h *fileHandle) Seek(offset int64, whence int) (int64, error) {
	return h.file.Seek(offset, whence)
}
func (h *fileHandle) Flush() error { return h.file.Sync() }
func (h *fileHandle) Close() error { return h.file.Close() }

func (h *fileHandle) Size() (int64, error) {
	info, err := h.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

var _ filexfer.FileHandle = (*fileHandle)(nil)

type dirHandle struct {
	entries []os.DirEntry
	pos     int
}

func (h *dirHandle) Next() (filexfer.DirEntry, error) {
	if h.pos >= len(h.entries) {
		return filexfer.DirEntry{}, io.EOF
	}
	entry := h.entries[h.pos]
	h.pos++

	kind := filexfer.EntryFile
	if entry.IsDir() {
		kind = filexfer.EntryDir
	}
	return filexfer.DirEntry{Name: entry.Name(), Kind: kind}, nil
}

func (h *dirHandle) Close() error { return nil }

var _ filexfer.DirHandle = (*dirHandle)(nil)
