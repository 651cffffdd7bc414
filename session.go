package filexfer

import "time"

// fileSession is the at-most-one open file handle plus the cursor state
// the transfer engine needs. Its presence as a pointer field on Module *is*
// the fileOpen flag, so there is no separate bool to drift out of sync
// with it.
type fileSession struct {
	handle    FileHandle
	mode      OpenMode
	chunkSize uint8
	lastSeq   uint16
	heartbeat time.Time
}

// dirSession is the at-most-one open directory iterator.
type dirSession struct {
	handle    DirHandle
	heartbeat time.Time
}

// requireNoFile fails with StatusFileAlreadyOpen if a file session is open.
func (m *Module) requireNoFile() error {
	if m.file != nil {
		return newStatusError(StatusFileAlreadyOpen)
	}
	return nil
}

// requireFile fails with StatusFileNotOpen if no file session is open.
func (m *Module) requireFile() error {
	if m.file == nil {
		return newStatusError(StatusFileNotOpen)
	}
	return nil
}

// requireNoDir fails with StatusDirAlreadyOpen if a directory session is
// open.
func (m *Module) requireNoDir() error {
	if m.dir != nil {
		return newStatusError(StatusDirAlreadyOpen)
	}
	return nil
}

// requireDir fails with StatusDirNotOpen if no directory session is open.
func (m *Module) requireDir() error {
	if m.dir == nil {
		return newStatusError(StatusDirNotOpen)
	}
	return nil
}

// openFileLocked begins a file session. Callers must have already run
// requireNoFile and requireNoDir.
func (m *Module) openFileLocked(handle FileHandle, mode OpenMode, chunkSize uint8) {
	m.file = &fileSession{
		handle:    handle,
		mode:      mode,
		chunkSize: chunkSize,
		lastSeq:   0,
		heartbeat: m.clock.Now(),
	}
}

// closeFileLocked ends the current file session, if any, releasing its
// handle. Safe to call when no session is open.
func (m *Module) closeFileLocked() {
	if m.file == nil {
		return
	}
	if err := m.file.handle.Close(); err != nil {
		m.logger.Printf("closing file handle: %v", err)
	}
	m.file = nil
}

// openDirLocked begins a directory session. Callers must have already run
// requireNoFile and requireNoDir.
func (m *Module) openDirLocked(handle DirHandle) {
	m.dir = &dirSession{
		handle:    handle,
		heartbeat: m.clock.Now(),
	}
}

// closeDirLocked ends the current directory session, if any.
func (m *Module) closeDirLocked() {
	if m.dir == nil {
		return
	}
	if err := m.dir.handle.Close(); err != nil {
		m.logger.Printf("closing directory handle: %v", err)
	}
	m.dir = nil
}
