package filexfer

import (
	"hash/crc32"
	"io"
)

// handleFormat implements propertyId 0.
func (m *Module) handleFormat() []byte {
	if err := m.fs.Format(); err != nil {
		return statusReply(StatusFormatFailed)
	}
	return statusReply(StatusOK)
}

// handleExists implements propertyId 1.
func (m *Module) handleExists(data []byte) []byte {
	path, _, ok := readCString(data)
	if !ok {
		return statusReply(StatusOK)
	}

	reply := statusReply(StatusOK)
	if m.fs.Exists(path) {
		return append(reply, 1)
	}
	return append(reply, 0)
}

// handleRename implements propertyId 2. Payload is two concatenated
// NUL-terminated strings.
func (m *Module) handleRename(data []byte) []byte {
	from, rest, ok := readCString(data)
	if !ok {
		return statusReply(StatusRenameFailed)
	}
	to, _, ok := readCString(rest)
	if !ok {
		return statusReply(StatusRenameFailed)
	}

	if err := m.fs.Rename(from, to); err != nil {
		return statusReply(StatusRenameFailed)
	}
	return statusReply(StatusOK)
}

// handleFileDelete implements propertyId 42. Rejected while any session is
// open.
func (m *Module) handleFileDelete(data []byte) []byte {
	if err := m.requireNoFile(); err != nil {
		return guardReply(err)
	}
	if err := m.requireNoDir(); err != nil {
		return guardReply(err)
	}

	path, _, ok := readCString(data)
	if !ok {
		return statusReply(StatusFileDeleteFailed)
	}
	if err := m.fs.Remove(path); err != nil {
		return statusReply(StatusFileDeleteFailed)
	}
	return statusReply(StatusOK)
}

// handleDirCreate implements propertyId 81.
func (m *Module) handleDirCreate(data []byte) []byte {
	if err := m.requireNoFile(); err != nil {
		return guardReply(err)
	}
	if err := m.requireNoDir(); err != nil {
		return guardReply(err)
	}

	path, _, ok := readCString(data)
	if !ok {
		return statusReply(StatusDirCreateFailed)
	}
	if err := m.fs.Mkdir(path); err != nil {
		return statusReply(StatusDirCreateFailed)
	}
	return statusReply(StatusOK)
}

// handleDirDelete implements propertyId 82.
func (m *Module) handleDirDelete(data []byte) []byte {
	if err := m.requireNoFile(); err != nil {
		return guardReply(err)
	}
	if err := m.requireNoDir(); err != nil {
		return guardReply(err)
	}

	path, _, ok := readCString(data)
	if !ok {
		return statusReply(StatusDirRemoveFailed)
	}
	if err := m.fs.Rmdir(path); err != nil {
		return statusReply(StatusDirRemoveFailed)
	}
	return statusReply(StatusOK)
}

// handleDirList implements propertyId 80. The first call with a non-empty
// path opens the directory session; subsequent calls ignore data and
// advance the iterator.
func (m *Module) handleDirList(data []byte) []byte {
	if m.dir == nil {
		if err := m.requireNoFile(); err != nil {
			return guardReply(err)
		}

		path, _, ok := readCString(data)
		if !ok {
			return statusReply(StatusDirNotOpen)
		}

		handle, err := m.fs.OpenDir(path)
		if err != nil {
			return statusReply(StatusDirNotOpen)
		}
		m.openDirLocked(handle)
	}

	m.dir.heartbeat = m.clock.Now()

	entry, err := m.dir.handle.Next()
	if err == io.EOF {
		m.closeDirLocked()
		reply := statusReply(StatusOK)
		return append(reply, 0x00)
	}
	if err != nil {
		m.closeDirLocked()
		return statusReply(StatusDirNotOpen)
	}

	reply := statusReply(StatusOK)
	reply = append(reply, byte(entry.Kind))
	reply = append(reply, []byte(entry.Name)...)
	return reply
}

// handleCancel implements propertyId 90: release any open session.
func (m *Module) handleCancel() []byte {
	m.closeFileLocked()
	m.closeDirLocked()
	return []byte{}
}

// handleFileInfo implements propertyId 43. It opens its own handle via the
// Filesystem directly rather than going through the session guards, since
// it deliberately leaves no session open afterward.
func (m *Module) handleFileInfo(data []byte) []byte {
	path, _, ok := readCString(data)
	if !ok {
		return statusReply(StatusCannotOpenFile)
	}

	handle, err := m.fs.Open(path, OpenRead)
	if err != nil {
		return statusReply(StatusCannotOpenFile)
	}
	defer handle.Close()

	size, err := handle.Size()
	if err != nil {
		return statusReply(StatusCannotOpenFile)
	}

	blockSize := m.fileInfoBlockSize
	if blockSize <= 0 {
		blockSize = DefaultFileInfoBlockSize
	}
	block := make([]byte, blockSize)

	sum := crc32.NewIEEE()
	for {
		n, eof, rerr := readFull(handle, block)
		if rerr != nil {
			return statusReply(StatusCannotOpenFile)
		}
		if n > 0 {
			sum.Write(block[:n])
		}
		if eof {
			break
		}
	}

	reply := statusReply(StatusOK)
	reply = appendUint32LE(reply, uint32(size))
	reply = appendUint32LE(reply, sum.Sum32())
	return reply
}

// handleModuleVersion implements propertyId 100. Unlike every other
// command, its reply carries no leading status byte: all 6 bytes are the
// big-endian version fields.
func (m *Module) handleModuleVersion() []byte {
	var reply []byte
	reply = appendUint16BE(reply, m.versionMajor)
	reply = appendUint16BE(reply, m.versionMinor)
	reply = appendUint16BE(reply, m.versionBuild)
	return reply
}

// handleFwUpdate implements propertyId 101. Its dispatcher caller
// deliberately reports this command as unhandled (see dispatchLocked);
// this method only performs the staging side effect.
func (m *Module) handleFwUpdate(data []byte) {
	path, _, ok := readCString(data)
	if !ok || m.updater == nil {
		return
	}
	if err := m.updater.Stage(path); err != nil {
		m.logger.Printf("staging firmware image %q: %v", path, err)
		return
	}

	rebootAt := m.clock.Now()
	m.rebootAt = &rebootAt
}
