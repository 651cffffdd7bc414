package filexfer

import (
	"io"

	"github.com/openbusfw/filexfer/crc16"
)

// handleFileUpload implements propertyId 40. The first two bytes of data
// are always the sequence number, which selects among the open sub-command
// (0x0000), the terminal sentinel (0xFFFF), or a data chunk.
func (m *Module) handleFileUpload(data []byte) []byte {
	seq, rest, ok := readUint16LE(data)
	if !ok {
		return statusReply(StatusFileNotOpen)
	}

	switch seq {
	case 0x0000:
		return m.uploadOpen(rest)
	case 0xFFFF:
		return m.uploadTerminal()
	default:
		return m.uploadData(seq, data)
	}
}

func (m *Module) uploadOpen(rest []byte) []byte {
	if err := m.requireNoFile(); err != nil {
		return guardReply(err)
	}
	if err := m.requireNoDir(); err != nil {
		return guardReply(err)
	}
	if len(rest) < 1 {
		return statusReply(StatusCannotOpenFile)
	}

	chunkSize := rest[0]
	path, _, ok := readCString(rest[1:])
	if !ok {
		return statusReply(StatusCannotOpenFile)
	}

	handle, err := m.fs.Open(path, OpenWrite)
	if err != nil {
		return statusReply(StatusCannotOpenFile)
	}

	m.openFileLocked(handle, OpenWrite, chunkSize)
	return statusReply(StatusOK)
}

// uploadTerminal handles the FF FF sentinel: flush, close, empty reply.
func (m *Module) uploadTerminal() []byte {
	if err := m.requireFile(); err != nil {
		return guardReply(err)
	}

	if err := m.file.handle.Flush(); err != nil {
		m.logger.Printf("flush on upload terminal: %v", err)
	}
	m.closeFileLocked()
	return []byte{}
}

// uploadData writes one chunk. frame is the full inbound payload, seqLo,
// seqHi, writeCount, data... (the CRC covers all of it).
func (m *Module) uploadData(seq uint16, frame []byte) []byte {
	if err := m.requireFile(); err != nil {
		return guardReply(err)
	}
	if len(frame) < 3 {
		return statusReply(StatusShortWrite)
	}

	writeCount := int(frame[2])
	payload := frame[3:]
	if len(payload) < writeCount {
		return statusReply(StatusShortWrite)
	}
	payload = payload[:writeCount]

	effective := int(m.file.chunkSize) - 3
	if seq != m.file.lastSeq+1 {
		offset := int64(seq-1) * int64(effective)
		if _, err := m.file.handle.Seek(offset, io.SeekStart); err != nil {
			return statusReply(StatusSeekFailed)
		}
	}

	n, err := m.file.handle.Write(payload)
	if err != nil || n != writeCount {
		return statusReply(StatusShortWrite)
	}

	m.file.lastSeq = seq
	m.file.heartbeat = m.clock.Now()

	cadence := m.flushCadence
	if cadence <= 0 {
		cadence = DefaultFlushCadence
	}
	if int(seq)%cadence == 0 {
		if err := m.file.handle.Flush(); err != nil {
			m.logger.Printf("periodic upload flush: %v", err)
		}
	}

	crc := crc16.Checksum(frame)
	reply := statusReply(StatusOK)
	reply = appendUint16LE(reply, seq)
	reply = appendUint16BE(reply, crc)
	return reply
}

// handleFileDownload implements propertyId 41.
func (m *Module) handleFileDownload(data []byte, maxReply int) []byte {
	seq, rest, ok := readUint16LE(data)
	if !ok {
		return statusReply(StatusFileNotOpen)
	}
	if seq == 0x0000 {
		return m.downloadOpen(rest, maxReply)
	}
	return m.downloadData(seq)
}

func (m *Module) downloadOpen(rest []byte, maxReply int) []byte {
	if err := m.requireNoFile(); err != nil {
		return guardReply(err)
	}
	if err := m.requireNoDir(); err != nil {
		return guardReply(err)
	}
	if len(rest) < 1 {
		return statusReply(StatusCannotOpenFile)
	}

	chunkSize := rest[0]
	if int(chunkSize) > maxReply {
		return statusReply(StatusChunkTooLarge)
	}

	path, _, ok := readCString(rest[1:])
	if !ok {
		return statusReply(StatusCannotOpenFile)
	}

	handle, err := m.fs.Open(path, OpenRead)
	if err != nil {
		return statusReply(StatusCannotOpenFile)
	}
	size, err := handle.Size()
	if err != nil {
		handle.Close()
		return statusReply(StatusCannotOpenFile)
	}

	m.openFileLocked(handle, OpenRead, chunkSize)

	// Reply is 5 bytes: one status byte plus a 4-byte little-endian size.
	reply := statusReply(StatusOK)
	reply = appendUint32LE(reply, uint32(size))
	return reply
}

func (m *Module) downloadData(seq uint16) []byte {
	if err := m.requireFile(); err != nil {
		return guardReply(err)
	}

	fs := m.file
	effective := int(fs.chunkSize) - 6
	if effective < 0 {
		effective = 0
	}

	if seq != fs.lastSeq+1 {
		offset := int64(seq-1) * int64(effective)
		if _, err := fs.handle.Seek(offset, io.SeekStart); err != nil {
			return statusReply(StatusSeekFailed)
		}
	}

	buf := make([]byte, effective)
	n, eof, err := readFull(fs.handle, buf)
	if err != nil {
		m.logger.Printf("download read: %v", err)
		n, eof = 0, true
	}

	reply := statusReply(StatusOK)
	reply = appendUint16LE(reply, seq)
	reply = append(reply, byte(n))
	reply = append(reply, buf[:n]...)
	crc := crc16.Checksum(reply[1:])
	reply = appendUint16BE(reply, crc)

	fs.lastSeq = seq
	fs.heartbeat = m.clock.Now()

	if n == 0 || eof {
		m.closeFileLocked()
	}

	return reply
}

// readFull reads up to len(buf) bytes from r, looping across short reads.
// eof reports whether end-of-stream was reached during this call, which
// happens whenever fewer than len(buf) bytes could be produced.
func readFull(r io.Reader, buf []byte) (n int, eof bool, err error) {
	for n < len(buf) {
		m, rerr := r.Read(buf[n:])
		n += m
		if rerr != nil {
			if rerr == io.EOF {
				return n, true, nil
			}
			return n, false, rerr
		}
		if m == 0 {
			return n, true, nil
		}
	}
	return n, false, nil
}
