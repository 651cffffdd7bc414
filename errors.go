package filexfer

import "fmt"

// StatusCode is the single status byte written to reply position 0.
// Zero means success; any other value names the failure kind.
type StatusCode byte

const (
	StatusOK StatusCode = 0x00

	// StatusMountFailed means the filesystem failed to mount/begin.
	StatusMountFailed StatusCode = 0x01
	// StatusFormatFailed means Format failed.
	StatusFormatFailed StatusCode = 0x02
	// StatusChunkTooLarge means the requested download chunkSize exceeds
	// the reply buffer's capacity.
	StatusChunkTooLarge StatusCode = 0x04

	// StatusFileAlreadyOpen means a file session is already open.
	StatusFileAlreadyOpen StatusCode = 0x41
	// StatusCannotOpenFile means the filesystem refused to open the path.
	StatusCannotOpenFile StatusCode = 0x42
	// StatusFileNotOpen means no file session is open.
	StatusFileNotOpen StatusCode = 0x43
	// StatusFileDeleteFailed means FileDelete failed.
	StatusFileDeleteFailed StatusCode = 0x44
	// StatusRenameFailed means Rename failed.
	StatusRenameFailed StatusCode = 0x45
	// StatusSeekFailed means a positional seek failed.
	StatusSeekFailed StatusCode = 0x46
	// StatusShortWrite means a write returned fewer bytes than requested.
	StatusShortWrite StatusCode = 0x47

	// StatusDirAlreadyOpen means a directory session is already open.
	StatusDirAlreadyOpen StatusCode = 0x81
	// StatusDirNotOpen means no directory session is open.
	StatusDirNotOpen StatusCode = 0x83
	// StatusDirRemoveFailed means DirDelete failed.
	StatusDirRemoveFailed StatusCode = 0x84
	// StatusDirCreateFailed means DirCreate failed.
	StatusDirCreateFailed StatusCode = 0x85
)

func (s StatusCode) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMountFailed:
		return "mount failed"
	case StatusFormatFailed:
		return "format failed"
	case StatusChunkTooLarge:
		return "chunk too large for reply buffer"
	case StatusFileAlreadyOpen:
		return "file already open"
	case StatusCannotOpenFile:
		return "cannot open file"
	case StatusFileNotOpen:
		return "file not open"
	case StatusFileDeleteFailed:
		return "file delete failed"
	case StatusRenameFailed:
		return "rename failed"
	case StatusSeekFailed:
		return "seek failed"
	case StatusShortWrite:
		return "short write"
	case StatusDirAlreadyOpen:
		return "directory already open"
	case StatusDirNotOpen:
		return "directory not open"
	case StatusDirRemoveFailed:
		return "directory remove failed"
	case StatusDirCreateFailed:
		return "directory create failed"
	default:
		return fmt.Sprintf("status(0x%02x)", byte(s))
	}
}

// statusError adapts a StatusCode to the error interface so internal
// handlers can return it like any other error before it is written to the
// reply's status byte.
type statusError struct {
	code StatusCode
}

func (e *statusError) Error() string {
	return e.code.String()
}

// newStatusError wraps a StatusCode as an error.
func newStatusError(code StatusCode) error {
	return &statusError{code: code}
}

// statusCodeOf extracts the StatusCode from an error produced by this
// package, or fallback for an arbitrary error surfaced by the Filesystem
// collaborator.
func statusCodeOf(err error, fallback StatusCode) StatusCode {
	if err == nil {
		return StatusOK
	}
	if se, ok := err.(*statusError); ok {
		return se.code
	}
	return fallback
}
