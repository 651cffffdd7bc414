package filexfer

import (
	"context"
	"log"
	"time"

	"github.com/jacobsa/reqtrace"
	"github.com/jacobsa/syncutil"
	"github.com/jacobsa/timeutil"
)

// ObjectIndex is the fixed function-property object identifier this module
// answers requests for.
const ObjectIndex byte = 159

// Default configuration constants.
const (
	DefaultHeartbeatInterval = 11000 * time.Millisecond
	DefaultRebootGrace       = 2000 * time.Millisecond
	DefaultFlushCadence      = 10
	DefaultFileInfoBlockSize = 1000
)

// Config holds the constructor parameters for Module. Injected rather than
// hardcoded so tests can shrink the heartbeat interval and reboot grace
// instead of sleeping real wall-clock seconds.
type Config struct {
	Filesystem Filesystem
	Updater    Updater
	Clock      timeutil.Clock

	VersionMajor uint16
	VersionMinor uint16
	VersionBuild uint16

	HeartbeatInterval time.Duration
	RebootGrace       time.Duration
	FlushCadence      int
	FileInfoBlockSize int

	Logger *log.Logger
}

// Module is the single long-lived core: dispatcher, session manager,
// transfer engine and utility commands, all guarded by one invariant
// mutex.
type Module struct {
	mu syncutil.InvariantMutex

	fs      Filesystem
	updater Updater
	clock   timeutil.Clock
	logger  *log.Logger

	versionMajor uint16
	versionMinor uint16
	versionBuild uint16

	heartbeatInterval time.Duration
	rebootGrace       time.Duration
	flushCadence      int
	fileInfoBlockSize int

	file *fileSession // GUARDED_BY(mu)
	dir  *dirSession  // GUARDED_BY(mu)

	lastAccess time.Time  // GUARDED_BY(mu)
	rebootAt   *time.Time // GUARDED_BY(mu)
}

// NewModule constructs a Module. cfg.Filesystem must be non-nil; a nil
// Clock defaults to timeutil.RealClock(), and Updater may be nil if the
// host never intends to exercise FwUpdate.
func NewModule(cfg Config) *Module {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = getLogger()
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.RebootGrace == 0 {
		cfg.RebootGrace = DefaultRebootGrace
	}
	if cfg.FlushCadence == 0 {
		cfg.FlushCadence = DefaultFlushCadence
	}
	if cfg.FileInfoBlockSize == 0 {
		cfg.FileInfoBlockSize = DefaultFileInfoBlockSize
	}

	m := &Module{
		fs:                cfg.Filesystem,
		updater:           cfg.Updater,
		clock:             cfg.Clock,
		logger:            cfg.Logger,
		versionMajor:      cfg.VersionMajor,
		versionMinor:      cfg.VersionMinor,
		versionBuild:      cfg.VersionBuild,
		heartbeatInterval: cfg.HeartbeatInterval,
		rebootGrace:       cfg.RebootGrace,
		flushCadence:      cfg.FlushCadence,
		fileInfoBlockSize: cfg.FileInfoBlockSize,
	}
	m.mu = syncutil.NewInvariantMutex(m.checkInvariants)

	return m
}

// Name returns the module's registry name, modeled as a capability a host's
// module registry can query rather than via inheritance from a base class.
func (m *Module) Name() string {
	return "filexfer"
}

// Mount binds fs as the module's filesystem collaborator, returning
// ErrMountFailed if fs is nil. A host wires this in before the module ever
// answers a Dispatch call, so a mount failure can be reported as
// StatusMountFailed before any session exists.
func (m *Module) Mount(fs Filesystem) error {
	if fs == nil {
		return ErrMountFailed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.fs = fs
	return nil
}

// Version returns the module's wire version fields, backing the
// ModuleVersion command.
func (m *Module) Version() (major, minor, build uint16) {
	return m.versionMajor, m.versionMinor, m.versionBuild
}

// Dispatch is the bus's function-property invocation entry point.
// objectIndex and propertyId identify the request; data is its payload.
// maxReply bounds how many bytes the reply may occupy. handled reports
// whether this module recognized objectIndex and propertyId; reply is nil
// when it did not. An objectIndex mismatch is "not handled" with no side
// effects. An unrecognized propertyId is also "not handled", but still
// updates lastAccess. FwUpdate is recognized yet reported as "not handled"
// (see dispatchLocked).
func (m *Module) Dispatch(objectIndex byte, propertyId byte, data []byte, maxReply int) (reply []byte, handled bool) {
	if objectIndex != ObjectIndex {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := CommandCode(propertyId)
	m.lastAccess = m.clock.Now()

	ctx, report := reqtrace.StartSpan(context.Background(), cmd.String())
	_ = ctx

	reply, handled = m.dispatchLocked(cmd, data, maxReply)
	report(nil)

	return reply, handled
}

// dispatchLocked routes to the command handler. Called with mu held.
func (m *Module) dispatchLocked(cmd CommandCode, data []byte, maxReply int) (reply []byte, handled bool) {
	switch cmd {
	case CmdFormat:
		return m.handleFormat(), true
	case CmdExists:
		return m.handleExists(data), true
	case CmdRename:
		return m.handleRename(data), true
	case CmdFileUpload:
		return m.handleFileUpload(data), true
	case CmdFileDownload:
		return m.handleFileDownload(data, maxReply), true
	case CmdFileDelete:
		return m.handleFileDelete(data), true
	case CmdFileInfo:
		return m.handleFileInfo(data), true
	case CmdDirList:
		return m.handleDirList(data), true
	case CmdDirCreate:
		return m.handleDirCreate(data), true
	case CmdDirDelete:
		return m.handleDirDelete(data), true
	case CmdCancel:
		return m.handleCancel(), true
	case CmdModuleVersion:
		return m.handleModuleVersion(), true
	case CmdFwUpdate:
		m.handleFwUpdate(data)
		// Deliberate protocol quirk: the dispatcher reports this code as
		// unhandled even though the staging side effect above has already
		// run, letting the bus layer acknowledge separately while the
		// module prepares to reboot.
		return nil, false
	default:
		return nil, false
	}
}

// Loop is the host's periodic scheduler tick: it closes sessions idle past
// the heartbeat interval and fires a staged reboot once its grace period
// has elapsed.
func (m *Module) Loop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()

	if m.file != nil && now.Sub(m.file.heartbeat) > m.heartbeatInterval {
		m.logger.Printf("closing idle file session (idle for %s)", now.Sub(m.file.heartbeat))
		m.closeFileLocked()
	}

	if m.dir != nil && now.Sub(m.dir.heartbeat) > m.heartbeatInterval {
		m.logger.Printf("closing idle directory session (idle for %s)", now.Sub(m.dir.heartbeat))
		m.closeDirLocked()
	}

	if m.rebootAt != nil && now.Sub(*m.rebootAt) >= m.rebootGrace {
		if m.updater != nil {
			if err := m.updater.Save(); err != nil {
				m.logger.Printf("flash-save hook before reboot failed: %v", err)
			}
			m.updater.Reboot()
		}
		m.rebootAt = nil
	}
}

// checkInvariants enforces mutual exclusion between the file and directory
// sessions. Panics on violation; run by the InvariantMutex after every
// Unlock.
func (m *Module) checkInvariants() {
	if m.file != nil && m.dir != nil {
		panic("filexfer: file and directory sessions open simultaneously")
	}
}
