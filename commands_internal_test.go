package filexfer

import (
	"testing"

	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"
)

func TestCommandsInternal(t *testing.T) { RunTests(t) }

type CommandsInternalTest struct{}

func init() { RegisterTestSuite(&CommandsInternalTest{}) }

// DispatchSwitchCoversEveryKnownCommand guards against the dispatch switch
// in dispatchLocked silently drifting out of sync with knownCommands:
// every code here must return handled=true (FwUpdate is the one
// deliberate exception).
func (t *CommandsInternalTest) DispatchSwitchCoversEveryKnownCommand() {
	m := NewModule(Config{Filesystem: NotImplementedFilesystem{}})

	for _, cmd := range knownCommands {
		_, handled := m.dispatchLocked(cmd, nil, 64)
		if cmd == CmdFwUpdate {
			ExpectFalse(handled)
			continue
		}
		ExpectTrue(handled)
	}
}

func (t *CommandsInternalTest) StringIsExhaustive() {
	for _, cmd := range knownCommands {
		ExpectNe("", cmd.String())
		ExpectThat(cmd.String(), Not(HasSubstr("CommandCode(")))
	}
}
