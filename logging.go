package filexfer

import (
	"flag"
	"io"
	"log"
	"os"
	"sync"
)

var fEnableDebug = flag.Bool(
	"filexfer.debug",
	false,
	"Write filexfer debug messages to stderr.")

var gLogger *log.Logger
var gLoggerOnce sync.Once

func initLogger() {
	var writer io.Writer = io.Discard
	if flag.Parsed() && *fEnableDebug {
		writer = os.Stderr
	}

	const flags = log.Ldate | log.Ltime | log.Lmicroseconds
	gLogger = log.New(writer, "filexfer: ", flags)
}

// getLogger returns the package's lazily-initialized default logger. A
// Module constructed without an explicit Config.Logger uses this one.
func getLogger() *log.Logger {
	gLoggerOnce.Do(initLogger)
	return gLogger
}
