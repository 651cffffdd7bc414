// Command ftmdemo drives a filexfer.Module from a trivial length-prefixed
// stdin/stdout frame loop, standing in for the field-bus transport and
// function-property invocation mechanism the core module itself is
// agnostic to.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/jacobsa/timeutil"

	"github.com/openbusfw/filexfer"
	"github.com/openbusfw/filexfer/diskfs"
)

var (
	rootDir    = flag.String("root", "./ftmdemo-data", "directory backing the demo filesystem")
	maxReply   = flag.Int("max-reply", 512, "maximum reply capacity advertised to the module")
	tickPeriod = flag.Duration("tick", time.Second, "how often to invoke Module.Loop")
)

// memUpdater is a reference Updater that records a staged path and reboot
// count in memory rather than touching a real bootloader.
type memUpdater struct {
	staged  string
	reboots int
}

func (u *memUpdater) Stage(path string) error {
	u.staged = path
	return nil
}

func (u *memUpdater) Save() error { return nil }

func (u *memUpdater) Reboot() {
	u.reboots++
	log.Printf("ftmdemo: reboot requested (staged image %q, reboot #%d)", u.staged, u.reboots)
}

func main() {
	flag.Parse()

	fs, err := diskfs.New(*rootDir)
	if err != nil {
		log.Fatalf("ftmdemo: %v", err)
	}

	module := filexfer.NewModule(filexfer.Config{
		Filesystem:   fs,
		Updater:      &memUpdater{},
		Clock:        timeutil.RealClock(),
		VersionMajor: 1,
		VersionMinor: 0,
		VersionBuild: 0,
	})

	stop := make(chan struct{})
	go tickLoop(module, *tickPeriod, stop)
	defer close(stop)

	if err := serveFrames(module, os.Stdin, os.Stdout, *maxReply); err != nil && err != io.EOF {
		log.Fatalf("ftmdemo: %v", err)
	}
}

func tickLoop(module *filexfer.Module, period time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			module.Loop()
		case <-stop:
			return
		}
	}
}

// serveFrames reads `propertyId:u8 | length:u16le | payload` frames from r
// and writes `length:u16le | reply` frames to w, until r is exhausted.
func serveFrames(module *filexfer.Module, r io.Reader, w io.Writer, maxReply int) error {
	in := bufio.NewReader(r)
	out := bufio.NewWriter(w)
	defer out.Flush()

	for {
		propertyId, err := in.ReadByte()
		if err != nil {
			return err
		}

		var length uint16
		if err := binary.Read(in, binary.LittleEndian, &length); err != nil {
			return err
		}

		payload := make([]byte, length)
		if _, err := io.ReadFull(in, payload); err != nil {
			return err
		}

		reply, handled := module.Dispatch(filexfer.ObjectIndex, propertyId, payload, maxReply)
		if !handled {
			reply = nil
		}

		if err := binary.Write(out, binary.LittleEndian, uint16(len(reply))); err != nil {
			return err
		}
		if _, err := out.Write(reply); err != nil {
			return err
		}
		if err := out.Flush(); err != nil {
			return err
		}
	}
}
