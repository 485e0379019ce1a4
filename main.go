// entry point

package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cpm80/cpmemu/consolein"
	"github.com/cpm80/cpmemu/consoleout"
	"github.com/cpm80/cpmemu/cpm"
	"github.com/cpm80/cpmemu/version"
)

func main() {
	// Deferred teardown must run before we exit, so the real work
	// happens in a helper.
	os.Exit(run())
}

func run() int {

	callTrace := flag.Bool("call-trace", false, "log the BDOS and BIOS calls programs make")
	cpuTrace := flag.Bool("cpu-trace", false, "log every instruction executed - very noisy")
	inputDriver := flag.String("input", "term", "name of the console input driver to use")
	outputDriver := flag.String("output", "adm-3a", "name of the console output driver to use")
	showVersion := flag.Bool("version", false, "show our version, and exit")
	flag.Parse()

	if *showVersion {
		fmt.Print(version.GetVersionBanner())
		return 0
	}

	// Default to warnings or higher; the tracing flags raise the
	// verbosity.
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	if *callTrace {
		lvl.Set(slog.LevelInfo)
	}
	if *cpuTrace {
		lvl.Set(slog.LevelDebug)
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	}))

	input, err := consolein.New(*inputDriver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create input driver: %s\n", err)
		return 1
	}
	output, err := consoleout.New(*outputDriver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create output driver: %s\n", err)
		return 1
	}

	// The input driver changes terminal state, so it must be
	// restored however we leave.
	err = input.Setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup console: %s\n", err)
		return 1
	}
	defer func() {
		if err := input.TearDown(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to restore console: %s\n", err)
		}
	}()

	obj := cpm.New(log, input, output)
	defer obj.Cleanup()

	// With a binary named we run it directly; with no arguments
	// at all we launch the command processor instead.
	args := flag.Args()
	if len(args) > 0 {
		err = obj.LoadBinary(args[0], args[1:])
	} else {
		err = obj.LoadCCP()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\r\n", err)
		return 1
	}

	err = obj.Execute()

	switch {
	case errors.Is(err, cpm.ErrExit):
		fmt.Printf("\r\nProgram terminated.\r\n")
		return 0
	case errors.Is(err, cpm.ErrHalt):
		fmt.Fprintf(os.Stderr, "\r\nThe CPU executed a HALT instruction.\r\n")
		return 1
	case errors.Is(err, cpm.ErrRunaway):
		fmt.Fprintf(os.Stderr, "\r\nExecution ran into the reserved memory area.\r\n")
		return 1
	default:
		fmt.Fprintf(os.Stderr, "\r\nError running program: %s\r\n", err)
		return 1
	}
}
