package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// run dispatches to a command and returns the process exit code.
// With no command, or a leading flag, docpress serves.
func run(args []string, deps *Dependencies) int {
	cmd := "serve"
	if len(args) > 0 {
		switch {
		case args[0] == "-h" || args[0] == "--help":
			cmd, args = "help", nil
		case !strings.HasPrefix(args[0], "-"):
			cmd, args = args[0], args[1:]
		}
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	var err error
	switch cmd {
	case "serve":
		err = runServe(ctx, args, deps)
	case "render":
		err = runRender(ctx, args, deps)
	case "doctor":
		return runDoctorCmd(ctx, args, deps)
	case "config":
		err = runConfigCmd(args, deps)
	case "version":
		fmt.Fprintf(deps.Stdout, "docpress %s\n", Version)
		return ExitSuccess
	case "help":
		return runHelp(args, deps)
	default:
		fmt.Fprintf(deps.Stderr, "docpress: unknown command %q\n\n", cmd)
		printUsage(deps.Stderr)
		return ExitUsage
	}

	if errors.Is(err, flag.ErrHelp) {
		commandUsage[cmd](deps.Stdout)
		return ExitSuccess
	}
	if err != nil {
		printErr(deps.Stderr, err)
	}
	return exitCodeFor(err)
}
