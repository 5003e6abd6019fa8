package main

import (
	"os"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// maxprocs.Set only fails if GOMAXPROCS is invalid, in which case the
	// runtime default applies. The limiter is sized from the result.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))

	os.Exit(run(os.Args[1:], DefaultDeps()))
}
