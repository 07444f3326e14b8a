// Package main provides the entry point for the brainlib CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/Aman-CERP/brainlib/cmd/brainlib/cmd"
)

func main() {
	os.Exit(run())
}

// run executes the CLI. A panic that escapes every command is logged and
// reported as exit code 2.
func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			fmt.Fprintf(os.Stderr, "brainlib: internal error: %v\n", r)
			code = 2
		}
	}()

	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}
