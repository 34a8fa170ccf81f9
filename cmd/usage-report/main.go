// Command usage-report runs the usage dashboard's analyses from the command line.
//
// Purpose:
//
//	Produce the aircraft workbook and hardware CSV on demand and print the
//	starting locations, scenery gateway and release catalogue tables without
//	running the web service.
//
// Dependencies:
//   - internal/commands: Cobra command implementations
//   - internal/config: GA credentials and cache settings from the environment
//
// Exit codes: 0 success, 1 error, 2 bad flags or configuration, 3 upstream unavailable.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/X-Plane/dashboard/internal/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := commands.NewRootCommand(commands.Deps{Out: os.Stdout})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(commands.ExitCode(err))
	}
}
