package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Connect(ctx context.Context, address string) error
	Disconnect(ctx context.Context) error
	Reconnect(ctx context.Context) error
	Copy(ctx context.Context, text string) error
	History(ctx context.Context) error
	Refresh(ctx context.Context) error
	Clear(ctx context.Context) error
	Status(ctx context.Context) error
}

const helpText = `Available commands:
  connect [host[:port]]  connect to a relay (last one if omitted)
  disconnect             close the relay connection
  reconnect              connect to the last relay again
  copy <text>            record text as copied on this machine
  (h)istory | l          show the clipboard history
  refresh                ask the relay for its history
  clear                  empty the local history
  status                 show the connection state
  exit | quit            leave the program`

// runREPL reads a line from the scanner, parses the first token as the
// command, and dispatches to methods on a. The loop exits on scanner EOF,
// when ctx is done, or when the user types "exit" or "quit". The prompt is
// printed only when interactive.
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors.
func runREPL(ctx context.Context, a execIface, promptFn func() string, scanner *bufio.Scanner, interactive bool) {
	for {
		if ctx.Err() != nil {
			return
		}
		if interactive {
			printlnFn(promptFn())
		}
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch cmd {
		case "help":
			printlnFn(helpText)

		case "connect":
			_ = a.Connect(ctx, rest)

		case "disconnect":
			_ = a.Disconnect(ctx)

		case "reconnect":
			_ = a.Reconnect(ctx)

		case "copy":
			if rest == "" {
				printlnFn("Usage: copy <text>")
				continue
			}
			_ = a.Copy(ctx, rest)

		case "h", "l", "history":
			_ = a.History(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "clear":
			_ = a.Clear(ctx)

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
