// Package cli provides the interactive clipsync command-line client.
//
// App exposes the sync service as REPL commands; Printer renders history and
// connection notifications pushed by the service. The prompt is only printed
// when stdin is a terminal, so the client can also be driven from a pipe:
//
//	printf 'connect relay.lan\ncopy hello\nhistory\n' | clipsync
//
// The REPL is started via App.Run(ctx, in), which blocks until the user
// exits or input ends.
package cli
