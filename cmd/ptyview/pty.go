package main

import (
	"context"
	"io"
)

// PTY is the child process side of a session, abstracted over creack/pty
// and Windows ConPTY.
type PTY interface {
	io.ReadWriteCloser
	Resize(cols, rows int) error
	// Wait blocks until the child exits.
	Wait(ctx context.Context) error
}
