//go:build windows

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/UserExistsError/conpty"
	"golang.org/x/sys/windows"
)

type windowsPTY struct {
	cpty *conpty.ConPty
}

func defaultShell() string {
	if comspec := os.Getenv("COMSPEC"); comspec != "" {
		return comspec
	}
	return `C:\Windows\System32\cmd.exe`
}

func startPTY(shell string, cols, rows int) (PTY, error) {
	if shell == "" {
		shell = defaultShell()
	}
	if !conpty.IsConPtyAvailable() {
		return nil, fmt.Errorf("ConPTY is not available on this Windows build (needs 1809+)")
	}

	cpty, err := conpty.Start(shell, conpty.ConPtyDimensions(cols, rows))
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", shell, err)
	}
	log.Printf("Started %s with ConPTY (%dx%d)", shell, cols, rows)
	return &windowsPTY{cpty: cpty}, nil
}

func (w *windowsPTY) Read(p []byte) (int, error)  { return w.cpty.Read(p) }
func (w *windowsPTY) Write(p []byte) (int, error) { return w.cpty.Write(p) }
func (w *windowsPTY) Close() error                { return w.cpty.Close() }

func (w *windowsPTY) Resize(cols, rows int) error {
	return w.cpty.Resize(cols, rows)
}

func (w *windowsPTY) Wait(ctx context.Context) error {
	code, err := w.cpty.Wait(ctx)
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("shell exited with code %d", code)
	}
	return nil
}

func enableVT() {
	stdout := windows.Handle(os.Stdout.Fd())
	var mode uint32
	_ = windows.GetConsoleMode(stdout, &mode)
	mode |= windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING | windows.ENABLE_PROCESSED_OUTPUT
	_ = windows.SetConsoleMode(stdout, mode)
}
