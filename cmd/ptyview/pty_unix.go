//go:build !windows

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"

	"github.com/creack/pty"
)

type unixPTY struct {
	file *os.File
	cmd  *exec.Cmd
}

func defaultShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	if runtime.GOOS == "darwin" {
		return "/bin/zsh"
	}
	return "/bin/bash"
}

func startPTY(shell string, cols, rows int) (PTY, error) {
	if shell == "" {
		shell = defaultShell()
	}

	cmd := exec.Command(shell)
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
		fmt.Sprintf("COLUMNS=%d", cols),
		fmt.Sprintf("LINES=%d", rows),
		"LANG=C.UTF-8",
	)

	f, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", shell, err)
	}
	log.Printf("Started %s with PTY (%dx%d)", shell, cols, rows)
	return &unixPTY{file: f, cmd: cmd}, nil
}

func (u *unixPTY) Read(p []byte) (int, error)  { return u.file.Read(p) }
func (u *unixPTY) Write(p []byte) (int, error) { return u.file.Write(p) }

func (u *unixPTY) Resize(cols, rows int) error {
	return pty.Setsize(u.file, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

func (u *unixPTY) Wait(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- u.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (u *unixPTY) Close() error {
	var errs []error
	if err := u.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pty: %w", err))
	}
	if u.cmd.Process != nil {
		if err := u.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			errs = append(errs, fmt.Errorf("kill shell: %w", err))
		}
	}
	return errors.Join(errs...)
}

// enableVT is only needed for Windows consoles.
func enableVT() {}
