// ptyview runs a shell inside a pseudo-terminal, feeds its output through the
// vt emulator and mirrors the emulated screen onto the controlling terminal.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/term"

	"tetherterm/internal/config"
	"tetherterm/internal/vt"
)

const (
	refreshInterval  = 50 * time.Millisecond
	resizeInterval   = 250 * time.Millisecond
	memStatsInterval = 10 * time.Second
)

func main() {
	settingsPath := flag.String("config", "", "settings file (default ~/.tetherterm/settings.yaml)")
	snapshot := flag.String("snapshot", "", "write a PNG of the final screen to this file")
	flag.Parse()

	if err := run(resolveSettingsPath(*settingsPath), *snapshot); err != nil {
		fmt.Fprintf(os.Stderr, "ptyview: %v\n", err)
		os.Exit(1)
	}
}

// resolveSettingsPath falls back to the app home only when no path was
// given, since resolving the default creates the directory.
func resolveSettingsPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return config.GetSettingsPath()
}

func run(settingsPath, snapshot string) error {
	// nothing may reach the screen before the mirror takes over
	log.SetOutput(io.Discard)

	settings, err := config.Load(settingsPath)
	if err != nil {
		return err
	}

	logger, closeLog, err := openLogger(settings)
	if err != nil {
		return err
	}
	defer closeLog()
	log.SetOutput(logger.Writer())

	enableVT()

	cols, rows := settings.Columns, settings.Rows
	if c, r, err := term.GetSize(int(os.Stdout.Fd())); err == nil && c > 0 && r > 0 {
		cols, rows = c, r
	}

	p, err := startPTY(settings.Shell, cols, rows)
	if err != nil {
		return err
	}
	defer p.Close()

	if state, err := term.MakeRaw(int(os.Stdin.Fd())); err == nil {
		defer term.Restore(int(os.Stdin.Fd()), state)
	} else {
		logger.Printf("Raw mode unavailable: %v", err)
	}

	terminal := vt.New(vt.Options{
		Columns:       cols,
		Rows:          rows,
		Scrollback:    settings.ScrollbackLines,
		NewlineMode:   settings.NewlineMode,
		BlinkInterval: settings.BlinkInterval(),
		Logger:        logger,
	})
	logger.Printf("Session %s started", terminal.ID())

	if settings.Debug {
		mm := NewMemoryMonitor(logger)
		mm.Start(memStatsInterval)
		defer mm.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var dirty atomic.Bool

	// PTY -> emulator
	go func() {
		br := bufio.NewReader(p)
		buf := make([]byte, 4096)
		for {
			n, err := br.Read(buf)
			if n > 0 {
				terminal.Feed(buf[:n])
				dirty.Store(true)
			}
			if err != nil {
				if err != io.EOF {
					logger.Printf("pty read error: %v", err)
				}
				return
			}
		}
	}()

	// stdin -> PTY
	go func() {
		if _, err := io.Copy(p, os.Stdin); err != nil {
			logger.Printf("stdin copy stopped: %v", err)
		}
	}()

	// Windows never delivers SIGWINCH, so poll on every platform
	go pollResize(ctx, p, terminal, cols, rows, &dirty)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	done := make(chan error, 1)
	go func() { done <- p.Wait(ctx) }()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			mirror(terminal)
			if err != nil {
				logger.Printf("Shell exited: %v", err)
			}
			return writeSnapshot(terminal, snapshot)
		case <-sigCh:
			dirty.Store(true)
		case <-ticker.C:
			if dirty.Swap(false) {
				mirror(terminal)
			}
		}
	}
}

func pollResize(ctx context.Context, p PTY, terminal *vt.Terminal, cols, rows int, dirty *atomic.Bool) {
	t := time.NewTicker(resizeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		c, r, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || c <= 0 || r <= 0 || (c == cols && r == rows) {
			continue
		}
		cols, rows = c, r
		if err := p.Resize(c, r); err != nil {
			log.Printf("pty resize failed: %v", err)
		}
		terminal.Resize(c, r)
		dirty.Store(true)
	}
}

// mirror repaints the controlling terminal with the emulated screen.
func mirror(terminal *vt.Terminal) {
	lines := terminal.Display()
	pos := terminal.Position()

	w := bufio.NewWriter(os.Stdout)
	_, _ = w.WriteString("\x1b[2J\x1b[H")
	for i, line := range lines {
		_, _ = w.WriteString(line)
		if i < len(lines)-1 {
			_, _ = w.WriteString("\r\n")
		}
	}
	fmt.Fprintf(w, "\x1b[%d;%dH", pos.Row+1, pos.Col+1)
	_ = w.Flush()
}

func writeSnapshot(terminal *vt.Terminal, path string) error {
	if path == "" {
		return nil
	}
	cols, rows := terminal.Size()
	surface := vt.NewImageSurface(cols, rows, nil)
	terminal.Redraw(surface)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, surface.Img); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// openLogger returns a file logger when debug is on and a discarding one
// otherwise.
func openLogger(settings *config.Settings) (*log.Logger, func(), error) {
	if !settings.Debug {
		return log.New(io.Discard, "", 0), func() {}, nil
	}

	path := settings.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return log.New(f, "", log.LstdFlags|log.Lmicroseconds), func() { f.Close() }, nil
}
