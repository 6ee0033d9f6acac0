package main

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"
)

// MemoryMonitor periodically writes memory usage to the debug log.
type MemoryMonitor struct {
	logger   *log.Logger
	stopChan chan struct{}
	once     sync.Once
}

func NewMemoryMonitor(logger *log.Logger) *MemoryMonitor {
	return &MemoryMonitor{
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins periodic memory reports
func (mm *MemoryMonitor) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				mm.logger.Print(formatMemStats())
			case <-mm.stopChan:
				return
			}
		}
	}()
}

// Stop is safe to call more than once
func (mm *MemoryMonitor) Stop() {
	mm.once.Do(func() { close(mm.stopChan) })
}

func formatMemStats() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return fmt.Sprintf("Mem: %.1f MB | GC: %d | Routines: %d",
		float64(m.Alloc)/1024/1024,
		m.NumGC,
		runtime.NumGoroutine(),
	)
}
