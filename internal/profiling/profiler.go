// Package profiling captures CPU, heap, and execution-trace profiles
// for one command run.
package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Session owns the profile outputs for a single command invocation.
// Paths left empty skip that profile, so the flags map onto one
// session regardless of which were set.
type Session struct {
	cpuPath   string
	heapPath  string
	tracePath string

	cpuFile   *os.File
	traceFile *os.File
}

// NewSession prepares a session writing the requested profiles.
func NewSession(cpuPath, heapPath, tracePath string) *Session {
	return &Session{cpuPath: cpuPath, heapPath: heapPath, tracePath: tracePath}
}

// Active reports whether any profile output was requested.
func (s *Session) Active() bool {
	return s.cpuPath != "" || s.heapPath != "" || s.tracePath != ""
}

// Start begins CPU profiling and execution tracing. On error anything
// already started is stopped again, so a failed Start needs no Stop.
func (s *Session) Start() error {
	if s.cpuPath != "" {
		f, err := os.Create(s.cpuPath)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile file: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		s.cpuFile = f
	}

	if s.tracePath != "" {
		f, err := os.Create(s.tracePath)
		if err != nil {
			s.stopCPU()
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			s.stopCPU()
			return fmt.Errorf("failed to start trace: %w", err)
		}
		s.traceFile = f
	}

	return nil
}

// Stop ends CPU profiling and tracing, then writes the heap profile
// if one was requested. The heap is captured last so it reflects the
// whole run.
func (s *Session) Stop() error {
	s.stopCPU()
	if s.traceFile != nil {
		trace.Stop()
		_ = s.traceFile.Close()
		s.traceFile = nil
	}

	if s.heapPath != "" {
		return writeHeap(s.heapPath)
	}
	return nil
}

func (s *Session) stopCPU() {
	if s.cpuFile == nil {
		return
	}
	pprof.StopCPUProfile()
	_ = s.cpuFile.Close()
	s.cpuFile = nil
}

// writeHeap snapshots live heap allocations to path. A GC runs first
// so the profile reflects reachable memory, not collectable garbage.
func writeHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create heap profile file: %w", err)
	}
	defer func() { _ = f.Close() }()

	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write heap profile: %w", err)
	}
	return nil
}
