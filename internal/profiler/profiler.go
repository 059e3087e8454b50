// Copyright 2025 Ehab Terra
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package profiler captures pprof profiles and execution traces around a
// command run.
package profiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"

	"github.com/projectdiscovery/gologger"
)

// ProfilerConfig holds configuration for profiling
type ProfilerConfig struct {
	CPUProfile     bool
	CPUProfilePath string

	MemProfile     bool
	MemProfilePath string

	TraceProfile     bool
	TraceProfilePath string

	// Output directory for all profiles
	OutputDir string
}

// DefaultProfilerConfig returns a default profiling configuration
func DefaultProfilerConfig() *ProfilerConfig {
	return &ProfilerConfig{
		CPUProfilePath:   "cpu.prof",
		MemProfilePath:   "mem.prof",
		TraceProfilePath: "trace.out",
		OutputDir:        "profiles",
	}
}

// Enabled reports whether any profile is requested.
func (c *ProfilerConfig) Enabled() bool {
	return c.CPUProfile || c.MemProfile || c.TraceProfile
}

// Profiler manages the profiles of one run. Start and Stop must be paired.
type Profiler struct {
	config *ProfilerConfig
	mu     sync.Mutex

	cpuFile   *os.File
	traceFile *os.File
	running   bool
}

// NewProfiler creates a new profiler instance
func NewProfiler(config *ProfilerConfig) *Profiler {
	if config == nil {
		config = DefaultProfilerConfig()
	}
	return &Profiler{config: config}
}

// Start begins the requested profiles.
func (p *Profiler) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return errors.New("profiler already started")
	}
	if !p.config.Enabled() {
		return nil
	}
	if p.config.OutputDir != "" {
		if err := os.MkdirAll(p.config.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if p.config.CPUProfile {
		if err := p.startCPUProfile(); err != nil {
			return fmt.Errorf("failed to start CPU profiling: %w", err)
		}
	}
	if p.config.TraceProfile {
		if err := p.startTraceProfile(); err != nil {
			p.stopCPUProfile()
			return fmt.Errorf("failed to start trace profiling: %w", err)
		}
	}
	p.running = true
	return nil
}

// Stop ends the running profiles and writes the heap profile if requested.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}
	p.running = false

	var errs []error
	if err := p.stopCPUProfile(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close CPU profile file: %w", err))
	}
	if p.traceFile != nil {
		trace.Stop()
		if err := p.traceFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close trace file: %w", err))
		}
		p.traceFile = nil
	}
	if p.config.MemProfile {
		if err := p.writeMemProfile(); err != nil {
			errs = append(errs, fmt.Errorf("failed to write memory profile: %w", err))
		}
	}
	return errors.Join(errs...)
}

// IsProfiling reports whether profiles are being captured.
func (p *Profiler) IsProfiling() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Profiler) path(name string) string {
	return filepath.Join(p.config.OutputDir, name)
}

func (p *Profiler) startCPUProfile() error {
	filePath := p.path(p.config.CPUProfilePath)
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(file); err != nil {
		_ = file.Close()
		return err
	}
	p.cpuFile = file
	gologger.Info().Msgf("CPU profiling started: %s", filePath)
	return nil
}

func (p *Profiler) stopCPUProfile() error {
	if p.cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := p.cpuFile.Close()
	p.cpuFile = nil
	return err
}

func (p *Profiler) startTraceProfile() error {
	filePath := p.path(p.config.TraceProfilePath)
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	if err := trace.Start(file); err != nil {
		_ = file.Close()
		return err
	}
	p.traceFile = file
	gologger.Info().Msgf("Trace profiling started: %s", filePath)
	return nil
}

func (p *Profiler) writeMemProfile() error {
	filePath := p.path(p.config.MemProfilePath)
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	// up-to-date allocation statistics
	runtime.GC()
	if err := pprof.WriteHeapProfile(file); err != nil {
		return err
	}
	gologger.Info().Msgf("Memory profile written: %s", filePath)
	return nil
}
