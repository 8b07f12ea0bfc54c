package report

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Environment describes the machine a benchmark ran on
type Environment struct {
	CPUModel    string `json:"cpu_model" yaml:"cpu_model"`
	CPUThreads  int    `json:"cpu_threads" yaml:"cpu_threads"`
	MemoryTotal uint64 `json:"memory_total_bytes" yaml:"memory_total_bytes"`
	OS          string `json:"os" yaml:"os"`
	Arch        string `json:"arch" yaml:"arch"`
	GoVersion   string `json:"go_version" yaml:"go_version"`
}

// CollectEnvironment takes a best effort snapshot. Fields that could not
// be read keep a fallback value; the joined errors are returned with it.
func CollectEnvironment() (*Environment, error) {
	env := &Environment{
		CPUModel:   "unknown",
		CPUThreads: runtime.NumCPU(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		GoVersion:  runtime.Version(),
	}

	var errs []error

	if infos, err := cpu.Info(); err != nil {
		errs = append(errs, fmt.Errorf("cpu info: %w", err))
	} else if len(infos) > 0 && infos[0].ModelName != "" {
		env.CPUModel = infos[0].ModelName
	}

	if threads, err := cpu.Counts(true); err != nil {
		errs = append(errs, fmt.Errorf("cpu counts: %w", err))
	} else if threads > 0 {
		env.CPUThreads = threads
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		errs = append(errs, fmt.Errorf("memory: %w", err))
	} else {
		env.MemoryTotal = vm.Total
	}

	return env, errors.Join(errs...)
}
