package system

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a snapshot of the host and of this process, for run reports.
type Stats struct {
	LogicalCPUs   int
	TotalMemMB    float64
	UsedMemPct    float64
	ProcessRSSMB  float64
	ProcessCPUPct float64
	Goroutines    int
}

// CollectStats gathers what the host exposes. Missing values stay zero.
func CollectStats() (Stats, error) {
	s := Stats{Goroutines: runtime.NumGoroutine()}

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	n, err := cpu.Counts(true)
	keep(err)
	s.LogicalCPUs = n

	if vm, err := mem.VirtualMemory(); err == nil {
		s.TotalMemMB = float64(vm.Total) / (1 << 20)
		s.UsedMemPct = vm.UsedPercent
	} else {
		keep(err)
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			s.ProcessRSSMB = float64(mi.RSS) / (1 << 20)
		} else {
			keep(err)
		}
		if pct, err := p.CPUPercent(); err == nil {
			s.ProcessCPUPct = pct
		} else {
			keep(err)
		}
	} else {
		keep(err)
	}

	return s, firstErr
}

func (s Stats) String() string {
	return fmt.Sprintf("CPUs: %d | RAM: %.0f MB (%.1f%% used) | RSS: %.1f MB | CPU: %.1f%% | Goroutines: %d",
		s.LogicalCPUs, s.TotalMemMB, s.UsedMemPct, s.ProcessRSSMB, s.ProcessCPUPct, s.Goroutines)
}
