package health

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Report carries process and host resource stats for the health endpoint.
// Fields that cannot be sampled are left at zero rather than failing the
// endpoint.
type Report struct {
	UptimeSeconds  float64 `json:"uptime_seconds"`
	Goroutines     int     `json:"goroutines"`
	RSSBytes       uint64  `json:"rss_bytes"`
	CPUPercent     float64 `json:"cpu_percent"`
	HostMemPercent float64 `json:"host_mem_percent"`
}

// Probe samples resource usage of the running server process.
type Probe struct {
	start time.Time
	proc  *process.Process
}

func NewProbe() *Probe {
	p := &Probe{start: time.Now()}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		p.proc = proc
	}
	return p
}

func (p *Probe) Report() Report {
	r := Report{
		UptimeSeconds: time.Since(p.start).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
	}
	if p.proc != nil {
		if mi, err := p.proc.MemoryInfo(); err == nil {
			r.RSSBytes = mi.RSS
		}
		if cpu, err := p.proc.CPUPercent(); err == nil {
			r.CPUPercent = cpu
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		r.HostMemPercent = vm.UsedPercent
	}
	return r
}
