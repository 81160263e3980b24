// Package health samples the gateway host: CPU load, memory, disk and
// uptime. The sample rides along in the periodic status report so the fleet
// dashboard can spot a struggling host before it goes quiet.
package health

import (
	"log/slog"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/nolfonzo/SensorSentinel/internal/model"
)

// Collect gathers one host sample. Failing probes log a warning and leave
// their fields zero; a partial sample beats none on a struggling host.
func Collect() model.HealthSample {
	var s model.HealthSample

	// Interval 0 measures load since the previous call, which matches the
	// heartbeat cadence without blocking the caller.
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	} else if err != nil {
		slog.Warn("sample cpu", "err", err)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		// Total - Available counts memory applications actually hold,
		// leaving out cache the kernel would drop on demand.
		s.MemUsedMB = float64(vm.Total-vm.Available) / 1024.0 / 1024.0
		s.MemTotalMB = float64(vm.Total) / 1024.0 / 1024.0
	} else {
		slog.Warn("sample memory", "err", err)
	}

	if du, err := disk.Usage("/"); err == nil {
		s.DiskUsedGB = float64(du.Used) / 1024.0 / 1024.0 / 1024.0
		s.DiskTotalGB = float64(du.Total) / 1024.0 / 1024.0 / 1024.0
	} else {
		slog.Warn("sample disk", "err", err)
	}

	if up, err := host.Uptime(); err == nil {
		s.HostUptimeSec = up
	} else {
		slog.Warn("sample uptime", "err", err)
	}

	return s
}
