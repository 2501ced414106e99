package probe

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"github.com/NishDananjaya/echolink/agent/internal/config"
	"github.com/NishDananjaya/echolink/pkg/types"
)

const gib = 1024 * 1024 * 1024

// cpuSampleInterval is how long the CPU percentage reading samples for.
const cpuSampleInterval = time.Second

// collectors groups the gopsutil entry points so tests can substitute
// deterministic readings.
type collectors struct {
	cpuPercent func(ctx context.Context, interval time.Duration, percpu bool) ([]float64, error)
	cpuInfo    func(ctx context.Context) ([]cpu.InfoStat, error)
	virtualMem func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	diskUsage  func(ctx context.Context, path string) (*disk.UsageStat, error)
	netCounts  func(ctx context.Context, pernic bool) ([]net.IOCountersStat, error)
	uptime     func(ctx context.Context) (uint64, error)
	sensors    func(ctx context.Context) ([]host.TemperatureStat, error)
}

func defaultCollectors() collectors {
	return collectors{
		cpuPercent: cpu.PercentWithContext,
		cpuInfo:    cpu.InfoWithContext,
		virtualMem: mem.VirtualMemoryWithContext,
		diskUsage:  disk.UsageWithContext,
		netCounts:  net.IOCountersWithContext,
		uptime:     host.UptimeWithContext,
		sensors:    host.SensorsTemperaturesWithContext,
	}
}

// systemProbe reports host-level readings: CPU load and frequency, memory,
// disk usage for one mount point, network byte counters, uptime, and CPU
// temperature where the platform exposes a sensor.
type systemProbe struct {
	deviceID string
	cfg      config.Probe
	col      collectors
}

func newSystemProbe(deviceID string, cfg config.Probe) *systemProbe {
	return &systemProbe{deviceID: deviceID, cfg: cfg, col: defaultCollectors()}
}

// Collect gathers one system report. Readings that fail are logged and
// omitted; the report itself is always returned.
func (p *systemProbe) Collect(ctx context.Context) (*types.Report, error) {
	r := types.NewReport(p.deviceID, p.cfg.ID)

	if pct, err := p.col.cpuPercent(ctx, cpuSampleInterval, false); err == nil && len(pct) > 0 {
		r.Metrics["cpu_percent"] = pct[0]
	} else if err != nil {
		slog.Warn("probe: cpu percent unavailable", "probe", p.cfg.ID, "err", err)
	}

	if info, err := p.col.cpuInfo(ctx); err == nil && len(info) > 0 {
		r.Metrics["cpu_freq_mhz"] = info[0].Mhz
	}

	if vm, err := p.col.virtualMem(ctx); err == nil && vm != nil {
		r.Metrics["mem_total_gb"] = float64(vm.Total) / gib
		r.Metrics["mem_used_gb"] = float64(vm.Used) / gib
		r.Metrics["mem_percent"] = vm.UsedPercent
	} else if err != nil {
		slog.Warn("probe: memory stats unavailable", "probe", p.cfg.ID, "err", err)
	}

	if du, err := p.col.diskUsage(ctx, p.cfg.DiskPath); err == nil && du != nil {
		r.Metrics["disk_total_gb"] = float64(du.Total) / gib
		r.Metrics["disk_used_gb"] = float64(du.Used) / gib
		r.Metrics["disk_free_gb"] = float64(du.Free) / gib
		r.Metrics["disk_percent"] = du.UsedPercent
	} else if err != nil {
		slog.Warn("probe: disk stats unavailable", "probe", p.cfg.ID, "path", p.cfg.DiskPath, "err", err)
	}

	if counters, err := p.col.netCounts(ctx, false); err == nil && len(counters) > 0 {
		r.Metrics["net_sent_gb"] = float64(counters[0].BytesSent) / gib
		r.Metrics["net_recv_gb"] = float64(counters[0].BytesRecv) / gib
	}

	if secs, err := p.col.uptime(ctx); err == nil {
		r.Uptime = (time.Duration(secs) * time.Second).String()
	}

	if temp, ok := cpuTemperature(ctx, p.col.sensors); ok {
		r.Metrics["cpu_temp_c"] = temp
	}

	return r, nil
}

// cpuTemperature finds the first CPU-looking sensor reading. Many boards
// expose none; that is not an error.
func cpuTemperature(ctx context.Context, sensors func(context.Context) ([]host.TemperatureStat, error)) (float64, bool) {
	stats, err := sensors(ctx)
	if err != nil {
		return 0, false
	}
	for _, s := range stats {
		key := strings.ToLower(s.SensorKey)
		if strings.Contains(key, "coretemp") || strings.Contains(key, "cpu") || strings.Contains(key, "k10temp") {
			return s.Temperature, true
		}
	}
	return 0, false
}
