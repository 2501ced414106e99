package probe

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"github.com/NishDananjaya/echolink/agent/internal/config"
)

// fakeCollectors returns deterministic readings mimicking a small board.
func fakeCollectors() collectors {
	return collectors{
		cpuPercent: func(context.Context, time.Duration, bool) ([]float64, error) {
			return []float64{42.5}, nil
		},
		cpuInfo: func(context.Context) ([]cpu.InfoStat, error) {
			return []cpu.InfoStat{{Mhz: 1500}}, nil
		},
		virtualMem: func(context.Context) (*mem.VirtualMemoryStat, error) {
			return &mem.VirtualMemoryStat{Total: 4 * gib, Used: 1 * gib, UsedPercent: 25}, nil
		},
		diskUsage: func(_ context.Context, path string) (*disk.UsageStat, error) {
			if path != "/data" {
				return nil, errors.New("unexpected path " + path)
			}
			return &disk.UsageStat{Total: 32 * gib, Used: 8 * gib, Free: 24 * gib, UsedPercent: 25}, nil
		},
		netCounts: func(context.Context, bool) ([]net.IOCountersStat, error) {
			return []net.IOCountersStat{{BytesSent: 2 * gib, BytesRecv: 3 * gib}}, nil
		},
		uptime: func(context.Context) (uint64, error) {
			return 3661, nil // 1h1m1s
		},
		sensors: func(context.Context) ([]host.TemperatureStat, error) {
			return []host.TemperatureStat{
				{SensorKey: "acpitz", Temperature: 30},
				{SensorKey: "coretemp_core0", Temperature: 55.5},
			}, nil
		},
	}
}

func TestSystemProbe_Collect(t *testing.T) {
	p := newSystemProbe("dev-1", config.Probe{ID: "sys", Type: "system", DiskPath: "/data"})
	p.col = fakeCollectors()

	r, err := p.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	want := map[string]float64{
		"cpu_percent":   42.5,
		"cpu_freq_mhz":  1500,
		"mem_total_gb":  4,
		"mem_used_gb":   1,
		"mem_percent":   25,
		"disk_total_gb": 32,
		"disk_used_gb":  8,
		"disk_free_gb":  24,
		"disk_percent":  25,
		"net_sent_gb":   2,
		"net_recv_gb":   3,
		"cpu_temp_c":    55.5,
	}
	for k, v := range want {
		if got := r.Metrics[k]; got != v {
			t.Errorf("%s: got %v, want %v", k, got, v)
		}
	}
	if r.Uptime != "1h1m1s" {
		t.Errorf("uptime: got %q, want 1h1m1s", r.Uptime)
	}
	if r.Timestamp == "" {
		t.Error("timestamp: missing")
	}
}

func TestSystemProbe_PartialFailuresOmitReadings(t *testing.T) {
	col := fakeCollectors()
	col.cpuPercent = func(context.Context, time.Duration, bool) ([]float64, error) {
		return nil, errors.New("no cpu stats")
	}
	col.sensors = func(context.Context) ([]host.TemperatureStat, error) {
		return nil, errors.New("no sensors")
	}

	p := newSystemProbe("dev-1", config.Probe{ID: "sys", Type: "system", DiskPath: "/data"})
	p.col = col

	r, err := p.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if _, ok := r.Metrics["cpu_percent"]; ok {
		t.Error("cpu_percent present despite collector failure")
	}
	if _, ok := r.Metrics["cpu_temp_c"]; ok {
		t.Error("cpu_temp_c present despite sensor failure")
	}
	// The rest of the report survives.
	if got := r.Metrics["mem_percent"]; got != 25 {
		t.Errorf("mem_percent: got %v, want 25", got)
	}
}

func TestSystemProbe_ReportIsValidJSON(t *testing.T) {
	p := newSystemProbe("dev-1", config.Probe{ID: "sys", Type: "system", DiskPath: "/data"})
	p.col = fakeCollectors()

	r, err := p.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !json.Valid(data) {
		t.Error("report does not encode to valid JSON")
	}
}
