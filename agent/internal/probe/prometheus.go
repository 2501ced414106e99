package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/NishDananjaya/echolink/agent/internal/config"
	"github.com/NishDananjaya/echolink/pkg/types"
)

const defaultScrapeTimeout = 10 * time.Second

// promProbe scrapes a Prometheus text exposition endpoint and reports the
// summed value of each metric family. An allowlist in the probe config limits
// which families are included; empty means all of them.
type promProbe struct {
	deviceID string
	cfg      config.Probe
	client   *http.Client
	allow    map[string]struct{}
}

func newPromProbe(deviceID string, cfg config.Probe) *promProbe {
	p := &promProbe{
		deviceID: deviceID,
		cfg:      cfg,
		client:   &http.Client{Timeout: defaultScrapeTimeout},
	}
	if len(cfg.Metrics) > 0 {
		p.allow = make(map[string]struct{}, len(cfg.Metrics))
		for _, name := range cfg.Metrics {
			p.allow[name] = struct{}{}
		}
	}
	return p
}

// Collect fetches the endpoint and flattens each family into one reading.
func (p *promProbe) Collect(ctx context.Context) (*types.Report, error) {
	mfs, err := fetchMetrics(ctx, p.client, p.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("prometheus probe %q: %w", p.cfg.ID, err)
	}

	r := types.NewReport(p.deviceID, p.cfg.ID)
	for name, mf := range mfs {
		if p.allow != nil {
			if _, ok := p.allow[name]; !ok {
				continue
			}
		}
		r.Metrics[name] = sumFamily(mf)
	}
	return r, nil
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric
// families. A partial result with a non-fatal parse warning still succeeds.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// sumFamily adds up all counter, gauge, or untyped values in a MetricFamily.
func sumFamily(mf *dto.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		switch {
		case m.Counter != nil:
			total += m.Counter.GetValue()
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
		}
	}
	return total
}
