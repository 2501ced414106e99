package probe

import (
	"context"
	"fmt"

	"github.com/NishDananjaya/echolink/agent/internal/config"
	"github.com/NishDananjaya/echolink/pkg/types"
)

// Probe is the common interface implemented by every metric collector.
type Probe interface {
	// Collect produces one report. Partial data is acceptable: a probe that
	// cannot read some readings returns what it has.
	Collect(ctx context.Context) (*types.Report, error)
}

// New returns the appropriate Probe for the given probe configuration.
func New(deviceID string, p config.Probe) (Probe, error) {
	switch p.Type {
	case "system":
		return newSystemProbe(deviceID, p), nil
	case "prometheus":
		return newPromProbe(deviceID, p), nil
	default:
		return nil, fmt.Errorf("probe: unsupported type %q", p.Type)
	}
}
