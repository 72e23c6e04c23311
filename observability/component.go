package observability

import (
	"context"
	stderrors "errors"
	"sync"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/boundq/component"
)

// ComponentName is the registry name of the telemetry component.
const ComponentName = "telemetry"

// Component owns the tracer and meter providers for the process. When the
// config is disabled Start is a no-op and the global no-op providers stay.
type Component struct {
	cfg Config

	mu      sync.Mutex
	tp      *sdktrace.TracerProvider
	mp      *sdkmetric.MeterProvider
	started bool
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a telemetry component for cfg.
func NewComponent(cfg Config) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg}
}

// Name implements component.Component.
func (c *Component) Name() string { return ComponentName }

// Start creates and installs the providers when enabled.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cfg.Enabled || c.started {
		return nil
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	tp, err := InitTracer(ctx, c.cfg)
	if err != nil {
		return err
	}
	mp, err := InitMeter(ctx, c.cfg)
	if err != nil {
		return stderrors.Join(err, tp.Shutdown(ctx))
	}
	c.tp, c.mp, c.started = tp, mp, true
	return nil
}

// Stop flushes and shuts down both providers.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}
	c.started = false
	return stderrors.Join(c.tp.Shutdown(ctx), c.mp.Shutdown(ctx))
}

// Health implements component.Component.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := component.Health{Name: ComponentName}
	switch {
	case !c.cfg.Enabled:
		h.Status = component.StatusDisabled
	case c.started:
		h.Status = component.StatusHealthy
		h.Message = "exporting to " + c.cfg.Endpoint
	default:
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	}
	return h
}
