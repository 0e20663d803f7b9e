// Package temporal dials the Temporal frontend with the shared logger and tracing interceptor.
package temporal

import (
	"errors"
	"log/slog"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	"github.com/Apurer/order-saga/internal/platform/config"
	platformobservability "github.com/Apurer/order-saga/internal/platform/observability"
)

// ErrDisabled is returned when TEMPORAL_DISABLED is set.
var ErrDisabled = errors.New("temporal disabled via TEMPORAL_DISABLED env")

// Settings locate the Temporal frontend.
type Settings struct {
	Address   string
	Namespace string
	Disabled  bool
}

// LoadSettings reads TEMPORAL_ADDRESS, TEMPORAL_NAMESPACE and TEMPORAL_DISABLED.
func LoadSettings() Settings {
	return Settings{
		Address:   config.EnvDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: config.EnvDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Disabled:  config.IsTruthy(config.EnvDefault("TEMPORAL_DISABLED", "")),
	}
}

// Dial connects a client whose workflow and activity calls are traced.
func Dial(s Settings, instruments *platformobservability.Instruments, component string) (client.Client, error) {
	if s.Disabled {
		return nil, ErrDisabled
	}
	tracerOptions := temporalotel.TracerOptions{}
	logger := slog.Default()
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer(component)
		if instruments.Logger != nil {
			logger = instruments.Logger
		}
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  s.Address,
		Namespace: s.Namespace,
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}
