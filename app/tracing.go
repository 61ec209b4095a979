package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.ntppool.org/common/config/depenv"
	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/tracing"
)

func deploymentEnvironment(s string) (depenv.DeploymentEnvironment, error) {
	depEnv := depenv.DeploymentEnvironmentFromString(s)
	if depEnv == depenv.DeployUndefined {
		return depEnv, fmt.Errorf("invalid deployment environment: %q", s)
	}
	return depEnv, nil
}

// initTracing sets up the OTLP exporter when an endpoint is configured
// in the environment. The returned function is always safe to call.
func initTracing(ctx context.Context, deployEnv depenv.DeploymentEnvironment) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	if ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); len(ep) == 0 {
		return noop, nil
	}

	tpShutdownFn, err := tracing.InitTracer(ctx,
		&tracing.TracerConfig{
			ServiceName: "mothmailer",
			Environment: deployEnv.String(),
		},
	)
	if err != nil {
		return noop, err
	}

	return func(ctx context.Context) error {
		log := logger.FromContext(ctx)
		log.Debug("shutting down trace provider")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return tpShutdownFn(shutdownCtx)
	}, nil
}
