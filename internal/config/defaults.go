package config

import (
	"time"

	"github.com/signalsfoundry/commnet-calculator/core"
	"github.com/signalsfoundry/commnet-calculator/internal/observability"
	"github.com/spf13/viper"
)

const (
	defaultCurve           = CurveSmoothstep
	defaultKnee            = 0.5
	defaultKneeStrength    = 0.75
	defaultRangeModifier   = 1.0
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"
	defaultGRPCAddr        = ":50061"
	defaultHTTPAddr        = ":8080"
	defaultMetricsAddr     = ":9090"
	defaultShutdownTimeout = 5 * time.Second
	defaultTracingService  = "commnet"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("defaults.from", core.DefaultFromDevice)
	v.SetDefault("defaults.to", core.DefaultToDevice)

	v.SetDefault("devices.files", []string{})
	v.SetDefault("devices.watch", false)

	v.SetDefault("range.modifier", defaultRangeModifier)

	v.SetDefault("signal.curve", defaultCurve)
	v.SetDefault("signal.knee", defaultKnee)
	v.SetDefault("signal.knee_strength", defaultKneeStrength)
	v.SetDefault("signal.bands", []map[string]any{})
	v.SetDefault("signal.show_references", true)
	v.SetDefault("signal.references", []map[string]any{})

	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.add_source", false)

	v.SetDefault("server.grpc_addr", defaultGRPCAddr)
	v.SetDefault("server.http_addr", defaultHTTPAddr)
	v.SetDefault("server.metrics_addr", defaultMetricsAddr)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", defaultTracingService)
	v.SetDefault("tracing.exporter", observability.ExporterStdout)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_ratio", 1.0)
}
