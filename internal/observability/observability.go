// Package observability configures the process-wide logging pipeline: a
// console slog handler, optionally fanned out to an OpenTelemetry log
// exporter for centralized collection.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// instrumentationName identifies this service in exported log records.
const instrumentationName = "github.com/hllvc/mtg-tagger"

// Exporter selects the OpenTelemetry log exporter.
type Exporter string

const (
	ExporterNone     Exporter = "none"
	ExporterStdout   Exporter = "stdout"
	ExporterOTLPGRPC Exporter = "otlp-grpc"
	ExporterOTLPHTTP Exporter = "otlp-http"
)

// Config describes the logging pipeline.
type Config struct {
	// Level is the minimum severity for both console and exported logs.
	Level slog.Level
	// Format is the console handler format: "text" or "json".
	Format string
	// Exporter selects the OpenTelemetry exporter, if any.
	Exporter Exporter
	// Endpoint overrides the OTLP endpoint (host:port). Empty defers to the
	// exporter's own defaults and environment.
	Endpoint string
	// Insecure disables TLS on OTLP connections (local collectors).
	Insecure bool
}

// Instrument installs the process-wide slog default. Returns a shutdown
// function that flushes any exporter; it is a no-op when no exporter is
// configured.
func Instrument(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var console slog.Handler
	switch cfg.Format {
	case "json":
		console = slog.NewJSONHandler(os.Stderr, opts)
	case "text", "":
		console = slog.NewTextHandler(os.Stderr, opts)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}

	if cfg.Exporter == "" || cfg.Exporter == ExporterNone {
		slog.SetDefault(slog.New(console))
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating log exporter: %w", err)
	}

	// The severity filter keeps the exporter aligned with the console level.
	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severityFor(cfg.Level))
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))

	otelHandler := otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider))
	slog.SetDefault(slog.New(newFanoutHandler(console, otelHandler)))

	return provider.Shutdown, nil
}

// newExporter builds the configured OTLP or stdout log exporter.
func newExporter(ctx context.Context, cfg Config) (sdklog.Exporter, error) {
	switch cfg.Exporter {
	case ExporterStdout:
		return stdoutlog.New()
	case ExporterOTLPGRPC:
		var opts []otlploggrpc.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlploggrpc.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlploggrpc.WithInsecure())
		}
		return otlploggrpc.New(ctx, opts...)
	case ExporterOTLPHTTP:
		var opts []otlploghttp.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlploghttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		return otlploghttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported exporter: %s", cfg.Exporter)
	}
}

// severityFor maps an slog level to the minimum exported severity.
func severityFor(level slog.Level) minsev.Severity {
	switch {
	case level >= slog.LevelError:
		return minsev.SeverityError
	case level >= slog.LevelWarn:
		return minsev.SeverityWarn
	case level >= slog.LevelInfo:
		return minsev.SeverityInfo
	default:
		return minsev.SeverityDebug
	}
}
