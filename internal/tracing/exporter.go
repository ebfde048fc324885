// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"context"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tombee/llmtap/internal/log"
	"github.com/tombee/llmtap/internal/tracing/export"
)

// CreateExporter creates a span exporter from configuration. Type "none"
// yields a nil exporter.
func CreateExporter(ctx context.Context, cfg ExporterConfig) (sdktrace.SpanExporter, error) {
	kind, err := export.ParseKind(cfg.Type)
	if err != nil {
		return nil, err
	}

	opts := export.Options{
		Endpoint: cfg.Endpoint,
		Headers:  cfg.Headers,
		Insecure: cfg.Insecure,
		Timeout:  cfg.Timeout,
		Compress: cfg.Compress,
		Pretty:   true,
	}
	if !cfg.Insecure && (kind == export.KindOTLP || kind == export.KindOTLPHTTP) {
		tlsCfg, err := export.TLSFiles{
			CAFile:     cfg.TLS.CAFile,
			CertFile:   cfg.TLS.CertFile,
			KeyFile:    cfg.TLS.KeyFile,
			ServerName: cfg.TLS.ServerName,
			SkipVerify: cfg.TLS.SkipVerify,
		}.Build()
		if err != nil {
			return nil, err
		}
		opts.TLS = tlsCfg
	}

	return export.New(ctx, kind, opts)
}

// CreateExportersFromConfig creates batch span processors for all
// configured exporters. Exporter creation failures are logged and skipped.
func CreateExportersFromConfig(ctx context.Context, cfg Config, logger *slog.Logger) []sdktrace.SpanProcessor {
	logger = log.WithComponent(logger, "tracing")

	var processors []sdktrace.SpanProcessor
	for i, exporterCfg := range cfg.Exporters {
		exporter, err := CreateExporter(ctx, exporterCfg)
		if err != nil {
			logger.Warn("failed to create exporter, skipping",
				slog.Int("index", i),
				slog.String("type", exporterCfg.Type),
				slog.String("endpoint", exporterCfg.Endpoint),
				log.Error(err))
			continue
		}
		if exporter == nil {
			continue
		}

		var batchOpts []sdktrace.BatchSpanProcessorOption
		if cfg.BatchSize > 0 {
			batchOpts = append(batchOpts, sdktrace.WithMaxExportBatchSize(cfg.BatchSize))
		}
		if cfg.BatchInterval > 0 {
			batchOpts = append(batchOpts, sdktrace.WithBatchTimeout(cfg.BatchInterval))
		}
		processors = append(processors, sdktrace.NewBatchSpanProcessor(exporter, batchOpts...))

		logger.Info("created exporter",
			slog.String("type", exporterCfg.Type),
			slog.String("endpoint", exporterCfg.Endpoint))
	}
	return processors
}
