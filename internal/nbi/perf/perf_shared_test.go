//go:build perf || perf_large

package perf

import (
	"context"
	"fmt"
	"testing"

	"github.com/signalsfoundry/commnet-calculator/internal/calc"
	"github.com/signalsfoundry/commnet-calculator/internal/config"
	"github.com/signalsfoundry/commnet-calculator/internal/devicefile"
	"github.com/signalsfoundry/commnet-calculator/internal/logging"
	"github.com/signalsfoundry/commnet-calculator/internal/nbi"
	"github.com/signalsfoundry/commnet-calculator/internal/nbi/types"
	"github.com/signalsfoundry/commnet-calculator/model"
)

type perfConfig struct {
	ExternalDevices    int
	SpecifiersPerSide  int
	ConcurrentRequests int
}

func benchmarkComputeRange(b *testing.B, cfg perfConfig) {
	ctx := context.Background()
	calculator := newCalculator(b, cfg)
	svc := nbi.NewRangeService(calculator, logging.Noop())

	req := types.RangeRequestToProto(types.RangeRequest{
		From: specifiers("ext-a", cfg),
		To:   specifiers("ext-b", cfg),
	})

	b.ReportAllocs()
	b.SetParallelism(cfg.ConcurrentRequests)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := svc.ComputeRange(ctx, req); err != nil {
				b.Errorf("ComputeRange: %v", err)
				return
			}
		}
	})
}

func benchmarkReload(b *testing.B, cfg perfConfig) {
	ctx := context.Background()
	calculator := newCalculator(b, cfg)
	batches := []devicefile.Batch{externalBatch(cfg)}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := calculator.Reload(ctx, batches); err != nil {
			b.Fatalf("Reload: %v", err)
		}
	}
}

func newCalculator(b *testing.B, cfg perfConfig) *calc.Calculator {
	b.Helper()
	conf, err := config.Load("")
	if err != nil {
		b.Fatalf("config.Load: %v", err)
	}
	c, err := calc.New(conf, calc.WithBatches([]devicefile.Batch{externalBatch(cfg)}))
	if err != nil {
		b.Fatalf("calc.New: %v", err)
	}
	return c
}

func externalBatch(cfg perfConfig) devicefile.Batch {
	defs := make([]model.DeviceDefinition, 0, cfg.ExternalDevices)
	for i := 0; i < cfg.ExternalDevices; i++ {
		defs = append(defs, model.DeviceDefinition{
			Name:                  fmt.Sprintf("ext-device-%d", i),
			Aliases:               []string{fmt.Sprintf("ext-a-%d", i), fmt.Sprintf("ext-b-%d", i)},
			Power:                 float64(1+i%50) * 1e9,
			CombinabilityExponent: 0.75,
			Class:                 model.DeviceClass(i % 3),
		})
	}
	return devicefile.Batch{Source: "perf", Devices: defs}
}

func specifiers(prefix string, cfg perfConfig) []string {
	out := make([]string, 0, cfg.SpecifiersPerSide)
	for i := 0; i < cfg.SpecifiersPerSide; i++ {
		out = append(out, fmt.Sprintf("%d:%s-%d", 1+i%4, prefix, i%cfg.ExternalDevices))
	}
	return out
}
