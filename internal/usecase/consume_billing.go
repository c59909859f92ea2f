package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/V4T54L/dcache-billing-exporter/internal/domain"
)

// RecordProcessor consumes one raw billing record.
type RecordProcessor interface {
	Process(raw []byte)
}

// ConsumeBillingUseCase pulls records from the billing source one at a
// time and hands each to the processor before fetching the next.
type ConsumeBillingUseCase struct {
	source    domain.BillingSource
	processor RecordProcessor
	logger    *slog.Logger
}

// NewConsumeBillingUseCase creates the ingestion loop.
func NewConsumeBillingUseCase(source domain.BillingSource, processor RecordProcessor, logger *slog.Logger) *ConsumeBillingUseCase {
	return &ConsumeBillingUseCase{
		source:    source,
		processor: processor,
		logger:    logger.With("component", "billing_consumer"),
	}
}

// Run processes records until ctx is cancelled, which returns nil, or the
// source fails, which returns the error. Undecodable records never stop
// the loop.
func (uc *ConsumeBillingUseCase) Run(ctx context.Context) error {
	uc.logger.Info("consuming billing records")
	var processed int64
	for {
		rec, err := uc.source.FetchRecord(ctx)
		if err != nil {
			if ctx.Err() != nil {
				uc.logger.Info("context cancelled, stopping consumer", "processed", processed)
				return nil
			}
			return fmt.Errorf("failed to fetch billing record: %w", err)
		}

		uc.processor.Process(rec.Value)
		processed++

		if err := uc.source.CommitRecord(ctx, rec); err != nil {
			if ctx.Err() != nil {
				uc.logger.Info("context cancelled, stopping consumer", "processed", processed)
				return nil
			}
			return fmt.Errorf("failed to commit billing record at %s/%d offset %d: %w",
				rec.Topic, rec.Partition, rec.Offset, err)
		}
		uc.logger.Debug("processed billing record", "partition", rec.Partition, "offset", rec.Offset)
	}
}
