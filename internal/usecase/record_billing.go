package usecase

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/V4T54L/dcache-billing-exporter/internal/adapter/metrics"
	"github.com/V4T54L/dcache-billing-exporter/internal/adapter/normalizer"
	"github.com/V4T54L/dcache-billing-exporter/internal/domain"
)

// EventDecoder decodes a raw billing record into a typed event.
type EventDecoder interface {
	Decode(raw string) (domain.Event, error)
}

// RecordBillingUseCase projects billing events onto the billing metrics.
// It is driven by a single ingestion loop; the metric primitives it
// updates are themselves safe for concurrent scraping.
type RecordBillingUseCase struct {
	decoder    EventDecoder
	metrics    *metrics.BillingMetrics
	normalizer *normalizer.Normalizer // nil unless the message metric is enabled
	prefixes   []string
	logger     *slog.Logger
	logLimiter *rate.Limiter
}

// NewRecordBillingUseCase creates the aggregator. Cell names starting with
// one of shortenedCellNames followed by a hyphen are reported under that
// prefix. logLimiter bounds how many decode failures are logged; nil logs
// every failure.
func NewRecordBillingUseCase(
	decoder EventDecoder,
	m *metrics.BillingMetrics,
	norm *normalizer.Normalizer,
	shortenedCellNames []string,
	logger *slog.Logger,
	logLimiter *rate.Limiter,
) *RecordBillingUseCase {
	return &RecordBillingUseCase{
		decoder:    decoder,
		metrics:    m,
		normalizer: norm,
		prefixes:   shortenedCellNames,
		logger:     logger.With("component", "billing_aggregator"),
		logLimiter: logLimiter,
	}
}

// Process decodes one raw record and records it. Records that fail to
// decode are logged and counted as unparsed.
func (uc *RecordBillingUseCase) Process(raw []byte) {
	ev, err := uc.decoder.Decode(string(raw))
	if err != nil {
		uc.metrics.UnparsedCount.Inc()
		if uc.logLimiter == nil || uc.logLimiter.Allow() {
			record := string(raw)
			var decodeErr *domain.DecodeError
			if errors.As(err, &decodeErr) {
				record = decodeErr.Raw
				err = decodeErr.Err
			}
			uc.logger.Warn("failed to parse billing record", "record", record, "error", err)
		}
		return
	}
	uc.Record(ev)
}

// Record updates the metrics for one decoded event.
func (uc *RecordBillingUseCase) Record(ev domain.Event) {
	m := uc.metrics

	switch e := ev.(type) {
	case *domain.RemoveEvent:
		labels := uc.removeRequestLabels(&e.Header, e.StorageInfo)
		m.RemoveCount.WithLabelValues(labels...).Inc()
		m.RemoveBytes.WithLabelValues(labels...).Add(float64(e.FileSize))

	case *domain.RequestEvent:
		labels := uc.removeRequestLabels(&e.Header, e.StorageInfo)
		m.RequestCount.WithLabelValues(labels...).Inc()
		m.RequestSessionDuration.WithLabelValues(labels...).Observe(seconds(e.SessionDuration))

	case *domain.RestoreEvent:
		labels := uc.restoreStoreLabels(&e.Header, e.StorageInfo, e.Hsm)
		m.RestoreCount.WithLabelValues(labels...).Inc()
		m.RestoreBytes.WithLabelValues(labels...).Add(float64(e.FileSize))
		m.RestoreSeconds.WithLabelValues(labels...).Observe(seconds(e.TransferTime))

	case *domain.StoreEvent:
		labels := uc.restoreStoreLabels(&e.Header, e.StorageInfo, e.Hsm)
		m.StoreCount.WithLabelValues(labels...).Inc()
		m.StoreBytes.WithLabelValues(labels...).Add(float64(e.FileSize))
		m.StoreSeconds.WithLabelValues(labels...).Observe(seconds(e.TransferTime))

	case *domain.TransferEvent:
		labels := uc.transferLabels(e)
		m.TransferCount.WithLabelValues(labels...).Inc()
		// A failed transfer may report no size.
		m.TransferBytes.WithLabelValues(labels...).Add(float64(e.TransferSize.Or(0)))
		m.TransferSeconds.WithLabelValues(labels...).Observe(seconds(e.TransferTime))
		if e.MeanReadBandwidth != nil {
			m.TransferMeanReadBandwidth.WithLabelValues(labels...).Observe(*e.MeanReadBandwidth)
		}
		if e.MeanWriteBandwidth != nil {
			m.TransferMeanWriteBandwidth.WithLabelValues(labels...).Observe(*e.MeanWriteBandwidth)
		}

	case *domain.UnrecognizedEvent:
		m.UnparsedCount.Inc()
		uc.logger.Debug("ignoring unrecognized billing record", "msg_type", e.MsgType)
		return

	default:
		m.UnparsedCount.Inc()
		return
	}

	if h, ok := domain.HeaderOf(ev); ok {
		uc.recordMessage(h)
	}
}

func (uc *RecordBillingUseCase) recordMessage(h *domain.Header) {
	if uc.normalizer == nil || uc.metrics.MessageCount == nil || h.Status.Message == "" {
		return
	}
	uc.metrics.MessageCount.WithLabelValues(
		uc.ShortenCellName(h.Cell.Name),
		h.Cell.Domain,
		h.Cell.Type,
		statusCode(h.Status),
		uc.normalizer.Normalize(h.Status.Message),
	).Inc()
}

// ShortenCellName returns the longest configured prefix p such that name
// starts with p followed by a hyphen, or name itself.
func (uc *RecordBillingUseCase) ShortenCellName(name string) string {
	best := ""
	for _, p := range uc.prefixes {
		if len(p) > len(best) && len(name) > len(p) && strings.HasPrefix(name, p) && name[len(p)] == '-' {
			best = p
		}
	}
	if best == "" {
		return name
	}
	return best
}

func (uc *RecordBillingUseCase) removeRequestLabels(h *domain.Header, storageInfo *string) []string {
	si := ""
	if storageInfo != nil {
		si = *storageInfo
	}
	return []string{
		uc.ShortenCellName(h.Cell.Name), h.Cell.Domain, h.Cell.Type,
		statusCode(h.Status),
		si,
	}
}

func (uc *RecordBillingUseCase) restoreStoreLabels(h *domain.Header, storageInfo string, hsm domain.Hsm) []string {
	return []string{
		uc.ShortenCellName(h.Cell.Name), h.Cell.Domain, h.Cell.Type,
		statusCode(h.Status),
		storageInfo,
		hsm.Instance, hsm.Provider, hsm.Type,
	}
}

func (uc *RecordBillingUseCase) transferLabels(e *domain.TransferEvent) []string {
	return []string{
		uc.ShortenCellName(e.Cell.Name), e.Cell.Domain, e.Cell.Type,
		statusCode(e.Status),
		e.Direction.String(),
		e.StorageInfo,
	}
}

func statusCode(s domain.Status) string {
	return strconv.FormatUint(uint64(s.Code), 10)
}

func seconds(ms uint64) float64 {
	return float64(ms) / 1000.0
}
