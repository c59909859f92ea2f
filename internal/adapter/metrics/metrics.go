package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label names per event family.
var (
	// RemoveRequestLabels applies to remove and request events.
	RemoveRequestLabels = []string{
		"cell_name", "cell_domain", "cell_type",
		"status_code",
		"storage_info",
	}

	// RestoreStoreLabels applies to restore and store events.
	RestoreStoreLabels = []string{
		"cell_name", "cell_domain", "cell_type",
		"status_code",
		"storage_info",
		"hsm_instance", "hsm_provider", "hsm_type",
	}

	// TransferLabels applies to transfer events.
	TransferLabels = []string{
		"cell_name", "cell_domain", "cell_type",
		"status_code",
		"direction",
		"storage_info",
	}

	// MessageLabels applies to the status message metric of any event.
	MessageLabels = []string{
		"cell_name", "cell_domain", "cell_type",
		"status_code",
		"status_msg",
	}
)

// LongDurationBuckets is a geometric sequence in seconds aligned to
// 1 second, 1 minute and 1 hour, for durations typically around a minute
// or longer.
var LongDurationBuckets = []float64{
	0.0010874632336580173,
	0.00425727462440863,
	0.016666666666666666,
	0.065247794019481067,
	0.2554364774645177,
	1.0,
	3.9148676411688634,
	15.32618864787106,
	60.0,
	234.89205847013176,
	919.57131887226399,
	3600.0,
	14093.523508207918,
	55174.279132335789,
	216000.0,
}

// ShortDurationBuckets is a geometric sequence in seconds aligned to
// powers of ten.
var ShortDurationBuckets = []float64{
	0.001,
	0.0031622776601683794,
	0.01,
	0.031622776601683791,
	0.10000000000000001,
	0.31622776601683794,
	1.0,
	3.1622776601683795,
	10.0,
	31.622776601683793,
	100.0,
	316.22776601683796,
	1000.0,
}

// TransferRateBuckets spans 10 kB/s to 100 GB/s in half decades.
var TransferRateBuckets = []float64{
	10000.0,
	31622.77660168379,
	100000.0,
	316227.7660168379,
	1000000.0,
	3162277.660168379,
	10000000.0,
	31622776.60168379,
	100000000.0,
	316227766.0168379,
	1000000000.0,
	3162277660.168379,
	10000000000.0,
	31622776601.68379,
	100000000000.0,
}

// BillingMetrics holds all Prometheus metrics derived from billing events.
type BillingMetrics struct {
	RemoveCount *prometheus.CounterVec
	RemoveBytes *prometheus.CounterVec

	RequestCount           *prometheus.CounterVec
	RequestSessionDuration *prometheus.HistogramVec

	RestoreCount   *prometheus.CounterVec
	RestoreBytes   *prometheus.CounterVec
	RestoreSeconds *prometheus.HistogramVec

	StoreCount   *prometheus.CounterVec
	StoreBytes   *prometheus.CounterVec
	StoreSeconds *prometheus.HistogramVec

	TransferCount              *prometheus.CounterVec
	TransferBytes              *prometheus.CounterVec
	TransferSeconds            *prometheus.HistogramVec
	TransferMeanReadBandwidth  *prometheus.HistogramVec
	TransferMeanWriteBandwidth *prometheus.HistogramVec

	// MessageCount is nil unless the message metric is enabled.
	MessageCount *prometheus.CounterVec

	UnparsedCount prometheus.Counter
}

// NewBillingMetrics creates the billing metrics, every name prefixed with
// prefix, and registers them with reg.
func NewBillingMetrics(reg prometheus.Registerer, prefix string, enableMessageCount bool) *BillingMetrics {
	factory := promauto.With(reg)

	counter := func(name, help string, labels []string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{Name: prefix + name, Help: help}, labels)
	}
	histogram := func(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
		return factory.NewHistogramVec(prometheus.HistogramOpts{Name: prefix + name, Help: help, Buckets: buckets}, labels)
	}

	m := &BillingMetrics{
		RemoveCount: counter("remove_count",
			"The number of remove events seen.", RemoveRequestLabels),
		RemoveBytes: counter("remove_bytes",
			"The accumulated size of removed files.", RemoveRequestLabels),

		RequestCount: counter("request_count",
			"The number of request events seen.", RemoveRequestLabels),
		RequestSessionDuration: histogram("request_session_duration",
			"A histogram of duration of request sessions.", RemoveRequestLabels, ShortDurationBuckets),

		RestoreCount: counter("restore_count",
			"The number of restore events seen.", RestoreStoreLabels),
		RestoreBytes: counter("restore_bytes",
			"The accumulated size of files attempted restored from tape.", RestoreStoreLabels),
		RestoreSeconds: histogram("restore_seconds",
			"A histogram of restore times.", RestoreStoreLabels, LongDurationBuckets),

		StoreCount: counter("store_count",
			"The number of store events seen.", RestoreStoreLabels),
		StoreBytes: counter("store_bytes",
			"The accumulated size of files attempted flushed to tape.", RestoreStoreLabels),
		StoreSeconds: histogram("store_seconds",
			"A histogram of store times.", RestoreStoreLabels, LongDurationBuckets),

		TransferCount: counter("transfer_count",
			"The number of transfer events seen.", TransferLabels),
		TransferBytes: counter("transfer_bytes",
			"The number of bytes transferred, including from failed transfers.", TransferLabels),
		TransferSeconds: histogram("transfer_seconds",
			"A histogram of transfer times.", TransferLabels, LongDurationBuckets),
		TransferMeanReadBandwidth: histogram("transfer_mean_read_bandwidth_bytes_per_second",
			"A histogram of the mean read bandwidth for transfers.", TransferLabels, TransferRateBuckets),
		TransferMeanWriteBandwidth: histogram("transfer_mean_write_bandwidth_bytes_per_second",
			"A histogram of the mean write bandwidth for transfers.", TransferLabels, TransferRateBuckets),

		UnparsedCount: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "unparsed_count",
			Help: "The number of unparsed events.",
		}),
	}

	if enableMessageCount {
		m.MessageCount = counter("message_count",
			"Status messages from any message type, simplified to reduce cardinality.", MessageLabels)
	}

	return m
}
