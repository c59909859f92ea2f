package domain

import "context"

// Record is one raw billing message as delivered by the event source.
type Record struct {
	Topic     string
	Partition int
	Offset    int64
	Value     []byte
}

// BillingSource delivers raw billing records in delivery order.
// Consumer position durability is the source's concern.
type BillingSource interface {
	// FetchRecord blocks until the next record is available or ctx ends.
	FetchRecord(ctx context.Context) (Record, error)

	// CommitRecord marks the record as consumed by this consumer group.
	CommitRecord(ctx context.Context, rec Record) error

	// Close releases the underlying connections.
	Close() error
}
