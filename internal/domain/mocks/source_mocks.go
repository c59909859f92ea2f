package mocks

import (
	"context"
	"sync"

	"github.com/V4T54L/dcache-billing-exporter/internal/domain"
)

// MockBillingSource is an in-memory domain.BillingSource for testing.
// Once Records is drained, FetchRecord returns FetchErr if set, and
// otherwise blocks until the context is cancelled.
type MockBillingSource struct {
	mu        sync.Mutex
	Records   []domain.Record
	Committed []domain.Record
	FetchErr  error
	CommitErr error
	Closed    bool

	// Drained is closed once every queued record has been committed.
	Drained chan struct{}
}

// NewMockBillingSource queues the given raw values on partition 0.
func NewMockBillingSource(values ...string) *MockBillingSource {
	m := &MockBillingSource{Drained: make(chan struct{})}
	for i, v := range values {
		m.Records = append(m.Records, domain.Record{Topic: "billing", Offset: int64(i), Value: []byte(v)})
	}
	if len(m.Records) == 0 {
		close(m.Drained)
	}
	return m
}

func (m *MockBillingSource) FetchRecord(ctx context.Context) (domain.Record, error) {
	m.mu.Lock()
	if len(m.Records) > 0 {
		rec := m.Records[0]
		m.Records = m.Records[1:]
		m.mu.Unlock()
		return rec, nil
	}
	err := m.FetchErr
	m.mu.Unlock()

	if err != nil {
		return domain.Record{}, err
	}
	<-ctx.Done()
	return domain.Record{}, ctx.Err()
}

func (m *MockBillingSource) CommitRecord(ctx context.Context, rec domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CommitErr != nil {
		return m.CommitErr
	}
	m.Committed = append(m.Committed, rec)
	if len(m.Records) == 0 && m.Drained != nil {
		select {
		case <-m.Drained:
		default:
			close(m.Drained)
		}
	}
	return nil
}

func (m *MockBillingSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// CommittedOffsets returns the offsets committed so far.
func (m *MockBillingSource) CommittedOffsets() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	offsets := make([]int64, len(m.Committed))
	for i, r := range m.Committed {
		offsets[i] = r.Offset
	}
	return offsets
}
