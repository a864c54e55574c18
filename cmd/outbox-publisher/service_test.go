package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			orderPlacedRow(t, 1, 0),
			orderPlacedRow(t, 2, 0),
		},
	}
	snk := &fakeSink{errs: []error{errors.New("transient"), nil}}
	service := newTestService(t, repo, snk, nil, config.OutboxConfig{})

	result, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if result.fetched != 2 || result.settled != 1 || result.failed != 1 {
		t.Fatalf("unexpected batch result %+v", result)
	}
	if len(repo.failed) != 1 || repo.failed[0] != 1 {
		t.Fatalf("unexpected failed rows: %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != 2 {
		t.Fatalf("unexpected published rows: %v", repo.published)
	}
	if len(snk.sent) != 2 {
		t.Fatalf("expected both rows to be attempted, got %d", len(snk.sent))
	}
	msg := snk.sent[1]
	if msg.topic != "ledger-topic" || msg.key != "order:2" {
		t.Fatalf("unexpected routing %s %s", msg.topic, msg.key)
	}
	if msg.attrs["event_type"] != string(enums.EventOrderPlaced) || msg.attrs["aggregate_id"] != "2" {
		t.Fatalf("unexpected attributes %v", msg.attrs)
	}
}

func TestServiceProcessBatchExhaustsUnresolvableRows(t *testing.T) {
	row := orderPlacedRow(t, 3, 0)
	row.EventType = enums.OutboxEventType("order_shipped")
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	snk := &fakeSink{}
	service := newTestService(t, repo, snk, nil, config.OutboxConfig{MaxAttempts: 4})

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(snk.sent) != 0 {
		t.Fatalf("unresolvable row must not be published")
	}
	if len(repo.exhausted) != 1 || repo.exhausted[0] != 3 {
		t.Fatalf("expected row to be exhausted, got %v", repo.exhausted)
	}
}

func TestServiceProcessBatchExhaustsAtMaxAttempts(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{orderPlacedRow(t, 4, 1)}}
	snk := &fakeSink{errs: []error{errors.New("broker down")}}
	service := newTestService(t, repo, snk, nil, config.OutboxConfig{MaxAttempts: 2})

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("expected no retry bookkeeping, got %v", repo.failed)
	}
	if len(repo.exhausted) != 1 {
		t.Fatalf("expected exhausted row, got %v", repo.exhausted)
	}
}

func TestServiceProcessBatchSkipsAlreadyPublished(t *testing.T) {
	row := orderPlacedRow(t, 5, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{row, orderPlacedRow(t, 6, 0)}}
	snk := &fakeSink{errs: []error{errors.New("transient")}}
	guard := &fakeGuard{seen: map[uuid.UUID]bool{}}
	var env outbox.PayloadEnvelope
	if err := json.Unmarshal([]byte(row.Payload), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	guard.seen[uuid.MustParse(env.EventID)] = true

	service := newTestService(t, repo, snk, guard, config.OutboxConfig{})
	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(snk.sent) != 1 {
		t.Fatalf("expected only the unseen row to be sent, got %d", len(snk.sent))
	}
	if len(repo.published) != 1 || repo.published[0] != 5 {
		t.Fatalf("expected seen row to be marked published, got %v", repo.published)
	}
	if len(guard.deleted) != 1 {
		t.Fatalf("expected failed publish to release its guard key, got %v", guard.deleted)
	}
}

func TestServiceProcessBatchEmpty(t *testing.T) {
	service := newTestService(t, &fakeRepo{}, &fakeSink{}, nil, config.OutboxConfig{})
	result, err := service.processBatch(context.Background())
	if err != nil || result.fetched != 0 {
		t.Fatalf("expected idle batch, got %+v %v", result, err)
	}
}

func TestServiceRunBacksOffWhileSinkIsDown(t *testing.T) {
	repo := &attemptRepo{rows: []models.OutboxEvent{orderPlacedRow(t, 7, 0)}}
	snk := &fakeSink{}
	for i := 0; i < 20; i++ {
		snk.errs = append(snk.errs, errors.New("broker down"))
	}
	reg, err := registry.NewEventRegistry("ledger-topic")
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	service, err := NewService(ServiceParams{
		Config:     config.OutboxConfig{PollIntervalMS: 500, MaxAttempts: 10},
		SinkName:   config.SinkKafka,
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:         fakePinger{},
		Sink:       snk,
		Repository: repo,
		Registry:   reg,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := service.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	if len(snk.sent) != 1 {
		t.Fatalf("expected a single publish attempt before backing off, got %d", len(snk.sent))
	}
	if repo.rows[0].AttemptCount != 1 {
		t.Fatalf("expected attempt_count 1, got %d", repo.rows[0].AttemptCount)
	}
	if repo.exhausted != 0 {
		t.Fatalf("event must not be exhausted during a short outage")
	}
}

func TestNextBackoff(t *testing.T) {
	if got := nextBackoff(0, time.Second, 10*time.Second); got != 2*time.Second {
		t.Fatalf("unexpected backoff %v", got)
	}
	if got := nextBackoff(8*time.Second, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("expected backoff to cap, got %v", got)
	}
}

func newTestService(t *testing.T, repo *fakeRepo, snk *fakeSink, guard publishGuard, cfg config.OutboxConfig) *Service {
	t.Helper()
	reg, err := registry.NewEventRegistry("ledger-topic")
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	params := ServiceParams{
		Config:     cfg,
		SinkName:   config.SinkKafka,
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:         fakePinger{},
		Sink:       snk,
		Repository: repo,
		Registry:   reg,
		Metrics:    metrics.NewJobMetrics(prometheus.NewRegistry()),
	}
	if guard != nil {
		params.Guard = guard
	}
	service, err := NewService(params)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func orderPlacedRow(t *testing.T, id int64, attempts int) models.OutboxEvent {
	t.Helper()
	data, err := json.Marshal(payloads.OrderPlacedEvent{OrderID: id, UserID: 1, ProductID: 1, Quantity: 1})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	env, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            id,
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   id,
		Payload:       string(env),
		AttemptCount:  attempts,
		CreatedAt:     time.Now().UTC(),
	}
}

type fakePinger struct{}

func (fakePinger) Ping(context.Context) error { return nil }

type sentMessage struct {
	topic string
	key   string
	attrs map[string]string
}

type fakeSink struct {
	errs []error
	sent []sentMessage
}

func (f *fakeSink) Ping(context.Context) error { return nil }

func (f *fakeSink) Publish(_ context.Context, topic, key string, _ []byte, attrs map[string]string) error {
	f.sent = append(f.sent, sentMessage{topic: topic, key: key, attrs: attrs})
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []int64
	failed    []int64
	exhausted []int64
}

func (f *fakeRepo) FetchUnpublished(context.Context, int, int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublished(_ context.Context, id int64) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(_ context.Context, id int64, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkExhausted(_ context.Context, id int64, _ int, _ error) error {
	f.exhausted = append(f.exhausted, id)
	return nil
}

type fakeGuard struct {
	seen    map[uuid.UUID]bool
	deleted []uuid.UUID
}

func (f *fakeGuard) CheckAndMarkPublished(_ context.Context, _ string, id uuid.UUID) (bool, error) {
	if f.seen[id] {
		return true, nil
	}
	f.seen[id] = true
	return false, nil
}

func (f *fakeGuard) Delete(_ context.Context, _ string, id uuid.UUID) error {
	delete(f.seen, id)
	f.deleted = append(f.deleted, id)
	return nil
}

// attemptRepo keeps attempt counts like the SQL repository so rows past the
// budget stop being fetched.
type attemptRepo struct {
	rows      []models.OutboxEvent
	exhausted int
}

func (r *attemptRepo) FetchUnpublished(_ context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var out []models.OutboxEvent
	for _, row := range r.rows {
		if row.PublishedAt != nil || (maxAttempts > 0 && row.AttemptCount >= maxAttempts) {
			continue
		}
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *attemptRepo) find(id int64) *models.OutboxEvent {
	for i := range r.rows {
		if r.rows[i].ID == id {
			return &r.rows[i]
		}
	}
	return nil
}

func (r *attemptRepo) MarkPublished(_ context.Context, id int64) error {
	now := time.Now().UTC()
	r.find(id).PublishedAt = &now
	return nil
}

func (r *attemptRepo) MarkFailed(_ context.Context, id int64, _ error) error {
	r.find(id).AttemptCount++
	return nil
}

func (r *attemptRepo) MarkExhausted(_ context.Context, id int64, maxAttempts int, _ error) error {
	r.find(id).AttemptCount = maxAttempts
	r.exhausted++
	return nil
}
