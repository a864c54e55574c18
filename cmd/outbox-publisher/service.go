package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

const (
	jobName               = "outbox_publish"
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

var (
	jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

	errPublishFailures = errors.New("batch had publish failures")
)

// batchResult counts what one poll did. Settled rows left the pending queue
// (published, already published, or exhausted); failed rows stay pending.
type batchResult struct {
	fetched int
	settled int
	failed  int
}

type pinger interface {
	Ping(context.Context) error
}

// sink is the broker the ledger events are written to (Pub/Sub or Kafka).
type sink interface {
	Ping(context.Context) error
	Publish(ctx context.Context, topic, key string, data []byte, attrs map[string]string) error
}

type outboxRepository interface {
	FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, err error) error
	MarkExhausted(ctx context.Context, id int64, maxAttempts int, err error) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// publishGuard remembers event ids already handed to the sink so a row whose
// bookkeeping write failed is not published twice.
type publishGuard interface {
	CheckAndMarkPublished(ctx context.Context, publisher string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, publisher string, eventID uuid.UUID) error
}

type ServiceParams struct {
	Config     config.OutboxConfig
	SinkName   string
	Logger     *logger.Logger
	DB         pinger
	Sink       sink
	Repository outboxRepository
	Registry   registryResolver
	Guard      publishGuard
	Metrics    *metrics.JobMetrics
}

type Service struct {
	logg         *logger.Logger
	db           pinger
	sink         sink
	sinkName     string
	repo         outboxRepository
	registry     registryResolver
	guard        publishGuard
	metrics      *metrics.JobMetrics
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Sink == nil {
		return nil, errors.New("publish sink is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Registry == nil {
		return nil, errors.New("event registry is required")
	}

	batch := params.Config.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	sinkName := params.SinkName
	if sinkName == "" {
		sinkName = config.SinkPubSub
	}

	return &Service{
		logg:         params.Logger,
		db:           params.DB,
		sink:         params.Sink,
		sinkName:     sinkName,
		repo:         params.Repository,
		registry:     params.Registry,
		guard:        params.Guard,
		metrics:      params.Metrics,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	return pingDependency(ctx, s.logg, s.sinkName, s.sink.Ping)
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		default:
		}

		started := time.Now()
		result, err := s.processBatch(ctx)
		if result.fetched > 0 || err != nil {
			observed := err
			if observed == nil && result.failed > 0 {
				observed = errPublishFailures
			}
			s.metrics.Observe(jobName, started, observed)
		}
		// Failed rows are fetched again on the next poll, so any failure backs
		// off instead of spending the retry budget back to back.
		if err != nil || result.failed > 0 {
			if err != nil {
				s.logg.Error(ctx, "outbox publisher batch error", err)
			} else {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
					"failed":  result.failed,
					"settled": result.settled,
				}), "outbox publisher backing off after publish failures")
			}
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval
		if result.fetched > 0 {
			continue
		}
		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

// processBatch publishes one batch. A publish failure is recorded on the row
// and does not stop the batch; only bookkeeping failures are returned.
func (s *Service) processBatch(ctx context.Context) (batchResult, error) {
	var result batchResult
	events, err := s.repo.FetchUnpublished(ctx, s.batchSize, s.maxAttempts)
	if err != nil {
		return result, err
	}
	result.fetched = len(events)

	for _, event := range events {
		resolved, err := s.registry.Resolve(event)
		if err != nil {
			if markErr := s.handleTerminal(ctx, event, err, nil); markErr != nil {
				return result, markErr
			}
			result.settled++
			continue
		}

		fields := s.eventFields(event, resolved.Envelope, resolved.Descriptor.Topic)
		eventID, _ := uuid.Parse(resolved.Envelope.EventID)

		if s.guard != nil && eventID != uuid.Nil {
			seen, err := s.guard.CheckAndMarkPublished(ctx, s.sinkName, eventID)
			if err != nil {
				s.logg.Error(s.logg.WithFields(ctx, fields), "outbox idempotency check failed", err)
			} else if seen {
				s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox event already published, marking row")
				if markErr := s.repo.MarkPublished(ctx, event.ID); markErr != nil {
					return result, fmt.Errorf("mark published %d: %w", event.ID, markErr)
				}
				result.settled++
				continue
			}
		}

		if err := s.publishResolved(ctx, event, resolved); err != nil {
			if s.guard != nil && eventID != uuid.Nil {
				if delErr := s.guard.Delete(ctx, s.sinkName, eventID); delErr != nil {
					s.logg.Error(s.logg.WithFields(ctx, fields), "outbox idempotency release failed", delErr)
				}
			}

			nextAttempt := event.AttemptCount + 1
			fields["attempt_count"] = nextAttempt
			if nextAttempt >= s.maxAttempts {
				terminalErr := fmt.Errorf("max publish attempts reached: %w", err)
				if markErr := s.handleTerminal(ctx, event, terminalErr, fields); markErr != nil {
					return result, markErr
				}
				result.settled++
				continue
			}

			ctxWithFields := s.logg.WithField(s.logg.WithFields(ctx, fields), "error", err.Error())
			s.logg.Warn(ctxWithFields, "outbox publish failed")
			if markErr := s.repo.MarkFailed(ctx, event.ID, err); markErr != nil {
				return result, fmt.Errorf("mark failure %d: %w", event.ID, markErr)
			}
			result.failed++
			continue
		}

		if markErr := s.repo.MarkPublished(ctx, event.ID); markErr != nil {
			return result, fmt.Errorf("mark published %d: %w", event.ID, markErr)
		}
		result.settled++
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
	}
	return result, nil
}

func (s *Service) handleTerminal(ctx context.Context, event models.OutboxEvent, err error, fields map[string]any) error {
	if fields == nil {
		fields = s.eventFields(event, outbox.PayloadEnvelope{}, "")
	}
	ctxWithFields := s.logg.WithField(s.logg.WithFields(ctx, fields), "error", err.Error())
	s.logg.Warn(ctxWithFields, "outbox event will not be retried")
	if markErr := s.repo.MarkExhausted(ctx, event.ID, s.maxAttempts, err); markErr != nil {
		return fmt.Errorf("mark exhausted %d: %w", event.ID, markErr)
	}
	return nil
}

func (s *Service) publishResolved(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   strconv.FormatInt(event.AggregateID, 10),
		"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	key := fmt.Sprintf("%s:%d", event.AggregateType, event.AggregateID)

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	return s.sink.Publish(publishCtx, resolved.Descriptor.Topic, key, []byte(event.Payload), attrs)
}

func (s *Service) eventFields(event models.OutboxEvent, envelope outbox.PayloadEnvelope, topic string) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID,
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID,
		"batch_size":     s.batchSize,
		"attempt_count":  event.AttemptCount,
		"sink":           s.sinkName,
	}
	if envelope.EventID != "" {
		fields["event_id"] = envelope.EventID
		fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	}
	if topic != "" {
		fields["topic"] = topic
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
