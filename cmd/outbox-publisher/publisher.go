package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shareit/shareit-backend/pkg/config"
	"github.com/shareit/shareit-backend/pkg/db/models"
	"github.com/shareit/shareit-backend/pkg/logger"
	"github.com/shareit/shareit-backend/pkg/outbox"
)

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*outbox.ResolvedEvent, error)
}

// topicPublisher publishes ordered booking messages to one topic.
type topicPublisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
	// ResumePublish clears the pause pubsub puts on a key after a failure.
	ResumePublish(orderingKey string)
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type PublisherParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         dbClient
	PubSub     pubSubClient
	Repository outboxRepository
	Registry   registryResolver
	// Topics overrides how topic publishers are opened. Tests use it.
	Topics func(topic string) topicPublisher
}

// BookingPublisher drains booking events from the outbox onto Pub/Sub.
type BookingPublisher struct {
	logg         *logger.Logger
	db           dbClient
	repo         outboxRepository
	pubsub       pubSubClient
	registry     registryResolver
	open         func(topic string) topicPublisher
	topics       map[string]topicPublisher
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewBookingPublisher(params PublisherParams) (*BookingPublisher, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	}

	open := params.Topics
	if open == nil {
		open = func(topic string) topicPublisher {
			return newOrderedPublisher(params.PubSub.Publisher(topic))
		}
	}

	cfg := params.Config.Outbox
	p := &BookingPublisher{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		pubsub:       params.PubSub,
		registry:     params.Registry,
		open:         open,
		topics:       make(map[string]topicPublisher),
		batchSize:    orDefault(cfg.BatchSize, defaultBatchSize),
		maxAttempts:  orDefault(cfg.MaxAttempts, defaultMaxAttempts),
		pollInterval: time.Duration(orDefault(cfg.PollIntervalMS, defaultPollMs)) * time.Millisecond,
	}
	return p, nil
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func (p *BookingPublisher) Run(ctx context.Context) error {
	if err := p.ping(ctx, "database", p.db.Ping); err != nil {
		return err
	}
	if err := p.ping(ctx, "pubsub", p.pubsub.Ping); err != nil {
		return err
	}
	defer p.stopTopics()

	backoff := p.pollInterval
	for {
		if err := ctx.Err(); err != nil {
			p.logg.Info(ctx, "outbox publisher context canceled")
			return err
		}

		processed, err := p.processBatch(ctx)
		switch {
		case err != nil:
			p.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, p.pollInterval, maxBackoff)
			err = p.sleep(ctx, withJitter(backoff))
		case processed:
			backoff = p.pollInterval
			continue
		default:
			backoff = p.pollInterval
			err = p.sleep(ctx, withJitter(p.pollInterval))
		}
		if err != nil {
			return err
		}
	}
}

func (p *BookingPublisher) ping(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		p.logg.Error(ctx, name+" ping failed", err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

// processBatch publishes one locked batch. Once a booking's event fails,
// its later events in the batch wait for the next pass so they can never
// overtake it.
func (p *BookingPublisher) processBatch(ctx context.Context) (bool, error) {
	processed := false
	err := p.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := p.repo.FetchUnpublishedForPublish(tx, p.batchSize, p.maxAttempts)
		if err != nil {
			return err
		}
		processed = len(events) > 0

		held := make(map[string]bool)
		for _, event := range events {
			key := orderingKey(event)
			if held[key] {
				p.logg.Debug(p.logg.WithFields(ctx, logFields(event, nil)), "outbox event held behind earlier failure")
				continue
			}

			resolved, err := p.registry.Resolve(event)
			if err != nil {
				if err := p.park(ctx, tx, event, nil, err); err != nil {
					return err
				}
				continue
			}

			err = p.publish(ctx, event, resolved)
			var nonRetry outbox.NonRetryableError
			switch {
			case err == nil:
				if err := p.repo.MarkPublishedTx(tx, event.ID); err != nil {
					return fmt.Errorf("mark published %s: %w", event.ID, err)
				}
				p.logg.Info(p.logg.WithFields(ctx, logFields(event, resolved)), "booking event published")
			case errors.As(err, &nonRetry):
				if err := p.park(ctx, tx, event, resolved, err); err != nil {
					return err
				}
			case event.AttemptCount+1 >= p.maxAttempts:
				if err := p.park(ctx, tx, event, resolved, fmt.Errorf("max publish attempts reached: %w", err)); err != nil {
					return err
				}
			default:
				held[key] = true
				fields := logFields(event, resolved)
				fields["attempt_count"] = event.AttemptCount + 1
				p.logg.Warn(p.logg.WithField(p.logg.WithFields(ctx, fields), "error", err.Error()), "booking event publish failed")
				if err := p.repo.MarkFailedTx(tx, event.ID, err); err != nil {
					return fmt.Errorf("mark failure %s: %w", event.ID, err)
				}
			}
		}
		return nil
	})
	return processed, err
}

// park marks the row terminal so it is never fetched again.
func (p *BookingPublisher) park(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, resolved *outbox.ResolvedEvent, cause error) error {
	ctx = p.logg.WithField(p.logg.WithFields(ctx, logFields(event, resolved)), "error", cause.Error())
	p.logg.Warn(ctx, "booking event will not be retried")
	if err := p.repo.MarkTerminalTx(tx, event.ID, cause, p.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return nil
}

func (p *BookingPublisher) publish(ctx context.Context, event models.OutboxEvent, resolved *outbox.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := p.topic(topic)
	if pub == nil {
		return outbox.NonRetryableError{Err: fmt.Errorf("publisher not configured for topic %s", topic)}
	}

	msg := bookingMessage(event, resolved)
	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, msg)
	if result == nil {
		return outbox.NonRetryableError{Err: fmt.Errorf("publisher returned nil for topic %s", topic)}
	}
	if _, err := result.Get(publishCtx); err != nil {
		// The next pass retries this row under the same key.
		pub.ResumePublish(msg.OrderingKey)
		return err
	}
	return nil
}

func (p *BookingPublisher) topic(name string) topicPublisher {
	if pub, ok := p.topics[name]; ok {
		return pub
	}
	pub := p.open(name)
	if pub != nil {
		p.topics[name] = pub
	}
	return pub
}

func (p *BookingPublisher) stopTopics() {
	for name, pub := range p.topics {
		if o, ok := pub.(*orderedPublisher); ok {
			o.Stop()
		}
		delete(p.topics, name)
	}
}

func (p *BookingPublisher) sleep(ctx context.Context, d time.Duration) error {
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

// orderedPublisher adapts a Pub/Sub publisher with message ordering on.
type orderedPublisher struct {
	*gcppubsub.Publisher
}

func newOrderedPublisher(p *gcppubsub.Publisher) topicPublisher {
	if p == nil {
		return nil
	}
	p.EnableMessageOrdering = true
	return &orderedPublisher{Publisher: p}
}

func (p *orderedPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.Publisher.Publish(ctx, msg)
}
