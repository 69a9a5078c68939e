// Package kafka applies result and prediction messages from a Kafka topic
// through the leaderboard service.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"

	service "github.com/okian/scoreline/internal/app"
	"github.com/okian/scoreline/pkg/logger"
	"github.com/okian/scoreline/pkg/metrics"
)

// Message statuses recorded in metrics.
const (
	statusApplied   = "applied"
	statusDuplicate = "duplicate"
	statusInvalid   = "invalid"
	statusRejected  = "rejected"
	statusFailed    = "failed"
)

// Submitter applies submissions. *service.Service implements it.
type Submitter interface {
	SubmitPredictions(ctx context.Context, sub service.PredictionSubmission) (service.Receipt, error)
	SubmitResult(ctx context.Context, sub service.ResultSubmission) (service.Receipt, error)
}

// Config selects the brokers, topic and consumer group.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Consumer reads the feed topic with a consumer group.
type Consumer struct {
	topic    string
	group    sarama.ConsumerGroup
	sub      Submitter
	logger   logger.Logger
	attempts int
	backoff  time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New connects a consumer group for cfg.
func New(cfg Config, sub Submitter, opts ...Option) (*Consumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		return nil, fmt.Errorf("kafka feed: brokers, topic and group id are required")
	}

	sc := sarama.NewConfig()
	sc.Version = sarama.V3_0_0_0
	sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	sc.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, fmt.Errorf("creating consumer group %s: %w", cfg.GroupID, err)
	}
	return NewWithGroup(group, cfg.Topic, sub, opts...), nil
}

// NewWithGroup wraps an existing consumer group.
func NewWithGroup(group sarama.ConsumerGroup, topic string, sub Submitter, opts ...Option) *Consumer {
	c := &Consumer{
		topic:    topic,
		group:    group,
		sub:      sub,
		attempts: 5,
		backoff:  200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("kafka-feed")
	}
	return c
}

// Start consumes in the background until Stop is called.
func (c *Consumer) Start(ctx context.Context) error {
	if c.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel

	c.logger.Info(ctx, "starting kafka feed consumer", logger.String("topic", c.topic))

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		for {
			if err := c.group.Consume(runCtx, []string{c.topic}, c); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				c.logger.Error(runCtx, "consume failed", logger.Error(err))
			}
			if runCtx.Err() != nil {
				return
			}
		}
	}()
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-runCtx.Done():
				return
			case err, ok := <-c.group.Errors():
				if !ok {
					return
				}
				c.logger.Error(runCtx, "consumer group error", logger.Error(err))
			}
		}
	}()
	return nil
}

// Stop ends consumption and closes the group.
func (c *Consumer) Stop(ctx context.Context) error {
	c.logger.Info(ctx, "stopping kafka feed consumer")
	if c.cancel != nil {
		c.cancel()
	}
	err := c.group.Close()
	c.wg.Wait()
	return err
}

// Setup is called at the start of a group session.
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup is called at the end of a group session.
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim applies messages of one partition in order. Every message is
// marked, including ones that could not be applied.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := session.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			c.handle(ctx, msg)
			session.MarkMessage(msg, "")
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg *sarama.ConsumerMessage) {
	m, err := Decode(msg.Value)
	if err != nil {
		metrics.RecordFeedMessage("unknown", statusInvalid)
		c.logger.Warn(ctx, "dropping feed message",
			logger.Error(err),
			logger.Int("partition", int(msg.Partition)),
			logger.Any("offset", msg.Offset),
		)
		return
	}

	// Redelivered messages without an explicit id dedupe on their position.
	fallbackID := fmt.Sprintf("%s-%d-%d", msg.Topic, msg.Partition, msg.Offset)
	receipt, err := c.apply(ctx, m, fallbackID)
	status := statusApplied
	switch {
	case err == nil && receipt.Duplicate:
		status = statusDuplicate
	case errors.Is(err, service.ErrBadRequest), errors.Is(err, service.ErrReadOnly):
		status = statusRejected
	case err != nil:
		status = statusFailed
	}
	metrics.RecordFeedMessage(m.Type, status)

	if err != nil {
		c.logger.Warn(ctx, "feed message not applied",
			logger.String("type", m.Type),
			logger.String("status", status),
			logger.Any("offset", msg.Offset),
			logger.Error(err),
		)
		return
	}
	c.logger.Debug(ctx, "feed message applied",
		logger.String("type", m.Type),
		logger.String("submission_id", receipt.SubmissionID),
		logger.Bool("duplicate", receipt.Duplicate),
	)
}

// apply submits m, retrying while the service reports backpressure.
func (c *Consumer) apply(ctx context.Context, m Message, fallbackID string) (service.Receipt, error) {
	var (
		receipt service.Receipt
		err     error
	)
	for attempt := 1; ; attempt++ {
		switch m.Type {
		case TypeResult:
			receipt, err = c.sub.SubmitResult(ctx, m.Result(fallbackID))
		default:
			receipt, err = c.sub.SubmitPredictions(ctx, m.Prediction(fallbackID))
		}
		if !errors.Is(err, service.ErrBackpressure) || attempt >= c.attempts {
			return receipt, err
		}
		select {
		case <-ctx.Done():
			return receipt, err
		case <-time.After(c.backoff):
		}
	}
}
