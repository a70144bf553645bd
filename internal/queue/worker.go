// Package queue runs shortlisting requests delivered over AMQP and publishes the results.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/placement-matcher/internal/logging"
	"github.com/jonathan/placement-matcher/internal/retry"
	"github.com/jonathan/placement-matcher/internal/types"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Default queue names
const (
	DefaultRequestQueue = "shortlist_requests"
	DefaultResultQueue  = "shortlist_results"
)

// DefaultPublishPolicy retries a result publish in place before the request is given up
var DefaultPublishPolicy = retry.Policy{MaxAttempts: 3, Backoff: 200 * time.Millisecond}

// ErrChannelClosed is returned by Run when the broker closes the delivery channel
var ErrChannelClosed = errors.New("delivery channel closed")

// Channel is the subset of *amqp.Channel the worker uses
type Channel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Shortlister ranks candidates for one job description
type Shortlister interface {
	Shortlist(ctx context.Context, jdID string, jd types.JobDescriptionSummary, candidates []types.CandidateRecord, f types.FilterSet) (*types.ShortlistResult, error)
}

// Config names the queues and the filters applied to requests without any
type Config struct {
	RequestQueue string
	ResultQueue  string
	Filters      types.FilterSet
	// PublishPolicy defaults to DefaultPublishPolicy
	PublishPolicy retry.Policy
}

// Result is the message published for every processed request
type Result struct {
	Status          string                   `json:"status"`
	Message         string                   `json:"message"`
	JDID            string                   `json:"jd_id"`
	DynamicMinScore float64                  `json:"dynamic_min_score"`
	Statistics      types.ScoreStatistics    `json:"statistics"`
	Evaluated       int                      `json:"evaluated"`
	Leaderboard     []types.LeaderboardEntry `json:"leaderboard"`
}

// Worker consumes shortlist requests one at a time
type Worker struct {
	ch     Channel
	engine Shortlister
	cfg    Config
	logger *zap.Logger
}

// NewWorker creates a Worker; empty queue names fall back to the defaults
func NewWorker(ch Channel, engine Shortlister, cfg Config, logger *zap.Logger) *Worker {
	if cfg.RequestQueue == "" {
		cfg.RequestQueue = DefaultRequestQueue
	}
	if cfg.ResultQueue == "" {
		cfg.ResultQueue = DefaultResultQueue
	}
	if cfg.PublishPolicy.MaxAttempts == 0 {
		cfg.PublishPolicy = DefaultPublishPolicy
	}
	return &Worker{ch: ch, engine: engine, cfg: cfg, logger: logging.OrNop(logger)}
}

// Dial connects to the broker and opens a channel
func Dial(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("error dialling rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("error opening rabbitmq channel: %w", err)
	}
	return conn, ch, nil
}

// Declare creates both durable queues when missing
func Declare(ch Channel, queues ...string) error {
	for _, name := range queues {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", name, err)
		}
	}
	return nil
}

// Run consumes until ctx is cancelled or the channel closes
func (w *Worker) Run(ctx context.Context) error {
	if err := Declare(w.ch, w.cfg.RequestQueue, w.cfg.ResultQueue); err != nil {
		return err
	}
	if err := w.ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	msgs, err := w.ch.Consume(
		w.cfg.RequestQueue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", w.cfg.RequestQueue, err)
	}

	w.logger.Info("worker consuming", zap.String("queue", w.cfg.RequestQueue))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return ErrChannelClosed
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	logger := w.logger.With(zap.String("correlation_id", d.CorrelationId))

	var req types.ShortlistRequest
	if err := json.Unmarshal(d.Body, &req); err != nil {
		logger.Warn("dropping malformed message", zap.Error(err))
		w.nack(d, false)
		return
	}
	if err := req.Validate(); err != nil {
		logger.Warn("dropping invalid request", zap.Error(err))
		w.nack(d, false)
		return
	}

	jdID := req.JDID
	if jdID == "" {
		jdID = "jd_" + uuid.NewString()[:8]
	}
	logger = logger.With(zap.String(logging.FieldJDID, jdID))

	result := Result{Status: "success", Message: "Shortlisting complete", JDID: jdID, Leaderboard: []types.LeaderboardEntry{}}
	if len(req.Candidates) == 0 {
		result.Status = "error"
		result.Message = "No candidates provided"
	} else {
		out, err := w.engine.Shortlist(ctx, jdID, *req.JDSummary, req.Candidates, types.FiltersOr(req.Filters, w.cfg.Filters))
		if err != nil {
			logger.Error("shortlisting failed", zap.Bool("redelivered", d.Redelivered), zap.Error(err))
			w.nack(d, !d.Redelivered)
			return
		}
		result.DynamicMinScore = out.DynamicMinScore
		result.Statistics = out.Statistics
		result.Evaluated = out.Evaluated
		if out.Leaderboard != nil {
			result.Leaderboard = out.Leaderboard
		}
	}

	// Scores are recorded by now: never requeue past this point
	if err := w.publish(ctx, d, result); err != nil {
		logger.Error("failed to publish result, dropping request", zap.Error(err))
		w.nack(d, false)
		return
	}
	if err := d.Ack(false); err != nil {
		logger.Warn("ack failed", zap.Error(err))
	}
	logger.Info("request processed",
		zap.String("status", result.Status),
		zap.Int("shortlisted", len(result.Leaderboard)))
}

func (w *Worker) publish(ctx context.Context, d amqp.Delivery, result Result) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	key := d.ReplyTo
	if key == "" {
		key = w.cfg.ResultQueue
	}
	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: d.CorrelationId,
		Timestamp:     time.Now().UTC(),
		Body:          body,
	}

	policy := w.cfg.PublishPolicy.WithOnRetry(func(attempt int, err error) {
		w.logger.Warn("publish failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
	})
	_, err = retry.Do(ctx, policy, func(context.Context) (struct{}, error) {
		return struct{}{}, w.ch.Publish("", key, false, false, msg)
	})
	return err
}

func (w *Worker) nack(d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		w.logger.Warn("nack failed", zap.Error(err))
	}
}

// Enqueue publishes a shortlist request and returns its correlation id
func Enqueue(ch Channel, queue string, req types.ShortlistRequest, replyTo string) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	if queue == "" {
		queue = DefaultRequestQueue
	}
	correlationID := uuid.NewString()
	err = ch.Publish("", queue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: correlationID,
		ReplyTo:       replyTo,
		Timestamp:     time.Now().UTC(),
		Body:          body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish request: %w", err)
	}
	return correlationID, nil
}
