package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/aqmonitor/aqmonitor/internal/airquality"
)

// Job types understood by the message processor.
const (
	JobAlertCheck  = "alert_check"
	JobHealthCheck = "health_check"
)

// CheckMessage requests an alert check. An empty Location checks every
// subscribed location.
type CheckMessage struct {
	JobType  string `json:"job_type"`
	Location string `json:"location,omitempty"`
}

// Processor turns message bodies into alert check jobs.
type Processor struct {
	job    *AlertCheckJob
	logger zerolog.Logger
}

// NewProcessor creates a message processor backed by job.
func NewProcessor(job *AlertCheckJob, logger zerolog.Logger) *Processor {
	return &Processor{job: job, logger: logger}
}

// Process handles one message body and reports whether it should be acked.
// Malformed bodies and failed runs are nacked for redelivery; unknown job
// types and unresolvable locations are acked since retrying cannot help.
func (p *Processor) Process(ctx context.Context, data []byte) bool {
	var msg CheckMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		p.logger.Error().Err(err).Msg("failed to parse message")
		return false
	}

	var err error
	switch msg.JobType {
	case JobAlertCheck:
		err = p.handleAlertCheck(ctx, strings.TrimSpace(msg.Location))
	case JobHealthCheck:
		err = p.handleHealthCheck(ctx)
	default:
		p.logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return true
	}

	if errors.Is(err, airquality.ErrLocationNotFound) {
		p.logger.Warn().Str("location", msg.Location).Msg("location not found, dropping message")
		return true
	}
	if err != nil {
		p.logger.Error().Err(err).Str("job_type", msg.JobType).Msg("job failed")
		return false
	}
	return true
}

func (p *Processor) handleAlertCheck(ctx context.Context, location string) error {
	if location != "" {
		res, err := p.job.CheckLocation(ctx, location)
		if err != nil {
			return err
		}
		p.logger.Info().
			Str("location", location).
			Int("aqi", res.Reading.AQI).
			Int("alerts_sent", len(res.Recipients)).
			Msg("location checked")
		return nil
	}

	result, err := p.job.Run(ctx)
	if err != nil {
		return err
	}
	if result.Failed > result.Successful {
		return fmt.Errorf("too many check failures: %d/%d", result.Failed, result.Locations)
	}
	return nil
}

func (p *Processor) handleHealthCheck(ctx context.Context) error {
	locations, err := p.job.locations.Locations(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	p.logger.Debug().Int("locations", len(locations)).Msg("health check passed")
	return nil
}

// PubSubHandler feeds Pub/Sub messages to a Processor.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	processor        *Processor
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Job              *AlertCheckJob
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		processor:        NewProcessor(cfg.Job, cfg.Logger),
		logger:           cfg.Logger,
	}, nil
}

// Start processes messages until ctx is cancelled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		start := time.Now()
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()

		if !h.processor.Process(logger.WithContext(ctx), msg.Data) {
			msg.Nack()
			return
		}
		logger.Debug().Dur("duration", time.Since(start)).Msg("message processed")
		msg.Ack()
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}
