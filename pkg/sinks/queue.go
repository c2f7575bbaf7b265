package sinks

import (
	"context"
	"fmt"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/domain"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/logger"
)

// queueSender abstracts provider-specific queue senders.
type queueSender interface {
	Send(ctx context.Context, evt domain.ReportEvent) error
}

// queueSink dispatches report events to a cloud queue provider.
type queueSink struct {
	id       string
	typ      string
	provider string
	sender   queueSender
	log      logger.Logger
}

func newQueueSink(ctx context.Context, cfg Config, log logger.Logger) (Sink, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("sink %q missing queue configuration", cfg.ID)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var (
		sender queueSender
		err    error
	)

	switch cfg.Queue.Provider {
	case ProviderAWSSQS:
		sender, err = newAWSSQSSender(ctx, cfg.Queue.SQS, log)
	case ProviderAWSSNS:
		sender, err = newAWSSNSSender(ctx, cfg.Queue.SNS, log)
	case ProviderGCPPubSub:
		sender, err = newGCPPubSubSender(ctx, cfg.Queue.PubSub, log)
	default:
		err = fmt.Errorf("queue provider %q is not supported", cfg.Queue.Provider)
	}
	if err != nil {
		return nil, err
	}

	return &queueSink{
		id:       cfg.ID,
		typ:      cfg.Type,
		provider: cfg.Queue.Provider,
		sender:   sender,
		log:      logger.Ensure(log),
	}, nil
}

func (s *queueSink) ID() string   { return s.id }
func (s *queueSink) Type() string { return s.typ }

// Publish forwards the report event to the configured queue provider.
func (s *queueSink) Publish(ctx context.Context, evt domain.ReportEvent) error {
	if err := s.sender.Send(ctx, evt); err != nil {
		return fmt.Errorf("queue provider %s send failed: %w", s.provider, err)
	}
	return nil
}
