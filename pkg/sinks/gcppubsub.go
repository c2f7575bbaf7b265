package sinks

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/domain"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/logger"
)

type gcpPubSubSender struct {
	topic *pubsub.Topic
	log   logger.Logger
}

// newGCPPubSubSender builds a Pub/Sub sender using the provided config.
func newGCPPubSubSender(ctx context.Context, cfg *PubSubConfig, log logger.Logger) (queueSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pubsub configuration is missing")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &gcpPubSubSender{
		topic: client.Topic(cfg.Topic),
		log:   logger.Ensure(log),
	}, nil
}

// Send publishes the report event to the configured Pub/Sub topic.
func (s *gcpPubSubSender) Send(ctx context.Context, evt domain.ReportEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal report event: %w", err)
	}

	msg := &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"session_id": evt.SessionID,
		},
	}

	res := s.topic.Publish(ctx, msg)
	msgID, err := res.Get(ctx)
	if err != nil {
		s.log.ErrorObj("pubsub sink send failed", "sink_pubsub_error", map[string]any{
			"error": err.Error(),
		})
		return fmt.Errorf("send message to pubsub: %w", err)
	}

	s.log.DebugObj("pubsub sink delivered report event", "sink_pubsub_delivery", map[string]any{
		"message_id": msgID,
	})
	return nil
}
