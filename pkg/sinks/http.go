package sinks

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/domain"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/logger"
)

// httpSink posts report events as JSON to a webhook endpoint.
type httpSink struct {
	id      string
	typ     string
	url     string
	method  string
	headers map[string]string
	client  *resty.Client
	log     logger.Logger
}

func newHTTPSink(_ context.Context, cfg Config, log logger.Logger) (Sink, error) {
	if cfg.HTTP == nil || cfg.HTTP.URL == "" {
		return nil, fmt.Errorf("sink %q missing http url", cfg.ID)
	}

	client := resty.New().
		SetTimeout(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second).
		SetHeader("Content-Type", "application/json")

	return &httpSink{
		id:      cfg.ID,
		typ:     cfg.Type,
		url:     cfg.HTTP.URL,
		method:  cfg.HTTP.Method,
		headers: cfg.HTTP.Headers,
		client:  client,
		log:     logger.Ensure(log),
	}, nil
}

func (s *httpSink) ID() string   { return s.id }
func (s *httpSink) Type() string { return s.typ }

// Publish delivers the report event to the configured endpoint.
func (s *httpSink) Publish(ctx context.Context, evt domain.ReportEvent) error {
	req := s.client.R().
		SetContext(ctx).
		SetHeaders(s.headers).
		SetBody(evt)

	resp, err := req.Execute(s.method, s.url)
	if err != nil {
		s.log.ErrorObj("http sink send failed", "sink_http_error", map[string]any{
			"error": err.Error(),
			"url":   s.url,
		})
		return fmt.Errorf("post report event: %w", err)
	}
	if resp.IsError() {
		s.log.ErrorObj("http sink endpoint rejected event", "sink_http_status", map[string]any{
			"status": resp.StatusCode(),
			"url":    s.url,
		})
		return fmt.Errorf("post report event: endpoint returned status %d", resp.StatusCode())
	}

	s.log.DebugObj("http sink delivered report event", "sink_http_delivery", map[string]any{
		"status": resp.StatusCode(),
		"url":    s.url,
	})
	return nil
}
