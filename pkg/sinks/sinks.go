package sinks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/domain"
)

// Sink receives the report-ready event once a session's CSV has been
// written. Delivery is best effort; the report exists regardless.
type Sink interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt domain.ReportEvent) error
}

const (
	TypeQueue = "queue"
	TypeHTTP  = "http"

	ProviderAWSSQS    = "aws-sqs"
	ProviderAWSSNS    = "aws-sns"
	ProviderGCPPubSub = "gcp-pubsub"
)

// Config is one sink entry declared in the sinks file.
type Config struct {
	ID      string       `json:"id" yaml:"id"`
	Type    string       `json:"type" yaml:"type"`
	Enabled *bool        `json:"enabled" yaml:"enabled"`
	Queue   *QueueConfig `json:"queue" yaml:"queue"`
	HTTP    *HTTPConfig  `json:"http" yaml:"http"`
}

// QueueConfig selects a cloud queue provider and its settings.
type QueueConfig struct {
	Provider string        `json:"provider" yaml:"provider"`
	SQS      *SQSConfig    `json:"sqs" yaml:"sqs"`
	SNS      *SNSConfig    `json:"sns" yaml:"sns"`
	PubSub   *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

// SQSConfig holds AWS SQS settings.
type SQSConfig struct {
	QueueURL        string `json:"queue_url" yaml:"queue_url"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// SNSConfig holds AWS SNS settings.
type SNSConfig struct {
	TopicARN        string `json:"topic_arn" yaml:"topic_arn"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// PubSubConfig holds Google Pub/Sub settings.
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPConfig holds generic webhook settings.
type HTTPConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

type configFile struct {
	Sinks []Config `json:"sinks" yaml:"sinks"`
}

// LoadConfigs reads the sinks file (YAML or JSON), expanding ${ENV}
// references, and returns the enabled, validated entries.
func LoadConfigs(path string) ([]Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sinks file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sinks file: %w", err)
	}
	expanded := []byte(os.ExpandEnv(string(raw)))

	var file configFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(expanded, &file)
	} else {
		err = yaml.Unmarshal(expanded, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("decode sinks file: %w", err)
	}

	ids := map[string]struct{}{}
	out := make([]Config, 0, len(file.Sinks))
	for i, cfg := range file.Sinks {
		cfg = normalize(cfg)
		if cfg.Enabled != nil && !*cfg.Enabled {
			continue
		}
		if err := validate(cfg); err != nil {
			return nil, fmt.Errorf("sinks[%d]: %w", i, err)
		}
		if _, dup := ids[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate sink id %q", cfg.ID)
		}
		ids[cfg.ID] = struct{}{}
		out = append(out, cfg)
	}
	return out, nil
}

func normalize(cfg Config) Config {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Queue != nil {
		cfg.Queue.Provider = strings.ToLower(strings.TrimSpace(cfg.Queue.Provider))
	}
	if cfg.HTTP != nil {
		cfg.HTTP.URL = strings.TrimSpace(cfg.HTTP.URL)
		cfg.HTTP.Method = strings.ToUpper(strings.TrimSpace(cfg.HTTP.Method))
		if cfg.HTTP.Method == "" {
			cfg.HTTP.Method = "POST"
		}
		if cfg.HTTP.TimeoutSeconds <= 0 {
			cfg.HTTP.TimeoutSeconds = 5
		}
	}
	return cfg
}

func validate(cfg Config) error {
	if cfg.ID == "" {
		return errors.New("sink id is required")
	}
	switch cfg.Type {
	case TypeQueue:
		if cfg.Queue == nil {
			return fmt.Errorf("sink %q missing queue configuration", cfg.ID)
		}
	case TypeHTTP:
		if cfg.HTTP == nil || cfg.HTTP.URL == "" {
			return fmt.Errorf("sink %q missing http url", cfg.ID)
		}
	default:
		return fmt.Errorf("sink %q has unsupported type %q", cfg.ID, cfg.Type)
	}
	return nil
}
