package sinks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/domain"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/logger"
)

// snsClient defines the minimal subset of the SNS client used by the sender.
type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type awsSNSSender struct {
	topicARN string
	client   snsClient
	log      logger.Logger
}

// newAWSSNSSender builds an SNS sender with static credentials.
func newAWSSNSSender(ctx context.Context, cfg *SNSConfig, log logger.Logger) (queueSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("sns configuration is missing")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	awsCfg, err := awscfg.LoadDefaultConfig(ctx,
		awscfg.WithRegion(cfg.Region),
		awscfg.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &awsSNSSender{
		topicARN: cfg.TopicARN,
		client:   sns.NewFromConfig(awsCfg),
		log:      logger.Ensure(log),
	}, nil
}

// Send publishes the report event to the configured SNS topic.
func (s *awsSNSSender) Send(ctx context.Context, evt domain.ReportEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal report event: %w", err)
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"session_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(evt.SessionID),
			},
		},
	}

	resp, err := s.client.Publish(ctx, input)
	if err != nil {
		s.log.ErrorObj("sns sink send failed", "sink_sns_error", map[string]any{
			"error": err.Error(),
		})
		return fmt.Errorf("send message to sns: %w", err)
	}
	s.log.DebugObj("sns sink delivered report event", "sink_sns_delivery", map[string]any{
		"message_id": aws.ToString(resp.MessageId),
	})
	return nil
}
