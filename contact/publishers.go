package contact

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
)

// LogPublisher writes submissions to the log. Useful in development.
type LogPublisher struct {
	Logger *zap.Logger
}

// Publish implements Publisher.
func (p LogPublisher) Publish(_ context.Context, sub Submission) error {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("contact submission",
		zap.String("subject", Subject),
		zap.String("name", sub.Name),
		zap.String("email", sub.Email),
		zap.String("message", sub.Message),
	)
	return nil
}

// SNSAPI is the part of the SNS client SNSPublisher uses.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher sends each submission to an SNS topic.
type SNSPublisher struct {
	client   SNSAPI
	topicARN string
}

// NewSNSPublisher builds an SNS client from the default AWS configuration
// chain (environment, shared config, instance role).
func NewSNSPublisher(ctx context.Context, topicARN string) (*SNSPublisher, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return NewSNSPublisherWithClient(sns.NewFromConfig(cfg), topicARN), nil
}

// NewSNSPublisherWithClient wraps an existing client.
func NewSNSPublisherWithClient(client SNSAPI, topicARN string) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN}
}

// Publish implements Publisher.
func (p *SNSPublisher) Publish(ctx context.Context, sub Submission) error {
	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(sub.Text()),
		Subject:  aws.String(Subject),
	})
	return err
}
