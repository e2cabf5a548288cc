package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/taratrabaho/jobboard-api/internal/config"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/awsinfra"
)

// Publisher posts admin notices to an SNS topic.
type Publisher interface {
	Publish(ctx context.Context, subject, message string) error
}

type publisher struct {
	client   *sns.Client
	topicARN string
}

func NewPublisher(awsCfg aws.Config, cfg *config.Config) Publisher {
	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if ep := awsinfra.Endpoint(cfg); ep != nil {
			o.BaseEndpoint = ep
		}
	})
	return &publisher{client: client, topicARN: cfg.SNSTopicARN}
}

func (p *publisher) Publish(ctx context.Context, subject, message string) error {
	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
