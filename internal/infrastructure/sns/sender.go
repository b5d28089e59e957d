package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/taskflow-api/internal/config"
	"github.com/taskflow-api/internal/domain"
)

// TaskEvent is the message body published for every task lifecycle event.
type TaskEvent struct {
	Kind    domain.NotificationKind `json:"kind"`
	TaskID  string                  `json:"task_id"`
	UserID  string                  `json:"user_id"`
	Message string                  `json:"message"`
}

// EventPublisher fans task events out to an SNS topic.
type EventPublisher interface {
	PublishTaskEvent(ctx context.Context, ev TaskEvent) error
}

type publishAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type publisher struct {
	client   publishAPI
	topicARN string
}

// NewPublisher returns a publisher for cfg.SNSTaskTopicARN, or nil when no
// topic is configured.
func NewPublisher(cfg *config.Config) (EventPublisher, error) {
	if cfg.SNSTaskTopicARN == "" {
		return nil, nil
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.SNSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, err
	}
	var clientOpts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return newPublisher(sns.NewFromConfig(awsCfg, clientOpts...), cfg.SNSTaskTopicARN), nil
}

func newPublisher(client publishAPI, topicARN string) *publisher {
	return &publisher{client: client, topicARN: topicARN}
}

func (p *publisher) PublishTaskEvent(ctx context.Context, ev TaskEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal task event: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"kind": {DataType: aws.String("String"), StringValue: aws.String(string(ev.Kind))},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
