package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// MessageSender is the subset of the SQS client used by the queue sink.
type MessageSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// QueueMessage is the JSON body sent to SQS.
type QueueMessage struct {
	Event   Event          `json:"event"`
	SentAt  string         `json:"sent_at"`
	Payload map[string]any `json:"payload"`
}

// SQS forwards every event to a queue for downstream consumers.
type SQS struct {
	client   MessageSender
	queueURL string
	now      func() time.Time
}

// NewSQSClient builds an SQS client from the default AWS credential chain.
func NewSQSClient(ctx context.Context, region string) (*sqs.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if strings.TrimSpace(region) != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return sqs.NewFromConfig(awsCfg), nil
}

// NewSQS builds a queue sink.
func NewSQS(client MessageSender, queueURL string) *SQS {
	return &SQS{client: client, queueURL: queueURL, now: time.Now}
}

// Publish sends the event and its payload as one message.
func (q *SQS) Publish(ctx context.Context, event Event, payload Payload) error {
	msg := QueueMessage{Event: event, SentAt: q.now().UTC().Format(time.RFC3339), Payload: map[string]any{}}
	for key, value := range payload {
		if err, ok := value.(error); ok {
			value = err.Error()
		}
		msg.Payload[key] = value
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode queue message: %w", err)
	}
	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event": {DataType: aws.String("String"), StringValue: aws.String(string(event))},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
