package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/smithy-go/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	input *sqs.SendMessageInput
	err   error
}

func (r *recordingSender) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	r.input = params
	if r.err != nil {
		return nil, r.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSPublishEncodesEvent(t *testing.T) {
	sender := &recordingSender{}
	sink := NewSQS(sender, "https://sqs.example/queue")

	err := sink.Publish(context.Background(), EventError, Payload{"error": errors.New("render failed"), "context": "video"})
	require.NoError(t, err)
	require.NotNil(t, sender.input)
	assert.Equal(t, "https://sqs.example/queue", aws.ToString(sender.input.QueueUrl))
	assert.Equal(t, "error", aws.ToString(sender.input.MessageAttributes["event"].StringValue))

	var msg QueueMessage
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(sender.input.MessageBody)), &msg))
	assert.Equal(t, EventError, msg.Event)
	assert.Equal(t, "render failed", msg.Payload["error"])
	assert.NotEmpty(t, msg.SentAt)
}

func mockSQSMiddleware(output interface{}, err error) func(*middleware.Stack) error {
	return func(stack *middleware.Stack) error {
		return stack.Finalize.Add(
			middleware.FinalizeMiddlewareFunc("MockMiddleware", func(context.Context, middleware.FinalizeInput, middleware.FinalizeHandler) (middleware.FinalizeOutput, middleware.Metadata, error) {
				return middleware.FinalizeOutput{
					Result: output,
				}, middleware.Metadata{}, err
			}),
			middleware.Before,
		)
	}
}

func TestSQSPublishWithSDKClient(t *testing.T) {
	client := sqs.NewFromConfig(aws.Config{Region: "us-east-1"}, func(o *sqs.Options) {
		o.DisableMessageChecksumValidation = true
		o.APIOptions = append(o.APIOptions, mockSQSMiddleware(&sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil))
	})
	sink := NewSQS(client, "https://sqs.example/queue")
	assert.NoError(t, sink.Publish(context.TODO(), EventQADaily, Payload{"text": "QA Daily: 1 ok / 0 issues"}))
}

func TestSQSPublishError(t *testing.T) {
	client := sqs.NewFromConfig(aws.Config{Region: "us-east-1"}, func(o *sqs.Options) {
		o.DisableMessageChecksumValidation = true
		o.APIOptions = append(o.APIOptions, mockSQSMiddleware(nil, errors.New("sqs error")))
	})
	sink := NewSQS(client, "https://sqs.example/queue")
	err := sink.Publish(context.TODO(), EventTest, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send message")
}
