// Package sqs publishes relay failure notices to an AWS SQS queue so a
// reconciliation worker can re-drive undelivered outcomes.
package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/target/llm-relay/internal/observability/notify"
)

// API is the subset of the SQS client used by the sink.
type API interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Config describes the target queue.
type Config struct {
	QueueURL string
	Region   string
	Timeout  time.Duration
	// Client overrides the SDK client (tests).
	Client API
}

// Sink sends one SQS message per relay failure.
type Sink struct {
	queueURL string
	timeout  time.Duration
	client   API
}

// NewSink builds a sink, loading the default AWS credential chain when no client is supplied.
func NewSink(ctx context.Context, cfg Config) (*Sink, error) {
	queueURL := strings.TrimSpace(cfg.QueueURL)
	if queueURL == "" {
		return nil, errors.New("sqs queue url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := cfg.Client
	if client == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client = sqs.NewFromConfig(awsCfg)
	}

	return &Sink{queueURL: queueURL, timeout: timeout, client: client}, nil
}

// SendRelayFailure publishes the payload as a JSON message body.
func (s *Sink) SendRelayFailure(ctx context.Context, payload notify.RelayFailurePayload) error {
	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
	}
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode relay failure: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(data)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"job_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(payload.JobID),
			},
			"attempts": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(strconv.Itoa(payload.Attempts)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send relay failure to queue: %w", err)
	}
	return nil
}
