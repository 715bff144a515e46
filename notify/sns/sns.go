// Package sns publishes new-message notifications to an AWS SNS topic.
//
// Each notification is a JSON document describing the message without its
// body. Subscribers (mail, push or SMS senders) decide how to reach the user.
package sns

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rbaliyan/privmsg"
	"github.com/rbaliyan/privmsg/retry"
	"github.com/rbaliyan/privmsg/store"
)

// EventMessageCreated is the "event" attribute of every published notification.
const EventMessageCreated = "message_created"

// Publisher is the part of *sns.Client the notifier uses.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Payload is the JSON body of a notification.
type Payload struct {
	Event       string    `json:"event"`
	MessageID   int64     `json:"message_id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Title       string    `json:"title"`
	SentOn      time.Time `json:"sent_on"`
}

// Notifier implements privmsg.Notifier on top of SNS.
type Notifier struct {
	client   Publisher
	topicARN string
	subject  string
	retry    retry.Policy
	logger   *slog.Logger
}

var _ privmsg.Notifier = (*Notifier)(nil)

// New loads AWS configuration and returns a notifier publishing to topicARN.
// The context is used for credential loading.
func New(ctx context.Context, topicARN string, opts ...Option) (*Notifier, error) {
	if topicARN == "" {
		return nil, fmt.Errorf("sns: topic ARN is required")
	}
	o := newOptions(opts...)

	awsCfg, err := buildAWSConfig(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("build aws config: %w", err)
	}
	client := sns.NewFromConfig(awsCfg, func(so *sns.Options) {
		if o.endpoint != "" {
			so.BaseEndpoint = aws.String(o.endpoint)
		}
	})
	return newNotifier(client, topicARN, o), nil
}

// NewWithClient returns a notifier using an existing client.
func NewWithClient(client Publisher, topicARN string, opts ...Option) *Notifier {
	return newNotifier(client, topicARN, newOptions(opts...))
}

func newNotifier(client Publisher, topicARN string, o *options) *Notifier {
	return &Notifier{
		client:   client,
		topicARN: topicARN,
		subject:  o.subject,
		retry:    retry.NewPolicy(o.retry...),
		logger:   o.logger,
	}
}

// buildAWSConfig picks static keys, an assumed role or the default chain.
func buildAWSConfig(ctx context.Context, o *options) (aws.Config, error) {
	optFns := []func(*config.LoadOptions) error{config.WithRegion(o.region)}

	switch {
	case o.accessKey != "" && o.secretKey != "":
		creds := credentials.NewStaticCredentialsProvider(o.accessKey, o.secretKey, o.sessionToken)
		optFns = append(optFns, config.WithCredentialsProvider(creds))

	case o.roleARN != "":
		baseCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(o.region))
		if err != nil {
			return aws.Config{}, fmt.Errorf("load base config for role: %w", err)
		}
		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(baseCfg), o.roleARN,
			func(ro *stscreds.AssumeRoleOptions) {
				if o.roleSessionName != "" {
					ro.RoleSessionName = o.roleSessionName
				}
				if o.externalID != "" {
					ro.ExternalID = aws.String(o.externalID)
				}
			})
		optFns = append(optFns, config.WithCredentialsProvider(aws.NewCredentialsCache(provider)))
	}

	return config.LoadDefaultConfig(ctx, optFns...)
}

// Notify publishes msg to the topic, retrying transient failures.
func (n *Notifier) Notify(ctx context.Context, msg *store.Message) error {
	input, err := n.input(msg)
	if err != nil {
		return err
	}

	var messageID string
	err = n.retry.Do(ctx, func(ctx context.Context) error {
		out, err := n.client.Publish(ctx, input)
		if err != nil {
			return err
		}
		messageID = aws.ToString(out.MessageId)
		return nil
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}

	n.logger.Debug("published notification",
		"message_id", msg.ID, "recipient_id", msg.RecipientID, "sns_message_id", messageID)
	return nil
}

func (n *Notifier) input(msg *store.Message) (*sns.PublishInput, error) {
	body, err := json.Marshal(Payload{
		Event:       EventMessageCreated,
		MessageID:   msg.ID,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		Title:       msg.Title,
		SentOn:      msg.SentOn,
	})
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event": {
				DataType:    aws.String("String"),
				StringValue: aws.String(EventMessageCreated),
			},
			"recipient_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.RecipientID),
			},
			"message_id": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(strconv.FormatInt(msg.ID, 10)),
			},
		},
	}
	if n.subject != "" {
		input.Subject = aws.String(n.subject)
	}
	return input, nil
}
