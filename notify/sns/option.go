package sns

import (
	"log/slog"

	"github.com/rbaliyan/privmsg/retry"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

type options struct {
	region          string
	endpoint        string
	accessKey       string
	secretKey       string
	sessionToken    string
	roleARN         string
	roleSessionName string
	externalID      string
	subject         string
	retry           []retry.Option
	logger          *slog.Logger
}

func newOptions(opts ...Option) *options {
	o := &options{
		region: DefaultRegion,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures a Notifier.
type Option func(*options)

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *options) {
		if region != "" {
			o.region = region
		}
	}
}

// WithEndpoint sets a custom endpoint, e.g. LocalStack.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithStaticCredentials uses an access key pair instead of the default chain.
func WithStaticCredentials(accessKey, secretKey, sessionToken string) Option {
	return func(o *options) {
		o.accessKey = accessKey
		o.secretKey = secretKey
		o.sessionToken = sessionToken
	}
}

// WithAssumeRole publishes with credentials of roleARN obtained through STS.
func WithAssumeRole(roleARN, sessionName, externalID string) Option {
	return func(o *options) {
		o.roleARN = roleARN
		o.roleSessionName = sessionName
		o.externalID = externalID
	}
}

// WithSubject sets the subject used by email subscriptions of the topic.
func WithSubject(subject string) Option {
	return func(o *options) {
		o.subject = subject
	}
}

// WithRetry configures retries of failed publishes.
func WithRetry(opts ...retry.Option) Option {
	return func(o *options) {
		o.retry = append(o.retry, opts...)
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
