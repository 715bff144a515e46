package sns

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/go-cmp/cmp"
	"github.com/rbaliyan/privmsg/retry"
	"github.com/rbaliyan/privmsg/store"
)

type fakePublisher struct {
	inputs []*sns.PublishInput
	errs   []error // returned in order, then success
}

func (f *fakePublisher) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

func noWait() Option {
	return WithRetry(retry.WithWait(func(context.Context, time.Duration) error { return nil }))
}

func testMessage() *store.Message {
	return &store.Message{
		ID:          42,
		SenderID:    "alice",
		RecipientID: "bob",
		Title:       "hi",
		Body:        "secret body",
		SentOn:      time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestNotifyPublishes(t *testing.T) {
	pub := &fakePublisher{}
	n := NewWithClient(pub, "arn:aws:sns:us-east-1:123:privmsg", WithSubject("New message"), noWait())

	if err := n.Notify(context.Background(), testMessage()); err != nil {
		t.Fatalf("Notify() = %v", err)
	}
	if len(pub.inputs) != 1 {
		t.Fatalf("published %d times, want 1", len(pub.inputs))
	}
	in := pub.inputs[0]

	if got := aws.ToString(in.TopicArn); got != "arn:aws:sns:us-east-1:123:privmsg" {
		t.Errorf("TopicArn = %q", got)
	}
	if got := aws.ToString(in.Subject); got != "New message" {
		t.Errorf("Subject = %q", got)
	}
	if got := aws.ToString(in.MessageAttributes["recipient_id"].StringValue); got != "bob" {
		t.Errorf("recipient_id attribute = %q", got)
	}
	if got := aws.ToString(in.MessageAttributes["message_id"].StringValue); got != "42" {
		t.Errorf("message_id attribute = %q", got)
	}

	var got Payload
	if err := json.Unmarshal([]byte(aws.ToString(in.Message)), &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	want := Payload{
		Event:       EventMessageCreated,
		MessageID:   42,
		SenderID:    "alice",
		RecipientID: "bob",
		Title:       "hi",
		SentOn:      time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestNotifyRetriesTransientFailures(t *testing.T) {
	pub := &fakePublisher{errs: []error{errors.New("throttling"), errors.New("throttling")}}
	n := NewWithClient(pub, "arn", noWait(), WithRetry(retry.WithAttempts(3)))

	if err := n.Notify(context.Background(), testMessage()); err != nil {
		t.Fatalf("Notify() = %v, want success on third attempt", err)
	}
	if len(pub.inputs) != 3 {
		t.Errorf("published %d times, want 3", len(pub.inputs))
	}
}

func TestNotifyGivesUp(t *testing.T) {
	down := errors.New("unavailable")
	pub := &fakePublisher{errs: []error{down, down}}
	n := NewWithClient(pub, "arn", noWait(), WithRetry(retry.WithAttempts(2)))

	err := n.Notify(context.Background(), testMessage())
	if !errors.Is(err, retry.ErrExhausted) || !errors.Is(err, down) {
		t.Fatalf("Notify() = %v, want exhausted retry wrapping cause", err)
	}
}

func TestNewRequiresTopic(t *testing.T) {
	if _, err := New(context.Background(), ""); err == nil {
		t.Fatal("New with empty topic succeeded")
	}
}
