// Package notify delivers job alerts and digests to users.
package notify

import (
	"context"
	"errors"
	"log"

	"github.com/jonathan/internship-radar/internal/types"
)

// ErrNoChannel is returned when a recipient has no address the notifier can use.
var ErrNoChannel = errors.New("recipient has no delivery channel")

// Message kinds
const (
	KindAlert  = "alert"
	KindDigest = "digest"
)

// Recipient identifies who receives a message. ChatID is the Telegram chat;
// zero means none.
type Recipient struct {
	Email  string
	ChatID int64
}

// Message is a list of jobs with a heading and an optional unsubscribe link
type Message struct {
	Kind           string
	Subject        string
	Jobs           []types.JobSummary
	UnsubscribeURL string
}

// Notifier sends a message to one recipient
type Notifier interface {
	Notify(ctx context.Context, to Recipient, msg Message) error
}

// LogNotifier writes messages to the standard logger. It is used when no
// delivery channel is configured.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(_ context.Context, to Recipient, msg Message) error {
	log.Printf("[notify] %s to %s: %s (%d jobs)", msg.Kind, recipientLabel(to), msg.Subject, len(msg.Jobs))
	return nil
}

// Fallback sends through Primary and uses Secondary when the recipient has
// no channel Primary can reach.
type Fallback struct {
	Primary   Notifier
	Secondary Notifier
}

// Notify implements Notifier.
func (f Fallback) Notify(ctx context.Context, to Recipient, msg Message) error {
	err := f.Primary.Notify(ctx, to, msg)
	if errors.Is(err, ErrNoChannel) && f.Secondary != nil {
		return f.Secondary.Notify(ctx, to, msg)
	}
	return err
}

func recipientLabel(to Recipient) string {
	if to.Email != "" {
		return to.Email
	}
	if to.ChatID != 0 {
		return "telegram chat"
	}
	return "unknown recipient"
}
