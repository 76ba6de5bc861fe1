package notify

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/internship-radar/internal/types"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) Notify(context.Context, Recipient, Message) error {
	r.calls++
	return r.err
}

func sampleMessage() Message {
	return Message{
		Kind:    KindAlert,
		Subject: AlertSubject(2),
		Jobs: []types.JobSummary{
			{Title: "SWE Intern", Company: "Acme & Co", Location: types.StringPtr("Remote"), URL: types.StringPtr("https://acme.example/1"), Salary: "$45/hr"},
			{Title: "<Backend> Intern", Company: "Bolt"},
		},
		UnsubscribeURL: "https://radar.example/unsubscribe?token=abc",
	}
}

func TestFormatHTML(t *testing.T) {
	out := FormatHTML(sampleMessage())

	assert.True(t, strings.HasPrefix(out, "<b>2 new jobs matching your interests</b>"))
	assert.Contains(t, out, `1. <a href="https://acme.example/1">SWE Intern</a> at <b>Acme &amp; Co</b> · Remote`)
	assert.Contains(t, out, "$45/hr")
	assert.Contains(t, out, "2. &lt;Backend&gt; Intern at <b>Bolt</b>")
	assert.Contains(t, out, `<a href="https://radar.example/unsubscribe?token=abc">Unsubscribe</a>`)
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "1 new job matching your interests", AlertSubject(1))
	assert.Equal(t, "10 new internships matching your preferences", DigestSubject(10))
}

func TestTelegramNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifierWithSender(sender)

	err := n.Notify(context.Background(), Recipient{ChatID: 42}, sampleMessage())
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "SWE Intern")

	err = n.Notify(context.Background(), Recipient{Email: "a@example.com"}, sampleMessage())
	assert.ErrorIs(t, err, ErrNoChannel)

	sender.err = errors.New("flood control")
	err = n.Notify(context.Background(), Recipient{ChatID: 42}, sampleMessage())
	assert.ErrorContains(t, err, "flood control")
}

func TestFallback(t *testing.T) {
	secondary := &recordingNotifier{}
	f := Fallback{Primary: NewTelegramNotifierWithSender(&fakeSender{}), Secondary: secondary}

	require.NoError(t, f.Notify(context.Background(), Recipient{Email: "a@example.com"}, sampleMessage()))
	assert.Equal(t, 1, secondary.calls)

	require.NoError(t, f.Notify(context.Background(), Recipient{ChatID: 7}, sampleMessage()))
	assert.Equal(t, 1, secondary.calls, "primary handled it")

	primaryErr := &recordingNotifier{err: errors.New("down")}
	f = Fallback{Primary: primaryErr, Secondary: secondary}
	assert.Error(t, f.Notify(context.Background(), Recipient{ChatID: 7}, sampleMessage()))
	assert.Equal(t, 1, secondary.calls, "only missing channels fall back")
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, LogNotifier{}.Notify(context.Background(), Recipient{}, sampleMessage()))
}

func TestTokenSigner_RoundTrip(t *testing.T) {
	s := NewTokenSigner("secret", 0)

	token, err := s.Sign(" Ada@Example.com ")
	require.NoError(t, err)

	email, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)
}

func TestTokenSigner_Rejects(t *testing.T) {
	s := NewTokenSigner("secret", time.Hour)
	token, err := s.Sign("ada@example.com")
	require.NoError(t, err)

	other := NewTokenSigner("other-secret", time.Hour)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	later := NewTokenSigner("secret", time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenSigner_UnsubscribeURL(t *testing.T) {
	s := NewTokenSigner("secret", 0)
	link, err := s.UnsubscribeURL("https://radar.example/", "ada@example.com")
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/unsubscribe", u.Path)

	email, err := s.Verify(u.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)
}
