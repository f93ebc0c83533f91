package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingMailer struct {
	mu      sync.Mutex
	sent    []VerificationMessage
	fail    bool
	release chan struct{}
}

func (m *recordingMailer) Send(_ context.Context, msg VerificationMessage) error {
	if m.release != nil {
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestAsyncDispatcher_DeliversAndDrains(t *testing.T) {
	mailer := &recordingMailer{}
	d := NewAsyncDispatcher(mailer, zap.NewNop(), 10)

	for i := 0; i < 5; i++ {
		d.Dispatch(context.Background(), VerificationMessage{Email: "a@ritrjpm.ac.in", Code: "123456"})
	}
	d.Close()

	assert.Equal(t, 5, mailer.count())
}

func TestAsyncDispatcher_DoesNotBlockWhenFull(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	mailer := &recordingMailer{release: make(chan struct{})}
	d := NewAsyncDispatcher(mailer, zap.New(core), 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			d.Dispatch(context.Background(), VerificationMessage{Email: "a@ritrjpm.ac.in", Code: "123456"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}

	close(mailer.release)
	d.Close()

	assert.NotZero(t, logs.FilterMessage("dispatch queue full, dropping verification message").Len())
	assert.Less(t, mailer.count(), 5)
}

func TestAsyncDispatcher_FailuresAreLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	mailer := &recordingMailer{fail: true}
	d := NewAsyncDispatcher(mailer, zap.New(core), 4)

	d.Dispatch(context.Background(), VerificationMessage{Email: "a@ritrjpm.ac.in", Code: "123456"})
	d.Close()

	require.Equal(t, 1, logs.FilterMessage("failed to deliver verification code").Len())
}

func TestAsyncDispatcher_DispatchAfterClose(t *testing.T) {
	d := NewAsyncDispatcher(&recordingMailer{}, zap.NewNop(), 1)
	d.Close()

	assert.NotPanics(t, func() {
		d.Dispatch(context.Background(), VerificationMessage{Email: "a@ritrjpm.ac.in", Code: "1"})
	})
	d.Close()
}

func TestHandleDelivery(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC)
	ok := func(context.Context, VerificationMessage) error { return nil }
	failing := func(context.Context, VerificationMessage) error { return errors.New("smtp down") }

	const live = `{"email":"a@ritrjpm.ac.in","code":"123456","expires_at":"2024-03-01T09:15:00Z"}`
	const expired = `{"email":"a@ritrjpm.ac.in","code":"123456","expires_at":"2024-02-29T09:15:00Z"}`

	tests := []struct {
		name        string
		body        string
		redelivered bool
		handler     func(context.Context, VerificationMessage) error
		want        deliveryAction
	}{
		{"valid", live, false, ok, actionAck},
		{"valid on retry", live, true, ok, actionAck},
		{"first failure requeues", live, false, failing, actionRequeue},
		{"second failure dropped", live, true, failing, actionDrop},
		{"expired dropped", expired, false, failing, actionDrop},
		{"expired on retry dropped", expired, true, ok, actionDrop},
		{"expiring now dropped", `{"email":"a@ritrjpm.ac.in","code":"123456","expires_at":"2024-03-01T09:05:00Z"}`, false, ok, actionDrop},
		{"no expiry delivered", `{"email":"a@ritrjpm.ac.in","code":"123456"}`, false, ok, actionAck},
		{"malformed json dropped", `{"email":`, false, ok, actionDrop},
		{"missing code dropped", `{"email":"a@ritrjpm.ac.in"}`, false, ok, actionDrop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, _ := handleDelivery(context.Background(), []byte(tt.body), tt.redelivered, now, tt.handler)
			assert.Equal(t, tt.want, action)
		})
	}
}

func TestHandleDelivery_ExpiredNotSent(t *testing.T) {
	calls := 0
	handler := func(context.Context, VerificationMessage) error {
		calls++
		return errors.New("smtp down")
	}
	body := []byte(`{"email":"a@ritrjpm.ac.in","code":"123456","expires_at":"2024-03-01T09:15:00Z"}`)
	now := time.Date(2024, 3, 2, 9, 15, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		action, err := handleDelivery(context.Background(), body, i > 0, now, handler)
		assert.Equal(t, actionDrop, action)
		assert.Error(t, err)
	}
	assert.Zero(t, calls)
}

func TestRabbitClient_DispatchAfterClose(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c := &RabbitClient{logger: zap.New(core)}
	c.Close()

	c.Dispatch(context.Background(), VerificationMessage{Email: "a@ritrjpm.ac.in", Code: "123456"})

	assert.Equal(t, 1, logs.FilterMessage("publisher closed, dropping verification message").Len())
}

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("noreply@ritrjpm.ac.in", VerificationMessage{
		Email:     "a@ritrjpm.ac.in",
		Name:      "Asha",
		Code:      "042137",
		ExpiresAt: time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC),
	})

	body := string(msg)
	assert.True(t, strings.HasPrefix(body, "From: noreply@ritrjpm.ac.in\r\n"))
	assert.Contains(t, body, "To: a@ritrjpm.ac.in\r\n")
	assert.Contains(t, body, "Your verification code is 042137.")
}
