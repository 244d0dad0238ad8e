package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"damage-portal/internal/domain/entity"
	"damage-portal/internal/domain/port"
)

type fakeChat struct {
	mu       sync.Mutex
	requests []port.ChatRequest
	reply    string
	err      error
	release  chan struct{}
	started  chan struct{}
}

func (f *fakeChat) Reply(ctx context.Context, req port.ChatRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.reply, f.err
}

func (f *fakeChat) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func testReport() *entity.CanonicalReport {
	return &entity.CanonicalReport{Summary: "dent on door"}
}

func TestSend_AppendsUserAndAssistantTurns(t *testing.T) {
	svc := &fakeChat{reply: "About $300."}
	s := NewSession(svc)
	s.Bind("car.jpg", testReport())

	msg, err := s.Send(context.Background(), "  how much?  ")
	require.NoError(t, err)
	require.Equal(t, entity.ChatMessage{Role: entity.RoleAssistant, Content: "About $300."}, msg)
	require.Equal(t, []entity.ChatMessage{
		{Role: entity.RoleUser, Content: "how much?"},
		{Role: entity.RoleAssistant, Content: "About $300."},
	}, s.Messages())

	require.Len(t, svc.requests, 1)
	req := svc.requests[0]
	require.Equal(t, "car.jpg", req.ImageName)
	require.Equal(t, "dent on door", req.Report.Summary)
	require.Len(t, req.Messages, 1)
}

func TestSend_FullTranscriptIsSent(t *testing.T) {
	svc := &fakeChat{reply: "ok"}
	s := NewSession(svc)
	s.Bind("car.jpg", testReport())

	_, err := s.Send(context.Background(), "first")
	require.NoError(t, err)
	_, err = s.Send(context.Background(), "second")
	require.NoError(t, err)
	require.Len(t, svc.requests[1].Messages, 3)
	require.Len(t, s.Messages(), 4)
}

func TestSend_Rejections(t *testing.T) {
	svc := &fakeChat{reply: "ok"}
	s := NewSession(svc)

	_, err := s.Send(context.Background(), "hello")
	require.ErrorIs(t, err, entity.ErrNoReport)

	s.Bind("car.jpg", testReport())
	_, err = s.Send(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyMessage)
	require.Empty(t, s.Messages())
	require.Zero(t, svc.calls())
}

func TestSend_FailureBecomesAssistantMarker(t *testing.T) {
	svc := &fakeChat{err: &entity.ServiceError{Op: "chat", Status: 502}}
	s := NewSession(svc)
	s.Bind("car.jpg", testReport())

	msg, err := s.Send(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, entity.RoleAssistant, msg.Role)
	require.Equal(t, "⚠️ Chat failed: Chat failed.", msg.Content)
	require.Len(t, s.Messages(), 2)
	require.False(t, s.Sending())
}

func TestSend_SecondSendWhileInFlightIsNoop(t *testing.T) {
	svc := &fakeChat{reply: "done", release: make(chan struct{}), started: make(chan struct{}, 1)}
	s := NewSession(svc)
	s.Bind("car.jpg", testReport())

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "first")
		done <- err
	}()
	<-svc.started

	_, err := s.Send(context.Background(), "second")
	require.ErrorIs(t, err, ErrSendInFlight)
	require.Len(t, s.Messages(), 1)
	require.True(t, s.Sending())

	close(svc.release)
	require.NoError(t, <-done)
	require.Equal(t, 1, svc.calls())
	require.Len(t, s.Messages(), 2)
}

func TestBind_DropsOutstandingReply(t *testing.T) {
	svc := &fakeChat{reply: "late", release: make(chan struct{}), started: make(chan struct{}, 1)}
	s := NewSession(svc)
	s.Bind("a.jpg", testReport())

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "question")
		done <- err
	}()
	<-svc.started

	s.Bind("b.jpg", testReport())
	require.Empty(t, s.Messages())
	require.False(t, s.Sending())

	close(svc.release)
	select {
	case err := <-done:
		require.True(t, errors.Is(err, ErrSessionReset))
	case <-time.After(time.Second):
		t.Fatal("send did not return")
	}
	require.Empty(t, s.Messages())
}
