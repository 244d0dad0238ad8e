// Package chat ведёт диалог по отчёту о повреждениях.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/apex/log"

	"damage-portal/internal/domain/entity"
	"damage-portal/internal/domain/port"
	"damage-portal/internal/metrics"
)

var (
	// ErrEmptyMessage пустое или пробельное сообщение не отправляется.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrSendInFlight ответ на предыдущее сообщение ещё не получен.
	ErrSendInFlight = errors.New("previous message is still being answered")
	// ErrSessionReset сессию перепривязали, пока ждали ответ.
	ErrSessionReset = errors.New("chat was reset while waiting for a reply")
)

// FailurePrefix начало сообщения ассистента об ошибке чата.
const FailurePrefix = "⚠️ Chat failed: "

// Session диалог, привязанный к одному отчёту и изображению.
type Session struct {
	svc port.ChatService

	mu       sync.Mutex
	imageID  string
	report   *entity.CanonicalReport
	messages []entity.ChatMessage
	sending  bool
	gen      uint64
}

// NewSession создаёт пустую сессию без отчёта.
func NewSession(svc port.ChatService) *Session {
	return &Session{svc: svc}
}

// Bind привязывает сессию к новому отчёту, очищает историю
// и отменяет ожидание ответа на отправленное сообщение.
func (s *Session) Bind(imageID string, report *entity.CanonicalReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imageID = imageID
	s.report = report
	s.messages = nil
	s.sending = false
	s.gen++
}

// Send отправляет сообщение пользователя и дописывает ответ ассистента.
// Ошибка сервиса не возвращается, а становится сообщением ассистента.
func (s *Session) Send(ctx context.Context, text string) (entity.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return entity.ChatMessage{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.report == nil {
		s.mu.Unlock()
		return entity.ChatMessage{}, entity.ErrNoReport
	}
	if s.sending {
		s.mu.Unlock()
		return entity.ChatMessage{}, ErrSendInFlight
	}
	s.messages = append(s.messages, entity.ChatMessage{Role: entity.RoleUser, Content: text})
	s.sending = true
	gen := s.gen
	req := port.ChatRequest{
		ImageName: s.imageID,
		Report:    s.report,
		Messages:  append([]entity.ChatMessage(nil), s.messages...),
	}
	s.mu.Unlock()

	reply, err := s.svc.Reply(ctx, req)
	metrics.ChatTurnsTotal.WithLabelValues(metrics.Result(err)).Inc()

	msg := entity.ChatMessage{Role: entity.RoleAssistant, Content: reply}
	if err != nil {
		log.WithError(err).WithField("image", req.ImageName).Warn("chat reply failed")
		msg.Content = FailurePrefix + err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return entity.ChatMessage{}, ErrSessionReset
	}
	s.sending = false
	s.messages = append(s.messages, msg)
	return msg, nil
}

// Messages копия истории диалога.
func (s *Session) Messages() []entity.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.ChatMessage(nil), s.messages...)
}

// Report текущий отчёт или nil.
func (s *Session) Report() *entity.CanonicalReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Sending сообщает, что ответ ещё ожидается.
func (s *Session) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}
