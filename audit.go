package sessionauth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"
)

// AuditEvent records one security-relevant outcome. Session ids are never
// included.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	UserID    int64             `json:"user_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives events from the dispatcher goroutine.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink forwards events to a buffered channel, mostly for tests.
type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON document per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// SlogSink logs events as structured records at Info (success) or Warn
// (failure).
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger.With(slog.String("component", "audit"))}
}

func (s *SlogSink) Emit(ctx context.Context, event AuditEvent) {
	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("event", event.EventType),
		slog.Bool("success", event.Success),
		slog.Time("at", event.Timestamp),
	}
	if event.UserID != 0 {
		attrs = append(attrs, slog.Int64("user_id", event.UserID))
	}
	if event.IP != "" {
		attrs = append(attrs, slog.String("ip", event.IP))
	}
	if event.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", event.RequestID))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, slog.String(k, v))
	}

	s.logger.LogAttrs(ctx, level, "audit", attrs...)
}
