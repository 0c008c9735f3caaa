package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastInfo    ToastLevel = "info"
	ToastWarning ToastLevel = "warning"
)

// Toast is a short human-readable message for the presentation layer.
type Toast struct {
	Level   ToastLevel `json:"level"`
	Message string     `json:"message"`
}

type Destination string

const (
	DestCheckout     Destination = "checkout"
	DestContinue     Destination = "continue"
	DestConfirmation Destination = "confirmation"
)

// Navigation tells the router where to go next.
type Navigation struct {
	Destination Destination `json:"destination"`
	ItemIDs     []string    `json:"item_ids,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, t Toast)
}

type Navigator interface {
	Navigate(ctx context.Context, userID int64, n Navigation)
}

// LogSink is the default Notifier and Navigator; it only logs.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Notify(ctx context.Context, userID int64, t Toast) {
	s.log.Debug("toast", zap.Int64("user_id", userID), zap.String("level", string(t.Level)), zap.String("message", t.Message))
}

func (s *LogSink) Navigate(ctx context.Context, userID int64, n Navigation) {
	s.log.Debug("navigate", zap.Int64("user_id", userID), zap.String("destination", string(n.Destination)), zap.Strings("item_ids", n.ItemIDs))
}

// Feedback is what one operation told the user, carried back in the HTTP response.
type Feedback struct {
	Toasts   []Toast     `json:"toasts,omitempty"`
	Navigate *Navigation `json:"navigate,omitempty"`
}

type recorder struct {
	ctx    context.Context
	userID int64
	c      *core
	fb     Feedback
}

func (c *core) recorder(ctx context.Context, userID int64) *recorder {
	return &recorder{ctx: ctx, userID: userID, c: c}
}

func (r *recorder) toast(level ToastLevel, format string, args ...any) {
	t := Toast{Level: level, Message: fmt.Sprintf(format, args...)}
	r.fb.Toasts = append(r.fb.Toasts, t)
	r.c.Notifier.Notify(r.ctx, r.userID, t)
}

func (r *recorder) navigate(dest Destination, ids ...string) {
	n := Navigation{Destination: dest, ItemIDs: ids}
	r.fb.Navigate = &n
	r.c.Navigator.Navigate(r.ctx, r.userID, n)
}
