package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-bk-api/pkg/config"
	"github.com/noah-isme/sma-bk-api/pkg/jobs"
)

// Notification priorities forwarded to the delivery channel.
const (
	NotificationPriorityNormal = "NORMAL"
	NotificationPriorityHigh   = "HIGH"
)

// Notification is one assignment message bound for a teacher.
type Notification struct {
	TeacherID string `json:"teacher_id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Priority  string `json:"priority"`
}

// NotificationSender delivers a notification to the outside world.
type NotificationSender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender writes notifications to the log. It stands in for the realtime
// delivery channel, which is owned by the sync gateway.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender builds a log-backed sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send implements NotificationSender.
func (s *LogSender) Send(_ context.Context, n Notification) error {
	s.logger.Info("notification",
		zap.String("teacher_id", n.TeacherID),
		zap.String("title", n.Title),
		zap.String("message", n.Message),
		zap.String("priority", n.Priority))
	return nil
}

// NotifierService dispatches assignment notifications through the background
// job queue. Dispatch is fire-and-forget from the caller's perspective: an
// enqueue or delivery failure is logged and counted, never propagated.
type NotifierService struct {
	queue   *jobs.Queue
	sender  NotificationSender
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotifierService wires the worker queue around the sender.
func NewNotifierService(sender NotificationSender, metrics *MetricsService, logger *zap.Logger, cfg config.NotifyConfig) *NotifierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotifierService{sender: sender, metrics: metrics, logger: logger}
	svc.queue = jobs.NewQueue("notifications", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the dispatch workers.
func (s *NotifierService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotifierService) Stop() {
	s.queue.Stop()
}

// NotifyAssignment enqueues one notification.
func (s *NotifierService) NotifyAssignment(teacherID, title, message, priority string) {
	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: "assignment_notification",
		Payload: Notification{
			TeacherID: teacherID,
			Title:     title,
			Message:   message,
			Priority:  priority,
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("notification enqueue failed", zap.String("teacher_id", teacherID), zap.Error(err))
		s.metrics.RecordNotification(false)
	}
}

func (s *NotifierService) handle(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(Notification)
	if !ok {
		s.logger.Warn("dropping malformed notification job", zap.String("job_id", job.ID))
		return nil
	}
	err := s.sender.Send(ctx, n)
	s.metrics.RecordNotification(err == nil)
	return err
}
