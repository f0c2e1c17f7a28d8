package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/bug-tracker/internal/events"
	"github.com/spec-kit/bug-tracker/internal/observability"
)

// Notification kinds used for metrics labels.
const (
	NotificationKindAssignment   = "assignment"
	NotificationKindStatusChange = "status_change"
)

// NotificationService turns bug events into best-effort emails. A failed
// send is logged and counted but never reaches the publishing mutation.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     Mailer
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer Mailer, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to the events that carry a recipient.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventBugAssigned, n.handleBugAssigned)
	n.dispatcher.Subscribe(events.EventBugStatusChanged, n.handleBugStatusChanged)
}

func (n *NotificationService) handleBugAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.BugAssignedPayload)
	if !ok {
		n.logger.Warn("unexpected payload for bug_assigned event", zap.String("event_id", event.ID))
		return nil
	}

	subject := fmt.Sprintf("Bug Assigned: %s", payload.Title)
	body := fmt.Sprintf(
		"New bug assigned to you\n\nBug ID: %s\nTitle: %s\nPriority: %s\nSeverity: %s\n\n%s\n\nPlease review and update the status accordingly.",
		payload.BugID, payload.Title, payload.Priority, payload.Severity, payload.Description)

	if err := n.mailer.Send(ctx, payload.Assignee.Email, subject, body); err != nil {
		n.metrics.RecordNotification(NotificationKindAssignment, false)
		n.logger.Warn("assignment notification failed",
			zap.String("bug_id", payload.BugID),
			zap.String("to", payload.Assignee.Email),
			zap.Error(err))
		return err
	}
	n.metrics.RecordNotification(NotificationKindAssignment, true)
	n.logger.Info("assignment notification sent",
		zap.String("bug_id", payload.BugID),
		zap.String("to", payload.Assignee.Email))
	return nil
}

func (n *NotificationService) handleBugStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.BugStatusChangedPayload)
	if !ok {
		n.logger.Warn("unexpected payload for bug_status_changed event", zap.String("event_id", event.ID))
		return nil
	}

	subject := fmt.Sprintf("Bug Status Updated: %s", payload.Title)
	body := fmt.Sprintf(
		"Your bug has been updated\n\nBug ID: %s\nTitle: %s\nNew Status: %s\n\nThank you for reporting this issue.",
		payload.BugID, payload.Title, payload.NewStatus)

	if err := n.mailer.Send(ctx, payload.Reporter.Email, subject, body); err != nil {
		n.metrics.RecordNotification(NotificationKindStatusChange, false)
		n.logger.Warn("status notification failed",
			zap.String("bug_id", payload.BugID),
			zap.String("to", payload.Reporter.Email),
			zap.Error(err))
		return err
	}
	n.metrics.RecordNotification(NotificationKindStatusChange, true)
	n.logger.Info("status notification sent",
		zap.String("bug_id", payload.BugID),
		zap.String("to", payload.Reporter.Email))
	return nil
}
