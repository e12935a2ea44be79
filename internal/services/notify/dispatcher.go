package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fofoo/freightdesk/internal/broker/messages"
	"github.com/fofoo/freightdesk/internal/models"
)

type NotificationsRepo interface {
	CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error)
	MarkNotificationSent(ctx context.Context, id string) error
	MarkNotificationFailed(ctx context.Context, id string, cause string) error
	ListNotifications(ctx context.Context, ownerID *int64, limit int) ([]*models.Notification, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Request is one email to be delivered by the worker.
type Request struct {
	OwnerID        *int64
	Kind           string
	ToEmail        string
	ToName         string
	Subject        string
	TextBody       string
	HTMLBody       string
	AttachmentName string
	Attachment     []byte
}

// Dispatcher is the API side of the boundary: it records the intent and hands
// delivery to the worker over kafka. Enqueue never fails the caller's write.
type Dispatcher struct {
	repo     NotificationsRepo
	producer Publisher
	topic    string
	timeout  time.Duration
	log      *slog.Logger
}

func NewDispatcher(repo NotificationsRepo, producer Publisher, topic string, timeout time.Duration, log *slog.Logger) *Dispatcher {
	return &Dispatcher{repo: repo, producer: producer, topic: topic, timeout: timeout, log: log}
}

// Enqueue inserts the queued row and publishes the request. The returned flag
// says whether the message made it onto the topic, not whether the email was
// delivered.
func (d *Dispatcher) Enqueue(ctx context.Context, req Request) (string, bool) {
	n := &models.Notification{
		ID:      uuid.NewString(),
		OwnerID: req.OwnerID,
		Kind:    req.Kind,
		Email:   req.ToEmail,
		Subject: req.Subject,
		Status:  models.NotificationStatusQueued,
	}
	if _, err := d.repo.CreateNotification(ctx, n); err != nil {
		d.log.Error("notification row insert failed", "kind", req.Kind, "err", err)
		return "", false
	}

	payload, err := json.Marshal(messages.NotificationRequested{
		NotificationID: n.ID,
		Kind:           req.Kind,
		ToEmail:        req.ToEmail,
		ToName:         req.ToName,
		Subject:        req.Subject,
		TextBody:       req.TextBody,
		HTMLBody:       req.HTMLBody,
		AttachmentName: req.AttachmentName,
		Attachment:     req.Attachment,
		RequestedAt:    time.Now().UTC(),
	})
	if err != nil {
		d.log.Error("notification marshal failed", "id", n.ID, "err", err)
		_ = d.repo.MarkNotificationFailed(ctx, n.ID, err.Error())
		return n.ID, false
	}

	pubCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		pubCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := d.producer.Publish(pubCtx, d.topic, []byte(n.ID), payload); err != nil {
		d.log.Error("notification publish failed", "id", n.ID, "err", err)
		_ = d.repo.MarkNotificationFailed(ctx, n.ID, err.Error())
		return n.ID, false
	}
	return n.ID, true
}

func (d *Dispatcher) List(ctx context.Context, p models.Principal, limit int) ([]*models.Notification, error) {
	if p.IsAdmin() {
		return d.repo.ListNotifications(ctx, nil, limit)
	}
	owner := p.OwnerID
	return d.repo.ListNotifications(ctx, &owner, limit)
}
