package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/fofoo/freightdesk/internal/broker/messages"
	"github.com/fofoo/freightdesk/internal/mailer"
)

type Sender interface {
	Send(e mailer.Email) error
}

// Worker turns NotificationRequested messages into SMTP deliveries and
// records the outcome on the notification row. The consumer commits the
// offset only after Handle returns nil, so a crash between send and record
// redelivers; the mail may then go out twice, which we accept.
type Worker struct {
	repo   NotificationsRepo
	sender Sender
	log    *slog.Logger

	sent   atomic.Int64
	failed atomic.Int64
}

func NewWorker(repo NotificationsRepo, sender Sender, log *slog.Logger) *Worker {
	return &Worker{repo: repo, sender: sender, log: log}
}

func (w *Worker) Handle(ctx context.Context, key, value []byte) error {
	var req messages.NotificationRequested
	if err := json.Unmarshal(value, &req); err != nil {
		// Poison message: log and move on, a retry cannot fix it.
		w.log.Error("undecodable notification message", "key", string(key), "err", err)
		return nil
	}

	sendErr := w.sender.Send(mailer.Email{
		ToEmail:        req.ToEmail,
		ToName:         req.ToName,
		Subject:        req.Subject,
		TextBody:       req.TextBody,
		HTMLBody:       req.HTMLBody,
		AttachmentName: req.AttachmentName,
		Attachment:     req.Attachment,
	})
	if sendErr != nil {
		w.failed.Add(1)
		w.log.Error("notification send failed", "id", req.NotificationID, "kind", req.Kind, "err", sendErr)
		if err := w.repo.MarkNotificationFailed(ctx, req.NotificationID, sendErr.Error()); err != nil {
			return errors.Wrap(err, "record failed outcome")
		}
		return nil
	}

	w.sent.Add(1)
	w.log.Info("notification sent", "id", req.NotificationID, "kind", req.Kind, "to", req.ToEmail)
	if err := w.repo.MarkNotificationSent(ctx, req.NotificationID); err != nil {
		return errors.Wrap(err, "record sent outcome")
	}
	return nil
}

// Stats reports delivery counters since start, for the ops endpoint.
func (w *Worker) Stats() (sent, failed int64) {
	return w.sent.Load(), w.failed.Load()
}
