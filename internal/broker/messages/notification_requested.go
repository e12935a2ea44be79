package messages

import "time"

// NotificationRequested is the payload the API publishes for every queued
// notification. The worker owns delivery; the record in the notifications
// table (keyed by NotificationID) carries the outcome.
type NotificationRequested struct {
	NotificationID string `json:"notification_id"`
	Kind           string `json:"kind"`

	ToEmail string `json:"to_email"`
	ToName  string `json:"to_name,omitempty"`

	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
	HTMLBody string `json:"html_body,omitempty"`

	// Optional attachment (already rendered), base64 in JSON via []byte.
	AttachmentName string `json:"attachment_name,omitempty"`
	Attachment     []byte `json:"attachment,omitempty"`

	RequestedAt time.Time `json:"requested_at"`
}
