package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Template keys consumed by the downstream notification worker.
const (
	TemplateReservationConfirmed = "reservation.confirmed"
	TemplateReservationCancelled = "reservation.cancelled"
	TemplateRefundCompleted      = "refund.completed"
	TemplateQrIssued             = "qr.issued"
)

// Message is what gets published to the notification topic. Either
// RecipientMemberID or RecipientEmail is set, matching how the buyer
// identified themselves at checkout.
type Message struct {
	ID                uuid.UUID         `json:"id"`
	TemplateKey       string            `json:"template_key"`
	RecipientMemberID *uuid.UUID        `json:"recipient_member_id,omitempty"`
	RecipientEmail    string            `json:"recipient_email,omitempty"`
	Params            map[string]string `json:"params,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PartitionKey routes all messages for one recipient to one partition so
// delivery order per recipient is preserved.
func (m *Message) PartitionKey() string {
	if m.RecipientMemberID != nil {
		return m.RecipientMemberID.String()
	}
	return m.RecipientEmail
}
