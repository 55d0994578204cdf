// internal/models/notification.go
package models

// Notification is the server-assigned entity delivered over the push channel
// and listed by the notifications API. ContentJSON is opaque at this level;
// its shape is selected by NotificationTypeID and decoded by the card
// renderer.
type Notification struct {
	ID                   string `json:"id"`
	ToID                 string `json:"toId"`
	CreatedAt            string `json:"createdAt"` // ISO 8601, display only
	ContentJSON          string `json:"contentJson"`
	NotificationTypeID   int    `json:"notificationTypeId"`
	NotificationStatusID int    `json:"notificationStatusId"`
}

// Notification types
const (
	TypeFileShareInvite = 1
	TypeGeneralInfo     = 2
)

// Notification statuses. The authoritative value lives server-side; the
// client mirrors it optimistically after acknowledgement.
const (
	StatusUnseen = 1
	StatusSeen   = 2
)

// Share request response statuses
const (
	ResponseAccepted = 2
	ResponseDeclined = 3
)
