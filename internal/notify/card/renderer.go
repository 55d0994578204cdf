// internal/notify/card/renderer.go

// Package card interprets a notification's opaque content per type and
// exposes the type-specific actions. Rendering dispatches over the decoded
// payload union with an explicit unknown-variant fallback, so a bad or
// unrecognized content body degrades to a generic card instead of a fault.
package card

import (
	"context"
	"fmt"

	apperrors "notification-pipeline/internal/common/errors"
	"notification-pipeline/internal/common/logger"
	"notification-pipeline/internal/common/metrics"
	"notification-pipeline/internal/models"
)

// ShareResolver resolves a pending file-share request. The file-storage
// REST client implements this.
type ShareResolver interface {
	Resolve(ctx context.Context, fileShareRequestID string, responseStatusID int) error
}

// Acknowledger marks a notification seen. The notifications REST client
// implements this.
type Acknowledger interface {
	MarkSeen(ctx context.Context, notificationID string) error
}

// Alerter surfaces action failures to the user, keeping this flow consistent
// with the rest of the application. NoopAlerter preserves the original
// fire-and-forget behavior.
type Alerter interface {
	Alert(message string)
}

type NoopAlerter struct{}

func (NoopAlerter) Alert(string) {}

// Card is the renderable form of one notification.
type Card struct {
	Notification models.Notification
	Title        string
	Body         string
	// HasActions is true only for variants exposing accept/decline.
	HasActions bool
}

type Renderer struct {
	shares        ShareResolver
	notifications Acknowledger
	alerter       Alerter
	logger        logger.Logger
	errs          *apperrors.Handler
}

func NewRenderer(shares ShareResolver, notifications Acknowledger, alerter Alerter, log logger.Logger) *Renderer {
	if alerter == nil {
		alerter = NoopAlerter{}
	}
	cardLog := log.WithFields(map[string]interface{}{"component": "card"})
	return &Renderer{
		shares:        shares,
		notifications: notifications,
		alerter:       alerter,
		logger:        cardLog,
		errs:          apperrors.NewHandlerWithCounter(cardLog, metrics.ErrorCounter{}),
	}
}

// Render builds the card for one notification.
func (r *Renderer) Render(n models.Notification) Card {
	payload, err := models.DecodePayload(n)
	if err != nil {
		r.errs.Handle("card", apperrors.NewPayloadSchemaInvalidError(err.Error()))
		return Card{
			Notification: n,
			Title:        "Notification",
			Body:         "This notification could not be displayed.",
		}
	}

	switch p := payload.(type) {
	case models.FileShareInvitePayload:
		return Card{
			Notification: n,
			Title:        "File share invitation",
			Body:         fmt.Sprintf("%s wants to share %q with you", p.FromUserName, p.FileName),
			HasActions:   true,
		}

	case models.GeneralInfoPayload:
		return Card{
			Notification: n,
			Title:        p.Title,
			Body:         p.Message,
		}

	case models.UnknownPayload:
		r.errs.Handle("card", apperrors.NewUnknownPayloadTypeError(p.TypeID))
		return Card{
			Notification: n,
			Title:        "Notification",
			Body:         "You have a new notification.",
		}

	default:
		return Card{Notification: n, Title: "Notification"}
	}
}

// Accept resolves the share invitation positively and acknowledges the
// notification.
func (r *Renderer) Accept(ctx context.Context, n models.Notification) {
	r.respond(ctx, n, models.ResponseAccepted)
}

// Decline resolves the share invitation negatively and acknowledges the
// notification.
func (r *Renderer) Decline(ctx context.Context, n models.Notification) {
	r.respond(ctx, n, models.ResponseDeclined)
}

// respond performs the two sequential backend calls: resolve the share
// request, then mark the notification seen. Mark-seen is attempted only
// after a successful resolve. Failures are caught here, logged, and surfaced
// through the alerter; they never propagate.
func (r *Renderer) respond(ctx context.Context, n models.Notification, responseStatusID int) {
	payload, err := models.DecodePayload(n)
	if err != nil {
		r.errs.Handle("card", apperrors.NewPayloadSchemaInvalidError(err.Error()))
		r.alerter.Alert("This invitation could not be processed.")
		return
	}

	invite, ok := payload.(models.FileShareInvitePayload)
	if !ok {
		r.errs.Handle("card", apperrors.NewUnknownPayloadTypeError(n.NotificationTypeID))
		return
	}

	if err := r.shares.Resolve(ctx, invite.FileShareRequestID, responseStatusID); err != nil {
		r.errs.Handle("card", apperrors.NewShareResolveFailedError(invite.FileShareRequestID, err))
		r.alerter.Alert("Responding to the share invitation failed.")
		return
	}

	if err := r.notifications.MarkSeen(ctx, n.ID); err != nil {
		r.errs.Handle("card", apperrors.NewMarkSeenFailedError(n.ID, err))
		r.alerter.Alert("The notification could not be marked as seen.")
		return
	}

	r.logger.Info("share invitation resolved", map[string]interface{}{
		"fileShareRequestId": invite.FileShareRequestID,
		"responseStatusId":   responseStatusID,
		"notificationId":     n.ID,
	})
}
