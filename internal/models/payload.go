// internal/models/payload.go
package models

import (
	"encoding/json"
	"fmt"
)

// Payload is the decoded form of a notification's ContentJSON. Exactly one
// concrete type exists per NotificationTypeID, plus UnknownPayload for
// discriminants this client does not recognize.
type Payload interface {
	payloadType() int
}

// FileShareInvitePayload is the content of a file-share invitation
// (TypeFileShareInvite).
type FileShareInvitePayload struct {
	FromUserName       string `json:"fromUserName"`
	FileName           string `json:"fileName"`
	FileShareRequestID string `json:"fileShareRequestId"`
}

func (FileShareInvitePayload) payloadType() int { return TypeFileShareInvite }

// GeneralInfoPayload is the content of a general informational message
// (TypeGeneralInfo).
type GeneralInfoPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (GeneralInfoPayload) payloadType() int { return TypeGeneralInfo }

// UnknownPayload carries the raw content of a notification whose type this
// client does not know how to render.
type UnknownPayload struct {
	TypeID int
	Raw    string
}

func (UnknownPayload) payloadType() int { return 0 }

// DecodePayload parses a notification's ContentJSON according to its type
// discriminant. A malformed body returns an error instead of panicking; an
// unrecognized type returns UnknownPayload with no error so callers can fall
// back to a generic rendering.
func DecodePayload(n Notification) (Payload, error) {
	switch n.NotificationTypeID {
	case TypeFileShareInvite:
		var p FileShareInvitePayload
		if err := json.Unmarshal([]byte(n.ContentJSON), &p); err != nil {
			return nil, fmt.Errorf("decode file share payload: %w", err)
		}
		if p.FileShareRequestID == "" {
			return nil, fmt.Errorf("file share payload missing fileShareRequestId")
		}
		return p, nil

	case TypeGeneralInfo:
		var p GeneralInfoPayload
		if err := json.Unmarshal([]byte(n.ContentJSON), &p); err != nil {
			return nil, fmt.Errorf("decode general info payload: %w", err)
		}
		return p, nil

	default:
		return UnknownPayload{TypeID: n.NotificationTypeID, Raw: n.ContentJSON}, nil
	}
}
