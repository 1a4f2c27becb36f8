// Package event defines the JSON envelope exchanged over the websocket and
// the payloads carried by each event type.
package event

import (
	"encoding/json"
	"fmt"
)

// Client to server.
const (
	TypeOnline      = "online"
	TypeOffline     = "offline"
	TypeCheckStatus = "checkStatus"
	TypeJoinRoom    = "joinRoom"
	TypeSendMessage = "sendMessage"
)

// Server to client.
const (
	TypeUserStatus       = "userStatus"
	TypePreviousMessages = "previousMessages"
	TypeReceiveMessage   = "receiveMessage"
	TypeError            = "error"
)

type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinRoom struct {
	UserID     string `json:"userId"`
	ReceiverID string `json:"receiverId"`
}

type SendMessage struct {
	SenderID       string `json:"senderId"`
	ReceiverID     string `json:"receiverId"`
	MessageText    string `json:"messageText"`
	TranslatedText string `json:"translatedText"`
}

type UserStatus struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

type Error struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// Encode wraps payload in an envelope of the given type.
func Encode(typ string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return json.Marshal(Envelope{Type: typ, Payload: raw})
}

// Decode parses a raw frame into an envelope.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, err
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("missing event type")
	}
	return env, nil
}

// Bind decodes the envelope payload into dst.
func (e Envelope) Bind(dst any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("%s: %w", e.Type, err)
	}
	return nil
}
