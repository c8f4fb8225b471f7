package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Actions carried by a HoldingChangedMessage.
const (
	ActionCreated = "created"
	// ActionRefresh asks consumers to recompute without a specific holding.
	ActionRefresh = "refresh"
)

// HoldingChangedMessage tells consumers that the holdings set changed. It
// only identifies the holding; consumers re-read the source themselves.
type HoldingChangedMessage struct {
	HoldingID string    `json:"holding_id,omitempty"`
	Category  string    `json:"category,omitempty"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHoldingChangedMessage creates a message stamped with the current time
func NewHoldingChangedMessage(holdingID, category, action string) *HoldingChangedMessage {
	return &HoldingChangedMessage{
		HoldingID: holdingID,
		Category:  category,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *HoldingChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// HoldingChangedMessageFromJSON decodes and checks a message body
func HoldingChangedMessageFromJSON(data []byte) (*HoldingChangedMessage, error) {
	var msg HoldingChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Action {
	case ActionCreated:
		if msg.HoldingID == "" {
			return nil, fmt.Errorf("created message without holding id")
		}
	case ActionRefresh:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	return &msg, nil
}
