package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

// InconsistencyMessage tells the reconciler that a profile's totals may be
// wrong. It only carries identifiers; the reconciler reads the marker and
// the live rows from the store.
type InconsistencyMessage struct {
	MarkerID  string    `json:"marker_id"`
	ProfileID string    `json:"profile_id"`
	Operation string    `json:"operation"`
	EntityID  string    `json:"entity_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewInconsistencyMessage builds the event for a recorded marker.
func NewInconsistencyMessage(marker *models.Inconsistency) *InconsistencyMessage {
	return &InconsistencyMessage{
		MarkerID:  marker.ID,
		ProfileID: marker.ProfileID,
		Operation: marker.Operation,
		EntityID:  marker.EntityID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *InconsistencyMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// InconsistencyMessageFromJSON decodes a message and checks it names a profile.
func InconsistencyMessageFromJSON(data []byte) (*InconsistencyMessage, error) {
	var msg InconsistencyMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ProfileID == "" {
		return nil, fmt.Errorf("inconsistency message without profile_id")
	}
	return &msg, nil
}
