package amqp

import (
	"encoding/json"
	"time"

	"lorryboard/internal/core"
)

// DeliveryRecordedMessage carries one delivery transaction from an importer
// to the ingest worker. The transaction travels whole, raw delivery time
// included, so the worker stores exactly what the source system emitted.
type DeliveryRecordedMessage struct {
	Transaction core.Transaction `json:"transaction"`
	Timestamp   time.Time        `json:"timestamp"`
}

func NewDeliveryRecordedMessage(tx core.Transaction) *DeliveryRecordedMessage {
	return &DeliveryRecordedMessage{
		Transaction: tx,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DeliveryRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DeliveryRecordedMessageFromJSON creates a message from JSON bytes
func DeliveryRecordedMessageFromJSON(data []byte) (*DeliveryRecordedMessage, error) {
	var msg DeliveryRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
