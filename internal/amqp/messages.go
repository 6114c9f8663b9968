package amqp

import (
	"encoding/json"
	"time"
)

// DatasetReplacedMessage announces one completed ingestion. Consumers that
// need the data itself query the service; the event carries only the facts
// of the replacement.
type DatasetReplacedMessage struct {
	Version   int64     `json:"version"`
	Imported  int       `json:"imported"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDatasetReplacedMessage(version int64, imported int, source string) *DatasetReplacedMessage {
	return &DatasetReplacedMessage{
		Version:   version,
		Imported:  imported,
		Source:    source,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *DatasetReplacedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DatasetReplacedMessageFromJSON creates a message from JSON bytes.
func DatasetReplacedMessageFromJSON(data []byte) (*DatasetReplacedMessage, error) {
	var msg DatasetReplacedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
