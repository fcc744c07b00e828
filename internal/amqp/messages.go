package amqp

import (
	"encoding/json"
	"time"
)

// ScanJobMessage asks the worker to process one stored bill scan. It carries
// only identifiers; the worker fetches the image payload from the database.
type ScanJobMessage struct {
	ScanID    int64     `json:"scanId"`
	UserID    int64     `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

func NewScanJobMessage(scanID, userID int64) *ScanJobMessage {
	return &ScanJobMessage{
		ScanID:    scanID,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func (m *ScanJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ScanJobMessageFromJSON(data []byte) (*ScanJobMessage, error) {
	var msg ScanJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
