package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// LedgerSavedMessage announces that a month file was rewritten. It carries
// the full file text so consumers need no access to the folder.
type LedgerSavedMessage struct {
	Folder    string    `json:"folder"`
	Month     string    `json:"month"`
	Content   string    `json:"content"`
	Entries   int       `json:"entries"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerSavedMessage(folder, month, content string, entries int) *LedgerSavedMessage {
	return &LedgerSavedMessage{
		Folder:    folder,
		Month:     month,
		Content:   content,
		Entries:   entries,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerSavedMessageFromJSON(data []byte) (*LedgerSavedMessage, error) {
	var msg LedgerSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Month == "" {
		return nil, errors.New("ledger saved message without month")
	}
	return &msg, nil
}
