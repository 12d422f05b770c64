package queue

import "encoding/json"

// Message is the payload sent to downstream queue consumers when an
// application is submitted.
type Message struct {
	ApplicationID int64  `json:"applicationId"`
	FormID        int64  `json:"formId"`
	Event         string `json:"event"`
	EnqueuedAt    string `json:"enqueuedAt"`
	Version       int    `json:"version"`
}

// EventApplicationSubmitted marks a finished submission.
const EventApplicationSubmitted = "application.submitted"

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
