package model

import (
	"encoding/json"
	"fmt"
)

// MessageType identifies a control message on the channel
type MessageType string

const (
	MessageTypeConfig MessageType = "config"
	MessageTypeAck    MessageType = "ack"
)

// ControlMessage is the structured payload exchanged with the remote endpoint
type ControlMessage struct {
	Type MessageType `json:"type"`
}

// NewConfigMessage returns the minimal config message the probe sends after connecting
func NewConfigMessage() ControlMessage {
	return ControlMessage{Type: MessageTypeConfig}
}

// NewAckMessage returns the reply a cooperative endpoint sends for a config message
func NewAckMessage() ControlMessage {
	return ControlMessage{Type: MessageTypeAck}
}

// Validate performs basic validation on the message
func (m ControlMessage) Validate() error {
	if m.Type == "" {
		return ErrEmptyMessageType
	}
	return nil
}

// Encode serializes the message to its JSON text form
func (m ControlMessage) Encode() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal control message: %w", err)
	}
	return data, nil
}

// DecodeControlMessage parses a JSON text frame into a control message
func DecodeControlMessage(data []byte) (ControlMessage, error) {
	var m ControlMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return ControlMessage{}, &MessageError{Code: "INVALID_JSON", Message: err.Error()}
	}
	if err := m.Validate(); err != nil {
		return ControlMessage{}, err
	}
	return m, nil
}

// Custom errors for control messages
var (
	ErrEmptyMessageType = &MessageError{Code: "EMPTY_MESSAGE_TYPE", Message: "message type is required"}
)

// MessageError represents a control message error
type MessageError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *MessageError) Error() string {
	return e.Message
}
