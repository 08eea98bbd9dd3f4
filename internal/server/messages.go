package server

import "encoding/json"

// ClientMessage is the envelope for every inbound websocket message.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage is the envelope for every outbound websocket message.
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
