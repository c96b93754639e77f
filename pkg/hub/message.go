// Package hub fans control-surface messages out to websocket clients: JSON
// status snapshots on one hub and JPEG preview frames on another.
package hub

// MessageType selects the websocket frame type.
type MessageType int

const (
	// JSONMessage is sent as a text frame.
	JSONMessage MessageType = iota
	// BinaryMessage is sent as a binary frame (JPEG previews).
	BinaryMessage
)

// Message is one broadcast payload.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps raw bytes.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
