package a2a

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

type MessageType string

const (
	TypeQuery        MessageType = "query"
	TypeResponse     MessageType = "response"
	TypeDataRequest  MessageType = "data_request"
	TypeDataResponse MessageType = "data_response"
	TypeTask         MessageType = "task"
	TypeResult       MessageType = "result"
	TypeError        MessageType = "error"
	TypeHandoff      MessageType = "handoff"
)

// ProtocolSender is the sender name used for messages synthesized by the bus itself.
const ProtocolSender = "a2a_protocol"

var ErrMalformedMessage = errors.New("malformed message")

func (t MessageType) Valid() bool {
	switch t {
	case TypeQuery, TypeResponse, TypeDataRequest, TypeDataResponse,
		TypeTask, TypeResult, TypeError, TypeHandoff:
		return true
	default:
		return false
	}
}

// ParseMessageType falls back to TypeQuery for unknown values.
func ParseMessageType(s string) MessageType {
	t := MessageType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return TypeQuery
	}
	return t
}

func NewConversationID() string {
	return ulid.Make().String()
}

func NewMessageID() string {
	return uuid.NewString()
}

// Message is immutable: accessors hand out copies of the maps it holds.
type Message struct {
	sender         string
	recipient      string
	typ            MessageType
	payload        map[string]any
	conversationID string
	messageID      string
	timestamp      time.Time
	metadata       map[string]any
}

type MessageOption func(*Message)

func WithConversationID(id string) MessageOption {
	return func(m *Message) {
		if id = strings.TrimSpace(id); id != "" {
			m.conversationID = id
		}
	}
}

func WithMessageID(id string) MessageOption {
	return func(m *Message) {
		if id = strings.TrimSpace(id); id != "" {
			m.messageID = id
		}
	}
}

func WithTimestamp(ts time.Time) MessageOption {
	return func(m *Message) {
		if !ts.IsZero() {
			m.timestamp = ts
		}
	}
}

func WithMetadata(md map[string]any) MessageOption {
	return func(m *Message) {
		if md != nil {
			m.metadata = cloneMap(md)
		}
	}
}

func NewMessage(sender, recipient string, typ MessageType, payload map[string]any, opts ...MessageOption) Message {
	if !typ.Valid() {
		typ = TypeQuery
	}
	if payload == nil {
		payload = map[string]any{}
	}
	m := Message{
		sender:    sender,
		recipient: recipient,
		typ:       typ,
		payload:   cloneMap(payload),
		timestamp: time.Now().UTC(),
		metadata:  map[string]any{},
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.conversationID == "" {
		m.conversationID = NewConversationID()
	}
	if m.messageID == "" {
		m.messageID = NewMessageID()
	}
	return m
}

// Reply builds a new message from `from` back to the original sender on the same conversation.
func (m Message) Reply(from string, typ MessageType, payload map[string]any) Message {
	return NewMessage(from, m.sender, typ, payload, WithConversationID(m.conversationID))
}

func (m Message) Sender() string              { return m.sender }
func (m Message) Recipient() string           { return m.recipient }
func (m Message) Type() MessageType           { return m.typ }
func (m Message) ConversationID() string      { return m.conversationID }
func (m Message) MessageID() string           { return m.messageID }
func (m Message) Timestamp() time.Time        { return m.timestamp }
func (m Message) Payload() map[string]any     { return cloneMap(m.payload) }
func (m Message) Metadata() map[string]any    { return cloneMap(m.metadata) }
func (m Message) IsError() bool               { return m.typ == TypeError }
func (m Message) PayloadValue(key string) any { return m.payload[key] }

// ErrorText returns the "error" field of an ERROR message payload.
func (m Message) ErrorText() string {
	if m.typ != TypeError {
		return ""
	}
	if s, ok := m.payload["error"].(string); ok {
		return s
	}
	return fmt.Sprint(m.payload["error"])
}

func (m Message) String() string {
	return fmt.Sprintf("%s %s->%s conv=%s id=%s", m.typ, m.sender, m.recipient, m.conversationID, m.messageID)
}

type wireMessage struct {
	Sender         string         `json:"sender"`
	Recipient      string         `json:"recipient"`
	Type           string         `json:"type"`
	Payload        map[string]any `json:"payload"`
	ConversationID string         `json:"conversation_id"`
	MessageID      string         `json:"message_id"`
	Timestamp      string         `json:"timestamp"`
	Metadata       map[string]any `json:"metadata"`
}

func (m Message) wire() wireMessage {
	payload := cloneMap(m.payload)
	if payload == nil {
		payload = map[string]any{}
	}
	metadata := cloneMap(m.metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	return wireMessage{
		Sender:         m.sender,
		Recipient:      m.recipient,
		Type:           string(m.typ),
		Payload:        payload,
		ConversationID: m.conversationID,
		MessageID:      m.messageID,
		Timestamp:      m.timestamp.Format(time.RFC3339Nano),
		Metadata:       metadata,
	}
}

func (m Message) ToMap() map[string]any {
	w := m.wire()
	return map[string]any{
		"sender":          w.Sender,
		"recipient":       w.Recipient,
		"type":            w.Type,
		"payload":         w.Payload,
		"conversation_id": w.ConversationID,
		"message_id":      w.MessageID,
		"timestamp":       w.Timestamp,
		"metadata":        w.Metadata,
	}
}

// FromMap rebuilds a message. Sender and recipient are required; missing ids
// are generated and an unknown type becomes TypeQuery.
func FromMap(data map[string]any) (Message, error) {
	sender, ok := data["sender"].(string)
	if !ok {
		return Message{}, fmt.Errorf("%w: sender is missing", ErrMalformedMessage)
	}
	recipient, ok := data["recipient"].(string)
	if !ok {
		return Message{}, fmt.Errorf("%w: recipient is missing", ErrMalformedMessage)
	}

	typ := TypeQuery
	if s, ok := data["type"].(string); ok {
		typ = ParseMessageType(s)
	}

	payload, _ := data["payload"].(map[string]any)
	metadata, _ := data["metadata"].(map[string]any)

	opts := []MessageOption{WithMetadata(metadata)}
	if s, ok := data["conversation_id"].(string); ok {
		opts = append(opts, WithConversationID(s))
	}
	if s, ok := data["message_id"].(string); ok {
		opts = append(opts, WithMessageID(s))
	}
	switch ts := data["timestamp"].(type) {
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			opts = append(opts, WithTimestamp(parsed))
		}
	case time.Time:
		opts = append(opts, WithTimestamp(ts))
	}

	return NewMessage(sender, recipient, typ, payload, opts...), nil
}

func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.wire())
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	parsed, err := FromMap(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func FromJSON(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, err
	}
	return m, nil
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	return maps.Clone(in)
}
