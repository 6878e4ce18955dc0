package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/clipsync/internal/client/models"
)

type envelope struct {
	Type *string `json:"type"`
}

type clientIdentifyFrame struct {
	Type      Type   `json:"type"`
	MachineID string `json:"machine_id"`
	Hostname  string `json:"hostname"`
	UserAgent string `json:"user_agent"`
}

type typeOnlyFrame struct {
	Type Type `json:"type"`
}

type clipboardUpdateFrame struct {
	Type      Type   `json:"type"`
	Content   string `json:"content"`
	Timestamp Time   `json:"timestamp"`
	Source    string `json:"source,omitempty"`
	MachineID string `json:"machine_id,omitempty"`
	Hostname  string `json:"hostname,omitempty"`
}

type pingOutFrame struct {
	Type      Type  `json:"type"`
	Timestamp int64 `json:"timestamp"`
}

type pingInFrame struct {
	Type      Type `json:"type"`
	Timestamp Time `json:"timestamp"`
}

type clientIDFrame struct {
	Type     Type   `json:"type"`
	ClientID string `json:"client_id"`
}

type historyItem struct {
	Content   string `json:"content"`
	Timestamp Time   `json:"timestamp"`
	Source    string `json:"source,omitempty"`
	MachineID string `json:"machine_id,omitempty"`
	Hostname  string `json:"hostname,omitempty"`
}

type historyFrame struct {
	Type    Type          `json:"type"`
	History []historyItem `json:"history"`
}

type messageFrame struct {
	Type    Type   `json:"type"`
	Message string `json:"message,omitempty"`
}

// Encode serializes msg into one wire frame.
func Encode(msg Message) ([]byte, error) {
	var frame any

	switch m := msg.(type) {
	case ClientIdentify:
		frame = clientIdentifyFrame{Type: TypeClientIdentify, MachineID: m.MachineID, Hostname: m.Hostname, UserAgent: m.UserAgent}
	case GetHistory:
		frame = typeOnlyFrame{Type: TypeGetHistory}
	case ClipboardUpdate:
		frame = clipboardUpdateFrame{
			Type:      TypeClipboardUpdate,
			Content:   m.Content,
			Timestamp: Time{m.Timestamp},
			Source:    string(m.Source),
			MachineID: m.MachineID,
			Hostname:  m.Hostname,
		}
	case Ping:
		frame = pingOutFrame{Type: TypePing, Timestamp: m.Timestamp}
	case Pong:
		frame = pingOutFrame{Type: TypePong, Timestamp: m.Timestamp}
	case ClientID:
		frame = clientIDFrame{Type: TypeClientID, ClientID: m.ClientID}
	case HistorySnapshot:
		items := make([]historyItem, 0, len(m.Entries))
		for _, e := range m.Entries {
			items = append(items, historyItem{
				Content:   e.Content,
				Timestamp: Time{e.Timestamp},
				Source:    string(e.Source),
				MachineID: e.MachineID,
				Hostname:  e.Hostname,
			})
		}
		frame = historyFrame{Type: TypeHistory, History: items}
	case Heartbeat:
		frame = messageFrame{Type: TypeHeartbeat, Message: m.Message}
	case Status:
		frame = messageFrame{Type: TypeStatus, Message: m.Message}
	default:
		return nil, fmt.Errorf("encode: unsupported message %T", msg)
	}

	b, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.MessageType(), err)
	}
	return b, nil
}

// Decode parses one wire frame. For an unknown type it returns an
// Unrecognized value together with a *DecodeError wrapping ErrUnknownType.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	if env.Type == nil || *env.Type == "" {
		return nil, &DecodeError{Err: ErrMissingType}
	}

	typ := Type(*env.Type)

	switch typ {
	case TypeClientIdentify:
		var f clientIdentifyFrame
		if err := unmarshal(typ, data, &f); err != nil {
			return nil, err
		}
		return ClientIdentify{MachineID: f.MachineID, Hostname: f.Hostname, UserAgent: f.UserAgent}, nil

	case TypeGetHistory:
		return GetHistory{}, nil

	case TypeClipboardUpdate:
		var f clipboardUpdateFrame
		if err := unmarshal(typ, data, &f); err != nil {
			return nil, err
		}
		return ClipboardUpdate{
			Content:   f.Content,
			Timestamp: f.Timestamp.Time,
			Source:    models.Source(f.Source),
			MachineID: f.MachineID,
			Hostname:  f.Hostname,
		}, nil

	case TypePing, TypePong:
		var f pingInFrame
		if err := unmarshal(typ, data, &f); err != nil {
			return nil, err
		}
		var ms int64
		if !f.Timestamp.IsZero() {
			ms = f.Timestamp.UnixMilli()
		}
		if typ == TypePing {
			return Ping{Timestamp: ms}, nil
		}
		return Pong{Timestamp: ms}, nil

	case TypeClientID:
		var f clientIDFrame
		if err := unmarshal(typ, data, &f); err != nil {
			return nil, err
		}
		return ClientID{ClientID: f.ClientID}, nil

	case TypeHistory:
		var f historyFrame
		if err := unmarshal(typ, data, &f); err != nil {
			return nil, err
		}
		entries := make([]models.ClipboardEntry, 0, len(f.History))
		for _, item := range f.History {
			src := models.Source(item.Source)
			if !src.Valid() {
				src = models.SourceRemote
			}
			entries = append(entries, models.ClipboardEntry{
				Content:   item.Content,
				Timestamp: item.Timestamp.Time,
				Source:    src,
				MachineID: item.MachineID,
				Hostname:  item.Hostname,
			})
		}
		return HistorySnapshot{Entries: entries}, nil

	case TypeHeartbeat, TypeStatus:
		var f messageFrame
		if err := unmarshal(typ, data, &f); err != nil {
			return nil, err
		}
		if typ == TypeHeartbeat {
			return Heartbeat{Message: f.Message}, nil
		}
		return Status{Message: f.Message}, nil

	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return Unrecognized{Type: string(typ), Raw: raw}, &DecodeError{Type: string(typ), Err: ErrUnknownType}
	}
}

func unmarshal(typ Type, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &DecodeError{Type: string(typ), Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	return nil
}
