package protocol

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/clipsync/internal/client/models"
)

// Type is the value of the "type" discriminator.
type Type string

const (
	TypeClientIdentify  Type = "client_identify"
	TypeGetHistory      Type = "get_history"
	TypeClipboardUpdate Type = "clipboard_update"
	TypePing            Type = "ping"
	TypePong            Type = "pong"
	TypeClientID        Type = "client_id"
	TypeHistory         Type = "history"
	TypeHeartbeat       Type = "heartbeat"
	TypeStatus          Type = "status"
)

// Message is implemented by every wire variant.
type Message interface {
	MessageType() Type
}

// ClientIdentify announces this machine once per session.
type ClientIdentify struct {
	MachineID string
	Hostname  string
	UserAgent string
}

// GetHistory asks the relay for its retained history.
type GetHistory struct{}

// ClipboardUpdate announces a clipboard change. Outbound it carries a local
// change; inbound it is a peer change rebroadcast by the relay. Timestamp is
// zero when the relay omitted it.
type ClipboardUpdate struct {
	Content   string
	Timestamp time.Time
	Source    models.Source
	MachineID string
	Hostname  string
}

// Ping is a liveness probe. Timestamp is unix milliseconds.
type Ping struct {
	Timestamp int64
}

// Pong answers a Ping, echoing its timestamp.
type Pong struct {
	Timestamp int64
}

// ClientID carries the relay-assigned identity for this session.
type ClientID struct {
	ClientID string
}

// HistorySnapshot is the relay's retained history.
type HistorySnapshot struct {
	Entries []models.ClipboardEntry
}

// Heartbeat is relay keep-alive chatter. It only matters as traffic.
type Heartbeat struct {
	Message string
}

// Status is an informational relay message, e.g. a welcome banner.
type Status struct {
	Message string
}

// Unrecognized is returned, alongside a *DecodeError, for frames whose type
// is not known. Callers may ignore it safely.
type Unrecognized struct {
	Type string
	Raw  json.RawMessage
}

func (ClientIdentify) MessageType() Type  { return TypeClientIdentify }
func (GetHistory) MessageType() Type      { return TypeGetHistory }
func (ClipboardUpdate) MessageType() Type { return TypeClipboardUpdate }
func (Ping) MessageType() Type            { return TypePing }
func (Pong) MessageType() Type            { return TypePong }
func (ClientID) MessageType() Type        { return TypeClientID }
func (HistorySnapshot) MessageType() Type { return TypeHistory }
func (Heartbeat) MessageType() Type       { return TypeHeartbeat }
func (Status) MessageType() Type          { return TypeStatus }
func (u Unrecognized) MessageType() Type  { return Type(u.Type) }
