package protocol

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/clipsync/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_OutboundFrames(t *testing.T) {
	ts := time.Date(2025, 3, 4, 10, 11, 12, 345_000_000, time.FixedZone("CET", 3600))

	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "client_identify",
			msg:  ClientIdentify{MachineID: "m-1", Hostname: "laptop", UserAgent: "clipsync/dev"},
			want: `{"type":"client_identify","machine_id":"m-1","hostname":"laptop","user_agent":"clipsync/dev"}`,
		},
		{
			name: "get_history",
			msg:  GetHistory{},
			want: `{"type":"get_history"}`,
		},
		{
			name: "clipboard_update",
			msg:  ClipboardUpdate{Content: "hello", Timestamp: ts, Source: models.SourceLocal, MachineID: "m-1"},
			want: `{"type":"clipboard_update","content":"hello","timestamp":"2025-03-04T09:11:12.345Z","source":"local","machine_id":"m-1"}`,
		},
		{
			name: "ping",
			msg:  Ping{Timestamp: 1700000000123},
			want: `{"type":"ping","timestamp":1700000000123}`,
		},
		{
			name: "pong",
			msg:  Pong{Timestamp: 42},
			want: `{"type":"pong","timestamp":42}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Encode(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}

type bogus struct{}

func (bogus) MessageType() Type { return "bogus" }

func TestEncode_UnsupportedMessage(t *testing.T) {
	_, err := Encode(bogus{})
	require.Error(t, err)
	_, err = Encode(Unrecognized{Type: "x"})
	require.Error(t, err)
}

func TestDecode_InboundFrames(t *testing.T) {
	t.Run("client_id", func(t *testing.T) {
		msg, err := Decode([]byte(`{"type":"client_id","client_id":"c-17"}`))
		require.NoError(t, err)
		assert.Equal(t, ClientID{ClientID: "c-17"}, msg)
	})

	t.Run("clipboard_update with iso timestamp", func(t *testing.T) {
		msg, err := Decode([]byte(`{"type":"clipboard_update","content":"hi","machine_id":"peer","timestamp":"2025-01-02T03:04:05.678Z"}`))
		require.NoError(t, err)
		upd, ok := msg.(ClipboardUpdate)
		require.True(t, ok)
		assert.Equal(t, "hi", upd.Content)
		assert.Equal(t, "peer", upd.MachineID)
		assert.True(t, upd.Timestamp.Equal(time.Date(2025, 1, 2, 3, 4, 5, 678_000_000, time.UTC)))
	})

	t.Run("clipboard_update without timestamp", func(t *testing.T) {
		msg, err := Decode([]byte(`{"type":"clipboard_update","content":"hi","machine_id":"peer"}`))
		require.NoError(t, err)
		assert.True(t, msg.(ClipboardUpdate).Timestamp.IsZero())
	})

	t.Run("history snapshot", func(t *testing.T) {
		msg, err := Decode([]byte(`{"type":"history","history":[
			{"content":"x","timestamp":"2025-01-02T03:04:05","source":"local","machine_id":"a","hostname":"desk"},
			{"content":"y","timestamp":1735787045000}
		]}`))
		require.NoError(t, err)
		snap, ok := msg.(HistorySnapshot)
		require.True(t, ok)
		require.Len(t, snap.Entries, 2)

		assert.Equal(t, "x", snap.Entries[0].Content)
		assert.Equal(t, models.SourceLocal, snap.Entries[0].Source)
		assert.Equal(t, "desk", snap.Entries[0].Hostname)
		assert.True(t, snap.Entries[0].Timestamp.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local)))

		assert.Equal(t, models.SourceRemote, snap.Entries[1].Source)
		assert.Equal(t, int64(1735787045000), snap.Entries[1].Timestamp.UnixMilli())
	})

	t.Run("ping and pong", func(t *testing.T) {
		msg, err := Decode([]byte(`{"type":"ping","timestamp":1700000000123}`))
		require.NoError(t, err)
		assert.Equal(t, Ping{Timestamp: 1700000000123}, msg)

		msg, err = Decode([]byte(`{"type":"pong"}`))
		require.NoError(t, err)
		assert.Equal(t, Pong{}, msg)
	})

	t.Run("relay chatter", func(t *testing.T) {
		msg, err := Decode([]byte(`{"type":"heartbeat","timestamp":"2025-01-02T03:04:05.123456","message":"Server active"}`))
		require.NoError(t, err)
		assert.Equal(t, Heartbeat{Message: "Server active"}, msg)

		msg, err = Decode([]byte(`{"type":"status","message":"welcome"}`))
		require.NoError(t, err)
		assert.Equal(t, Status{Message: "welcome"}, msg)
	})
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr error
	}{
		{"not json", `{{{`, ErrMalformed},
		{"array", `[1,2]`, ErrMalformed},
		{"missing type", `{"content":"x"}`, ErrMissingType},
		{"empty type", `{"type":""}`, ErrMissingType},
		{"type not string", `{"type":5}`, ErrMalformed},
		{"bad field type", `{"type":"client_id","client_id":5}`, ErrMalformed},
		{"bad timestamp", `{"type":"clipboard_update","content":"x","timestamp":"yesterday"}`, ErrMalformed},
		{"unknown", `{"type":"teleport","to":"mars"}`, ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.in))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var de *DecodeError
			assert.True(t, errors.As(err, &de))
		})
	}
}

func TestDecode_UnknownTypeYieldsUnrecognized(t *testing.T) {
	frame := []byte(`{"type":"teleport","to":"mars"}`)
	msg, err := Decode(frame)
	require.ErrorIs(t, err, ErrUnknownType)

	u, ok := msg.(Unrecognized)
	require.True(t, ok)
	assert.Equal(t, Type("teleport"), u.MessageType())
	assert.JSONEq(t, string(frame), string(u.Raw))
	assert.Contains(t, err.Error(), `"teleport"`)
}

func TestEncodeDecode_SnapshotRoundTrip(t *testing.T) {
	ts := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	in := HistorySnapshot{Entries: []models.ClipboardEntry{
		{Content: "a", Timestamp: ts, Source: models.SourceRemote, MachineID: "m", Hostname: "h"},
	}}

	b, err := Encode(in)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Contains(t, raw, "history")

	out, err := Decode(b)
	require.NoError(t, err)
	snap := out.(HistorySnapshot)
	require.Len(t, snap.Entries, 1)
	assert.True(t, snap.Entries[0].Timestamp.Equal(ts))
	assert.Equal(t, "h", snap.Entries[0].Hostname)
}
