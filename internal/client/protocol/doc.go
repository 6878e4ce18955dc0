// Package protocol encodes and decodes the relay wire protocol: one JSON
// object per WebSocket text frame, discriminated by its "type" field.
//
// Outbound: client_identify, get_history, clipboard_update, ping, pong.
// Inbound:  client_id, history, clipboard_update, ping, pong, plus the
// heartbeat and status chatter some relays emit.
//
// Decode maps each frame to one concrete Message variant. Frames that are not
// valid JSON, lack a type, or carry an unknown type produce a *DecodeError;
// callers log and drop them. The package is stateless.
package protocol
