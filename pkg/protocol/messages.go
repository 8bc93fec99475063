// ABOUTME: Lanes control protocol message definitions
// ABOUTME: JSON envelopes for handshake, commands, state and notices
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/harperreed/lanes/pkg/timeline"
)

// Version is the protocol version exchanged in the handshake
const Version = 1

// Message types
const (
	TypeClientHello = "client/hello"
	TypeServerHello = "server/hello"
	TypeServerError = "server/error"

	TypeSessionState  = "session/state"
	TypeSessionNotice = "session/notice"
	TypeCommandResult = "command/result"

	TypeTransportPlay  = "transport/play"
	TypeTransportPause = "transport/pause"
	TypeTransportStop  = "transport/stop"
	TypeTransportSeek  = "transport/seek"

	TypeTrackAdd     = "track/add"
	TypeTrackRename  = "track/rename"
	TypeTrackSetType = "track/set_type"
	TypeTrackDelete  = "track/delete"

	TypeClipAdd    = "clip/add"
	TypeClipDrop   = "clip/drop"
	TypeClipRename = "clip/rename"
	TypeClipRemove = "clip/remove"

	TypeRecordStart = "record/start"
	TypeRecordStop  = "record/stop"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// DecodePayload converts a generically decoded payload into v
func DecodePayload(payload interface{}, v interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
	Software string `json:"software"`
}

// ServerError is sent before the server drops a connection
type ServerError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Seek moves the playhead. Exactly one of Position (seconds) or X (ruler
// pixels) is used; X wins when set.
type Seek struct {
	Position float64  `json:"position"`
	X        *float64 `json:"x,omitempty"`
}

// TrackAdd creates a track; empty fields get defaults
type TrackAdd struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// TrackRename renames a track
type TrackRename struct {
	TrackID string `json:"track_id"`
	Name    string `json:"name"`
}

// TrackSetType changes a track's type
type TrackSetType struct {
	TrackID string `json:"track_id"`
	Type    string `json:"type"`
}

// TrackDelete removes a track and its clips
type TrackDelete struct {
	TrackID string `json:"track_id"`
}

// ClipAdd ingests a file visible to the server
type ClipAdd struct {
	TrackID string  `json:"track_id"`
	Path    string  `json:"path"`
	Start   float64 `json:"start"`
}

// ClipDrop drags a clip onto a track at a pixel offset
type ClipDrop struct {
	ClipID  string  `json:"clip_id"`
	TrackID string  `json:"track_id"`
	X       float64 `json:"x"`
}

// ClipRename renames a clip
type ClipRename struct {
	ClipID string `json:"clip_id"`
	Name   string `json:"name"`
}

// ClipRemove deletes a clip
type ClipRemove struct {
	ClipID string `json:"clip_id"`
}

// RecordStart begins a take from the server's input device. Start defaults
// to the playhead.
type RecordStart struct {
	TrackID string   `json:"track_id"`
	Start   *float64 `json:"start,omitempty"`
}

// CommandResult acknowledges a command. ID carries the id of anything the
// command created.
type CommandResult struct {
	Command string `json:"command"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	ID      string `json:"id,omitempty"`
}

// SessionState is a full session snapshot
type SessionState = timeline.Snapshot

// Notice is a user-facing notification
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
