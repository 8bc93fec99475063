// ABOUTME: Lanes control protocol package
// ABOUTME: Defines the JSON messages spoken over the control websocket
// Package protocol defines the messages exchanged between a lanes server and
// its remote controls.
//
// Every frame is a JSON Message{type, payload}. Clients open with
// client/hello and receive server/hello, then send transport, track and
// clip commands; each command is answered with command/result. The server
// pushes session/state snapshots while clients are connected and
// session/notice messages for user-facing events.
//
// Example:
//
//	msg := protocol.Message{Type: protocol.TypeTransportSeek, Payload: protocol.Seek{Position: 12.5}}
//	err := conn.WriteJSON(msg)
package protocol
