// ABOUTME: Command dispatch from remote controls to the session
// ABOUTME: Every command is answered with a command/result message
package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harperreed/lanes/pkg/protocol"
	"github.com/harperreed/lanes/pkg/timeline"
	"go.uber.org/zap"
)

var (
	errUnknownCommand   = errors.New("unknown command")
	errIngestDisabled   = errors.New("file ingestion not available")
	errInvalidPlacement = errors.New("invalid placement")
)

// handleClientMessage decodes one frame, runs it and replies
func (s *Server) handleClientMessage(client *Client, data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Debug("error unmarshaling message", zap.Error(err))
		return
	}

	id, err := s.dispatch(msg)
	result := protocol.CommandResult{
		Command: msg.Type,
		OK:      err == nil,
		ID:      id,
	}
	if err != nil {
		result.Error = err.Error()
		s.log.Debug("command failed",
			zap.String("client", client.Name),
			zap.String("command", msg.Type),
			zap.Error(err))
	}

	if err := s.sendMessage(client, protocol.TypeCommandResult, result); err != nil {
		s.log.Debug("error sending result", zap.Error(err))
	}
}

// dispatch applies a command to the session. The returned id names whatever
// the command created.
func (s *Server) dispatch(msg protocol.Message) (string, error) {
	session := s.config.Session

	switch msg.Type {
	case protocol.TypeTransportPlay:
		session.Play()
	case protocol.TypeTransportPause:
		session.Pause()
	case protocol.TypeTransportStop:
		session.Stop()
	case protocol.TypeTransportSeek:
		var p protocol.Seek
		if err := protocol.DecodePayload(msg.Payload, &p); err != nil {
			return "", err
		}
		if p.X != nil {
			session.SeekPixels(*p.X)
		} else {
			session.Seek(p.Position)
		}

	case protocol.TypeTrackAdd:
		var p protocol.TrackAdd
		if err := protocol.DecodePayload(msg.Payload, &p); err != nil {
			return "", err
		}
		track := timeline.Track{Name: p.Name}
		if p.Type != "" {
			typ, err := timeline.ParseTrackType(p.Type)
			if err != nil {
				return "", err
			}
			track.Type = typ
		}
		added, err := session.AddTrack(track)
		if err != nil {
			return "", err
		}
		return added.ID, nil
	case protocol.TypeTrackRename:
		var p protocol.TrackRename
		if err := protocol.DecodePayload(msg.Payload, &p); err != nil {
			return "", err
		}
		return "", session.RenameTrack(p.TrackID, p.Name)
	case protocol.TypeTrackSetType:
		var p protocol.TrackSetType
		if err := protocol.DecodePayload(msg.Payload, &p); err != nil {
			return "", err
		}
		typ, err := timeline.ParseTrackType(p.Type)
		if err != nil {
			return "", err
		}
		return "", session.SetTrackType(p.TrackID, typ)
	case protocol.TypeTrackDelete:
		var p protocol.TrackDelete
		if err := protocol.DecodePayload(msg.Payload, &p); err != nil {
			return "", err
		}
		return "", session.DeleteTrack(p.TrackID)

	case protocol.TypeClipAdd:
		if s.config.Ingestor == nil {
			return "", errIngestDisabled
		}
		var p protocol.ClipAdd
		if err := protocol.DecodePayload(msg.Payload, &p); err != nil {
			return "", err
		}
		clip, err := s.config.Ingestor.AddFile(p.TrackID, p.Path, p.Start)
		if err != nil {
			return "", err
		}
		return clip.ID, nil
	case protocol.TypeClipDrop:
		var p protocol.ClipDrop
		if err := protocol.DecodePayload(msg.Payload, &p); err != nil {
			return "", err
		}
		if err := session.BeginDrag(p.ClipID); err != nil {
			return "", err
		}
		if _, ok := session.DropClip(p.X, p.TrackID); !ok {
			return "", fmt.Errorf("%w: clip %s on track %s", errInvalidPlacement, p.ClipID, p.TrackID)
		}
	case protocol.TypeClipRename:
		var p protocol.ClipRename
		if err := protocol.DecodePayload(msg.Payload, &p); err != nil {
			return "", err
		}
		return "", session.RenameClip(p.ClipID, p.Name)
	case protocol.TypeClipRemove:
		var p protocol.ClipRemove
		if err := protocol.DecodePayload(msg.Payload, &p); err != nil {
			return "", err
		}
		return "", session.RemoveClip(p.ClipID)

	case protocol.TypeRecordStart:
		if s.config.Ingestor == nil {
			return "", errIngestDisabled
		}
		var p protocol.RecordStart
		if err := protocol.DecodePayload(msg.Payload, &p); err != nil {
			return "", err
		}
		start := session.Position()
		if p.Start != nil {
			start = *p.Start
		}
		return "", s.config.Ingestor.StartRecording(p.TrackID, start)
	case protocol.TypeRecordStop:
		if s.config.Ingestor == nil {
			return "", errIngestDisabled
		}
		clip, err := s.config.Ingestor.StopRecording()
		if err != nil {
			return "", err
		}
		return clip.ID, nil

	default:
		return "", fmt.Errorf("%w: %s", errUnknownCommand, msg.Type)
	}
	return "", nil
}
