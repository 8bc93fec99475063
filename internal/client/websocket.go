// ABOUTME: Websocket client for the lanes control protocol
// ABOUTME: Handles connection, handshake, commands and message routing
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/harperreed/lanes/internal/version"
	"github.com/harperreed/lanes/pkg/protocol"
	"github.com/harperreed/lanes/pkg/timeline"
	"go.uber.org/zap"
)

// ErrNotConnected is returned when sending on a closed client
var ErrNotConnected = errors.New("not connected")

// Config holds client configuration
type Config struct {
	ServerAddr string // host:port
	Path       string // default /ws
	ClientID   string // default random
	Name       string
	Logger     *zap.Logger
}

// Client is a remote control connection to a lanes server
type Client struct {
	config Config
	log    *zap.Logger
	conn   *websocket.Conn
	mu     sync.RWMutex

	// cmdMu keeps one command in flight so results pair with requests
	cmdMu sync.Mutex

	// Message channels
	States  chan timeline.Snapshot
	Notices chan protocol.Notice
	results chan protocol.CommandResult

	server    protocol.ServerHello
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new websocket client
func NewClient(config Config) *Client {
	if config.Path == "" {
		config.Path = "/ws"
	}
	if config.ClientID == "" {
		config.ClientID = uuid.New().String()
	}
	if config.Name == "" {
		config.Name = version.Product + " ctl"
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:  config,
		log:     config.Logger.Named("client"),
		States:  make(chan timeline.Snapshot, 1),
		Notices: make(chan protocol.Notice, 10),
		results: make(chan protocol.CommandResult, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect establishes the websocket connection and performs the handshake
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: c.config.Path}
	c.log.Debug("connecting", zap.String("url", u.String()))

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake sends client/hello and waits for server/hello
func (c *Client) handshake() error {
	hello := protocol.ClientHello{
		ClientID: c.config.ClientID,
		Name:     c.config.Name,
		Version:  protocol.Version,
	}
	if err := c.sendJSON(protocol.Message{Type: protocol.TypeClientHello, Payload: hello}); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	switch msg.Type {
	case protocol.TypeServerHello:
	case protocol.TypeServerError:
		var e protocol.ServerError
		protocol.DecodePayload(msg.Payload, &e)
		return fmt.Errorf("server refused connection: %s", e.Message)
	default:
		return fmt.Errorf("expected server/hello, got %s", msg.Type)
	}

	if err := protocol.DecodePayload(msg.Payload, &c.server); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	c.log.Debug("handshake complete", zap.String("server", c.server.Name))
	return nil
}

// Server returns the server's hello
func (c *Client) Server() protocol.ServerHello {
	return c.server
}

// Command sends a command and waits for its result. A result with OK false
// is returned as an error.
func (c *Client) Command(ctx context.Context, msgType string, payload interface{}) (protocol.CommandResult, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	if err := c.sendJSON(protocol.Message{Type: msgType, Payload: payload}); err != nil {
		return protocol.CommandResult{}, err
	}

	select {
	case res := <-c.results:
		if !res.OK {
			return res, fmt.Errorf("%s: %s", msgType, res.Error)
		}
		return res, nil
	case <-ctx.Done():
		return protocol.CommandResult{}, ctx.Err()
	case <-c.ctx.Done():
		return protocol.CommandResult{}, ErrNotConnected
	}
}

// State returns the next snapshot pushed by the server
func (c *Client) State(ctx context.Context) (timeline.Snapshot, error) {
	select {
	case snap := <-c.States:
		return snap, nil
	case <-ctx.Done():
		return timeline.Snapshot{}, ctx.Err()
	case <-c.ctx.Done():
		return timeline.Snapshot{}, ErrNotConnected
	}
}

func (c *Client) sendJSON(msg protocol.Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return ErrNotConnected
	}

	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages until the connection drops
func (c *Client) readMessages() {
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.log.Debug("read error", zap.Error(err))
			return
		}

		c.handleJSONMessage(data)
	}
}

// handleJSONMessage routes JSON messages
func (c *Client) handleJSONMessage(data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.log.Debug("failed to parse message", zap.Error(err))
		return
	}

	switch msg.Type {
	case protocol.TypeSessionState:
		var snap timeline.Snapshot
		if err := protocol.DecodePayload(msg.Payload, &snap); err != nil {
			c.log.Debug("bad state", zap.Error(err))
			return
		}
		// keep only the latest snapshot
		select {
		case <-c.States:
		default:
		}
		select {
		case c.States <- snap:
		default:
		}

	case protocol.TypeSessionNotice:
		var n protocol.Notice
		protocol.DecodePayload(msg.Payload, &n)
		select {
		case c.Notices <- n:
		default:
		}

	case protocol.TypeCommandResult:
		var res protocol.CommandResult
		protocol.DecodePayload(msg.Payload, &res)
		select {
		case c.results <- res:
		case <-c.ctx.Done():
		}

	default:
		c.log.Debug("unknown message type", zap.String("type", msg.Type))
	}
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
