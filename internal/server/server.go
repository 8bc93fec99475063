// ABOUTME: Websocket control server for a lanes session
// ABOUTME: Manages remote control connections, state broadcast and mDNS
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/harperreed/lanes/internal/discovery"
	"github.com/harperreed/lanes/internal/ingest"
	"github.com/harperreed/lanes/internal/version"
	"github.com/harperreed/lanes/pkg/protocol"
	"github.com/harperreed/lanes/pkg/timeline"
	"go.uber.org/zap"
)

// DefaultBroadcastInterval is how often connected clients get a state snapshot
const DefaultBroadcastInterval = 100 * time.Millisecond

// Config holds server configuration
type Config struct {
	Port              int
	Name              string
	EnableMDNS        bool
	BroadcastInterval time.Duration

	Session  *timeline.Session
	Ingestor *ingest.Ingestor // optional, enables clip/add and record/*
	Notices  *Relay           // optional, forwarded as session/notice
	Logger   *zap.Logger
}

// Server exposes a timeline session to remote controls
type Server struct {
	config   Config
	serverID string
	log      *zap.Logger

	upgrader websocket.Upgrader

	httpServer *http.Server
	router     *mux.Router

	clients   map[string]*Client
	clientsMu sync.RWMutex

	mdnsManager *discovery.Manager

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// Client is a connected remote control
type Client struct {
	ID   string
	Name string
	Conn *websocket.Conn

	sendChan chan interface{}
}

// New creates a server; routes are registered immediately so Handler can
// be served before Start
func New(config Config) *Server {
	if config.Name == "" {
		config.Name = version.Product
	}
	if config.BroadcastInterval <= 0 {
		config.BroadcastInterval = DefaultBroadcastInterval
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		log:      config.Logger.Named("server"),
		router:   mux.NewRouter(),
		upgrader: websocket.Upgrader{
			// Remote controls run on the local network and are not browsers.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[string]*Client),
		stopChan: make(chan struct{}),
	}

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)

	return s
}

// Handler returns the HTTP handler serving /ws and /api/state
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Stop is called or the listener fails
func (s *Server) Start() error {
	s.log.Info("server starting", zap.String("name", s.config.Name), zap.String("id", s.serverID))

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Logger:      s.config.Logger,
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			s.log.Warn("failed to start mDNS advertisement", zap.Error(err))
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.broadcastLoop()
	}()

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.log.Info("websocket server listening", zap.String("addr", addr))

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-s.stopChan:
		s.log.Info("server shutting down")
	case err := <-errChan:
		s.log.Error("http server error", zap.Error(err))
		serverErr = err
		s.Stop()
	}

	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Warn("http server shutdown error", zap.Error(err))
	}
	s.closeClients()

	s.wg.Wait()
	s.log.Info("server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// ClientCount returns the number of connected remote controls
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		c.Conn.Close()
	}
}

// handleState serves the current snapshot as JSON
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.config.Session.Snapshot()); err != nil {
		s.log.Warn("failed to encode state", zap.Error(err))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade error", zap.Error(err))
		return
	}

	s.log.Debug("new websocket connection", zap.String("remote", r.RemoteAddr))
	s.handleConnection(conn)
}

// handleConnection runs the handshake and then reads commands until the
// connection drops
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		s.log.Debug("rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		s.log.Debug("error reading hello", zap.Error(err))
		return
	}
	conn.SetReadDeadline(time.Time{})

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Debug("error unmarshaling message", zap.Error(err))
		return
	}
	if msg.Type != protocol.TypeClientHello {
		s.log.Debug("expected client/hello", zap.String("got", msg.Type))
		return
	}

	var hello protocol.ClientHello
	if err := protocol.DecodePayload(msg.Payload, &hello); err != nil {
		s.log.Debug("bad client hello", zap.Error(err))
		return
	}
	if hello.ClientID == "" || hello.Name == "" {
		s.log.Debug("client hello missing id or name")
		return
	}

	client := &Client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		sendChan: make(chan interface{}, 100),
	}

	s.clientsMu.Lock()
	if existing, exists := s.clients[hello.ClientID]; exists {
		s.clientsMu.Unlock()
		s.log.Warn("duplicate client id rejected",
			zap.String("id", hello.ClientID), zap.String("name", existing.Name))

		errorMsg := protocol.Message{
			Type: protocol.TypeServerError,
			Payload: protocol.ServerError{
				Error:   "duplicate_client_id",
				Message: "Client ID already connected",
			},
		}
		if data, err := json.Marshal(errorMsg); err == nil {
			conn.WriteMessage(websocket.TextMessage, data)
		}
		return
	}
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	s.log.Info("client connected", zap.String("name", client.Name), zap.String("id", client.ID))

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		close(client.sendChan)
		s.clientsMu.Unlock()
		s.log.Info("client disconnected", zap.String("name", client.Name))
	}()

	serverHello := protocol.ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  protocol.Version,
		Software: version.String(),
	}
	if err := s.sendMessage(client, protocol.TypeServerHello, serverHello); err != nil {
		s.log.Warn("error sending server hello", zap.Error(err))
		return
	}
	s.sendMessage(client, protocol.TypeSessionState, s.config.Session.Snapshot())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(client)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket error", zap.Error(err))
			}
			break
		}

		s.handleClientMessage(client, data)
	}
}

// clientWriter drains the client's queue onto the connection
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				s.log.Warn("error marshaling message", zap.Error(err))
				continue
			}
			client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Debug("error writing message", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// broadcastLoop pushes snapshots on a ticker and relays notices as they
// arrive
func (s *Server) broadcastLoop() {
	ticker := time.NewTicker(s.config.BroadcastInterval)
	defer ticker.Stop()

	var notices <-chan protocol.Notice
	if s.config.Notices != nil {
		notices = s.config.Notices.C()
	}

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if s.ClientCount() == 0 {
				continue
			}
			s.broadcast(protocol.TypeSessionState, s.config.Session.Snapshot())
		case n := <-notices:
			s.broadcast(protocol.TypeSessionNotice, n)
		}
	}
}

// broadcast queues a message for every connected client
func (s *Server) broadcast(msgType string, payload interface{}) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, c := range s.clients {
		if err := s.sendMessage(c, msgType, payload); err != nil {
			s.log.Debug("dropping message", zap.String("client", c.Name), zap.Error(err))
		}
	}
}

// sendMessage queues a JSON message for a client
func (s *Server) sendMessage(client *Client, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case client.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}
