// Package server exposes the simulation's domain events to external
// observers over websocket.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/warwolfworks/wolfcore/internal/core/events/bus"
	"github.com/warwolfworks/wolfcore/internal/core/observability/log"
	"github.com/warwolfworks/wolfcore/pkg/generic"
)

const hotEncodeBuffers = 16

var encodeBuffers = generic.NewHotPool(
	func() *bytes.Buffer { return new(bytes.Buffer) },
	(*bytes.Buffer).Reset,
	hotEncodeBuffers,
)

type Config struct {
	Addr         string
	Path         string
	SendBuffer   int
	PingInterval time.Duration
	WriteTimeout time.Duration
	// EventTypes lists the bus events forwarded to clients. Empty means
	// every domain event type.
	EventTypes []string
}

func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:8080",
		Path:         "/feed",
		SendBuffer:   256,
		PingInterval: 30 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

func (c Config) validate() error {
	switch {
	case !strings.HasPrefix(c.Path, "/"):
		return fmt.Errorf("%w: path %q must start with /", ErrInvalidConfig, c.Path)
	case c.SendBuffer <= 0:
		return fmt.Errorf("%w: send buffer must be positive", ErrInvalidConfig)
	case c.PingInterval <= 0 || c.WriteTimeout <= 0:
		return fmt.Errorf("%w: ping interval and write timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// Message is the JSON frame sent for every event.
type Message struct {
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

type Stats struct {
	Clients   int    `json:"clients"`
	Connected uint64 `json:"connected"`
	Sent      uint64 `json:"sent"`
	Dropped   uint64 `json:"dropped"`

	// SlowDeliveries counts bus deliveries slower than slowDelivery.
	SlowDeliveries uint64              `json:"slow_deliveries"`
	Bus            bus.EventBusMetrics `json:"bus"`
}

// slowDelivery is the delivery time above which the feed warns; handlers
// run on the simulation thread.
const slowDelivery = 5 * time.Millisecond

// deliveryMonitor watches every bus delivery while the feed is open.
type deliveryMonitor struct {
	logger log.Log
	slow   atomic.Uint64
}

func (m *deliveryMonitor) OnPublish(string, bus.Event) {}

func (m *deliveryMonitor) OnDelivered(eventType string, handlers int, err error, duration time.Duration) {
	if err != nil {
		m.logger.Warn("Event delivery failed",
			log.String("event", eventType),
			log.Int("handlers", handlers),
			log.Error(err))
	}
	if duration > slowDelivery {
		m.slow.Add(1)
		m.logger.Debug("Slow event delivery",
			log.String("event", eventType),
			log.Int("handlers", handlers),
			log.Duration("duration", duration))
	}
}

// FeedServer broadcasts bus events to every connected websocket client.
// Payloads are encoded on the publishing goroutine, so clients never touch
// live simulation state.
type FeedServer struct {
	config   Config
	logger   log.Log
	events   bus.EventBus
	upgrader websocket.Upgrader

	subs    []bus.Subscription
	monitor *deliveryMonitor

	clientsMu sync.RWMutex
	clients   map[*feedClient]struct{}
	// draining is set by Stop; upgrades are refused until the next Start
	draining  bool

	running    atomic.Bool
	closed     atomic.Bool
	httpServer *http.Server
	listener   net.Listener
	wg         sync.WaitGroup

	connected atomic.Uint64
	sent      atomic.Uint64
	dropped   atomic.Uint64
}

// NewFeedServer subscribes to the configured event types on events.
func NewFeedServer(events bus.EventBus, logger log.Log, config Config) (*FeedServer, error) {
	if events == nil {
		return nil, fmt.Errorf("%w: nil event bus", ErrInvalidConfig)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNop()
	}
	if len(config.EventTypes) == 0 {
		config.EventTypes = bus.DomainEventTypes()
	}

	logger = logger.Named("feed")
	s := &FeedServer{
		config:  config,
		logger:  logger,
		events:  events,
		monitor: &deliveryMonitor{logger: logger},
		clients: make(map[*feedClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, typ := range config.EventTypes {
		sub, err := events.Subscribe(typ, s.broadcast)
		if err != nil {
			s.unsubscribe()
			return nil, fmt.Errorf("subscribe %s: %w", typ, err)
		}
		s.subs = append(s.subs, sub)
	}
	events.AddObserver(s.monitor)
	return s, nil
}

// Handler serves the websocket feed at the configured path and a JSON
// status document at /health.
func (s *FeedServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.config.Path, s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *FeedServer) Start(_ context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}
	s.clientsMu.Lock()
	s.draining = false
	s.clientsMu.Unlock()

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		s.running.Store(false)
		s.logger.Error("Failed to create listener", log.String("addr", s.config.Addr), log.Error(err))
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Feed server failed", log.Error(err))
		}
	}()

	s.logger.Info("Feed server listening",
		log.String("addr", ln.Addr().String()),
		log.String("path", s.config.Path))
	return nil
}

// Addr is the bound address, nil before Start.
func (s *FeedServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the HTTP server down and disconnects every client.
func (s *FeedServer) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrServerNotRunning
	}
	s.logger.Info("Stopping feed server")

	// no client may join once Wait below has started
	s.clientsMu.Lock()
	s.draining = true
	s.clientsMu.Unlock()

	err := s.httpServer.Shutdown(ctx)
	s.disconnectAll()
	s.wg.Wait()

	s.logger.Info("Feed server stopped")
	return err
}

// Close stops the server if needed and drops the bus subscriptions.
func (s *FeedServer) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.running.Load() {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.WriteTimeout)
		defer cancel()
		_ = s.Stop(ctx)
	}
	s.disconnectAll()
	s.unsubscribe()
	return nil
}

// Run starts the server and stops it when ctx is done.
func (s *FeedServer) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), s.config.WriteTimeout)
	defer cancel()
	return s.Stop(shutdown)
}

func (s *FeedServer) Stats() Stats {
	s.clientsMu.RLock()
	n := len(s.clients)
	s.clientsMu.RUnlock()
	return Stats{
		Clients:        n,
		Connected:      s.connected.Load(),
		Sent:           s.sent.Load(),
		Dropped:        s.dropped.Load(),
		SlowDeliveries: s.monitor.slow.Load(),
		Bus:            s.events.GetMetrics(),
	}
}

func (s *FeedServer) unsubscribe() {
	s.events.RemoveObserver(s.monitor)
	for _, sub := range s.subs {
		_ = s.events.Unsubscribe(sub)
	}
	s.subs = nil
}

func (s *FeedServer) accepting() bool {
	return !s.closed.Load() && !s.draining
}

func (s *FeedServer) disconnectAll() {
	s.clientsMu.Lock()
	clients := make([]*feedClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.Unlock()
	for _, c := range clients {
		c.close()
	}
}

func (s *FeedServer) broadcast(event bus.Event) error {
	buf := encodeBuffers.Get()
	defer encodeBuffers.Put(buf)
	err := json.NewEncoder(buf).Encode(Message{
		Type:      event.Type(),
		Source:    event.Source(),
		Timestamp: event.Timestamp(),
		Data:      event.Data(),
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.Type(), err)
	}
	// clients keep the frame after the buffer is reused
	data := bytes.Clone(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for c := range s.clients {
		if c.enqueue(data) {
			s.sent.Add(1)
			continue
		}
		s.dropped.Add(1)
		s.logger.Warn("Feed client queue overflow, dropping event",
			log.String("client_id", c.id),
			log.String("event", event.Type()))
	}
	return nil
}

func (s *FeedServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.clientsMu.RLock()
	ok := s.accepting()
	s.clientsMu.RUnlock()
	if !ok {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", log.Error(err))
		return
	}

	client := newFeedClient(conn, s.config.SendBuffer)
	s.clientsMu.Lock()
	if !s.accepting() {
		s.clientsMu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}
	s.clients[client] = struct{}{}
	s.wg.Add(2)
	s.clientsMu.Unlock()
	s.connected.Add(1)
	s.logger.Info("Client connected",
		log.String("client_id", client.id),
		log.String("remote", conn.RemoteAddr().String()))

	go func() {
		defer s.wg.Done()
		if err := client.writeLoop(s.config.PingInterval, s.config.WriteTimeout); err != nil {
			s.logger.Debug("Feed write failed", log.String("client_id", client.id), log.Error(err))
		}
		client.close()
	}()

	go func() {
		defer s.wg.Done()
		defer s.removeClient(client)
		if err := client.readLoop(); err != nil &&
			websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
			s.logger.Error("WebSocket error", log.String("client_id", client.id), log.Error(err))
		}
	}()
}

func (s *FeedServer) removeClient(c *feedClient) {
	s.clientsMu.Lock()
	delete(s.clients, c)
	s.clientsMu.Unlock()
	c.close()
	s.logger.Info("Client disconnected", log.String("client_id", c.id))
}

func (s *FeedServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(struct {
		Status string `json:"status"`
		Stats
	}{Status: "healthy", Stats: s.Stats()})
}
