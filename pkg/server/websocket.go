package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"gcode-toolpath/pkg/log"
)

const (
	wsReadLimit    = 512 * 1024
	wsPongWait     = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second
	wsQueueSize    = 64

	// Requests one connection may have running at once. Further frames
	// wait in the read loop.
	wsMaxInflight = 4
)

// notification is a JSON-RPC message without an id.
type notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

func notify(method string, params ...any) notification {
	return notification{JSONRPC: "2.0", Method: method, Params: params}
}

// session is one websocket connection speaking JSON-RPC. Requests are
// dispatched concurrently; replies may come back out of order and are
// matched by id.
type session struct {
	id     int64
	conn   *websocket.Conn
	srv    *Server
	logger *log.Logger

	queue    chan any
	inflight chan struct{}
	closed   chan struct{}
	once     sync.Once
	pending  sync.WaitGroup
}

func (s *Server) newSession(conn *websocket.Conn) *session {
	id := atomic.AddInt64(&s.nextWSID, 1)
	return &session{
		id:       id,
		conn:     conn,
		srv:      s,
		logger:   s.logger.WithPrefix("websocket").With(log.Fields{"client": id}),
		queue:    make(chan any, wsQueueSize),
		inflight: make(chan struct{}, wsMaxInflight),
		closed:   make(chan struct{}),
	}
}

// send queues a frame. It never blocks: a full queue drops the frame.
func (c *session) send(frame any) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.queue <- frame:
		return true
	default:
		c.logger.Warn("send queue full, frame dropped")
		return false
	}
}

func (c *session) close() {
	c.once.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

// serve runs the connection until the peer leaves or the server stops.
func (c *session) serve() {
	go c.writeLoop()
	defer func() {
		c.srv.dropSession(c)
		c.close()
		c.pending.Wait()
	}()

	c.conn.SetReadLimit(wsReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WithError(err).Warn("read failed")
			}
			return
		}
		var req jsonRPCRequest
		if err := json.Unmarshal(frame, &req); err != nil {
			c.send(jsonRPCResponse{JSONRPC: "2.0", Error: &jsonRPCError{Code: rpcParseError, Message: "Parse error"}})
			continue
		}

		select {
		case c.inflight <- struct{}{}:
		case <-c.closed:
			return
		}
		c.pending.Add(1)
		go func() {
			defer func() {
				<-c.inflight
				c.pending.Done()
			}()
			result, rpcErr := c.srv.dispatchMethod(req.Method, req.Params)
			c.send(jsonRPCResponse{JSONRPC: "2.0", Result: result, Error: rpcErr, ID: req.ID})
		}()
	}
}

func (c *session) writeLoop() {
	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	defer c.close()

	for {
		var err error
		select {
		case frame := <-c.queue:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			err = c.conn.WriteJSON(frame)
		case <-ping.C:
			err = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
		case <-c.closed:
			return
		}
		if err != nil {
			c.logger.WithError(err).Debug("write failed")
			return
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := s.newSession(conn)
	s.sessionsMu.Lock()
	s.sessions[c.id] = c
	s.sessionsMu.Unlock()
	s.engine.Metrics().WebsocketConns.Inc(nil)
	c.logger.Debug("connected")

	c.send(notify("notify_engine_ready", map[string]any{"version": Version}))
	c.serve()
}

// dropSession unregisters c. The gauge moves only for sessions that were
// still registered.
func (s *Server) dropSession(c *session) {
	s.sessionsMu.Lock()
	_, ok := s.sessions[c.id]
	delete(s.sessions, c.id)
	s.sessionsMu.Unlock()

	if ok {
		s.engine.Metrics().WebsocketConns.Dec(nil)
		c.logger.Debug("disconnected")
	}
}

// broadcast sends a notification to every connected session.
func (s *Server) broadcast(method string, params ...any) {
	frame := notify(method, params...)
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	for _, c := range s.sessions {
		c.send(frame)
	}
}
