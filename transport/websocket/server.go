package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-rounds/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rounds/internal/store"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMessageSize  = 1024
	outboxSize      = 16
	shutdownTimeout = 5 * time.Second
)

type gameService interface {
	Snapshot(ctx context.Context) (*entity.Snapshot, error)

	PlayerMove(ctx context.Context, squareID int) (*entity.Snapshot, error)
	NewRound(ctx context.Context) (*entity.Snapshot, error)
	Reset(ctx context.Context) (*entity.Snapshot, error)

	Subscribe(listener store.Listener) func()
}

type handlerFunc func(ctx context.Context, conn *connection, msg *Message) error

type Server struct {
	logger      *slog.Logger
	gameService gameService
	upgrader    websocket.Upgrader

	handlers map[string]handlerFunc

	connectionsMutex sync.Mutex
	connections      map[string]*connection
}

// connection - one display context. Only the write loop writes to conn.
type connection struct {
	id   string
	conn *websocket.Conn

	// capacity 1: renders requested while one is pending collapse into it
	renders chan struct{}
	outbox  chan Message
}

func New(logger *slog.Logger, gameService gameService) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		gameService: gameService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},

		connections: make(map[string]*connection),
	}

	server.handlers = map[string]handlerFunc{
		actionMove:     server.handleMove,
		actionReset:    server.handleReset,
		actionNewRound: server.handleNewRound,
	}

	return server
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)

	return mux
}

// Start - starts WebSocket server, it stops when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}

		that.closeAll()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveWS - upgrades the connection and keeps it in sync with the game state.
func (that *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveWS")

	wsConn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := &connection{
		id:      uuid.NewString(),
		conn:    wsConn,
		renders: make(chan struct{}, 1),
		outbox:  make(chan Message, outboxSize),
	}

	log = log.With("connectionID", conn.id)

	that.connectionsMutex.Lock()
	that.connections[conn.id] = conn
	that.connectionsMutex.Unlock()

	ctx, cancel := context.WithCancel(r.Context())

	unsubscribe := that.gameService.Subscribe(conn.requestRender)

	defer func() {
		unsubscribe()
		cancel()

		that.connectionsMutex.Lock()
		delete(that.connections, conn.id)
		that.connectionsMutex.Unlock()

		if err = wsConn.Close(); err != nil {
			log.Debug("failed to close connection", "error", err)
		}

		log.Info("connection closed")
	}()

	log.Info("WebSocket connection established")

	// first render of a freshly opened page
	conn.requestRender()

	go that.writeLoop(ctx, cancel, conn)

	if err = that.readLoop(ctx, conn); err != nil {
		log.Debug("read loop stopped", "error", err)
	}
}

// readLoop - processes messages from the client.
func (that *Server) readLoop(ctx context.Context, conn *connection) error {
	log := that.logger.With("method", "readLoop", "connectionID", conn.id)

	conn.conn.SetReadLimit(maxMessageSize)
	_ = conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := conn.conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		handler, ok := that.handlers[msg.Action]
		if !ok {
			log.Warn("unknown action", "action", msg.Action)
			that.sendError(conn, msg.Action, "unknown action")
			continue
		}

		if err := handler(ctx, conn, &msg); err != nil {
			log.Error("error processing message", "action", msg.Action, "error", err)
		}
	}
}

// writeLoop - the only writer of the connection.
func (that *Server) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *connection) {
	log := that.logger.With("method", "writeLoop", "connectionID", conn.id)

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		_ = conn.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case <-conn.renders:
			msg, err := that.renderMessage(ctx)
			if err != nil {
				// the page keeps its last render, the next change renders again
				log.Error("failed to render", "error", err)

				if msg, err = newMessage(actionError, ErrorPayload{Action: actionRender, Error: "game is unavailable"}); err != nil {
					continue
				}
			}

			if err = conn.write(msg); err != nil {
				log.Error("failed to send render", "error", err)
				return
			}
		case msg := <-conn.outbox:
			if err := conn.write(msg); err != nil {
				log.Error("failed to send message", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug("failed to ping", "error", err)
				return
			}
		}
	}
}

// renderMessage - builds the render of the current state, the snapshot is taken at send time so bursts of changes render once.
func (that *Server) renderMessage(ctx context.Context) (Message, error) {
	snapshot, err := that.gameService.Snapshot(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return newMessage(actionRender, newRenderPayload(snapshot))
}

func (that *Server) sendError(conn *connection, action, errorMsg string) {
	msg, err := newMessage(actionError, ErrorPayload{Action: action, Error: errorMsg})
	if err != nil {
		that.logger.Error("failed to build error message", "error", err)
		return
	}

	select {
	case conn.outbox <- msg:
	default:
		that.logger.Warn("outbox is full, error dropped", "connectionID", conn.id)
	}
}

func (that *Server) closeAll() {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	for _, conn := range that.connections {
		_ = conn.conn.Close()
	}
}

func (that *connection) requestRender() {
	select {
	case that.renders <- struct{}{}:
	default:
	}
}

func (that *connection) write(msg Message) error {
	if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err = that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
