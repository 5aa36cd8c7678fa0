package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"market_sync/internal/infra"

	"github.com/gorilla/websocket"
)

const (
	maxRetries   = 10
	readTimeout  = 60 * time.Second
	dialTimeout  = 10 * time.Second
	headsChannel = "heads"
)

// headMessage is one new-block notification from the node.
type headMessage struct {
	Channel string `json:"channel"`
	Height  uint64 `json:"height"`
}

// Watcher maintains a WebSocket subscription to new block heads and fans
// each head out to settlement awaits so receipt checks run as soon as a
// block lands instead of waiting out the poll interval.
type Watcher struct {
	wsURL     string
	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	subs      map[chan struct{}]struct{}
	subMu     sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewWatcher creates a head watcher. wsURL may be empty, in which case the
// watcher never connects and settlement falls back to pure polling.
func NewWatcher(wsURL string) *Watcher {
	return &Watcher{
		wsURL: wsURL,
		subs:  make(map[chan struct{}]struct{}),
	}
}

// Connect starts the connection loop.
func (w *Watcher) Connect(ctx context.Context) error {
	if w.wsURL == "" {
		return nil
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

// IsConnected reports whether the subscription is live.
func (w *Watcher) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

// Subscribe returns a channel that receives a coalesced signal per new head,
// and a function to unsubscribe.
func (w *Watcher) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	w.subMu.Lock()
	w.subs[ch] = struct{}{}
	w.subMu.Unlock()

	return ch, func() {
		w.subMu.Lock()
		delete(w.subs, ch)
		w.subMu.Unlock()
	}
}

func (w *Watcher) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			slog.Warn("head watcher connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			delay := infra.CalculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		} else {
			retryCount = 0
			w.readLoop(ctx)
		}
	}
}

func (w *Watcher) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	header := make(http.Header)

	conn, _, err := dialer.DialContext(ctx, w.wsURL, header)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()

	if err := w.subscribeHeads(); err != nil {
		w.closeConnection()
		return err
	}

	slog.Info("head watcher connected", slog.String("url", w.wsURL))
	return nil
}

func (w *Watcher) subscribeHeads() error {
	msg := map[string]string{"op": "subscribe", "channel": headsChannel}
	b, _ := json.Marshal(msg)
	return w.threadSafeWrite(websocket.TextMessage, b)
}

func (w *Watcher) threadSafeWrite(msgType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conn == nil {
		return fmt.Errorf("no conn")
	}
	return w.conn.WriteMessage(msgType, data)
}

func (w *Watcher) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()

		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))

		_, msg, err := conn.ReadMessage()
		if err != nil {
			w.closeConnection()
			return
		}
		w.handleMessage(msg)
	}
}

func (w *Watcher) handleMessage(msg []byte) {
	var head headMessage
	if json.Unmarshal(msg, &head) != nil || head.Channel != headsChannel {
		return
	}

	w.subMu.Lock()
	defer w.subMu.Unlock()
	for ch := range w.subs {
		select {
		case ch <- struct{}{}:
		default: // subscriber already has a pending signal
		}
	}
}

func (w *Watcher) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connected = false
}

// Disconnect stops the watcher and waits for the loop to exit.
func (w *Watcher) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
}
