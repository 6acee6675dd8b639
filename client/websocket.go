package client

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketCallback receives every raw message read from the socket.
type WebSocketCallback interface {
	OnMessage(message string)
}

// WebSocketConnection reads the renderer's status socket. Dials are retried
// with exponential backoff until one sticks or the retry budget is spent;
// once connected, messages are dispatched until the socket drops.
type WebSocketConnection struct {
	WebSocketURL   string
	Conn           *websocket.Conn
	ConnectionDone chan bool
	IsConnected    bool
	MaxRetry       int
	RetryCount     int
	Callback       WebSocketCallback

	BaseDelay time.Duration
	MaxDelay  time.Duration
	Dialer    websocket.Dialer

	// held across every Callback dispatch; see LockRead
	mu sync.Mutex
}

// ConnectWithManager starts dialing and reading in the background.
// timeoutSeconds bounds the wait for the first successful connection;
// negative waits indefinitely, zero returns without waiting.
func (w *WebSocketConnection) ConnectWithManager(timeoutSeconds int) error {
	first := make(chan error, 1)
	go w.run(first)

	if timeoutSeconds == 0 {
		return nil
	}
	if timeoutSeconds < 0 {
		return <-first
	}
	timeout := time.Duration(timeoutSeconds) * time.Second
	select {
	case err := <-first:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("connection timeout after %v", timeout)
	}
}

// run owns the connection lifecycle: redial until connected, then read
// until the socket drops. The outcome of establishing the first connection
// is reported once on first.
func (w *WebSocketConnection) run(first chan<- error) {
	for {
		conn, _, err := w.Dialer.Dial(w.WebSocketURL, nil)
		if err != nil {
			slog.Error("websocket dial failed", "url", w.WebSocketURL, "error", err)
			if w.RetryCount >= w.MaxRetry {
				slog.Error("websocket retries exhausted", "max_retry", w.MaxRetry)
				first <- err
				return
			}
			select {
			case <-time.After(w.reconnectDelay()):
			case <-w.ConnectionDone:
				return
			}
			continue
		}

		w.Conn = conn
		w.IsConnected = true
		first <- nil
		w.readLoop()
		return
	}
}

func (w *WebSocketConnection) Ping() error {
	return w.Conn.WriteMessage(websocket.PingMessage, nil)
}

func (w *WebSocketConnection) readLoop() {
	defer func() {
		w.Conn.Close()
		w.IsConnected = false
		w.ConnectionDone <- true
	}()
	for {
		_, message, err := w.Conn.ReadMessage()
		if err != nil {
			slog.Warn("websocket read error", "error", err)
			return
		}
		w.dispatch(string(message))
	}
}

// dispatch hands one message to the callback under the read lock, so a
// LockRead holder never races an in-flight dispatch.
func (w *WebSocketConnection) dispatch(message string) {
	if w.Callback == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Callback.OnMessage(message)
}

// reconnectDelay doubles on every retry, saturating at MaxDelay.
func (w *WebSocketConnection) reconnectDelay() time.Duration {
	delay := w.BaseDelay << w.RetryCount
	if delay > w.MaxDelay || delay < w.BaseDelay {
		delay = w.MaxDelay
	}
	w.RetryCount++
	return delay
}

// LockRead pauses message dispatch so the caller can update job bookkeeping
// without racing the reader.
func (w *WebSocketConnection) LockRead() {
	w.mu.Lock()
}

func (w *WebSocketConnection) UnlockRead() {
	w.mu.Unlock()
}
