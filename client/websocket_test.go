package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReconnectDelayBacksOffExponentially(t *testing.T) {
	w := &WebSocketConnection{BaseDelay: time.Second, MaxDelay: time.Minute}

	assert.Equal(t, time.Second, w.reconnectDelay())
	assert.Equal(t, 2*time.Second, w.reconnectDelay())
	assert.Equal(t, 4*time.Second, w.reconnectDelay())

	for i := 0; i < 10; i++ {
		w.reconnectDelay()
	}
	assert.Equal(t, time.Minute, w.reconnectDelay())
}

type recordingCallback struct {
	messages chan string
}

func (r *recordingCallback) OnMessage(message string) {
	r.messages <- message
}

func TestDispatchWaitsForReadLock(t *testing.T) {
	cb := &recordingCallback{messages: make(chan string, 1)}
	w := &WebSocketConnection{Callback: cb}

	w.LockRead()
	go w.dispatch("hello")

	select {
	case <-cb.messages:
		t.Fatal("message dispatched while the read lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	w.UnlockRead()
	select {
	case msg := <-cb.messages:
		assert.Equal(t, "hello", msg)
	case <-time.After(time.Second):
		t.Fatal("message never dispatched after unlock")
	}
}

func TestConnectReportsDialFailure(t *testing.T) {
	w := &WebSocketConnection{
		WebSocketURL:   "ws://127.0.0.1:1/ws",
		ConnectionDone: make(chan bool, 1),
		MaxRetry:       0,
		BaseDelay:      time.Millisecond,
		MaxDelay:       time.Millisecond,
	}
	assert.Error(t, w.ConnectWithManager(-1))
}
