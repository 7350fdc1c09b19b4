package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"

	"github.com/circhioz/alexa-assistant/usecase"
)

func TestHubBroadcastsEvents(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.ServeWS(w, r); err != nil {
			t.Errorf("ServeWS failed: %v", err)
		}
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	// wait for registration to land
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Console never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish(usecase.ExchangeEvent{
		Type:       "exchange_completed",
		ExchangeID: "x1",
		SessionID:  "s1",
		MicMode:    "closed",
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	var event usecase.ExchangeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("Failed to decode event: %v", err)
	}
	if event.Type != "exchange_completed" || event.ExchangeID != "x1" {
		t.Errorf("Unexpected event: %+v", event)
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	// hub.Run intentionally not started: the buffer fills up

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish(usecase.ExchangeEvent{Type: "exchange_started"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full buffer")
	}
}
