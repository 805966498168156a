package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/igolaizola/emacross/pkg/metrics"
	"github.com/igolaizola/emacross/pkg/signal"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestHub(t *testing.T) {
	m := metrics.New()
	hub := NewHub(zerolog.Nop(), m)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ts := time.Date(2021, 9, 1, 10, 0, 0, 0, time.UTC)
	hub.Publish(signal.Event{Symbol: "ETHUSDT", Price: 3200.5, Time: ts})

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// Wait until the client is registered
	deadline := time.Now().Add(2 * time.Second)
	for testutil.ToFloat64(m.StreamConns) != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client not registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	hub.Publish(signal.Event{Symbol: "BNBUSDT", Price: 410, Time: ts})

	want := []signal.Event{
		{Symbol: "ETHUSDT", Price: 3200.5, Time: ts},
		{Symbol: "BNBUSDT", Price: 410, Time: ts},
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i, w := range want {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		var got signal.Event
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatal(err)
		}
		if got.Symbol != w.Symbol || got.Price != w.Price || !got.Time.Equal(w.Time) {
			t.Errorf("event %d: want %+v, got %+v", i, w, got)
		}
	}
}

func TestHubClientDisconnect(t *testing.T) {
	m := metrics.New()
	hub := NewHub(zerolog.Nop(), m)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for testutil.ToFloat64(m.StreamConns) != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client not registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	conn.Close()
	for testutil.ToFloat64(m.StreamConns) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client not removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	// Publishing without clients must not block
	hub.Publish(signal.Event{Symbol: "ETHUSDT", Price: 1})
}
