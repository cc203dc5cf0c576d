// Package main runs a demo WebSocket client that triggers a shipment sync and
// prints the sync events streamed back.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type syncEvent struct {
	Type string         `json:"type"`
	Kind string         `json:"kind"`
	Data map[string]any `json:"data,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Connect WS before triggering so no events are missed
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/sync/ws", RawQuery: "kind=all"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var evt syncEvent
			if err := c.ReadJSON(&evt); err != nil {
				log.Printf("read: %v", err)
				return
			}
			data, _ := json.Marshal(evt.Data)
			log.Printf("WS <- %s [%s] %s", evt.Type, evt.Kind, data)
		}
	}()

	// Trigger a shipment sync
	time.Sleep(200 * time.Millisecond)
	resp, err := http.Post(base+"/v1/sync/shipments", "application/json", nil)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var summary map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		log.Fatal(err)
	}
	log.Printf("sync summary: %v", summary)

	// Wait briefly to receive trailing events
	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
