// Command chatload drives many realtime connections against a running
// FaceBlog API: every client joins a chat room, posts to it on an interval
// and optionally sends direct messages.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the run results
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	MessagesSent         int64
	MessagesReceived     int64
	ErrorFrames          int64
	Errors               int64
}

var metrics Metrics

type loadConfig struct {
	host        string
	token       string
	roomID      uint
	recipientID uint
	interval    time.Duration
}

type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func main() {
	host := flag.String("host", "localhost:8080", "API server host")
	email := flag.String("email", "", "Login email of an existing user")
	password := flag.String("password", "password123", "Login password")
	clients := flag.Int("clients", 20, "Number of concurrent connections")
	duration := flag.Duration("duration", 30*time.Second, "Run duration")
	interval := flag.Duration("interval", 2*time.Second, "Delay between messages per client")
	roomID := flag.Uint("room", 1, "Chat room to join and post to")
	recipientID := flag.Uint("dm", 0, "Also send direct messages to this user ID")
	flag.Parse()

	if *email == "" {
		log.Fatal("-email is required")
	}

	log.Printf("Target: %s, clients: %d, duration: %v, room: %d", *host, *clients, *duration, *roomID)

	token, err := login(*host, *email, *password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	cfg := loadConfig{
		host:        *host,
		token:       token,
		roomID:      *roomID,
		recipientID: *recipientID,
		interval:    *interval,
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(cfg, i, stopChan, &wg)
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-time.After(*duration):
		log.Println("Duration reached")
	case <-interrupt:
		log.Println("Interrupted")
	}

	close(stopChan)
	wg.Wait()

	printMetrics()
}

func login(host, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(fmt.Sprintf("http://%s/login", host), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func runClient(cfg loadConfig, id int, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	u := url.URL{Scheme: "ws", Host: cfg.host, Path: "/ws", RawQuery: url.Values{"token": {cfg.token}}.Encode()}
	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	go func() {
		for {
			var in struct {
				Event string `json:"event"`
			}
			if err := c.ReadJSON(&in); err != nil {
				return
			}
			atomic.AddInt64(&metrics.MessagesReceived, 1)
			if in.Event == "error" {
				atomic.AddInt64(&metrics.ErrorFrames, 1)
			}
		}
	}()

	if err := c.WriteJSON(frame{Event: "join_room", Data: map[string]uint{"chatroom_id": cfg.roomID}}); err != nil {
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}

	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	for n := 0; ; n++ {
		select {
		case <-stopChan:
			_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			out := frame{Event: "send_message", Data: map[string]any{
				"chatroom_id": cfg.roomID,
				"message":     fmt.Sprintf("load message %d from client %d", n, id),
			}}
			if cfg.recipientID != 0 && n%2 == 1 {
				out = frame{Event: "send_direct_message", Data: map[string]any{
					"recipient_id": cfg.recipientID,
					"message":      fmt.Sprintf("load dm %d from client %d", n, id),
				}}
			}
			if err := c.WriteJSON(out); err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				return
			}
			atomic.AddInt64(&metrics.MessagesSent, 1)
		}
	}
}

func printMetrics() {
	log.Println("Results")
	log.Printf("Connections attempted: %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("Connections successful: %d", atomic.LoadInt64(&metrics.ConnectionsSuccess))
	log.Printf("Connections failed: %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("Messages sent: %d", atomic.LoadInt64(&metrics.MessagesSent))
	log.Printf("Frames received: %d", atomic.LoadInt64(&metrics.MessagesReceived))
	log.Printf("Error frames: %d", atomic.LoadInt64(&metrics.ErrorFrames))
	log.Printf("Transport errors: %d", atomic.LoadInt64(&metrics.Errors))
}
