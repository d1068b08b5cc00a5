// Package main provides an interactive command line client for the chat WebSocket endpoint.
package main

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/protocol"
)

// Client represents a WebSocket client.
type Client struct {
	conn *websocket.Conn
	done chan struct{}

	mu        sync.Mutex
	sessionID string
}

// NewClient creates a new client and connects to the server.
func NewClient(addr, sessionID string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Client{
		conn:      conn,
		done:      make(chan struct{}),
		sessionID: sessionID,
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	close(c.done)
	return c.conn.Close()
}

func (c *Client) session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Client) setSession(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID == "" && id != "" {
		c.sessionID = id
		fmt.Printf("\nSession established: %s\n", id)
	}
}

// SendChat sends a chat turn with optional image file.
func (c *Client) SendChat(text, imagePath string) error {
	msg := protocol.ChatMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeChat,
			Ts:        time.Now().UnixMilli(),
			SessionID: c.session(),
			RequestID: fmt.Sprintf("req_%d", time.Now().UnixNano()),
		},
		Text: text,
	}

	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		msg.ImageBase64 = base64.StdEncoding.EncodeToString(data)
	}

	return c.conn.WriteJSON(msg)
}

// SendClear asks the server to drop the current session's history.
func (c *Client) SendClear() error {
	sessionID := c.session()
	if sessionID == "" {
		return fmt.Errorf("no session yet")
	}
	return c.conn.WriteJSON(protocol.ClearMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeClear,
			Ts:        time.Now().UnixMilli(),
			SessionID: sessionID,
			RequestID: fmt.Sprintf("req_%d", time.Now().UnixNano()),
		},
	})
}

// ReadMessages reads and prints messages from the server.
func (c *Client) ReadMessages() {
	for {
		select {
		case <-c.done:
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("Read error: %v", err)
				}
				return
			}
			c.print(data)
		}
	}
}

func (c *Client) print(data []byte) {
	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		log.Printf("Unmarshal error: %v", err)
		return
	}

	switch base.Type {
	case protocol.TypeReply:
		var reply protocol.ReplyMessage
		if err := json.Unmarshal(data, &reply); err != nil {
			log.Printf("Unmarshal error: %v", err)
			return
		}
		c.setSession(reply.SessionID)
		switch {
		case !reply.Success:
			fmt.Printf("\n[error] %s\n", reply.Error)
		case reply.ImageResponse != "":
			fmt.Printf("\n%s\n", reply.ImageResponse)
		default:
			fmt.Printf("\n%s\n", reply.TextResponse)
		}
	case protocol.TypeCleared:
		fmt.Printf("\n[cleared] %s\n", base.SessionID)
	case protocol.TypeError:
		var errMsg protocol.ErrorMessage
		json.Unmarshal(data, &errMsg)
		fmt.Printf("\n[error] %s - %s\n", errMsg.Code, errMsg.Message)
	default:
		fmt.Printf("\n[%s] %s\n", base.Type, string(data))
	}
	fmt.Print("> ")
}

func main() {
	addr := flag.String("addr", "ws://localhost:8080/v1/ws", "WebSocket server address")
	sessionID := flag.String("session", "", "Session ID to resume (assigned by the server when empty)")
	image := flag.String("image", "", "Image file to attach to the first message")
	flag.Parse()

	log.SetFlags(log.Ltime)

	fmt.Printf("Connecting to %s...\n", *addr)

	client, err := NewClient(*addr, *sessionID)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	fmt.Println("Connected.")
	fmt.Println("Type a message and press Enter to send.")
	fmt.Println("Commands: /image <path> [text], /clear, /quit")
	fmt.Println()

	go client.ReadMessages()

	pendingImage := *image
	if pendingImage != "" {
		fmt.Printf("%s will be attached to your next message (send an empty /image to analyse it alone).\n", pendingImage)
	}

	// Handle Ctrl+C
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		select {
		case <-interrupt:
			fmt.Println("\nInterrupted")
			return
		default:
			if !scanner.Scan() {
				return
			}

			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}

			var sendErr error
			switch {
			case input == "/quit":
				fmt.Println("Bye!")
				return
			case input == "/clear":
				sendErr = client.SendClear()
			case input == "/image" || strings.HasPrefix(input, "/image "):
				path, text, _ := strings.Cut(strings.TrimSpace(strings.TrimPrefix(input, "/image")), " ")
				if path == "" {
					path, pendingImage = pendingImage, ""
				}
				if path == "" {
					fmt.Println("usage: /image <path> [text]")
					continue
				}
				sendErr = client.SendChat(text, path)
			default:
				sendErr = client.SendChat(input, pendingImage)
				pendingImage = ""
			}

			if sendErr != nil {
				log.Printf("Send error: %v", sendErr)
				continue
			}
		}
	}
}
