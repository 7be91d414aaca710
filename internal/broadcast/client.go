package broadcast

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Station displays run on the shop LAN; origin is not checked.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	// ConnID identifies the connection for group membership and audit.
	ConnID string
}

// groupMessage is the membership protocol a display speaks after connecting.
type groupMessage struct {
	Type        string `json:"type"` // JOIN_WORKORDER, LEAVE_WORKORDER, JOIN_STATION
	WorkOrderID string `json:"workOrderId,omitempty"`
	Station     string `json:"station,omitempty"`
	MsgID       string `json:"msgId,omitempty"`
}

// readPump handles membership messages from the display until the connection
// drops.
func (c *Client) readPump() {
	defer func() {
		c.hub.Remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS error (%s): %v", c.ConnID, err)
			}
			break
		}

		var msg groupMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "JOIN_WORKORDER":
			if msg.WorkOrderID != "" {
				c.hub.Join(c, WorkOrderGroup(msg.WorkOrderID))
				c.ack(msg.MsgID, "joined")
			}
		case "LEAVE_WORKORDER":
			if msg.WorkOrderID != "" {
				c.hub.Leave(c, WorkOrderGroup(msg.WorkOrderID))
				c.ack(msg.MsgID, "left")
			}
		case "JOIN_STATION":
			if msg.Station != "" {
				c.hub.JoinStation(c, msg.Station)
				c.ack(msg.MsgID, "joined")
			}
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) ack(msgID, status string) {
	ack := map[string]string{
		"type":   "ACK",
		"msgId":  msgID,
		"status": status,
	}
	if msg, err := json.Marshal(ack); err == nil {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// NewClient builds an unconnected client for tests.
func NewClient(hub *Hub) *Client {
	return &Client{
		hub:    hub,
		send:   make(chan []byte, 256),
		ConnID: "test_" + uuid.New().String(),
	}
}

// Receive drains one pending message for tests, if any.
func (c *Client) Receive() ([]byte, bool) {
	select {
	case msg := <-c.send:
		return msg, true
	default:
		return nil, false
	}
}

// ServeWs upgrades an HTTP request to a websocket display connection.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}
	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		ConnID: "display_" + uuid.New().String(),
	}

	go client.writePump()
	go client.readPump()
}
