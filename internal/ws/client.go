package ws

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"linkup/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var errSendBufferFull = errors.New("send buffer full")

// Client adapts a gorilla websocket connection to the Conn interface. One
// Client exists per connected browser tab; every socket event for that user
// is multiplexed over it.
type Client struct {
	id          string
	userID      int // zero until user_connected
	authUserID  int // from the token at upgrade time
	ws          *websocket.Conn
	send        chan []byte
	done        chan struct{}
	once        sync.Once
	gateway     *Gateway
	connectedAt time.Time
	requestID   string
	traceID     string
	ip          string
}

func newClient(ws *websocket.Conn, gateway *Gateway) *Client {
	return &Client{
		id:      newConnID(),
		ws:      ws,
		send:    make(chan []byte, 256),
		done:    make(chan struct{}),
		gateway: gateway,
	}
}

// ID returns the opaque connection handle.
func (c *Client) ID() string { return c.id }

// SendEvent queues a tagged event for delivery. A full buffer drops the
// event and reports an error rather than blocking the caller.
func (c *Client) SendEvent(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(models.SocketEvent{Event: event, Data: payload})
	if err != nil {
		return err
	}
	select {
	case c.send <- raw:
		return nil
	case <-c.done:
		return websocket.ErrCloseSent
	default:
		return errSendBufferFull
	}
}

// Close tears down the transport. Safe to call more than once.
func (c *Client) Close() error {
	c.once.Do(func() { close(c.done) })
	return c.ws.Close()
}

func (c *Client) start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.gateway.disconnect(c)
		c.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("websocket read error conn=%s: %v", c.id, err)
			}
			return
		}
		c.gateway.dispatch(c, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
