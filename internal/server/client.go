package server

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/campuslink/campus-chat/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one live socket bound to a user. Outbound delivery goes
// through the buffered send channel; a full buffer drops the push rather
// than blocking the router.
type Client struct {
	conn       *websocket.Conn
	campusServ *CampusServer
	log        *log.Logger
	user       types.User
	send       chan *ServerMessage
	stop       chan struct{}
}

func NewClient(user types.User, conn *websocket.Conn, cs *CampusServer, l *log.Logger) *Client {
	return &Client{
		conn:       conn,
		campusServ: cs,
		log:        l,
		user:       user,
		send:       make(chan *ServerMessage, 256),
		stop:       make(chan struct{}),
	}
}

func (c *Client) User() types.User {
	return c.user
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueMessage(ErrInvalidMessage(-1))
			continue
		}

		c.handleMessage(&msg)
	}
}

func (c *Client) handleMessage(msg *ClientMessage) {
	ctx := context.Background()

	switch {
	case msg.Send != nil:
		sent, err := c.campusServ.SendMessage(ctx, c.user.Id, msg.Send.ConversationId, msg.Send.Content)
		if err != nil {
			c.log.Printf("send from user %d: %v", c.user.Id, err)
			c.queueMessage(ResponseForError(msg.Id, err))
			return
		}

		// sent-confirmation echo back to the sender's own channel
		c.queueMessage(NoErrOK(msg.Id, map[string]any{"message": sent}))
	case msg.Typing != nil:
		// ephemeral; failures are not reported to the sender
		if err := c.campusServ.SendTyping(ctx, c.user.Id, msg.Typing.ConversationId, msg.Typing.IsTyping); err != nil {
			c.log.Printf("typing from user %d: %v", c.user.Id, err)
		}
	case msg.Notify != nil:
		notif := types.Notification{
			RecipientId: msg.Notify.RecipientId,
			SenderId:    c.user.Id,
			Title:       msg.Notify.Title,
			Body:        msg.Notify.Body,
			Type:        msg.Notify.Type,
			Link:        msg.Notify.Link,
		}
		if _, err := c.campusServ.Notify(ctx, notif); err != nil {
			c.log.Printf("notify from user %d: %v", c.user.Id, err)
			c.queueMessage(ResponseForError(msg.Id, err))
			return
		}

		c.queueMessage(NoErrOK(msg.Id, nil))
	case msg.OrderUpdate != nil:
		c.campusServ.BroadcastOrderStatus(msg.OrderUpdate.Payload)
	default:
		c.queueMessage(ErrInvalidMessage(msg.Id))
	}
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Printf("send buffer full for user %d, dropping message", c.user.Id)
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
}

func (c *Client) cleanup() {
	select {
	case c.campusServ.deRegisterChan <- c:
	case <-c.campusServ.done:
		// hub already stopped; nothing left to unbind from
	}
	c.stopClient()
}
