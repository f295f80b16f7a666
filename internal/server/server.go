package server

import (
	"context"
	"log"
	"time"

	"github.com/campuslink/campus-chat/internal/database"
	"github.com/campuslink/campus-chat/internal/stats"
)

const (
	metricConnectedClients  = "ConnectedClients"
	metricMessagesPersisted = "MessagesPersisted"
	metricMessagesDelivered = "MessagesDelivered"
	metricNotificationsSent = "NotificationsSent"
	metricBroadcastsSent    = "BroadcastsSent"

	presenceRefreshInterval = 30 * time.Second
)

// CampusServer owns the live side of the messaging core: the presence
// registry, the hub loop that binds and unbinds clients, and the
// broadcast channel. Durable state lives behind the repository.
type CampusServer struct {
	log            *log.Logger
	db             database.CampusChatRepository
	stats          stats.StatsProvider
	presence       *PresenceRegistry
	mirror         *RedisPresenceMirror
	RegisterChan   chan *Client
	deRegisterChan chan *Client
	broadcastChan  chan *ServerMessage
	stop           chan struct{}
	done           chan struct{}
}

func NewCampusServer(logger *log.Logger, db database.CampusChatRepository, sp stats.StatsProvider, mirror *RedisPresenceMirror) (*CampusServer, error) {
	cs := &CampusServer{
		log:            logger,
		db:             db,
		stats:          sp,
		presence:       NewPresenceRegistry(),
		mirror:         mirror,
		RegisterChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		broadcastChan:  make(chan *ServerMessage, 256),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}

	for _, name := range []string{
		metricConnectedClients,
		metricMessagesPersisted,
		metricMessagesDelivered,
		metricNotificationsSent,
		metricBroadcastsSent,
	} {
		sp.RegisterMetric(name)
	}

	return cs, nil
}

func (cs *CampusServer) Run() {
	refresh := time.NewTicker(presenceRefreshInterval)
	defer refresh.Stop()

	for {
		select {
		case client := <-cs.RegisterChan:
			cs.log.Printf("binding connection for user %q", client.user.Name)
			cs.presence.Bind(client.user.Id, client)
			cs.stats.Incr(metricConnectedClients)
			if cs.mirror != nil {
				cs.mirror.Bind(context.Background(), client.user.Id)
			}
		case client := <-cs.deRegisterChan:
			cs.log.Printf("unbinding connection for user %q", client.user.Name)
			cs.presence.Unbind(client)
			cs.stats.Decr(metricConnectedClients)
			if cs.mirror != nil && !cs.presence.Online(client.user.Id) {
				cs.mirror.Unbind(context.Background(), client.user.Id)
			}
		case msg := <-cs.broadcastChan:
			cs.deliverBroadcast(msg)
		case <-refresh.C:
			if cs.mirror != nil {
				cs.mirror.Refresh(context.Background(), cs.onlineUserIds())
			}
		case <-cs.stop:
			cs.log.Println("hub stopping")
			close(cs.done)
			return
		}
	}
}

func (cs *CampusServer) deliverBroadcast(msg *ServerMessage) {
	for _, client := range cs.presence.Clients() {
		client.queueMessage(msg)
	}
	cs.stats.Incr(metricBroadcastsSent)
}

func (cs *CampusServer) onlineUserIds() []int {
	clients := cs.presence.Clients()
	ids := make([]int, 0, len(clients))
	for _, c := range clients {
		ids = append(ids, c.user.Id)
	}
	return ids
}

// RegisterClient hands a freshly upgraded connection to the hub.
func (cs *CampusServer) RegisterClient(c *Client) {
	cs.RegisterChan <- c
}

// Online reports liveness for a user, consulting the shared mirror when
// one is configured so the answer holds across instances.
func (cs *CampusServer) Online(ctx context.Context, userId int) bool {
	if cs.presence.Online(userId) {
		return true
	}
	if cs.mirror != nil {
		online, err := cs.mirror.Online(ctx, userId)
		if err != nil {
			cs.log.Println("presence mirror lookup:", err)
			return false
		}
		return online
	}
	return false
}

// Broadcast queues a payload for delivery to every bound client. Loss on
// a full client buffer is acceptable: nothing durable travels this path.
func (cs *CampusServer) Broadcast(msg *ServerMessage) {
	select {
	case cs.broadcastChan <- msg:
	default:
		cs.log.Println("broadcast channel full, dropping payload")
	}
}

func (cs *CampusServer) BroadcastAnnouncement(title, body string) {
	cs.Broadcast(&ServerMessage{
		BaseMessage:  BaseMessage{Timestamp: Now()},
		Announcement: &Announcement{Title: title, Body: body},
	})
}

func (cs *CampusServer) BroadcastOrderStatus(payload []byte) {
	cs.Broadcast(&ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		OrderStatus: payload,
	})
}

func (cs *CampusServer) Shutdown(ctx context.Context) error {
	cs.log.Println("shutting down chat server")
	for _, c := range cs.presence.Clients() {
		c.stopClient()
	}

	close(cs.stop)

	select {
	case <-cs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
