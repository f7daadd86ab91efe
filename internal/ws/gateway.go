package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"linkup/internal/middleware"
	"linkup/internal/observability"
	"linkup/internal/repositories"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Gateway upgrades websocket connections and multiplexes every socket event
// over them. One connection per client; all five live subsystems (presence,
// typing, message relay, call signaling, status fan-out) share it.
type Gateway struct {
	registry *Registry
	typing   *Tracker
	relay    *Relay
	broker   *Broker
	users    repositories.UserRepository
	messages repositories.MessageRepository
}

// NewGateway constructs a Gateway.
func NewGateway(registry *Registry, typing *Tracker, relay *Relay, broker *Broker, users repositories.UserRepository, messages repositories.MessageRepository) *Gateway {
	return &Gateway{
		registry: registry,
		typing:   typing,
		relay:    relay,
		broker:   broker,
		users:    users,
		messages: messages,
	}
}

// Handle authenticates, upgrades the connection and starts the client pumps.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("linkup/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := middleware.BearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	userID, err := g.users.UserIDForToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := newClient(conn, g)
	client.authUserID = userID
	client.connectedAt = time.Now()
	client.traceID = span.SpanContext().TraceID().String()
	client.requestID = observability.RequestIDFromRequest(c.Request)
	client.ip = observability.IPFromRequest(c.Request)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	g.publishLifecycle(ctx, client, "ws_connect", "")

	client.start()
}

// disconnect runs once when a client's read loop exits. Cleanup only applies
// when this connection still owns the user's registry entry: an evicted
// session disconnecting late must not tear down its replacement's state.
func (g *Gateway) disconnect(c *Client) {
	observability.DecWSActive()
	observability.IncWSEvent("ws_disconnect")
	g.publishLifecycle(context.Background(), c, "ws_disconnect", "")

	if c.userID == 0 {
		return
	}
	if g.registry.Unregister(context.Background(), c.userID, c) {
		g.typing.CancelAll(c.userID)
		g.broker.DropParticipant(c.userID)
	}
}

func (g *Gateway) publishLifecycle(ctx context.Context, c *Client, event, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     c.id,
			"duration_ms": time.Since(c.connectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id": c.authUserID,
			"ip":      c.ip,
		},
	}
	headers := observability.BuildHeaders(c.requestID, c.traceID)
	_ = observability.PublishEvent(ctx, "ws_events.socket", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, headers)
}
