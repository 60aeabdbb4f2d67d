// internal/server/ws.go
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/mpetrov/whosaid/internal/middleware"
	"github.com/mpetrov/whosaid/internal/protocol"
	"github.com/mpetrov/whosaid/internal/router"
)

const (
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// WSHandler upgrades connections and shuttles decoded events into the
// router. Each connection runs a read pump on the handler goroutine and a
// write pump goroutine draining the client's outbound channel.
func WSHandler(log *logrus.Logger, hub *Hub, rt *router.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			log.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.CloseNow()

		middleware.LogWebSocketConnect(log, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		cl := &client{out: make(chan any, 16)}
		go writePump(ctx, c, cl, log)

		readErr := readPump(ctx, c, cl, hub, rt, log)

		hub.remove(cl.id)
		rt.HandleDisconnect(cl.id)
		middleware.LogWebSocketDisconnect(log, r.RemoteAddr, r.URL.Path, readErr)
	}
}

// readPump decodes inbound frames until the connection closes. Malformed
// payloads are logged and dropped; the connection stays open. The first
// accepted event must be a join, which binds the connection to a
// participant id.
func readPump(ctx context.Context, c *websocket.Conn, cl *client, hub *Hub, rt *router.Router, log *logrus.Logger) error {
	limiter := rate.NewLimiter(rate.Every(50*time.Millisecond), 20)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}

		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			log.WithField("player", cl.id).Warn("ignoring non-text frame")
			continue
		}

		ev, err := protocol.DecodeClientEvent(data)
		if err != nil {
			log.WithField("player", cl.id).Warnf("dropping undecodable event: %v", err)
			continue
		}

		if cl.id == uuid.Nil {
			join, ok := ev.(protocol.Join)
			if !ok {
				cl.write(protocol.NewError("join the room first"), log)
				continue
			}
			p, err := rt.Join(join.Name)
			if err != nil {
				cl.write(protocol.NewError(err.Error()), log)
				continue
			}
			cl.id = p.ID
			hub.add(cl)
			rt.AnnounceJoin(p)
			continue
		}

		rt.Dispatch(cl.id, ev)
	}
}

// writePump serializes the client's outbound channel onto the wire and
// keeps the connection alive with periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, cl *client, log *logrus.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-cl.out:
			if !ok {
				return
			}
			data, err := json.Marshal(payload)
			if err != nil {
				log.WithField("player", cl.id).Warnf("failed to marshal outbound payload: %v", err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.WithField("player", cl.id).Warnf("websocket write failed: %v", err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				log.WithField("player", cl.id).Warnf("ping failed, assuming disconnect: %v", err)
				return
			}
		}
	}
}
