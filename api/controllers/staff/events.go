package staff

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/angelmondragon/buttery-backend/api/responses"
	"github.com/angelmondragon/buttery-backend/internal/livefeed"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
)

const (
	writeWait    = 10 * time.Second
	maxReadBytes = 512
)

type feedSubscriber interface {
	Subscribe(ctx context.Context) (livefeed.Feed, error)
}

// EventsParams configures the staff live socket.
type EventsParams struct {
	Subscriber feedSubscriber
	Heartbeat  time.Duration
	// Origins allowed to open the socket. Same-host requests are always allowed.
	Origins []string
	Logger  *logger.Logger
}

// Events relays live feed messages to a staff dashboard over a WebSocket. The client only
// receives; anything it sends is discarded.
func Events(params EventsParams) http.HandlerFunc {
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(params.Origins),
	}
	heartbeat := params.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if params.Subscriber == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "live feed unavailable"))
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		feed, err := params.Subscriber.Subscribe(ctx)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe to live feed"))
			return
		}
		defer feed.Close()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "live.upgrade_failed")
			return
		}
		defer conn.Close()
		logg.Info(ctx, "live.connected")

		go discardReads(conn, cancel)

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case payload, ok := <-feed.Messages():
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"),
						time.Now().Add(writeWait))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "live.write_failed")
					return
				}
			}
		}
	}
}

// discardReads keeps control frames flowing and ends the session when the client goes away.
func discardReads(conn *websocket.Conn, done context.CancelFunc) {
	defer done()
	conn.SetReadLimit(maxReadBytes)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := allowed[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
