package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/wordbattle-backend/internal/auth"
	"github.com/DoyleJ11/wordbattle-backend/internal/hub"
	"github.com/DoyleJ11/wordbattle-backend/internal/types"
)

type Options struct {
	OriginPatterns []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	OutboxSize     int
	// Inbound flood limit per connection.
	MessagesPerSecond float64
	Burst             int
	Logger            *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 60 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 3 * time.Second
	}
	if o.OutboxSize <= 0 {
		o.OutboxSize = 32
	}
	if o.MessagesPerSecond <= 0 {
		o.MessagesPerSecond = 20
	}
	if o.Burst <= 0 {
		o.Burst = 40
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Handler upgrades an authenticated request and pumps messages between the
// socket and the hub. The identity must already be in the request context.
func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	opts = opts.withDefaults()

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			opts.Logger.Debug("websocket accept", zap.Error(err))
			return
		}
		defer ws.Close(websocket.StatusNormalClosure, "bye")

		log := opts.Logger.With(zap.String("user_id", id.UserID))
		c := newConn(opts.OutboxSize)
		defer c.shut(0, "")

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go c.writeLoop(writeCtx, ws, opts.WriteTimeout)

		if !h.Send(hub.Connect{Identity: id, Conn: c}) {
			return
		}
		defer h.Send(hub.Disconnect{UserID: id.UserID, Conn: c})
		log.Info("client connected")

		limiter := rate.NewLimiter(rate.Limit(opts.MessagesPerSecond), opts.Burst)

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), opts.ReadTimeout)
			_, data, err := ws.Read(ctx)
			cancel()
			if err != nil {
				// Treat clean close/going-away as normal:
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					log.Info("client disconnected")
				default:
					log.Debug("read failed", zap.Error(err))
				}
				return
			}

			if !limiter.Allow() {
				c.Send(types.ErrorMessage("rate_limited", "too many messages"))
				continue
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				c.Send(types.ErrorMessage("bad_json", "bad json"))
				continue
			}

			if err := dispatch(h, id.UserID, c, cm); err != nil {
				c.Send(types.ErrorMessage(errorCode(err), err.Error()))
			}
		}
	}
}
