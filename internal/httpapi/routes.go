package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/wordbattle-backend/internal/auth"
	"github.com/DoyleJ11/wordbattle-backend/internal/hub"
	"github.com/DoyleJ11/wordbattle-backend/internal/ws"
)

type Deps struct {
	Hub      *hub.Hub
	Records  Records
	Verifier auth.Verifier
	WS       ws.Options
	Logger   *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthz", Healthz(d.Records))
	r.Get("/battles/{id}", GetBattle(d.Hub, d.Records, d.Logger))
	r.Get("/users/{id}/stats", GetUserStats(d.Records, d.Logger))
	r.Get("/stats", GetHubStats(d.Hub))

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(d.Verifier, d.Logger))
		r.Get("/ws", ws.Handler(d.Hub, d.WS))
	})
	return r
}
