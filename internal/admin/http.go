package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Stats is the subset of process state the admin HTTP surface exposes,
// supplied by the caller (cmd/worldserver) rather than read directly off
// the tick loop, keeping this package free of a dependency on
// internal/tick or internal/net.
type Stats interface {
	OnlineCount() int
	TickCount() uint64
}

// Router builds the admin HTTP surface (spec.md's DOMAIN STACK admin/
// economy surface): health check, process stats, and a kick endpoint for
// staff tooling. chi + cors middleware wiring is grounded on
// iamvalenciia-kick-game-stream/fight-club-go/internal/api/router.go —
// the pack's only chi-based HTTP server.
func Router(ledger *Ledger, stats Stats, kick func(accountID int32, reason string) error, usurp func(staffCharID, targetCharID int32) error, runGM func(ctx context.Context, charID, accountID int32, text string) ([]string, error), log *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{
			"online": stats.OnlineCount(),
			"tick":   stats.TickCount(),
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/kick", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				AccountID int32  `json:"account_id"`
				Reason    string `json:"reason"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			if err := kick(body.AccountID, body.Reason); err != nil {
				log.Error("admin kick failed", zap.Int32("account", body.AccountID), zap.Error(err))
				http.Error(w, "kick failed", http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
		})

		r.Post("/usurp", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				StaffCharID  int32 `json:"staff_char_id"`
				TargetCharID int32 `json:"target_char_id"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			if err := usurp(body.StaffCharID, body.TargetCharID); err != nil {
				log.Error("admin usurp failed", zap.Int32("staff", body.StaffCharID), zap.Int32("target", body.TargetCharID), zap.Error(err))
				http.Error(w, "usurp failed", http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
		})

		r.Post("/gm", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				CharID    int32  `json:"char_id"`
				AccountID int32  `json:"account_id"`
				Text      string `json:"text"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
			defer cancel()
			lines, err := runGM(ctx, body.CharID, body.AccountID, body.Text)
			if err != nil {
				log.Error("admin gm command failed", zap.Int32("char", body.CharID), zap.Error(err))
				http.Error(w, "gm command failed", http.StatusInternalServerError)
				return
			}
			writeJSON(w, map[string]any{"lines": lines})
		})

		r.Get("/ledger/{accountID}", func(w http.ResponseWriter, req *http.Request) {
			accountID, ok := pathInt32(chi.URLParam(req, "accountID"))
			if !ok {
				http.Error(w, "bad account id", http.StatusBadRequest)
				return
			}
			ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
			defer cancel()
			entries, err := ledger.EntriesForAccount(ctx, accountID, 100)
			if err != nil {
				log.Error("ledger lookup failed", zap.Error(err))
				http.Error(w, "lookup failed", http.StatusInternalServerError)
				return
			}
			writeJSON(w, entries)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func pathInt32(s string) (int32, bool) {
	var n int32
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int32(c-'0')
	}
	return n, true
}
