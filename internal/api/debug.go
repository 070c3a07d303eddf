package api

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"hookloop/internal/buildinfo"
	"hookloop/internal/model"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(model.TimestampLayout),
		"config": map[string]any{
			"PORT":             os.Getenv("PORT"),
			"AUTH_MODE":        os.Getenv("AUTH_MODE"),
			"RATE_RPS":         os.Getenv("RATE_RPS"),
			"RATE_BURST":       os.Getenv("RATE_BURST"),
			"HAS_DATABASE_URL": os.Getenv("DATABASE_URL") != "",
			"HAS_REDIS_URL":    os.Getenv("REDIS_URL") != "",
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}
