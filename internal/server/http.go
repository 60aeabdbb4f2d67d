// internal/server/http.go
package server

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/mpetrov/whosaid/internal/room"
)

// HealthzHandler is a bare liveness probe.
func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// StatusHandler serves the room snapshot as JSON: membership count, phase
// and round number.
func StatusHandler(rm *room.Room) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rm.Snapshot()); err != nil {
			http.Error(w, "failed to encode status", http.StatusInternalServerError)
		}
	}
}

// QRHandler renders the public join URL as a PNG QR code for sharing.
func QRHandler(log *logrus.Logger, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		png, err := qrcode.Encode(publicURL, qrcode.Medium, 256)
		if err != nil {
			log.Warnf("qr encode failed: %v", err)
			http.Error(w, "failed to generate QR code", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}
}
