package session

import (
	"net/http"
	"time"

	"tailscale.com/tsweb"

	"github.com/banshee-data/stride.report/internal/geosource"
	"github.com/banshee-data/stride.report/internal/httputil"
)

type statusView struct {
	Status      string    `json:"status"`
	StartTime   time.Time `json:"start_time,omitzero"`
	ElapsedSec  float64   `json:"elapsed_s"`
	DistanceKm  float64   `json:"distance_km"`
	SpeedKmh    *float64  `json:"speed_kmh,omitempty"`
	MaxSpeedKmh float64   `json:"max_speed_kmh"`
	Steps       uint32    `json:"steps"`
	Calories    uint32    `json:"calories"`
	Fixes       int       `json:"fixes"`
	Rejected    int       `json:"rejected"`
	Discarded   int       `json:"discarded"`
	LastError   string    `json:"last_error,omitempty"`
}

// AttachAdminRoutes exposes the live session under /debug/session.
func (m *Machine) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.HandleFunc("session", "live tracking session", func(w http.ResponseWriter, r *http.Request) {
		if !httputil.AllowMethods(w, r, http.MethodGet) {
			return
		}
		s := m.Snapshot()
		v := statusView{
			Status:      s.Status.String(),
			StartTime:   s.StartTime,
			ElapsedSec:  s.Elapsed(m.clock.Now()).Seconds(),
			DistanceKm:  s.DistanceKm,
			SpeedKmh:    s.SpeedKmh,
			MaxSpeedKmh: s.MaxSpeedKmh,
			Steps:       s.Steps,
			Calories:    s.Calories,
			Fixes:       len(s.Fixes),
			Rejected:    s.Rejected,
			Discarded:   s.Discarded,
		}
		if s.LastError != nil {
			v.LastError = geosource.Describe(s.LastError)
		}
		httputil.WriteJSONOK(w, v)
	})
}
