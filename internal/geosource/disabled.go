package geosource

import (
	"context"
	"net/http"

	"github.com/banshee-data/stride.report/internal/geo"
)

// DisabledSource stands in when no receiver is configured or the receiver
// could not be opened. Sessions started against it fail with
// ErrUnsupported, while the rest of the daemon keeps running.
type DisabledSource struct {
	// Reason, if set, is wrapped into the returned errors.
	Reason error
}

func (d DisabledSource) err() error {
	if d.Reason != nil {
		return d.Reason
	}
	return ErrUnsupported
}

func (d DisabledSource) Available(context.Context) error { return d.err() }

func (d DisabledSource) Subscribe(func(geo.Fix), func(error)) (Handle, error) {
	return "", d.err()
}

func (DisabledSource) Unsubscribe(Handle) {}

func (d DisabledSource) AttachAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/geosource-disabled", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("geo source disabled: " + d.err().Error()))
	})
}
