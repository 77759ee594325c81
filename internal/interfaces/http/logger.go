package httpinterface

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger logs every control request at debug level. The events
// route is logged before being served since the response writer is
// hijacked by the websocket upgrade.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Upgrade") != "" {
			log.Debugf("%s %s (upgrade)", req.Method, req.URL.Path)
			next.ServeHTTP(w, req)
			return
		}

		start := time.Now()
		rec := &statusRecorder{w, http.StatusOK}
		next.ServeHTTP(rec, req)

		log.WithFields(log.Fields{
			"status":  rec.status,
			"elapsed": time.Since(start),
		}).Debugf("%s %s", req.Method, req.URL.Path)
	})
}
