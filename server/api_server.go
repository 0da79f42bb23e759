package server

import (
	"expvar"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/slp-responder/slp-responder/status"
)

// ApiServer exposes an admin-facing HTTP surface alongside the Minecraft
// listener: metrics, expvar, a liveness probe, and a read-only view of the
// status card currently being served.
type ApiServer struct {
	store *status.Store
}

func NewApiServer(store *status.Store) *ApiServer {
	return &ApiServer{store: store}
}

// Start binds apiBinding and serves routes in a background goroutine.
func (a *ApiServer) Start(apiBinding string) {
	logrus.WithField("binding", apiBinding).Info("Serving API requests")

	router := mux.NewRouter()
	router.Path("/vars").Handler(expvar.Handler())
	router.Path("/metrics").Handler(promhttp.Handler())
	router.Path("/healthz").Methods(http.MethodGet).HandlerFunc(a.healthzHandler)
	router.Path("/status").Methods(http.MethodGet).HandlerFunc(a.statusHandler)

	go func() {
		logrus.WithError(
			http.ListenAndServe(apiBinding, router)).Error("API server failed")
	}()
}

func (a *ApiServer) healthzHandler(writer http.ResponseWriter, _ *http.Request) {
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write([]byte("ok"))
}

func (a *ApiServer) statusHandler(writer http.ResponseWriter, _ *http.Request) {
	snap := a.store.Current()
	writer.Header().Set("Content-Type", "application/json")
	_, err := writer.Write([]byte(snap.StatusJSON))
	if err != nil {
		logrus.WithError(err).Error("Failed to write status response")
	}
}
