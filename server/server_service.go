package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"github.com/arcana-network/roastnode/config"
	"github.com/arcana-network/roastnode/coordinator"
	"github.com/arcana-network/roastnode/server/rpc"
)

// ServerService binds the coordinator to its wire surface: the JSON-RPC
// request endpoint, the per-session websocket event stream and the metrics
// endpoint.
type ServerService struct {
	core   *coordinator.Coordinator
	server *http.Server
}

func New(core *coordinator.Coordinator) *ServerService {
	return &ServerService{core: core}
}

func (s *ServerService) ID() string {
	return "server"
}

func (s *ServerService) Start() error {
	router, err := setUpRouter(s.core)
	if err != nil {
		return err
	}
	s.server = &http.Server{
		Addr:    config.GlobalConfig.ListenAddress,
		Handler: router,
	}
	go startServer(s.server)
	return nil
}

func startServer(server *http.Server) {
	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal()
	}
}

func (s *ServerService) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func setUpRouter(core *coordinator.Coordinator) (http.Handler, error) {
	mr, err := rpc.SetUpJRPCHandler(core)
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter().StrictSlash(true)
	router.Handle("/rpc", mr)
	router.HandleFunc("/events", eventStreamHandler(core))
	router.Handle("/metrics", promhttp.Handler())

	router.Use(parseBodyMiddleware)
	router.Use(augmentRequestMiddleware)
	router.Use(loggingMiddleware)

	return cors.Default().Handler(router), nil
}
