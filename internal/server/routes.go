package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes returns the application router.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(s.path, s.handleWebSocket).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/test", s.handleTestPage).Methods(http.MethodGet)

	r.HandleFunc("/getDirectChatList/{userId}", s.handleDirectChatList).Methods(http.MethodGet)
	r.HandleFunc("/getTeamChatList/{userId}", s.handleTeamChatList).Methods(http.MethodGet)
	r.HandleFunc("/getDirectChatHistory/{userId}/{receiverId}", s.handleDirectHistory).Methods(http.MethodGet)
	r.HandleFunc("/getTeamChatHistory/{teamId}", s.handleTeamHistory).Methods(http.MethodGet)
	return r
}
