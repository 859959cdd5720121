package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// result is the response envelope shared by the history endpoints.
type result struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

func (s *Server) writeResult(w http.ResponseWriter, status int, res result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.log.Debug("write history response", zap.Error(err))
	}
}

func (s *Server) ok(w http.ResponseWriter, data any) {
	s.writeResult(w, http.StatusOK, result{Code: http.StatusOK, Msg: "success", Data: data})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("history query failed", zap.String("path", r.URL.Path), zap.Error(err))
	s.writeResult(w, http.StatusInternalServerError, result{Code: http.StatusInternalServerError, Msg: err.Error()})
}

func (s *Server) handleDirectChatList(w http.ResponseWriter, r *http.Request) {
	list, err := s.history.DirectChatList(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, list)
}

func (s *Server) handleTeamChatList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.history.TeamChatList(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, rows)
}

func (s *Server) handleDirectHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	msgs, err := s.history.DirectHistory(r.Context(), vars["userId"], vars["receiverId"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, msgs)
}

func (s *Server) handleTeamHistory(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.history.GroupHistory(r.Context(), mux.Vars(r)["teamId"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, msgs)
}
