// Package api exposes the webhook HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Moodle forum event names delivered by the webhook plugin.
const (
	eventPostCreated       = `\mod_forum\event\post_created`
	eventDiscussionCreated = `\mod_forum\event\discussion_created`
)

// Responder runs the response pipeline for one discussion event.
type Responder interface {
	HandleDiscussion(ctx context.Context, discussionID, courseID int64) error
}

// Server handles webhook deliveries. Each recognized event is handed to a
// background task and acknowledged immediately; the caller never waits on
// the pipeline and never sees its outcome.
type Server struct {
	responder Responder
	logger    *log.Logger
	handler   http.Handler
}

type statusResponse struct {
	Status string `json:"status"`
}

// flexID decodes a numeric id that the webhook plugin may deliver either as
// a JSON number or as a quoted string.
type flexID int64

func (f *flexID) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", raw, err)
	}
	*f = flexID(value)
	return nil
}

type webhookEvent struct {
	EventName string `json:"eventname"`
	CourseID  flexID `json:"courseid"`
	ObjectID  flexID `json:"objectid"`
	Other     struct {
		DiscussionID flexID `json:"discussionid"`
	} `json:"other"`
}

// New constructs the webhook server around the given responder.
func New(responder Responder, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{responder: responder, logger: logger}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/webhook", s.handleWebhook)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, statusResponse{Status: "ok"})
}

// handleWebhook always acknowledges with {"status":"ok"}: failures of the
// background pipeline are observable only in the logs, never by the caller.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var event webhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.logger.Printf("webhook: undecodable payload: %v", err)
		s.writeJSON(w, statusResponse{Status: "ok"})
		return
	}

	switch event.EventName {
	case eventPostCreated:
		s.dispatch(int64(event.Other.DiscussionID), int64(event.CourseID))
	case eventDiscussionCreated:
		s.dispatch(int64(event.ObjectID), int64(event.CourseID))
	default:
		s.logger.Printf("webhook: ignoring event %q", event.EventName)
	}

	s.writeJSON(w, statusResponse{Status: "ok"})
}

// dispatch schedules the pipeline for one discussion event. The task runs on
// a detached context: its lifetime is independent of the webhook request.
func (s *Server) dispatch(discussionID, courseID int64) {
	if discussionID == 0 || courseID == 0 {
		s.logger.Printf("webhook: event missing discussion or course id, ignoring")
		return
	}

	taskID := uuid.NewString()[:8]
	s.logger.Printf("task %s: scheduled for discussion %d in course %d", taskID, discussionID, courseID)

	go func() {
		if err := s.responder.HandleDiscussion(context.Background(), discussionID, courseID); err != nil {
			s.logger.Printf("task %s: %v", taskID, err)
			return
		}
		s.logger.Printf("task %s: done", taskID)
	}()
}

func (s *Server) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("write response: %v", err)
	}
}
