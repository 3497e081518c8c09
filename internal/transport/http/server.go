package transporthttp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"flyercalbackend/internal/auth"
	"flyercalbackend/internal/config"
	"flyercalbackend/internal/flyer"
	"flyercalbackend/internal/ics"
)

// EventExtractor is the slice of the pipeline the transport layer needs.
type EventExtractor interface {
	Run(ctx context.Context, image flyer.FlyerImage) ([]flyer.CanonicalEvent, error)
}

type Server struct {
	pipeline EventExtractor
	auth     *auth.Authenticator
	scans    *auth.ScanCounter
	timeout  time.Duration
}

func NewServer(pipeline EventExtractor, cfg config.Config) *Server {
	return &Server{
		pipeline: pipeline,
		auth:     auth.New(cfg.JWTSecret, cfg.TokenTTL),
		scans:    auth.NewScanCounter(cfg.FreeScanLimit),
		timeout:  cfg.RequestTimeout,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.health)
	mux.HandleFunc("/auth/register", s.handleToken)
	mux.HandleFunc("/auth/login", s.handleToken)
	mux.HandleFunc("/extract-events", s.handleExtract)
	mux.HandleFunc("/events/calendar", s.handleCalendar)
	mux.HandleFunc("/events/calendar.zip", s.handleCalendarArchive)
	mux.HandleFunc("/events/grouped", s.handleGrouped)
	mux.HandleFunc("/subscribe", s.handleSubscribe)
	mux.HandleFunc("/user/profile", s.handleProfile)
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleToken covers both register and login: auth here is a stub that
// issues a free-tier token for any email; a production deployment would
// verify credentials against a user store first.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Email) == "" {
		s.writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	token, err := s.auth.Issue(strings.TrimSpace(payload.Email), auth.TierFree)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

var allowedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var payload struct {
		ImageBase64 string `json:"image_base64"`
		ImageType   string `json:"image_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	raw, err := base64.StdEncoding.DecodeString(payload.ImageBase64)
	if err != nil || len(raw) == 0 {
		s.writeError(w, http.StatusBadRequest, "image_base64 is not a decodable image")
		return
	}

	mediaType := payload.ImageType
	if !allowedMediaTypes[mediaType] {
		mediaType = http.DetectContentType(raw)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		s.writeError(w, http.StatusBadRequest, "payload is not a supported image")
		return
	}

	if allowed, message := s.scans.Allow(user); !allowed {
		s.writeError(w, http.StatusForbidden, message)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	started := time.Now()
	events, err := s.pipeline.Run(ctx, flyer.FlyerImage{MediaType: mediaType, Base64: payload.ImageBase64})
	if err != nil {
		// A malformed model response is an empty result, not a failure.
		if errors.Is(err, flyer.ErrNoPayload) || errors.Is(err, flyer.ErrMalformedPayload) {
			s.writeJSON(w, http.StatusOK, map[string]any{
				"events":          []flyer.CanonicalEvent{},
				"total_events":    0,
				"message":         err.Error(),
				"processing_time": time.Since(started).Seconds(),
			})
			return
		}
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"events":          events,
		"total_events":    len(events),
		"processing_time": time.Since(started).Seconds(),
	})
}

type eventsPayload struct {
	Events   []flyer.CanonicalEvent `json:"events"`
	BaseName string                 `json:"base_name"`
}

func (s *Server) decodeEvents(w http.ResponseWriter, r *http.Request) (eventsPayload, bool) {
	var payload eventsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid events payload")
		return eventsPayload{}, false
	}
	if payload.BaseName == "" {
		payload.BaseName = "flyer"
	}
	return payload, true
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	payload, ok := s.decodeEvents(w, r)
	if !ok {
		return
	}

	body, err := ics.BuildMany(payload.Events)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := ics.Slugify(payload.BaseName) + "-all-events.ics"
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleCalendarArchive(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	payload, ok := s.decodeEvents(w, r)
	if !ok {
		return
	}

	archive, err := ics.BuildArchive(payload.Events, payload.BaseName)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := ics.Slugify(payload.BaseName) + "-events.zip"
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (s *Server) handleGrouped(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	payload, ok := s.decodeEvents(w, r)
	if !ok {
		return
	}

	groups := flyer.GroupByDate(payload.Events)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"groups":       groups,
		"total_events": len(payload.Events),
	})
}

// handleSubscribe records a tier change. The payment provider is an
// external collaborator; the token itself is the only state we hold, so a
// successful subscription returns a refreshed token with the new tier.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var payload struct {
		Plan         string `json:"plan"`
		PaymentToken string `json:"payment_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	tier, err := auth.ParseTier(payload.Plan)
	if err != nil || tier == auth.TierFree {
		s.writeError(w, http.StatusBadRequest, "plan must be monthly, yearly, or lifetime")
		return
	}

	token, err := s.auth.Issue(user.Email, tier)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"message":           "Successfully subscribed to " + string(tier) + " plan",
		"subscription_tier": tier,
		"access_token":      token,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	scansRemaining := any("unlimited")
	if remaining := s.scans.Remaining(user); remaining >= 0 {
		scansRemaining = remaining
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"user_id":           user.Email,
		"subscription_tier": user.Tier,
		"scans_remaining":   scansRemaining,
	})
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (auth.User, bool) {
	token, err := auth.FromAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "invalid authentication")
		return auth.User{}, false
	}
	user, err := s.auth.Verify(token)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "invalid token")
		return auth.User{}, false
	}
	return user, true
}

func (s *Server) requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
