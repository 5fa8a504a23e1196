package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/cognitosense/cognitosense/internal/middleware"
	"github.com/cognitosense/cognitosense/internal/services"
	"github.com/cognitosense/cognitosense/internal/store"
)

type Router struct {
	store store.Store
	subs  *services.SubmissionService
	auth  *services.AuthService
}

func NewRouter(st store.Store) *Router {
	return &Router{
		store: st,
		subs:  services.NewSubmissionService(st),
		auth:  services.NewAuthService(st, middleware.SignToken),
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/questionnaire", rt.handleQuestionnaire) // POST
	mux.HandleFunc("/api/game", rt.handleGame)                   // POST
	mux.HandleFunc("/api/eye-tracking", rt.handleEyeTracking)    // POST
	mux.HandleFunc("/api/auth/register", rt.handleRegister)      // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)            // POST
	mux.Handle("/api/export", middleware.RequireAuth(http.HandlerFunc(rt.handleExport)))   // GET
	mux.Handle("/api/records/", middleware.RequireAuth(http.HandlerFunc(rt.handleRecord))) // GET /api/records/{userId}
}

// POST /api/questionnaire
// {userId, email, name, questionnaireResponse, totalScore?, targetClass?}
func (rt *Router) handleQuestionnaire(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		UserID      string         `json:"userId"`
		Email       string         `json:"email"`
		Name        string         `json:"name"`
		Answers     map[string]any `json:"questionnaireResponse"`
		TotalScore  *int           `json:"totalScore"`
		TargetClass *int           `json:"targetClass"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid JSON body"))
		return
	}
	if _, err := rt.subs.SaveQuestionnaire(services.QuestionnaireSubmission{
		UserID:      req.UserID,
		Email:       req.Email,
		Name:        req.Name,
		Answers:     req.Answers,
		TotalScore:  req.TotalScore,
		TargetClass: req.TargetClass,
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// POST /api/game — {userId, gameKey, gameResult}
func (rt *Router) handleGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		UserID     string          `json:"userId"`
		GameKey    string          `json:"gameKey"`
		GameResult json.RawMessage `json:"gameResult"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid JSON body"))
		return
	}
	if err := rt.subs.SaveGameResult(req.UserID, req.GameKey, req.GameResult); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// POST /api/eye-tracking — {userId, eyeTrackingResult}
func (rt *Router) handleEyeTracking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		UserID string          `json:"userId"`
		Result json.RawMessage `json:"eyeTrackingResult"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid JSON body"))
		return
	}
	if err := rt.subs.SaveEyeTracking(req.UserID, req.Result); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// POST /api/auth/register — {username, email, password}
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid JSON body"))
		return
	}
	res, err := rt.auth.Register(req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "user_id": res.UserID})
}

// POST /api/auth/login — {username, password}
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid JSON body"))
		return
	}
	res, err := rt.auth.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "user_id": res.UserID})
}

// GET /api/export — the full master file, as stored.
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	recs, err := rt.store.ListRecords()
	if err != nil {
		writeError(w, err)
		return
	}
	b, err := store.MarshalRecordsCSV(recs)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=cognito_sense_master.csv")
	_, _ = w.Write(b)
}

// GET /api/records/{userId}
func (rt *Router) handleRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/api/records/")
	if userID == "" || strings.Contains(userID, "/") {
		http.NotFound(w, r)
		return
	}
	rec, err := services.RecordOf(rt.store, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]any{"error": se.Message})
		return
	}
	log.Printf("api: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "server error"})
}
