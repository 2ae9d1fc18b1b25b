package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"docugen/api/internal/export"
	"docugen/api/internal/genai"
	"docugen/api/internal/identity"
	"docugen/api/internal/model"
	"docugen/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
	log        zerolog.Logger
}

func NewHTTPServer(service *Service, corsOrigin string, log zerolog.Logger) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin, log: log}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}
		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{"status": "error", "error": err.Error()}
		}
		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Auth routes (no session required)
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signup" {
		s.handleAuthSignUp(w, r)
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signin" {
		s.handleAuthSignIn(w, r)
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/refresh" {
		s.handleAuthRefresh(w, r)
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signout" {
		_ = s.service.SignOut(r.Context(), bearerToken(r))
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/reset-password/request" {
		s.handleAuthRequestReset(w, r)
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/reset-password" {
		s.handleAuthResetPassword(w, r)
		return
	}
	if r.Method == http.MethodGet && r.URL.Path == "/api/auth/oauth-url" {
		provider := strings.TrimSpace(r.URL.Query().Get("provider"))
		if provider == "" {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "provider is required", nil)
			return
		}
		redirectTo := strings.TrimSpace(r.URL.Query().Get("redirectTo"))
		writeJSON(w, http.StatusOK, map[string]any{"url": s.service.OAuthAuthorizeURL(provider, redirectTo)})
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/callback" {
		s.handleAuthCallback(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "user": nil})
			return
		}
		user, err := s.service.Authenticate(r.Context(), token)
		if err != nil || user == nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "user": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "user": user})
		return
	}

	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/outline" {
		var body struct {
			Topic string `json:"topic"`
			Type  string `json:"type"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		result, err := s.service.SuggestOutline(r.Context(), body.Topic, model.DocType(body.Type))
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	if r.URL.Path == "/api/projects" {
		switch r.Method {
		case http.MethodGet:
			projects, err := s.service.ListProjects(r.Context(), user.ID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
			return
		case http.MethodPost:
			var body CreateProjectInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			project, err := s.service.CreateProject(r.Context(), user.ID, body)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, project)
			return
		}
	}

	// /api/projects/{id}[/...]
	parts := splitPath(r.URL.Path)
	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "projects" {
		projectID := parts[2]
		s.handleProject(w, r, *user, projectID, parts[3:])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleProject(w http.ResponseWriter, r *http.Request, user model.User, projectID string, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		project, err := s.service.GetProject(r.Context(), projectID, user.ID)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, project)
		return

	case len(rest) == 0 && r.Method == http.MethodPut:
		var body UpdateProjectInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		project, err := s.service.UpdateProject(r.Context(), projectID, user.ID, body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, project)
		return

	case len(rest) == 1 && rest[0] == "export" && r.Method == http.MethodGet:
		result, err := s.service.ExportProject(r.Context(), projectID, user.ID)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		w.Header().Set("Content-Type", result.MimeType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Data)
		return

	case len(rest) == 3 && rest[0] == "sections" && r.Method == http.MethodPost:
		sectionID := rest[1]
		switch rest[2] {
		case "generate":
			project, err := s.service.GenerateSection(r.Context(), projectID, sectionID, user.ID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, project)
			return
		case "refine":
			var body struct {
				Instruction string `json:"instruction"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			project, err := s.service.RefineSection(r.Context(), projectID, sectionID, user.ID, body.Instruction)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, project)
			return
		case "undo":
			project, err := s.service.UndoSection(r.Context(), projectID, sectionID, user.ID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, project)
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

// Auth handlers

func (s *HTTPServer) handleAuthSignUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := s.service.SignUp(r.Context(), body.Email, body.Password); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Please check your email to confirm your account",
	})
}

func (s *HTTPServer) handleAuthSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	session, err := s.service.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  session.AccessToken,
		"refreshToken": session.RefreshToken,
		"expiresIn":    session.ExpiresIn,
		"user":         session.User,
	})
}

func (s *HTTPServer) handleAuthRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	session, err := s.service.RefreshSession(r.Context(), body.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH_REFRESH_FAILED", "Refresh token invalid", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  session.AccessToken,
		"refreshToken": session.RefreshToken,
		"expiresIn":    session.ExpiresIn,
		"user":         session.User,
	})
}

func (s *HTTPServer) handleAuthRequestReset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	// The response is the same whether or not the account exists.
	_ = s.service.RequestPasswordReset(r.Context(), body.Email)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "If an account exists, a reset email has been sent",
	})
}

func (s *HTTPServer) handleAuthResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RecoveryToken string `json:"recoveryToken"`
		NewPassword   string `json:"newPassword"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := s.service.UpdatePasswordWithRecovery(r.Context(), body.RecoveryToken, body.NewPassword); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password reset successfully"})
}

// handleAuthCallback normalizes a provider redirect URL into its embedded
// session, covering both the OAuth return and the password-recovery link.
func (s *HTTPServer) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	session := identity.SessionFromCallback(body.URL)
	if session == nil {
		writeJSON(w, http.StatusOK, map[string]any{"session": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": map[string]any{
			"accessToken":  session.AccessToken,
			"refreshToken": session.RefreshToken,
			"recovery":     session.Recovery,
		},
	})
}

func (s *HTTPServer) requireUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return nil, false
	}
	user, err := s.service.Authenticate(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return nil, false
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return nil, false
	}
	return user, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		s.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", writer.status).
			Int64("duration_ms", time.Since(started).Milliseconds()).
			Msg("request")
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}

	var authErr *identity.AuthError
	if errors.As(err, &authErr) {
		message := authErr.Message
		if message == "" {
			message = "Authentication failed"
		}
		status := authErr.Status
		if status == 0 || status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		return status, "AUTH_FAILED", message, nil
	}

	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, store.ErrDuplicateID) {
		return http.StatusConflict, "STORE_DUPLICATE_ID", "A project with this id already exists", nil
	}
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		return http.StatusInternalServerError, "STORE_ERROR", "Storage operation failed", nil
	}

	if errors.Is(err, genai.ErrMissingAPIKey) {
		return http.StatusInternalServerError, "GENERATION_NOT_CONFIGURED", "Generation API key is not configured", nil
	}

	var exportErr *export.ExportError
	if errors.As(err, &exportErr) {
		return http.StatusInternalServerError, "EXPORT_FAILED", "Export failed", nil
	}
	if errors.Is(err, export.ErrUnsupportedType) {
		return http.StatusUnprocessableEntity, "EXPORT_UNSUPPORTED_TYPE", "Unsupported document type", nil
	}

	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
