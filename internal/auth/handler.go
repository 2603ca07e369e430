package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"fivem-dashboard/internal/observability"
)

const (
	maxJSONBodyBytes = 1 << 20

	// SessionCookieName carries the opaque session token; an
	// Authorization bearer header is accepted as an alternative.
	SessionCookieName = "dashboard_session"
)

type Handler struct {
	service      *Service
	cookieSecure bool
	sessionTTL   time.Duration
}

func NewHandler(service *Service, cookieSecure bool, sessionTTL time.Duration) *Handler {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}

	return &Handler{service: service, cookieSecure: cookieSecure, sessionTTL: sessionTTL}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	SecurityCode    string `json:"securityCode"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON input")
		return
	}

	account, token, err := h.service.Login(r.Context(), body.Username, body.Password, requestMeta(r))
	if err != nil {
		h.writeFlowError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"user":    account.Public(),
		"token":   token,
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body registerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON input")
		return
	}

	for field, value := range map[string]string{
		"Username":        body.Username,
		"Password":        body.Password,
		"ConfirmPassword": body.ConfirmPassword,
		"Name":            body.Name,
		"Email":           body.Email,
		"SecurityCode":    body.SecurityCode,
	} {
		if strings.TrimSpace(value) == "" {
			flowErr := MissingFieldError(field)
			writeError(w, flowErr.Status, flowErr.Code, flowErr.Message)
			return
		}
	}

	account, token, err := h.service.Register(r.Context(), RegisterParams{
		Username:        body.Username,
		Password:        body.Password,
		ConfirmPassword: body.ConfirmPassword,
		Name:            body.Name,
		Email:           body.Email,
		SecurityCode:    body.SecurityCode,
	}, requestMeta(r))
	if err != nil {
		h.writeFlowError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Registration successful",
		"user":    account.Public(),
		"token":   token,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := SessionToken(r)
	if err := h.service.Logout(r.Context(), token, requestMeta(r)); err != nil {
		h.writeFlowError(w, err)
		return
	}

	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}

// Check reports the authentication state of the presented session. The
// backing account is re-validated on every call.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	token := SessionToken(r)
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": false,
			"message":       "Not authenticated",
		})
		return
	}

	account, _, err := h.service.Authenticate(r.Context(), token)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			h.clearSessionCookie(w)
			writeJSON(w, http.StatusOK, map[string]any{
				"authenticated": false,
				"message":       "User account not found or inactive",
			})
			return
		}

		sentry.CaptureException(err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"authenticated": false,
			"error":         "Internal server error",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          account.Public(),
	})
}

func (h *Handler) writeFlowError(w http.ResponseWriter, err error) {
	var flowErr *FlowError
	if errors.As(err, &flowErr) {
		writeError(w, flowErr.Status, flowErr.Code, flowErr.Message)
		return
	}

	sentry.CaptureException(err)
	writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionToken extracts the opaque token from the session cookie or an
// Authorization bearer header.
func SessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}

	return ""
}

func requestMeta(r *http.Request) RequestMeta {
	return RequestMeta{
		IPAddress: observability.ClientIP(r),
		UserAgent: r.UserAgent(),
		Endpoint:  r.URL.Path,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"code":    code,
		"message": message,
	})
}
