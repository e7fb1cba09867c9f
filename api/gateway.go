package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"

	"BillTrackerSaas/api/auth"
	"BillTrackerSaas/api/constants"
	"BillTrackerSaas/internal/logger"
	"BillTrackerSaas/pkg/loadbalancer"

	"github.com/gorilla/mux"
)

// Global reference to AuthService (set from main or manager)
var (
	authService     *auth.AuthService
	authServiceOnce sync.Once
)

// SetAuthService allows wiring the AuthService from main/manager
func SetAuthService(svc *auth.AuthService) {
	authServiceOnce.Do(func() {
		authService = svc
	})
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	return r.RemoteAddr
}

func GetSessionsHandler(w http.ResponseWriter, r *http.Request) {
	if authService == nil {
		RespondWithError(w, http.StatusInternalServerError, "Auth service unavailable")
		return
	}
	RespondJSON(w, http.StatusOK, authService.GetActiveSessions())
}

// LoginHandler handles POST /auth/login
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
		return
	}
	if authService == nil {
		RespondWithError(w, http.StatusInternalServerError, "Auth service unavailable")
		return
	}
	session, err := authService.Login(r.Context(), req.Username, req.Password, extractClientIP(r))
	if err != nil {
		RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, session)
}

// LogoutHandler handles POST /auth/logout
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
		return
	}
	if authService == nil {
		RespondWithError(w, http.StatusInternalServerError, "Auth service unavailable")
		return
	}
	if err := authService.Logout(req.SessionID); err != nil {
		RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"message": "logout successful"})
}

// createReverseProxy returns a handler that proxies to the targets in
// round-robin order.
func createReverseProxy(targets []string) (http.HandlerFunc, error) {
	lb, err := loadbalancer.NewLoadBalancer(targets)
	if err != nil {
		return nil, err
	}
	proxies := make(map[string]*httputil.ReverseProxy, len(targets))
	for _, target := range targets {
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("bad proxy target %s: %w", target, err)
		}
		proxies[target] = httputil.NewSingleHostReverseProxy(u)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		target := lb.GetNextServer()
		logger.Audit("[Gateway] Incoming request: %s %s from %s", r.Method, r.URL.Path, extractClientIP(r))

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		proxies[target].ServeHTTP(rw, r)
		if rw.statusCode >= 400 {
			logger.Audit("[Gateway][ERROR] Proxied to %s for %s, status %d, error: %s", target, r.URL.Path, rw.statusCode, rw.body.String())
		} else {
			logger.Audit("[Gateway] Proxied to %s for %s, status %d", target, r.URL.Path, rw.statusCode)
		}
	}, nil
}

// responseWriter wraps http.ResponseWriter to capture status code and, for
// failed responses, the body
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.statusCode >= 400 && rw.body.Len() < 4096 {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

// NewGatewayRouter routes auth endpoints locally and proxies the billing
// prefixes across billingURLs.
func NewGatewayRouter(billingURLs []string, health func() map[string]string) (*mux.Router, error) {
	router := mux.NewRouter()

	router.HandleFunc("/auth/login", LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/auth/logout", LogoutHandler).Methods(http.MethodPost)
	router.HandleFunc("/get-sessions", GetSessionsHandler).Methods(http.MethodGet)

	proxy, err := createReverseProxy(billingURLs)
	if err != nil {
		return nil, err
	}
	router.PathPrefix("/bills/").Handler(proxy)
	router.PathPrefix("/vendors/").Handler(proxy)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{"status": "ok"}
		if health != nil {
			body["resources"] = health()
		}
		RespondJSON(w, http.StatusOK, body)
	}).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Audit("[Gateway] [Error] %s from %s (route not found)", r.URL.Path, r.RemoteAddr)
		RespondWithError(w, http.StatusNotFound, "404 - Route not found")
	})
	return router, nil
}
