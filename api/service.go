package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"BillTrackerSaas/internal/config"
	"BillTrackerSaas/internal/logger"
	"BillTrackerSaas/internal/serviceiface"
)

type GatewayService struct {
	config map[string]interface{}
	health func() map[string]string
	server *http.Server
}

// NewGatewayService reads "port" and "billing_url" (or a "billing_urls"
// list) from cfg.
func NewGatewayService(cfg map[string]interface{}, health func() map[string]string) serviceiface.Service {
	return &GatewayService{config: cfg, health: health}
}

func (s *GatewayService) Name() string {
	return "gateway"
}

func (s *GatewayService) Start() error {
	port := ConfigInt(s.config, "port", config.DefaultGatewayPort)
	billingURLs := ConfigStrings(s.config, "billing_urls")
	if len(billingURLs) == 0 {
		billingURLs = []string{ConfigString(s.config, "billing_url", fmt.Sprintf("http://localhost:%d", config.DefaultBillingPort))}
	}
	router, err := NewGatewayRouter(billingURLs, s.health)
	if err != nil {
		return err
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go Serve(s.Name(), s.server)
	return nil
}

func (s *GatewayService) Stop() error {
	return Shutdown(s.server)
}

// Serve runs srv until it is shut down.
func Serve(name string, srv *http.Server) {
	logger.Audit("%s started on %s", name, srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.L().WithError(err).Errorf("%s server failed", name)
	}
}

// Shutdown stops srv, waiting for in-flight requests.
func Shutdown(srv *http.Server) error {
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// ConfigInt reads an integer entry of a services.yaml config map.
func ConfigInt(cfg map[string]interface{}, key string, def int) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		var parsed int
		if _, err := fmt.Sscanf(v, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return def
}

// ConfigString reads a string entry of a services.yaml config map.
func ConfigString(cfg map[string]interface{}, key, def string) string {
	if v, ok := cfg[key].(string); ok && v != "" {
		return v
	}
	return def
}

// ConfigBool reads a boolean entry of a services.yaml config map.
func ConfigBool(cfg map[string]interface{}, key string, def bool) bool {
	if v, ok := cfg[key].(bool); ok {
		return v
	}
	return def
}

// ConfigStrings reads a string list entry of a services.yaml config map.
func ConfigStrings(cfg map[string]interface{}, key string) []string {
	var out []string
	switch v := cfg[key].(type) {
	case []string:
		out = append(out, v...)
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
