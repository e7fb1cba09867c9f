package billing

import (
	"fmt"
	"net/http"
	"time"

	"BillTrackerSaas/api"
	"BillTrackerSaas/internal/config"
	"BillTrackerSaas/internal/serviceiface"
)

type BillingService struct {
	config map[string]interface{}
	deps   Deps
	server *http.Server
}

func NewBillingService(cfg map[string]interface{}, deps Deps) serviceiface.Service {
	return &BillingService{config: cfg, deps: deps}
}

func (s *BillingService) Name() string {
	return "billing"
}

func (s *BillingService) Start() error {
	if dir := api.ConfigString(s.config, "upload_dir", ""); dir != "" && s.deps.UploadDir == "" {
		s.deps.UploadDir = dir
	}
	port := api.ConfigInt(s.config, "port", config.DefaultBillingPort)
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewRouter(s.deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go api.Serve("Billing Service", s.server)
	return nil
}

func (s *BillingService) Stop() error {
	return api.Shutdown(s.server)
}
