// Package billing assembles the bill and vendor ingestion endpoints into one
// HTTP service.
package billing

import (
	"net/http"

	"BillTrackerSaas/api"
	"BillTrackerSaas/api/bills"
	"BillTrackerSaas/api/vendors"
	"BillTrackerSaas/internal/checksum"
	"BillTrackerSaas/internal/config"
	"BillTrackerSaas/internal/ingest/reference"
	"BillTrackerSaas/internal/logger"
	"BillTrackerSaas/internal/notification"
	"BillTrackerSaas/internal/resource"
	"BillTrackerSaas/internal/store"

	"github.com/gorilla/mux"
)

// Deps are the stores and shared infrastructure the endpoints run on.
type Deps struct {
	Bills     store.BillStore
	Vendors   store.VendorStore
	Masters   store.MasterStore
	Lock      *resource.RunLock
	Checksums *checksum.ChecksumMatcher
	History   *notification.NotificationService
	UploadDir string
	// Sessions overrides the session lookup; nil uses the auth service.
	Sessions api.SessionLookup
}

// NewRouter wires every billing route behind the session middleware.
func NewRouter(d Deps) *mux.Router {
	log := logger.L()
	if d.UploadDir == "" {
		d.UploadDir = config.DefaultUploadDir
	}
	if d.Checksums == nil {
		d.Checksums = checksum.NewChecksumMatcher(config.ImportHistorySize * 20)
	}
	if d.History == nil {
		d.History = notification.NewNotificationService(config.ImportHistorySize)
	}
	loader := &reference.Loader{Masters: d.Masters, Vendors: d.Vendors, Log: log}

	billHandler := &bills.Handler{
		Importer:  bills.NewImporter(d.Bills, loader, log),
		Patcher:   bills.NewPatcher(d.Bills, log),
		Lock:      d.Lock,
		Checksums: d.Checksums,
		History:   d.History,
		UploadDir: d.UploadDir,
		Log:       log,
	}
	vendorHandler := &vendors.Handler{
		Importer:  vendors.NewImporter(d.Vendors, loader, log),
		Updater:   vendors.NewUpdater(d.Vendors, loader, log),
		Checksums: d.Checksums,
		History:   d.History,
		UploadDir: d.UploadDir,
		Log:       log,
	}

	router := mux.NewRouter()
	router.HandleFunc("/bills/health", func(w http.ResponseWriter, r *http.Request) {
		api.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	secured := router.NewRoute().Subrouter()
	secured.Use(api.SessionMiddleware(d.Sessions))
	billHandler.Routes(secured)
	vendorHandler.Routes(secured)
	return router
}
