package appmanager

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"BillTrackerSaas/api"
	"BillTrackerSaas/api/auth"
	"BillTrackerSaas/api/billing"
	"BillTrackerSaas/internal/checksum"
	"BillTrackerSaas/internal/config"
	"BillTrackerSaas/internal/jobs"
	"BillTrackerSaas/internal/logger"
	"BillTrackerSaas/internal/notification"
	"BillTrackerSaas/internal/resource"
	"BillTrackerSaas/internal/serviceiface"
	"BillTrackerSaas/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

var (
	pgxPool     *pgxpool.Pool
	redisClient *redis.Client
	resources   *resource.ResourceManager
)

func SetPgxPool(pool *pgxpool.Pool) {
	pgxPool = pool
}

// GetPgxPool returns the pgx pool connection
func GetPgxPool() *pgxpool.Pool {
	return pgxPool
}

// SetRedis wires the optional redis client used for the import lock. nil
// disables locking.
func SetRedis(client *redis.Client) {
	redisClient = client
}

// health reports the last heartbeat of the shared resources.
func health() map[string]string {
	if resources == nil {
		return map[string]string{}
	}
	return resources.Health()
}

// configInt reads a numeric service setting, 0 when absent.
func configInt(cfg map[string]interface{}, key string) int {
	return api.ConfigInt(cfg, key, 0)
}

var serviceConstructors = map[string]func(map[string]interface{}) serviceiface.Service{
	"logger": func(cfg map[string]interface{}) serviceiface.Service {
		return logger.NewLoggerService(cfg)
	},
	"resourcemanager": func(cfg map[string]interface{}) serviceiface.Service {
		rm := resource.NewResourceManagerService(cfg)
		if pgxPool != nil {
			rm.AddResource("db", pgxPool)
		}
		if redisClient != nil {
			rm.AddResource("redis", resource.RedisPinger{Client: redisClient})
		}
		resources = rm
		return rm
	},
	"auth": func(cfg map[string]interface{}) serviceiface.Service {
		sessionTimeout := time.Duration(configInt(cfg, "session_timeout")) * time.Minute
		cleanerPeriod := time.Duration(configInt(cfg, "session_cleaner_period")) * time.Second
		return auth.NewAuthService(auth.NewPgUserStore(pgxPool), configInt(cfg, "max_users"), sessionTimeout, cleanerPeriod)
	},
	"billing": func(cfg map[string]interface{}) serviceiface.Service {
		ttl := config.ImportLockTTL
		if s := api.ConfigString(cfg, "lock_ttl", ""); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				ttl = d
			}
		}
		historySize := api.ConfigInt(cfg, "history_size", config.ImportHistorySize)
		return billing.NewBillingService(cfg, billing.Deps{
			Bills:     store.NewPgBillStore(pgxPool),
			Vendors:   store.NewPgVendorStore(pgxPool),
			Masters:   store.NewPgMasterStore(pgxPool),
			Lock:      resource.NewRunLock(redisClient, config.ImportLockKey, ttl),
			Checksums: checksum.NewChecksumMatcher(historySize * 20),
			History:   notification.NewNotificationService(historySize),
			UploadDir: config.LoadEnv().UploadDir,
		})
	},
	"cron": func(cfg map[string]interface{}) serviceiface.Service {
		return jobs.NewCronService(cfg)
	},
	"gateway": func(cfg map[string]interface{}) serviceiface.Service {
		return api.NewGatewayService(cfg, health)
	},
}

// ------------------- MANAGER -------------------

type AppManager struct {
	services []serviceiface.Service
	mu       sync.Mutex
}

func NewAppManager() *AppManager {
	return &AppManager{
		services: make([]serviceiface.Service, 0),
	}
}

func (am *AppManager) RegisterService(s serviceiface.Service) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.services = append(am.services, s)
}

func (am *AppManager) StartAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()

	// First pass: start all except Resourcemanager
	for _, service := range am.services {
		if service.Name() == "resourcemanager" {
			continue
		}
		logger.Audit("Starting service: %s", service.Name())
		if err := service.Start(); err != nil {
			return fmt.Errorf("failed to start service %s: %w", service.Name(), err)
		}
	}

	// resourcemanager last, once every resource is registered
	for _, service := range am.services {
		if service.Name() == "resourcemanager" {
			logger.Audit("Starting service: %s", service.Name())
			if err := service.Start(); err != nil {
				return fmt.Errorf("failed to start service %s: %w", service.Name(), err)
			}
		}
	}
	return nil
}

func (am *AppManager) StopAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()
	for i := len(am.services) - 1; i >= 0; i-- {
		svc := am.services[i]
		if err := svc.Stop(); err != nil {
			return fmt.Errorf("failed to stop service %s: %w", svc.Name(), err)
		}
	}
	return nil
}

// ------------------- YAML CONFIG -------------------

type ServiceSequencer struct {
	Services []ServiceConfig `yaml:"services"`
}

type ServiceConfig struct {
	Name       string                 `yaml:"name"`
	StartOrder int                    `yaml:"start_order"`
	Config     map[string]interface{} `yaml:"config"`
}

func LoadServiceSequence(path string) ([]ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seq ServiceSequencer
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, err
	}

	// sort by start_order
	sort.SliceStable(seq.Services, func(i, j int) bool {
		return seq.Services[i].StartOrder < seq.Services[j].StartOrder
	})

	return seq.Services, nil
}

// AutoRegisterServices builds every known service in configs. Unknown names
// are reported and skipped.
func (am *AppManager) AutoRegisterServices(configs []ServiceConfig) {
	for _, svc := range configs {
		constructor, ok := serviceConstructors[svc.Name]
		if !ok {
			logger.L().WithField("service", svc.Name).Warn("unknown service in sequence, skipping")
			continue
		}
		service := constructor(svc.Config)
		am.RegisterService(service)
		switch s := service.(type) {
		case *logger.LoggerService:
			logger.SetGlobalLogger(s)
		case *auth.AuthService:
			api.SetAuthService(s)
			auth.SetGlobalAuthService(s)
		}
	}
}

func (am *AppManager) GetServiceByName(name string) serviceiface.Service {
	am.mu.Lock()
	defer am.mu.Unlock()
	for _, svc := range am.services {
		if svc.Name() == name {
			return svc
		}
	}
	return nil
}
