package resource

import (
	"context"
	"sort"
	"sync"
	"time"

	"BillTrackerSaas/internal/logger"
	"BillTrackerSaas/internal/serviceiface"

	"github.com/sirupsen/logrus"
)

// Pinger is a shared resource whose liveness the heartbeat checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type ResourceManager struct {
	resources         map[string]interface{}
	health            map[string]string
	mu                sync.RWMutex
	stopChan          chan struct{}
	stopOnce          sync.Once
	heartbeatInterval time.Duration
	pingTimeout       time.Duration
}

var _ serviceiface.Service = (*ResourceManager)(nil)

func NewResourceManagerService(cfg map[string]interface{}) *ResourceManager {
	interval := 30 * time.Second
	if val, ok := cfg["heartbeat_interval"]; ok {
		switch v := val.(type) {
		case string:
			if d, err := time.ParseDuration(v); err == nil {
				interval = d
			}
		case int:
			interval = time.Duration(v) * time.Second
		case float64:
			interval = time.Duration(v) * time.Second
		}
	}
	return &ResourceManager{
		resources:         make(map[string]interface{}),
		health:            make(map[string]string),
		stopChan:          make(chan struct{}),
		heartbeatInterval: interval,
		pingTimeout:       3 * time.Second,
	}
}

func (rm *ResourceManager) Name() string { return "resourcemanager" }

func (rm *ResourceManager) Start() error {
	logger.Audit("ResourceManager started with %d resource(s)", len(rm.ListResources()))
	rm.Heartbeat()
	go rm.heartbeatLoop()
	return nil
}

func (rm *ResourceManager) Stop() error {
	rm.stopOnce.Do(func() { close(rm.stopChan) })
	return nil
}

func (rm *ResourceManager) heartbeatLoop() {
	ticker := time.NewTicker(rm.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rm.stopChan:
			return
		case <-ticker.C:
			rm.Heartbeat()
		}
	}
}

// Heartbeat pings every Pinger resource once and records its status.
func (rm *ResourceManager) Heartbeat() map[string]string {
	rm.mu.RLock()
	pingers := make(map[string]Pinger)
	for key, r := range rm.resources {
		if p, ok := r.(Pinger); ok {
			pingers[key] = p
		}
	}
	rm.mu.RUnlock()

	status := make(map[string]string, len(pingers))
	for key, p := range pingers {
		ctx, cancel := context.WithTimeout(context.Background(), rm.pingTimeout)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			status[key] = err.Error()
			logger.L().WithFields(logrus.Fields{"resource": key}).WithError(err).Warn("heartbeat failed")
			continue
		}
		status[key] = "ok"
	}

	rm.mu.Lock()
	for key, s := range status {
		rm.health[key] = s
	}
	rm.mu.Unlock()
	return status
}

// Health returns the last heartbeat status per resource.
func (rm *ResourceManager) Health() map[string]string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	out := make(map[string]string, len(rm.health))
	for k, v := range rm.health {
		out[k] = v
	}
	return out
}

func (rm *ResourceManager) AddResource(key string, resource interface{}) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.resources[key] = resource
}

func (rm *ResourceManager) GetResource(key string) (interface{}, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	resource, exists := rm.resources[key]
	return resource, exists
}

func (rm *ResourceManager) RemoveResource(key string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.resources, key)
	delete(rm.health, key)
}

func (rm *ResourceManager) ListResources() []string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	keys := make([]string, 0, len(rm.resources))
	for key := range rm.resources {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
