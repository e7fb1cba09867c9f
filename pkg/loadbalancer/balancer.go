package loadbalancer

import (
	"errors"
	"sync"
)

var ErrNoServers = errors.New("load balancer has no servers")

// LoadBalancer hands out upstream servers round-robin.
type LoadBalancer struct {
	servers []string
	mu      sync.Mutex
	current int
}

func NewLoadBalancer(servers []string) (*LoadBalancer, error) {
	if len(servers) == 0 {
		return nil, ErrNoServers
	}
	return &LoadBalancer{
		servers: append([]string(nil), servers...),
	}, nil
}

func (lb *LoadBalancer) GetNextServer() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	server := lb.servers[lb.current]
	lb.current = (lb.current + 1) % len(lb.servers)
	return server
}

// Servers returns the upstreams in rotation order.
func (lb *LoadBalancer) Servers() []string {
	return append([]string(nil), lb.servers...)
}
