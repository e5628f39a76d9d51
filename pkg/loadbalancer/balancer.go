package loadbalancer

import (
	"net/http"
	"sync"
)

// LoadBalancer hands out backend base URLs round-robin. The gateway uses one
// per proxied service so several debt instances can share upload traffic.
type LoadBalancer struct {
	servers []string
	mu      sync.Mutex
	current int
}

func NewLoadBalancer(servers []string) *LoadBalancer {
	return &LoadBalancer{servers: servers}
}

// GetNextServer returns the next backend in rotation. Empty balancer returns
// an empty string.
func (lb *LoadBalancer) GetNextServer() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if len(lb.servers) == 0 {
		return ""
	}
	server := lb.servers[lb.current]
	lb.current = (lb.current + 1) % len(lb.servers)
	return server
}

// ServeHTTP redirects the client to the next backend instead of proxying.
func (lb *LoadBalancer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	server := lb.GetNextServer()
	if server == "" {
		http.Error(w, "no backends configured", http.StatusServiceUnavailable)
		return
	}
	http.Redirect(w, r, server+r.RequestURI, http.StatusTemporaryRedirect)
}
