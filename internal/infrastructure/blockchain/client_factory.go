package blockchain

import (
	"fmt"
	"sync"
)

// ClientFactory caches one EVMClient per RPC URL so the indexer dials
// each chain's RPC endpoint once, even if multiple components (scanner,
// initiator) are wired to the same chain.
type ClientFactory struct {
	clients map[string]*EVMClient
	mu      sync.RWMutex
}

func NewClientFactory() *ClientFactory {
	return &ClientFactory{clients: make(map[string]*EVMClient)}
}

// GetEVMClient returns the cached client for rpcURL, dialing and caching
// a new one on first use.
func (f *ClientFactory) GetEVMClient(rpcURL string) (*EVMClient, error) {
	f.mu.RLock()
	client, ok := f.clients[rpcURL]
	f.mu.RUnlock()
	if ok {
		return client, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[rpcURL]; ok {
		return client, nil
	}

	newClient, err := NewEVMClient(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create EVM client: %w", err)
	}

	f.clients[rpcURL] = newClient
	return newClient, nil
}

// RegisterEVMClient injects/overrides the cached client for a specific
// rpcURL. Useful for deterministic unit tests.
func (f *ClientFactory) RegisterEVMClient(rpcURL string, client *EVMClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[rpcURL] = client
}
