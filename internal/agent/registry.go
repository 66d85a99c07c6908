package agent

import (
	"errors"
	"sync"
)

// ErrUnknownCall means no active agent exists for the given call ID.
var ErrUnknownCall = errors.New("agent: unknown call")

// Registry tracks the active Agent for each in-flight call. It is shared by
// all transport goroutines and safe for concurrent use; the per-call Agents
// themselves are driven serially.
type Registry struct {
	cfg Config

	mu     sync.Mutex
	agents map[string]*Agent
}

// NewRegistry builds a Registry whose agents share the given collaborators.
func NewRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg, agents: make(map[string]*Agent)}
}

// Start creates the Agent for a new call. Starting the same call ID twice
// returns the existing agent, so a reconnecting transport does not lose state.
func (r *Registry) Start(callID string) *Agent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.agents[callID]; ok {
		return a
	}
	a := New(callID, r.cfg)
	r.agents[callID] = a
	return a
}

// Get returns the active agent for a call.
func (r *Registry) Get(callID string) (*Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[callID]
	if !ok {
		return nil, ErrUnknownCall
	}
	return a, nil
}

// Remove drops the agent once its call has ended.
func (r *Registry) Remove(callID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.agents, callID)
}

// Active reports the number of in-flight calls.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.agents)
}
