// Package provider holds the registry of cloud providers the orchestrator
// may target. The registry is built once from external configuration and is
// read-only afterwards, so concurrent workflows can share it freely.
package provider

import (
	"fmt"
	"maps"

	"github.com/perimeterlabs/tenantgrid/internal/domain/tenant"
)

// ConnectionStatus represents the registry's view of provider reachability.
type ConnectionStatus string

// Predefined connection statuses. Connected is a static placeholder until a
// real control-plane handshake probes reachability.
const (
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
)

// Config is the external configuration triple for one provider.
type Config struct {
	Enabled        bool
	CredentialsRef string
	DefaultRegion  string
}

// Entry is the registry's per-provider record. Credentials are an opaque
// reference, never cloud-specific secrets.
type Entry struct {
	Provider       tenant.CloudProvider
	DisplayName    string
	Enabled        bool
	CredentialsRef string
	DefaultRegion  string
	Connection     ConnectionStatus
}

var displayNames = map[tenant.CloudProvider]string{
	tenant.ProviderAzure: "Microsoft Azure",
	tenant.ProviderAWS:   "Amazon Web Services",
	tenant.ProviderGCP:   "Google Cloud Platform",
}

// Registry answers which providers are configured and enabled. It exposes no
// mutation; reconfiguration means constructing a new registry.
type Registry struct {
	entries map[tenant.CloudProvider]Entry
}

// NewRegistry builds a registry from the configuration map. Unknown provider
// keys are rejected so misspelled configuration fails at startup instead of
// at provisioning time.
func NewRegistry(cfg map[tenant.CloudProvider]Config) (*Registry, error) {
	entries := make(map[tenant.CloudProvider]Entry, len(cfg))
	for p, c := range cfg {
		if !p.IsValid() {
			return nil, fmt.Errorf("%w: %s", tenant.ErrInvalidProvider, p)
		}

		conn := StatusDisconnected
		if c.Enabled {
			conn = StatusConnected
		}

		entries[p] = Entry{
			Provider:       p,
			DisplayName:    displayNames[p],
			Enabled:        c.Enabled,
			CredentialsRef: c.CredentialsRef,
			DefaultRegion:  c.DefaultRegion,
			Connection:     conn,
		}
	}
	return &Registry{entries: entries}, nil
}

// IsEnabled reports whether the provider is configured and enabled.
func (r *Registry) IsEnabled(p tenant.CloudProvider) bool {
	e, ok := r.entries[p]
	return ok && e.Enabled
}

// Get returns the registry entry for a provider.
func (r *Registry) Get(p tenant.CloudProvider) (Entry, bool) {
	e, ok := r.entries[p]
	return e, ok
}

// All returns a copy of every registry entry.
func (r *Registry) All() map[tenant.CloudProvider]Entry {
	return maps.Clone(r.entries)
}

// Enabled returns the providers that are currently enabled.
func (r *Registry) Enabled() []tenant.CloudProvider {
	var out []tenant.CloudProvider
	for _, p := range []tenant.CloudProvider{tenant.ProviderAzure, tenant.ProviderAWS, tenant.ProviderGCP} {
		if r.IsEnabled(p) {
			out = append(out, p)
		}
	}
	return out
}

// NotConfiguredError signals a provisioning request naming a provider that is
// disabled or unknown to the registry. The caller must pick an enabled
// provider; retrying cannot succeed.
type NotConfiguredError struct {
	Provider tenant.CloudProvider
}

// Error returns the error message, implementing the error interface.
func (e NotConfiguredError) Error() string {
	return fmt.Sprintf("cloud provider '%s' is not configured or not enabled", e.Provider)
}
