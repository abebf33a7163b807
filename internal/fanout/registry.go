// Package fanout delivers validated events in real time to every subscriber
// registered under a tenant (demozone) namespace.
package fanout

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoSuchTenant = errors.New("no such tenant")

// subscriberPortOffset derives a tenant's subscriber-listening port from the
// baseport assigned by the directory service.
const subscriberPortOffset = 100

// Tenant is one demozone entry from the directory-service snapshot.
type Tenant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Baseport int    `json:"baseport"`
}

// SubscriberPort is the port this tenant's subscribers listen on.
func (t Tenant) SubscriberPort() int {
	return t.Baseport + subscriberPortOffset
}

// Broadcaster sends a payload to every subscriber of one tenant namespace.
type Broadcaster interface {
	Broadcast(ctx context.Context, namespace string, payload []byte) error
}

type entry struct {
	tenant      Tenant
	broadcaster Broadcaster
}

// Registry maps tenant identifiers to their live broadcast handles. The set
// is established once at startup from the directory snapshot and is
// read-only afterwards: no dynamic tenant add or remove.
type Registry struct {
	entries map[string]entry
}

// Build constructs the registry, creating one broadcaster per discovered
// tenant.
func Build(tenants []Tenant, newBroadcaster func(Tenant) Broadcaster) *Registry {
	entries := make(map[string]entry, len(tenants))
	for _, t := range tenants {
		entries[t.ID] = entry{tenant: t, broadcaster: newBroadcaster(t)}
	}
	return &Registry{entries: entries}
}

// Broadcast delivers the payload to all subscribers of the tenant's
// namespace. An unknown tenant yields ErrNoSuchTenant; callers log and
// continue, it is not fatal to the dispatch pipeline.
func (r *Registry) Broadcast(ctx context.Context, tenantID, namespace string, payload []byte) error {
	e, ok := r.entries[tenantID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchTenant, tenantID)
	}
	return e.broadcaster.Broadcast(ctx, namespace, payload)
}

// Tenants returns the discovered tenant set.
func (r *Registry) Tenants() []Tenant {
	out := make([]Tenant, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.tenant)
	}
	return out
}
