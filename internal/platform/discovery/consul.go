// Package discovery registers services with Consul for the lifetime of a process.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/consul/api"
)

// Registration describes a service instance.
type Registration struct {
	ID         string
	Name       string
	Address    string
	Port       int
	HealthPath string
	Tags       []string
}

// Registrar publishes and withdraws a service instance.
type Registrar interface {
	Register(ctx context.Context) error
	Deregister(ctx context.Context) error
}

// ConsulRegistrar registers one instance with the local Consul agent.
type ConsulRegistrar struct {
	client *api.Client
	reg    Registration
}

// NewConsulRegistrar builds a registrar against the agent at address.
func NewConsulRegistrar(address string, reg Registration) (*ConsulRegistrar, error) {
	cfg := api.DefaultConfig()
	cfg.Address = address
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	if reg.ID == "" {
		reg.ID = fmt.Sprintf("%s-%s-%d", reg.Name, reg.Address, reg.Port)
	}
	return &ConsulRegistrar{client: client, reg: reg}, nil
}

// Register adds the instance with an HTTP health check.
func (r *ConsulRegistrar) Register(ctx context.Context) error {
	service := &api.AgentServiceRegistration{
		ID:      r.reg.ID,
		Name:    r.reg.Name,
		Address: r.reg.Address,
		Port:    r.reg.Port,
		Tags:    r.reg.Tags,
	}
	if r.reg.HealthPath != "" {
		service.Check = &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d%s", r.reg.Address, r.reg.Port, r.reg.HealthPath),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "1m",
		}
	}
	return r.client.Agent().ServiceRegisterOpts(service, api.ServiceRegisterOpts{}.WithContext(ctx))
}

// Deregister removes the instance.
func (r *ConsulRegistrar) Deregister(ctx context.Context) error {
	return r.client.Agent().ServiceDeregisterOpts(r.reg.ID, (&api.QueryOptions{}).WithContext(ctx))
}

type noopRegistrar struct{}

func (noopRegistrar) Register(context.Context) error   { return nil }
func (noopRegistrar) Deregister(context.Context) error { return nil }

// NewRegistrar returns a Consul registrar, or a no-op one when address is empty.
func NewRegistrar(address string, reg Registration) (Registrar, error) {
	if address == "" {
		return noopRegistrar{}, nil
	}
	return NewConsulRegistrar(address, reg)
}

// Acquire registers the instance and returns a release func that deregisters
// it. Callers defer release so every exit path withdraws the instance.
func Acquire(ctx context.Context, r Registrar, logger *slog.Logger) (func(), error) {
	if err := r.Register(ctx); err != nil {
		return func() {}, fmt.Errorf("register service: %w", err)
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.Deregister(ctx); err != nil && logger != nil {
			logger.Warn("failed to deregister service", slog.String("error", err.Error()))
		}
	}, nil
}
