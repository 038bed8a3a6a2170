package state

import (
	"context"

	"herald/internal/components"
	"herald/internal/config"
	"herald/internal/core"
)

type State struct {
	Config   *config.Config
	Registry *components.Registry
	Service  *core.Service
}

func NewState(cfg *config.Config, registry *components.Registry, service *core.Service) *State {
	return &State{
		Config:   cfg,
		Registry: registry,
		Service:  service,
	}
}

func (s *State) Close(ctx context.Context) error {
	return s.Registry.CloseAll(ctx)
}
