package cmd

import (
	"context"
	"fmt"

	"github.com/andrei-cloud/go_binio/internal/config"
	"github.com/andrei-cloud/go_binio/internal/host"
	"github.com/andrei-cloud/go_binio/pkg/abi"
)

// session is a manager with the configured guest loaded.
type session struct {
	manager *host.Manager
	info    *host.ModuleInfo
	cfg     *config.Config
}

func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	conv, err := abi.ConventionByName(cfg.Guest.Convention)
	if err != nil {
		return nil, err
	}

	m, err := host.NewManager(ctx, host.Options{
		MemoryLimitPages: cfg.Runtime.MemoryLimitPages,
		ReserveExport:    cfg.Guest.ReserveExport,
		Convention:       conv,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start runtime: %w", err)
	}

	var info *host.ModuleInfo
	if cfg.Guest.Path == "" {
		info, err = m.LoadReference()
	} else {
		info, err = m.LoadFile(cfg.Guest.Path)
	}
	if err != nil {
		_ = m.Close()
		return nil, err
	}

	return &session{manager: m, info: info, cfg: cfg}, nil
}

func (s *session) instantiate(ctx context.Context) (*host.Instance, error) {
	return s.manager.Instantiate(ctx, s.info.Name)
}

func (s *session) Close() error {
	return s.manager.Close()
}
