// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package wireup constructs the coordinator and its full collaborator
// graph from configuration. Both the long-running serve command and the
// one-shot scan/wipe/report commands build from the same JSON-file-backed
// state directory, so they share this constructor rather than each
// re-deriving it.
package wireup

import (
	"context"
	"os"

	"github.com/stratastor/diskwiper/config"
	"github.com/stratastor/diskwiper/internal/command"
	"github.com/stratastor/diskwiper/internal/privilege"
	"github.com/stratastor/diskwiper/pkg/coordinator"
	"github.com/stratastor/diskwiper/pkg/errors"
	"github.com/stratastor/diskwiper/pkg/inventory"
	"github.com/stratastor/diskwiper/pkg/metrics"
	"github.com/stratastor/diskwiper/pkg/persistence"
	"github.com/stratastor/diskwiper/pkg/probe"
	"github.com/stratastor/diskwiper/pkg/probe/tools"
	"github.com/stratastor/diskwiper/pkg/probe/types"
	"github.com/stratastor/diskwiper/pkg/wipeengine"
	"github.com/stratastor/diskwiper/pkg/wipeguard"
	"github.com/stratastor/logger"
)

// App bundles the coordinator with the collaborators a caller may need
// direct access to beyond what the coordinator exposes (draining the
// engine at shutdown, serving the metrics handler).
type App struct {
	Coordinator *coordinator.Coordinator
	Engine      *wipeengine.Engine
	Metrics     *metrics.Metrics
}

// Build constructs persistence, the platform prober, the boot-disk
// guard, the fast_clear tool adapters, metrics, the engine, and the
// inventory service, in the dependency order each needs its
// predecessors, then reconciles any stale in_progress records left by
// an unclean shutdown before handing back the coordinator.
func Build(ctx context.Context, l logger.Logger, cfg *config.Config) (*App, error) {
	store, err := persistence.NewJSONFileStore(l, cfg.Wipe.StateDir)
	if err != nil {
		return nil, errors.Wrap(err, errors.InventoryPersistFailed)
	}

	useSudo := os.Geteuid() != 0

	toolsCfg := &types.ToolsConfig{
		SmartctlPath:   cfg.Wipe.SmartctlPath,
		LsblkPath:      cfg.Wipe.LsblkPath,
		NvmePath:       cfg.Wipe.NvmePath,
		BlkdiscardPath: cfg.Wipe.BlkdiscardPath,
		HdparmPath:     cfg.Wipe.HdparmPath,
	}
	prober := probe.NewProber(l, toolsCfg, useSudo)
	guard := wipeguard.NewGuard(l, prober)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	deviceOps := privilege.New(l, command.NewCommandExecutor(useSudo), privilege.DefaultConfig())

	engine := wipeengine.NewEngine(l, prober, guard, store, wipeengine.Config{
		MaxConcurrent: cfg.Wipe.MaxConcurrent,
		Tools: wipeengine.FastClearTools{
			NVMe:       tools.NewNvmeExecutor(l, cfg.Wipe.NvmePath, useSudo),
			Blkdiscard: tools.NewBlkdiscardExecutor(l, cfg.Wipe.BlkdiscardPath, useSudo),
			Hdparm:     tools.NewHdparmExecutor(l, cfg.Wipe.HdparmPath, useSudo),
		},
		Metrics:   m,
		Privilege: deviceOps,
	})

	if err := engine.ReconcileOnStartup(ctx); err != nil {
		return nil, errors.Wrap(err, errors.InventoryPersistFailed)
	}

	inv := inventory.NewService(l, prober, store)
	coord := coordinator.New(l, inv, engine, store)

	return &App{Coordinator: coord, Engine: engine, Metrics: m}, nil
}
