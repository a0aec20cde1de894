package injector

import (
	"github.com/google/wire"

	"github.com/warwolfworks/wolfcore/internal/config"
	"github.com/warwolfworks/wolfcore/internal/core/events/bus"
	"github.com/warwolfworks/wolfcore/internal/core/manager"
	"github.com/warwolfworks/wolfcore/internal/core/observability/log"
	"github.com/warwolfworks/wolfcore/internal/core/scheduler"
	"github.com/warwolfworks/wolfcore/internal/server"
)

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideEventBus,
	ProvideManager,
	ProvideLoop,
	ProvideFeed,
	wire.Struct(new(Simulation), "*"),
)

func ProvideLogger(cfg *config.Config) log.Log {
	return log.New(cfg.LogLevel())
}

func ProvideEventBus() bus.EventBus {
	return bus.New()
}

func ProvideManager(logger log.Log, events bus.EventBus, cfg *config.Config) *manager.Manager {
	m := manager.New(logger, events)
	if len(cfg.Events.Mute) > 0 {
		m.SetEventFilters(bus.MuteTypes(cfg.Events.Mute...))
	}
	return m
}

func ProvideLoop(m *manager.Manager, logger log.Log, cfg *config.Config) (*scheduler.Loop, error) {
	return scheduler.New(m, logger, cfg.Simulation)
}

// ProvideFeed returns nil when the feed is disabled.
func ProvideFeed(events bus.EventBus, logger log.Log, cfg *config.Config) (*server.FeedServer, error) {
	if !cfg.Feed.Enabled {
		return nil, nil
	}
	feedCfg := server.DefaultConfig()
	feedCfg.Addr = cfg.Feed.Addr
	if cfg.Feed.Path != "" {
		feedCfg.Path = cfg.Feed.Path
	}
	return server.NewFeedServer(events, logger, feedCfg)
}
