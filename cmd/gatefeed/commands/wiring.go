package commands

import (
	"context"
	"time"

	"github.com/spf13/viper"

	"github.com/gatefeed/gatefeed/internal/browser"
	"github.com/gatefeed/gatefeed/internal/cache"
	"github.com/gatefeed/gatefeed/internal/logger"
	"github.com/gatefeed/gatefeed/internal/pipeline"
	"github.com/gatefeed/gatefeed/internal/render"
)

// buildBackend selects the rendering backend from configuration: a local
// browser when enabled, the remote rendering service when a URL is set,
// otherwise nil (the pipeline then fails fast with its configuration error).
func buildBackend() pipeline.Backend {
	if viper.GetBool("browser.enabled") {
		cfg := browser.DefaultConfig()
		cfg.ExecPath = viper.GetString("browser.exec_path")
		if viper.IsSet("browser.headless") {
			cfg.Headless = viper.GetBool("browser.headless")
		}
		if n := viper.GetInt("browser.pool_size"); n > 0 {
			cfg.PoolSize = n
		}
		cfg.ExtraArgs = viper.GetStringSlice("browser.extra_args")
		cfg.UserAgent = viper.GetString("browser.user_agent")

		return func(ctx context.Context) (render.Renderer, error) {
			session, err := browser.Open(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return render.NewBrowserRenderer(session), nil
		}
	}

	if remoteURL := viper.GetString("remote.url"); remoteURL != "" {
		client := render.NewRemoteClient(remoteURL)
		return func(context.Context) (render.Renderer, error) {
			return client, nil
		}
	}

	return nil
}

// buildCoordinator wires the cache store: Redis when configured, otherwise
// in-process memory.
func buildCoordinator(ctx context.Context) *cache.Coordinator {
	ttl := viper.GetDuration("cache.ttl")
	if ttl <= 0 {
		ttl = time.Hour
	}

	if addr := viper.GetString("cache.redis_addr"); addr != "" {
		store, err := cache.NewRedis(ctx, addr,
			viper.GetString("cache.redis_password"),
			viper.GetInt("cache.redis_db"), ttl)
		if err == nil {
			logger.Info("using redis cache", "addr", addr)
			return cache.NewCoordinator(store, ttl)
		}
		logger.Warn("redis unavailable, falling back to memory cache", "addr", addr, "error", err)
	}

	return cache.NewCoordinator(cache.NewMemory(ttl), ttl)
}

func pipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	if n := viper.GetInt("pipeline.concurrency"); n > 0 {
		cfg.Concurrency = n
	}
	if d := viper.GetDuration("pipeline.detail_timeout"); d > 0 {
		cfg.DetailTimeout = d
	}
	if d := viper.GetDuration("pipeline.listing_timeout"); d > 0 {
		cfg.ListingTimeout = d
	}
	return cfg
}
