package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/artboard/pkg/artboard"
	"github.com/matzehuels/artboard/pkg/clock"
	"github.com/matzehuels/artboard/pkg/observability"
	"github.com/matzehuels/artboard/pkg/server"
	"github.com/matzehuels/artboard/pkg/source"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		src           sourceFlags
		addr          string
		frameInterval time.Duration
		noCache       bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a headless artboard behind an HTTP API",
		Long: `Run the engine headless and expose it over HTTP. Clients post input events
and ticks and read back the live render nodes; with --frame-interval the server
ticks the engine on its own.`,
		Example: `  artboard serve
  artboard serve --addr :9000 --frame-interval 16ms --source strapi --url http://localhost:1337`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.apply(cmd, &c.Config); err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				c.Config.Server.Addr = addr
			}
			if cmd.Flags().Changed("frame-interval") {
				c.Config.Server.FrameInterval.Duration = frameInterval
			}

			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			counters := observability.NewCounters()
			observability.Register(counters)
			defer observability.Reset()

			backend, err := c.openCache(ctx, noCache)
			if err != nil {
				return err
			}
			defer backend.Close()

			opened, err := c.openSource(ctx, backend, src.refresh)
			if err != nil {
				return err
			}
			defer opened.close()
			resilient := source.Resilient(opened, component(ctx, opened.kind))

			interval := c.Config.Server.FrameInterval.Duration
			eng, err := artboard.New(c.Config.Engine(),
				artboard.WithLogger(component(ctx, "engine")),
				artboard.WithClock(clock.NewTicker(interval)),
			)
			if err != nil {
				return err
			}
			defer eng.Close()

			go func() {
				fetchCtx, cancel := c.fetchContext(ctx)
				defer cancel()
				items, _ := resilient.FetchItems(fetchCtx)
				eng.Submit(items)
				logger.Info("content submitted", "items", len(items))
			}()

			srv := server.New(eng, server.Config{
				Addr:          c.Config.Server.Addr,
				FrameInterval: interval,
			},
				server.WithSource(resilient),
				server.WithStats(counters),
				server.WithLogger(component(ctx, "http")),
			)

			printInfo("Serving on %s", StyleLink.Render("http://"+displayAddr(c.Config.Server.Addr)))
			if interval <= 0 {
				printDetail("Frames advance on POST /api/tick")
			}
			err = srv.ListenAndServe(ctx)
			st := counters.Snapshot()
			logger.Info("served", "frames", st.Frames, "layouts", st.Layouts,
				"cache_hits", st.CacheHits, "http_failures", st.HTTPFailures)
			return err
		},
	}

	src.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().DurationVar(&frameInterval, "frame-interval", 0, "tick the engine on this interval (0 waits for /api/tick)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// displayAddr turns a listen address into something a browser can open.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
