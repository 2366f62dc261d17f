package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/artboard/pkg/cache"
	"github.com/matzehuels/artboard/pkg/config"
	"github.com/matzehuels/artboard/pkg/integrations/strapi"
	"github.com/matzehuels/artboard/pkg/source"
	"github.com/matzehuels/artboard/pkg/source/demo"
	"github.com/matzehuels/artboard/pkg/source/mongo"
	"github.com/matzehuels/artboard/pkg/source/sqlite"
)

// sourceFlags are the per-command overrides of the [source] table.
type sourceFlags struct {
	kind     string
	url      string
	token    string
	mongoURI string
	sqlite   string
	refresh  bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.kind, "source", "s", "", "content source: "+strings.Join(config.SourceKinds(), ", "))
	cmd.Flags().StringVar(&f.url, "url", "", "Strapi base URL")
	cmd.Flags().StringVar(&f.token, "token", "", "Strapi API token")
	cmd.Flags().StringVar(&f.mongoURI, "mongo-uri", "", "MongoDB connection URI")
	cmd.Flags().StringVar(&f.sqlite, "sqlite", "", "SQLite database path")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "bypass cached source responses")
}

// apply overlays the flags that were set on cfg and revalidates it.
func (f *sourceFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source.Kind = f.kind
	}
	if flags.Changed("url") {
		cfg.Source.URL = f.url
		if !flags.Changed("source") {
			cfg.Source.Kind = config.SourceStrapi
		}
	}
	if flags.Changed("token") {
		cfg.Source.Token = f.token
	}
	if flags.Changed("mongo-uri") {
		cfg.Source.MongoURI = f.mongoURI
		if !flags.Changed("source") {
			cfg.Source.Kind = config.SourceMongo
		}
	}
	if flags.Changed("sqlite") {
		cfg.Source.SQLitePath = expandHome(f.sqlite)
		if !flags.Changed("source") {
			cfg.Source.Kind = config.SourceSQLite
		}
	}
	return cfg.Validate()
}

// openedSource is a configured source plus what is needed to cache and
// release it.
type openedSource struct {
	source.Source
	kind     string
	location string
	close    func()
}

// openSource builds the configured source. backend caches Strapi responses;
// pass a NullCache to disable.
func (c *CLI) openSource(ctx context.Context, backend cache.Cache, refresh bool) (*openedSource, error) {
	cfg := c.Config.Source
	out := &openedSource{kind: cfg.Kind, close: func() {}}

	switch cfg.Kind {
	case config.SourceDemo:
		out.Source = demo.New(demo.DefaultSeed)
		out.location = fmt.Sprintf("seed=%d", demo.DefaultSeed)

	case config.SourceStrapi:
		client := strapi.NewClient(backend, cfg.URL, cfg.Token, c.Config.Cache.TTL.Duration)
		client.Refresh = refresh
		out.Source = client
		out.location = client.BaseURL()

	case config.SourceMongo:
		src, err := mongo.Dial(ctx, cfg.MongoURI, cfg.Database, cfg.Collection, cfg.Timeout.Duration)
		if err != nil {
			return nil, err
		}
		out.Source = src
		out.location = cfg.Database + "." + cfg.Collection
		out.close = func() { _ = src.Close(context.Background()) }

	case config.SourceSQLite:
		store, err := sqlite.Open(ctx, expandHome(cfg.SQLitePath))
		if err != nil {
			return nil, err
		}
		out.Source = store
		out.location = cfg.SQLitePath
		out.close = func() { _ = store.Close() }

	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}

	c.Logger.Debug("source opened", "kind", out.kind, "location", out.location)
	return out, nil
}

// fetchContext bounds a source fetch by the configured timeout.
func (c *CLI) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if t := c.Config.Source.Timeout.Duration; t > 0 {
		return context.WithTimeout(ctx, t)
	}
	return context.WithCancel(ctx)
}
