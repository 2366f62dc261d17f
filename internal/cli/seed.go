package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/artboard/pkg/config"
	"github.com/matzehuels/artboard/pkg/item"
	"github.com/matzehuels/artboard/pkg/source/demo"
	"github.com/matzehuels/artboard/pkg/source/mongo"
	"github.com/matzehuels/artboard/pkg/source/sqlite"
)

// seeder is implemented by the writable sources.
type seeder interface {
	Seed(ctx context.Context, items []item.Item) (int, error)
}

// seedCommand creates the seed command.
func (c *CLI) seedCommand() *cobra.Command {
	var (
		src  sourceFlags
		from string
		seed uint64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load items into a SQLite or MongoDB source",
		Long: `Write items into a SQLite file or MongoDB collection so it can serve as a
content source. Items come from a JSON file (as written by "fetch --json") or,
by default, from the built-in demo set.`,
		Example: `  artboard seed --sqlite ~/art.db
  artboard seed --mongo-uri mongodb://localhost:27017 --from items.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.apply(cmd, &c.Config); err != nil {
				return err
			}

			items, origin, err := seedItems(from, seed)
			if err != nil {
				return err
			}
			clean, dropped := item.Normalize(items)
			if dropped > 0 {
				printWarning("Skipping %d items with a missing or repeated id", dropped)
			}

			ctx := cmd.Context()
			spinner := newSpinnerWithContext(ctx, "Connecting to "+c.Config.Source.Kind+"...")
			spinner.Start()
			dst, location, closeFn, err := c.openSeeder(ctx)
			if err != nil {
				spinner.Stop()
				return err
			}
			defer closeFn()

			spinner.SetMessage(fmt.Sprintf("Writing %d items...", len(clean)))
			n, err := dst.Seed(ctx, clean)
			if err != nil {
				spinner.StopWithError("Seeding failed")
				return err
			}
			spinner.StopWithSuccess(fmt.Sprintf("Seeded %d items from %s", n, origin))
			printDetail("Target: %s", location)
			printNextStep("View them", fmt.Sprintf("artboard view --source %s", c.Config.Source.Kind))
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().StringVar(&from, "from", "", "JSON file of items (default: the demo set)")
	cmd.Flags().Uint64Var(&seed, "seed", demo.DefaultSeed, "demo set seed")

	return cmd
}

func (c *CLI) openSeeder(ctx context.Context) (seeder, string, func(), error) {
	cfg := c.Config.Source
	switch cfg.Kind {
	case config.SourceSQLite:
		path := expandHome(cfg.SQLitePath)
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, "", nil, err
		}
		return store, path, func() { _ = store.Close() }, nil
	case config.SourceMongo:
		src, err := mongo.Dial(ctx, cfg.MongoURI, cfg.Database, cfg.Collection, cfg.Timeout.Duration)
		if err != nil {
			return nil, "", nil, err
		}
		return src, cfg.Database + "." + cfg.Collection, func() { _ = src.Close(context.Background()) }, nil
	default:
		return nil, "", nil, fmt.Errorf("cannot seed source %q (want %s or %s)", cfg.Kind, config.SourceSQLite, config.SourceMongo)
	}
}

func seedItems(from string, seed uint64) ([]item.Item, string, error) {
	if from == "" {
		return demo.Items(seed), "the demo set", nil
	}
	data, err := os.ReadFile(from)
	if err != nil {
		return nil, "", err
	}
	var items []item.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, "", fmt.Errorf("%s: %w", from, err)
	}
	return items, from, nil
}
