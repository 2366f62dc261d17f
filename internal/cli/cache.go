package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/artboard/pkg/cache"
	"github.com/matzehuels/artboard/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response and layout cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var expired bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		Example: `  artboard cache clear
  artboard cache clear --expired`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Config.Cache.Backend == config.CacheNull {
				printInfo("Caching is disabled")
				return nil
			}

			backend, err := c.openCache(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer backend.Close()

			if fc, ok := backend.(*cache.FileCache); ok && expired {
				n, err := fc.Prune(cmd.Context())
				if err != nil {
					return fmt.Errorf("prune cache: %w", err)
				}
				printSuccess("Removed %d expired entries", n)
				printDetail("Location: %s", fc.Dir())
				return nil
			}

			clearer, ok := backend.(cache.Clearer)
			if !ok {
				printInfo("Nothing to clear")
				return nil
			}
			if err := clearer.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess("Cleared the %s cache", c.Config.Cache.Backend)
			printDetail("Location: %s", c.cacheLocation(backend))
			return nil
		},
	}

	cmd.Flags().BoolVar(&expired, "expired", false, "only remove expired entries (file cache)")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch c.Config.Cache.Backend {
			case config.CacheRedis:
				printPlain(fmt.Sprintf("redis://%s/%d", c.Config.Cache.RedisAddr, c.Config.Cache.RedisDB))
				return nil
			case config.CacheNull:
				printInfo("Caching is disabled")
				return nil
			}
			dir := c.Config.Cache.Dir
			if dir == "" {
				d, err := cacheDir()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				dir = d
			}
			printPlain(expandHome(dir))
			return nil
		},
	}
}

func (c *CLI) cacheLocation(backend cache.Cache) string {
	switch b := backend.(type) {
	case *cache.FileCache:
		return b.Dir()
	case *cache.RedisCache:
		return fmt.Sprintf("redis://%s/%d", c.Config.Cache.RedisAddr, c.Config.Cache.RedisDB)
	default:
		return "-"
	}
}
