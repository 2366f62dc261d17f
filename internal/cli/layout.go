package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/artboard/pkg/item"
	"github.com/matzehuels/artboard/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		src     sourceFlags
		output  string
		noCache bool
		columns int
		jitter  float64
	)

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Fetch content and compute the masonry world",
		Long: `Fetch content from the configured source, lay it out and print the world
dimensions. With --output the laid-out world is written as JSON.`,
		Example: `  artboard layout
  artboard layout --source strapi --url http://localhost:1337 -o world.json
  artboard layout --columns 8 --jitter 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.apply(cmd, &c.Config); err != nil {
				return err
			}
			if cmd.Flags().Changed("columns") {
				c.Config.Layout.Columns = columns
			}
			if cmd.Flags().Changed("jitter") {
				c.Config.Layout.Jitter = jitter
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			opened, err := c.openSource(ctx, runner.Cache, src.refresh)
			if err != nil {
				return err
			}
			defer opened.close()

			fetchCtx, cancel := c.fetchContext(ctx)
			defer cancel()

			spinner := newSpinnerWithContext(ctx, "Laying out "+opened.kind+" content...")
			spinner.Start()
			result, err := runner.Execute(fetchCtx, opened, pipeline.Options{
				Source:   opened.kind,
				Location: opened.location,
				Layout:   c.Config.Layout,
				Refresh:  src.refresh,
			})
			spinner.Stop()
			if err != nil {
				return err
			}

			printSuccess("Laid out %d items", result.World.Len())
			printKeyValue("World", fmt.Sprintf("%.0f × %.0f", result.World.Width, result.World.Height))
			printKeyValue("Columns", strconv.Itoa(c.Config.Layout.Columns))
			printKeyValue("Tags", strconv.Itoa(len(item.Tags(result.Items))))
			if result.Stats.Dropped > 0 {
				printWarning("Dropped %d malformed items", result.Stats.Dropped)
			}
			printStats(result.Stats.ItemCount, result.CacheInfo.LayoutHit)

			if output == "" {
				return nil
			}
			if err := writeJSONFile(output, result.World); err != nil {
				return err
			}
			printFile(output)
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the world as JSON to this file (- for stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().IntVar(&columns, "columns", 0, "override the column count")
	cmd.Flags().Float64Var(&jitter, "jitter", 0, "override the starting-height jitter")

	return cmd
}

// fetchCommand creates the fetch command.
func (c *CLI) fetchCommand() *cobra.Command {
	var (
		src     sourceFlags
		asJSON  bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch content and summarise it by tag",
		Example: `  artboard fetch
  artboard fetch --sqlite ~/art.db --json > items.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.apply(cmd, &c.Config); err != nil {
				return err
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			opened, err := c.openSource(ctx, runner.Cache, src.refresh)
			if err != nil {
				return err
			}
			defer opened.close()

			fetchCtx, cancel := c.fetchContext(ctx)
			defer cancel()

			prog := newProgress(loggerFromContext(ctx))
			items, tags, hit, err := runner.FetchWithCacheInfo(fetchCtx, opened, pipeline.Options{
				Source:   opened.kind,
				Location: opened.location,
				Refresh:  src.refresh,
			})
			if err != nil {
				return err
			}
			prog.done("Fetched items", "count", len(items), "source", opened.kind, "cached", hit)

			if asJSON {
				return writeJSON(stdout, items)
			}

			clean, dropped := item.Normalize(items)
			printPlain(tagTable(clean, tags))
			if dropped > 0 {
				printWarning("%d items would be dropped (missing or repeated id)", dropped)
			}
			printStats(len(clean), hit)
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the items as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// tagTable renders item counts per tag. Tags from the vocabulary that no
// item carries are listed with a zero count.
func tagTable(items []item.Item, vocabulary []string) string {
	counts := make(map[string]int)
	for _, t := range vocabulary {
		counts[t] = 0
	}
	for _, it := range items {
		counts[it.Tag]++
	}
	tags := make([]string, 0, len(counts))
	for t := range counts {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	rows := make([][]string, 0, len(tags))
	for _, t := range tags {
		name := t
		if name == "" {
			name = "(none)"
		}
		rows = append(rows, []string{name, strconv.Itoa(counts[t])})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Tag", "Items").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 {
				return lipgloss.NewStyle().Foreground(colorCyan).Align(lipgloss.Right)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONFile(path string, v any) error {
	if path == "-" {
		return writeJSON(stdout, v)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeJSON(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
