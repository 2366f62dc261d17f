package cli

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/artboard/pkg/artboard"
	"github.com/matzehuels/artboard/pkg/clock"
	"github.com/matzehuels/artboard/pkg/input"
	"github.com/matzehuels/artboard/pkg/item"
	"github.com/matzehuels/artboard/pkg/pool"
	"github.com/matzehuels/artboard/pkg/source"
)

// A terminal cell stands for cellWidth x cellHeight world units. Cells are
// roughly twice as tall as they are wide, so the ratio keeps tiles square-ish.
const (
	cellWidth  = 40.0
	cellHeight = 80.0

	panStep     = 4 * cellWidth
	wheelStep   = 3 * cellHeight
	detailWidth = 40
)

// Tile colours, assigned by tag position.
var tilePalette = []lipgloss.Color{
	lipgloss.Color("24"),
	lipgloss.Color("58"),
	lipgloss.Color("89"),
	lipgloss.Color("23"),
	lipgloss.Color("94"),
	lipgloss.Color("54"),
	lipgloss.Color("29"),
	lipgloss.Color("131"),
}

var (
	styleStatus      = lipgloss.NewStyle().Foreground(colorGray)
	styleStatusError = lipgloss.NewStyle().Foreground(colorRed)
	styleTileLabel   = lipgloss.NewStyle().Foreground(colorWhite)
	styleDetail      = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// viewCommand creates the interactive terminal viewer.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		src     sourceFlags
		noCache bool
		logFile string
		fps     int
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse the artboard in the terminal",
		Long: `Open the artboard in the terminal. Drag with the mouse or use the arrow keys to
pan; the board wraps around in every direction. Click a tile to open its
details.

Keys: arrows/hjkl pan, f cycles the tag filter, a clears it, r recentres,
esc closes the details, q quits.`,
		Example: `  artboard view
  artboard view --source sqlite --sqlite ./art.db
  artboard view --log-file /tmp/artboard.log -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.apply(cmd, &c.Config); err != nil {
				return err
			}
			if fps <= 0 {
				return fmt.Errorf("--fps must be positive, got %d", fps)
			}

			ctx := cmd.Context()
			logger := log.New(io.Discard)
			if logFile != "" {
				l, f, err := openLogFile(logFile, c.Logger.GetLevel())
				if err != nil {
					return err
				}
				defer f.Close()
				logger = l
			}

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
			resilient := source.Resilient(opened, logger.WithPrefix(opened.kind))

			fetch := func() []item.Item {
				fetchCtx, cancel := c.fetchContext(ctx)
				defer cancel()
				items, _ := resilient.FetchItems(fetchCtx)
				return items
			}

			m, err := newViewModel(c.Config.Engine(), fetch, time.Second/time.Duration(fps), logger)
			if err != nil {
				return err
			}
			defer m.close()

			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write engine logs to this file")
	cmd.Flags().IntVar(&fps, "fps", 30, "frames per second")

	return cmd
}

// =============================================================================
// Messages
// =============================================================================

type itemsMsg struct {
	items []item.Item
}

type frameMsg struct{}

// =============================================================================
// viewModel
// =============================================================================

// viewModel is the bubbletea model of the terminal viewer. The engine runs
// on a manual clock and is ticked from frameMsg, so every engine call happens
// on the bubbletea update goroutine.
type viewModel struct {
	eng      *artboard.Engine
	nodes    *pool.Memory
	fetch    func() []item.Item
	interval time.Duration
	logger   *log.Logger

	width, height int

	loaded bool
	detail *artboard.Detail
	status string
	failed bool

	pressed        bool
	pressX, pressY int
	moved          bool
}

func newViewModel(cfg artboard.Config, fetch func() []item.Item, interval time.Duration, logger *log.Logger) (*viewModel, error) {
	m := &viewModel{
		nodes:    pool.NewMemory(),
		fetch:    fetch,
		interval: interval,
		logger:   logger,
	}
	eng, err := artboard.New(cfg,
		artboard.WithBackend(m.nodes),
		artboard.WithClock(clock.NewManual()),
		artboard.WithLogger(logger.WithPrefix("engine")),
		artboard.WithOpenDetail(func(d artboard.Detail) { m.detail = &d }),
	)
	if err != nil {
		return nil, err
	}
	m.eng = eng
	return m, nil
}

func (m *viewModel) close() {
	_ = m.eng.Close()
}

func (m *viewModel) Init() tea.Cmd {
	return tea.Batch(m.fetchItems(), m.nextFrame())
}

func (m *viewModel) fetchItems() tea.Cmd {
	return func() tea.Msg {
		return itemsMsg{items: m.fetch()}
	}
}

func (m *viewModel) nextFrame() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

func (m *viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()

	case itemsMsg:
		m.eng.Submit(msg.items)
		m.loaded = true
		m.setStatus(fmt.Sprintf("%d items", len(msg.items)), false)

	case frameMsg:
		m.eng.Tick(m.interval)
		return m, m.nextFrame()

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	return m, nil
}

func (m *viewModel) resize() {
	rows := max(m.height-1, 0)
	if err := m.eng.Resize(float64(m.width)*cellWidth, float64(rows)*cellHeight); err != nil {
		m.setStatus(err.Error(), true)
	}
}

func (m *viewModel) setStatus(s string, failed bool) {
	m.status, m.failed = s, failed
}

// =============================================================================
// Input
// =============================================================================

func (m *viewModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "esc":
		m.detail = nil
	case "left", "h":
		m.scroll(-panStep, 0)
	case "right", "l":
		m.scroll(panStep, 0)
	case "up", "k":
		m.scroll(0, -panStep)
	case "down", "j":
		m.scroll(0, panStep)
	case "f":
		m.applyFilter(nextFilter(m.eng.Tags(), m.eng.ActiveFilter()))
	case "a":
		m.applyFilter(artboard.FilterAll)
	case "r":
		m.eng.Recenter()
	}
	return nil
}

func (m *viewModel) scroll(dx, dy float64) {
	m.eng.Input(input.Event{Kind: input.Wheel, DX: dx, DY: dy})
}

func (m *viewModel) applyFilter(tag string) {
	if err := m.eng.Filter(tag); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.setStatus("filter: "+tag, false)
}

// nextFilter cycles all → tags[0] → … → tags[n-1] → all.
func nextFilter(tags []string, current string) string {
	if len(tags) == 0 {
		return artboard.FilterAll
	}
	if strings.EqualFold(current, artboard.FilterAll) {
		return tags[0]
	}
	for i, t := range tags {
		if strings.EqualFold(t, current) && i+1 < len(tags) {
			return tags[i+1]
		}
	}
	return artboard.FilterAll
}

func (m *viewModel) handleMouse(msg tea.MouseMsg) {
	x, y := cellCenter(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.pressed, m.moved = true, false
			m.pressX, m.pressY = msg.X, msg.Y
			m.eng.Input(input.Event{Kind: input.PointerDown, X: x, Y: y})
		case tea.MouseButtonWheelUp:
			m.scroll(0, -wheelStep)
		case tea.MouseButtonWheelDown:
			m.scroll(0, wheelStep)
		case tea.MouseButtonWheelLeft:
			m.scroll(-wheelStep, 0)
		case tea.MouseButtonWheelRight:
			m.scroll(wheelStep, 0)
		}

	case tea.MouseActionMotion:
		if !m.pressed {
			return
		}
		if msg.X != m.pressX || msg.Y != m.pressY {
			m.moved = true
		}
		m.eng.Input(input.Event{Kind: input.PointerMove, X: x, Y: y})

	case tea.MouseActionRelease:
		if !m.pressed {
			return
		}
		m.pressed = false
		m.eng.Input(input.Event{Kind: input.PointerUp, X: x, Y: y})
		if !m.moved {
			m.clickAt(x, y)
		}
	}
}

// clickAt activates the node under (x, y), as a tap on a drawn tile would.
func (m *viewModel) clickAt(x, y float64) {
	for _, n := range m.eng.Nodes() {
		b := n.Bounds
		if x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height {
			m.nodes.Click(n.ItemID)
			return
		}
	}
	m.detail = nil
}

func cellCenter(col, row int) (float64, float64) {
	return (float64(col) + 0.5) * cellWidth, (float64(row) + 0.5) * cellHeight
}

// =============================================================================
// Rendering
// =============================================================================

type tileLabel struct {
	row, col int
	text     []rune
}

func (m *viewModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	rows := max(m.height-1, 0)
	cols := m.width
	if m.detail != nil && m.detailFits() {
		cols -= detailWidth
	}

	board := m.renderBoard(cols, rows)
	if cols < m.width {
		panel := styleDetail.Width(detailWidth - 2).Height(max(rows-2, 0)).Render(renderDetail(*m.detail, detailWidth-4))
		board = lipgloss.JoinHorizontal(lipgloss.Top, board, panel)
	}
	return board + "\n" + m.statusLine()
}

func (m *viewModel) detailFits() bool {
	return m.width > detailWidth*2
}

func (m *viewModel) renderBoard(cols, rows int) string {
	grid := make([][]int, rows)
	for r := range grid {
		grid[r] = make([]int, cols)
	}

	w := m.eng.World()
	colours := make(map[string]lipgloss.Color)
	for i, t := range m.eng.Tags() {
		colours[t] = tilePalette[i%len(tilePalette)]
	}
	labels := make(map[int]tileLabel)
	tileStyle := make(map[int]lipgloss.Style)

	for _, n := range m.eng.Nodes() {
		b := n.Bounds
		c0 := max(int(math.Floor(b.X/cellWidth)), 0)
		c1 := min(int(math.Ceil((b.X+b.Width)/cellWidth))-1, cols-1)
		r0 := max(int(math.Floor(b.Y/cellHeight)), 0)
		r1 := min(int(math.Ceil((b.Y+b.Height)/cellHeight))-1, rows-1)
		if c0 > c1 || r0 > r1 {
			continue
		}
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				grid[r][c] = n.ItemID
			}
		}

		it, _ := w.Item(n.ItemID)
		tileStyle[n.ItemID] = styleTileLabel.Background(colours[it.Tag])
		if width := c1 - c0 - 1; width > 0 {
			labels[n.ItemID] = tileLabel{row: r0, col: c0 + 1, text: truncate([]rune(it.Title), width)}
		}
	}

	var sb strings.Builder
	line := make([]rune, 0, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; {
			id := grid[r][c]
			end := c
			line = line[:0]
			for end < cols && grid[r][end] == id {
				line = append(line, labelRune(labels, id, r, end))
				end++
			}
			if id == 0 {
				sb.WriteString(string(line))
			} else {
				sb.WriteString(tileStyle[id].Render(string(line)))
			}
			c = end
		}
		if r < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func labelRune(labels map[int]tileLabel, id, row, col int) rune {
	l, ok := labels[id]
	if !ok || row != l.row {
		return ' '
	}
	if i := col - l.col; i >= 0 && i < len(l.text) {
		return l.text[i]
	}
	return ' '
}

func truncate(s []rune, width int) []rune {
	if len(s) <= width {
		return s
	}
	if width <= 1 {
		return s[:width]
	}
	return append(s[:width-1:width-1], '…')
}

func renderDetail(d artboard.Detail, width int) string {
	var sb strings.Builder
	sb.WriteString(StyleTitle.Render(string(truncate([]rune(d.Title), width))))
	sb.WriteString("\n")
	if d.Author != "" {
		sb.WriteString(StyleDim.Render("by " + d.Author))
		sb.WriteString("\n")
	}
	if d.Tag != "" {
		sb.WriteString(StyleHighlight.Render("#" + d.Tag))
		sb.WriteString("\n")
	}
	if d.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(lipgloss.NewStyle().Width(width).Render(d.Description))
		sb.WriteString("\n")
	}
	if d.ImageRef != "" {
		sb.WriteString("\n")
		sb.WriteString(StyleLink.Render(d.ImageRef))
		sb.WriteString("\n")
	}
	if n := len(d.GalleryRefs); n > 0 {
		sb.WriteString(StyleDim.Render(fmt.Sprintf("+%d gallery images", n)))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(StyleDim.Render("esc to close"))
	return sb.String()
}

func (m *viewModel) statusLine() string {
	if !m.loaded {
		return styleStatus.Render("loading…")
	}
	st := m.eng.LastFrame()
	cam := m.eng.Camera()
	parts := []string{
		fmt.Sprintf("frame %d", st.Frame),
		fmt.Sprintf("%d visible", st.Visible),
		fmt.Sprintf("%d items", len(m.eng.Items())),
		"filter " + m.eng.ActiveFilter(),
		fmt.Sprintf("cam %.0f,%.0f", cam.CurrentX, cam.CurrentY),
	}
	if m.eng.Dragging() {
		parts = append(parts, "dragging")
	}
	if m.detail != nil && !m.detailFits() {
		parts = append(parts, m.detail.Title)
	}
	line := styleStatus.Render(strings.Join(parts, " · "))
	if m.status != "" {
		style := StyleDim
		if m.failed {
			style = styleStatusError
		}
		line += "  " + style.Render(m.status)
	}
	return line
}

var _ tea.Model = (*viewModel)(nil)

