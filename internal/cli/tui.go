package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/intelgraph/pkg/graph"
	"github.com/matzehuels/intelgraph/pkg/render"
	"github.com/matzehuels/intelgraph/pkg/sim"
	"github.com/matzehuels/intelgraph/pkg/viewport"
)

// =============================================================================
// Viewer - interactive terminal view of a running simulation
// =============================================================================

const (
	// panStep is how far one arrow key moves the view, in frame pixels.
	panStep = 20

	// chromeRows is the number of terminal rows below the canvas: a
	// bordered three-line tooltip panel, the status line and the help line.
	chromeRows = 7

	defaultCols = 80
	defaultRows = 24
)

var (
	styleEdge    = lipgloss.NewStyle().Foreground(lipgloss.Color(render.ColorEdge))
	styleLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color(render.ColorLabel))
	styleFaint   = lipgloss.NewStyle().Foreground(colorDim)
	styleActive  = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
	styleRunning = lipgloss.NewStyle().Foreground(colorGreen)
	stylePaused  = lipgloss.NewStyle().Foreground(colorYellow)
	styleConf    = lipgloss.NewStyle().Foreground(lipgloss.Color(render.ColorConfidence))
)

const viewerHelp = "scroll/+/- zoom · drag/arrows pan · tab hover · enter select · f fit · 0 reset · p pause · r reseed · q quit"

// frameMsg drives one simulation tick.
type frameMsg time.Time

// cellKind orders what may overwrite what on the canvas.
type cellKind uint8

const (
	cellEmpty cellKind = iota
	cellEdge
	cellLabel
	cellNode
)

type cell struct {
	ch   rune
	kind cellKind
	node string // owning node for node and label cells
	typ  graph.NodeType
}

// viewer is the bubbletea model. It owns the engine outright: ticks and
// input are both handled on the program's update goroutine.
type viewer struct {
	engine *sim.Engine
	model  graph.Model
	params sim.Params
	seed   uint64
	fps    int

	vp     *viewport.Controller
	cols   int
	rows   int
	paused bool
	cursor int // tab-cycle index into model.Nodes, -1 before the first tab

	grid [][]cell
}

func newViewer(m graph.Model, params sim.Params, seed uint64, fps int) *viewer {
	return &viewer{
		engine: sim.New(m, params, seed),
		model:  m,
		params: params,
		seed:   seed,
		fps:    max(fps, 1),
		vp:     viewport.New(),
		cols:   defaultCols,
		rows:   defaultRows,
		cursor: -1,
	}
}

func (v *viewer) Init() tea.Cmd {
	return v.nextFrame()
}

func (v *viewer) nextFrame() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(v.fps), func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (v *viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		if !v.paused {
			v.engine.Step()
		}
		return v, v.nextFrame()
	case tea.WindowSizeMsg:
		v.cols, v.rows = msg.Width, msg.Height
	case tea.KeyMsg:
		return v, v.handleKey(msg)
	case tea.MouseMsg:
		v.handleMouse(msg)
	}
	return v, nil
}

func (v *viewer) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "p", " ":
		v.paused = !v.paused
	case "+", "=":
		v.vp.Nudge(viewport.ZoomStep)
	case "-", "_":
		v.vp.Nudge(-viewport.ZoomStep)
	case "0":
		v.vp.Reset()
	case "f":
		v.vp.Fit(v.engine.Positions(), v.params.Width, v.params.Height, defaultPadding)
	case "up", "k":
		v.vp.Pan(0, panStep)
	case "down", "j":
		v.vp.Pan(0, -panStep)
	case "left", "h":
		v.vp.Pan(panStep, 0)
	case "right", "l":
		v.vp.Pan(-panStep, 0)
	case "tab":
		v.cycle(1)
	case "shift+tab":
		v.cycle(-1)
	case "enter":
		if id, ok := v.vp.Active().Get(); ok {
			v.vp.Select(id)
		}
	case "esc":
		v.vp.Hover(viewport.None())
		v.vp.ClearSelection()
		v.cursor = -1
	case "r":
		v.seed++
		v.engine = sim.New(v.model, v.params, v.seed)
	}
	return nil
}

// cycle moves the hover through the nodes in model order.
func (v *viewer) cycle(step int) {
	n := len(v.model.Nodes)
	if n == 0 {
		return
	}
	if v.cursor < 0 && step < 0 {
		v.cursor = 0
	}
	v.cursor = ((v.cursor+step)%n + n) % n
	v.vp.Hover(viewport.Some(v.model.Nodes[v.cursor].ID))
}

func (v *viewer) handleMouse(msg tea.MouseMsg) {
	sx, sy, onCanvas := v.toFrame(msg.X, msg.Y)

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		if onCanvas {
			v.vp.ZoomAt(1, sx, sy)
		}
	case msg.Button == tea.MouseButtonWheelDown:
		if onCanvas {
			v.vp.ZoomAt(-1, sx, sy)
		}
	case msg.Action == tea.MouseActionRelease:
		v.vp.DragEnd()
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if !onCanvas {
			return
		}
		if id, ok := v.hit(msg.X, msg.Y, sx, sy).Get(); ok {
			v.vp.Select(id)
			return
		}
		v.vp.DragStart(sx, sy)
	case msg.Action == tea.MouseActionMotion:
		if v.vp.Dragging() {
			v.vp.DragMove(sx, sy)
			return
		}
		if onCanvas {
			v.vp.Hover(v.hit(msg.X, msg.Y, sx, sy))
		}
	}
}

// hit finds the node under a terminal cell: a disc hit in frame space
// first, then whatever glyph was drawn in that cell.
func (v *viewer) hit(x, y int, sx, sy float64) viewport.Focus {
	if f := v.vp.HitTest(v.engine.Positions(), sx, sy); f.IsSome() {
		return f
	}
	if y < len(v.grid) && x < len(v.grid[y]) {
		if c := v.grid[y][x]; c.kind == cellNode {
			return viewport.Some(c.node)
		}
	}
	return viewport.None()
}

// =============================================================================
// Coordinates
// =============================================================================

func (v *viewer) canvasSize() (cols, rows int) {
	return max(v.cols, 1), max(v.rows-chromeRows, 1)
}

// toFrame maps the centre of a terminal cell to frame pixels and reports
// whether the cell lies on the canvas.
func (v *viewer) toFrame(x, y int) (float64, float64, bool) {
	cols, rows := v.canvasSize()
	sx := (float64(x) + 0.5) / float64(cols) * v.params.Width
	sy := (float64(y) + 0.5) / float64(rows) * v.params.Height
	return sx, sy, x >= 0 && x < cols && y >= 0 && y < rows
}

// toCell maps a world point through the viewport to a terminal cell.
func (v *viewer) toCell(wx, wy float64) (int, int) {
	cols, rows := v.canvasSize()
	sx, sy := v.vp.ToScreen(wx, wy)
	return int(math.Floor(sx / v.params.Width * float64(cols))), int(math.Floor(sy / v.params.Height * float64(rows)))
}

// =============================================================================
// Drawing
// =============================================================================

func (v *viewer) View() string {
	var b strings.Builder
	b.WriteString(v.drawCanvas())
	b.WriteString("\n")
	b.WriteString(v.drawPanel())
	b.WriteString("\n")
	b.WriteString(v.drawStatus())
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(truncateRunes(viewerHelp, v.cols)))
	return b.String()
}

func (v *viewer) drawCanvas() string {
	cols, rows := v.canvasSize()
	v.grid = make([][]cell, rows)
	for y := range v.grid {
		v.grid[y] = make([]cell, cols)
	}

	positions := v.engine.Positions()
	at := make(map[string][2]int, len(positions))
	for _, p := range positions {
		x, y := v.toCell(p.X, p.Y)
		at[p.ID] = [2]int{x, y}
	}

	for _, e := range v.model.Edges {
		a, okA := at[e.Source]
		b, okB := at[e.Target]
		if okA && okB {
			v.line(a[0], a[1], b[0], b[1])
		}
	}
	for _, p := range positions {
		c := at[p.ID]
		glyph := '●'
		if v.vp.Selected().Is(p.ID) {
			glyph = '◉'
		}
		v.put(c[0], c[1], cell{ch: glyph, kind: cellNode, node: p.ID, typ: p.Type})
	}
	for _, p := range positions {
		c := at[p.ID]
		label := p.Label
		if label == "" {
			label = p.ID
		}
		for i, r := range []rune(render.TruncateLabel(label)) {
			v.put(c[0]+2+i, c[1], cell{ch: r, kind: cellLabel, node: p.ID})
		}
	}

	hovered := v.vp.Hovered()
	active := v.vp.Active()
	lines := make([]string, rows)
	for y, row := range v.grid {
		var line strings.Builder
		var run []rune
		var runStyle lipgloss.Style
		var runKey string
		flush := func() {
			if len(run) > 0 {
				line.WriteString(runStyle.Render(string(run)))
				run = run[:0]
			}
		}
		for _, c := range row {
			style, key := v.cellStyle(c, hovered, active)
			if key != runKey {
				flush()
				runStyle, runKey = style, key
			}
			ch := c.ch
			if c.kind == cellEmpty {
				ch = ' '
			}
			run = append(run, ch)
		}
		flush()
		lines[y] = line.String()
	}
	return strings.Join(lines, "\n")
}

// cellStyle returns the style for c and a key identifying it, so runs of
// equally styled cells render in one call.
func (v *viewer) cellStyle(c cell, hovered, active viewport.Focus) (lipgloss.Style, string) {
	dimmed := hovered.IsSome() && c.node != "" && !hovered.Is(c.node)
	switch c.kind {
	case cellEdge:
		return styleEdge, "edge"
	case cellNode:
		if dimmed {
			return styleFaint, "faint"
		}
		s := typeStyle(c.typ)
		if active.Is(c.node) {
			s = s.Bold(true)
			return s, "node-active:" + string(c.typ)
		}
		return s, "node:" + string(c.typ)
	case cellLabel:
		if dimmed {
			return styleFaint, "faint"
		}
		if active.Is(c.node) {
			return styleActive, "label-active"
		}
		return styleLabel, "label"
	default:
		return lipgloss.NewStyle(), ""
	}
}

// put writes c unless a cell of higher rank is already there.
func (v *viewer) put(x, y int, c cell) {
	if y < 0 || y >= len(v.grid) || x < 0 || x >= len(v.grid[y]) {
		return
	}
	if v.grid[y][x].kind > c.kind || (c.kind == cellLabel && v.grid[y][x].kind == cellLabel) {
		return
	}
	v.grid[y][x] = c
}

// line draws an edge with Bresenham's algorithm, leaving the end cells to
// the nodes.
func (v *viewer) line(x0, y0, x1, y1 int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	for steps, e := 0, dx+dy; steps < 4*defaultCols*defaultRows; steps++ {
		v.put(x0, y0, cell{ch: '·', kind: cellEdge})
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (v *viewer) drawPanel() string {
	width := max(min(v.cols-2, 64), 20)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorDim).
		Width(width).
		Padding(0, 1)

	id, ok := v.vp.Active().Get()
	n, found := v.model.Node(id)
	if !ok || !found {
		return box.Render(strings.Join([]string{
			StyleDim.Render("hover a node or press tab"),
			"",
			"",
		}, "\n"))
	}

	tip := render.NewTooltip(n)
	inner := width - 2
	header := typeStyle(tip.Type).Bold(true).Render(string(tip.Type)) +
		StyleDim.Render(" · ") + styleConf.Render(fmt.Sprintf("%d%% CONF", tip.Confidence))
	if v.vp.Selected().Is(id) {
		header += StyleDim.Render(" · selected")
	}
	note := tip.Note
	if note == "" {
		note = "id " + tip.ID
	}
	return box.BorderForeground(lipgloss.Color(tip.Color)).Render(strings.Join([]string{
		header,
		styleActive.Render(truncateRunes(tip.Label, inner)),
		StyleDim.Render(truncateRunes(note, inner)),
	}, "\n"))
}

func (v *viewer) drawStatus() string {
	state := styleRunning.Render("running")
	if v.paused {
		state = stylePaused.Render("paused")
	}
	parts := []string{
		state,
		StyleDim.Render(fmt.Sprintf("tick %d", v.engine.Ticks())),
		StyleDim.Render(fmt.Sprintf("energy %.3g", v.engine.KineticEnergy())),
		StyleDim.Render(fmt.Sprintf("zoom %.2f", v.vp.Transform().Zoom)),
		StyleDim.Render(fmt.Sprintf("seed %d", v.seed)),
	}
	if v.model.Dropped > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d dropped", v.model.Dropped)))
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 2 {
		return string(r[:n])
	}
	return string(r[:n-2]) + ".."
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
