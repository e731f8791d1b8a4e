package cli

import (
	"fmt"
	"math"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/modhaus/modlayout/pkg/layout"
	"github.com/modhaus/modlayout/pkg/stretch"
)

// Strip styles
var (
	stripColumnStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	stripVanillaStyle = lipgloss.NewStyle().Foreground(colorGray)
	stripBookendStyle = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	stripDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

// stripWidth is the number of cells the max depth spans.
const stripWidth = 60

// =============================================================================
// stretchModel - Interactive stretch gesture
// =============================================================================

// stretchModel is the bubbletea model driving a stretch.Controller from the
// keyboard. The controller is shared between copies of the model.
type stretchModel struct {
	ctrl     *stretch.Controller
	side     stretch.Side
	step     float64
	maxDepth float64

	last    stretchResult
	commits int
	save    bool
	err     error
}

func newStretchModel(ctrl *stretch.Controller, l layout.ColumnLayout, side stretch.Side, step, maxDepth float64) stretchModel {
	if step <= 0 {
		step = 0.6
	}
	return stretchModel{
		ctrl:     ctrl,
		side:     side,
		step:     step,
		maxDepth: maxDepth,
		last:     stretchResult{layout: l, frame: ctrl.Frame()},
	}
}

func (m stretchModel) Init() tea.Cmd {
	return nil
}

func (m stretchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.err = nil

	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.ctrl.Cleanup()
		return m, tea.Quit
	case "left", "h":
		m.drag(-m.step)
	case "right", "l":
		m.drag(m.step)
	case "tab":
		m.commit()
		if m.side == stretch.SideEnd {
			m.side = stretch.SideStart
		} else {
			m.side = stretch.SideEnd
		}
	case "enter":
		m.commit()
	case "w":
		m.commit()
		if m.err == nil {
			m.save = true
			m.ctrl.Cleanup()
			return m, tea.Quit
		}
	}
	return m, nil
}

// drag moves the selected side by delta, starting a gesture if needed.
func (m *stretchModel) drag(delta float64) {
	if m.ctrl.State() != stretch.Gesturing {
		if m.err = m.ctrl.GestureStart(m.side); m.err != nil {
			return
		}
	}
	m.err = m.ctrl.GestureProgress(delta)
}

// commit ends an in-flight gesture and keeps its result.
func (m *stretchModel) commit() {
	if m.ctrl.State() != stretch.Gesturing {
		return
	}
	c, err := m.ctrl.GestureEnd()
	if err != nil {
		m.err = err
		return
	}
	m.last = stretchResult{layout: c.Layout, frame: c.Frame}
	m.commits++
}

func (m stretchModel) result() stretchResult {
	return m.last
}

func (m stretchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Stretch Building"))
	b.WriteString("\n")
	b.WriteString(stripDimStyle.Render("←/→ drag  tab switch side  ⏎ commit  w save  q quit"))
	b.WriteString("\n\n")

	b.WriteString(m.strip())
	b.WriteString("\n\n")

	state := m.ctrl.State().String()
	if m.ctrl.State() == stretch.Gesturing {
		state = StyleHighlight.Render(state)
	}
	printRow := func(k, v string) {
		b.WriteString(lipgloss.NewStyle().Foreground(colorGray).Width(12).Render(k))
		b.WriteString(" " + StyleValue.Render(v) + "\n")
	}
	printRow("side", m.side.String())
	printRow("state", state)
	printRow("columns", fmt.Sprintf("%d (%d committed)", len(m.last.layout.Columns), m.commits))
	printRow("depth", fmt.Sprintf("%s / %s", formatLength(m.last.layout.Depth()), formatLength(m.maxDepth)))
	o := m.last.frame.Origin
	printRow("origin", fmt.Sprintf("%s, %s, %s", formatLength(o.X), formatLength(o.Y), formatLength(o.Z)))

	if m.err != nil {
		b.WriteString("\n" + styleIconError.Render(iconError) + " " + m.err.Error() + "\n")
	}
	return b.String()
}

// strip draws the visible columns along the stretch axis, scaled so that
// the max depth spans stripWidth cells.
func (m stretchModel) strip() string {
	cols := m.ctrl.Columns()
	var visible []stretch.Column
	lo := math.Inf(1)
	for _, c := range cols {
		if c.Visible {
			visible = append(visible, c)
			lo = math.Min(lo, c.Offset)
		}
	}
	if len(visible) == 0 || m.maxDepth <= 0 {
		return stripDimStyle.Render("(empty)")
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].Offset < visible[j].Offset })

	bookend := -1
	if m.ctrl.State() == stretch.Gesturing {
		ordered := m.ctrl.Ordered()
		bookend = ordered[len(ordered)-1]
	}

	scale := stripWidth / m.maxDepth
	var b strings.Builder
	used, cursor := 0, 0.0
	for _, c := range visible {
		// Gaps open up in front of the bookend while it is dragged.
		if gap := int(math.Round((c.Offset - lo - cursor) * scale)); gap > 0 {
			b.WriteString(stripDimStyle.Render(strings.Repeat("·", gap)))
			used += gap
		}
		w := max(1, int(math.Round(c.Depth*scale)))
		style := stripColumnStyle
		switch {
		case c.ID == bookend:
			style = stripBookendStyle
		case c.Vanilla:
			style = stripVanillaStyle
		}
		b.WriteString(style.Render(strings.Repeat("█", w-1) + "▏"))
		used += w
		cursor = c.Offset - lo + c.Depth
	}
	if rest := stripWidth - used; rest > 0 {
		b.WriteString(stripDimStyle.Render(strings.Repeat("─", rest)))
	}
	return b.String()
}
