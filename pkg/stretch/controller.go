package stretch

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/modhaus/modlayout/pkg/errors"
	"github.com/modhaus/modlayout/pkg/layout"
)

// DefaultEpsilon is the crossing tolerance that keeps columns from
// flickering when the bookend rests on a column edge.
const DefaultEpsilon = 1e-3

// State is the controller's lifecycle state.
type State int

const (
	Idle State = iota
	Initialized
	Gesturing
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Gesturing:
		return "gesturing"
	}
	return "idle"
}

// Side is the end of the layout being dragged.
type Side int

const (
	SideEnd Side = iota
	SideStart
)

func (s Side) String() string {
	if s == SideStart {
		return "start"
	}
	return "end"
}

// Column is one arena entry.
type Column struct {
	ID      int
	Source  layout.PositionedColumn
	Index   int
	Offset  float64
	Depth   float64
	Visible bool
	Vanilla bool
}

// EventKind distinguishes column visibility changes.
type EventKind int

const (
	EventReveal EventKind = iota
	EventHide
)

func (k EventKind) String() string {
	if k == EventHide {
		return "hide"
	}
	return "reveal"
}

// Event reports a column whose visibility changed during a gesture.
type Event struct {
	Kind   EventKind
	Column int
}

// Config configures a Controller.
type Config struct {
	// MaxDepth caps the total depth of the stretched layout.
	MaxDepth float64
	// Epsilon is the crossing tolerance; zero means DefaultEpsilon.
	Epsilon float64
	Axis    Axis
	// Collider guards filler reveals; nil means no neighbours.
	Collider Collider
	Frame    Frame
	Logger   *log.Logger
	// OnChange is called after every reveal and hide.
	OnChange func(Event)
}

// Commit is the result of a finished gesture.
type Commit struct {
	Layout layout.ColumnLayout
	// Shift is how far the origin moved along the stretch axis.
	Shift float64
	Frame Frame
}

// Controller is the stretch state machine for one layout. It is not safe
// for concurrent use.
type Controller struct {
	cfg   Config
	state State

	systemID string
	template layout.PositionedColumn
	columns  []Column
	start    int
	mid      []int
	fillers  []int
	end      int

	side     Side
	ordered  []int
	boundary int
	blocked  bool
	frame    Frame
}

// New creates an idle Controller.
func New(cfg Config) *Controller {
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = DefaultEpsilon
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Controller{cfg: cfg, frame: cfg.Frame}
}

func illegal(op string, s State) error {
	return errors.New(errors.ErrCodeIllegalGestureState, "%s called while %s", op, s)
}

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.state }

// Frame returns the layout's current world placement.
func (c *Controller) Frame() Frame { return c.frame }

// Columns returns a copy of the column arena.
func (c *Controller) Columns() []Column { return append([]Column(nil), c.columns...) }

// Ordered returns the gesture's column order as arena ids.
func (c *Controller) Ordered() []int { return append([]int(nil), c.ordered...) }

// BoundaryIndex returns the position in Ordered of the last visible column
// before the bookend, or -1 outside a gesture.
func (c *Controller) BoundaryIndex() int {
	if c.state != Gesturing {
		return -1
	}
	return c.boundary
}

// Fillers returns the number of filler columns instantiated by Init.
func (c *Controller) Fillers() int { return len(c.fillers) }

// Init loads a layout and instantiates hidden filler columns cloned from
// template, as many as fit within MaxDepth.
func (c *Controller) Init(l layout.ColumnLayout, template layout.PositionedColumn) error {
	if c.state == Gesturing {
		return illegal("Init", c.state)
	}
	if len(l.Columns) < 2 {
		return errors.New(errors.ErrCodeInvalidInput, "stretch needs at least 2 columns, layout has %d", len(l.Columns))
	}
	if template.Depth() <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "filler column has no depth")
	}
	if len(template.Rows) != l.RowCount() {
		return errors.New(errors.ErrCodeLengthMismatch, "filler column has %d rows, layout has %d", len(template.Rows), l.RowCount())
	}

	c.reset()
	c.systemID = l.SystemID
	c.template = template

	for _, col := range l.Columns {
		c.columns = append(c.columns, Column{
			ID:      len(c.columns),
			Source:  col,
			Index:   col.Index,
			Offset:  col.Z,
			Depth:   col.Depth(),
			Visible: true,
			Vanilla: vanilla(col),
		})
	}
	c.start = 0
	c.end = len(c.columns) - 1
	for id := 1; id < c.end; id++ {
		c.mid = append(c.mid, id)
	}

	n := int(math.Floor((c.cfg.MaxDepth - l.Depth() + c.cfg.Epsilon) / template.Depth()))
	for range max(n, 0) {
		id := len(c.columns)
		c.columns = append(c.columns, Column{
			ID:      id,
			Source:  template,
			Index:   -1,
			Depth:   template.Depth(),
			Vanilla: true,
		})
		c.fillers = append(c.fillers, id)
	}

	c.state = Initialized
	c.cfg.Logger.Debug("stretch initialized", "columns", len(l.Columns), "fillers", len(c.fillers), "axis", c.cfg.Axis)
	return nil
}

// vanilla reports whether every module of a column is a filler module.
func vanilla(col layout.PositionedColumn) bool {
	for _, r := range col.Rows {
		for _, pm := range r.Modules {
			if !pm.Module.Vanilla {
				return false
			}
		}
	}
	return len(col.Rows) > 0
}

func (c *Controller) reset() {
	c.state = Idle
	c.columns = nil
	c.mid = nil
	c.fillers = nil
	c.ordered = nil
	c.boundary = 0
	c.blocked = false
}

// Cleanup discards filler columns and gesture state. It is valid in every
// state and abandons an in-flight gesture without committing it.
func (c *Controller) Cleanup() {
	c.reset()
	c.cfg.Logger.Debug("stretch cleaned up")
}

// GestureStart orders the columns for a drag of the given side and marks
// the last visible column before the bookend.
func (c *Controller) GestureStart(side Side) error {
	if c.state != Initialized {
		return illegal("GestureStart", c.state)
	}

	c.side = side
	c.blocked = false
	c.ordered = c.ordered[:0]
	switch side {
	case SideStart:
		c.ordered = append(c.ordered, c.end)
		for i := len(c.mid) - 1; i >= 0; i-- {
			c.ordered = append(c.ordered, c.mid[i])
		}
	default:
		c.ordered = append(c.ordered, c.start)
		c.ordered = append(c.ordered, c.mid...)
	}
	c.boundary = len(c.ordered) - 1
	c.ordered = append(c.ordered, c.fillers...)
	if side == SideStart {
		c.ordered = append(c.ordered, c.start)
	} else {
		c.ordered = append(c.ordered, c.end)
	}

	c.state = Gesturing
	c.cfg.Logger.Debug("gesture started", "side", side, "boundary", c.boundary)
	return nil
}

// sign maps world offsets into gesture space, where extending is positive.
func (c *Controller) sign() float64 {
	if c.side == SideStart {
		return -1
	}
	return 1
}

// lo returns the near edge of a column in gesture space.
func (c *Controller) lo(id int) float64 {
	col := c.columns[id]
	if c.side == SideStart {
		return -(col.Offset + col.Depth)
	}
	return col.Offset
}

func (c *Controller) hi(id int) float64 { return c.lo(id) + c.columns[id].Depth }

// place moves a column so its near edge sits at lo in gesture space.
func (c *Controller) place(id int, lo float64) {
	col := &c.columns[id]
	if c.side == SideStart {
		col.Offset = -(lo + col.Depth)
	} else {
		col.Offset = lo
	}
}

func (c *Controller) bookend() int { return c.ordered[len(c.ordered)-1] }

// GestureProgress moves the bookend by delta along the stretch axis and
// reveals or hides columns for every edge it crossed. Positive delta moves
// towards +axis whichever side is dragged.
func (c *Controller) GestureProgress(delta float64) error {
	if c.state != Gesturing {
		return illegal("GestureProgress", c.state)
	}

	eps := c.cfg.Epsilon
	be := c.bookend()
	pos := c.lo(be) + c.sign()*delta

	for {
		b := c.ordered[c.boundary]
		edge := c.hi(b)

		if next := c.boundary + 1; pos >= edge-eps && next < len(c.ordered)-1 && !c.blocked {
			id := c.ordered[next]
			if pos < edge+c.columns[id].Depth-eps {
				break
			}
			c.place(id, edge)
			if c.collides(id) {
				c.blocked = true
				c.cfg.Logger.Debug("stretch blocked", "column", id)
				break
			}
			c.columns[id].Visible = true
			c.boundary = next
			c.notify(Event{Kind: EventReveal, Column: id})
			continue
		}

		if pos < edge-eps && c.boundary > 0 && c.columns[b].Vanilla {
			c.columns[b].Visible = false
			c.boundary--
			c.notify(Event{Kind: EventHide, Column: b})
			continue
		}
		break
	}

	edge := c.hi(c.ordered[c.boundary])
	pos = math.Max(pos, edge)
	if c.blocked || c.boundary+1 >= len(c.ordered)-1 {
		pos = edge
	}
	c.place(be, pos)
	return nil
}

func (c *Controller) collides(id int) bool {
	if c.cfg.Collider == nil {
		return false
	}
	col := c.columns[id]
	return c.cfg.Collider.Collides(c.frame.bounds(c.cfg.Axis, col.Offset, col.Depth))
}

func (c *Controller) notify(ev Event) {
	c.cfg.Logger.Debug("stretch column", "event", ev.Kind, "column", ev.Column, "boundary", c.boundary)
	if c.cfg.OnChange != nil {
		c.cfg.OnChange(ev)
	}
}

// GestureEnd snaps the bookend flush, packs the visible columns from offset
// zero, reindexes them in depth order and re-initializes with the result.
// Dragging the start side moves the origin so that column 0 stays at
// offset zero; the move is returned as Commit.Shift.
func (c *Controller) GestureEnd() (Commit, error) {
	if c.state != Gesturing {
		return Commit{}, illegal("GestureEnd", c.state)
	}

	be := c.bookend()
	c.place(be, c.hi(c.ordered[c.boundary]))

	visible := append(append([]int(nil), c.ordered[:c.boundary+1]...), be)
	if c.side == SideStart {
		for i, j := 0, len(visible)-1; i < j; i, j = i+1, j-1 {
			visible[i], visible[j] = visible[j], visible[i]
		}
	}

	shift := layout.Round3(c.columns[visible[0]].Offset)
	columns := make([]layout.Column, len(visible))
	for i, id := range visible {
		columns[i] = c.columns[id].Source.Column
	}
	l := layout.ColumnLayout{SystemID: c.systemID, Columns: layout.PositionColumns(columns)}

	frame := c.frame.shift(c.cfg.Axis, shift)
	commit := Commit{Layout: l, Shift: shift, Frame: frame}
	c.cfg.Logger.Debug("gesture ended", "side", c.side, "columns", len(visible), "shift", shift)

	c.state = Initialized
	c.frame = frame
	if err := c.Init(l, c.template); err != nil {
		return Commit{}, err
	}
	return commit, nil
}
