package cli

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/modhaus/modlayout/pkg/cache"
	"github.com/modhaus/modlayout/pkg/catalogue/cataloguetest"
	"github.com/modhaus/modlayout/pkg/errors"
	"github.com/modhaus/modlayout/pkg/layout"
	"github.com/modhaus/modlayout/pkg/pipeline"
	"github.com/modhaus/modlayout/pkg/store"
	"github.com/modhaus/modlayout/pkg/stretch"
)

func TestParseBox(t *testing.T) {
	tests := []struct {
		in      string
		want    stretch.Box
		wantErr bool
	}{
		{"0,0,12,5,10,20", stretch.Box{Min: stretch.Vec3{Z: 12}, Max: stretch.Vec3{X: 5, Y: 10, Z: 20}}, false},
		{" -1, 0 ,0,1,1,1", stretch.Box{Min: stretch.Vec3{X: -1}, Max: stretch.Vec3{X: 1, Y: 1, Z: 1}}, false},
		{"1,2,3", stretch.Box{}, true},
		{"a,0,0,1,1,1", stretch.Box{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseBox(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidInput) {
					t.Errorf("error = %v, want INVALID_INPUT", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("parseBox = %+v, %v; want %+v", got, err, tt.want)
			}
		})
	}
}

func TestParseSide(t *testing.T) {
	tests := []struct {
		side    string
		extend  float64
		want    stretch.Side
		wantErr bool
	}{
		{"", 2, stretch.SideEnd, false},
		{"", -2, stretch.SideStart, false},
		{"END", -2, stretch.SideEnd, false},
		{"start", 2, stretch.SideStart, false},
		{"left", 0, 0, true},
	}
	for _, tt := range tests {
		got, err := parseSide(tt.side, tt.extend)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseSide(%q, %v) = %v, %v", tt.side, tt.extend, got, err)
		}
	}
}

func TestFrameOf(t *testing.T) {
	l := buildFixture(t, "G1", "T1")
	b := &store.Building{Origin: store.Origin{X: 1, Y: 2, Z: 3}}
	f := frameOf(b, l)
	if f.Origin != (stretch.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("origin = %+v", f.Origin)
	}
	if f.Width != 4.8 || f.Height != cataloguetest.LevelHeights["G1"]+cataloguetest.LevelHeights["T1"] {
		t.Errorf("frame = %+v", f)
	}
}

func buildFixture(t *testing.T, levels ...string) layout.ColumnLayout {
	t.Helper()
	r := pipeline.NewRunner(cataloguetest.Snapshot(), cache.NewNullCache(), nil, log.New(io.Discard))
	l, err := r.BuildLayout(context.Background(), pipeline.Options{
		SystemID: cataloguetest.SystemID,
		DNAs:     cataloguetest.Building("S1", levels...),
	})
	if err != nil {
		t.Fatalf("BuildLayout: %v", err)
	}
	return l
}

func newTestModel(t *testing.T, cfg stretch.Config) stretchModel {
	t.Helper()
	l := buildFixture(t, "G1")
	r := pipeline.NewRunner(cataloguetest.Snapshot(), cache.NewNullCache(), nil, log.New(io.Discard))
	cfg.Logger = log.New(io.Discard)
	ctrl, err := r.NewStretchController(context.Background(), l, cfg, pipeline.Options{})
	if err != nil {
		t.Fatalf("NewStretchController: %v", err)
	}
	return newStretchModel(ctrl, l, stretch.SideEnd, 1.25, pipeline.DefaultMaxDepth)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m stretchModel, keys ...string) (stretchModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(stretchModel)
	}
	return m, cmd
}

func TestStretchModel(t *testing.T) {
	tests := []struct {
		name        string
		keys        []string
		wantColumns int
		wantSave    bool
		wantQuit    bool
		wantShift   float64
	}{
		{"no gesture", nil, 3, false, false, 0},
		{"drag without commit", []string{"right", "right"}, 3, false, false, 0},
		{"drag end and commit", []string{"right", "right", "enter"}, 5, false, false, 0},
		{"drag back hides", []string{"right", "right", "left", "enter"}, 4, false, false, 0},
		{"tab commits and switches", []string{"right", "tab", "left", "enter"}, 5, false, false, -1.2},
		{"save", []string{"right", "right", "w"}, 5, true, true, 0},
		{"quit", []string{"right", "right", "enter", "q"}, 5, false, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, cmd := press(newTestModel(t, stretch.Config{}), tt.keys...)
			if m.err != nil {
				t.Fatalf("model error: %v", m.err)
			}
			r := m.result()
			if got := len(r.layout.Columns); got != tt.wantColumns {
				t.Errorf("columns = %d, want %d", got, tt.wantColumns)
			}
			if m.save != tt.wantSave {
				t.Errorf("save = %v, want %v", m.save, tt.wantSave)
			}
			if (cmd != nil) != tt.wantQuit {
				t.Errorf("quit = %v, want %v", cmd != nil, tt.wantQuit)
			}
			if d := r.frame.Origin.Z - tt.wantShift; d > 1e-9 || d < -1e-9 {
				t.Errorf("origin z = %v, want %v", r.frame.Origin.Z, tt.wantShift)
			}
		})
	}
}

func TestStretchModelBlocked(t *testing.T) {
	wall := stretch.Boxes{{Min: stretch.Vec3{X: -10, Y: -10, Z: 9}, Max: stretch.Vec3{X: 10, Y: 10, Z: 20}}}
	m, _ := press(newTestModel(t, stretch.Config{Collider: wall, Frame: stretch.Frame{Width: 4.8, Height: 3}}), "right", "right", "enter")
	if got := len(m.result().layout.Columns); got != 3 {
		t.Errorf("columns = %d, want 3 with the neighbour in the way", got)
	}
}

func TestStretchModelView(t *testing.T) {
	m, _ := press(newTestModel(t, stretch.Config{}), "right")
	view := m.View()
	for _, want := range []string{"Stretch Building", "gesturing", "end", "█"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}
