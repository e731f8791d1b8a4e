package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modhaus/modlayout/pkg/catalogue"
	"github.com/modhaus/modlayout/pkg/catalogue/cataloguetest"
	"github.com/modhaus/modlayout/pkg/errors"
	"github.com/modhaus/modlayout/pkg/layout"
	"github.com/modhaus/modlayout/pkg/store"
)

// testEnv points every XDG directory at a temp dir, writes the fixture
// catalogue and captures command output.
type testEnv struct {
	t         *testing.T
	dir       string
	catalogue string
	out       *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	for _, env := range []string{"XDG_CACHE_HOME", "XDG_CONFIG_HOME", "XDG_DATA_HOME"} {
		t.Setenv(env, filepath.Join(dir, strings.ToLower(env)))
	}

	path := filepath.Join(dir, "skylark.json")
	if err := catalogue.WriteFile(cataloguetest.Data(), path); err != nil {
		t.Fatal(err)
	}

	out := &bytes.Buffer{}
	oldOut, oldSpin := stdout, spinnerOut
	stdout, spinnerOut = out, io.Discard
	t.Cleanup(func() { stdout, spinnerOut = oldOut, oldSpin })

	return &testEnv{t: t, dir: dir, catalogue: path, out: out}
}

// run executes one command line against a fresh CLI and returns its output.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	e.out.Reset()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--catalogue", e.catalogue, "--system", cataloguetest.SystemID}, args...))
	err := root.ExecuteContext(context.Background())
	return e.out.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("%v: %v", args, err)
	}
	return out
}

// dnaFlags turns a DNA list into repeated --dna flags.
func dnaFlags(dnas []string) []string {
	var args []string
	for _, d := range dnas {
		args = append(args, "--dna", d)
	}
	return args
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"build", "dnas", "mutate", "stretch", "serve", "catalogue", "building", "cache", "completion"}
	for _, name := range want {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := root.Find([]string{name})
			if err != nil || cmd.Name() != name {
				t.Errorf("subcommand %q not registered", name)
			}
		})
	}
}

func TestBuildJSON(t *testing.T) {
	e := newTestEnv(t)
	args := append([]string{"build", "--no-cache", "--json"}, dnaFlags(cataloguetest.Building("S1", "G1", "T1"))...)
	out := e.mustRun(args...)

	var got layout.Export
	if err := json.NewDecoder(strings.NewReader(out)).Decode(&got); err != nil {
		t.Fatalf("decode layout: %v\n%s", err, out)
	}
	if len(got.Columns) != 3 || got.Depth != 10.8 {
		t.Errorf("columns = %d, depth = %v; want 3, 10.8", len(got.Columns), got.Depth)
	}
}

func TestDnasRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	dnas := cataloguetest.Building("S1", "G1", "T1")
	out := e.mustRun(append([]string{"dnas", "--no-cache"}, dnaFlags(dnas)...)...)
	if got := lines(out); strings.Join(got, ",") != strings.Join(dnas, ",") {
		t.Errorf("dnas = %v, want %v", got, dnas)
	}
}

func TestBuildingInputErrors(t *testing.T) {
	e := newTestEnv(t)
	file := filepath.Join(e.dir, "b.toml")
	if err := store.WriteFile(store.NewBuilding(cataloguetest.SystemID, "b", cataloguetest.Row("S1", "G1")), file); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"none", []string{"build"}, errors.ErrCodeInvalidInput},
		{"two sources", []string{"build", file, "--dna", "S1-E-G1-A-2"}, errors.ErrCodeInvalidInput},
		{"missing file", []string{"build", filepath.Join(e.dir, "none.toml")}, errors.ErrCodeNotFound},
		{"unknown id", []string{"build", "--id", "0b9f3f64-2a55-4bd5-9d55-3f0c7a4f6c11"}, errors.ErrCodeNotFound},
		{"unknown dna", []string{"build", "--no-cache", "--dna", "S9-E-G1-A-2"}, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.run(tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestMutateSection(t *testing.T) {
	e := newTestEnv(t)
	dnas := cataloguetest.Building("S1", "G1")

	out := e.mustRun(append([]string{"mutate", "section", "S1", "--no-cache"}, dnaFlags(dnas)...)...)
	if !strings.Contains(out, "S3") || !strings.Contains(out, "S2") {
		t.Errorf("expected S2 and S3 alternatives, got:\n%s", out)
	}

	out = e.mustRun(append([]string{"mutate", "section", "S1", "--no-cache", "--apply", "1"}, dnaFlags(dnas)...)...)
	for _, d := range lines(out) {
		if !strings.HasPrefix(d, "S3-") {
			t.Errorf("applied dna %q, want an S3 module", d)
		}
	}

	if _, err := e.run(append([]string{"mutate", "section", "S1", "--no-cache", "--apply", "9"}, dnaFlags(dnas)...)...); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("--apply 9 error = %v, want INVALID_INPUT", err)
	}
}

func TestStretchExtend(t *testing.T) {
	e := newTestEnv(t)
	dnas := cataloguetest.Building("S1", "G1")

	out := e.mustRun(append([]string{"stretch", "--no-cache", "--extend", "2.5"}, dnaFlags(dnas)...)...)
	got := lines(out)
	want := []string{"S1-E-G1-A-2", "S1-M-G1-A-2", "S1-M-G1-A-3", "S1-M-G1-A-1", "S1-M-G1-A-1", "S1-E-G1-A-2"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("stretched dnas = %v, want %v", got, want)
	}
}

func TestStretchStoredBuilding(t *testing.T) {
	e := newTestEnv(t)
	dnas := cataloguetest.Building("S1", "G1")
	e.mustRun(append([]string{"building", "save", "--no-cache", "--name", "north"}, dnaFlags(dnas)...)...)

	s, err := store.NewSQLiteStore(filepath.Join(e.dir, "xdg_data_home", appName, "buildings.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	list, err := s.List(context.Background(), store.ListOptions{})
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
	id := list[0].ID

	e.mustRun("stretch", "--no-cache", "--id", id, "--extend=-2.5")
	b, err := s.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.DNAs) != 6 {
		t.Errorf("stored dnas = %v, want 6 modules", b.DNAs)
	}
	if math.Abs(b.Origin.Z+2.4) > 1e-9 {
		t.Errorf("origin z = %v, want -2.4 after a start-side stretch", b.Origin.Z)
	}

	out := e.mustRun("building", "list")
	if !strings.Contains(out, "north") || !strings.Contains(out, id) {
		t.Errorf("list output missing building:\n%s", out)
	}
	e.mustRun("building", "delete", id)
	if _, err := e.run("building", "show", id); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("show after delete error = %v, want NOT_FOUND", err)
	}
}

func TestBuildingExportAndSave(t *testing.T) {
	e := newTestEnv(t)
	file := filepath.Join(e.dir, "west.yaml")
	b := store.NewBuilding(cataloguetest.SystemID, "west", cataloguetest.Building("S3", "G1"))
	if err := store.WriteFile(b, file); err != nil {
		t.Fatal(err)
	}

	e.mustRun("building", "save", "--no-cache", file)
	out := e.mustRun("building", "show", b.ID)
	if !strings.Contains(out, "west") || !strings.Contains(out, "S3-E-G1-A-2") {
		t.Errorf("show output:\n%s", out)
	}

	exported := filepath.Join(e.dir, "out.json")
	e.mustRun("building", "export", b.ID, "-o", exported)
	got, err := store.ReadFile(exported)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != b.ID || len(got.DNAs) != len(b.DNAs) {
		t.Errorf("exported = %+v", got)
	}
}

func TestCatalogueList(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun("catalogue", "list")
	if !strings.Contains(out, cataloguetest.SystemID) {
		t.Errorf("catalogue list output:\n%s", out)
	}
}

func TestCacheClear(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(append([]string{"build"}, dnaFlags(cataloguetest.Building("S1", "G1"))...)...)

	out := e.mustRun("cache", "clear")
	if !strings.Contains(out, "Cleared") || strings.Contains(out, "Cleared 0") {
		t.Errorf("cache clear output:\n%s", out)
	}
	out = e.mustRun("cache", "clear")
	if !strings.Contains(out, "Cleared 0") {
		t.Errorf("second clear output:\n%s", out)
	}
}
