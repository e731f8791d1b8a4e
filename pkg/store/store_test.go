package store

import (
	"bytes"
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/modhaus/modlayout/pkg/catalogue/cataloguetest"
	"github.com/modhaus/modlayout/pkg/errors"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// tick makes the store clock advance one second per call.
func tick(s *SQLiteStore) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	in := NewBuilding("skylark", "north wing", cataloguetest.Building("S1", "G1"))
	in.Origin = Origin{X: 1, Y: 0, Z: 2.5}

	saved, err := s.Save(ctx, in)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID != in.ID {
		t.Errorf("id = %q, want %q", saved.ID, in.ID)
	}
	if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	got, err := s.Get(ctx, in.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SystemID != "skylark" || got.Name != "north wing" {
		t.Errorf("got %+v", got)
	}
	if !reflect.DeepEqual(got.DNAs, in.DNAs) {
		t.Errorf("dnas = %v, want %v", got.DNAs, in.DNAs)
	}
	if got.Origin != in.Origin {
		t.Errorf("origin = %+v, want %+v", got.Origin, in.Origin)
	}
	if !got.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, saved.CreatedAt)
	}
}

func TestSaveAssignsID(t *testing.T) {
	s := newTestStore(t)
	b, err := s.Save(context.Background(), &Building{SystemID: "skylark", DNAs: []string{"S1-E-G1-A-2"}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if b.ID == "" {
		t.Error("expected generated id")
	}
}

func TestSaveReplaceKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tick(s)

	b := NewBuilding("skylark", "a", []string{"S1-E-G1-A-2"})
	first, err := s.Save(ctx, b)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	b.Name = "b"
	second, err := s.Save(ctx, b)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("updated_at did not advance: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
	got, _ := s.Get(ctx, b.ID)
	if got.Name != "b" {
		t.Errorf("name = %q, want b", got.Name)
	}
}

func TestSaveInvalid(t *testing.T) {
	s := newTestStore(t)
	tests := []struct {
		name string
		b    *Building
		code errors.Code
	}{
		{"nil", nil, errors.ErrCodeInvalidInput},
		{"no system", &Building{DNAs: []string{"x"}}, errors.ErrCodeInvalidInput},
		{"no dnas", &Building{SystemID: "skylark"}, errors.ErrCodeMalformedInput},
		{"blank dna", &Building{SystemID: "skylark", DNAs: []string{" "}}, errors.ErrCodeMalformedInput},
		{"bad id", &Building{ID: "nope", SystemID: "skylark", DNAs: []string{"x"}}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(context.Background(), tt.b)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tick(s)

	a, _ := s.Save(ctx, NewBuilding("skylark", "a", []string{"S1-E-G1-A-2"}))
	b, _ := s.Save(ctx, NewBuilding("other", "b", []string{"S1-E-G1-A-2"}))
	c, _ := s.Save(ctx, NewBuilding("skylark", "c", []string{"S1-E-G1-A-2"}))

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"all", ListOptions{}, []string{c.ID, b.ID, a.ID}},
		{"system", ListOptions{SystemID: "skylark"}, []string{c.ID, a.ID}},
		{"limit", ListOptions{Limit: 1}, []string{c.ID}},
		{"none", ListOptions{SystemID: "missing"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.opts)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			var ids []string
			for _, g := range got {
				ids = append(ids, g.ID)
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b, _ := s.Save(ctx, NewBuilding("skylark", "a", []string{"S1-E-G1-A-2"}))
	if err := s.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, b.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("get after delete: %v, want NOT_FOUND", err)
	}
	if err := s.Delete(ctx, b.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("second delete: %v, want NOT_FOUND", err)
	}
}

func TestUpdateDNAs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tick(s)

	b, _ := s.Save(ctx, NewBuilding("skylark", "a", cataloguetest.Building("S1", "G1")))
	dnas := cataloguetest.Building("S2", "G1")
	origin := Origin{Z: -1.2}

	got, err := s.UpdateDNAs(ctx, b.ID, dnas, origin)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !reflect.DeepEqual(got.DNAs, dnas) {
		t.Errorf("dnas = %v, want %v", got.DNAs, dnas)
	}
	if got.Origin != origin {
		t.Errorf("origin = %+v, want %+v", got.Origin, origin)
	}
	if !got.UpdatedAt.After(b.UpdatedAt) {
		t.Errorf("updated_at did not advance")
	}

	if _, err := s.UpdateDNAs(ctx, "00000000-0000-0000-0000-000000000000", dnas, origin); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing: %v, want NOT_FOUND", err)
	}
	if _, err := s.UpdateDNAs(ctx, b.ID, nil, origin); !errors.Is(err, errors.ErrCodeMalformedInput) {
		t.Errorf("empty: %v, want MALFORMED_INPUT", err)
	}
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "buildings.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.Save(ctx, NewBuilding("skylark", "a", []string{"S1-E-G1-A-2"}))
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.Get(ctx, b.ID); err != nil {
		t.Errorf("get after reopen: %v", err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	b := NewBuilding("skylark", "north wing", cataloguetest.Building("S1", "G1", "T1"))
	b.Origin = Origin{X: 3, Z: 4.8}

	for _, ext := range []string{".toml", ".yaml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "building"+ext)
			if err := WriteFile(b, path); err != nil {
				t.Fatalf("write: %v", err)
			}
			got, err := ReadFile(path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if got.ID != b.ID || got.SystemID != b.SystemID || got.Name != b.Name {
				t.Errorf("got %+v", got)
			}
			if !reflect.DeepEqual(got.DNAs, b.DNAs) {
				t.Errorf("dnas = %v, want %v", got.DNAs, b.DNAs)
			}
			if got.Origin != b.Origin {
				t.Errorf("origin = %+v, want %+v", got.Origin, b.Origin)
			}
		})
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		raw  string
		code errors.Code
	}{
		{"unsupported", ".xml", "<b/>", errors.ErrCodeInvalidFormat},
		{"bad toml", ".toml", "system_id = ", errors.ErrCodeInvalidFormat},
		{"missing dnas", ".toml", `system_id = "skylark"`, errors.ErrCodeMalformedInput},
		{"missing system", ".json", `{"dnas": ["S1-E-G1-A-2"]}`, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewBufferString(tt.raw), tt.ext)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing file: %v, want NOT_FOUND", err)
	}
}
