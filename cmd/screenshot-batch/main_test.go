package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/screenwiper/constants"
)

func TestParseCategories(t *testing.T) {
	tests := []struct {
		raw     string
		want    []constants.CategoryID
		wantErr bool
	}{
		{raw: "", want: nil},
		{raw: "place", want: []constants.CategoryID{constants.CategoryPlace}},
		{raw: " event , 3 ", want: []constants.CategoryID{constants.CategoryEvent, constants.CategoryMiscellaneous}},
		{raw: "store,misc", want: []constants.CategoryID{constants.CategoryPlace, constants.CategoryMiscellaneous}},
		{raw: "place,receipt", wantErr: true},
		{raw: "7", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseCategories(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCategories(%q) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseCategories(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestSeenFilesRequeuesRewrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, base, base); err != nil {
		t.Fatal(err)
	}

	seen := newSeenFiles()
	steps := []struct {
		name  string
		mtime time.Time
		want  bool
	}{
		{name: "first event", want: true},
		{name: "duplicate write event", want: false},
		{name: "rewritten later", mtime: base.Add(time.Minute), want: true},
		{name: "duplicate after rewrite", want: false},
	}
	for _, st := range steps {
		if !st.mtime.IsZero() {
			if err := os.Chtimes(path, st.mtime, st.mtime); err != nil {
				t.Fatal(err)
			}
		}
		got, err := seen.observe(path)
		if err != nil {
			t.Fatalf("%s: %v", st.name, err)
		}
		if got != st.want {
			t.Errorf("%s: observe = %v, want %v", st.name, got, st.want)
		}
	}

	if _, err := seen.observe(filepath.Join(t.TempDir(), "gone.png")); err == nil {
		t.Error("observe of missing file: want error")
	}
}
