package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bazbom/bazbom"
	"github.com/bazbom/bazbom/internal/license"
)

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNpmAdapter(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "package-lock.json", `{
		"name": "app",
		"version": "1.0.0",
		"lockfileVersion": 3,
		"packages": {
			"": {"name": "app", "version": "1.0.0"},
			"node_modules/lodash": {"version": "4.17.21", "license": "MIT"},
			"node_modules/lodash/node_modules/left-pad": {"version": "1.3.0", "license": "WTFPL"}
		}
	}`)

	a := newNpm(&license.Cache{})
	got, err := a.Scan(context.Background(), dir, "package-lock.json")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d packages, want 2: %+v", len(got), got)
	}
	if got[0].Name != "left-pad" || got[0].Direct {
		t.Errorf("nested dep parsed wrong: %+v", got[0])
	}
	if got[1].Name != "lodash" || !got[1].Direct || got[1].License != "MIT" {
		t.Errorf("top-level dep parsed wrong: %+v", got[1])
	}
}

func TestGoModulesAdapter(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "go.mod", `module example.com/app

go 1.23

require (
	github.com/google/uuid v1.6.0
	golang.org/x/sync v0.19.0 // indirect
)
`)

	a := newGoModules(&license.Cache{})
	got, err := a.Scan(context.Background(), dir, "go.mod")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d packages, want 2: %+v", len(got), got)
	}
	byName := map[string]bazbom.Package{}
	for _, p := range got {
		byName[p.Name] = p
	}
	if !byName["github.com/google/uuid"].Direct {
		t.Error("expected github.com/google/uuid to be direct")
	}
	if byName["golang.org/x/sync"].Direct {
		t.Error("expected golang.org/x/sync to be indirect")
	}
}

func TestComposerAdapter(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "composer.lock", `{
		"packages": [{"name": "monolog/monolog", "version": "2.9.1", "license": ["MIT"]}],
		"packages-dev": [{"name": "phpunit/phpunit", "version": "9.6.0"}]
	}`)

	a := newComposer(&license.Cache{})
	got, err := a.Scan(context.Background(), dir, "composer.lock")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d packages, want 2", len(got))
	}
	if got[0].License != "MIT" {
		t.Errorf("got license %q, want MIT", got[0].License)
	}
}

func TestCargoAdapter(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "Cargo.lock", `# This file is automatically generated
version = 3

[[package]]
name = "serde"
version = "1.0.195"
source = "registry+https://github.com/rust-lang/crates.io-index"

[[package]]
name = "libc"
version = "0.2.153"
`)

	a := newCargo(&license.Cache{})
	got, err := a.Scan(context.Background(), dir, "Cargo.lock")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "libc" || got[1].Name != "serde" {
		t.Fatalf("unexpected packages: %+v", got)
	}
}

func TestRubyGemsAdapter(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "Gemfile.lock", `GEM
  remote: https://rubygems.org/
  specs:
    rack (3.0.8)
    rake (13.1.0)
      rack (>= 3.0)

PLATFORMS
  ruby

DEPENDENCIES
  rake

BUNDLED WITH
   2.5.3
`)

	a := newRubyGems(&license.Cache{})
	got, err := a.Scan(context.Background(), dir, "Gemfile.lock")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d packages, want 2: %+v", len(got), got)
	}
}

func TestPyPIAdapter(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "requirements.txt", `# comment
requests==2.31.0
flask>=2.0  # unresolved range, skipped
click==8.1.7; python_version >= "3.7"
`)

	a := newPyPI(&license.Cache{})
	got, err := a.Scan(context.Background(), dir, "requirements.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d packages, want 2: %+v", len(got), got)
	}

	pt, ok := a.(PartialTransitiveAdapter)
	if !ok || !pt.TransitivesUnresolved() {
		t.Error("pypi adapter must report TransitivesUnresolved: requirements.txt never carries a resolved transitive closure")
	}
}

func TestNpmAdapterIsNotPartialTransitive(t *testing.T) {
	a := newNpm(&license.Cache{})
	if _, ok := a.(PartialTransitiveAdapter); ok {
		t.Error("npm adapter resolves transitives from package-lock.json and should not implement PartialTransitiveAdapter")
	}
}
