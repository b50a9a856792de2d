package ecosystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bazbom/bazbom"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDetectMixedWorkspace(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "go.mod")
	touch(t, filepath.Join(root, "frontend"), "package-lock.json")
	touch(t, filepath.Join(root, "service"), "pom.xml")
	touch(t, filepath.Join(root, "vendor"), "package-lock.json")

	got, err := Detect(context.Background(), root, []string{"vendor"})
	if err != nil {
		t.Fatal(err)
	}

	want := []Detection{
		{Ecosystem: bazbom.EcosystemGoModules, Dir: ".", ManifestFile: "go.mod"},
		{Ecosystem: bazbom.EcosystemNpm, Dir: "frontend", ManifestFile: "package-lock.json"},
		{Ecosystem: bazbom.EcosystemMaven, Dir: "service", ManifestFile: "pom.xml"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Detect() mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectIgnoresVendorDirsByDefault(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "go.mod")
	touch(t, filepath.Join(root, "vendor", "example.com", "dep"), "go.mod")
	touch(t, filepath.Join(root, "frontend", "node_modules", "left-pad"), "package-lock.json")
	touch(t, filepath.Join(root, "frontend"), "package-lock.json")

	got, err := Detect(context.Background(), root, nil)
	if err != nil {
		t.Fatal(err)
	}

	want := []Detection{
		{Ecosystem: bazbom.EcosystemGoModules, Dir: ".", ManifestFile: "go.mod"},
		{Ecosystem: bazbom.EcosystemNpm, Dir: "frontend", ManifestFile: "package-lock.json"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Detect() mismatch (-want +got), vendor/node_modules should be skipped with no excludes passed:\n%s", diff)
	}
}

func TestDetectMissingRoot(t *testing.T) {
	_, err := Detect(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"), nil)
	if err == nil {
		t.Fatal("expected an error for a missing workspace root")
	}
	if kind, ok := bazbom.KindOf(err); !ok || kind != bazbom.ErrNotFound {
		t.Errorf("got error kind %v, want %v", kind, bazbom.ErrNotFound)
	}
}

func TestDetectDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b"), "Cargo.lock")
	touch(t, filepath.Join(root, "a"), "Gemfile.lock")

	first, err := Detect(context.Background(), root, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Detect(context.Background(), root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Detect() is not deterministic across runs (-first +second):\n%s", diff)
	}
	if first[0].Dir != "a" {
		t.Errorf("expected dir %q to sort first, got %q", "a", first[0].Dir)
	}
}
