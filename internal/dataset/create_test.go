package dataset

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/zulandar/caravan/internal/gitrepo"
)

// gitIdentity sets a commit identity so test commits succeed on bare CI
// machines.
func gitIdentity(t *testing.T, dir string) {
	t.Helper()
	for _, kv := range [][2]string{
		{"user.name", "Test"},
		{"user.email", "test@test.com"},
	} {
		cmd := exec.Command("git", "config", kv[0], kv[1])
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git config %v: %s\n%s", kv, err, out)
		}
	}
}

// createPlain creates a no-annex dataset at dir without committing, sets the
// git identity, then commits. Splitting the commit out keeps the tests
// independent of the machine's global git config.
func createPlain(t *testing.T, dir string, opts CreateOpts) *Dataset {
	t.Helper()
	opts.NoAnnex = true
	opts.NoCommit = true
	ds, err := Create(dir, opts)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	gitIdentity(t, ds.Path)
	if err := gitrepo.Commit(ds.Path, "Initial commit", true); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return ds
}

func TestCreate_NonEmptyWithoutForce(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "junk"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Create(dir, CreateOpts{NoAnnex: true, NoCommit: true})
	if err == nil {
		t.Fatal("expected error creating in a non-empty directory")
	}
	// No side effects: still not a repo.
	if gitrepo.IsRepo(dir) {
		t.Error("directory was initialized despite the error")
	}
}

func TestCreate_NonEmptyWithForce(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "junk"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	ds := createPlain(t, dir, CreateOpts{Force: true})
	if !ds.IsInstalled() {
		t.Error("IsInstalled = false after forced create")
	}
}

func TestCreate_DescriptionWithNoAnnex(t *testing.T) {
	_, err := Create(t.TempDir(), CreateOpts{NoAnnex: true, Description: "my copy"})
	if err == nil {
		t.Fatal("expected error for description together with no-annex")
	}
}

func TestCreate_AnnexOptsWithNoAnnex(t *testing.T) {
	_, err := Create(t.TempDir(), CreateOpts{NoAnnex: true, AnnexVersion: 8})
	if err == nil {
		t.Fatal("expected error for annex version together with no-annex")
	}
}

func TestCreate_UnknownSuperMode(t *testing.T) {
	_, err := Create(t.TempDir(), CreateOpts{AddToSuper: "maybe"})
	if err == nil {
		t.Fatal("expected error for unknown registration mode")
	}
}

func TestCreate_MintsID(t *testing.T) {
	ds := createPlain(t, t.TempDir(), CreateOpts{})
	id, err := ds.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if id == "" {
		t.Fatal("dataset ID is empty")
	}
}

func TestCreate_RecreateResetsID(t *testing.T) {
	dir := t.TempDir()
	ds := createPlain(t, dir, CreateOpts{})
	first, _ := ds.ID()

	ds = createPlain(t, dir, CreateOpts{Force: true})
	second, err := ds.ID()
	if err != nil {
		t.Fatalf("ID after re-create: %v", err)
	}
	if second == "" || second == first {
		t.Errorf("re-created ID = %q, want a fresh value != %q", second, first)
	}
}

func TestCreate_MetadataTypes(t *testing.T) {
	ds := createPlain(t, t.TempDir(), CreateOpts{MetadataTypes: []string{"bids", "dicom"}})
	types, err := ds.MetadataTypes()
	if err != nil {
		t.Fatalf("MetadataTypes: %v", err)
	}
	if len(types) != 2 || types[0] != "bids" || types[1] != "dicom" {
		t.Errorf("MetadataTypes = %v, want [bids dicom]", types)
	}
}

func TestCreate_NoSuperdatasetMandatory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "child")
	_, err := Create(dir, CreateOpts{NoAnnex: true, NoCommit: true, AddToSuper: SuperYes})
	if err == nil {
		t.Fatal("expected error when registration is mandatory and no superdataset exists")
	}
}

func TestCreate_NoSuperdatasetAuto(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "child")
	ds, err := Create(dir, CreateOpts{NoAnnex: true, NoCommit: true, AddToSuper: SuperAuto})
	if err != nil {
		t.Fatalf("Create with auto registration: %v", err)
	}
	if !gitrepo.IsRepo(ds.Path) {
		t.Error("dataset was not initialized in auto mode")
	}
}

func TestCreateSubdataset_OutsidePath(t *testing.T) {
	super := createPlain(t, t.TempDir(), CreateOpts{})
	_, err := super.CreateSubdataset(t.TempDir(), CreateOpts{NoAnnex: true, NoCommit: true})
	if err == nil {
		t.Fatal("expected error for a child outside the superdataset")
	}
}

func TestSuperdataset_Discovery(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ConfigDir), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ConfigFile), nil, 0644); err != nil {
		t.Fatal(err)
	}

	child, err := New(filepath.Join(root, "a", "b"))
	if err != nil {
		t.Fatal(err)
	}
	sds := child.Superdataset()
	if sds == nil {
		t.Fatal("Superdataset = nil, want discovery of root")
	}
	if sds.Path != root {
		t.Errorf("Superdataset.Path = %q, want %q", sds.Path, root)
	}
}

func TestSuperdataset_None(t *testing.T) {
	ds, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if sds := ds.Superdataset(); sds != nil {
		t.Errorf("Superdataset = %v, want nil", sds)
	}
}

func TestRequire(t *testing.T) {
	ds := createPlain(t, t.TempDir(), CreateOpts{})
	sub := filepath.Join(ds.Path, "deep", "dir")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	found, err := Require(sub, "testing")
	if err != nil {
		t.Fatalf("Require: %v", err)
	}
	if found.Path != ds.Path {
		t.Errorf("Require.Path = %q, want %q", found.Path, ds.Path)
	}
}

func TestRequire_NoDataset(t *testing.T) {
	_, err := Require(t.TempDir(), "testing")
	if err == nil {
		t.Fatal("expected error when no dataset exists above the path")
	}
}

func TestCreate_Annex(t *testing.T) {
	if !gitrepo.AnnexAvailable() {
		t.Skip("git-annex not installed")
	}
	dir := t.TempDir()
	ds, err := Create(dir, CreateOpts{NoCommit: true, Description: "test copy"})
	if err != nil {
		t.Fatalf("Create with annex: %v", err)
	}
	if !gitrepo.IsAnnex(ds.Path) {
		t.Error("IsAnnex = false after annex create")
	}
	data, err := os.ReadFile(filepath.Join(ds.Path, ".gitattributes"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "* annex.backend=MD5E\n" {
		t.Errorf(".gitattributes = %q, want default backend line", data)
	}
}

// commitIdentityEnv sets a commit identity through the environment, so
// commits made inside Create succeed on bare CI machines.
func commitIdentityEnv(t *testing.T) {
	t.Helper()
	for _, kv := range [][2]string{
		{"GIT_AUTHOR_NAME", "Test"},
		{"GIT_AUTHOR_EMAIL", "test@test.com"},
		{"GIT_COMMITTER_NAME", "Test"},
		{"GIT_COMMITTER_EMAIL", "test@test.com"},
	} {
		t.Setenv(kv[0], kv[1])
	}
}

func TestCreate_AddToSuperRegistersSubmodule(t *testing.T) {
	commitIdentityEnv(t)
	superDir := filepath.Join(t.TempDir(), "super")
	super, err := Create(superDir, CreateOpts{NoAnnex: true})
	if err != nil {
		t.Fatalf("Create super: %v", err)
	}

	childDir := filepath.Join(superDir, "sub", "child")
	child, err := Create(childDir, CreateOpts{NoAnnex: true, AddToSuper: SuperYes})
	if err != nil {
		t.Fatalf("Create child with registration: %v", err)
	}
	if child.Path != childDir {
		t.Errorf("child.Path = %q, want %q", child.Path, childDir)
	}
	if !child.IsInstalled() {
		t.Error("IsInstalled = false for registered child")
	}

	subs, err := super.Subdatasets()
	if err != nil {
		t.Fatalf("Subdatasets: %v", err)
	}
	if len(subs) != 1 || subs[0] != "sub/child" {
		t.Errorf("Subdatasets = %v, want [sub/child]", subs)
	}
}

func TestCreate_AddToSuperWithoutCommit(t *testing.T) {
	// The child must end up committed regardless, or submodule
	// registration in the superdataset has nothing to point at.
	commitIdentityEnv(t)
	superDir := filepath.Join(t.TempDir(), "super")
	super, err := Create(superDir, CreateOpts{NoAnnex: true})
	if err != nil {
		t.Fatalf("Create super: %v", err)
	}

	childDir := filepath.Join(superDir, "child")
	if _, err := Create(childDir, CreateOpts{NoAnnex: true, NoCommit: true, AddToSuper: SuperYes}); err != nil {
		t.Fatalf("Create child with no-commit: %v", err)
	}

	subs, err := super.Subdatasets()
	if err != nil {
		t.Fatalf("Subdatasets: %v", err)
	}
	if len(subs) != 1 || subs[0] != "child" {
		t.Errorf("Subdatasets = %v, want [child]", subs)
	}
}
