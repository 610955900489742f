package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"trainerpass/guardian/pkg/config"
)

// originRepo is a source repository that tests commit to.
type originRepo struct {
	t    *testing.T
	dir  string
	repo *gogit.Repository
}

func newOrigin(t *testing.T) *originRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	o := &originRepo{t: t, dir: dir, repo: repo}
	o.commit("rules.yaml", "disabled_rules: [phone-number]\n", "initial rules")
	return o
}

func (o *originRepo) commit(name, content, message string) string {
	o.t.Helper()
	path := filepath.Join(o.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		o.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		o.t.Fatalf("failed to write %s: %v", name, err)
	}

	worktree, err := o.repo.Worktree()
	if err != nil {
		o.t.Fatalf("failed to get worktree: %v", err)
	}
	if _, err := worktree.Add(name); err != nil {
		o.t.Fatalf("failed to add %s: %v", name, err)
	}
	hash, err := worktree.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		o.t.Fatalf("failed to commit: %v", err)
	}
	return hash.String()
}

func testGitConfig(t *testing.T, origin string) config.GitConfig {
	return config.GitConfig{
		Enabled:      true,
		Repository:   origin,
		Branch:       "master",
		Path:         "rules.yaml",
		LocalPath:    filepath.Join(t.TempDir(), "clone"),
		PollInterval: time.Second,
		Timeout:      10 * time.Second,
		Auth:         config.GitAuthConfig{Type: "none"},
	}
}

func TestNewRepository(t *testing.T) {
	valid := testGitConfig(t, "https://example.com/rules.git")

	tests := []struct {
		name    string
		mutate  func(*config.GitConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(*config.GitConfig) {}},
		{name: "empty repository", mutate: func(c *config.GitConfig) { c.Repository = "" }, wantErr: true},
		{name: "empty branch", mutate: func(c *config.GitConfig) { c.Branch = "" }, wantErr: true},
		{name: "empty local path", mutate: func(c *config.GitConfig) { c.LocalPath = "" }, wantErr: true},
		{name: "token without token", mutate: func(c *config.GitConfig) { c.Auth.Type = "token" }, wantErr: true},
		{name: "unknown auth", mutate: func(c *config.GitConfig) { c.Auth.Type = "kerberos" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := NewRepository(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewRepository() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthProviders(t *testing.T) {
	token, err := NewAuthProvider(config.GitAuthConfig{Type: "token", Token: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.Type() != "token" {
		t.Errorf("Type() = %q, want token", token.Type())
	}
	if auth, err := token.Auth(); err != nil || auth == nil {
		t.Errorf("token Auth() = %v, %v", auth, err)
	}

	none, _ := NewAuthProvider(config.GitAuthConfig{})
	if auth, err := none.Auth(); err != nil || auth != nil {
		t.Errorf("none Auth() = %v, %v; want nil, nil", auth, err)
	}

	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(keyPath, []byte("not a key"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewSSHAuth(keyPath, "").Auth(); err == nil {
		t.Error("expected error for world-readable key")
	}
	if _, err := NewSSHAuth(filepath.Join(t.TempDir(), "missing"), "").Auth(); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestRepository_SyncAndPull(t *testing.T) {
	origin := newOrigin(t)
	repo, err := NewRepository(testGitConfig(t, origin.dir))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	ctx := context.Background()

	if _, err := repo.Pull(ctx); !errors.Is(err, ErrNotCloned) {
		t.Errorf("Pull before Sync error = %v, want ErrNotCloned", err)
	}

	if err := repo.Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	data, err := os.ReadFile(repo.RulesPath())
	if err != nil {
		t.Fatalf("rules file missing from clone: %v", err)
	}
	if string(data) != "disabled_rules: [phone-number]\n" {
		t.Errorf("unexpected rules content %q", data)
	}

	result, err := repo.Pull(ctx)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if result.HadChanges() {
		t.Error("expected no changes on an up-to-date clone")
	}

	sha := origin.commit("README.md", "rules for the trainer community\n", "add readme")
	result, err = repo.Pull(ctx)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if !result.HadChanges() || result.ToSHA != sha {
		t.Fatalf("expected pull to %s, got %+v", sha, result)
	}
	if repo.TouchesRules(result.ChangedFiles) {
		t.Errorf("README change reported as rules change: %v", result.ChangedFiles)
	}

	head, err := repo.Head()
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if head.SHA != sha || head.Message != "add readme" {
		t.Errorf("Head() = %+v", head)
	}

	// A second repository over the same clone directory reopens it.
	reopened, err := NewRepository(testGitConfig(t, origin.dir))
	if err != nil {
		t.Fatal(err)
	}
	reopened.config.LocalPath = repo.config.LocalPath
	if err := reopened.Sync(ctx); err != nil {
		t.Fatalf("Sync() on existing clone error = %v", err)
	}
}

func TestWatcher_Check(t *testing.T) {
	origin := newOrigin(t)
	repo, err := NewRepository(testGitConfig(t, origin.dir))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := repo.Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	var reloads int
	reloadErr := error(nil)
	w := NewWatcher(repo, time.Second, func() error {
		reloads++
		return reloadErr
	})

	// Unrelated change: no reload.
	origin.commit("docs/notes.md", "notes\n", "docs")
	if err := w.Check(ctx); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if reloads != 0 {
		t.Errorf("reloads = %d after unrelated change, want 0", reloads)
	}

	// Rules change: reload.
	good := origin.commit("rules.yaml", "disabled_rules: []\n", "enable phone detection")
	if err := w.Check(ctx); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if reloads != 1 || w.Applied() != good {
		t.Errorf("reloads = %d, applied = %s; want 1, %s", reloads, w.Applied(), good)
	}

	// Rejected rules: previous commit stays applied.
	reloadErr = errors.New("invalid rule set")
	bad := origin.commit("rules.yaml", "rules: [\n", "broken rules")
	if err := w.Check(ctx); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if w.Applied() != good || w.Failed() != bad {
		t.Errorf("applied = %s, failed = %s; want %s, %s", w.Applied(), w.Failed(), good, bad)
	}

	// Nothing new: no reload attempt.
	if err := w.Check(ctx); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if reloads != 2 {
		t.Errorf("reloads = %d, want 2", reloads)
	}
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	origin := newOrigin(t)
	repo, err := NewRepository(testGitConfig(t, origin.dir))
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewWatcher(repo, time.Hour, func() error { return nil }).Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
