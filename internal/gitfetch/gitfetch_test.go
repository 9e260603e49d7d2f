package gitfetch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSlugSanitizesURL(t *testing.T) {
	got := slug("https://github.com/example/repo.git")
	for _, r := range got {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
		if !isAlnum {
			t.Fatalf("slug(...) = %q, contains non-alnum/underscore rune %q", got, r)
		}
	}
	if len(got) != len("https://github.com/example/repo.git") {
		t.Errorf("slug(...) length = %d, want same length as input", len(got))
	}
}

func TestSlugDeterministic(t *testing.T) {
	a := slug("https://example.com/a")
	b := slug("https://example.com/a")
	if a != b {
		t.Errorf("slug() not deterministic: %q != %q", a, b)
	}
	if a == slug("https://example.com/b") {
		t.Errorf("slug() collided for distinct URLs")
	}
}

func TestAuthMethodNilWhenNoCredentials(t *testing.T) {
	if got := authMethod(Request{URL: "https://example.com/repo"}); got != nil {
		t.Errorf("authMethod() = %+v, want nil", got)
	}
}

func TestAuthMethodSetWhenCredentialsPresent(t *testing.T) {
	got := authMethod(Request{Username: "u", Password: "p"})
	if got == nil {
		t.Fatal("authMethod() = nil, want non-nil")
	}
	if got.Username != "u" || got.Password != "p" {
		t.Errorf("authMethod() = %+v, want Username=u Password=p", got)
	}
}

func TestStaleMissingDirIsStale(t *testing.T) {
	f := &GitFetcher{}
	if !f.stale(filepath.Join(t.TempDir(), "absent"), time.Hour) {
		t.Error("stale() = false for nonexistent directory, want true")
	}
}

func TestStaleZeroRefreshAlwaysStale(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	f := &GitFetcher{}
	if !f.stale(dir, 0) {
		t.Error("stale() = false with zero refresh duration, want true")
	}
}

func TestStaleFreshWithinWindow(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	f := &GitFetcher{}
	if f.stale(dir, time.Hour) {
		t.Error("stale() = true for freshly created directory with 1h window, want false")
	}
}

func TestCacheDirHonorsOverride(t *testing.T) {
	f := &GitFetcher{CacheDir: "/tmp/custom-cache"}
	dir, err := f.cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error = %v", err)
	}
	if dir != "/tmp/custom-cache" {
		t.Errorf("cacheDir() = %q, want %q", dir, "/tmp/custom-cache")
	}
}
