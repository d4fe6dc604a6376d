package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestGetEnvWithDefault(t *testing.T) {
	t.Setenv("BOOKSHELF_FOO", "")
	if got := GetEnv("BOOKSHELF_FOO", "bar"); got != "bar" {
		t.Fatalf("expected bar, got %s", got)
	}
	t.Setenv("BOOKSHELF_FOO", "  baz ")
	if got := GetEnv("BOOKSHELF_FOO", "bar"); got != "baz" {
		t.Fatalf("expected baz, got %s", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("BOOKSHELF_NUM", "")
	if got := GetEnvInt("BOOKSHELF_NUM", 42); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("BOOKSHELF_NUM", "100")
	if got := GetEnvInt("BOOKSHELF_NUM", 42); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	t.Setenv("BOOKSHELF_NUM", "notint")
	if got := GetEnvInt("BOOKSHELF_NUM", 7); got != 7 {
		t.Fatalf("expected 7 on parse error, got %d", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("BOOKSHELF_FLAG", "")
	if got := GetEnvBool("BOOKSHELF_FLAG", true); got != true {
		t.Fatalf("expected true default, got %v", got)
	}
	t.Setenv("BOOKSHELF_FLAG", "false")
	if got := GetEnvBool("BOOKSHELF_FLAG", true); got != false {
		t.Fatalf("expected false, got %v", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("BOOKSHELF_WAIT", "250ms")
	if got := GetEnvDuration("BOOKSHELF_WAIT", time.Second); got != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s", got)
	}
	t.Setenv("BOOKSHELF_WAIT", "soon")
	if got := GetEnvDuration("BOOKSHELF_WAIT", time.Second); got != time.Second {
		t.Fatalf("expected default on parse error, got %s", got)
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("BOOKSHELF_BROKERS", " a:9092, ,b:9092 ")
	got := GetEnvList("BOOKSHELF_BROKERS")
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("unexpected list: %#v", got)
	}
	t.Setenv("BOOKSHELF_BROKERS", "")
	if got := GetEnvList("BOOKSHELF_BROKERS"); got != nil {
		t.Fatalf("expected nil for empty value, got %#v", got)
	}
}

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	if GetLogLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level")
	}
	t.Setenv("LOG_LEVEL", "")
	if GetLogLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level by default")
	}
}

func TestLoadEnvOverlaysDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("BOOKSHELF_FROM_FILE=yes\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	chdir(t, dir)
	t.Setenv("BOOKSHELF_FROM_FILE", "")

	LoadEnv(logrus.New())

	if got := os.Getenv("BOOKSHELF_FROM_FILE"); got != "yes" {
		t.Fatalf("expected value from .env, got %q", got)
	}
}

func TestLoadEnvAppliesLogLevelFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	chdir(t, dir)
	t.Setenv("LOG_LEVEL", "")

	logger := logrus.New()
	logger.SetLevel(GetLogLevel())
	if logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info before loading .env")
	}

	LoadEnv(logger)

	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level from .env, got %s", logger.GetLevel())
	}
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
