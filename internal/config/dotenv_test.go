package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	return home
}

func writeUserDotEnv(t *testing.T, home, body string) string {
	t.Helper()
	dir := filepath.Join(home, ".answerhub")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(dir, ".env")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadDotEnv_NotExist(t *testing.T) {
	setHome(t)

	m, err := LoadDotEnv()
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if len(m) != 0 {
		t.Fatalf("expected empty map, got %v", m)
	}
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	home := setHome(t)
	writeUserDotEnv(t, home, "# comment\nA=1\nB=\"two\"\n")

	m, err := LoadDotEnv()
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if m["A"] != "1" || m["B"] != "two" {
		t.Fatalf("unexpected map: %v", m)
	}
}

func TestLoadDotEnv_WorkingDirWins(t *testing.T) {
	home := setHome(t)
	writeUserDotEnv(t, home, "K=fromhome\n")
	if err := os.WriteFile(".env", []byte("K=fromcwd\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	m, err := LoadDotEnv()
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if m["K"] != "fromcwd" {
		t.Fatalf("expected ./.env to win, got %q", m["K"])
	}
}

func TestGetConfigValue_EnvOverridesDotEnv(t *testing.T) {
	home := setHome(t)
	writeUserDotEnv(t, home, "K=fromdotenv\n")
	t.Setenv("K", "fromenv")

	v, err := GetConfigValue("K")
	if err != nil {
		t.Fatalf("GetConfigValue: %v", err)
	}
	if v != "fromenv" {
		t.Fatalf("expected env override, got %q", v)
	}
}

func TestGetConfigValue_LegacyName(t *testing.T) {
	home := setHome(t)
	writeUserDotEnv(t, home, "SECRET_PASSWORD=hunter2\n")
	t.Setenv(KeyRedeploySecret, "")
	t.Setenv("SECRET_PASSWORD", "")

	v, err := GetConfigValue(KeyRedeploySecret)
	if err != nil {
		t.Fatalf("GetConfigValue: %v", err)
	}
	if v != "hunter2" {
		t.Fatalf("expected legacy dotenv value, got %q", v)
	}
}

func TestEnsureDotEnvTemplate_DoesNotOverwrite(t *testing.T) {
	home := setHome(t)
	p := writeUserDotEnv(t, home, "ANSWERHUB_EXTRACTOR_API_KEY=keep\n")

	if err := EnsureDotEnvTemplate(); err != nil {
		t.Fatalf("EnsureDotEnvTemplate: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "ANSWERHUB_EXTRACTOR_API_KEY=keep\n" {
		t.Fatalf("template overwrote existing file: %q", string(b))
	}
}

func TestEnsureDotEnvTemplate_CreatesWhenMissing(t *testing.T) {
	home := setHome(t)

	if err := EnsureDotEnvTemplate(); err != nil {
		t.Fatalf("EnsureDotEnvTemplate: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(home, ".answerhub", ".env"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), KeyRedeploySecret) {
		t.Fatalf("template is missing %s: %q", KeyRedeploySecret, string(b))
	}
}
