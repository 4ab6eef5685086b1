package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GUAC_XORG_DISPLAY", "GUAC_XORG_WIDTH", "GUAC_XORG_HEIGHT", "GUAC_XORG_FPS", configEnv} {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoadExplicitFlagsWin(t *testing.T) {
	clearEnv(t)
	os.Setenv("GUAC_XORG_DISPLAY", ":9")
	s, err := Load([]string{"-display", ":1", "-width", "800", "-height", "600", "-fps", "25"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Display != ":1" || s.Width != 800 || s.Height != 600 || s.FPS != 25 {
		t.Errorf("got %+v, want display=:1 width=800 height=600 fps=25", s)
	}
}

func TestLoadFallsBackToEnv(t *testing.T) {
	clearEnv(t)
	os.Setenv("GUAC_XORG_DISPLAY", ":7")
	os.Setenv("GUAC_XORG_WIDTH", "1024")
	os.Setenv("GUAC_XORG_HEIGHT", "768")
	os.Setenv("GUAC_XORG_FPS", "15")

	s, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Display != ":7" || s.Width != 1024 || s.Height != 768 || s.FPS != 15 {
		t.Errorf("got %+v, want values from environment", s)
	}
}

func TestLoadFallsBackToConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "xorg.conf")
	contents := "# comment\n; also a comment\ndisplay = :42\nwidth=640\nheight=480\nfps=10\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	os.Setenv(configEnv, path)

	s, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Display != ":42" || s.Width != 640 || s.Height != 480 || s.FPS != 10 {
		t.Errorf("got %+v, want values from config file", s)
	}
}

func TestLoadDefaultsFPSTo30(t *testing.T) {
	clearEnv(t)
	s, err := Load([]string{"-display", ":1"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.FPS != defaultFPS {
		t.Errorf("FPS = %d, want default %d", s.FPS, defaultFPS)
	}
}

func TestLoadIgnoresMissingConfigFile(t *testing.T) {
	clearEnv(t)
	os.Setenv(configEnv, filepath.Join(t.TempDir(), "does-not-exist.conf"))

	s, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.FPS != defaultFPS {
		t.Errorf("FPS = %d, want default %d when config file is absent", s.FPS, defaultFPS)
	}
}
