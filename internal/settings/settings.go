// Package settings resolves connection parameters (display, output
// geometry, frame rate) with the same explicit-argument > environment
// > config-file precedence the original xorg plugin used.
package settings

import (
	"bufio"
	"flag"
	"os"
	"strconv"
	"strings"
)

const (
	configEnv  = "GUAC_XORG_CONFIG"
	configPath = "/etc/guacamole/xorg.conf"

	defaultFPS = 30
	maxParsedInt = 100000
)

// Settings holds the resolved connection parameters for one session.
type Settings struct {
	// Display is the X display string; empty means "use $DISPLAY".
	Display string
	// Width/Height are the requested output geometry; 0 means "match
	// capture geometry".
	Width, Height int
	// FPS is the target frame rate.
	FPS int
}

// Load resolves Settings from explicit flags first, then the
// GUAC_XORG_DISPLAY/WIDTH/HEIGHT/FPS environment variables, then the
// config file named by GUAC_XORG_CONFIG (default /etc/guacamole/xorg.conf)
// — matching guac_xorg_parse_args's fallback order exactly, including
// falling through to the config file only when at least one value is
// still unset.
func Load(args []string) (*Settings, error) {
	fs := flag.NewFlagSet("xorg-capture-engine", flag.ContinueOnError)
	display := fs.String("display", "", "X display to capture (default $DISPLAY)")
	width := fs.Int("width", 0, "output width (0 matches capture width)")
	height := fs.Int("height", 0, "output height (0 matches capture height)")
	fps := fs.Int("fps", 0, "target frames per second (0 defaults to 30)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	s := &Settings{
		Display: *display,
		Width:   *width,
		Height:  *height,
		FPS:     *fps,
	}

	if s.Display == "" {
		s.Display = os.Getenv("GUAC_XORG_DISPLAY")
	}
	if s.Width == 0 {
		s.Width = parseEnvInt("GUAC_XORG_WIDTH", 0)
	}
	if s.Height == 0 {
		s.Height = parseEnvInt("GUAC_XORG_HEIGHT", 0)
	}
	if s.FPS == 0 {
		s.FPS = parseEnvInt("GUAC_XORG_FPS", 0)
	}

	if s.Display == "" || s.Width == 0 || s.Height == 0 || s.FPS == 0 {
		path := os.Getenv(configEnv)
		if path == "" {
			path = configPath
		}
		s.loadConfigFile(path)
	}

	if s.FPS <= 0 {
		s.FPS = defaultFPS
	}

	return s, nil
}

// loadConfigFile applies key=value lines from path to any field still
// unset, ignoring a missing file. Lines starting with # or ; (after
// leading whitespace) are comments; malformed lines are skipped.
func (s *Settings) loadConfigFile(path string) {
	if path == "" {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}

		s.applyKV(key, value)
	}
}

func (s *Settings) applyKV(key, value string) {
	switch key {
	case "display":
		if s.Display == "" {
			s.Display = value
		}
	case "width":
		if s.Width == 0 {
			s.Width = parseInt(value, 0)
		}
	case "height":
		if s.Height == 0 {
			s.Height = parseInt(value, 0)
		}
	case "fps":
		if s.FPS == 0 {
			s.FPS = parseInt(value, 0)
		}
	}
}

func parseEnvInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	return parseInt(v, fallback)
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed < 0 || parsed > maxParsedInt {
		return fallback
	}
	return parsed
}
