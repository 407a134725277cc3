// Package config resolves the assistant settings from defaults, the
// preferences file, a .env file and the environment, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sweeper-vision/internal/board"
	"sweeper-vision/internal/capture"
	"sweeper-vision/internal/detect"
	"sweeper-vision/pkg/geometry"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

const (
	// EnvPrefix is prepended to the upper-cased setting key, e.g.
	// SWEEPER_HUD_TOP_PERCENT.
	EnvPrefix = "SWEEPER_"
	// EnvFileVar names an alternative .env file.
	EnvFileVar = "SWEEPER_VISION_ENV"
)

// Config holds every setting. Durations are written as strings ("200ms").
type Config struct {
	CaptureMode string   `mapstructure:"capture_mode"`
	Display     int      `mapstructure:"display"`
	CaptureRect string   `mapstructure:"capture_rect"` // "x,y,w,h"; empty captures the display
	Video       string   `mapstructure:"video"`
	VideoFPS    int      `mapstructure:"video_fps"`
	Images      []string `mapstructure:"images"`

	TemplateDir      string  `mapstructure:"template_dir"`
	FontTemplates    bool    `mapstructure:"font_templates"`
	FontTemplateSize int     `mapstructure:"font_template_size"`
	MinScore         float64 `mapstructure:"min_score"`

	HUDTopPercent       int           `mapstructure:"hud_top_percent"`
	CaptureInterval     time.Duration `mapstructure:"capture_interval"`
	AnalysisInterval    time.Duration `mapstructure:"analysis_interval"`
	RecalibrateInterval time.Duration `mapstructure:"recalibrate_interval"`
	MineCount           int           `mapstructure:"mine_count"`
	Stabilizer          string        `mapstructure:"stabilizer"`

	AutoMove   bool   `mapstructure:"auto_move"`
	CounterOCR bool   `mapstructure:"counter_ocr"`
	ShowWindow bool   `mapstructure:"show_window"`
	Hotkey     string `mapstructure:"hotkey"`
	LogFile    string `mapstructure:"log_file"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		CaptureMode:         string(capture.ModeScreen),
		VideoFPS:            5,
		TemplateDir:         "templates",
		FontTemplates:       true,
		FontTemplateSize:    20,
		MinScore:            0.60,
		HUDTopPercent:       detect.DefaultParams().HUDTopPercent,
		CaptureInterval:     200 * time.Millisecond,
		AnalysisInterval:    500 * time.Millisecond,
		RecalibrateInterval: 600 * time.Millisecond,
		MineCount:           board.DefaultMineCount,
		Stabilizer:          board.PolicySticky.String(),
		ShowWindow:          true,
		Hotkey:              "f8",
	}
}

// LoadOptions overrides where settings are read from. Empty fields use the
// defaults.
type LoadOptions struct {
	PrefsPath string
	EnvPath   string
	// Getenv replaces os.Getenv, for tests.
	Getenv func(string) string
}

// Load resolves the configuration. The returned Prefs can be updated and
// saved to persist operator changes.
func Load(opts LoadOptions) (*Config, *Prefs, error) {
	if opts.PrefsPath == "" {
		opts.PrefsPath = DefaultPrefsPath()
	}
	if opts.EnvPath == "" {
		opts.EnvPath = resolveEnvPath()
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}

	cfg := Default()
	prefs := LoadPrefs(opts.PrefsPath)
	if err := decode(prefs.Values(), &cfg); err != nil {
		return nil, nil, fmt.Errorf("config %s: %w", prefs.Path(), err)
	}

	overrides, err := envOverrides(cfg, opts)
	if err != nil {
		return nil, nil, err
	}
	if err := decode(overrides, &cfg); err != nil {
		return nil, nil, fmt.Errorf("config environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return &cfg, prefs, nil
}

func decode(input map[string]interface{}, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// envOverrides collects SWEEPER_* values from the .env file and then the
// process environment, which wins.
func envOverrides(cfg Config, opts LoadOptions) (map[string]interface{}, error) {
	var keys map[string]interface{}
	if err := mapstructure.Decode(cfg, &keys); err != nil {
		return nil, err
	}

	dotenv := map[string]string{}
	if opts.EnvPath != "" {
		if values, err := godotenv.Read(opts.EnvPath); err == nil {
			dotenv = values
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s: %w", opts.EnvPath, err)
		}
	}

	out := make(map[string]interface{})
	for key := range keys {
		name := EnvPrefix + strings.ToUpper(key)
		if v, ok := dotenv[name]; ok {
			out[key] = strings.TrimSpace(v)
		}
		if v := opts.Getenv(name); v != "" {
			out[key] = strings.TrimSpace(v)
		}
	}
	return out, nil
}

// resolveEnvPath prefers .env next to the executable, then EnvFileVar.
func resolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}
	if alt := os.Getenv(EnvFileVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}
	return ""
}

// Validate normalises ranges and rejects unknown names.
func (c *Config) Validate() error {
	switch capture.Mode(c.CaptureMode) {
	case capture.ModeScreen, capture.ModeVideo, capture.ModeFile:
	default:
		return fmt.Errorf("config: unknown capture mode %q", c.CaptureMode)
	}
	if _, err := board.ParsePolicy(c.Stabilizer); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.CaptureRect != "" {
		if _, err := ParseRect(c.CaptureRect); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	def := Default()
	c.HUDTopPercent = detect.ClampHUDPercent(c.HUDTopPercent)
	if c.CaptureInterval <= 0 {
		c.CaptureInterval = def.CaptureInterval
	}
	if c.AnalysisInterval <= 0 {
		c.AnalysisInterval = def.AnalysisInterval
	}
	if c.RecalibrateInterval <= 0 {
		c.RecalibrateInterval = def.RecalibrateInterval
	}
	if c.MineCount < 1 {
		c.MineCount = def.MineCount
	}
	if c.VideoFPS < 1 {
		c.VideoFPS = def.VideoFPS
	}
	if c.Hotkey == "" {
		c.Hotkey = def.Hotkey
	}
	return nil
}

// Policy returns the stabiliser policy. Validate has checked the name.
func (c *Config) Policy() board.Policy {
	p, _ := board.ParsePolicy(c.Stabilizer)
	return p
}

// CaptureOptions converts the capture settings.
func (c *Config) CaptureOptions() (capture.Options, error) {
	opts := capture.Options{
		Mode:    capture.Mode(c.CaptureMode),
		Display: c.Display,
		Video:   c.Video,
		FPS:     c.VideoFPS,
		Images:  c.Images,
	}
	if c.CaptureRect != "" {
		r, err := ParseRect(c.CaptureRect)
		if err != nil {
			return capture.Options{}, err
		}
		opts.Rect = r
	}
	return opts, nil
}

// ParseRect parses "x,y,w,h".
func ParseRect(s string) (geometry.RectInt, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.RectInt{}, fmt.Errorf("rect %q: want x,y,w,h", s)
	}
	var v [4]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return geometry.RectInt{}, fmt.Errorf("rect %q: %w", s, err)
		}
		v[i] = n
	}
	r := geometry.NewRectInt(v[0], v[1], v[2], v[3])
	if r.Empty() {
		return geometry.RectInt{}, fmt.Errorf("rect %q: empty", s)
	}
	return r, nil
}
