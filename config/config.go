package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/soocke/invisicam-go/domain/chroma"
)

// EnvPrefix prefixes environment overrides, e.g. INVISICAM_PRESET or
// INVISICAM_CUSTOM_HUE_MIN.
const EnvPrefix = "INVISICAM"

const appDir = "invisicam"

// Config holds runtime configuration for the effect, the recorder and the
// app window. Fields may be loaded from a JSON file, overridden by
// environment variables and finally by command-line flags.
type Config struct {
	Debug bool `json:"debug" mapstructure:"debug"`

	// Target color
	Preset string            `json:"preset" mapstructure:"preset"`
	Custom chroma.ColorRange `json:"custom" mapstructure:"custom"`

	// Timing
	RefreshHz        int `json:"refresh_hz" mapstructure:"refresh_hz"`
	CaptureHz        int `json:"capture_hz" mapstructure:"capture_hz"`
	RecordFPS        int `json:"record_fps" mapstructure:"record_fps"`
	CountdownSeconds int `json:"countdown_seconds" mapstructure:"countdown_seconds"`

	// Compositor
	Workers      int  `json:"workers" mapstructure:"workers"`
	LookupTable  bool `json:"lookup_table" mapstructure:"lookup_table"`
	LUTCacheSize int  `json:"lut_cache_size" mapstructure:"lut_cache_size"`

	// Export
	JPEGQuality     int    `json:"jpeg_quality" mapstructure:"jpeg_quality"`
	ExportDir       string `json:"export_dir" mapstructure:"export_dir"`
	FilenamePattern string `json:"filename_pattern" mapstructure:"filename_pattern"`

	// Preview
	PreviewWidth  int  `json:"preview_width" mapstructure:"preview_width"`
	PreviewHeight int  `json:"preview_height" mapstructure:"preview_height"`
	MirrorPreview bool `json:"mirror_preview" mapstructure:"mirror_preview"`
	DarkMode      bool `json:"dark_mode" mapstructure:"dark_mode"`

	// Capture region; zero width or height means full screen.
	SelectionX int `json:"selection_x" mapstructure:"selection_x"`
	SelectionY int `json:"selection_y" mapstructure:"selection_y"`
	SelectionW int `json:"selection_w" mapstructure:"selection_w"`
	SelectionH int `json:"selection_h" mapstructure:"selection_h"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	green, _ := chroma.Preset(chroma.Green)
	return &Config{
		Debug:            false,
		Preset:           chroma.Green,
		Custom:           green,
		RefreshHz:        60,
		CaptureHz:        60,
		RecordFPS:        30,
		CountdownSeconds: 3,
		Workers:          runtime.NumCPU(),
		LookupTable:      true,
		LUTCacheSize:     4,
		JPEGQuality:      80,
		ExportDir:        DefaultExportDir(),
		FilenamePattern:  "%Y%m%d-%H%M%S",
		PreviewWidth:     640,
		PreviewHeight:    360,
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	p, err := xdg.ConfigFile(filepath.Join(appDir, "config.json"))
	if err != nil {
		return filepath.Join(".", appDir+".json")
	}
	return p
}

// DefaultExportDir returns the user's videos directory.
func DefaultExportDir() string {
	if xdg.UserDirs.Videos != "" {
		return xdg.UserDirs.Videos
	}
	return filepath.Join(xdg.Home, "Videos")
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	c.Preset = strings.ToLower(strings.TrimSpace(c.Preset))
	if _, ok := chroma.Preset(c.Preset); !ok && c.Preset != chroma.Custom {
		c.Preset = chroma.Green
	}
	for b := chroma.HueMin; b <= chroma.ValMax; b++ {
		c.Custom = c.Custom.With(b, c.Custom.Get(b))
	}
	if c.RefreshHz <= 0 || c.RefreshHz > 240 {
		c.RefreshHz = 60
	}
	if c.CaptureHz <= 0 || c.CaptureHz > 240 {
		c.CaptureHz = c.RefreshHz
	}
	if c.RecordFPS <= 0 || c.RecordFPS > c.RefreshHz {
		c.RecordFPS = min(30, c.RefreshHz)
	}
	if c.CountdownSeconds < 0 || c.CountdownSeconds > 30 {
		c.CountdownSeconds = 3
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.LUTCacheSize <= 0 {
		c.LUTCacheSize = 4
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		c.JPEGQuality = 80
	}
	if c.ExportDir == "" {
		c.ExportDir = DefaultExportDir()
	}
	if c.FilenamePattern == "" {
		c.FilenamePattern = "%Y%m%d-%H%M%S"
	}
	if c.PreviewWidth <= 0 {
		c.PreviewWidth = 640
	}
	if c.PreviewHeight <= 0 {
		c.PreviewHeight = 360
	}
	if c.SelectionW < 0 || c.SelectionH < 0 {
		c.SelectionW, c.SelectionH = 0, 0
	}
	return nil
}

// newViper registers every default so environment overrides apply even
// without a config file.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("debug", d.Debug)
	v.SetDefault("preset", d.Preset)
	v.SetDefault("custom.hue_min", d.Custom.HueMin)
	v.SetDefault("custom.hue_max", d.Custom.HueMax)
	v.SetDefault("custom.sat_min", d.Custom.SatMin)
	v.SetDefault("custom.sat_max", d.Custom.SatMax)
	v.SetDefault("custom.val_min", d.Custom.ValMin)
	v.SetDefault("custom.val_max", d.Custom.ValMax)
	v.SetDefault("refresh_hz", d.RefreshHz)
	v.SetDefault("capture_hz", d.CaptureHz)
	v.SetDefault("record_fps", d.RecordFPS)
	v.SetDefault("countdown_seconds", d.CountdownSeconds)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("lookup_table", d.LookupTable)
	v.SetDefault("lut_cache_size", d.LUTCacheSize)
	v.SetDefault("jpeg_quality", d.JPEGQuality)
	v.SetDefault("export_dir", d.ExportDir)
	v.SetDefault("filename_pattern", d.FilenamePattern)
	v.SetDefault("preview_width", d.PreviewWidth)
	v.SetDefault("preview_height", d.PreviewHeight)
	v.SetDefault("mirror_preview", d.MirrorPreview)
	v.SetDefault("dark_mode", d.DarkMode)
	v.SetDefault("selection_x", d.SelectionX)
	v.SetDefault("selection_y", d.SelectionY)
	v.SetDefault("selection_w", d.SelectionW)
	v.SetDefault("selection_h", d.SelectionH)
	return v
}

// Load reads configuration from the given JSON file path with environment
// overrides applied. If the file does not exist it returns the defaults. On
// a parse error it returns defaults with the error.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				cfg := DefaultConfig()
				return cfg, err
			}
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return DefaultConfig(), err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
