// Package config is the typed view of the wlcore configuration.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/matjam/wlcore/internal/geometry"
	"github.com/matjam/wlcore/internal/input"
)

type Input struct {
	KeyRepeat         bool     `mapstructure:"key_repeat" toml:"key_repeat"`
	RepeatTimeout     int      `mapstructure:"repeat_timeout" toml:"repeat_timeout"`
	RepeatDelay       int      `mapstructure:"repeat_delay" toml:"repeat_delay"`
	TouchButtonDevice string   `mapstructure:"touch_button_device" toml:"touch_button_device"`
	DeviceDir         string   `mapstructure:"device_dir" toml:"device_dir"`
	Outputs           []string `mapstructure:"outputs" toml:"outputs"`
}

type Graphics struct {
	Enabled    bool   `mapstructure:"enabled" toml:"enabled"`
	RenderNode string `mapstructure:"render_node" toml:"render_node"`
}

type IPC struct {
	Socket string `mapstructure:"socket" toml:"socket"`
}

type Config struct {
	Debug    bool     `mapstructure:"debug" toml:"debug"`
	Input    Input    `mapstructure:"input" toml:"input"`
	Graphics Graphics `mapstructure:"graphics" toml:"graphics"`
	IPC      IPC      `mapstructure:"ipc" toml:"ipc"`
}

// SetDefaults registers a default for every key with viper.
func SetDefaults() {
	viper.SetDefault("debug", false)
	viper.SetDefault("input.key_repeat", true)
	viper.SetDefault("input.repeat_timeout", int(input.DefaultRepeatTimeout/time.Millisecond))
	viper.SetDefault("input.repeat_delay", int(input.DefaultRepeatDelay/time.Millisecond))
	viper.SetDefault("input.touch_button_device", input.DefaultTouchButtonDevice)
	viper.SetDefault("input.device_dir", "/dev/input")
	viper.SetDefault("input.outputs", []string{"1920x1080+0+0"})
	viper.SetDefault("graphics.enabled", true)
	viper.SetDefault("graphics.render_node", "")
	viper.SetDefault("ipc.socket", "")
}

// Load reads the configuration viper has resolved.
func Load() (*Config, error) {
	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Decode parses a TOML document strictly: keys wlcore does not know are an
// error.
func Decode(data string) (*Config, error) {
	var c Config
	md, err := toml.Decode(data, &c)
	if err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

func (c *Config) Validate() error {
	if c.Input.RepeatTimeout < 0 || c.Input.RepeatDelay < 0 {
		return errors.Errorf("repeat timings must not be negative (timeout %d, delay %d)",
			c.Input.RepeatTimeout, c.Input.RepeatDelay)
	}
	if c.Input.KeyRepeat && c.Input.RepeatDelay == 0 {
		return errors.New("input.repeat_delay must be positive when key repeat is on")
	}
	_, err := c.Outputs()
	return err
}

// Outputs parses input.outputs.
func (c *Config) Outputs() (geometry.Rectangles, error) {
	out := make(geometry.Rectangles, 0, len(c.Input.Outputs))
	for _, s := range c.Input.Outputs {
		r, err := geometry.ParseRectangle(s)
		if err != nil {
			return nil, errors.Wrapf(err, "input.outputs entry %q", s)
		}
		out = append(out, r)
	}
	return out, nil
}

func (c *Config) KeyRepeat() input.KeyRepeatConfig {
	return input.KeyRepeatConfig{
		Enabled:           c.Input.KeyRepeat,
		Timeout:           time.Duration(c.Input.RepeatTimeout) * time.Millisecond,
		Delay:             time.Duration(c.Input.RepeatDelay) * time.Millisecond,
		TouchButtonDevice: c.Input.TouchButtonDevice,
	}
}

// SocketPath is the IPC socket, defaulting to wlcore.sock in the runtime
// directory.
func (c *Config) SocketPath() string {
	if c.IPC.Socket != "" {
		return CanonicalPath(c.IPC.Socket)
	}
	return DefaultSocketPath()
}

func DefaultSocketPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "wlcore.sock")
}

// CanonicalPath expands a leading ~.
func CanonicalPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		return os.Getenv("HOME")
	}
	if strings.HasPrefix(path, "~/") {
		return strings.Replace(path, "~", os.Getenv("HOME"), 1)
	}
	return path
}

// Install writes the default configuration to the user's config directory
// and returns its path. An existing file is left alone.
func Install(defaultConfig string) (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	configPath := filepath.Join(configDir, "wlcore", "wlcore.toml")

	if _, err := os.Stat(configPath); err == nil {
		return configPath, os.ErrExist
	}
	if _, err := Decode(defaultConfig); err != nil {
		return "", errors.Wrap(err, "built-in default config is invalid")
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return "", errors.Wrap(err, "create config directory")
	}
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return "", errors.Wrap(err, "write config file")
	}
	return configPath, nil
}
