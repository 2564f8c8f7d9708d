package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend  Backend  `yaml:"backend" mapstructure:"backend"`
	Settings Settings `yaml:"settings" mapstructure:"settings"`
}

type Backend struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type Settings struct {
	DataDir  string `yaml:"data_dir" mapstructure:"data_dir"`
	MockPay  bool   `yaml:"mock_pay" mapstructure:"mock_pay"`
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "fortune-cli"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := DefaultConfig()

	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	)

	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, err
	}

	cfg.Backend.BaseURL = ExpandEnvVars(cfg.Backend.BaseURL)

	return cfg, nil
}

func Save(cfg *Config, configFile string) error {
	path := configFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(home, ".config", "fortune-cli", "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func DefaultConfig() *Config {
	return &Config{
		Backend: Backend{
			BaseURL: "http://localhost:8081/api",
			Timeout: 30 * time.Second,
		},
		Settings: Settings{
			MockPay:  true,
			LogLevel: "warn",
		},
	}
}

// StatePath returns the file the local state store persists to.
func (c *Config) StatePath() string {
	dir := c.Settings.DataDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			dir = "."
		} else {
			dir = filepath.Join(home, ".config", "fortune-cli")
		}
	}
	return filepath.Join(dir, "state.yaml")
}

func ExpandEnvVars(s string) string {
	return os.ExpandEnv(s)
}
