package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	StoragePath string          `json:"storagePath"`
	Intervals   IntervalSettings `json:"intervals"`
	Web         WebSettings      `json:"web"`
	Discord     DiscordSettings  `json:"discord"`
	Logger      LoggerSettings   `json:"logger"`
}

// IntervalSettings contains polling timers, in seconds.
type IntervalSettings struct {
	LiveRefreshInterval   int `json:"liveRefreshInterval"`
	DocumentWatchInterval int `json:"documentWatchInterval"`
}

type WebSettings struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

type DiscordSettings struct {
	Enabled   bool   `json:"enabled"`
	BotToken  string `json:"botToken"`
	ChannelID string `json:"channelId"`
}

type LoggerSettings struct {
	Save         bool   `json:"save"`
	ConsoleLevel string `json:"consoleLevel"`
	FileLevel    string `json:"fileLevel"`
	AutoClear    bool   `json:"autoClear"`
}

func DefaultConfig() Config {
	return Config{
		StoragePath: "data",
		Intervals:   DefaultIntervalSettings(),
		Web: WebSettings{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    5170,
		},
		Logger: LoggerSettings{
			Save:         true,
			ConsoleLevel: "INFO",
			FileLevel:    "DEBUG",
			AutoClear:    true,
		},
	}
}

func DefaultIntervalSettings() IntervalSettings {
	return IntervalSettings{
		LiveRefreshInterval:   120,
		DocumentWatchInterval: 2,
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	validateConfig(&config)
	return &config, nil
}

func SaveConfig(path string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func validateConfig(config *Config) {
	if config.StoragePath == "" {
		config.StoragePath = "data"
	}

	if config.Intervals.LiveRefreshInterval < 30 {
		config.Intervals.LiveRefreshInterval = 30
	} else if config.Intervals.LiveRefreshInterval > 900 {
		config.Intervals.LiveRefreshInterval = 900
	}

	if config.Intervals.DocumentWatchInterval < 1 {
		config.Intervals.DocumentWatchInterval = 1
	} else if config.Intervals.DocumentWatchInterval > 60 {
		config.Intervals.DocumentWatchInterval = 60
	}

	if config.Web.Port < 1 || config.Web.Port > 65535 {
		config.Web.Port = 5170
	}
	if config.Web.Host == "" {
		config.Web.Host = "127.0.0.1"
	}
}
