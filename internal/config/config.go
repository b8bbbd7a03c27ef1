package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Port         int
	BindAddress  string
	DataDir      string
	LogLevel     string
	StreamURL    string
	DictEndpoint string
	DevMode      bool
}

func Load() *Config {
	cfg := &Config{
		Port:         41710,
		BindAddress:  "127.0.0.1",
		DataDir:      resolveDataDir(),
		LogLevel:     "info",
		StreamURL:    "ws://127.0.0.1:8787/tutor/stream",
		DictEndpoint: "https://api.dictionaryapi.dev/api/v2/entries/en",
		DevMode:      getEnv("NCE_DEV", "false") == "true",
	}

	if p := getEnv("NCE_PORT", ""); p != "" {
		if port, err := strconv.Atoi(p); err == nil {
			cfg.Port = port
		}
	}
	if b := getEnv("NCE_BIND", ""); b != "" {
		cfg.BindAddress = b
	}
	if d := getEnv("NCE_DATA_DIR", ""); d != "" {
		cfg.DataDir = d
	}
	if l := getEnv("NCE_LOG_LEVEL", ""); l != "" {
		cfg.LogLevel = l
	}
	if u := getEnv("NCE_STREAM_URL", ""); u != "" {
		cfg.StreamURL = u
	}
	if e := getEnv("NCE_DICT_ENDPOINT", ""); e != "" {
		cfg.DictEndpoint = e
	}

	return cfg
}

func resolveDataDir() string {
	// Resolve data dir relative to the executable, not the CWD
	exe, err := os.Executable()
	if err != nil {
		return "./data"
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "./data"
	}
	return filepath.Join(filepath.Dir(exe), "data")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
