package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
[mainConfig]
port = 6001

[storeConfig]
driver = "pebble"

[chatConfig]
messageMode = "nats"
eventRate = 5
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 6001, cfg.MainConfig.Port)
	require.Equal(t, "pebble", cfg.StoreConfig.Driver)
	require.Equal(t, "nats", cfg.ChatConfig.MessageMode)
	require.Equal(t, 5.0, cfg.ChatConfig.EventRate)
	// 未出现的字段保留默认值
	require.Equal(t, "0.0.0.0", cfg.MainConfig.Host)
	require.Equal(t, "revu_chat", cfg.KafkaConfig.ChatTopic)
}

func TestLoadConfigMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, "channel", cfg.ChatConfig.MessageMode)
	require.Equal(t, "mysql", cfg.StoreConfig.Driver)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "7100")
	t.Setenv(EnvPostgresDSN, "postgres://revu@localhost/revu")

	cfg, _ := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Equal(t, 7100, cfg.MainConfig.Port)
	require.Equal(t, "postgres://revu@localhost/revu", cfg.PostgresConfig.DSN)
}

func TestDecodeErrorIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[mainConfig\nport = "), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode config")
}
