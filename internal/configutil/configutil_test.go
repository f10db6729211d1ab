package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl string `json:"base_url"`
	Timeout int    `json:"timeout_seconds"`
	Http    struct {
		Port int `json:"port"`
	} `json:"http"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		// comments are allowed
		base_url: "https://example.com",
		timeout_seconds: 30,
		http: { port: 8000 },
	}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{ http: { port: 9000 } }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://example.com", cfg.BaseUrl)
	require.Equal(t, 30, cfg.Timeout)
	require.Equal(t, 9000, cfg.Http.Port)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWithDefaults(t *testing.T) {
	var defaults testConfig
	defaults.BaseUrl = "https://default"
	defaults.Timeout = 30
	defaults.Http.Port = 8000

	cfg := testConfig{Timeout: 5}
	cfg, err := WithDefaults(cfg, defaults)
	require.NoError(t, err)
	require.Equal(t, "https://default", cfg.BaseUrl)
	require.Equal(t, 5, cfg.Timeout)
	require.Equal(t, 8000, cfg.Http.Port)
}

func TestLocalName(t *testing.T) {
	require.Equal(t, filepath.Join("a", "config.local.json5"), localName(filepath.Join("a", "config.json5")))
	require.Equal(t, "config.local", localName("config"))
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0700))
	writeFile(t, filepath.Join(root, "nstc-recursive.json5"), `{ base_url: "https://root" }`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := ReadRecursively[testConfig]("nstc-recursive.json5")
	require.NoError(t, err)
	require.Equal(t, "https://root", cfg.BaseUrl)

	_, err = ReadRecursively[testConfig]("nstc-missing.json5")
	require.ErrorIs(t, err, os.ErrNotExist)
}
