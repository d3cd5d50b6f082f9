package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-unicom/payment-aop/aop"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// unsetEnv 清除环境变量, 测试结束后恢复原值
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadFrom_YAMLWithDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
app:
  name: shop
alipay:
  app_id: "2021000000000001"
  private_key: "inline-key"
  notify_url: "https://example.com/notify"
  timeout: 5s
`)

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "shop", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "2021000000000001", cfg.Alipay.AppID)
	assert.Equal(t, "inline-key", cfg.Alipay.PrivateKey)
	assert.Equal(t, "RSA2", cfg.Alipay.SignType)
	assert.Equal(t, "JSON", cfg.Alipay.Format)
	assert.Equal(t, 5*time.Second, cfg.Alipay.Timeout)
	assert.Equal(t, aop.DefaultEndpoint, cfg.Alipay.Endpoint)
	assert.Equal(t, "https://example.com/notify", cfg.Alipay.NotifyURL)
	assert.Equal(t, "Alipay", cfg.Alipay.ProviderType)
}

func TestLoadFrom_EnvironmentOverlayAndEnvVars(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
app:
  environment: staging
alipay:
  app_id: "base"
  private_key: "inline-key"
`)
	writeFile(t, dir, "config.staging.yaml", `
alipay:
  sandbox: true
  app_id: "staging"
`)
	t.Setenv("ALIPAY_SIGN_TYPE", "RSA")
	t.Setenv("LOGGING_LEVEL", "debug")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Alipay.AppID)
	assert.True(t, cfg.Alipay.Sandbox)
	assert.Equal(t, aop.SandboxEndpoint, cfg.Alipay.Endpoint)
	assert.Equal(t, "RSA", cfg.Alipay.SignType)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFrom_KeyFiles(t *testing.T) {
	dir := t.TempDir()
	keyPath := writeFile(t, dir, "app_private_key.pem", "file-key")
	pubPath := writeFile(t, dir, "alipay_public_key.pem", "file-pub")
	t.Setenv("ALIPAY_APP_ID", "2021000000000001")
	t.Setenv("ALIPAY_PRIVATE_KEY_FILE", keyPath)
	t.Setenv("ALIPAY_ALIPAY_PUBLIC_KEY_FILE", pubPath)

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.Alipay.PrivateKey)
	assert.Equal(t, "file-pub", cfg.Alipay.AlipayPublicKey)
}

func TestLoadFrom_MissingKeyFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ALIPAY_APP_ID", "2021000000000001")
	t.Setenv("ALIPAY_PRIVATE_KEY_FILE", filepath.Join(dir, "missing.pem"))

	_, err := LoadFrom(dir)
	assert.Error(t, err)
}

func TestLoadFrom_Validation(t *testing.T) {
	t.Run("missing app id", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "config.yaml", "alipay:\n  private_key: k\n")
		_, err := LoadFrom(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "alipay.app_id")
	})

	t.Run("bad sign type", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "config.yaml", "alipay:\n  app_id: a\n  private_key: k\n  sign_type: MD5\n")
		_, err := LoadFrom(dir)
		assert.Error(t, err)
	})

	t.Run("dummy provider skips credentials", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "config.yaml", "alipay:\n  provider_type: Dummy\n")
		cfg, err := LoadFrom(dir)
		require.NoError(t, err)
		assert.Equal(t, "Dummy", cfg.Alipay.ProviderType)
	})
}

func TestLoadFrom_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "ALIPAY_APP_ID=from-dotenv\nALIPAY_PRIVATE_KEY=dotenv-key\n")
	unsetEnv(t, "ALIPAY_APP_ID")
	unsetEnv(t, "ALIPAY_PRIVATE_KEY")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Alipay.AppID)
	assert.Equal(t, "dotenv-key", cfg.Alipay.PrivateKey)
}

func TestLoadFrom_MalformedEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
app:
  environment: staging
alipay:
  app_id: "base"
  private_key: "inline-key"
`)
	writeFile(t, dir, "config.staging.yaml", "alipay:\n  app_id: [unterminated\n")

	_, err := LoadFrom(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging")
}

func TestLoadFrom_MissingEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
app:
  environment: production
alipay:
  app_id: "base"
  private_key: "inline-key"
`)

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "base", cfg.Alipay.AppID)
}
