package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 环境变量可覆盖的配置项, 例如 ALIPAY_APP_ID 对应 alipay.app_id
var envKeys = []string{
	"app.name",
	"app.environment",
	"logging.level",
	"logging.format",
	"alipay.app_id",
	"alipay.private_key",
	"alipay.private_key_file",
	"alipay.alipay_public_key",
	"alipay.alipay_public_key_file",
	"alipay.encrypt_key",
	"alipay.sign_type",
	"alipay.format",
	"alipay.charset",
	"alipay.version",
	"alipay.endpoint",
	"alipay.sandbox",
	"alipay.timeout",
	"alipay.notify_url",
	"alipay.return_url",
	"alipay.app_auth_token",
	"alipay.alipay_sdk",
	"alipay.provider_type",
}

// Load 从默认位置加载配置
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom 加载配置
// 参数:
//   - dir: 配置目录, 为空时依次查找 ./configs 和当前目录
//
// 返回:
//   - *Config: 合并了默认值和环境变量的配置
//   - error: 读取或校验失败
func LoadFrom(dir string) (*Config, error) {
	loadEnvFile(dir)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	} else {
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := v.GetString("app.environment")
	v.SetConfigName("config." + env)
	if err := v.MergeInConfig(); err != nil {
		// 环境配置文件可以不存在, 但存在时必须能解析
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading %s config: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := loadKeyFiles(&cfg.Alipay); err != nil {
		return nil, err
	}
	cfg.Alipay.ApplyDefaults()

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "aop-gateway")
	v.SetDefault("app.environment", "development")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("alipay.sign_type", "RSA2")
	v.SetDefault("alipay.format", "JSON")
	v.SetDefault("alipay.charset", "utf-8")
	v.SetDefault("alipay.version", "1.0")
	v.SetDefault("alipay.timeout", "15s")
	v.SetDefault("alipay.provider_type", "Alipay")
}

// loadEnvFile 依次尝试加载 .env, 已存在的环境变量不会被覆盖
func loadEnvFile(dir string) {
	paths := []string{".env", "../.env"}
	if dir != "" {
		paths = append([]string{filepath.Join(dir, ".env")}, paths...)
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func loadKeyFiles(c *AlipayConfig) error {
	if c.PrivateKey == "" && c.PrivateKeyFile != "" {
		b, err := os.ReadFile(c.PrivateKeyFile)
		if err != nil {
			return fmt.Errorf("read alipay.private_key_file: %w", err)
		}
		c.PrivateKey = string(b)
	}
	if c.AlipayPublicKey == "" && c.AlipayPublicKeyFile != "" {
		b, err := os.ReadFile(c.AlipayPublicKeyFile)
		if err != nil {
			return fmt.Errorf("read alipay.alipay_public_key_file: %w", err)
		}
		c.AlipayPublicKey = string(b)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.Alipay.ProviderType == "Dummy" {
		return nil
	}
	if cfg.Alipay.AppID == "" {
		return fmt.Errorf("alipay.app_id is required")
	}
	if cfg.Alipay.PrivateKey == "" {
		return fmt.Errorf("alipay.private_key or alipay.private_key_file is required")
	}
	return cfg.Alipay.Validate()
}
