// Package config 加载网关配置: config.yaml + config.<env>.yaml + 环境变量
package config

import (
	"github.com/smart-unicom/payment-aop/aop"
)

// Config 应用配置
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Logging LoggingConfig `mapstructure:"logging"`
	Alipay  AlipayConfig  `mapstructure:"alipay"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AlipayConfig 网关配置以及可选的密钥文件路径
// 密钥文件优先级低于直接配置的密钥内容
type AlipayConfig struct {
	aop.Config `mapstructure:",squash"`

	PrivateKeyFile      string `mapstructure:"private_key_file"`
	AlipayPublicKeyFile string `mapstructure:"alipay_public_key_file"`
	ProviderType        string `mapstructure:"provider_type"`
}
