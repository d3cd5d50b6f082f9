package aop

import (
	"context"
	"crypto/rsa"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/smart-unicom/payment-aop/internal/logger"
	"github.com/smart-unicom/payment-aop/internal/metrics"
)

// 公共参数默认值
const (
	DefaultFormat  = "JSON"
	DefaultCharset = "utf-8"
	DefaultVersion = "1.0"
	DefaultTimeout = 15 * time.Second
)

// Config 网关配置
// 密钥只保存在配置中, 不会出现在请求体里
type Config struct {
	AppID           string        `mapstructure:"app_id" validate:"required"`
	PrivateKey      string        `mapstructure:"private_key" validate:"required"`
	AlipayPublicKey string        `mapstructure:"alipay_public_key"`
	EncryptKey      string        `mapstructure:"encrypt_key"`
	SignType        string        `mapstructure:"sign_type" validate:"omitempty,oneof=RSA RSA2"`
	Format          string        `mapstructure:"format"`
	Charset         string        `mapstructure:"charset"`
	Version         string        `mapstructure:"version"`
	Endpoint        string        `mapstructure:"endpoint" validate:"omitempty,url"`
	Sandbox         bool          `mapstructure:"sandbox"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gte=0"`
	NotifyURL       string        `mapstructure:"notify_url" validate:"omitempty,url"`
	ReturnURL       string        `mapstructure:"return_url" validate:"omitempty,url"`
	AppAuthToken    string        `mapstructure:"app_auth_token"`
	AlipaySDK       string        `mapstructure:"alipay_sdk"` // 非空时作为 alipay_sdk 参数上报
}

// ApplyDefaults 为空字段填充默认值
// sign_type 统一为大写, 签名时大小写不敏感
func (c *Config) ApplyDefaults() {
	c.SignType = strings.ToUpper(c.SignType)
	if c.SignType == "" {
		c.SignType = SignTypeRSA2
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.Charset == "" {
		c.Charset = DefaultCharset
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
		if c.Sandbox {
			c.Endpoint = SandboxEndpoint
		}
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

var validate = validator.New()

// Validate 校验配置
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("aop: invalid config: %w", err)
	}
	return nil
}

// Option 网关可选项
type Option func(*Gateway)

// WithHTTPClient 替换默认HTTP客户端
func WithHTTPClient(c HTTPClient) Option {
	return func(g *Gateway) { g.dispatcher.Client = c }
}

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(g *Gateway) {
		g.log = l
		g.dispatcher.log = l
	}
}

// WithClock 替换时间来源, 用于生成 timestamp
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// WithMetrics 将调用指标注册到 reg, 同一个 reg 上的多个网关共享指标
func WithMetrics(reg prometheus.Registerer) Option {
	return func(g *Gateway) { g.dispatcher.metrics = metrics.New(reg) }
}

// Gateway 支付宝开放平台网关
// Gateway 本身只保存不可变配置, 可以在多个 goroutine 间共享
type Gateway struct {
	cfg        Config
	key        *rsa.PrivateKey
	dispatcher *Dispatcher
	now        func() time.Time
	log        logger.Logger
}

// NewGateway 创建网关
// 参数:
//   - cfg: 网关配置, 空字段使用默认值
//   - opts: 可选项
//
// 返回:
//   - *Gateway: 网关实例
//   - error: 配置或密钥错误
func NewGateway(cfg Config, opts ...Option) (*Gateway, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	key, err := ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	g := &Gateway{
		cfg:        cfg,
		key:        key,
		dispatcher: NewDispatcher(cfg.Endpoint, cfg.Timeout),
		now:        time.Now,
		log:        logger.NewNoOpLogger(),
	}
	if cfg.AlipayPublicKey != "" {
		pub, err := ParsePublicKey(cfg.AlipayPublicKey)
		if err != nil {
			return nil, err
		}
		g.dispatcher.PublicKey = pub
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Config 返回生效的配置
func (g *Gateway) Config() Config { return g.cfg }

// Dispatcher 返回底层发送器
func (g *Gateway) Dispatcher() *Dispatcher { return g.dispatcher }

// NewRequest 创建预先填好公共参数的请求
func (g *Gateway) NewRequest(method Method) *Request {
	r := NewRequest(method, g.key)
	r.now = g.now
	r.log = g.log
	r.SetAppID(g.cfg.AppID).
		SetFormat(g.cfg.Format).
		SetCharset(g.cfg.Charset).
		SetSignType(g.cfg.SignType).
		SetVersion(g.cfg.Version).
		SetTimestamp(g.now().Format(TimestampLayout))
	if g.cfg.NotifyURL != "" {
		r.SetNotifyURL(g.cfg.NotifyURL)
	}
	if g.cfg.ReturnURL != "" {
		r.SetReturnURL(g.cfg.ReturnURL)
	}
	if g.cfg.AppAuthToken != "" {
		r.SetAppAuthToken(g.cfg.AppAuthToken)
	}
	if g.cfg.AlipaySDK != "" {
		r.SetAlipaySDK(g.cfg.AlipaySDK)
	}
	return r
}

// Send 构建并发送请求
func (g *Gateway) Send(ctx context.Context, r *Request) (*Response, error) {
	if r.method.Mode != ModePost {
		return nil, fmt.Errorf("aop: %s is not sent by the server, use RedirectURL or OrderString", r.method.Name)
	}
	data, err := r.Data()
	if err != nil {
		return nil, err
	}
	return g.dispatcher.Send(ctx, data)
}

// Execute 以 biz 作为业务参数调用 method
func (g *Gateway) Execute(ctx context.Context, method Method, biz interface{}) (*Response, error) {
	return g.Send(ctx, g.NewRequest(method).SetBizContent(biz))
}

// RedirectURL 生成电脑网站/手机网站支付的跳转地址
func (g *Gateway) RedirectURL(r *Request) (string, error) {
	data, err := r.Data()
	if err != nil {
		return "", err
	}
	g.log.Info("aop redirect url built", map[string]interface{}{
		"method":    r.method.Name,
		"returnUrl": r.ReturnURL(),
	})
	return g.dispatcher.RedirectURL(data), nil
}

// PagePayURL 电脑网站支付跳转地址
func (g *Gateway) PagePayURL(biz interface{}) (string, error) {
	return g.RedirectURL(g.NewRequest(TradePagePay).SetBizContent(biz))
}

// WapPayURL 手机网站支付跳转地址
func (g *Gateway) WapPayURL(biz interface{}) (string, error) {
	return g.RedirectURL(g.NewRequest(TradeWapPay).SetBizContent(biz))
}

// AppOrderString APP支付订单字符串
func (g *Gateway) AppOrderString(biz interface{}) (string, error) {
	return g.NewRequest(TradeAppPay).SetBizContent(biz).OrderString()
}

// TradeQuery 查询交易
func (g *Gateway) TradeQuery(ctx context.Context, biz interface{}) (*TradeQueryResult, *Response, error) {
	out := &TradeQueryResult{}
	resp, err := g.executeInto(ctx, TradeQuery, biz, out)
	return out, resp, err
}

// TradePreCreate 预创建交易, 返回二维码
func (g *Gateway) TradePreCreate(ctx context.Context, biz interface{}) (*TradePreCreateResult, *Response, error) {
	out := &TradePreCreateResult{}
	resp, err := g.executeInto(ctx, TradePreCreate, biz, out)
	return out, resp, err
}

// TradeRefund 退款
func (g *Gateway) TradeRefund(ctx context.Context, biz interface{}) (*TradeRefundResult, *Response, error) {
	out := &TradeRefundResult{}
	resp, err := g.executeInto(ctx, TradeRefund, biz, out)
	return out, resp, err
}

// TradeClose 关闭交易
func (g *Gateway) TradeClose(ctx context.Context, biz interface{}) (*TradeCloseResult, *Response, error) {
	out := &TradeCloseResult{}
	resp, err := g.executeInto(ctx, TradeClose, biz, out)
	return out, resp, err
}

// TradeCancel 撤销交易
func (g *Gateway) TradeCancel(ctx context.Context, biz interface{}) (*TradeCloseResult, *Response, error) {
	out := &TradeCloseResult{}
	resp, err := g.executeInto(ctx, TradeCancel, biz, out)
	return out, resp, err
}

func (g *Gateway) executeInto(ctx context.Context, method Method, biz interface{}, out interface{}) (*Response, error) {
	resp, err := g.Execute(ctx, method, biz)
	if err != nil {
		return nil, err
	}
	if err := resp.Decode(out); err != nil {
		return resp, fmt.Errorf("aop: decode %s: %w", method.ResponseKey(), err)
	}
	return resp, nil
}
