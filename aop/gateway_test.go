package aop

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/smart-unicom/payment-aop/internal/logger"
)

func testConfig(t *testing.T, endpoint string) Config {
	key, _ := testKeys(t)
	return Config{
		AppID:      "2021000000000001",
		PrivateKey: privatePEM(key),
		Endpoint:   endpoint,
	}
}

func newTestGateway(t *testing.T, endpoint string, opts ...Option) *Gateway {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock), WithLogger(logger.NewTestLogger(t))}, opts...)
	g, err := NewGateway(testConfig(t, endpoint), opts...)
	require.NoError(t, err)
	return g
}

func TestConfig_ApplyDefaults(t *testing.T) {
	c := Config{}
	c.ApplyDefaults()
	assert.Equal(t, SignTypeRSA2, c.SignType)
	assert.Equal(t, "JSON", c.Format)
	assert.Equal(t, "utf-8", c.Charset)
	assert.Equal(t, "1.0", c.Version)
	assert.Equal(t, DefaultEndpoint, c.Endpoint)
	assert.Equal(t, 15*time.Second, c.Timeout)

	sandbox := Config{Sandbox: true}
	sandbox.ApplyDefaults()
	assert.Equal(t, SandboxEndpoint, sandbox.Endpoint)
}

func TestNewGateway_InvalidConfig(t *testing.T) {
	cases := map[string]func(c *Config){
		"missing app id":   func(c *Config) { c.AppID = "" },
		"missing key":      func(c *Config) { c.PrivateKey = "" },
		"bad sign type":    func(c *Config) { c.SignType = "DES" },
		"bad notify url":   func(c *Config) { c.NotifyURL = "not a url" },
		"negative timeout": func(c *Config) { c.Timeout = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(t, "")
			mutate(&cfg)
			_, err := NewGateway(cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewGateway_BadKeys(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.PrivateKey = "bm90IGEga2V5"
	_, err := NewGateway(cfg)
	var kErr *KeyError
	assert.True(t, errors.As(err, &kErr))

	cfg = testConfig(t, "")
	cfg.AlipayPublicKey = "bm90IGEga2V5"
	_, err = NewGateway(cfg)
	assert.True(t, errors.As(err, &kErr))
	assert.Equal(t, "public", kErr.Kind)
}

func TestGateway_NewRequestFillsEnvelope(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.SignType = "rsa2"
	cfg.NotifyURL = "https://example.com/notify"
	cfg.AppAuthToken = "token"
	g, err := NewGateway(cfg, WithClock(fixedClock))
	require.NoError(t, err)

	r := g.NewRequest(TradePreCreate)
	assert.Equal(t, "2021000000000001", r.AppID())
	assert.Equal(t, "RSA2", r.SignType())
	assert.Equal(t, "2024-03-05 09:07:01", r.Timestamp())
	assert.Equal(t, "https://example.com/notify", r.NotifyURL())
	assert.Equal(t, "token", r.Get(FieldAppAuthToken, nil))
	assert.NotContains(t, r.Params().Keys(), "private_key")
}

func TestGateway_TradeQuery(t *testing.T) {
	srv, captured := newGatewayServer(t, http.StatusOK, `{"alipay_trade_query_response":{
		"code":"10000","msg":"Success","trade_no":"2024030522001","out_trade_no":"T1",
		"trade_status":"TRADE_SUCCESS","total_amount":"88.88","subject":"a|b|c"}}`)
	g := newTestGateway(t, srv.URL)

	out, resp, err := g.TradeQuery(context.Background(), map[string]string{"out_trade_no": "T1"})
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, "10000", out.Code)
	assert.Equal(t, "TRADE_SUCCESS", out.TradeStatus)
	assert.Equal(t, "88.88", out.TotalAmount)
	assert.Equal(t, "2024030522001", out.TradeNo)
	assert.Equal(t, "2024-03-05 09:07:01", captured.query.Get(FieldTimestamp))
}

func TestGateway_TradeQueryValidation(t *testing.T) {
	g := newTestGateway(t, "http://127.0.0.1:0")

	_, _, err := g.TradeQuery(context.Background(), map[string]string{"subject": "s"})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, FieldBizContent, vErr.Scope)
}

func TestGateway_SendRejectsRedirectMethods(t *testing.T) {
	g := newTestGateway(t, "")

	_, err := g.Send(context.Background(), g.NewRequest(TradePagePay))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alipay.trade.page.pay")
}

func TestGateway_PagePayURL(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Sandbox = true
	cfg.ReturnURL = "https://example.com/return"
	g, err := NewGateway(cfg, WithClock(fixedClock))
	require.NoError(t, err)

	raw, err := g.PagePayURL(map[string]string{
		"out_trade_no": "T1", "total_amount": "1.00", "subject": "s", "product_code": "FAST_INSTANT_TRADE_PAY",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, SandboxEndpoint+"?"))

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "alipay.trade.page.pay", q.Get(FieldMethod))
	assert.Equal(t, "https://example.com/return", q.Get(FieldReturnURL))
	assert.NotEmpty(t, q.Get(FieldBizContent))
	assert.NotEmpty(t, q.Get(FieldSign))
}

func TestGateway_AppOrderString(t *testing.T) {
	g := newTestGateway(t, "")

	s, err := g.AppOrderString(map[string]string{"out_trade_no": "T1", "total_amount": "1.00", "subject": "s"})
	require.NoError(t, err)
	q, err := url.ParseQuery(s)
	require.NoError(t, err)
	assert.Equal(t, "alipay.trade.app.pay", q.Get(FieldMethod))
}

func TestGateway_WithMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := newTestGateway(t, "", WithMetrics(reg))
	require.NotNil(t, g.Dispatcher().metrics)

	g.Dispatcher().metrics.Observe("alipay.trade.query", "success", time.Millisecond)
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 2)
}

func TestGateway_WithHTTPClient(t *testing.T) {
	client := &http.Client{Timeout: time.Second}
	g := newTestGateway(t, "", WithHTTPClient(client))
	assert.Same(t, client, g.Dispatcher().Client)
}

func TestNewGateway_SignTypeAnyCase(t *testing.T) {
	for _, signType := range []string{"Rsa2", "rsa", "RSA2"} {
		cfg := testConfig(t, "")
		cfg.SignType = signType
		g, err := NewGateway(cfg)
		require.NoError(t, err, signType)
		assert.Equal(t, strings.ToUpper(signType), g.Config().SignType)
		assert.Equal(t, strings.ToUpper(signType), g.NewRequest(TradeQuery).SignType())
	}
}

func TestGateway_WithMetricsSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := newTestGateway(t, "", WithMetrics(reg))

	var b *Gateway
	require.NotPanics(t, func() { b = newTestGateway(t, "", WithMetrics(reg)) })
	assert.Same(t, a.Dispatcher().metrics.Requests, b.Dispatcher().metrics.Requests)
}

func TestGateway_AlipaySDKIsSigned(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.AlipaySDK = "payment-aop-go"
	g, err := NewGateway(cfg, WithClock(fixedClock))
	require.NoError(t, err)

	data, err := g.NewRequest(TradeQuery).SetBizContent(queryBiz()).Data()
	require.NoError(t, err)
	assert.Equal(t, "payment-aop-go", data.Get(FieldAlipaySDK))
	assert.Contains(t, CanonicalString(data), "alipay_sdk=payment-aop-go&")

	plain, err := newTestGateway(t, "").NewRequest(TradeQuery).SetBizContent(queryBiz()).Data()
	require.NoError(t, err)
	assert.Equal(t, "", plain.Get(FieldAlipaySDK))
}

func TestGateway_RedirectURLLogsReturnURL(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	cfg := testConfig(t, "")
	cfg.ReturnURL = "https://example.com/return"
	g, err := NewGateway(cfg, WithClock(fixedClock), WithLogger(logger.NewZapAdapter(zap.New(core))))
	require.NoError(t, err)

	_, err = g.WapPayURL(map[string]string{
		"out_trade_no": "T1", "total_amount": "1.00", "subject": "s", "product_code": "QUICK_WAP_WAY",
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("aop redirect url built").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "alipay.trade.wap.pay", entries[0].ContextMap()["method"])
	assert.Equal(t, "https://example.com/return", entries[0].ContextMap()["returnUrl"])
}
