package aop

import (
	"context"
	"crypto/rsa"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/smart-unicom/payment-aop/internal/logger"
	"github.com/smart-unicom/payment-aop/internal/metrics"
)

// 网关地址
const (
	DefaultEndpoint = "https://openapi.alipay.com/gateway.do"
	SandboxEndpoint = "https://openapi-sandbox.dl.alipaydev.com/gateway.do"
)

const tracerName = "github.com/smart-unicom/payment-aop/aop"

// HTTPClient 发送请求的HTTP客户端, 超时与取消由其自身配置
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dispatcher 将签名后的参数发送到网关并解码响应
type Dispatcher struct {
	Endpoint  string
	Client    HTTPClient
	PublicKey *rsa.PublicKey // 非空时校验同步响应签名

	log     logger.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer
}

// NewDispatcher 创建发送器
// 参数:
//   - endpoint: 网关地址, 为空时使用正式环境地址
//   - timeout: 默认HTTP客户端的超时时间
func NewDispatcher(endpoint string, timeout time.Duration) *Dispatcher {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Dispatcher{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
		log:      logger.NewNoOpLogger(),
		tracer:   otel.Tracer(tracerName),
	}
}

// RequestURL 网关地址加上除 biz_content 以外的全部参数
func (d *Dispatcher) RequestURL(data Data) string {
	return d.Endpoint + "?" + data.Without(FieldBizContent).Encode()
}

// RequestBody 请求体只包含 biz_content
func (d *Dispatcher) RequestBody(data Data) string {
	return url.Values{FieldBizContent: {data.Get(FieldBizContent)}}.Encode()
}

// RedirectURL 电脑网站/手机网站支付的跳转地址, 包含全部参数
func (d *Dispatcher) RedirectURL(data Data) string {
	return d.Endpoint + "?" + data.Encode()
}

// Send 发送请求并解码响应
// 传输错误包装为 TransportError 原样返回, 不做重试; 非2xx状态码不做特殊处理
func (d *Dispatcher) Send(ctx context.Context, data Data) (*Response, error) {
	method := data.Get(FieldMethod)
	ctx, span := d.tracerOrDefault().Start(ctx, method, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	resp, outcome, err := d.send(ctx, method, data)
	d.metrics.Observe(method, outcome, time.Since(start))

	fields := map[string]interface{}{
		"method":  method,
		"outcome": outcome,
		"elapsed": time.Since(start).String(),
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logOrDefault().WithError(err).Error("aop gateway request failed", fields)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("http.status_code", resp.Status),
		attribute.String("aop.code", resp.Code()),
	)
	fields["status"] = resp.Status
	fields["code"] = resp.Code()
	if sub := resp.SubCode(); sub != "" {
		fields["subCode"] = sub
	}
	d.logOrDefault().Info("aop gateway request completed", fields)
	return resp, nil
}

func (d *Dispatcher) send(ctx context.Context, method string, data Data) (*Response, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.RequestURL(data), strings.NewReader(d.RequestBody(data)))
	if err != nil {
		return nil, metrics.OutcomeTransport, &TransportError{Method: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	d.logOrDefault().Debug("aop gateway request", map[string]interface{}{"method": method, "url": req.URL.Redacted()})

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	httpResp, err := client.Do(req)
	if err != nil {
		return nil, metrics.OutcomeTransport, &TransportError{Method: method, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, metrics.OutcomeTransport, &TransportError{Method: method, Err: err}
	}

	resp, err := decodeResponse(method, httpResp.StatusCode, body)
	if err != nil {
		return nil, metrics.OutcomeDecode, err
	}
	if err := d.verify(resp, data.Get(FieldSignType)); err != nil {
		return nil, metrics.OutcomeSignature, err
	}
	if !resp.IsSuccess() {
		return resp, metrics.OutcomeGatewayError, nil
	}
	return resp, metrics.OutcomeSuccess, nil
}

// verify 配置了支付宝公钥时校验业务节点
// 只有 error_response 允许不带签名, 其它缺少签名的响应一律拒绝
func (d *Dispatcher) verify(resp *Response, signType string) error {
	if d.PublicKey == nil {
		return nil
	}
	if resp.Sign() == "" {
		if resp.isErrorResponse() {
			return nil
		}
		return &SignatureError{Node: responseKey(resp.Method), Err: errors.New("response is not signed")}
	}
	node, content, ok := resp.signedContent()
	if !ok {
		return &SignatureError{Node: responseKey(resp.Method), Err: errors.New("response node not found")}
	}
	if err := Verify(content, resp.Sign(), signType, d.PublicKey); err != nil {
		return &SignatureError{Node: node, Err: err}
	}
	return nil
}

func (d *Dispatcher) tracerOrDefault() trace.Tracer {
	if d.tracer == nil {
		return otel.Tracer(tracerName)
	}
	return d.tracer
}

func (d *Dispatcher) logOrDefault() logger.Logger {
	if d.log == nil {
		return logger.NewNoOpLogger()
	}
	return d.log
}
