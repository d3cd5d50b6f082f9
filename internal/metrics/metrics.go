// Package metrics 网关调用的 Prometheus 指标
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 调用结果标签
const (
	OutcomeSuccess      = "success"       // 网关返回 code=10000
	OutcomeGatewayError = "gateway_error" // 网关返回业务错误码
	OutcomeTransport    = "transport_error"
	OutcomeDecode       = "decode_error"
	OutcomeSignature    = "signature_error"
)

// Collector 网关调用指标
type Collector struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// New 创建指标并注册到 reg, reg 为 nil 时不注册
// reg 上已经注册过同名指标时复用已有的指标
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aop_gateway_requests_total",
				Help: "Total number of AOP gateway requests by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aop_gateway_request_duration_seconds",
				Help:    "Duration of AOP gateway round trips in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
	if reg != nil {
		c.Requests = register(reg, c.Requests).(*prometheus.CounterVec)
		c.Duration = register(reg, c.Duration).(*prometheus.HistogramVec)
	}
	return c
}

func register(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		return are.ExistingCollector
	}
	panic(err)
}

// Observe 记录一次调用
func (c *Collector) Observe(method, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Requests.WithLabelValues(method, outcome).Inc()
	c.Duration.WithLabelValues(method).Observe(elapsed.Seconds())
}
