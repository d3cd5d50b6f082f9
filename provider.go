// Package payment 支付相关功能
// 以统一的支付提供商接口封装支付宝开放平台网关
package payment

import (
	"context"
	"fmt"

	"github.com/smart-unicom/payment-aop/aop"
)

// PaymentState 支付状态类型
type PaymentState string

// 支付状态常量定义
const (
	PaymentStatePaid     PaymentState = "Paid"     // 已支付
	PaymentStateCreated  PaymentState = "Created"  // 已创建
	PaymentStateCanceled PaymentState = "Canceled" // 已取消
	PaymentStateTimeout  PaymentState = "Timeout"  // 超时
	PaymentStateError    PaymentState = "Error"    // 错误
)

// 支付提供商类型
const (
	ProviderTypeAlipay = "Alipay"
	ProviderTypeDummy  = "Dummy"
)

// PayReq 支付请求结构体
// 包含支付所需的所有参数信息
type PayReq struct {
	ProviderName       string  // 支付提供商名称
	ProductName        string  // 产品名称
	PayerName          string  // 付款人姓名
	PayerId            string  // 付款人ID
	PaymentName        string  // 支付名称, 作为商户订单号
	ProductDisplayName string  // 产品显示名称
	ProductDescription string  // 产品描述
	Price              float64 // 价格
	Currency           string  // 货币类型

	ReturnUrl string // 返回URL, 非空时使用电脑网站支付
	NotifyUrl string // 通知URL
}

// PayResp 支付响应结构体
// 包含支付后返回的信息
type PayResp struct {
	PayUrl     string                 // 支付URL或二维码内容
	OrderId    string                 // 订单ID
	AttachInfo map[string]interface{} // 附加信息
}

// NotifyResult 支付通知结果结构体
// 包含订单状态查询的结果信息
type NotifyResult struct {
	PaymentName   string       // 支付名称
	PaymentStatus PaymentState // 支付状态
	NotifyMessage string       // 通知消息

	ProductName        string  // 产品名称
	ProductDisplayName string  // 产品显示名称
	ProviderName       string  // 支付提供商名称
	Price              float64 // 价格
	Currency           string  // 货币类型

	OrderId string // 订单ID
}

// PaymentProvider 支付提供商接口
// 定义所有支付提供商必须实现的方法
type PaymentProvider interface {
	// Pay 执行支付操作
	// 参数:
	//   - ctx: 上下文, 用于取消网关调用
	//   - req: 支付请求信息
	// 返回:
	//   - *PayResp: 支付响应信息
	//   - error: 错误信息
	Pay(ctx context.Context, req *PayReq) (*PayResp, error)

	// Notify 查询订单并返回当前支付状态
	// 参数:
	//   - ctx: 上下文
	//   - body: 通知内容
	//   - orderId: 订单ID
	// 返回:
	//   - *NotifyResult: 通知结果
	//   - error: 错误信息
	Notify(ctx context.Context, body []byte, orderId string) (*NotifyResult, error)

	// GetResponseError 获取回复给支付平台的响应内容
	GetResponseError(err error) string
}

// GetPaymentProvider 按类型创建支付提供商
// 参数:
//   - typ: 提供商类型, Alipay 或 Dummy
//   - cfg: 支付宝网关配置, Dummy 类型忽略
//   - opts: 网关可选项
// 返回:
//   - PaymentProvider: 支付提供商实例
//   - error: 错误信息
func GetPaymentProvider(typ string, cfg aop.Config, opts ...aop.Option) (PaymentProvider, error) {
	switch typ {
	case ProviderTypeAlipay:
		pp, err := NewAlipayPaymentProvider(cfg, opts...)
		if err != nil {
			return nil, err
		}
		return pp, nil
	case ProviderTypeDummy:
		return NewDummyPaymentProvider()
	}
	return nil, fmt.Errorf("unsupported payment provider type: %s", typ)
}
