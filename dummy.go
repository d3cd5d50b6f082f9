// Package payment 支付相关功能
package payment

import "context"

// DummyPaymentProvider 虚拟支付提供商
// 用于测试和开发环境, 不访问支付宝网关
type DummyPaymentProvider struct{}

// NewDummyPaymentProvider 创建新的虚拟支付提供商实例
func NewDummyPaymentProvider() (*DummyPaymentProvider, error) {
	return &DummyPaymentProvider{}, nil
}

// Pay 直接返回 ReturnUrl, 订单号沿用 PaymentName
func (pp *DummyPaymentProvider) Pay(ctx context.Context, r *PayReq) (*PayResp, error) {
	orderId := r.PaymentName
	if orderId == "" {
		orderId = newOrderId()
	}
	return &PayResp{
		PayUrl:  r.ReturnUrl,
		OrderId: orderId,
	}, nil
}

// Notify 直接返回支付成功状态
func (pp *DummyPaymentProvider) Notify(ctx context.Context, body []byte, orderId string) (*NotifyResult, error) {
	return &NotifyResult{
		PaymentStatus: PaymentStatePaid,
		OrderId:       orderId,
		PaymentName:   orderId,
	}, nil
}

// GetResponseError 返回空字符串
func (pp *DummyPaymentProvider) GetResponseError(err error) string {
	return ""
}
