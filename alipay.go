// Package payment 支付相关功能
package payment

import (
	"context"
	"fmt"

	"github.com/smart-unicom/payment-aop/aop"
)

// 支付宝交易状态
const (
	alipayTradeWaitBuyerPay  = "WAIT_BUYER_PAY"
	alipayTradeClosed        = "TRADE_CLOSED"
	alipayTradeSuccess       = "TRADE_SUCCESS"
	alipayTradeFinished      = "TRADE_FINISHED"
	alipayTradeNotExist      = "ACQ.TRADE_NOT_EXIST"
	alipayProductCodePagePay = "FAST_INSTANT_TRADE_PAY"
)

// AlipayPaymentProvider 支付宝支付提供商
// 通过AOP网关完成下单与订单查询
type AlipayPaymentProvider struct {
	Gateway *aop.Gateway // 支付宝网关
}

// NewAlipayPaymentProvider 创建新的支付宝支付提供商实例
// 参数:
//   - cfg: 网关配置, 包含应用ID、应用私钥、支付宝公钥等
//   - opts: 网关可选项
// 返回:
//   - *AlipayPaymentProvider: 支付宝支付提供商实例
//   - error: 错误信息
func NewAlipayPaymentProvider(cfg aop.Config, opts ...aop.Option) (*AlipayPaymentProvider, error) {
	gateway, err := aop.NewGateway(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &AlipayPaymentProvider{Gateway: gateway}, nil
}

// Pay 执行支付宝支付操作
// ReturnUrl 非空时生成电脑网站支付跳转地址, 否则预创建交易并返回二维码内容
// 参数:
//   - ctx: 上下文
//   - r: 支付请求信息
// 返回:
//   - *PayResp: 支付响应信息
//   - error: 错误信息
func (pp *AlipayPaymentProvider) Pay(ctx context.Context, r *PayReq) (*PayResp, error) {
	orderId := r.PaymentName
	if orderId == "" {
		orderId = newOrderId()
	}

	biz := map[string]interface{}{
		"subject":      joinAttachString([]string{r.ProductName, r.ProductDisplayName, r.ProviderName}),
		"out_trade_no": orderId,
		"total_amount": priceFloat64ToString(r.Price),
	}
	if r.ProductDescription != "" {
		biz["body"] = r.ProductDescription
	}

	if r.ReturnUrl != "" {
		// 电脑网站支付
		biz["product_code"] = alipayProductCodePagePay
		req := pp.Gateway.NewRequest(aop.TradePagePay).
			SetBizContent(biz).
			SetReturnURL(r.ReturnUrl)
		if r.NotifyUrl != "" {
			req.SetNotifyURL(r.NotifyUrl)
		}
		payUrl, err := pp.Gateway.RedirectURL(req)
		if err != nil {
			return nil, err
		}
		return &PayResp{PayUrl: payUrl, OrderId: orderId}, nil
	}

	// 扫码支付
	req := pp.Gateway.NewRequest(aop.TradePreCreate).SetBizContent(biz)
	if r.NotifyUrl != "" {
		req.SetNotifyURL(r.NotifyUrl)
	}
	resp, err := pp.Gateway.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, gatewayError(resp)
	}
	result := &aop.TradePreCreateResult{}
	if err = resp.Decode(result); err != nil {
		return nil, err
	}

	payResp := &PayResp{
		PayUrl:  result.QRCode,
		OrderId: orderId,
		AttachInfo: map[string]interface{}{
			"qrCode": result.QRCode,
		},
	}
	return payResp, nil
}

// Notify 处理支付宝支付通知
// 不信任通知内容, 以交易查询结果为准
// 参数:
//   - ctx: 上下文
//   - body: 通知内容
//   - orderId: 订单ID
// 返回:
//   - *NotifyResult: 通知结果
//   - error: 错误信息
func (pp *AlipayPaymentProvider) Notify(ctx context.Context, body []byte, orderId string) (*NotifyResult, error) {
	result, resp, err := pp.Gateway.TradeQuery(ctx, map[string]interface{}{"out_trade_no": orderId})
	if err != nil {
		return nil, err
	}

	notifyResult := &NotifyResult{}
	if !resp.IsSuccess() {
		// 交易不存在视为已取消
		if resp.SubCode() == alipayTradeNotExist {
			notifyResult.PaymentStatus = PaymentStateCanceled
			return notifyResult, nil
		}
		return nil, gatewayError(resp)
	}

	// 根据交易状态设置支付状态
	switch result.TradeStatus {
	case alipayTradeWaitBuyerPay: // 等待买家付款
		notifyResult.PaymentStatus = PaymentStateCreated
		return notifyResult, nil
	case alipayTradeClosed: // 交易关闭
		notifyResult.PaymentStatus = PaymentStateTimeout
		return notifyResult, nil
	case alipayTradeSuccess, alipayTradeFinished: // 交易成功
		// 继续处理
	default: // 未知状态
		notifyResult.PaymentStatus = PaymentStateError
		notifyResult.NotifyMessage = fmt.Sprintf("unexpected alipay trade state: %v", result.TradeStatus)
		return notifyResult, nil
	}

	price, err := priceStringToFloat64(result.TotalAmount)
	if err != nil {
		return nil, err
	}

	// 解析产品信息, 顺序与下单时 subject 的拼接顺序一致
	productName, productDisplayName, providerName, _ := parseAttachString(result.Subject)

	notifyResult = &NotifyResult{
		ProductName:        productName,
		ProductDisplayName: productDisplayName,
		ProviderName:       providerName,
		OrderId:            orderId,
		PaymentStatus:      PaymentStatePaid,
		Price:              price,
		PaymentName:        orderId,
	}
	return notifyResult, nil
}

// GetResponseError 获取支付宝响应错误信息
// 支付宝异步通知要求回复 success 或 fail
func (pp *AlipayPaymentProvider) GetResponseError(err error) string {
	if err == nil {
		return "success"
	}
	return "fail"
}

func gatewayError(resp *aop.Response) error {
	return fmt.Errorf("alipay %s failed: code=%s msg=%s sub_code=%s sub_msg=%s",
		resp.Method, resp.Code(), resp.Msg(), resp.SubCode(), resp.SubMsg())
}
