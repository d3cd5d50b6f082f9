package aop

// DeliveryMode 请求的送达方式
type DeliveryMode int

const (
	// ModePost 服务端直接 POST 到网关并解析同步响应
	ModePost DeliveryMode = iota
	// ModeRedirect 生成跳转地址, 由用户浏览器访问网关(电脑网站/手机网站支付)
	ModeRedirect
	// ModeOrderString 生成签名后的订单字符串, 交给客户端 SDK(APP支付)
	ModeOrderString
)

// Method 网关接口描述
// 用组合代替按接口继承的请求类: 同一个 Request 由不同的 Method 参数化
type Method struct {
	Name       string // 网关接口名, 如 alipay.trade.query
	Returnable bool   // 是否允许携带 return_url
	Notifiable bool   // 是否允许携带 notify_url
	Mode       DeliveryMode

	// Validate 校验业务参数, 入参为 biz_content 的原始值
	Validate func(biz interface{}) error
}

// ResponseKey 同步响应中业务节点的名称, 如 alipay_trade_query_response
func (m Method) ResponseKey() string {
	return responseKey(m.Name)
}

func requireBiz(all []string, one []string) func(interface{}) error {
	return func(biz interface{}) error {
		if len(all) > 0 {
			if err := RequireBizAll(biz, all...); err != nil {
				return err
			}
		}
		if len(one) > 0 {
			if err := RequireBizOne(biz, one...); err != nil {
				return err
			}
		}
		return nil
	}
}

var tradeIdentifiers = []string{"out_trade_no", "trade_no"}

// 已支持的网关接口
var (
	// TradePay 统一收单交易支付(当面付条码支付)
	TradePay = Method{
		Name:       "alipay.trade.pay",
		Notifiable: true,
		Validate:   requireBiz([]string{"out_trade_no", "scene", "auth_code", "subject"}, nil),
	}
	// TradePreCreate 统一收单线下交易预创建(扫码支付)
	TradePreCreate = Method{
		Name:       "alipay.trade.precreate",
		Notifiable: true,
		Validate:   requireBiz([]string{"out_trade_no", "total_amount", "subject"}, nil),
	}
	// TradeCreate 统一收单交易创建
	TradeCreate = Method{
		Name:       "alipay.trade.create",
		Notifiable: true,
		Validate:   requireBiz([]string{"out_trade_no", "total_amount", "subject"}, nil),
	}
	TradeQuery = Method{
		Name:     "alipay.trade.query",
		Validate: requireBiz(nil, tradeIdentifiers),
	}
	TradeCancel = Method{
		Name:     "alipay.trade.cancel",
		Validate: requireBiz(nil, tradeIdentifiers),
	}
	TradeClose = Method{
		Name:       "alipay.trade.close",
		Notifiable: true,
		Validate:   requireBiz(nil, tradeIdentifiers),
	}
	TradeRefund = Method{
		Name:     "alipay.trade.refund",
		Validate: requireBiz([]string{"refund_amount"}, tradeIdentifiers),
	}
	TradeRefundQuery = Method{
		Name:     "alipay.trade.fastpay.refund.query",
		Validate: requireBiz([]string{"out_request_no"}, tradeIdentifiers),
	}
	// TradePagePay 电脑网站支付
	TradePagePay = Method{
		Name:       "alipay.trade.page.pay",
		Returnable: true,
		Notifiable: true,
		Mode:       ModeRedirect,
		Validate:   requireBiz([]string{"out_trade_no", "product_code", "total_amount", "subject"}, nil),
	}
	// TradeWapPay 手机网站支付
	TradeWapPay = Method{
		Name:       "alipay.trade.wap.pay",
		Returnable: true,
		Notifiable: true,
		Mode:       ModeRedirect,
		Validate:   requireBiz([]string{"out_trade_no", "total_amount", "subject", "product_code"}, nil),
	}
	// TradeAppPay APP支付, 只生成订单字符串
	TradeAppPay = Method{
		Name:       "alipay.trade.app.pay",
		Notifiable: true,
		Mode:       ModeOrderString,
		Validate:   requireBiz([]string{"out_trade_no", "total_amount", "subject"}, nil),
	}
	// FundTransToAccount 单笔转账到支付宝账户
	FundTransToAccount = Method{
		Name:     "alipay.fund.trans.toaccount.transfer",
		Validate: requireBiz([]string{"out_biz_no", "payee_type", "payee_account", "amount"}, nil),
	}
	// BillDownloadURLQuery 查询对账单下载地址
	BillDownloadURLQuery = Method{
		Name:     "alipay.data.dataservice.bill.downloadurl.query",
		Validate: requireBiz([]string{"bill_type", "bill_date"}, nil),
	}
)

var methodCatalog = []Method{
	TradePay,
	TradePreCreate,
	TradeCreate,
	TradeQuery,
	TradeCancel,
	TradeClose,
	TradeRefund,
	TradeRefundQuery,
	TradePagePay,
	TradeWapPay,
	TradeAppPay,
	FundTransToAccount,
	BillDownloadURLQuery,
}

// LookupMethod 按网关接口名查找描述
func LookupMethod(name string) (Method, bool) {
	for _, m := range methodCatalog {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

// Methods 返回所有已知接口
func Methods() []Method {
	return append([]Method(nil), methodCatalog...)
}
