package aop

import (
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// CodeSuccess 网关成功返回码
const CodeSuccess = "10000"

const errorResponseKey = "error_response"

func responseKey(method string) string {
	return strings.ReplaceAll(method, ".", "_") + "_response"
}

// Response 同步响应
// Value 为通用解码结果, 响应体是JSON对象时 Data 指向同一个对象, 否则为 nil
// 网关业务码由调用方自行判断
type Response struct {
	Method string
	Status int
	Raw    []byte
	Value  interface{}
	Data   map[string]interface{}
}

func decodeResponse(method string, status int, body []byte) (*Response, error) {
	var value interface{}
	if err := json.Unmarshal(body, &value); err != nil {
		return nil, &DecodeError{Body: body, Err: err}
	}
	data, _ := value.(map[string]interface{})
	return &Response{Method: method, Status: status, Raw: body, Value: value, Data: data}, nil
}

// Node 返回业务节点, 如 alipay_trade_query_response
// 网关拒绝请求时返回 error_response 节点; 响应没有包装节点时返回整个对象
func (r *Response) Node() map[string]interface{} {
	if r == nil || r.Data == nil {
		return nil
	}
	for _, key := range []string{responseKey(r.Method), errorResponseKey} {
		if node, ok := r.Data[key].(map[string]interface{}); ok {
			return node
		}
	}
	return r.Data
}

func (r *Response) field(key string) string {
	node := r.Node()
	if node == nil {
		return ""
	}
	switch v := node[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func (r *Response) Code() string    { return r.field("code") }
func (r *Response) Msg() string     { return r.field("msg") }
func (r *Response) SubCode() string { return r.field("sub_code") }
func (r *Response) SubMsg() string  { return r.field("sub_msg") }

// Sign 响应中携带的签名
func (r *Response) Sign() string {
	if r == nil {
		return ""
	}
	s, _ := r.Data[FieldSign].(string)
	return s
}

// isErrorResponse 网关只返回了 error_response 节点
func (r *Response) isErrorResponse() bool {
	if r == nil || r.Data == nil {
		return false
	}
	if _, ok := r.Data[responseKey(r.Method)]; ok {
		return false
	}
	_, ok := r.Data[errorResponseKey]
	return ok
}

// IsSuccess code 为 10000
func (r *Response) IsSuccess() bool {
	return r.Code() == CodeSuccess
}

// Decode 将业务节点解码到结构体, 使用 json 标签
func (r *Response) Decode(out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(r.Node())
}

// signedContent 返回业务节点在原始响应中的字节, 用于验签
func (r *Response) signedContent() (string, string, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(r.Raw, &raw); err != nil {
		return "", "", false
	}
	for _, key := range []string{responseKey(r.Method), errorResponseKey} {
		if node, ok := raw[key]; ok {
			return key, string(node), true
		}
	}
	return "", "", false
}

// ErrorFields 网关公共返回字段
type ErrorFields struct {
	Code    string `json:"code"`
	Msg     string `json:"msg"`
	SubCode string `json:"sub_code"`
	SubMsg  string `json:"sub_msg"`
}

// TradeQueryResult alipay.trade.query 业务节点
type TradeQueryResult struct {
	ErrorFields    `json:",squash"`
	TradeNo        string `json:"trade_no"`
	OutTradeNo     string `json:"out_trade_no"`
	BuyerLogonID   string `json:"buyer_logon_id"`
	TradeStatus    string `json:"trade_status"`
	TotalAmount    string `json:"total_amount"`
	ReceiptAmount  string `json:"receipt_amount"`
	BuyerPayAmount string `json:"buyer_pay_amount"`
	SendPayDate    string `json:"send_pay_date"`
	BuyerUserID    string `json:"buyer_user_id"`
	Subject        string `json:"subject"`
}

// TradePreCreateResult alipay.trade.precreate 业务节点
type TradePreCreateResult struct {
	ErrorFields `json:",squash"`
	OutTradeNo  string `json:"out_trade_no"`
	QRCode      string `json:"qr_code"`
}

// TradeRefundResult alipay.trade.refund 业务节点
type TradeRefundResult struct {
	ErrorFields  `json:",squash"`
	TradeNo      string `json:"trade_no"`
	OutTradeNo   string `json:"out_trade_no"`
	BuyerLogonID string `json:"buyer_logon_id"`
	FundChange   string `json:"fund_change"`
	RefundFee    string `json:"refund_fee"`
	GmtRefundPay string `json:"gmt_refund_pay"`
}

// TradeCloseResult alipay.trade.close / alipay.trade.cancel 业务节点
type TradeCloseResult struct {
	ErrorFields `json:",squash"`
	TradeNo     string `json:"trade_no"`
	OutTradeNo  string `json:"out_trade_no"`
	RetryFlag   string `json:"retry_flag"`
	Action      string `json:"action"`
}
