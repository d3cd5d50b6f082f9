package aop

import (
	"crypto/rsa"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/smart-unicom/payment-aop/internal/logger"
)

// TimestampLayout 网关要求的时间格式 yyyy-MM-dd HH:mm:ss
const TimestampLayout = "2006-01-02 15:04:05"

// Data 签名完成后按key排序的完整参数
type Data []Pair

// Get 获取参数值, 不存在时返回空字符串
func (d Data) Get(key string) string {
	i := sort.Search(len(d), func(i int) bool { return d[i].Key >= key })
	if i < len(d) && d[i].Key == key {
		return d[i].Value
	}
	return ""
}

// Without 返回去掉指定参数后的副本
func (d Data) Without(keys ...string) Data {
	out := make(Data, 0, len(d))
next:
	for _, kv := range d {
		for _, k := range keys {
			if kv.Key == k {
				continue next
			}
		}
		out = append(out, kv)
	}
	return out
}

// Encode 按当前顺序编码为 application/x-www-form-urlencoded
func (d Data) Encode() string {
	var b strings.Builder
	for i, kv := range d {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}

// Values 转换为 url.Values
func (d Data) Values() url.Values {
	v := make(url.Values, len(d))
	for _, kv := range d {
		v.Set(kv.Key, kv.Value)
	}
	return v
}

// Request 单次网关请求
// 每个请求独占自己的参数存储, 不在请求之间共享可变状态
type Request struct {
	method Method
	params *Params
	key    *rsa.PrivateKey
	now    func() time.Time
	log    logger.Logger
}

// NewRequest 创建请求
// 参数:
//   - method: 网关接口描述
//   - key: 应用私钥
//
// 返回:
//   - *Request: 空参数的请求
func NewRequest(method Method, key *rsa.PrivateKey) *Request {
	return &Request{
		method: method,
		params: NewParams(),
		key:    key,
		now:    time.Now,
		log:    logger.NewNoOpLogger(),
	}
}

// Method 返回请求对应的网关接口
func (r *Request) Method() Method { return r.method }

// Params 返回底层参数存储
func (r *Request) Params() *Params { return r.params }

// Set 设置任意参数
func (r *Request) Set(key string, value interface{}) *Request {
	r.params.Set(key, value)
	return r
}

// Get 获取任意参数
func (r *Request) Get(key string, def interface{}) interface{} {
	return r.params.Get(key, def)
}

func (r *Request) SetAppID(v string) *Request        { return r.Set(FieldAppID, v) }
func (r *Request) AppID() string                     { return r.params.GetString(FieldAppID) }
func (r *Request) SetFormat(v string) *Request       { return r.Set(FieldFormat, v) }
func (r *Request) Format() string                    { return r.params.GetString(FieldFormat) }
func (r *Request) SetCharset(v string) *Request      { return r.Set(FieldCharset, v) }
func (r *Request) Charset() string                   { return r.params.GetString(FieldCharset) }
func (r *Request) SetSignType(v string) *Request     { return r.Set(FieldSignType, v) }
func (r *Request) SignType() string                  { return r.params.GetString(FieldSignType) }
func (r *Request) SetTimestamp(v string) *Request    { return r.Set(FieldTimestamp, v) }
func (r *Request) Timestamp() string                 { return r.params.GetString(FieldTimestamp) }
func (r *Request) SetVersion(v string) *Request      { return r.Set(FieldVersion, v) }
func (r *Request) Version() string                   { return r.params.GetString(FieldVersion) }
func (r *Request) SetNotifyURL(v string) *Request    { return r.Set(FieldNotifyURL, v) }
func (r *Request) NotifyURL() string                 { return r.params.GetString(FieldNotifyURL) }
func (r *Request) SetReturnURL(v string) *Request    { return r.Set(FieldReturnURL, v) }
func (r *Request) ReturnURL() string                 { return r.params.GetString(FieldReturnURL) }
func (r *Request) SetAppAuthToken(v string) *Request { return r.Set(FieldAppAuthToken, v) }
func (r *Request) SetAlipaySDK(v string) *Request    { return r.Set(FieldAlipaySDK, v) }

// SetBizContent 设置业务参数, 可以是JSON字符串、map或结构体
func (r *Request) SetBizContent(v interface{}) *Request { return r.Set(FieldBizContent, v) }

// BizContent 返回业务参数原始值
func (r *Request) BizContent() interface{} { return r.params.Get(FieldBizContent, nil) }

// BizData 按点分路径读取业务参数中的值
func (r *Request) BizData(path string, def interface{}) interface{} {
	data, err := decodeBiz(r.BizContent())
	if err != nil {
		return def
	}
	if path == "" {
		return data
	}
	if v, ok := lookupPath(data, path); ok {
		return v
	}
	return def
}

// Validate 校验公共参数以及接口自身的业务参数
func (r *Request) Validate() error {
	if err := RequireAll(r.params, EnvelopeFields...); err != nil {
		return err
	}
	if r.method.Validate != nil {
		return r.method.Validate(r.BizContent())
	}
	return nil
}

// Data 生成签名后的完整参数
// 顺序固定: 校验 -> 补默认值 -> 复合值转JSON -> 过滤回调地址 -> 注入method并排序 -> 签名
func (r *Request) Data() (Data, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.setDefaults()
	if err := r.convertToString(); err != nil {
		return nil, err
	}
	r.filter()

	snap := r.params.Clone()
	snap.Remove(FieldSign)
	snap.Set(FieldMethod, r.method.Name)
	pairs := snap.All()

	sign, err := Sign(pairs, r.SignType(), r.key)
	if err != nil {
		return nil, err
	}
	r.log.Debug("aop request signed", map[string]interface{}{
		"method":   r.method.Name,
		"signType": r.SignType(),
		"content":  CanonicalString(pairs),
	})
	return insertSorted(pairs, Pair{Key: FieldSign, Value: sign}), nil
}

func (r *Request) setDefaults() {
	if !r.params.Has(FieldTimestamp) {
		r.SetTimestamp(r.now().Format(TimestampLayout))
	}
}

func (r *Request) convertToString() error {
	for _, key := range r.params.Keys() {
		v := r.params.Get(key, nil)
		if !isComposite(v) {
			continue
		}
		s, err := Flatten(v)
		if err != nil {
			return err
		}
		r.params.Set(key, s)
	}
	return nil
}

// filter 去掉当前接口不支持的回调地址
func (r *Request) filter() {
	if !r.method.Returnable {
		r.params.Remove(FieldReturnURL)
	}
	if !r.method.Notifiable {
		r.params.Remove(FieldNotifyURL)
	}
}

// OrderString APP支付使用的签名订单字符串
func (r *Request) OrderString() (string, error) {
	data, err := r.Data()
	if err != nil {
		return "", err
	}
	return data.Encode(), nil
}

func insertSorted(d []Pair, kv Pair) Data {
	i := sort.Search(len(d), func(i int) bool { return d[i].Key >= kv.Key })
	out := make(Data, 0, len(d)+1)
	out = append(out, d[:i]...)
	out = append(out, kv)
	return append(out, d[i:]...)
}
