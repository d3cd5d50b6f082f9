package aop

import (
	"reflect"
	"sort"

	"github.com/go-pay/gopay"
)

// 公共请求参数名
const (
	FieldAppID        = "app_id"
	FieldMethod       = "method"
	FieldFormat       = "format"
	FieldCharset      = "charset"
	FieldSignType     = "sign_type"
	FieldSign         = "sign"
	FieldTimestamp    = "timestamp"
	FieldVersion      = "version"
	FieldBizContent   = "biz_content"
	FieldNotifyURL    = "notify_url"
	FieldReturnURL    = "return_url"
	FieldAppAuthToken = "app_auth_token"
	FieldAlipaySDK    = "alipay_sdk"
)

// EnvelopeFields 每个请求构建前都必须存在的公共参数
var EnvelopeFields = []string{
	FieldAppID,
	FieldFormat,
	FieldCharset,
	FieldSignType,
	FieldTimestamp,
	FieldVersion,
	FieldBizContent,
}

// Pair 排序后的单个参数
type Pair struct {
	Key   string
	Value string
}

// Params 单次请求的参数存储
// 底层使用 gopay.BodyMap, 取值时按key字典序输出快照
type Params struct {
	bm gopay.BodyMap
}

// NewParams 创建空的参数存储
func NewParams() *Params {
	return &Params{bm: make(gopay.BodyMap)}
}

// Set 设置参数, 返回自身以便链式调用
func (p *Params) Set(key string, value interface{}) *Params {
	p.bm.Set(key, value)
	return p
}

// Get 获取参数, 不存在时返回 def
func (p *Params) Get(key string, def interface{}) interface{} {
	if v, ok := p.bm[key]; ok {
		return v
	}
	return def
}

// GetString 获取参数的字符串形式, 复合值按JSON编码
func (p *Params) GetString(key string) string {
	v, ok := p.bm[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	s, err := Flatten(v)
	if err != nil {
		return p.bm.GetString(key)
	}
	return s
}

// Has 参数存在且非空
func (p *Params) Has(key string) bool {
	v, ok := p.bm[key]
	return ok && !isEmpty(v)
}

// Remove 删除参数
func (p *Params) Remove(key string) {
	p.bm.Remove(key)
}

// Keys 返回按字典序排列的参数名
func (p *Params) Keys() []string {
	keys := make([]string, 0, len(p.bm))
	for k := range p.bm {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All 返回按key字典序排列的参数快照
func (p *Params) All() []Pair {
	keys := p.Keys()
	out := make([]Pair, 0, len(keys))
	for _, k := range keys {
		out = append(out, Pair{Key: k, Value: p.GetString(k)})
	}
	return out
}

// Clone 浅拷贝
func (p *Params) Clone() *Params {
	c := NewParams()
	for k, v := range p.bm {
		c.bm[k] = v
	}
	return c
}

// Len 参数个数
func (p *Params) Len() int {
	return len(p.bm)
}

// isEmpty 不存在、nil、空字符串以及空的map/slice均视为空
func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
