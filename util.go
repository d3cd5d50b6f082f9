// Package payment 支付相关功能
package payment

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// joinAttachString 将字符串数组用分隔符连接
// 参数:
//   - tokens: 字符串数组
//
// 返回:
//   - string: 用"|"分隔的字符串
func joinAttachString(tokens []string) string {
	return strings.Join(tokens, "|")
}

// parseAttachString 解析附加字符串
// 将用"|"分隔的字符串解析为三个部分
func parseAttachString(s string) (string, string, string, error) {
	tokens := strings.Split(s, "|")
	if len(tokens) != 3 {
		return "", "", "", fmt.Errorf("parseAttachString() error: len(tokens) expected 3, got: %d", len(tokens))
	}
	return tokens[0], tokens[1], tokens[2], nil
}

// priceFloat64ToString 将浮点数价格转换为字符串
// 保留两位小数, 单位为元
func priceFloat64ToString(price float64) string {
	return decimal.NewFromFloat(price).StringFixed(2)
}

// priceStringToFloat64 将价格字符串转换为浮点数
func priceStringToFloat64(price string) (float64, error) {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", price, err)
	}
	f, _ := d.Float64()
	return f, nil
}

// newOrderId 生成商户订单号, 仅包含字母和数字
func newOrderId() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
