package aop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Flatten 将复合值(map、slice、struct)转换为确定性的JSON字符串
// 字符串原样返回, 因此对已展开的值再次调用结果不变
// map 的key按字典序输出, 不转义HTML字符
func Flatten(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case json.RawMessage:
		return string(val), nil
	}
	if !isComposite(v) {
		return fmt.Sprint(v), nil
	}
	return encodeJSON(v)
}

func encodeJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("aop: flatten: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func isComposite(v interface{}) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	}
	return false
}

// decodeBiz 将 biz_content 统一为可按路径访问的结构
func decodeBiz(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if val == "" {
			return nil, nil
		}
		var out interface{}
		if err := json.Unmarshal([]byte(val), &out); err != nil {
			return nil, fmt.Errorf("aop: biz_content is not valid JSON: %w", err)
		}
		return out, nil
	case map[string]interface{}:
		return val, nil
	}
	s, err := encodeJSON(v)
	if err != nil {
		return nil, err
	}
	return decodeBiz(s)
}

// lookupPath 按点分路径读取嵌套值, 数字段用于访问数组下标
func lookupPath(data interface{}, path string) (interface{}, bool) {
	if data == nil {
		return nil, false
	}
	if m, ok := data.(map[string]interface{}); ok {
		if v, ok := m[path]; ok {
			return v, true
		}
	}
	cur := data
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}
