// Package aop 支付宝开放平台(AOP)网关请求的组装、签名、发送与响应解码
package aop

import (
	"fmt"
	"strings"
)

// ErrorCode 错误代码类型
type ErrorCode string

// 错误代码常量定义
const (
	ErrCodeValidation           ErrorCode = "VALIDATION_FAILED"     // 必填参数缺失
	ErrCodeUnsupportedAlgorithm ErrorCode = "UNSUPPORTED_SIGN_TYPE" // 不支持的签名算法
	ErrCodeTransport            ErrorCode = "TRANSPORT_FAILED"      // 网络传输失败
	ErrCodeDecode               ErrorCode = "DECODE_FAILED"         // 响应不是合法JSON
	ErrCodeSignature            ErrorCode = "SIGNATURE_MISMATCH"    // 响应验签失败
	ErrCodeKey                  ErrorCode = "INVALID_KEY"           // 密钥无法解析
)

// ValidationError 必填参数校验失败
// Fields 只有一个元素时表示"全部必填"策略下第一个缺失的字段,
// 多个元素时表示"至少提供一个"策略下的整组字段
type ValidationError struct {
	Fields []string
	Scope  string // 为空表示请求参数, "biz_content" 表示业务参数
	group  bool
}

func (e *ValidationError) Error() string {
	name := "parameter"
	if e.Scope != "" {
		name = e.Scope + " parameter"
	}
	if e.group {
		return fmt.Sprintf("aop: the %s (%s) must provide one at least", name, strings.Join(e.Fields, ","))
	}
	return fmt.Sprintf("aop: the %s %s is required", name, e.Field())
}

// Field 返回第一个缺失的字段名
func (e *ValidationError) Field() string {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[0]
}

// Code 返回错误代码
func (e *ValidationError) Code() ErrorCode { return ErrCodeValidation }

// UnsupportedAlgorithmError sign_type 既不是 RSA 也不是 RSA2
type UnsupportedAlgorithmError struct {
	SignType string
}

func (e *UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("aop: the sign_type %q is invalid", e.SignType)
}

func (e *UnsupportedAlgorithmError) Code() ErrorCode { return ErrCodeUnsupportedAlgorithm }

// TransportError 底层HTTP客户端返回的错误, Err 保持原样
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("aop: %s transport: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Code() ErrorCode { return ErrCodeTransport }

// DecodeError 响应体不是合法JSON, Body 保留原始响应用于排查
type DecodeError struct {
	Body []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("aop: decode response: %v (body: %.256s)", e.Err, e.Body)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Code() ErrorCode { return ErrCodeDecode }

// SignatureError 同步响应的签名与支付宝公钥不匹配
type SignatureError struct {
	Node string
	Err  error
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("aop: verify %s signature: %v", e.Node, e.Err)
}

func (e *SignatureError) Unwrap() error { return e.Err }

func (e *SignatureError) Code() ErrorCode { return ErrCodeSignature }

// KeyError 私钥或公钥内容无法解析
type KeyError struct {
	Kind string
	Err  error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("aop: parse %s key: %v", e.Kind, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }

func (e *KeyError) Code() ErrorCode { return ErrCodeKey }
