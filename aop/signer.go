package aop

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"strings"
)

// 签名算法
const (
	SignTypeRSA  = "RSA"  // SHA1WithRSA
	SignTypeRSA2 = "RSA2" // SHA256WithRSA
)

// CanonicalString 按给定顺序拼接 key=value&key=value, 跳过 sign
// 调用方负责提前按key排序
func CanonicalString(pairs []Pair) string {
	var b strings.Builder
	for _, kv := range pairs {
		if kv.Key == FieldSign {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(kv.Key)
		b.WriteByte('=')
		b.WriteString(kv.Value)
	}
	return b.String()
}

// hashFor 将 sign_type 映射为哈希算法, 大小写不敏感
func hashFor(signType string) (crypto.Hash, error) {
	switch strings.ToUpper(signType) {
	case SignTypeRSA:
		return crypto.SHA1, nil
	case SignTypeRSA2:
		return crypto.SHA256, nil
	}
	return 0, &UnsupportedAlgorithmError{SignType: signType}
}

func digest(h crypto.Hash, content string) []byte {
	if h == crypto.SHA1 {
		sum := sha1.Sum([]byte(content))
		return sum[:]
	}
	sum := sha256.Sum256([]byte(content))
	return sum[:]
}

// Sign 对排序后的参数签名
// 参数:
//   - pairs: 已按key字典序排列的参数, 其中的 sign 会被忽略
//   - signType: RSA 或 RSA2
//   - key: 应用私钥
//
// 返回:
//   - string: base64 编码的签名
//   - error: 不支持的算法或签名失败
func Sign(pairs []Pair, signType string, key *rsa.PrivateKey) (string, error) {
	h, err := hashFor(signType)
	if err != nil {
		return "", err
	}
	return signContent(CanonicalString(pairs), h, key)
}

func signContent(content string, h crypto.Hash, key *rsa.PrivateKey) (string, error) {
	if key == nil {
		return "", &KeyError{Kind: "private", Err: errors.New("private key is not configured")}
	}
	// PKCS#1 v1.5 不使用随机数, 相同输入得到相同签名
	sig, err := rsa.SignPKCS1v15(nil, key, h, digest(h, content))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify 使用支付宝公钥校验签名
func Verify(content, sign, signType string, pub *rsa.PublicKey) error {
	h, err := hashFor(signType)
	if err != nil {
		return err
	}
	if pub == nil {
		return &KeyError{Kind: "public", Err: errors.New("alipay public key is not configured")}
	}
	sig, err := base64.StdEncoding.DecodeString(sign)
	if err != nil {
		return err
	}
	return rsa.VerifyPKCS1v15(pub, h, digest(h, content), sig)
}

// ParsePrivateKey 解析应用私钥
// 支持 PEM(PKCS#1/PKCS#8) 以及支付宝密钥工具导出的不带头尾的 base64 内容
func ParsePrivateKey(s string) (*rsa.PrivateKey, error) {
	der, err := keyBytes(s)
	if err != nil {
		return nil, &KeyError{Kind: "private", Err: err}
	}
	if k, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return k, nil
	}
	k, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, &KeyError{Kind: "private", Err: err}
	}
	rk, ok := k.(*rsa.PrivateKey)
	if !ok {
		return nil, &KeyError{Kind: "private", Err: errors.New("not an RSA key")}
	}
	return rk, nil
}

// ParsePublicKey 解析支付宝公钥(PKIX 或 PKCS#1)
func ParsePublicKey(s string) (*rsa.PublicKey, error) {
	der, err := keyBytes(s)
	if err != nil {
		return nil, &KeyError{Kind: "public", Err: err}
	}
	if k, err := x509.ParsePKIXPublicKey(der); err == nil {
		rk, ok := k.(*rsa.PublicKey)
		if !ok {
			return nil, &KeyError{Kind: "public", Err: errors.New("not an RSA key")}
		}
		return rk, nil
	}
	k, err := x509.ParsePKCS1PublicKey(der)
	if err != nil {
		return nil, &KeyError{Kind: "public", Err: err}
	}
	return k, nil
}

func keyBytes(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty key")
	}
	if block, _ := pem.Decode([]byte(s)); block != nil {
		return block.Bytes, nil
	}
	s = strings.NewReplacer("\n", "", "\r", "", " ", "").Replace(s)
	return base64.StdEncoding.DecodeString(s)
}
