package aop

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	keyOnce    sync.Once
	appKey     *rsa.PrivateKey
	alipayKey  *rsa.PrivateKey
	keyGenErr  error
	fixedClock = func() time.Time { return time.Date(2024, 3, 5, 9, 7, 1, 0, time.Local) }
)

// testKeys 返回测试用的应用私钥和模拟的支付宝私钥
func testKeys(t testing.TB) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	keyOnce.Do(func() {
		appKey, keyGenErr = rsa.GenerateKey(rand.Reader, 2048)
		if keyGenErr != nil {
			return
		}
		alipayKey, keyGenErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	require.NoError(t, keyGenErr)
	return appKey, alipayKey
}

func privatePEM(k *rsa.PrivateKey) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(k)}))
}

func publicPEM(t testing.TB, k *rsa.PublicKey) string {
	der, err := x509.MarshalPKIXPublicKey(k)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

// validRequest 返回公共参数齐全的请求
func validRequest(t testing.TB, method Method, biz interface{}) *Request {
	key, _ := testKeys(t)
	r := NewRequest(method, key)
	r.now = fixedClock
	r.SetAppID("2021000000000001").
		SetFormat("JSON").
		SetCharset("utf-8").
		SetSignType("RSA2").
		SetTimestamp("2024-03-05 09:07:01").
		SetVersion("1.0").
		SetBizContent(biz)
	return r
}
