package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBiz(t *testing.T) {
	got, err := readBiz(` {"out_trade_no":"T1"} `)
	require.NoError(t, err)
	assert.Equal(t, `{"out_trade_no":"T1"}`, got)

	path := filepath.Join(t.TempDir(), "biz.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"trade_no":"2024"}`), 0o600))
	got, err = readBiz("@" + path)
	require.NoError(t, err)
	assert.Equal(t, `{"trade_no":"2024"}`, got)

	_, err = readBiz("{oops")
	assert.Error(t, err)

	_, err = readBiz("@" + filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRun_Errors(t *testing.T) {
	assert.Error(t, run(nil))
	assert.ErrorContains(t, run([]string{"sign", "-method", "alipay.unknown"}), "unknown method")
	assert.NoError(t, run([]string{"methods"}))
}
