// aopctl 在命令行中签名、预览或调用支付宝开放平台网关接口
//
//	aopctl [-config dir] sign  -method alipay.trade.query -biz '{"out_trade_no":"T1"}'
//	aopctl [-config dir] url   -method alipay.trade.page.pay -biz @biz.json
//	aopctl [-config dir] exec  -method alipay.trade.query -biz '{"out_trade_no":"T1"}'
//	aopctl methods
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/smart-unicom/payment-aop/aop"
	"github.com/smart-unicom/payment-aop/internal/config"
	"github.com/smart-unicom/payment-aop/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "aopctl:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("aopctl", flag.ContinueOnError)
	configDir := global.String("config", "", "directory containing config.yaml")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		return fmt.Errorf("missing command: sign | url | exec | methods")
	}

	cmd, rest := global.Arg(0), global.Args()[1:]
	if cmd == "methods" {
		for _, m := range aop.Methods() {
			fmt.Printf("%-48s returnable=%-5t notifiable=%t\n", m.Name, m.Returnable, m.Notifiable)
		}
		return nil
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	methodName := fs.String("method", "", "gateway method, e.g. alipay.trade.query")
	bizArg := fs.String("biz", "", "biz_content JSON, or @file")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	method, ok := aop.LookupMethod(*methodName)
	if !ok {
		return fmt.Errorf("unknown method %q", *methodName)
	}
	biz, err := readBiz(*bizArg)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFrom(*configDir)
	if err != nil {
		return err
	}
	zl, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	log := logger.NewZapAdapter(zl.With(zap.String("app", cfg.App.Name)))

	gateway, err := aop.NewGateway(cfg.Alipay.Config, aop.WithLogger(log))
	if err != nil {
		return err
	}
	req := gateway.NewRequest(method).SetBizContent(biz)

	switch cmd {
	case "sign":
		data, err := req.Data()
		if err != nil {
			return err
		}
		for _, kv := range data {
			fmt.Printf("%s=%s\n", kv.Key, kv.Value)
		}
		return nil
	case "url":
		data, err := req.Data()
		if err != nil {
			return err
		}
		d := gateway.Dispatcher()
		switch method.Mode {
		case aop.ModeRedirect:
			fmt.Println(d.RedirectURL(data))
		case aop.ModeOrderString:
			fmt.Println(data.Encode())
		default:
			fmt.Println("POST", d.RequestURL(data))
			fmt.Println(d.RequestBody(data))
		}
		return nil
	case "exec":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		resp, err := gateway.Send(ctx, req)
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(resp.Value, "", "  ")
		fmt.Println(string(out))
		if !resp.IsSuccess() {
			return fmt.Errorf("gateway returned code=%s sub_code=%s sub_msg=%s", resp.Code(), resp.SubCode(), resp.SubMsg())
		}
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// readBiz 读取业务参数, 以 @ 开头时从文件读取
func readBiz(arg string) (string, error) {
	if strings.HasPrefix(arg, "@") {
		b, err := os.ReadFile(arg[1:])
		if err != nil {
			return "", err
		}
		arg = string(b)
	}
	arg = strings.TrimSpace(arg)
	if arg != "" && !json.Valid([]byte(arg)) {
		return "", fmt.Errorf("biz_content is not valid JSON")
	}
	return arg, nil
}
