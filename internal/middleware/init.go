package middleware

import (
	"github.com/cloudwego/hertz/pkg/app"
)

// GlobalOptions 全局中间件依赖，Metrics 与 Tracing 可为空
type GlobalOptions struct {
	CORSOrigin string
	Recover    RecoverConfig
	Metrics    *HTTPMetrics
	Tracing    app.HandlerFunc
}

// Global 按执行顺序返回全局中间件：追踪最先开启 span，recover 紧随其后
func Global(opts GlobalOptions) []app.HandlerFunc {
	chain := make([]app.HandlerFunc, 0, 5)
	if opts.Tracing != nil {
		chain = append(chain, opts.Tracing)
	}
	chain = append(chain,
		RecoverMiddleware(opts.Recover),
		RequestIDMiddleware(),
		CORSMiddleware(opts.CORSOrigin),
	)
	if opts.Metrics != nil {
		chain = append(chain, opts.Metrics.Middleware())
	}
	return chain
}
