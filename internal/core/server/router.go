package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"store-rating-api/internal/core/logger"
)

// NewRouter 基础 engine：zap 记录 panic 堆栈 + CORS；业务中间件由调用方追加
func NewRouter(l *zap.Logger, allowOrigins []string) *gin.Engine {
	gin.DefaultWriter = logger.ToWriter(l, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(l, zapcore.ErrorLevel)

	r := gin.New()
	r.Use(ginzap.RecoveryWithZap(l, true))

	cc := cors.DefaultConfig()
	if len(allowOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = allowOrigins
	}
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization", "X-Request-ID")
	r.Use(cors.New(cc))
	return r
}

func BuildServer(addr string, handler http.Handler, l *zap.Logger, rt, wt, it time.Duration) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    rt,
		WriteTimeout:   wt,
		IdleTimeout:    it,
		MaxHeaderBytes: 1 << 20, // 1MB
		ErrorLog:       logger.ToStdLogger(l, zapcore.WarnLevel),
	}
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }
