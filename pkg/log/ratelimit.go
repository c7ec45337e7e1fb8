package log

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/uber/jaeger-client-go/utils"
)

// RateLimiter 是限流日志所需的最小接口。
type RateLimiter interface {
	CheckCredit(cost float64) bool
}

type unlimited struct{}

func (unlimited) CheckCredit(float64) bool { return true }

// rateGroup 是按名字共享、可在线调整参数的限流器。
type rateGroup struct {
	*utils.ReconfigurableRateLimiter
}

var rateGroups sync.Map // name -> *rateGroup

// rateGroupFor 返回名为 name 的分组，不存在时创建；已存在时更新其参数。
func rateGroupFor(name string, creditPerSecond, maxBalance float64) *rateGroup {
	g, loaded := rateGroups.LoadOrStore(name, &rateGroup{
		ReconfigurableRateLimiter: utils.NewRateLimiter(creditPerSecond, maxBalance),
	})
	if loaded {
		g.(*rateGroup).Update(creditPerSecond, maxBalance)
	}
	return g.(*rateGroup)
}

// rateLimiterFromEnv 读取 SERDE_LOG_RATE_* 环境变量构造全局限流器：
//
//   - SERDE_LOG_RATE_ENABLE: 为真时开启，默认关闭。
//   - SERDE_LOG_RATE_CREDIT_PER_SECOND: 每秒补充的额度，默认 1。
//   - SERDE_LOG_RATE_MAX_BALANCE: 额度上限，默认 60。
func rateLimiterFromEnv() RateLimiter {
	if !getenvBool("SERDE_LOG_RATE_ENABLE", false) {
		return unlimited{}
	}
	return utils.NewRateLimiter(
		getenvFloat("SERDE_LOG_RATE_CREDIT_PER_SECOND", 1),
		getenvFloat("SERDE_LOG_RATE_MAX_BALANCE", 60),
	)
}

func getenvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func getenvFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return def
	}
	return f
}
