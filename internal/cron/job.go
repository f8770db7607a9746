package cron

import (
	"context"
	"errors"
	"fmt"

	"github.com/maxliu9403/common/cronjob"
	"github.com/maxliu9403/common/logger"

	"github.com/maxliu9403/ProxyBoard/internal/config"
	"github.com/maxliu9403/ProxyBoard/internal/logic/proxy"
	"github.com/maxliu9403/ProxyBoard/models"
)

type retester interface {
	Testing() bool
	TestBulk(ctx context.Context, ids []int64) (models.BulkOperation, error)
}

// RetestJob 定时对全部代理发起批量测试，上一轮未结束时跳过
type RetestJob struct {
	ctx context.Context
	svc retester
}

func NewRetestJob(ctx context.Context, svc retester) *RetestJob {
	return &RetestJob{ctx: ctx, svc: svc}
}

func (j *RetestJob) Run() {
	if j.svc.Testing() {
		logger.Debugf("retest skipped: a bulk test is still running")
		return
	}

	op, err := j.svc.TestBulk(j.ctx, nil)
	switch {
	case errors.Is(err, proxy.ErrNoProxies):
		logger.Debugf("retest skipped: no proxies")
	case errors.Is(err, proxy.ErrClosed):
		logger.Debugf("retest skipped: service closed")
	case err != nil:
		logger.ErrorfWithTrace(j.ctx, "retest failed: %s", err.Error())
	default:
		logger.InfofWithTrace(j.ctx, "retest started, operation %s with %d proxies", op.ID, op.Total)
	}
}

func RegisterCronJobs(ctx context.Context, svc *proxy.Service) error {
	period := config.G.CronJob.RetestPeriod
	if period == "" {
		return nil
	}

	// 例如 "@every 30m" 或 "0 * * * *"
	if _, err := cronjob.CronJobs.AddJob(period, NewRetestJob(ctx, svc)); err != nil {
		return fmt.Errorf("注册 RetestJob 失败: %w", err)
	}
	return nil
}
