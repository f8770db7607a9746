/*
@Date: 2021/1/12 下午2:31
@Author: max.liu
@File : router
@Desc:
*/

package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/maxliu9403/common/middleware"
	"github.com/opentracing/opentracing-go"

	"github.com/maxliu9403/ProxyBoard/internal/common"
	"github.com/maxliu9403/ProxyBoard/internal/logic/bulk"
	"github.com/maxliu9403/ProxyBoard/internal/logic/proxy"
	"github.com/maxliu9403/ProxyBoard/internal/logic/store"
)

func RegisterRouter(tra opentracing.Tracer, group *gin.RouterGroup, svc *proxy.Service) {
	if tra != nil {
		group.Use(middleware.GinInterceptorWithTrace(tra, true))
	} else {
		group.Use(middleware.GinInterceptor(true))
	}

	registerRoutes(group, svc)
}

func registerRoutes(group *gin.RouterGroup, svc *proxy.Service) {
	base := common.BaseController{}

	p := newProxyController(base, svc)
	group.POST("/api/proxy/list", p.GetList)
	group.GET("/api/stats", p.Stats)
	group.GET("/api/proxy/:id", p.Detail)
	group.POST("/api/proxy", p.Create)
	group.POST("/api/proxy/import", p.Import)
	group.PUT("/api/proxy", p.Update)
	group.DELETE("/api/proxy", p.Delete)
	group.POST("/api/proxy/test", p.Test)
	group.POST("/api/proxy/test/bulk", p.TestBulk)
	group.POST("/api/proxy/export", p.Export)

	op := newOperationController(base, svc)
	group.GET("/api/operation", op.GetList)
	group.GET("/api/operation/:id", op.Detail)
	group.POST("/api/operation/:id/cancel", op.Cancel)
	group.POST("/api/operation/:id/undo", op.Undo)
	group.DELETE("/api/operation/:id", op.Remove)
}

// codeOf 将业务错误映射为返回码，未识别的错误使用 fallback
func codeOf(err error, fallback common.RetCode) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, proxy.ErrNotFound), errors.Is(err, bulk.ErrNotFound):
		return common.NewErrorCode(common.ErrorResourceNotExist, err)
	case errors.Is(err, proxy.ErrInvalidQuery), errors.Is(err, proxy.ErrNoProxies), errors.Is(err, store.ErrInvalidRecord):
		return common.NewErrorCode(common.ErrInvalidParams, err)
	case proxy.IsOperationStateErr(err):
		return common.NewErrorCode(common.ErrOperationState, err)
	}
	return common.NewErrorCode(fallback, err)
}
