package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/maxliu9403/ProxyBoard/internal/common"
	"github.com/maxliu9403/ProxyBoard/internal/logic/proxy"
)

type operationController struct {
	common.BaseController
	svc *proxy.Service
}

func newOperationController(base common.BaseController, svc *proxy.Service) *operationController {
	return &operationController{BaseController: base, svc: svc}
}

// GetList godoc
// @Summary     批量操作列表
// @Description 按创建时间倒序
// @Tags        批量操作
// @Produce     json
// @Success     200 {object} common.ResponseWithTotalCount{Data=[]models.BulkOperation}
// @Router      /api/operation [get]
func (m *operationController) GetList(c *gin.Context) {
	ops := m.svc.Operations()
	m.ResponseWithTotalCount(c, ops, int64(len(ops)), nil)
}

// Detail godoc
// @Summary     批量操作详情
// @Tags        批量操作
// @Produce     json
// @Param       id   path     string  true  "操作ID"
// @Success     200  {object}  common.Response{Data=models.BulkOperation}
// @Failure     500  {object}  common.Response
// @Router      /api/operation/{id} [get]
func (m *operationController) Detail(c *gin.Context) {
	op, err := m.svc.Operation(c.Param("id"))
	m.Response(c, op, codeOf(err, common.ErrGetDetail))
}

// Cancel godoc
// @Summary     取消批量测试
// @Description 当前批次完成后停止，已完成的结果保留
// @Tags        批量操作
// @Produce     json
// @Param       id   path     string  true  "操作ID"
// @Success     200  {object}  common.Response{Data=models.BulkOperation}
// @Failure     500  {object}  common.Response
// @Router      /api/operation/{id}/cancel [post]
func (m *operationController) Cancel(c *gin.Context) {
	op, err := m.svc.CancelOperation(c.Param("id"))
	m.Response(c, op, codeOf(err, common.ErrOperationState))
}

// Undo godoc
// @Summary     撤销批量操作
// @Tags        批量操作
// @Produce     json
// @Param       id   path     string  true  "操作ID"
// @Success     200  {object}  common.Response{Data=models.BulkOperation}
// @Failure     500  {object}  common.Response
// @Router      /api/operation/{id}/undo [post]
func (m *operationController) Undo(c *gin.Context) {
	op, err := m.svc.UndoOperation(c, c.Param("id"))
	m.Response(c, op, codeOf(err, common.ErrUndo))
}

// Remove godoc
// @Summary     删除批量操作记录
// @Tags        批量操作
// @Produce     json
// @Param       id   path     string  true  "操作ID"
// @Success     200  {object}  common.Response
// @Failure     500  {object}  common.Response
// @Router      /api/operation/{id} [delete]
func (m *operationController) Remove(c *gin.Context) {
	err := m.svc.RemoveOperation(c.Param("id"))
	m.Response(c, nil, codeOf(err, common.ErrDelete))
}
