/*
@Date: 2025/6/17
@Author: max.liu
@File : proxy
*/

package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/maxliu9403/ProxyBoard/internal/common"
	"github.com/maxliu9403/ProxyBoard/internal/logic/proxy"
	"github.com/maxliu9403/ProxyBoard/models"
)

type proxyController struct {
	common.BaseController
	svc *proxy.Service
}

func newProxyController(base common.BaseController, svc *proxy.Service) *proxyController {
	return &proxyController{BaseController: base, svc: svc}
}

// GetList godoc
// @Summary     获取代理列表
// @Description 支持分页、排序与按状态/类型/匿名度/国家/分组筛选
// @Tags        代理管理
// @Accept      json
// @Produce     json
// @Param       params body proxy.ListParams false "查询参数"
// @Success     200 {object} common.ResponseWithTotalCount{Data=[]models.ProxyRecord} "结果：{RetCode:code,Data:数据,Message:消息}"
// @Failure     500 {object} common.Response
// @Router      /api/proxy/list [post]
func (m *proxyController) GetList(c *gin.Context) {
	var params proxy.ListParams

	if !m.CheckParams(c, &params) {
		return
	}
	if params.Limit == 0 {
		params.Limit = 10
	}
	params.Keyword = strings.TrimSpace(params.Keyword)

	list, total, err := m.svc.List(c, params)
	if err != nil {
		m.ResponseWithTotalCount(c, []models.ProxyRecord{}, 0, codeOf(err, common.ErrGetList))
		return
	}
	m.ResponseWithTotalCount(c, list, total, nil)
}

// Detail godoc
// @Summary     获取代理详情
// @Description 代理信息及滚动健康指标
// @Tags        代理管理
// @Produce     json
// @Param       id   path     int  true  "代理ID"
// @Success     200  {object}  common.Response{Data=proxy.Detail}
// @Failure     500  {object}  common.Response
// @Router      /api/proxy/{id} [get]
func (m *proxyController) Detail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		m.Response(c, nil, common.NewErrorCode(common.ErrInvalidParams, fmt.Errorf("无效的ID参数: %s", c.Param("id"))))
		return
	}

	d, err := m.svc.Get(c, id)
	m.Response(c, d, codeOf(err, common.ErrGetDetail))
}

// Create godoc
// @Summary     批量添加代理
// @Description 已存在的 host:port 会被跳过并在 Duplicates 中返回
// @Tags        代理管理
// @Accept      json
// @Produce     json
// @Param       params  body  proxy.CreateBatchParams  true  "创建参数"
// @Success     200     {object}  common.Response{Data=proxy.AddResult}
// @Failure     500     {object}  common.Response
// @Router      /api/proxy [post]
func (m *proxyController) Create(c *gin.Context) {
	var params proxy.CreateBatchParams

	if !m.CheckParams(c, &params) {
		return
	}

	records := make([]models.ProxyRecord, 0, len(params.Proxies))
	for _, p := range params.Proxies {
		records = append(records, p.ToRecord())
	}

	resp, err := m.svc.Add(c, records)
	m.Response(c, resp, codeOf(err, common.ErrCreate))
}

// Import godoc
// @Summary     导入代理文本
// @Description 每行一个代理，无法识别的行在 Skipped 中返回
// @Tags        代理管理
// @Accept      json
// @Produce     json
// @Param       params  body  proxy.ImportParams  true  "导入参数"
// @Success     200     {object}  common.Response{Data=proxy.AddResult}
// @Failure     500     {object}  common.Response
// @Router      /api/proxy/import [post]
func (m *proxyController) Import(c *gin.Context) {
	var params proxy.ImportParams

	if !m.CheckParams(c, &params) {
		return
	}

	resp, err := m.svc.Import(c, params.Text, strings.TrimSpace(params.Group))
	m.Response(c, resp, codeOf(err, common.ErrImport))
}

// Update godoc
// @Summary     批量更新代理
// @Description 返回可撤销的批量操作
// @Tags        代理管理
// @Accept      json
// @Produce     json
// @Param       params  body  proxy.UpdateParams  true  "更新参数"
// @Success     200     {object}  common.Response{Data=models.BulkOperation}
// @Failure     500     {object}  common.Response
// @Router      /api/proxy [put]
func (m *proxyController) Update(c *gin.Context) {
	var params proxy.UpdateParams

	if !m.CheckParams(c, &params) {
		return
	}

	op, err := m.svc.Update(c, params.IDs, params.Patch)
	m.Response(c, op, codeOf(err, common.ErrUpdate))
}

// Delete godoc
// @Summary     批量删除代理
// @Description 返回可撤销的批量操作
// @Tags        代理管理
// @Accept      json
// @Produce     json
// @Param       params  body  proxy.DeleteParams  true  "删除参数"
// @Success     200     {object}  common.Response{Data=models.BulkOperation}
// @Failure     500     {object}  common.Response
// @Router      /api/proxy [delete]
func (m *proxyController) Delete(c *gin.Context) {
	var params proxy.DeleteParams

	if !m.CheckParams(c, &params) {
		return
	}

	op, err := m.svc.Delete(c, params.IDs)
	m.Response(c, op, codeOf(err, common.ErrDelete))
}

// Test godoc
// @Summary     测试单个代理
// @Tags        代理测试
// @Accept      json
// @Produce     json
// @Param       params  body  proxy.TestParams  true  "代理ID"
// @Success     200     {object}  common.Response{Data=models.ValidationResult}
// @Failure     500     {object}  common.Response
// @Router      /api/proxy/test [post]
func (m *proxyController) Test(c *gin.Context) {
	var params proxy.TestParams

	if !m.CheckParams(c, &params) {
		return
	}

	res, err := m.svc.TestOne(c, params.ID)
	m.Response(c, res, codeOf(err, common.ErrTestProxy))
}

// TestBulk godoc
// @Summary     批量测试代理
// @Description 后台按批次执行，通过 /api/operation/{id} 查询进度
// @Tags        代理测试
// @Accept      json
// @Produce     json
// @Param       params  body  proxy.BulkParams  false  "代理ID，为空表示全部"
// @Success     200     {object}  common.Response{Data=models.BulkOperation}
// @Failure     500     {object}  common.Response
// @Router      /api/proxy/test/bulk [post]
func (m *proxyController) TestBulk(c *gin.Context) {
	var params proxy.BulkParams

	if !m.CheckParams(c, &params) {
		return
	}

	// 后台任务不能持有请求的 gin.Context
	op, err := m.svc.TestBulk(c.Copy(), params.IDs)
	m.Response(c, op, codeOf(err, common.ErrTestProxy))
}

// Export godoc
// @Summary     导出代理
// @Tags        代理管理
// @Accept      json
// @Produce     json
// @Param       params  body  proxy.BulkParams  false  "代理ID，为空表示全部"
// @Success     200     {object}  common.Response{Data=proxy.ExportResult}
// @Failure     500     {object}  common.Response
// @Router      /api/proxy/export [post]
func (m *proxyController) Export(c *gin.Context) {
	var params proxy.BulkParams

	if !m.CheckParams(c, &params) {
		return
	}

	resp, err := m.svc.Export(c, params.IDs)
	m.Response(c, resp, codeOf(err, common.ErrExport))
}

// Stats godoc
// @Summary     代理统计
// @Description 状态/类型/国家分布、平均延迟与速度、健康度排行
// @Tags        代理管理
// @Produce     json
// @Success     200  {object}  common.Response{Data=reconcile.Stats}
// @Failure     500  {object}  common.Response
// @Router      /api/stats [get]
func (m *proxyController) Stats(c *gin.Context) {
	st, err := m.svc.Stats(c)
	m.Response(c, st, codeOf(err, common.ErrStats))
}
