/*
@Date: 2021/1/12 下午2:24
@Author: max.liu
@File : base
@Desc:
*/

package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type BaseController struct{}

type Response struct {
	RetCode RetCode     `json:"RetCode"`
	Message string      `json:"Message"`
	DataSet interface{} `json:"Data"`
}

type ResponseWithTotalCount struct {
	RetCode    RetCode     `json:"RetCode"`
	Message    string      `json:"Message"`
	DataSet    interface{} `json:"Data"`
	TotalCount int64       `json:"TotalCount"`
}

// CheckParams check params, params must be a pointer
func (c *BaseController) CheckParams(ctx *gin.Context, params interface{}) bool {
	code, err := BindAndValid(ctx, params)
	if err != nil {
		c.Response(ctx, nil, NewErrorCode(code, err))
		return false
	}

	return true
}

func (c *BaseController) Response(ctx *gin.Context, data interface{}, err error) {
	retCode, msg := codeAndMsg(err)
	ctx.JSON(http.StatusOK, Response{
		RetCode: retCode,
		Message: msg,
		DataSet: data,
	})
}

func (c *BaseController) ResponseWithTotalCount(ctx *gin.Context, data interface{}, totalCount int64, err error) {
	retCode, msg := codeAndMsg(err)
	ctx.JSON(http.StatusOK, ResponseWithTotalCount{
		RetCode:    retCode,
		Message:    msg,
		DataSet:    data,
		TotalCount: totalCount,
	})
}

// codeAndMsg 空的 CodeWithErr 视为成功
func codeAndMsg(err error) (RetCode, string) {
	if err == nil {
		return SUCCESS, GetMsg(SUCCESS)
	}

	var codeErr CodeWithErr
	if !errors.As(err, &codeErr) {
		return FAILED, fmt.Sprintf("%s, %s", GetMsg(FAILED), err.Error())
	}
	if codeErr.ErrInfo == nil {
		return SUCCESS, GetMsg(SUCCESS)
	}

	msg := GetMsg(codeErr.RetCode)
	if len(msg) == 0 {
		return codeErr.RetCode, codeErr.Error()
	}
	return codeErr.RetCode, fmt.Sprintf("%s, %s", msg, codeErr.Error())
}
