/*
@Date: 2021/1/12 下午2:44
@Author: max.liu
@File : comm
@Desc:
*/

package common

// IDsParams 批量操作的目标，为空表示全部
type IDsParams struct {
	IDs []int64 `json:"Ids" binding:"omitempty,dive,gt=0"`
}
