/*
@Date: 2021/12/9 11:08
@Author: max.liu
@File : db
*/

package types

// Page 列表查询的通用参数
type Page struct {
	IDList  []int64 `json:"IdList"`                                   // id数组
	Keyword string  `json:"Keyword"`                                  // 关键词(全局模糊搜索)
	Order   string  `json:"Order"`                                    // 排序，如 "Ping desc,Id"
	Limit   int     `json:"Limit" binding:"omitempty,gte=0,lte=1000"` // 分页条数
	Offset  int     `json:"Offset" binding:"omitempty,gte=0"`         // 分页偏移量
}
