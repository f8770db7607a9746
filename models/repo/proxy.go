/*
@Date: 2022/4/15 15:43
@Author: max.liu
@File : proxy_repo
@Desc:
*/

package repo

import (
	"github.com/maxliu9403/ProxyBoard/models"
)

// ProxyRepo 代理集合的持久化镜像，内存中的 store 是唯一的写入方
type ProxyRepo interface {
	ListAll() ([]*models.Proxy, error)
	SaveBatch(proxies []*models.Proxy) error
	Deletes(ids []int64) error
}
