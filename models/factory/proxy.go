/*
@Date: 2022/4/15 16:33
@Author: max.liu
@File : repo
@Desc:
*/

package factory

import (
	"sync"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/maxliu9403/ProxyBoard/models"
	"github.com/maxliu9403/ProxyBoard/models/repo"
)

const saveBatchSize = 200

// 主键冲突时覆盖的列，create_time 保留首次写入的值
var proxyUpdateColumns = mustUpdateColumns(&models.Proxy{}, "id", "create_time")

func mustUpdateColumns(model interface{}, keep ...string) []string {
	s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		panic(err)
	}
	return lo.Without(s.DBNames, keep...)
}

type proxyCrudImpl struct {
	Conn *gorm.DB
}

func ProxyRepo(db *gorm.DB) repo.ProxyRepo {
	return &proxyCrudImpl{Conn: db}
}

func (r *proxyCrudImpl) ListAll() ([]*models.Proxy, error) {
	var list []*models.Proxy
	err := r.Conn.Model(&models.Proxy{}).Order("id").Find(&list).Error
	return list, err
}

// SaveBatch 按主键 upsert，恢复已软删除的行
func (r *proxyCrudImpl) SaveBatch(proxies []*models.Proxy) error {
	if len(proxies) == 0 {
		return nil
	}
	return r.Conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(proxyUpdateColumns),
	}).CreateInBatches(proxies, saveBatchSize).Error
}

func (r *proxyCrudImpl) Deletes(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.Conn.Delete(&models.Proxy{}, ids).Error
}
