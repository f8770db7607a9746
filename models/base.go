package models

import (
	"gorm.io/gorm"
)

// Meta 公共列，ID 由看板分配，不使用自增
type Meta struct {
	ID         int64          `json:"Id" gorm:"column:id;primaryKey;autoIncrement:false"`
	CreateTime int64          `json:"CreateTime" gorm:"column:create_time;autoCreateTime"`
	UpdateTime int64          `json:"UpdateTime" gorm:"column:update_time;autoUpdateTime"` // 更新时间
	DeleteTime gorm.DeletedAt `json:"-" gorm:"column:delete_time"`
}
