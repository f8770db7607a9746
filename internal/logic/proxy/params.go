package proxy

import (
	"github.com/maxliu9403/ProxyBoard/internal/common"
	"github.com/maxliu9403/ProxyBoard/internal/logic/store"
	"github.com/maxliu9403/ProxyBoard/models"
)

type CreateParams struct {
	Host     string           `json:"Host" binding:"required"`
	Port     int              `json:"Port" binding:"required,gt=0,lte=65535"`
	Username string           `json:"Username"`
	Password string           `json:"Password"`
	Type     models.ProxyType `json:"Type" binding:"omitempty,proxytype"`
	Notes    string           `json:"Notes"`
	Group    string           `json:"Group"`
}

func (p CreateParams) ToRecord() models.ProxyRecord {
	return models.ProxyRecord{
		Host:     p.Host,
		Port:     p.Port,
		Username: p.Username,
		Password: p.Password,
		Type:     p.Type,
		Notes:    p.Notes,
		Group:    p.Group,
	}
}

type CreateBatchParams struct {
	Proxies []CreateParams `json:"Proxies" binding:"required,min=1,dive"`
}

type ImportParams struct {
	Text  string `json:"Text" binding:"required"`
	Group string `json:"Group"`
}

type UpdateParams struct {
	IDs   []int64     `json:"Ids" binding:"required,min=1,dive,gt=0"`
	Patch store.Patch `json:"Patch"`
}

type DeleteParams struct {
	IDs []int64 `json:"Ids" binding:"required,min=1,dive,gt=0"`
}

type TestParams struct {
	ID int64 `json:"Id" binding:"required,gt=0"`
}

// BulkParams 为空表示全部代理
type BulkParams = common.IDsParams
