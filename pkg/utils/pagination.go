package utils

const (
	defaultLimit = 10
	maxLimit     = 100
	// maxPage 限制偏移量，避免深分页拖垮数据库
	maxPage = 1000
)

// Pagination 分页请求参数
type Pagination struct {
	Page  int `json:"page" form:"page"`
	Limit int `json:"limit" form:"limit"`
}

// PageResult 分页响应结果
type PageResult struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// GetPageOffset 规整页码与每页数量，返回偏移量和数量
func (p *Pagination) GetPageOffset() (int, int) {
	switch {
	case p.Page <= 0:
		p.Page = 1
	case p.Page > maxPage:
		p.Page = maxPage
	}
	switch {
	case p.Limit <= 0:
		p.Limit = defaultLimit
	case p.Limit > maxLimit:
		p.Limit = maxLimit
	}
	return (p.Page - 1) * p.Limit, p.Limit
}
