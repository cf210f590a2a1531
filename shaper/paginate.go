package shaper

import "github.com/safecoin/interest-api/types"

// Page is one page of a shaped table.
type Page struct {
	Items      []types.UnspentOutput `json:"items"`
	TotalCount int                   `json:"total_count"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	PageCount  int                   `json:"page_count"`
}

// Paginate cuts the 1-based page out of rows. Pages past the end are empty.
func Paginate(rows []types.UnspentOutput, page, pageSize int) Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	total := len(rows)
	result := Page{
		Items:      []types.UnspentOutput{},
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		PageCount:  (total + pageSize - 1) / pageSize,
	}

	start := (page - 1) * pageSize
	if start >= total {
		return result
	}
	end := min(start+pageSize, total)
	result.Items = rows[start:end]

	return result
}
