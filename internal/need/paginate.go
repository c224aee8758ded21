package need

// Page is one displayed slice of a projected list plus its metadata.
// RangeStart/RangeEnd are half-open indexes into the full ordered list.
type Page struct {
	Items      []Need `json:"items"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
	TotalCount int    `json:"total_count"`
	RangeStart int    `json:"range_start"`
	RangeEnd   int    `json:"range_end"`
	HasPrev    bool   `json:"has_prev"`
	HasNext    bool   `json:"has_next"`
}

// Paginate slices the requested page out of an ordered list.
// The requested page is clamped into [1, TotalPages], so a page kept from
// before a filter shrank the list degrades to the last valid page instead
// of rendering empty. An empty list still yields one (empty) page.
func Paginate(ordered []Need, pageSize, requestedPage int) Page {
	if pageSize < 1 {
		pageSize = 1
	}

	total := len(ordered)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	page := requestedPage
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	if start > total {
		start = total
	}

	return Page{
		Items:      ordered[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalCount: total,
		RangeStart: start,
		RangeEnd:   end,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}
