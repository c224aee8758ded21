package need

import "testing"

func pins(n int) []Need {
	out := make([]Need, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, helpPin(string(rune('a'+i%26))+string(rune('0'+i/26)), StatusOpen, int64(100+i)))
	}
	return out
}

func TestPaginateBasicSlice(t *testing.T) {
	p := Paginate(pins(25), 10, 1)

	if len(p.Items) != 10 {
		t.Fatalf("page 1 should have 10 items, got %d", len(p.Items))
	}
	if p.TotalPages != 3 || p.TotalCount != 25 {
		t.Fatalf("got totalPages=%d totalCount=%d", p.TotalPages, p.TotalCount)
	}
	if p.HasPrev || !p.HasNext {
		t.Fatalf("page 1 of 3: hasPrev=%v hasNext=%v", p.HasPrev, p.HasNext)
	}
	if p.RangeStart != 0 || p.RangeEnd != 10 {
		t.Fatalf("range [%d,%d)", p.RangeStart, p.RangeEnd)
	}
}

func TestPaginateLastPartialPage(t *testing.T) {
	p := Paginate(pins(25), 10, 3)

	if len(p.Items) != 5 {
		t.Fatalf("page 3 should have 5 items, got %d", len(p.Items))
	}
	if p.RangeStart != 20 || p.RangeEnd != 25 {
		t.Fatalf("range [%d,%d)", p.RangeStart, p.RangeEnd)
	}
	if p.HasNext {
		t.Fatal("last page claims hasNext")
	}
}

func TestPaginateClampsBeyondEnd(t *testing.T) {
	ordered := pins(25)

	atEnd := Paginate(ordered, 10, 3)
	farPast := Paginate(ordered, 10, 8) // ceil(25/10)+5

	if farPast.Page != atEnd.Page {
		t.Fatalf("expected clamp to page %d, got %d", atEnd.Page, farPast.Page)
	}
	if len(farPast.Items) != len(atEnd.Items) {
		t.Fatalf("clamped page differs: %d vs %d items", len(farPast.Items), len(atEnd.Items))
	}
}

// Scenario: 25 open pins on page 3, then 16 get deleted. The survivors fit
// on one page and the stale page request must degrade to it.
func TestPaginateShrinkingResultSet(t *testing.T) {
	p := Paginate(pins(9), 10, 3)

	if p.Page != 1 || p.TotalPages != 1 {
		t.Fatalf("expected clamp to page 1 of 1, got page %d of %d", p.Page, p.TotalPages)
	}
	if len(p.Items) != 9 {
		t.Fatalf("expected all 9 survivors, got %d", len(p.Items))
	}
}

func TestPaginateEmptyInput(t *testing.T) {
	p := Paginate(nil, 10, 1)

	if p.TotalPages != 1 || p.TotalCount != 0 {
		t.Fatalf("empty input: totalPages=%d totalCount=%d", p.TotalPages, p.TotalCount)
	}
	if len(p.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(p.Items))
	}
	if p.HasPrev || p.HasNext {
		t.Fatal("empty single page claims neighbors")
	}
}

func TestPaginateDefendsBadArguments(t *testing.T) {
	p := Paginate(pins(3), 0, -4)

	if p.Page != 1 {
		t.Fatalf("expected page 1, got %d", p.Page)
	}
	if p.PageSize != 1 {
		t.Fatalf("expected page size floor of 1, got %d", p.PageSize)
	}
}
