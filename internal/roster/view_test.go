package roster

import (
	"testing"

	"cricket-roster/internal/domain"

	"github.com/google/go-cmp/cmp"
)

func TestNewViewDefaults(t *testing.T) {
	v := NewView(nil, 0)

	state := v.State()
	if state.SortKey != nil || state.Category != nil || state.SearchQuery != "" {
		t.Errorf("unexpected default state: %+v", state)
	}
	if state.SortDirection != Ascending || state.CurrentPage != 1 {
		t.Errorf("direction/page = %s/%d, want asc/1", state.SortDirection, state.CurrentPage)
	}
	if v.PageSize() != DefaultPageSize {
		t.Errorf("page size = %d, want %d", v.PageSize(), DefaultPageSize)
	}

	page, total := v.Page()
	if len(page) != 0 || total != 1 {
		t.Errorf("empty view page = %d records / %d pages, want 0 / 1", len(page), total)
	}
}

func TestViewChangesResetPage(t *testing.T) {
	bowler := domain.CategoryBowler

	tests := []struct {
		name   string
		mutate func(v *View)
	}{
		{"toggle sort", func(v *View) { v.ToggleSort(SortByPoints) }},
		{"set sort", func(v *View) { v.SetSort(SortByRank, Descending) }},
		{"sort direction", func(v *View) { v.SetSortDirection(Descending) }},
		{"clear sort", func(v *View) { v.ClearSort() }},
		{"category", func(v *View) { v.SetCategory(&bowler) }},
		{"clear category", func(v *View) { v.SetCategory(nil) }},
		{"search", func(v *View) { v.SetSearch("batsman") }},
		{"roster", func(v *View) { v.SetRoster(batsmen(30)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewView(nil, 10)
			v.SetRoster(batsmen(30))
			v.SetPage(3)
			if got := v.State().CurrentPage; got != 3 {
				t.Fatalf("page = %d before mutation, want 3", got)
			}

			tt.mutate(v)

			if got := v.State().CurrentPage; got != 1 {
				t.Errorf("page = %d after %s, want 1", got, tt.name)
			}
		})
	}
}

func TestViewSetPageDoesNotRederive(t *testing.T) {
	v := NewView(nil, 10)
	v.SetRoster(batsmen(25))
	v.ToggleSort(SortByPoints)
	before := v.derivations

	v.SetPage(2)
	v.SetPage(3)

	if v.derivations != before {
		t.Errorf("derivations = %d after page changes, want %d", v.derivations, before)
	}
	page, total := v.Page()
	if total != 3 {
		t.Fatalf("total pages = %d, want 3", total)
	}
	if diff := cmp.Diff([]float64{21, 22, 23, 24, 25}, points(page)); diff != "" {
		t.Errorf("page 3 mismatch (-want +got):\n%s", diff)
	}
}

func TestViewSetPageClamps(t *testing.T) {
	v := NewView(nil, 10)
	v.SetRoster(batsmen(12))

	v.SetPage(0)
	if got := v.State().CurrentPage; got != 1 {
		t.Errorf("page = %d after SetPage(0), want 1", got)
	}
	v.SetPage(7)
	if got := v.State().CurrentPage; got != 2 {
		t.Errorf("page = %d after SetPage(7), want 2", got)
	}
}

func TestViewToggleSort(t *testing.T) {
	v := NewView(nil, 10)
	v.SetRoster(batsmen(12))

	v.ToggleSort(SortByPoints)
	if s := v.State(); *s.SortKey != SortByPoints || s.SortDirection != Ascending {
		t.Fatalf("first toggle = %s/%s, want points/asc", *s.SortKey, s.SortDirection)
	}

	v.ToggleSort(SortByPoints)
	if s := v.State(); s.SortDirection != Descending {
		t.Fatalf("second toggle direction = %s, want desc", s.SortDirection)
	}
	page, _ := v.Page()
	if diff := cmp.Diff([]float64{12, 11, 10, 9, 8, 7, 6, 5, 4, 3}, points(page)); diff != "" {
		t.Errorf("descending page mismatch (-want +got):\n%s", diff)
	}

	v.ToggleSort(SortByName)
	if s := v.State(); *s.SortKey != SortByName || s.SortDirection != Ascending {
		t.Errorf("new key toggle = %s/%s, want name/asc", *s.SortKey, s.SortDirection)
	}
}

func TestViewCategoryIsCopied(t *testing.T) {
	v := NewView(nil, 10)
	v.SetRoster(mixedRoster())

	c := domain.CategoryBowler
	v.SetCategory(&c)
	c = domain.CategoryBatsman

	if got := *v.State().Category; got != domain.CategoryBowler {
		t.Errorf("category = %s, want bowler", got)
	}
	if got := v.FilteredCount(); got != 3 {
		t.Errorf("filtered count = %d, want 3", got)
	}
}

func TestViewDeriveIsIdempotent(t *testing.T) {
	state := ViewState{
		SortKey:       ptr(SortByName),
		SortDirection: Descending,
		SearchQuery:   "kumar",
		CurrentPage:   1,
	}
	once := defaultPipeline.Derive(mixedRoster(), state)
	twice := defaultPipeline.Derive(once, state)
	if diff := cmp.Diff(ids(once), ids(twice)); diff != "" {
		t.Errorf("re-applying the pipeline changed the result (-once +twice):\n%s", diff)
	}
}
