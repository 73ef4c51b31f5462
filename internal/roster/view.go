package roster

import (
	"context"

	"cricket-roster/internal/domain"
)

// Loader supplies the authoritative roster snapshot. Implementations absorb
// their own failures and return an empty roster instead of an error.
type Loader interface {
	Load(ctx context.Context) []domain.Player
}

// View owns the roster snapshot and ViewState of one list view. Every
// mutation that affects filtering or ordering re-derives the sequence and
// resets the page; SetPage only re-slices. A View is not safe for concurrent
// use.
type View struct {
	pipeline *Pipeline
	pageSize int

	players    []domain.Player
	state      ViewState
	derived    []domain.Player
	totalPages int

	derivations int
}

func NewView(pipeline *Pipeline, pageSize int) *View {
	if pipeline == nil {
		pipeline = defaultPipeline
	}
	v := &View{
		pipeline: pipeline,
		pageSize: normalizePageSize(pageSize),
		state:    DefaultViewState(),
	}
	v.rederive()
	return v
}

func (v *View) rederive() {
	v.derived = v.pipeline.Derive(v.players, v.state)
	v.totalPages = TotalPages(len(v.derived), v.pageSize)
	v.state.CurrentPage = 1
	v.derivations++
}

// SetRoster replaces the whole snapshot.
func (v *View) SetRoster(players []domain.Player) {
	v.players = players
	v.rederive()
}

// ToggleSort flips the direction when key is already the sort key, otherwise
// sorts ascending by key.
func (v *View) ToggleSort(key SortKey) {
	if v.state.SortKey != nil && *v.state.SortKey == key {
		v.state.SortDirection = v.state.SortDirection.Reverse()
	} else {
		v.state.SortKey = &key
		v.state.SortDirection = Ascending
	}
	v.rederive()
}

func (v *View) SetSort(key SortKey, dir SortDirection) {
	v.state.SortKey = &key
	v.state.SortDirection = dir
	v.rederive()
}

func (v *View) ClearSort() {
	v.state.SortKey = nil
	v.state.SortDirection = Ascending
	v.rederive()
}

func (v *View) SetSortDirection(dir SortDirection) {
	v.state.SortDirection = dir
	v.rederive()
}

// SetCategory filters by category; nil shows every category.
func (v *View) SetCategory(category *domain.Category) {
	if category != nil {
		c := *category
		category = &c
	}
	v.state.Category = category
	v.rederive()
}

func (v *View) SetSearch(query string) {
	v.state.SearchQuery = query
	v.rederive()
}

func (v *View) SetPage(page int) {
	v.state.CurrentPage = ClampPage(page, v.totalPages)
}

func (v *View) Page() ([]domain.Player, int) {
	return Paginate(v.derived, v.state.CurrentPage, v.pageSize), v.totalPages
}

func (v *View) State() ViewState {
	return v.state
}

func (v *View) PageSize() int {
	return v.pageSize
}

// FilteredCount is the number of records across all pages.
func (v *View) FilteredCount() int {
	return len(v.derived)
}

func (v *View) Roster() []domain.Player {
	return v.players
}
