package roster

import (
	"slices"
	"strings"

	"cricket-roster/internal/domain"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const DefaultPageSize = 10

// ViewState drives which subset of the roster is visible. A nil SortKey keeps
// roster order and a nil Category keeps every category.
type ViewState struct {
	SortKey       *SortKey
	SortDirection SortDirection
	Category      *domain.Category
	SearchQuery   string
	CurrentPage   int
}

func DefaultViewState() ViewState {
	return ViewState{SortDirection: Ascending, CurrentPage: 1}
}

// Pipeline derives visible pages from a roster. The zero value is not usable;
// build one with NewPipeline.
type Pipeline struct {
	locale language.Tag
}

func NewPipeline(locale language.Tag) *Pipeline {
	return &Pipeline{locale: locale}
}

var defaultPipeline = NewPipeline(language.English)

// ComputeVisiblePage runs the category filter, search filter, sort and
// pagination steps in that order using English collation.
func ComputeVisiblePage(players []domain.Player, state ViewState, pageSize int) ([]domain.Player, int) {
	return defaultPipeline.ComputeVisiblePage(players, state, pageSize)
}

func (p *Pipeline) ComputeVisiblePage(players []domain.Player, state ViewState, pageSize int) ([]domain.Player, int) {
	derived := p.Derive(players, state)
	total := TotalPages(len(derived), pageSize)
	page := ClampPage(state.CurrentPage, total)
	return Paginate(derived, page, pageSize), total
}

// Derive returns the filtered and sorted sequence without paginating it.
func (p *Pipeline) Derive(players []domain.Player, state ViewState) []domain.Player {
	filtered := FilterByCategory(players, state.Category)
	filtered = FilterBySearch(filtered, state.SearchQuery)
	if state.SortKey == nil {
		return filtered
	}
	return p.Sort(filtered, *state.SortKey, state.SortDirection)
}

func FilterByCategory(players []domain.Player, category *domain.Category) []domain.Player {
	if category == nil {
		return players
	}
	out := make([]domain.Player, 0, len(players))
	for _, pl := range players {
		if pl.Category == *category {
			out = append(out, pl)
		}
	}
	return out
}

func FilterBySearch(players []domain.Player, query string) []domain.Player {
	if query == "" {
		return players
	}
	q := strings.ToLower(query)
	out := make([]domain.Player, 0, len(players))
	for _, pl := range players {
		if containsFold(pl.Name, q) || containsFold(pl.Description, q) {
			out = append(out, pl)
		}
	}
	return out
}

func containsFold(field, lowerQuery string) bool {
	if field == "" {
		return false
	}
	return strings.Contains(strings.ToLower(field), lowerQuery)
}

// Sort returns a new, stably ordered copy of players. The input is not
// modified.
func (p *Pipeline) Sort(players []domain.Player, key SortKey, dir SortDirection) []domain.Player {
	col := collate.New(p.locale)
	sorted := slices.Clone(players)
	slices.SortStableFunc(sorted, func(a, b domain.Player) int {
		c := compareValues(col, valueAt(a, key), valueAt(b, key))
		if dir == Descending {
			return -c
		}
		return c
	})
	return sorted
}

func TotalPages(count, pageSize int) int {
	pageSize = normalizePageSize(pageSize)
	pages := (count + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate slices the window [(page-1)*pageSize, page*pageSize). Windows past
// the end are empty.
func Paginate(players []domain.Player, page, pageSize int) []domain.Player {
	pageSize = normalizePageSize(pageSize)
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(players) {
		return []domain.Player{}
	}
	end := min(start+pageSize, len(players))
	return players[start:end:end]
}

func normalizePageSize(pageSize int) int {
	if pageSize < 1 {
		return DefaultPageSize
	}
	return pageSize
}
