package server

type PlayerRow struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Points      float64 `json:"points"`
	Rank        int     `json:"rank"`
	DateOfBirth string  `json:"dateOfBirth,omitempty"` // YYYY-MM-DD
	Age         int     `json:"age"`
}

type ViewState struct {
	SortKey       string `json:"sortKey,omitempty"`
	SortDirection string `json:"sortDirection"`
	Category      string `json:"category,omitempty"`
	Query         string `json:"query"`
	Page          int    `json:"page"`
}

type View struct {
	SessionID     string      `json:"sessionId"`
	Players       []PlayerRow `json:"players"`
	TotalPages    int         `json:"totalPages"`
	FilteredCount int         `json:"filteredCount"`
	PageSize      int         `json:"pageSize"`
	State         ViewState   `json:"state"`
	Loading       bool        `json:"loading"`
}

type ListPlayersRequest struct {
	SortKey       string `json:"sortKey"`
	SortDirection string `json:"sortDirection"`
	Category      string `json:"category"`
	Query         string `json:"query"`
	Page          int    `json:"page"`
	PageSize      int    `json:"pageSize"`
}

type ListPlayersResponse struct {
	Players       []PlayerRow `json:"players"`
	TotalPages    int         `json:"totalPages"`
	Page          int         `json:"page"`
	FilteredCount int         `json:"filteredCount"`
}

type OpenViewRequest struct {
	// Wait blocks until the roster has loaded.
	Wait bool `json:"wait"`
}

type OpenViewResponse struct {
	View View `json:"view"`
}

const (
	ActionSnapshot    = ""
	ActionToggleSort  = "toggleSort"
	ActionSetSort     = "setSort"
	ActionClearSort   = "clearSort"
	ActionSetCategory = "setCategory"
	ActionSetSearch   = "setSearch"
	ActionSetPage     = "setPage"
	ActionReload      = "reload"
)

type UpdateViewRequest struct {
	SessionID     string `json:"sessionId"`
	Action        string `json:"action"`
	SortKey       string `json:"sortKey"`
	SortDirection string `json:"sortDirection"`
	Category      string `json:"category"`
	Query         string `json:"query"`
	Page          int    `json:"page"`
	Wait          bool   `json:"wait"`
}

type UpdateViewResponse struct {
	View View `json:"view"`
}

type CloseViewRequest struct {
	SessionID string `json:"sessionId"`
}

type CloseViewResponse struct{}

type GetPlayerRequest struct {
	ID string `json:"id"`
}

// GetPlayerResponse reports an unknown id with Found=false rather than an
// error.
type GetPlayerResponse struct {
	Found   bool        `json:"found"`
	Player  *PlayerRow  `json:"player,omitempty"`
	Similar []PlayerRow `json:"similar"`
}
