package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cricket-roster/internal/config"
	"cricket-roster/internal/constants"
	"cricket-roster/internal/domain"
	"cricket-roster/internal/roster"
	"cricket-roster/internal/service"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const RosterServicePath = "/roster.v1.RosterService/"

const (
	ListPlayersProcedure = RosterServicePath + "ListPlayers"
	OpenViewProcedure    = RosterServicePath + "OpenView"
	UpdateViewProcedure  = RosterServicePath + "UpdateView"
	CloseViewProcedure   = RosterServicePath + "CloseView"
	GetPlayerProcedure   = RosterServicePath + "GetPlayer"
)

type RosterServer struct {
	loader   roster.Loader
	sessions *service.SessionManager
	detail   *service.DetailService
	pipeline *roster.Pipeline
	pageSize int
	now      func() time.Time
	logger   zerolog.Logger
}

func NewRosterServer(loader roster.Loader, sessions *service.SessionManager, detail *service.DetailService, cfg *config.Config, logger zerolog.Logger) *RosterServer {
	return &RosterServer{
		loader:   loader,
		sessions: sessions,
		detail:   detail,
		pipeline: roster.NewPipeline(cfg.Locale()),
		pageSize: cfg.PageSize,
		now:      time.Now,
		logger:   logger,
	}
}

// Handler returns the mount path and handler for every procedure of the
// roster service.
func (s *RosterServer) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{Codec()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ListPlayersProcedure, connect.NewUnaryHandler(ListPlayersProcedure, s.ListPlayers, opts...))
	mux.Handle(OpenViewProcedure, connect.NewUnaryHandler(OpenViewProcedure, s.OpenView, opts...))
	mux.Handle(UpdateViewProcedure, connect.NewUnaryHandler(UpdateViewProcedure, s.UpdateView, opts...))
	mux.Handle(CloseViewProcedure, connect.NewUnaryHandler(CloseViewProcedure, s.CloseView, opts...))
	mux.Handle(GetPlayerProcedure, connect.NewUnaryHandler(GetPlayerProcedure, s.GetPlayer, opts...))
	return RosterServicePath, mux
}

func (s *RosterServer) ListPlayers(ctx context.Context, req *connect.Request[ListPlayersRequest]) (*connect.Response[ListPlayersResponse], error) {
	start := time.Now()
	msg := req.Msg

	state, err := parseViewState(msg.SortKey, msg.SortDirection, msg.Category, msg.Query, msg.Page)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	pageSize, err := s.requestPageSize(msg.PageSize)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	players := s.loader.Load(ctx)
	derived := s.pipeline.Derive(players, state)
	total := roster.TotalPages(len(derived), pageSize)
	page := roster.ClampPage(state.CurrentPage, total)

	zerolog.Ctx(ctx).Debug().
		Int("roster_size", len(players)).
		Int("filtered", len(derived)).
		Int("page", page).
		Dur("duration", time.Since(start)).
		Msg("list players")

	return connect.NewResponse(&ListPlayersResponse{
		Players:       s.toRows(roster.Paginate(derived, page, pageSize)),
		TotalPages:    total,
		Page:          page,
		FilteredCount: len(derived),
	}), nil
}

func (s *RosterServer) OpenView(ctx context.Context, req *connect.Request[OpenViewRequest]) (*connect.Response[OpenViewResponse], error) {
	sess, err := s.sessions.Open()
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	if req.Msg.Wait {
		if err := sess.AwaitLoaded(ctx); err != nil {
			return nil, connect.NewError(connect.CodeDeadlineExceeded, err)
		}
	}

	snap, err := sess.Snapshot()
	if err != nil {
		return nil, s.sessionError(err)
	}
	return connect.NewResponse(&OpenViewResponse{View: s.toView(snap)}), nil
}

func (s *RosterServer) UpdateView(ctx context.Context, req *connect.Request[UpdateViewRequest]) (*connect.Response[UpdateViewResponse], error) {
	msg := req.Msg

	apply, err := viewAction(msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	var sess *service.Session
	if msg.Action == ActionReload {
		sess, err = s.sessions.Reload(msg.SessionID)
	} else {
		sess, err = s.sessions.Get(msg.SessionID)
	}
	if err != nil {
		return nil, s.sessionError(err)
	}

	if msg.Wait {
		if err := sess.AwaitLoaded(ctx); err != nil {
			return nil, connect.NewError(connect.CodeDeadlineExceeded, err)
		}
	}

	snap, err := sess.Update(apply)
	if err != nil {
		return nil, s.sessionError(err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("session_id", msg.SessionID).
		Str("action", msg.Action).
		Int("page", snap.State.CurrentPage).
		Int("total_pages", snap.TotalPages).
		Msg("view updated")

	return connect.NewResponse(&UpdateViewResponse{View: s.toView(snap)}), nil
}

func (s *RosterServer) CloseView(ctx context.Context, req *connect.Request[CloseViewRequest]) (*connect.Response[CloseViewResponse], error) {
	if err := s.sessions.Close(req.Msg.SessionID); err != nil {
		return nil, s.sessionError(err)
	}
	return connect.NewResponse(&CloseViewResponse{}), nil
}

func (s *RosterServer) GetPlayer(ctx context.Context, req *connect.Request[GetPlayerRequest]) (*connect.Response[GetPlayerResponse], error) {
	detail, ok := s.detail.GetPlayer(ctx, req.Msg.ID)
	if !ok {
		return connect.NewResponse(&GetPlayerResponse{Similar: []PlayerRow{}}), nil
	}

	row := s.toRow(detail.Player)
	return connect.NewResponse(&GetPlayerResponse{
		Found:   true,
		Player:  &row,
		Similar: s.toRows(detail.Similar),
	}), nil
}

func (s *RosterServer) sessionError(err error) error {
	if errors.Is(err, service.ErrSessionNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	s.logger.Error().Err(err).Msg("view session failure")
	return connect.NewError(connect.CodeInternal, err)
}

func (s *RosterServer) requestPageSize(n int) (int, error) {
	switch {
	case n == 0:
		return s.pageSize, nil
	case n < 0 || n > constants.MaxRequestPageSize:
		return 0, fmt.Errorf("page size must be between 1 and %d", constants.MaxRequestPageSize)
	}
	return n, nil
}

// viewAction validates msg and returns the mutation it asks for.
func viewAction(msg *UpdateViewRequest) (func(v *roster.View), error) {
	switch msg.Action {
	case ActionSnapshot, ActionReload:
		return nil, nil
	case ActionToggleSort:
		key, err := roster.ParseSortKey(msg.SortKey)
		if err != nil {
			return nil, err
		}
		return func(v *roster.View) { v.ToggleSort(key) }, nil
	case ActionSetSort:
		key, err := roster.ParseSortKey(msg.SortKey)
		if err != nil {
			return nil, err
		}
		dir, err := roster.ParseSortDirection(msg.SortDirection)
		if err != nil {
			return nil, err
		}
		return func(v *roster.View) { v.SetSort(key, dir) }, nil
	case ActionClearSort:
		return func(v *roster.View) { v.ClearSort() }, nil
	case ActionSetCategory:
		category, err := parseCategory(msg.Category)
		if err != nil {
			return nil, err
		}
		return func(v *roster.View) { v.SetCategory(category) }, nil
	case ActionSetSearch:
		if err := validateQuery(msg.Query); err != nil {
			return nil, err
		}
		return func(v *roster.View) { v.SetSearch(msg.Query) }, nil
	case ActionSetPage:
		page := msg.Page
		return func(v *roster.View) { v.SetPage(page) }, nil
	}
	return nil, fmt.Errorf("unknown action %q", msg.Action)
}

func parseViewState(sortKey, sortDirection, category, query string, page int) (roster.ViewState, error) {
	state := roster.DefaultViewState()

	if sortKey != "" {
		key, err := roster.ParseSortKey(sortKey)
		if err != nil {
			return state, err
		}
		state.SortKey = &key
	}
	dir, err := roster.ParseSortDirection(sortDirection)
	if err != nil {
		return state, err
	}
	state.SortDirection = dir

	c, err := parseCategory(category)
	if err != nil {
		return state, err
	}
	state.Category = c

	if err := validateQuery(query); err != nil {
		return state, err
	}
	state.SearchQuery = query

	if page > 0 {
		state.CurrentPage = page
	}
	return state, nil
}

// parseCategory maps "" to no filter.
func parseCategory(s string) (*domain.Category, error) {
	if s == "" {
		return nil, nil
	}
	c, err := domain.ParseCategory(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func validateQuery(q string) error {
	if len(q) > constants.MaxSearchQueryLength {
		return fmt.Errorf("search query longer than %d bytes", constants.MaxSearchQueryLength)
	}
	return nil
}

func (s *RosterServer) toView(snap service.ViewSnapshot) View {
	state := ViewState{
		SortDirection: string(snap.State.SortDirection),
		Query:         snap.State.SearchQuery,
		Page:          snap.State.CurrentPage,
	}
	if snap.State.SortKey != nil {
		state.SortKey = string(*snap.State.SortKey)
	}
	if snap.State.Category != nil {
		state.Category = string(*snap.State.Category)
	}

	return View{
		SessionID:     snap.SessionID,
		Players:       s.toRows(snap.Players),
		TotalPages:    snap.TotalPages,
		FilteredCount: snap.FilteredCount,
		PageSize:      snap.PageSize,
		State:         state,
		Loading:       snap.Loading,
	}
}

func (s *RosterServer) toRows(players []domain.Player) []PlayerRow {
	rows := make([]PlayerRow, len(players))
	for i, p := range players {
		rows[i] = s.toRow(p)
	}
	return rows
}

func (s *RosterServer) toRow(p domain.Player) PlayerRow {
	row := PlayerRow{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    string(p.Category),
		Points:      p.Points,
		Rank:        p.Rank,
		Age:         roster.Age(p.DateOfBirth, s.now()),
	}
	if p.DateOfBirth != nil {
		row.DateOfBirth = p.DateOfBirth.Format(time.DateOnly)
	}
	return row
}
