package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// ProfileService implements the Connect ProfileService: profiles, their
// members and their categories.
type ProfileService struct {
	ledger *ledger.Ledger
	users  storage.UserStore
}

// NewProfileService creates a ProfileService on top of the ledger.
func NewProfileService(l *ledger.Ledger, users storage.UserStore) *ProfileService {
	return &ProfileService{ledger: l, users: users}
}

// CreateProfile creates a profile owned by the caller.
func (s *ProfileService) CreateProfile(ctx context.Context, req *connect.Request[api.CreateProfileRequest]) (*connect.Response[api.CreateProfileResponse], error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "CreateProfile request received",
		"user_id", actor,
		"shared", req.Msg.Shared,
		"members_count", len(req.Msg.Members),
	)

	members := append([]string{actor}, req.Msg.Members...)
	users, err := s.users.GetUsersByIDs(ctx, members)
	if err != nil {
		return nil, connectError(err)
	}
	for _, id := range req.Msg.Members {
		if _, ok := users[id]; !ok {
			return nil, invalidArgument("unknown member %s", id)
		}
	}

	profile, err := s.ledger.CreateProfile(ctx, actor, req.Msg.Name, req.Msg.Shared, members)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.CreateProfileResponse{
		Profile: toAPIProfile(profile, users),
	}), nil
}

// ListProfiles returns every profile the caller belongs to.
func (s *ProfileService) ListProfiles(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[api.ListProfilesResponse], error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	profiles, err := s.ledger.ListProfiles(ctx, actor)
	if err != nil {
		slog.ErrorContext(ctx, "ListProfiles failed", "user_id", actor, "error", err)
		return nil, connectError(err)
	}

	var ids []string
	for _, p := range profiles {
		ids = append(ids, p.Members...)
	}
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, connectError(err)
	}

	out := make([]*api.Profile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toAPIProfile(p, users))
	}
	return connect.NewResponse(&api.ListProfilesResponse{Profiles: out}), nil
}

// AddMember adds a user, found by ID or email, to a shared profile.
func (s *ProfileService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	userID := req.Msg.UserID
	if userID == "" {
		if req.Msg.Email == "" {
			return nil, invalidArgument("user id or email is required")
		}
		user, err := s.users.GetUserByEmail(ctx, auth.NormalizeEmail(req.Msg.Email))
		if err != nil {
			return nil, connectError(err)
		}
		if user == nil {
			return nil, connectError(fmt.Errorf("user %s: %w", req.Msg.Email, ledger.ErrNotFound))
		}
		userID = user.ID
	}

	profile, err := s.ledger.AddMember(ctx, actor, req.Msg.ProfileID, userID)
	if err != nil {
		return nil, connectError(err)
	}
	users, err := s.users.GetUsersByIDs(ctx, profile.Members)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.AddMemberResponse{Profile: toAPIProfile(profile, users)}), nil
}

// CreateCategory adds a category to a profile the caller belongs to.
func (s *ProfileService) CreateCategory(ctx context.Context, req *connect.Request[api.CreateCategoryRequest]) (*connect.Response[api.CreateCategoryResponse], error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	limit, err := parseLimit(req.Msg.Limit)
	if err != nil {
		return nil, connectError(err)
	}

	category, err := s.ledger.CreateCategory(ctx, actor, req.Msg.ProfileID, req.Msg.Name, limit)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.CreateCategoryResponse{Category: toAPICategory(category)}), nil
}

// ListCategories returns the categories of a profile.
func (s *ProfileService) ListCategories(ctx context.Context, req *connect.Request[api.ListCategoriesRequest]) (*connect.Response[api.ListCategoriesResponse], error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := s.ledger.ListCategories(ctx, actor, req.Msg.ProfileID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.ListCategoriesResponse{Categories: convertAll(categories, toAPICategory)}), nil
}

// DeleteCategory removes a category that has no outcomes.
func (s *ProfileService) DeleteCategory(ctx context.Context, req *connect.Request[api.DeleteCategoryRequest]) (*connect.Response[api.DeleteCategoryResponse], error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteCategory(ctx, actor, req.Msg.CategoryID); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.DeleteCategoryResponse{}), nil
}

func convertAll[T, U any](in []T, convert func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, convert(v))
	}
	return out
}
