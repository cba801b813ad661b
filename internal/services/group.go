package services

import (
	"context"
	"strings"

	"github.com/studytrack/apiserver/types"
)

// GroupRepository defines persistence operations for groups and memberships.
type GroupRepository interface {
	Create(ctx context.Context, group types.Group) (types.Group, error)
	Get(ctx context.Context, id int) (types.Group, error)
	ListJoined(ctx context.Context, userID int) ([]types.Group, error)
	ListJoinable(ctx context.Context, userID int) ([]types.Group, error)
	Join(ctx context.Context, groupID, userID int) error
	Leave(ctx context.Context, groupID, userID int) error
	MemberStats(ctx context.Context, groupID int) ([]types.MemberStat, error)
}

// GroupService encapsulates study group use-cases.
type GroupService struct {
	repo GroupRepository
}

func NewGroupService(repo GroupRepository) *GroupService {
	return &GroupService{repo: repo}
}

// Create registers a new group with the caller as creator and first member.
func (s *GroupService) Create(ctx context.Context, creatorID int, name string, description *string) (types.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Group{}, ErrInvalidInput
	}

	return s.repo.Create(ctx, types.Group{
		Name:        name,
		Description: description,
		CreatedBy:   creatorID,
	})
}

func (s *GroupService) Get(ctx context.Context, id int) (types.Group, error) {
	return s.repo.Get(ctx, id)
}

func (s *GroupService) ListJoined(ctx context.Context, userID int) ([]types.Group, error) {
	return s.repo.ListJoined(ctx, userID)
}

func (s *GroupService) ListJoinable(ctx context.Context, userID int) ([]types.Group, error) {
	return s.repo.ListJoinable(ctx, userID)
}

func (s *GroupService) Join(ctx context.Context, groupID, userID int) error {
	return s.repo.Join(ctx, groupID, userID)
}

func (s *GroupService) Leave(ctx context.Context, groupID, userID int) error {
	return s.repo.Leave(ctx, groupID, userID)
}

func (s *GroupService) MemberStats(ctx context.Context, groupID int) ([]types.MemberStat, error) {
	return s.repo.MemberStats(ctx, groupID)
}
