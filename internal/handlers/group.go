package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/studytrack/apiserver/internal/services"
	"github.com/studytrack/apiserver/internal/store"
	"github.com/studytrack/apiserver/types"
)

// GroupHandler provides HTTP handlers for study groups.
type GroupHandler struct {
	groupService *services.GroupService
}

// NewGroupHandler constructs a handler with the provided service.
func NewGroupHandler(groupService *services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// GroupRouter registers group routes on the given router. All routes act on
// behalf of the authenticated user.
func GroupRouter(r chi.Router, groupService *services.GroupService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewGroupHandler(groupService)

	r.Use(authMiddleware)
	r.Post("/", handler.CreateGroup)
	r.Get("/joined", handler.ListJoined)
	r.Get("/joinable", handler.ListJoinable)
	r.Route("/{groupID}", func(r chi.Router) {
		r.Get("/", handler.GetGroup)
		r.Post("/join", handler.JoinGroup)
		r.Post("/leave", handler.LeaveGroup)
		r.Get("/stats", handler.MemberStats)
	})
}

// CreateGroup registers a group and enrolls the caller as its first member.
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	group, err := h.groupService.Create(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create group")
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseGroupID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	group, err := h.groupService.Get(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch group")
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// ListJoined returns the groups the caller belongs to.
func (h *GroupHandler) ListJoined(w http.ResponseWriter, r *http.Request) {
	h.listGroups(w, r, h.groupService.ListJoined)
}

// ListJoinable returns the groups the caller has not joined yet.
func (h *GroupHandler) ListJoinable(w http.ResponseWriter, r *http.Request) {
	h.listGroups(w, r, h.groupService.ListJoinable)
}

func (h *GroupHandler) listGroups(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, userID int) ([]types.Group, error)) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	groups, err := list(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list groups")
		return
	}

	writeJSON(w, http.StatusOK, GroupListResponse{Items: groups})
}

// JoinGroup enrolls the caller into a group.
func (h *GroupHandler) JoinGroup(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	groupID, err := parseGroupID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.groupService.Join(r.Context(), groupID, userID); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyMember):
			writeError(w, http.StatusConflict, "already a member")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "group not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to join group")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LeaveGroup removes the caller's membership. Leaving a group the caller is
// not in succeeds silently.
func (h *GroupHandler) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	groupID, err := parseGroupID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.groupService.Leave(r.Context(), groupID, userID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to leave group")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MemberStats returns the group leaderboard.
func (h *GroupHandler) MemberStats(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseGroupID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.groupService.MemberStats(r.Context(), groupID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load member stats")
		return
	}

	writeJSON(w, http.StatusOK, MemberStatsResponse{Items: stats})
}

type CreateGroupRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// GroupListResponse is the group listing payload.
type GroupListResponse struct {
	Items []types.Group `json:"items"`
}

// MemberStatsResponse is the leaderboard payload, most studied first.
type MemberStatsResponse struct {
	Items []types.MemberStat `json:"items"`
}

func parseGroupID(r *http.Request) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "groupID"))
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid group id")
	}
	return id, nil
}
