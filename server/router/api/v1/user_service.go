package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fablehall/fablehall/internal/util"
	"github.com/fablehall/fablehall/server/service/derived"
	"github.com/fablehall/fablehall/store"
)

// actorID pulls the acting user from the query string. Authentication lives
// in front of this service; by the time a request lands here the actor id
// has already been resolved.
func actorID(c echo.Context) (int32, error) {
	raw := c.QueryParam("actorId")
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "actorId is required")
	}
	return int32(id), nil
}

// CreateUserRequest is the JSON body for account registration.
type CreateUserRequest struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Bio      string `json:"bio"`
}

// CreateUser handles POST /api/v1/users.
func (s *APIV1Service) CreateUser(c echo.Context) error {
	request := &CreateUserRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if request.Username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is required")
	}
	ctx := c.Request().Context()
	existing, err := s.Store.GetUser(ctx, &store.FindUser{Username: &request.Username})
	if err != nil {
		return writeError(c, err)
	}
	if existing != nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": "username is taken"})
	}
	user, err := s.Store.CreateUser(ctx, &store.User{
		UID:      util.GenUID(),
		Username: request.Username,
		Nickname: request.Nickname,
		Bio:      request.Bio,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

// GetProfile handles GET /api/v1/users/:username/profile.
func (s *APIV1Service) GetProfile(c echo.Context) error {
	username := c.Param("username")
	profile, err := s.Reader.GetProfile(c.Request().Context(), username)
	if err != nil {
		return writeError(c, err)
	}
	if profile == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}
	return c.JSON(http.StatusOK, profile)
}

// ListTopAuthors handles GET /api/v1/users/top-authors.
func (s *APIV1Service) ListTopAuthors(c echo.Context) error {
	ranked, err := s.Reader.GetTopAuthors(c.Request().Context(), 10)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ranked)
}

// Follow handles POST /api/v1/users/:id/follow.
func (s *APIV1Service) Follow(c echo.Context) error {
	followeeID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	followerID, err := actorID(c)
	if err != nil {
		return err
	}
	if followerID == followeeID {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot follow yourself")
	}
	ctx := c.Request().Context()
	if _, err := s.Store.UpsertFollow(ctx, &store.Follow{FollowerID: followerID, FolloweeID: followeeID}); err != nil {
		return writeError(c, err)
	}
	s.Invalidator.Invalidate(ctx, derived.Event{Entity: derived.EntityFollow, ID: followerID, Mutation: derived.MutationCreate, RelatedID: followeeID})
	return c.NoContent(http.StatusNoContent)
}

// Unfollow handles DELETE /api/v1/users/:id/follow.
func (s *APIV1Service) Unfollow(c echo.Context) error {
	followeeID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	followerID, err := actorID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := s.Store.DeleteFollow(ctx, &store.DeleteFollow{FollowerID: followerID, FolloweeID: followeeID}); err != nil {
		return writeError(c, err)
	}
	s.Invalidator.Invalidate(ctx, derived.Event{Entity: derived.EntityFollow, ID: followerID, Mutation: derived.MutationDelete, RelatedID: followeeID})
	return c.NoContent(http.StatusNoContent)
}

// GetFollowStatus handles GET /api/v1/users/:id/follow-status.
func (s *APIV1Service) GetFollowStatus(c echo.Context) error {
	followeeID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	followerID, err := actorID(c)
	if err != nil {
		return err
	}
	following, err := s.Reader.GetFollowStatus(c.Request().Context(), followerID, followeeID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"following": following})
}

// ListFollowers handles GET /api/v1/users/:id/followers.
func (s *APIV1Service) ListFollowers(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	page, pageSize := pageParams(c)
	ids, err := s.Reader.GetFollowerList(c.Request().Context(), userID, page, pageSize)
	if err != nil {
		return writeError(c, err)
	}
	count, err := s.Reader.GetFollowerCount(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"userIds": ids, "total": count, "page": page, "pageSize": pageSize})
}

// ListFollowing handles GET /api/v1/users/:id/following.
func (s *APIV1Service) ListFollowing(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	page, pageSize := pageParams(c)
	ids, err := s.Reader.GetFollowingList(c.Request().Context(), userID, page, pageSize)
	if err != nil {
		return writeError(c, err)
	}
	count, err := s.Reader.GetFollowingCount(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"userIds": ids, "total": count, "page": page, "pageSize": pageSize})
}
