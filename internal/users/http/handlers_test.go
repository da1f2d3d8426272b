package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendpin/friendpin-backend/internal/storage"
	redisstore "github.com/friendpin/friendpin-backend/internal/storage/redis"
	"github.com/friendpin/friendpin-backend/internal/users/service"
)

type testServer struct {
	router *gin.Engine
	store  storage.Store
	mr     *miniredis.Miniredis
}

func setupServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	store := redisstore.New(client, "users")
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "alice", map[string]interface{}{
		"name": "Alice", "status": "open", "created_at": "2023-09-01T00:00:00Z",
	}))
	require.NoError(t, store.Put(ctx, "bob", map[string]interface{}{"name": "Bob", "status": "close"}))

	h := New(
		service.NewUserService(store),
		service.NewFriendService(store),
		service.NewVisitService(store, service.VisitOptions{}),
	)
	router := gin.New()
	h.Register(router)

	return &testServer{router: router, store: store, mr: mr}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	var req *http.Request
	var err error
	if body == "" {
		req, err = http.NewRequest(method, path, nil)
	} else {
		req, err = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	var payload map[string]interface{}
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload), rr.Body.String())
	}
	return rr, payload
}

func TestListUsers(t *testing.T) {
	s := setupServer(t)

	rr, payload := s.do(t, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rr.Code)

	users, ok := payload["users"].([]interface{})
	require.True(t, ok)
	assert.Len(t, users, 2)
}

func TestGetUser(t *testing.T) {
	s := setupServer(t)

	t.Run("returns the record shape", func(t *testing.T) {
		rr, payload := s.do(t, http.MethodGet, "/users/alice", "")
		require.Equal(t, http.StatusOK, rr.Code)

		assert.Equal(t, "alice", payload["user_id"])
		assert.Equal(t, "Alice", payload["name"])
		assert.Equal(t, "open", payload["status"])
		assert.Equal(t, "2023-09-01T00:00:00Z", payload["created_at"])
		assert.Equal(t, "", payload["memo"])
		assert.Equal(t, "", payload["address"])
		assert.Len(t, payload, 6)
	})

	t.Run("repairs legacy status", func(t *testing.T) {
		_, payload := s.do(t, http.MethodGet, "/users/bob", "")
		assert.Equal(t, "closed", payload["status"])
	})

	t.Run("not found", func(t *testing.T) {
		rr, payload := s.do(t, http.MethodGet, "/users/nonexistent", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "User not found", payload["detail"])
	})
}

func TestFriendsFlow(t *testing.T) {
	s := setupServer(t)

	rr, payload := s.do(t, http.MethodPost, "/users/alice/friends?friend_id=bob", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Friend added successfully", payload["message"])

	rr, payload = s.do(t, http.MethodGet, "/users/alice/friends", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"friends":["bob"]}`, rr.Body.String())

	rr, payload = s.do(t, http.MethodDelete, "/users/alice/friends/bob", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Friend deleted successfully", payload["message"])

	rr, payload = s.do(t, http.MethodDelete, "/users/alice/friends/bob", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Friend not found", payload["detail"])

	rr, _ = s.do(t, http.MethodGet, "/users/alice/friends", "")
	assert.Equal(t, `{"friends":[]}`, rr.Body.String())
}

func TestAddFriend_Errors(t *testing.T) {
	s := setupServer(t)

	t.Run("missing friend record", func(t *testing.T) {
		rr, payload := s.do(t, http.MethodPost, "/users/alice/friends?friend_id=ghost", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "User not found", payload["detail"])
	})

	t.Run("missing user", func(t *testing.T) {
		rr, _ := s.do(t, http.MethodPost, "/users/ghost/friends?friend_id=bob", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("missing query parameter", func(t *testing.T) {
		rr, _ := s.do(t, http.MethodPost, "/users/alice/friends", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("list friends of missing user", func(t *testing.T) {
		rr, _ := s.do(t, http.MethodGet, "/users/ghost/friends", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestDestinationFlow(t *testing.T) {
	s := setupServer(t)

	rr, payload := s.do(t, http.MethodPost, "/users/alice/destination", `{"destination_user_id": "bob"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Destination and comming friends updated successfully", payload["message"])

	rr, _ = s.do(t, http.MethodGet, "/users/bob/comming_friends", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"comming_friends":["alice"]}`, rr.Body.String())

	rr, payload = s.do(t, http.MethodGet, "/users/alice/destination", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "bob", payload["destination_user_id"])

	rr, payload = s.do(t, http.MethodPatch, "/users/alice/cancel", `{"friend_id": "bob"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Trip cancelled successfully", payload["message"])

	rr, _ = s.do(t, http.MethodGet, "/users/bob/comming_friends", "")
	assert.Equal(t, `{"comming_friends":[]}`, rr.Body.String())

	rr, payload = s.do(t, http.MethodGet, "/users/alice/destination", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Destination not set", payload["detail"])

	doc, err := s.store.Get(context.Background(), "alice")
	require.NoError(t, err)
	_, hasDest := doc.Data["destination_user_id"]
	assert.False(t, hasDest)
}

func TestDestination_StrictBody(t *testing.T) {
	s := setupServer(t)

	cases := map[string]string{
		"unknown field":  `{"destination_user_id": "bob", "extra": 1}`,
		"missing field":  `{}`,
		"null value":     `{"destination_user_id": null}`,
		"malformed json": `{"destination_user_id":`,
		"empty body":     ``,
		"trailing data":  `{"destination_user_id": "bob"}{}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, "/users/alice/destination", strings.NewReader(body))
			require.NoError(t, err)
			rr := httptest.NewRecorder()
			s.router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		})
	}

	rr, _ := s.do(t, http.MethodPatch, "/users/alice/cancel", `{"friend_id": "bob", "destination_user_id": "bob"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestDestination_StoreFailure(t *testing.T) {
	s := setupServer(t)

	t.Run("missing destination surfaces as 500", func(t *testing.T) {
		rr, payload := s.do(t, http.MethodPost, "/users/alice/destination", `{"destination_user_id": "ghost"}`)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, payload["detail"], "document not found")
	})

	t.Run("store down", func(t *testing.T) {
		s.mr.Close()

		rr, payload := s.do(t, http.MethodPatch, "/users/alice/cancel", `{"friend_id": "bob"}`)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotEmpty(t, payload["detail"])
	})
}
