package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/pr-poehali-dev/messenger-design-project/config"
	"github.com/pr-poehali-dev/messenger-design-project/internal/domain/user"
	"github.com/pr-poehali-dev/messenger-design-project/internal/services"
	"github.com/pr-poehali-dev/messenger-design-project/internal/testutil"
	"github.com/pr-poehali-dev/messenger-design-project/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestRouter(t *testing.T) (*gin.Engine, *testutil.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := testutil.NewMemoryStore()
	cfg := &config.Config{BcryptCost: bcrypt.MinCost}

	r := gin.New()
	r.Any("/auth", NewAuthHandler(services.NewAuthService(store, cfg, nil, nil)).Handle)
	r.Any("/chats", NewChatHandler(services.NewChatService(store)).Handle)
	r.Any("/messages", NewMessageHandler(services.NewMessageService(store)).Handle)
	return r, store
}

func perform(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func register(t *testing.T, r http.Handler, username string) int64 {
	t.Helper()
	w := perform(r, http.MethodPost, "/auth",
		`{"action":"register","email":"`+username+`@example.com","username":"`+username+`","password":"secret","full_name":"`+strings.ToUpper(username)+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return int64(decode(t, w)["user"].(map[string]any)["id"].(float64))
}

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	r, _ := newTestRouter(t)

	w := perform(r, http.MethodPost, "/auth",
		`{"action":"register","email":"ann@example.com","username":"ann","password":"secret","full_name":"Ann Lee","phone":"+7001"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["token"], 43)
	u := body["user"].(map[string]any)
	assert.Equal(t, "ann@example.com", u["email"])
	assert.Equal(t, "Ann Lee", u["full_name"])
	assert.Equal(t, "+7001", u["phone"])
	assert.Equal(t, "online", u["status"])
	assert.Nil(t, u["avatar_url"])
	assert.NotEmpty(t, u["created_at"])
	assert.NotContains(t, u, "password_hash")

	w = perform(r, http.MethodPost, "/auth", `{"action":"login","identifier":"+7001","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	login := decode(t, w)
	assert.Equal(t, u["id"], login["user"].(map[string]any)["id"])
	assert.NotEqual(t, body["token"], login["token"])
}

func TestAuthHandler_Errors(t *testing.T) {
	r, _ := newTestRouter(t)
	register(t, r, "ann")

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "duplicate account",
			method:     http.MethodPost,
			body:       `{"action":"register","email":"ann@example.com","username":"other","password":"x"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"error":"Пользователь с такими данными уже существует"}`,
		},
		{
			name:       "wrong password",
			method:     http.MethodPost,
			body:       `{"action":"login","identifier":"ann","password":"nope"}`,
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"success":false,"error":"Неверные данные для входа"}`,
		},
		{
			name:       "unknown action",
			method:     http.MethodPost,
			body:       `{"action":"logout"}`,
			wantStatus: http.StatusMethodNotAllowed,
			wantBody:   `{"error":"Method not allowed"}`,
		},
		{
			name:       "empty body",
			method:     http.MethodPost,
			wantStatus: http.StatusMethodNotAllowed,
			wantBody:   `{"error":"Method not allowed"}`,
		},
		{
			name:       "GET is not served",
			method:     http.MethodGet,
			wantStatus: http.StatusMethodNotAllowed,
			wantBody:   `{"error":"Method not allowed"}`,
		},
		{
			name:       "malformed JSON",
			method:     http.MethodPost,
			body:       `{"action":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"error":"invalid request body"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, tt.method, "/auth", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestAuthHandler_RegisterMissingFields(t *testing.T) {
	r, _ := newTestRouter(t)

	w := perform(r, http.MethodPost, "/auth", `{"action":"register","email":"a@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestChatHandler_CreateAndList(t *testing.T) {
	r, _ := newTestRouter(t)
	ann := register(t, r, "ann")
	bob := register(t, r, "bob")

	body := `{"action":"create_chat","user_id":` + itoa(ann) + `,"contact_id":"` + itoa(bob) + `"}`
	w := perform(r, http.MethodPost, "/chats", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, true, created["success"])

	w = perform(r, http.MethodPost, "/chats", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created["chat_id"], decode(t, w)["chat_id"])

	chatID := itoa(int64(created["chat_id"].(float64)))
	w = perform(r, http.MethodPost, "/messages", `{"chat_id":`+chatID+`,"sender_id":`+itoa(ann)+`,"content":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = perform(r, http.MethodGet, "/chats?user_id="+itoa(bob), "")
	require.Equal(t, http.StatusOK, w.Code)
	chats := decode(t, w)["chats"].([]any)
	require.Len(t, chats, 1)
	entry := chats[0].(map[string]any)
	assert.Equal(t, "personal", entry["type"])
	assert.Equal(t, "ANN", entry["name"])
	assert.Equal(t, "hi", entry["last_message"])
	assert.Equal(t, float64(1), entry["unread_count"])
	assert.Equal(t, true, entry["online"])
	assert.NotNil(t, entry["last_message_time"])
}

func TestChatHandler_Validation(t *testing.T) {
	r, _ := newTestRouter(t)
	ann := register(t, r, "ann")

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"list without user", http.MethodGet, "/chats", "", http.StatusBadRequest, `{"error":"user_id is required"}`},
		{"list with bad user", http.MethodGet, "/chats?user_id=abc", "", http.StatusBadRequest, `{"error":"user_id must be a positive integer"}`},
		{"search without user", http.MethodGet, "/chats?action=search_contacts&query=a", "", http.StatusBadRequest, `{"error":"user_id is required"}`},
		{"create without contact", http.MethodPost, "/chats", `{"action":"create_chat","user_id":1}`, http.StatusBadRequest, `{"error":"contact_id is required"}`},
		{"create with self", http.MethodPost, "/chats", `{"action":"create_chat","user_id":` + itoa(ann) + `,"contact_id":` + itoa(ann) + `}`, http.StatusBadRequest, `{"error":"cannot create a chat with yourself"}`},
		{"create with unknown contact", http.MethodPost, "/chats", `{"action":"create_chat","user_id":` + itoa(ann) + `,"contact_id":999}`, http.StatusNotFound, `{"error":"Not found"}`},
		{"create with non-numeric id", http.MethodPost, "/chats", `{"action":"create_chat","user_id":"x","contact_id":2}`, http.StatusBadRequest, `{"error":"invalid request body"}`},
		{"unknown action", http.MethodPost, "/chats", `{"action":"delete_chat"}`, http.StatusMethodNotAllowed, `{"error":"Method not allowed"}`},
		{"DELETE", http.MethodDelete, "/chats", "", http.StatusMethodNotAllowed, `{"error":"Method not allowed"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestChatHandler_SearchContacts(t *testing.T) {
	r, store := newTestRouter(t)
	ann := register(t, r, "ann")
	store.AddUser(user.User{Email: "joanna@example.com", Username: "jo", FullName: sql.NullString{String: "Joanna", Valid: true}})

	w := perform(r, http.MethodGet, "/chats?action=search_contacts&user_id="+itoa(ann)+"&query=ANN", "")
	require.Equal(t, http.StatusOK, w.Code)
	users := decode(t, w)["users"].([]any)
	require.Len(t, users, 1)
	hit := users[0].(map[string]any)
	assert.Equal(t, "jo", hit["username"])
	assert.NotContains(t, hit, "created_at")

	w = perform(r, http.MethodGet, "/chats?action=search_contacts&user_id="+itoa(ann)+"&query=nobody", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"users":[]}`, w.Body.String())
}

func TestMessageHandler(t *testing.T) {
	r, store := newTestRouter(t)
	ann := register(t, r, "ann")
	group := store.AddGroup("Team", ann)

	w := perform(r, http.MethodGet, "/messages", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"chat_id is required"}`, w.Body.String())

	w = perform(r, http.MethodPost, "/messages", `{"sender_id":1,"content":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"chat_id is required"}`, w.Body.String())

	w = perform(r, http.MethodPost, "/messages", `{"chat_id":999,"sender_id":`+itoa(ann)+`,"content":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(r, http.MethodPost, "/messages", `{"chat_id":`+itoa(group)+`,"sender_id":`+itoa(ann)+`,"content":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sent := decode(t, w)
	assert.Equal(t, true, sent["success"])
	msg := sent["message"].(map[string]any)
	assert.Equal(t, "text", msg["type"])
	assert.Equal(t, false, msg["is_read"])
	assert.NotContains(t, msg, "username")

	w = perform(r, http.MethodGet, "/messages?chat_id="+itoa(group), "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)["messages"].([]any)
	require.Len(t, list, 1)
	first := list[0].(map[string]any)
	assert.Equal(t, msg["id"], first["id"])
	assert.Equal(t, "ann", first["username"])
	assert.Equal(t, "ANN", first["full_name"])

	w = perform(r, http.MethodPatch, "/messages", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandlers_StoreFailureIs500(t *testing.T) {
	r, store := newTestRouter(t)
	store.FailWith = errors.New("connection refused")

	w := perform(r, http.MethodGet, "/chats?user_id=1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())

	w = perform(r, http.MethodPost, "/auth", `{"action":"login","identifier":"a","password":"b"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal server error"}`, w.Body.String())
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func TestHandlers_TagRequestWithUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := testutil.NewMemoryStore()
	cfg := &config.Config{BcryptCost: bcrypt.MinCost}

	var seen any
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		seen = c.Request.Context().Value(logger.UserIdKey)
	})
	r.Any("/auth", NewAuthHandler(services.NewAuthService(store, cfg, nil, nil)).Handle)
	r.Any("/chats", NewChatHandler(services.NewChatService(store)).Handle)

	id := register(t, r, "ann")
	assert.Equal(t, itoa(id), seen)

	seen = nil
	w := perform(r, http.MethodGet, "/chats?user_id=77", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "77", seen)

	seen = nil
	perform(r, http.MethodGet, "/chats", "")
	assert.Nil(t, seen)
}
