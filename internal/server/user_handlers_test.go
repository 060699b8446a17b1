package server

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"guildkeeper/internal/models"
	"guildkeeper/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, path, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestGetUsers(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.seed("admin@guildkeeper.test", models.RoleAdmin)
	_, userToken := env.seed("user@guildkeeper.test", models.RoleUser)
	for i := 0; i < 3; i++ {
		testutil.SeedAccount(t, env.store, fmt.Sprintf("extra%d@guildkeeper.test", i), models.RoleUser)
	}

	status, body := env.do(http.MethodGet, "/api/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Admin access required", body["message"])

	status, body = env.do(http.MethodGet, "/api/users?limit=2&page=2&sortBy=email&sortOrder=asc", adminToken, nil)
	require.Equal(t, http.StatusOK, status, "%v", body)
	list := data(t, body)
	assert.Len(t, list["users"], 2)
	pagination := list["pagination"].(map[string]any)
	assert.EqualValues(t, 2, pagination["currentPage"])
	assert.EqualValues(t, 3, pagination["totalPages"])
	assert.EqualValues(t, 5, pagination["totalUsers"])
	assert.EqualValues(t, 2, pagination["usersPerPage"])
	assert.Equal(t, true, pagination["hasNextPage"])
	assert.Equal(t, true, pagination["hasPrevPage"])
	stats := list["stats"].(map[string]any)
	assert.EqualValues(t, 1, stats["admins"])

	status, body = env.do(http.MethodGet, "/api/users?role=admin", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, data(t, body)["users"], 1)

	status, body = env.do(http.MethodGet, "/api/users?search=extra1", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, data(t, body)["users"], 1)
}

func TestGetUser_Access(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.seed("admin@guildkeeper.test", models.RoleAdmin)
	user, userToken := env.seed("user@guildkeeper.test", models.RoleUser)
	other := testutil.SeedAccount(t, env.store, "other@guildkeeper.test", models.RoleUser)

	tests := []struct {
		name       string
		token      string
		path       string
		wantStatus int
	}{
		{"self", userToken, "/api/users/" + user.ID, http.StatusOK},
		{"other user", userToken, "/api/users/" + other.ID, http.StatusForbidden},
		{"admin", adminToken, "/api/users/" + other.ID, http.StatusOK},
		{"missing", adminToken, "/api/users/" + models.NewID(), http.StatusNotFound},
		{"invalid id", adminToken, "/api/users/123", http.StatusBadRequest},
		{"anonymous", "", "/api/users/" + user.ID, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(http.MethodGet, tt.path, tt.token, nil)
			assert.Equal(t, tt.wantStatus, status, "%v", body)
			if tt.wantStatus == http.StatusBadRequest {
				assert.Equal(t, "Invalid ID format", body["message"])
			}
		})
	}
}

func TestCreateAndUpdateUser(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.seed("admin@guildkeeper.test", models.RoleAdmin)

	body := registerBody("new@guildkeeper.test")
	payload := map[string]any{"role": "admin"}
	for k, v := range body {
		payload[k] = v
	}
	status, resp := env.do(http.MethodPost, "/api/users", adminToken, payload)
	require.Equal(t, http.StatusCreated, status, "%v", resp)
	created := data(t, resp)
	assert.Equal(t, "admin", created["role"])
	id := created["id"].(string)

	status, resp = env.do(http.MethodPut, "/api/users/"+id, adminToken, map[string]any{
		"name": "Radagast", "active": false,
	})
	require.Equal(t, http.StatusOK, status, "%v", resp)
	assert.Equal(t, "Radagast", data(t, resp)["name"])
	assert.Equal(t, false, data(t, resp)["active"])
}

func TestUpdateUser_OwnerCannotChangeRole(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.seed("user@guildkeeper.test", models.RoleUser)

	status, body := env.do(http.MethodPut, "/api/users/"+user.ID, token, map[string]any{
		"name": "Samwise", "role": "admin",
	})
	require.Equal(t, http.StatusOK, status, "%v", body)
	assert.Equal(t, "Samwise", data(t, body)["name"])
	assert.Equal(t, "user", data(t, body)["role"])
}

func TestToggleUserRoleAndStatus(t *testing.T) {
	env := newTestEnv(t)
	admin, adminToken := env.seed("admin@guildkeeper.test", models.RoleAdmin)
	user := testutil.SeedAccount(t, env.store, "user@guildkeeper.test", models.RoleUser)

	status, body := env.do(http.MethodPatch, "/api/users/"+user.ID+"/role", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User role updated to admin", body["message"])

	status, body = env.do(http.MethodPatch, "/api/users/"+user.ID+"/status", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User deactivated", body["message"])
	assert.Equal(t, false, data(t, body)["active"])

	status, body = env.do(http.MethodPatch, "/api/users/"+admin.ID+"/status", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You cannot deactivate your own account", body["message"])
}

func TestBulkUsers(t *testing.T) {
	env := newTestEnv(t)
	admin, adminToken := env.seed("admin@guildkeeper.test", models.RoleAdmin)
	a := testutil.SeedAccount(t, env.store, "a@guildkeeper.test", models.RoleUser)
	b := testutil.SeedAccount(t, env.store, "b@guildkeeper.test", models.RoleUser)

	status, body := env.do(http.MethodPost, "/api/users/bulk", adminToken, map[string]any{
		"userIds": []string{a.ID, b.ID, admin.ID}, "action": "deactivate",
	})
	require.Equal(t, http.StatusOK, status, "%v", body)
	assert.Equal(t, "Users deactivated (2 users)", body["message"])
	assert.EqualValues(t, 2, data(t, body)["affectedUsers"])

	status, body = env.do(http.MethodPost, "/api/users/bulk", adminToken, map[string]any{
		"userIds": []string{a.ID}, "action": "explode",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid action", body["message"])

	status, body = env.do(http.MethodPost, "/api/users/bulk", adminToken, map[string]any{
		"userIds": []string{a.ID, b.ID}, "action": "delete",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2 users deleted", body["message"])

	_, err := env.store.Users().GetByID(context.Background(), a.ID)
	assert.Error(t, err)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	admin, adminToken := env.seed("admin@guildkeeper.test", models.RoleAdmin)
	user, userToken := env.seed("user@guildkeeper.test", models.RoleUser)
	post := testutil.SeedPost(t, env.store, admin, "Keep", nil)

	status, _ := env.do(http.MethodPost, "/api/posts/"+post.ID+"/comments", userToken, map[string]string{"text": "hello"})
	require.Equal(t, http.StatusCreated, status)

	status, _ = env.do(http.MethodDelete, "/api/users/"+user.ID, userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := env.do(http.MethodDelete, "/api/users/"+admin.ID, adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You cannot delete your own account", body["message"])

	status, _ = env.do(http.MethodDelete, "/api/users/"+user.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, status)

	_, total, err := env.store.Comments().ListByPost(context.Background(), post.ID, models.Page{Number: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDeleteMe(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.seed("user@guildkeeper.test", models.RoleUser)

	status, body := env.do(http.MethodDelete, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Account deleted successfully", body["message"])

	_, err := env.store.Users().GetByID(context.Background(), user.ID)
	assert.Error(t, err)

	status, _ = env.do(http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAvatarUploadAndDelete(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.seed("user@guildkeeper.test", models.RoleUser)
	_, otherToken := env.seed("other@guildkeeper.test", models.RoleUser)
	path := "/api/users/" + user.ID + "/avatar"

	status, body := env.send(multipartRequest(t, path, "avatar", "me.png", testutil.TinyPNG(t, 64, 64)), otherToken)
	assert.Equal(t, http.StatusForbidden, status, "%v", body)

	// The legacy field name is still accepted.
	status, body = env.send(multipartRequest(t, path, "slika", "me.png", testutil.TinyPNG(t, 64, 64)), token)
	require.Equal(t, http.StatusOK, status, "%v", body)
	result := data(t, body)
	avatar := result["avatar"].(string)
	assert.Regexp(t, `^/uploads/profiles/profile-.+\.png$`, avatar)
	assert.Regexp(t, `-thumb\.webp$`, result["avatarThumbnail"])

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, avatar, nil), -1)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, body = env.do(http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, status, "%v", body)
	assert.Nil(t, data(t, body)["avatar"])

	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, avatar, nil), -1)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAvatarUpload_Rejects(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.seed("user@guildkeeper.test", models.RoleUser)
	path := "/api/users/" + user.ID + "/avatar"

	tests := []struct {
		name        string
		field       string
		filename    string
		content     []byte
		wantMessage string
	}{
		{"missing file", "document", "me.png", testutil.TinyPNG(t, 8, 8), "Image is required"},
		{"not an image", "avatar", "notes.txt", []byte("hello world"), "Only image files are allowed (jpeg, jpg, png, gif, webp)"},
		{"disguised text", "avatar", "fake.png", []byte("hello world"), "Only image files are allowed (jpeg, jpg, png, gif, webp)"},
		{"too large", "avatar", "big.png", bytes.Repeat([]byte{0x89}, 1024*1024+1), "File too large (max 1MB)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.send(multipartRequest(t, path, tt.field, tt.filename, tt.content), token)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.wantMessage, body["message"])
		})
	}
}
