package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/rentdesk/rentdesk/internal/app"
	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/db/dbtest"
	"github.com/rentdesk/rentdesk/internal/model"
	"github.com/rentdesk/rentdesk/internal/repository"
	"github.com/rentdesk/rentdesk/internal/routes"
	"github.com/rentdesk/rentdesk/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const password = "correct horse battery"

type memBlobStore struct {
	mu        sync.Mutex
	objects   map[string]storage.ResourceType
	deleteErr error
}

func (m *memBlobStore) Upload(ctx context.Context, body io.Reader, folderPath, publicID, contentType string) (*storage.UploadResult, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id := path.Join(folderPath, publicID)
	rt := storage.ClassifyMime(contentType)
	m.objects[id] = rt
	return &storage.UploadResult{SecureURL: "https://blobs.test/" + id, PublicID: id, ResourceType: rt}, nil
}

func (m *memBlobStore) DeleteBatch(ctx context.Context, ids []string, rt storage.ResourceType, invalidate bool) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	out := map[string]string{}
	for _, id := range ids {
		delete(m.objects, id)
		out[id] = storage.StatusDeleted
	}
	return out, nil
}

func (m *memBlobStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type server struct {
	app     *app.App
	handler http.Handler
	blobs   *memBlobStore
}

func newServer(t *testing.T) *server {
	t.Helper()

	cfg := &config.Config{
		AppEnv:               "development",
		JWTSecret:            "test-secret",
		JWTExpiry:            time.Hour,
		CORSOrigins:          "http://localhost:3000",
		UploadMaxBytes:       1 << 20,
		ReconcileBatchSize:   10,
		ReconcileMaxAttempts: 3,
	}
	blobs := &memBlobStore{objects: map[string]storage.ResourceType{}}
	a := app.Build(cfg, dbtest.New(t), blobs)

	return &server{app: a, handler: routes.SetupRoutes(a), blobs: blobs}
}

func (s *server) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *server) post(t *testing.T, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(t, req)
}

func (s *server) get(t *testing.T, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(t, req)
}

func (s *server) upload(t *testing.T, fields map[string]string, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.do(t, req)
}

// user registers over HTTP and approves the account directly.
func (s *server) user(t *testing.T, username string, domestic, foreign bool) {
	t.Helper()

	rec := s.post(t, "/api/register", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	_, err := s.app.UserService.Approve(context.Background(), username, domestic, foreign)
	require.NoError(t, err)
}

func (s *server) login(t *testing.T, username string) string {
	t.Helper()

	rec := s.post(t, "/api/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Token string `json:"token"`
	}
	decode(t, rec, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func (s *server) property(t *testing.T, isForeign bool) *model.Property {
	t.Helper()
	p := &model.Property{Title: "Fixture", Categories: model.Categories{}, IsForeign: isForeign, CreatedAt: time.Now().UTC()}
	require.NoError(t, repository.NewPropertyRepository(s.app.DB).Create(context.Background(), p))
	return p
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decode(t, rec, &body)
	return body.Message
}

func creds(username string) map[string]any {
	return map[string]any{"username": username, "password": password}
}

func with(base map[string]any, kv ...any) map[string]any {
	out := map[string]any{}
	for k, v := range base {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i].(string)] = kv[i+1]
	}
	return out
}

func TestHealth(t *testing.T) {
	s := newServer(t)

	rec := s.get(t, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestFolderLifecycleEndToEnd(t *testing.T) {
	s := newServer(t)
	s.user(t, "alice", true, false)

	rec := s.post(t, "/api/properties", "", with(creds("alice"), "title", "Main St", "is_foreign", false))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Property model.Property `json:"property"`
	}
	decode(t, rec, &created)
	pid := created.Property.ID

	rec = s.post(t, "/api/folders", "", with(creds("alice"), "property_id", pid, "folder_name", "Utilities"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var folder struct {
		Folder model.Folder `json:"folder"`
	}
	decode(t, rec, &folder)
	assert.Equal(t, "utilities", folder.Folder.ID)
	assert.Equal(t, "Utilities", folder.Folder.Name)

	rec = s.upload(t, map[string]string{
		"username":    "alice",
		"password":    password,
		"property_id": fmt.Sprint(pid),
		"folder_id":   "utilities",
	}, "bill.pdf", "application/pdf", []byte("%PDF-1.4 bill"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, s.blobs.count())

	token := s.login(t, "alice")

	rec = s.get(t, fmt.Sprintf("/api/properties/%d/files?folder_id=utilities", pid), token)
	require.Equal(t, http.StatusOK, rec.Code)
	var files struct {
		Files []model.File `json:"files"`
	}
	decode(t, rec, &files)
	require.Len(t, files.Files, 1)
	assert.Equal(t, "bill.pdf", files.Files[0].Filename)

	rec = s.post(t, "/api/folders/delete", "", with(creds("alice"), "property_id", pid, "folder_ids", []string{"utilities"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0, s.blobs.count())

	rec = s.get(t, fmt.Sprintf("/api/properties/%d/files", pid), token)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &files)
	assert.Empty(t, files.Files)

	rec = s.get(t, fmt.Sprintf("/api/properties/%d/folders", pid), token)
	require.Equal(t, http.StatusOK, rec.Code)
	var folders struct {
		Folders []model.Folder `json:"folders"`
	}
	decode(t, rec, &folders)
	assert.Empty(t, folders.Folders)
}

func TestCreateFolder_EmptyNameIs400(t *testing.T) {
	s := newServer(t)

	rec := s.post(t, "/api/folders", "", map[string]any{
		"username":    "nobody",
		"password":    "x",
		"property_id": 42,
		"folder_name": "",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, message(t, rec), "folder name is required")
}

func TestMutations_DomesticUserOnForeignPropertyIs403(t *testing.T) {
	s := newServer(t)
	s.user(t, "alice", true, false)
	p := s.property(t, true)

	requests := map[string]map[string]any{
		"/api/folders":        with(creds("alice"), "property_id", p.ID, "folder_name", "Utilities"),
		"/api/folders/rename": with(creds("alice"), "property_id", p.ID, "folder_id", "a", "new_folder_name", "B"),
		"/api/folders/delete": with(creds("alice"), "property_id", p.ID, "folder_ids", []string{"a"}),
		"/api/files/move":     with(creds("alice"), "property_id", p.ID, "file_ids", []int64{1}, "folder_id", "a"),
		"/api/files/delete":   with(creds("alice"), "property_id", p.ID, "file_ids", []int64{1}),
		"/api/categories":     with(creds("alice"), "property_id", p.ID, "category_name", "Water"),
	}

	for target, body := range requests {
		rec := s.post(t, target, "", body)
		assert.Equal(t, http.StatusForbidden, rec.Code, target)
	}
}

func TestMutations_BadCredentialsAre401(t *testing.T) {
	s := newServer(t)
	s.user(t, "alice", true, false)
	p := s.property(t, false)

	rec := s.post(t, "/api/folders", "", map[string]any{
		"username":    "alice",
		"password":    "wrong password",
		"property_id": p.ID,
		"folder_name": "Utilities",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.post(t, "/api/folders", "", with(creds("mallory"), "property_id", p.ID, "folder_name", "Utilities"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.post(t, "/api/folders", "not-a-token", map[string]any{"property_id": p.ID, "folder_name": "Utilities"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMutations_BearerTokenReplacesPassword(t *testing.T) {
	s := newServer(t)
	s.user(t, "alice", true, false)
	p := s.property(t, false)
	token := s.login(t, "alice")

	rec := s.post(t, "/api/folders", token, map[string]any{"property_id": p.ID, "folder_name": "Leases"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestReads_RequireToken(t *testing.T) {
	s := newServer(t)
	p := s.property(t, false)

	rec := s.get(t, fmt.Sprintf("/api/properties/%d/folders", p.ID), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.get(t, "/api/properties", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRenameFolder_Conflict409AndMissing404(t *testing.T) {
	s := newServer(t)
	s.user(t, "alice", true, false)
	p := s.property(t, false)

	for _, name := range []string{"Bills", "Leases"} {
		rec := s.post(t, "/api/folders", "", with(creds("alice"), "property_id", p.ID, "folder_name", name))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := s.post(t, "/api/folders/rename", "", with(creds("alice"), "property_id", p.ID, "folder_id", "bills", "new_folder_name", "leases"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.post(t, "/api/folders/rename", "", with(creds("alice"), "property_id", p.ID, "folder_id", "ghost", "new_folder_name", "Other"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteFolders_StorageFailureStill200(t *testing.T) {
	s := newServer(t)
	s.user(t, "alice", true, false)
	p := s.property(t, false)

	rec := s.post(t, "/api/folders", "", with(creds("alice"), "property_id", p.ID, "folder_name", "Photos"))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.upload(t, map[string]string{
		"username":    "alice",
		"password":    password,
		"property_id": fmt.Sprint(p.ID),
		"folder_id":   "photos",
	}, "roof.png", "image/png", []byte("\x89PNG\r\n\x1a\n"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	s.blobs.mu.Lock()
	s.blobs.deleteErr = fmt.Errorf("provider down")
	s.blobs.mu.Unlock()

	rec = s.post(t, "/api/folders/delete", "", with(creds("alice"), "property_id", p.ID, "folder_ids", []string{"photos"}))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	pending, err := repository.NewBlobDeletionRepository(s.app.DB).Pending(context.Background(), 10, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestDeleteFiles_PartialIs404(t *testing.T) {
	s := newServer(t)
	s.user(t, "alice", true, false)
	p := s.property(t, false)

	rec := s.post(t, "/api/files/delete", "", with(creds("alice"), "property_id", p.ID, "file_ids", []int64{12345}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.post(t, "/api/files/delete", "", with(creds("alice"), "property_id", p.ID, "file_ids", []int64{}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMoveFiles_UnknownFolderIs404(t *testing.T) {
	s := newServer(t)
	s.user(t, "alice", true, false)
	p := s.property(t, false)

	rec := s.upload(t, map[string]string{
		"username":    "alice",
		"password":    password,
		"property_id": fmt.Sprint(p.ID),
	}, "lease.pdf", "application/pdf", []byte("%PDF-1.4 lease"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var uploaded struct {
		File model.File `json:"file"`
	}
	decode(t, rec, &uploaded)

	rec = s.post(t, "/api/files/move", "", with(creds("alice"), "property_id", p.ID, "file_ids", []int64{uploaded.File.ID}, "folder_id", "ghost"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	token := s.login(t, "alice")
	rec = s.get(t, fmt.Sprintf("/api/properties/%d/files?folder_id=", p.ID), token)
	require.Equal(t, http.StatusOK, rec.Code)
	var files struct {
		Files []model.File `json:"files"`
	}
	decode(t, rec, &files)
	assert.Len(t, files.Files, 1, "file stays unfiled")
}

func TestCategories(t *testing.T) {
	s := newServer(t)
	s.user(t, "alice", true, false)
	p := s.property(t, false)

	rec := s.post(t, "/api/categories", "", with(creds("alice"), "property_id", p.ID, "category_name", "Water"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.post(t, "/api/categories", "", with(creds("alice"), "property_id", p.ID, "category_name", "water"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.post(t, "/api/details", "", with(creds("alice"),
		"property_id", p.ID,
		"category_name", "WATER",
		"detail_name", "City Water",
		"detail_url", "https://water.example",
	))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	token := s.login(t, "alice")
	rec = s.get(t, fmt.Sprintf("/api/properties/%d/details?category=water", p.ID), token)
	require.Equal(t, http.StatusOK, rec.Code)
	var details struct {
		Details []model.CategoryDetail `json:"details"`
	}
	decode(t, rec, &details)
	require.Len(t, details.Details, 1)
	assert.Equal(t, "Water", details.Details[0].CategoryName)

	rec = s.post(t, "/api/categories/delete", "", with(creds("alice"), "property_id", p.ID, "category_name", "Water"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.get(t, fmt.Sprintf("/api/properties/%d/details", p.ID), token)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &details)
	assert.Empty(t, details.Details)
}

func TestLogin_RateLimited(t *testing.T) {
	s := newServer(t)

	var last int
	for i := 0; i < 11; i++ {
		rec := s.post(t, "/api/login", "", map[string]string{"username": "x", "password": "y"})
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestInvalidJSONIs400(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/folders", bytes.NewBufferString("{"))
	rec := s.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", message(t, rec))
}
