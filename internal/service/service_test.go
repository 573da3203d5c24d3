package service

import (
	"context"
	"errors"
	"io"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rentdesk/rentdesk/internal/db/dbtest"
	"github.com/rentdesk/rentdesk/internal/model"
	"github.com/rentdesk/rentdesk/internal/repository"
	"github.com/rentdesk/rentdesk/internal/storage"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct horse battery"

type deleteCall struct {
	ids []string
	rt  storage.ResourceType
}

// fakeBlobStore keeps objects in memory, keyed by public id.
type fakeBlobStore struct {
	mu          sync.Mutex
	objects     map[string]storage.ResourceType
	uploadErr   error
	deleteErr   error
	deleteCalls []deleteCall
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string]storage.ResourceType{}}
}

func (f *fakeBlobStore) Upload(ctx context.Context, body io.Reader, folderPath, publicID, contentType string) (*storage.UploadResult, error) {
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.uploadErr != nil {
		return nil, f.uploadErr
	}

	id := path.Join(folderPath, publicID)
	rt := storage.ClassifyMime(contentType)
	f.objects[id] = rt

	return &storage.UploadResult{
		SecureURL:    "https://blobs.test/" + string(rt) + "/" + id,
		PublicID:     id,
		ResourceType: rt,
	}, nil
}

func (f *fakeBlobStore) DeleteBatch(ctx context.Context, publicIDs []string, rt storage.ResourceType, invalidate bool) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleteCalls = append(f.deleteCalls, deleteCall{ids: append([]string(nil), publicIDs...), rt: rt})

	if f.deleteErr != nil {
		return nil, f.deleteErr
	}

	statuses := make(map[string]string, len(publicIDs))
	for _, id := range publicIDs {
		if stored, ok := f.objects[id]; ok && stored == rt {
			delete(f.objects, id)
			statuses[id] = storage.StatusDeleted
		} else {
			statuses[id] = storage.StatusNotFound
		}
	}
	return statuses, nil
}

func (f *fakeBlobStore) put(id string, rt storage.ResourceType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[id] = rt
}

func (f *fakeBlobStore) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[id]
	return ok
}

func (f *fakeBlobStore) calls() []deleteCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]deleteCall(nil), f.deleteCalls...)
}

func (f *fakeBlobStore) failDeletes(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteErr = err
}

type testEnv struct {
	db         *sqlx.DB
	blobs      *fakeBlobStore
	auth       *AuthService
	users      *UserService
	properties *PropertyService
	categories *CategoryService
	folders    *FolderService
	files      *FileService
	reconciler *Reconciler

	userRepository     repository.UserRepository
	propertyRepository repository.PropertyRepository
	folderRepository   repository.FolderRepository
	fileRepository     repository.FileRepository
	outbox             repository.BlobDeletionRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := dbtest.New(t)
	blobs := newFakeBlobStore()

	userRepository := repository.NewUserRepository(database)
	propertyRepository := repository.NewPropertyRepository(database)
	detailRepository := repository.NewCategoryDetailRepository(database)
	folderRepository := repository.NewFolderRepository(database)
	fileRepository := repository.NewFileRepository(database)
	outbox := repository.NewBlobDeletionRepository(database)

	auth := NewAuthService(userRepository, propertyRepository, "test-secret", time.Hour)
	auth.bcryptCost = bcrypt.MinCost
	purger := NewBlobPurger(blobs, outbox)

	return &testEnv{
		db:         database,
		blobs:      blobs,
		auth:       auth,
		users:      NewUserService(userRepository),
		properties: NewPropertyService(auth, propertyRepository),
		categories: NewCategoryService(database, auth, propertyRepository, detailRepository),
		folders:    NewFolderService(database, auth, folderRepository, fileRepository, outbox, purger),
		files:      NewFileService(database, auth, fileRepository, folderRepository, outbox, blobs, purger),
		reconciler: NewReconciler(outbox, blobs, 10, 3),

		userRepository:     userRepository,
		propertyRepository: propertyRepository,
		folderRepository:   folderRepository,
		fileRepository:     fileRepository,
		outbox:             outbox,
	}
}

// user creates an account with the given approvals and returns credentials
// for it.
func (e *testEnv) user(t *testing.T, username string, domestic, foreign bool) Credentials {
	t.Helper()
	ctx := context.Background()

	_, err := e.auth.Register(ctx, RegisterRequest{Username: username, Password: testPassword})
	require.NoError(t, err)
	_, err = e.users.Approve(ctx, username, domestic, foreign)
	require.NoError(t, err)

	return Credentials{Username: username, Password: testPassword}
}

func (e *testEnv) property(t *testing.T, isForeign bool, categories ...string) *model.Property {
	t.Helper()

	p := &model.Property{
		Title:      "Property",
		Categories: model.Categories(append([]string{}, categories...)),
		IsForeign:  isForeign,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, e.propertyRepository.Create(context.Background(), p))
	return p
}

func (e *testEnv) folder(t *testing.T, creds Credentials, propertyID int64, name string) *model.Folder {
	t.Helper()

	f, err := e.folders.Create(context.Background(), CreateFolderRequest{
		Credentials: creds,
		PropertyID:  propertyID,
		FolderName:  name,
	})
	require.NoError(t, err)
	return f
}

// file records a file row and a matching stored object. An empty mime leaves
// the row's mime type null.
func (e *testEnv) file(t *testing.T, propertyID int64, folderID, publicID, mime string) *model.File {
	t.Helper()

	f := &model.File{
		PropertyID:         propertyID,
		Filename:           publicID,
		FileURL:            "https://blobs.test/" + publicID,
		UploadedByUsername: "fixture",
		UploadedAt:         time.Now().UTC(),
	}
	if folderID != "" {
		f.FolderID = &folderID
		f.FolderName = &folderID
	}
	if publicID != "" {
		f.StoragePublicID = &publicID
		e.blobs.put(publicID, storage.ClassifyMime(mime))
	}
	if mime != "" {
		f.MimeType = &mime
	}

	require.NoError(t, e.fileRepository.Create(context.Background(), f))
	return f
}

func (e *testEnv) allFiles(t *testing.T, propertyID int64) []*model.File {
	t.Helper()
	files, err := e.fileRepository.Files(context.Background(), propertyID, nil)
	require.NoError(t, err)
	return files
}

func (e *testEnv) allFolders(t *testing.T, propertyID int64) []*model.Folder {
	t.Helper()
	folders, err := e.folderRepository.Folders(context.Background(), propertyID)
	require.NoError(t, err)
	return folders
}

func (e *testEnv) pending(t *testing.T) []*model.BlobDeletion {
	t.Helper()
	rows, err := e.outbox.Pending(context.Background(), 100, 100)
	require.NoError(t, err)
	return rows
}

var errProviderDown = errors.New("provider unavailable")
