package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"media-store/core/database"
	"media-store/core/media"
	"media-store/core/storage"
	"media-store/core/storage/mocks"
	"media-store/feature/library/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// setupMockDB creates a mock GORM DB for testing.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

// setupSQLite opens a migrated in-memory database private to the test.
func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Name:   fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Record{}))
	return db
}

func newProvider(client storage.Client) *media.Provider {
	return media.NewProvider(client, media.Config{MaxRetries: 3}, "media", zap.NewNop())
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryClient()
	provider := newProvider(store)
	svc := NewService(provider, setupSQLite(t), zap.NewNop())

	first, err := svc.Upload(ctx, "a.jpg", "/media/2024/a.jpg", "image/jpeg", strings.NewReader("jpeg"), 4)
	require.NoError(t, err)
	assert.Equal(t, "media/2024/a.jpg", first.Path)
	assert.NotEmpty(t, first.ID)

	second, err := svc.Copy(ctx, first.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Path, second.Path)

	refs, err := provider.References(ctx, first.Path)
	require.NoError(t, err)
	assert.Equal(t, 2, refs)

	res, err := svc.Remove(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, res.Removed)
	assert.Equal(t, 1, res.References)
	assert.True(t, provider.Exists(ctx, first.Path))

	_, err = svc.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	rec, body, err := svc.Open(ctx, second.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "jpeg", string(data))
	assert.Equal(t, "image/jpeg", rec.ContentType)

	res, err = svc.Remove(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, res.Removed)
	assert.False(t, provider.Exists(ctx, first.Path))
}

func TestService_UploadPathInUse(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newProvider(storage.NewMemoryClient()), setupSQLite(t), zap.NewNop())

	_, err := svc.Upload(ctx, "a.jpg", "a.jpg", "", strings.NewReader("one"), 3)
	require.NoError(t, err)

	_, err = svc.Upload(ctx, "a.jpg", "/a.jpg", "", strings.NewReader("two"), 3)
	assert.ErrorIs(t, err, ErrPathInUse)
}

func TestService_UploadInvalidPath(t *testing.T) {
	client := new(mocks.Client)
	db, sqlMock := setupMockDB(t)
	svc := NewService(newProvider(client), db, zap.NewNop())

	_, err := svc.Upload(context.Background(), "x", "///", "", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, media.ErrInvalidArgument)
	assert.Empty(t, client.Calls)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestService_UploadRollsBackOnStoreFailure(t *testing.T) {
	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, "media", "a.jpg", mock.Anything, int64(3), mock.Anything).
		Return(storage.UploadInfo{}, errors.New("connection reset"))

	db, sqlMock := setupMockDB(t)
	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery("SELECT count\\(\\*\\) FROM `media_records`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	sqlMock.ExpectExec("INSERT INTO `media_records`").WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectRollback()

	svc := NewService(newProvider(client), db, zap.NewNop())
	_, err := svc.Upload(context.Background(), "a.jpg", "a.jpg", "", strings.NewReader("abc"), 3)
	assert.Error(t, err)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
	client.AssertExpectations(t)
}

func TestService_RemoveRollsBackOnMissingObject(t *testing.T) {
	client := new(mocks.Client)
	client.On("StatObject", mock.Anything, "media", "gone.jpg").
		Return(storage.ObjectInfo{}, fmt.Errorf("%w: NoSuchKey", storage.ErrNotFound))

	db, sqlMock := setupMockDB(t)
	sqlMock.ExpectQuery("SELECT \\* FROM `media_records`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "path", "content_type", "size", "created_at"}).
			AddRow("r1", "gone.jpg", "gone.jpg", "", 1, time.Now()))
	sqlMock.ExpectBegin()
	sqlMock.ExpectExec("DELETE FROM `media_records`").WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectRollback()

	svc := NewService(newProvider(client), db, zap.NewNop())
	_, err := svc.Remove(context.Background(), "r1")
	assert.ErrorIs(t, err, media.ErrNotFound)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestService_Audit(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryClient()
	provider := newProvider(store)
	db := setupSQLite(t)
	svc := NewService(provider, db, zap.NewNop())

	ok, err := svc.Upload(ctx, "ok.jpg", "ok.jpg", "", strings.NewReader("ok"), 2)
	require.NoError(t, err)
	_, err = svc.Copy(ctx, ok.ID)
	require.NoError(t, err)

	drift, err := svc.Upload(ctx, "drift.jpg", "drift.jpg", "", strings.NewReader("d"), 1)
	require.NoError(t, err)
	_, err = provider.AddReferences(ctx, drift.Path)
	require.NoError(t, err)

	lost, err := svc.Upload(ctx, "lost.jpg", "lost.jpg", "", strings.NewReader("l"), 1)
	require.NoError(t, err)
	require.NoError(t, store.RemoveObject(ctx, "media", lost.Path))

	corrupt, err := svc.Upload(ctx, "bad.jpg", "bad.jpg", "", strings.NewReader("b"), 1)
	require.NoError(t, err)
	_, err = store.CopyObject(ctx, "media", corrupt.Path, corrupt.Path, storage.CopyOptions{
		ReplaceMetadata: true,
		Metadata:        map[string]string{storage.MetaReferences: "-1"},
	})
	require.NoError(t, err)

	report, err := svc.Audit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.TotalPaths)
	assert.Equal(t, 3, report.Mismatches)

	byPath := make(map[string]models.AuditEntry)
	for _, e := range report.Entries {
		byPath[e.Path] = e
	}
	assert.Equal(t, models.StatusOK, byPath["ok.jpg"].Status)
	assert.Equal(t, 2, byPath["ok.jpg"].Records)
	assert.Equal(t, models.StatusMismatch, byPath["drift.jpg"].Status)
	assert.Equal(t, 2, byPath["drift.jpg"].References)
	assert.Equal(t, models.StatusMissing, byPath["lost.jpg"].Status)
	assert.Equal(t, models.StatusError, byPath["bad.jpg"].Status)
	assert.Contains(t, byPath["bad.jpg"].Error, "-1")
}

func TestService_AuditIgnoresCallerCancellation(t *testing.T) {
	store := storage.NewMemoryClient()
	svc := NewService(newProvider(store), setupSQLite(t), zap.NewNop())

	_, err := svc.Upload(context.Background(), "a.jpg", "a.jpg", "", strings.NewReader("a"), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.Audit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalPaths)
	assert.Equal(t, 0, report.Mismatches)
}

func TestService_CopyCommitFailureLeavesExtraReference(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryClient()
	provider := newProvider(store)
	_, err := provider.Set(ctx, media.Text("a"), "a.jpg")
	require.NoError(t, err)

	db, sqlMock := setupMockDB(t)
	sqlMock.ExpectQuery("SELECT \\* FROM `media_records`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "path", "content_type", "size", "created_at"}).
			AddRow("r1", "a.jpg", "a.jpg", "", 1, time.Now()))
	sqlMock.ExpectBegin()
	sqlMock.ExpectExec("INSERT INTO `media_records`").WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectCommit().WillReturnError(errors.New("connection lost"))

	svc := NewService(provider, db, zap.NewNop())
	_, err = svc.Copy(ctx, "r1")
	assert.Error(t, err)
	assert.NoError(t, sqlMock.ExpectationsWereMet())

	// The store change is not undone; Audit reports the path as a mismatch.
	refs, err := provider.References(ctx, "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, 2, refs)
}
