package media_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	coremedia "media-store/core/media"
	"media-store/core/storage"
	"media-store/core/storage/mocks"
	"media-store/feature/media"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupApp(t *testing.T, client storage.Client) *fiber.App {
	t.Helper()
	app, _ := setupAppWithProvider(t, client)
	return app
}

// setupAppWithProvider uses fiber's default mutable buffers on purpose.
func setupAppWithProvider(t *testing.T, client storage.Client) (*fiber.App, *coremedia.Provider) {
	t.Helper()
	provider := coremedia.NewProvider(client, coremedia.Config{MaxRetries: 3}, "media", zap.NewNop())
	app := fiber.New()
	require.NoError(t, media.NewFeature(provider, zap.NewNop()).Load(app))
	return app, provider
}

func decode(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestHandlerLifecycle(t *testing.T) {
	app := setupApp(t, storage.NewMemoryClient())

	req := httptest.NewRequest("PUT", "/media/objects/2024/a.jpg", strings.NewReader("jpeg-bytes"))
	req.Header.Set("Content-Type", "image/jpeg")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/media/objects/2024/a.jpg", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "jpeg-bytes", string(body))

	resp, err = app.Test(httptest.NewRequest("POST", "/media/refs/2024/a.jpg", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/media/refs/2024/a.jpg", nil))
	require.NoError(t, err)
	assert.Equal(t, float64(2), decode(t, resp.Body)["references"])

	resp, err = app.Test(httptest.NewRequest("DELETE", "/media/objects/2024/a.jpg", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/media/exists/2024/a.jpg", nil))
	require.NoError(t, err)
	assert.Equal(t, true, decode(t, resp.Body)["exists"])

	resp, err = app.Test(httptest.NewRequest("DELETE", "/media/objects/2024/a.jpg", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/media/exists/2024/a.jpg", nil))
	require.NoError(t, err)
	assert.Equal(t, false, decode(t, resp.Body)["exists"])

	resp, err = app.Test(httptest.NewRequest("GET", "/media/stat/2024/a.jpg", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandlerKeysSurviveLaterRequests(t *testing.T) {
	app, provider := setupAppWithProvider(t, storage.NewMemoryClient())

	req := httptest.NewRequest("PUT", "/media/objects/2024/a.jpg?bucket=media", strings.NewReader("jpeg"))
	req.Header.Set("Content-Type", "image/jpeg")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// An unrelated request reuses the request buffers.
	req = httptest.NewRequest("GET", "/media/exists/zzzz/zzzzzzzzzzzz?bucket=other", nil)
	req.Header.Set("Content-Type", "text/plain")
	_, err = app.Test(req)
	require.NoError(t, err)

	ctx := context.Background()
	assert.True(t, provider.Exists(ctx, "2024/a.jpg"))
	info, err := provider.Stat(ctx, "2024/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", info.ContentType)
	assert.Equal(t, "2024/a.jpg", info.Key)
}

func TestHandlerEscapedPath(t *testing.T) {
	app, provider := setupAppWithProvider(t, storage.NewMemoryClient())

	resp, err := app.Test(httptest.NewRequest("PUT", "/media/objects/my%20photo.jpg", strings.NewReader("jpeg")))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	ctx := context.Background()
	assert.True(t, provider.Exists(ctx, "my photo.jpg"))
	assert.False(t, provider.Exists(ctx, "my%20photo.jpg"))

	resp, err = app.Test(httptest.NewRequest("GET", "/media/refs/my%20photo.jpg", nil))
	require.NoError(t, err)
	assert.Equal(t, float64(1), decode(t, resp.Body)["references"])

	// net/url rejects the bad escape, so the raw request line is set directly.
	req := httptest.NewRequest("GET", "/media/stat/placeholder", nil)
	req.URL.Opaque = "/media/stat/bad%zzpath"
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandlerStat(t *testing.T) {
	app := setupApp(t, storage.NewMemoryClient())

	resp, err := app.Test(httptest.NewRequest("PUT", "/media/objects/docs/readme.txt", strings.NewReader("hello")))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/media/stat/docs/readme.txt", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode(t, resp.Body)
	assert.Equal(t, "docs/readme.txt", out["key"])
	assert.Equal(t, float64(5), out["size"])
}

func TestHandlerInvalidBucket(t *testing.T) {
	client := new(mocks.Client)
	app := setupApp(t, client)

	resp, err := app.Test(httptest.NewRequest("GET", "/media/stat/a.jpg?bucket=x", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, client.Calls)
}

func TestHandlerCorruptReferences(t *testing.T) {
	client := new(mocks.Client)
	client.On("StatObject", mock.Anything, "media", "a.jpg").
		Return(storage.ObjectInfo{Bucket: "media", Key: "a.jpg", Metadata: map[string]string{"references": "abc"}}, nil)
	app := setupApp(t, client)

	resp, err := app.Test(httptest.NewRequest("GET", "/media/refs/a.jpg", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, decode(t, resp.Body)["error"], "references")
}

func TestHandlerStoreFailure(t *testing.T) {
	client := new(mocks.Client)
	client.On("StatObject", mock.Anything, "media", "a.jpg").
		Return(storage.ObjectInfo{}, errors.New("connection reset"))
	app := setupApp(t, client)

	resp, err := app.Test(httptest.NewRequest("GET", "/media/stat/a.jpg", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{coremedia.ErrInvalidArgument, fiber.StatusBadRequest},
		{coremedia.ErrNotFound, fiber.StatusNotFound},
		{coremedia.ErrConflict, fiber.StatusConflict},
		{coremedia.ErrProtocolViolation, fiber.StatusUnprocessableEntity},
		{coremedia.ErrUnsupported, fiber.StatusNotImplemented},
		{coremedia.ErrConfiguration, fiber.StatusInternalServerError},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, media.StatusFor(tt.err), tt.err.Error())
	}
}
