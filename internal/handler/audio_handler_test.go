package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pa-broadcaster/pkg/storage"
)

func newAudioFixture(t *testing.T, ttl time.Duration) (*AudioHandler, *storage.SignedURLSigner, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("audio-secret", ttl)
	return NewAudioHandler(signer, store, nil), signer, store
}

func serveAudio(h *AudioHandler, token string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/audio/"+token, nil)
	c.Params = gin.Params{{Key: "token", Value: token}}
	h.Serve(c)
	return rec
}

func TestAudioHandlerServesSignedArtifact(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, signer, store := newAudioFixture(t, time.Hour)

	name, err := store.Save("announcement_en_1_abcd1234.mp3", []byte("ID3audio"))
	require.NoError(t, err)
	token, _, err := signer.Generate(name)
	require.NoError(t, err)

	rec := serveAudio(h, token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ID3audio", rec.Body.String())
}

func TestAudioHandlerRejectsTamperedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _, _ := newAudioFixture(t, time.Hour)

	rec := serveAudio(h, "not-a-token")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAudioHandlerMissingArtifact(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, signer, _ := newAudioFixture(t, time.Hour)

	token, _, err := signer.Generate("announcement_en_2_deadbeef.mp3")
	require.NoError(t, err)

	rec := serveAudio(h, token)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
