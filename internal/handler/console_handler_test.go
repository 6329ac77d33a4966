package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pa-broadcaster/internal/dto"
	"github.com/noah-isme/pa-broadcaster/internal/middleware"
	"github.com/noah-isme/pa-broadcaster/internal/models"
)

type staticLanguages []models.Language

func (s staticLanguages) List() []models.Language { return s }

type staticLocator struct {
	base   string
	source string
}

func (s staticLocator) BaseURL() (string, string) { return s.base, s.source }
func (s staticLocator) ClientURL() string          { return s.base + "/client" }

type staticCounter int

func (s staticCounter) Count() int { return int(s) }

func newTestConsoleHandler() *ConsoleHandler {
	return NewConsoleHandler(
		staticLanguages(models.DefaultLanguages),
		staticLocator{base: "http://10.0.0.5:5000", source: "local_ip"},
		staticCounter(3),
		"en",
	)
}

func TestConsoleHandlerConsole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestConsoleHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/console", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{Username: "admin", Role: models.RoleOperator})

	h.Console(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload dto.ConsoleResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	assert.Equal(t, "admin", payload.Username)
	assert.Equal(t, "http://10.0.0.5:5000/client", payload.ClientURL)
	assert.Equal(t, 3, payload.Subscribers)
	assert.Len(t, payload.Languages, 5)
	assert.Equal(t, models.Priorities, payload.Priorities)
}

func TestConsoleHandlerLanguages(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestConsoleHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/languages", nil)

	h.Languages(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload dto.LanguagesResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	assert.Equal(t, "en", payload.BaseLanguage)
	assert.Equal(t, "en", payload.Languages[0].Code)
}

func TestConsoleHandlerOnboarding(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestConsoleHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/onboarding", nil)

	h.Onboarding(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload dto.OnboardingResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	assert.Equal(t, "http://10.0.0.5:5000/client", payload.ClientURL)
	assert.Equal(t, "local_ip", payload.Source)
}
