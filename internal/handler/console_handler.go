package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pa-broadcaster/internal/dto"
	"github.com/noah-isme/pa-broadcaster/internal/middleware"
	"github.com/noah-isme/pa-broadcaster/internal/models"
	"github.com/noah-isme/pa-broadcaster/pkg/response"
)

type languageLister interface {
	List() []models.Language
}

type clientLocator interface {
	BaseURL() (string, string)
	ClientURL() string
}

type subscriberCounter interface {
	Count() int
}

// ConsoleHandler feeds the operator console and the display clients with static data.
type ConsoleHandler struct {
	languages    languageLister
	onboarding   clientLocator
	subscribers  subscriberCounter
	baseLanguage string
}

// NewConsoleHandler constructs a ConsoleHandler.
func NewConsoleHandler(languages languageLister, onboarding clientLocator, subscribers subscriberCounter, baseLanguage string) *ConsoleHandler {
	return &ConsoleHandler{languages: languages, onboarding: onboarding, subscribers: subscribers, baseLanguage: baseLanguage}
}

// Console godoc
// @Summary Operator console feed
// @Tags Console
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /console [get]
func (h *ConsoleHandler) Console(c *gin.Context) {
	username := ""
	if claims, ok := middleware.Operator(c); ok {
		username = claims.Username
	}
	response.JSON(c, http.StatusOK, dto.ConsoleResponse{
		Username:    username,
		Languages:   h.languages.List(),
		Priorities:  models.Priorities,
		ClientURL:   h.onboarding.ClientURL(),
		Subscribers: h.subscribers.Count(),
	})
}

// Languages godoc
// @Summary Supported languages
// @Tags Console
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /languages [get]
func (h *ConsoleHandler) Languages(c *gin.Context) {
	response.JSON(c, http.StatusOK, dto.LanguagesResponse{
		Languages:    h.languages.List(),
		BaseLanguage: h.baseLanguage,
	})
}

// Onboarding godoc
// @Summary Display client URL
// @Description Where display clients should connect, for printing or QR encoding
// @Tags Console
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /onboarding [get]
func (h *ConsoleHandler) Onboarding(c *gin.Context) {
	base, source := h.onboarding.BaseURL()
	response.JSON(c, http.StatusOK, dto.OnboardingResponse{
		BaseURL:   base,
		ClientURL: base + "/client",
		Source:    source,
	})
}
