package dto

import "github.com/noah-isme/pa-broadcaster/internal/models"

// ConsoleResponse feeds the operator console.
type ConsoleResponse struct {
	Username    string            `json:"username"`
	Languages   []models.Language `json:"languages"`
	Priorities  []models.Priority `json:"priorities"`
	ClientURL   string            `json:"client_url"`
	Subscribers int               `json:"subscribers"`
}

// LanguagesResponse feeds display clients.
type LanguagesResponse struct {
	Languages    []models.Language `json:"languages"`
	BaseLanguage string            `json:"base_language"`
}

// OnboardingResponse tells an operator where display clients should connect.
type OnboardingResponse struct {
	BaseURL   string `json:"base_url"`
	ClientURL string `json:"client_url"`
	Source    string `json:"source"`
}
