package dto

import "github.com/noah-isme/pa-broadcaster/internal/models"

// SubmitAck confirms a broadcast to the submitting operator.
type SubmitAck struct {
	ID                 int64  `json:"id"`
	Message            string `json:"message"`
	LanguagesProcessed int    `json:"languages_processed"`
	Failed             int    `json:"failed"`
	Subscribers        int    `json:"subscribers"`
	Timestamp          string `json:"timestamp"`
}

// ReplayAck confirms a replay broadcast.
type ReplayAck struct {
	ID          int64  `json:"id"`
	Message     string `json:"message"`
	Subscribers int    `json:"subscribers"`
	Timestamp   string `json:"timestamp"`
}

// ClearHistoryAck confirms the history was emptied.
type ClearHistoryAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HistoryResponse is the fetchHistory payload, most recent first.
type HistoryResponse struct {
	Items    []models.AnnouncementRecord `json:"items"`
	Count    int                         `json:"count"`
	Capacity int                         `json:"capacity"`
}
