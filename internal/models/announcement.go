package models

import (
	"strings"
	"time"
)

// TimestampLayout is the wall-clock format used on records and events.
const TimestampLayout = "2006-01-02 15:04:05"

// Priority classifies how urgently display clients should present an announcement.
type Priority string

const (
	PriorityNormal    Priority = "normal"
	PriorityWarning   Priority = "warning"
	PriorityEmergency Priority = "emergency"
)

// Priorities lists every accepted priority in ascending urgency.
var Priorities = []Priority{PriorityNormal, PriorityWarning, PriorityEmergency}

// ParsePriority normalises raw input. Empty input maps to normal; unknown values report false.
func ParsePriority(raw string) (Priority, bool) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PriorityNormal, true
	case PriorityNormal, PriorityWarning, PriorityEmergency:
		return p, true
	default:
		return "", false
	}
}

// JobErrorKind tags which stage of a language job failed.
type JobErrorKind string

const (
	JobErrorTranslation JobErrorKind = "translation"
	JobErrorSynthesis   JobErrorKind = "synthesis"
)

// AnnouncementRequest is the operator submission payload.
type AnnouncementRequest struct {
	Text      string   `json:"text" validate:"required,max=5000"`
	Priority  Priority `json:"priority" validate:"priority"`
	Languages []string `json:"languages" validate:"max=32,dive,required,max=16"`
}

// LanguageResult is the outcome of one language job. A failed job carries the
// original text, an error and no audio.
type LanguageResult struct {
	Language     string       `json:"language"`
	LanguageName string       `json:"language_name"`
	Flag         string       `json:"flag"`
	Text         string       `json:"text"`
	Original     string       `json:"original"`
	AudioURL     *string      `json:"audio_url"`
	Priority     Priority     `json:"priority"`
	Error        string       `json:"error,omitempty"`
	ErrorKind    JobErrorKind `json:"error_kind,omitempty"`
}

// Failed reports whether the job fell back to the original text.
func (r LanguageResult) Failed() bool {
	return r.Error != ""
}

// AnnouncementRecord is an immutable history entry.
type AnnouncementRecord struct {
	ID           int64            `json:"id"`
	Timestamp    string           `json:"timestamp"`
	OriginalText string           `json:"original_text"`
	Priority     Priority         `json:"priority"`
	Languages    []string         `json:"languages"`
	Results      []LanguageResult `json:"announcements"`
}

// Clone returns a deep copy safe to hand out of the history store.
func (r AnnouncementRecord) Clone() AnnouncementRecord {
	out := r
	out.Languages = append([]string(nil), r.Languages...)
	out.Results = make([]LanguageResult, len(r.Results))
	for i, res := range r.Results {
		if res.AudioURL != nil {
			url := *res.AudioURL
			res.AudioURL = &url
		}
		out.Results[i] = res
	}
	return out
}

// BroadcastEvent is the payload pushed to every subscriber. It is never stored.
type BroadcastEvent struct {
	Timestamp string           `json:"timestamp"`
	Priority  Priority         `json:"priority"`
	Results   []LanguageResult `json:"announcements"`
	IsReplay  bool             `json:"is_replay,omitempty"`
}

// FormatTimestamp renders t with TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
