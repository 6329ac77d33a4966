package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/pa-broadcaster/internal/models"
	"github.com/noah-isme/pa-broadcaster/internal/repository"
	appErrors "github.com/noah-isme/pa-broadcaster/pkg/errors"
)

type countingRunner struct {
	inner *JobRunner
	mu    sync.Mutex
	calls int
}

func (c *countingRunner) Run(ctx context.Context, text string, priority models.Priority, languages []string) []models.LanguageResult {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Run(ctx, text, priority, languages)
}

func (c *countingRunner) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakePurger struct {
	err   error
	calls int
}

func (f *fakePurger) PurgeAll(context.Context) error {
	f.calls++
	return f.err
}

type broadcastFixture struct {
	svc      *BroadcastService
	runner   *countingRunner
	history  *repository.HistoryRepository
	registry *SubscriberRegistry
	purger   *fakePurger
}

func newBroadcastFixture(renderer languageRenderer) *broadcastFixture {
	if renderer == nil {
		renderer = &scriptedRenderer{}
	}
	runner := &countingRunner{inner: NewJobRunner(renderer, defaultLanguages(), 0, nil, zap.NewNop())}
	history := repository.NewHistoryRepository(50)
	registry := NewSubscriberRegistry(nil, zap.NewNop())
	purger := &fakePurger{}
	svc := NewBroadcastService(runner, history, registry, purger, NewValidator(), "en", nil, zap.NewNop())
	return &broadcastFixture{svc: svc, runner: runner, history: history, registry: registry, purger: purger}
}

func (f *broadcastFixture) subscribe(buffer int) *ChannelSubscriber {
	sub := NewChannelSubscriber(buffer)
	f.registry.Register(sub)
	return sub
}

func drain(sub *ChannelSubscriber) []models.StreamMessage {
	var out []models.StreamMessage
	for {
		select {
		case msg := <-sub.Messages():
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestBroadcastServiceSubmitRecordsAndBroadcasts(t *testing.T) {
	f := newBroadcastFixture(nil)
	subA := f.subscribe(8)
	subB := f.subscribe(8)

	ack, err := f.svc.Submit(context.Background(), models.AnnouncementRequest{
		Text:      "  Flight 202 is boarding  ",
		Priority:  "emergency",
		Languages: []string{"en", "HI", "en", "es"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), ack.ID)
	assert.Equal(t, "Announcement broadcasted to 3 languages", ack.Message)
	assert.Equal(t, 3, ack.LanguagesProcessed)
	assert.Equal(t, 2, ack.Subscribers)

	history := f.svc.History(context.Background())
	require.Len(t, history, 1)
	rec := history[0]
	assert.Equal(t, "Flight 202 is boarding", rec.OriginalText)
	assert.Equal(t, models.PriorityEmergency, rec.Priority)
	assert.Equal(t, []string{"en", "hi", "es"}, rec.Languages)

	for _, sub := range []*ChannelSubscriber{subA, subB} {
		msgs := drain(sub)
		require.Len(t, msgs, 1)
		assert.Equal(t, models.EventNewAnnouncement, msgs[0].Event)
		event := msgs[0].Data.(models.BroadcastEvent)
		assert.False(t, event.IsReplay)
		assert.Equal(t, rec.Timestamp, event.Timestamp)
		assert.Equal(t, rec.Results, event.Results)
	}
}

func TestBroadcastServiceDefaults(t *testing.T) {
	f := newBroadcastFixture(nil)

	_, err := f.svc.Submit(context.Background(), models.AnnouncementRequest{Text: "Hello"})
	require.NoError(t, err)

	rec := f.svc.History(context.Background())[0]
	assert.Equal(t, models.PriorityNormal, rec.Priority)
	assert.Equal(t, []string{"en"}, rec.Languages)
}

func TestBroadcastServiceRejectionHasNoSideEffects(t *testing.T) {
	f := newBroadcastFixture(nil)
	sub := f.subscribe(8)

	for _, req := range []models.AnnouncementRequest{
		{Text: ""},
		{Text: "   \t\n"},
		{Text: "Hello", Priority: "urgent"},
	} {
		ack, err := f.svc.Submit(context.Background(), req)
		require.Error(t, err)
		assert.Nil(t, ack)
		assert.True(t, errors.Is(err, appErrors.ErrValidation))
	}

	_, err := f.svc.Submit(context.Background(), models.AnnouncementRequest{Text: " "})
	assert.Equal(t, "Announcement text cannot be empty", appErrors.FromError(err).Message)

	assert.Equal(t, 0, f.runner.Calls())
	assert.Empty(t, f.svc.History(context.Background()))
	assert.Empty(t, drain(sub))

	ack, err := f.svc.Submit(context.Background(), models.AnnouncementRequest{Text: "Now valid"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), ack.ID)
}

func TestBroadcastServiceSubmitSurvivesCancelledContext(t *testing.T) {
	renderer := &scriptedRenderer{delays: map[string]time.Duration{"en": 30 * time.Millisecond}}
	f := newBroadcastFixture(renderer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Submit(ctx, models.AnnouncementRequest{Text: "Hello", Languages: []string{"en"}})
	require.NoError(t, err)
	rec := f.svc.History(context.Background())[0]
	assert.False(t, rec.Results[0].Failed())
}

func TestBroadcastServiceReplayIsIdempotent(t *testing.T) {
	f := newBroadcastFixture(&scriptedRenderer{failures: map[string]*JobError{
		"fr": {Kind: models.JobErrorSynthesis, Language: "fr", Err: errors.New("voice missing")},
	}})
	_, err := f.svc.Submit(context.Background(), models.AnnouncementRequest{Text: "First", Languages: []string{"en", "fr"}})
	require.NoError(t, err)

	sub := f.subscribe(8)
	_, err = f.svc.Replay(context.Background(), 1)
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), models.AnnouncementRequest{Text: "Unrelated"})
	require.NoError(t, err)

	_, err = f.svc.Replay(context.Background(), 1)
	require.NoError(t, err)

	msgs := drain(sub)
	require.Len(t, msgs, 3)
	first := msgs[0].Data.(models.BroadcastEvent)
	second := msgs[2].Data.(models.BroadcastEvent)
	assert.True(t, first.IsReplay)
	assert.True(t, second.IsReplay)

	firstJSON, err := json.Marshal(first.Results)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second.Results)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))

	assert.Equal(t, 2, f.runner.Calls())
	assert.Len(t, f.svc.History(context.Background()), 2)
}

func TestBroadcastServiceReplayNotFound(t *testing.T) {
	f := newBroadcastFixture(nil)
	sub := f.subscribe(8)

	ack, err := f.svc.Replay(context.Background(), 42)
	require.Error(t, err)
	assert.Nil(t, ack)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Equal(t, "Announcement not found", appErrors.FromError(err).Message)
	assert.Empty(t, drain(sub))
}

func TestBroadcastServiceClearAlwaysEmpties(t *testing.T) {
	f := newBroadcastFixture(nil)
	f.purger.err = errors.New("permission denied")
	for i := 0; i < 3; i++ {
		_, err := f.svc.Submit(context.Background(), models.AnnouncementRequest{Text: "Hello"})
		require.NoError(t, err)
	}

	ack, err := f.svc.ClearHistory(context.Background())
	require.NoError(t, err)
	assert.True(t, ack.Success)
	assert.Equal(t, "History cleared successfully", ack.Message)
	assert.Empty(t, f.svc.History(context.Background()))
	assert.Equal(t, 1, f.purger.calls)

	_, err = f.svc.Replay(context.Background(), 1)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	ack2, err := f.svc.Submit(context.Background(), models.AnnouncementRequest{Text: "After clear"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), ack2.ID)
}

func TestBroadcastServiceHistoryOrderMatchesBroadcastOrder(t *testing.T) {
	f := newBroadcastFixture(&scriptedRenderer{delays: map[string]time.Duration{"hi": 5 * time.Millisecond}})
	sub := f.subscribe(64)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			langs := []string{"en"}
			if i%2 == 0 {
				langs = append(langs, "hi")
			}
			_, err := f.svc.Submit(context.Background(), models.AnnouncementRequest{Text: fmt.Sprintf("msg %d", i), Languages: langs})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	msgs := drain(sub)
	history := f.svc.History(context.Background())
	require.Len(t, msgs, 20)
	require.Len(t, history, 20)
	for i, msg := range msgs {
		rec := history[len(history)-1-i]
		event := msg.Data.(models.BroadcastEvent)
		assert.Equal(t, rec.OriginalText, event.Results[0].Original)
		assert.Equal(t, rec.Results, event.Results)
		assert.Equal(t, int64(i+1), rec.ID)
	}
}

func TestBroadcastServiceConcurrentSubmitsGetContiguousIDs(t *testing.T) {
	renderer := &scriptedRenderer{delays: map[string]time.Duration{"en": 15 * time.Millisecond, "hi": 5 * time.Millisecond}}
	f := newBroadcastFixture(renderer)
	sub := f.subscribe(64)

	const submissions = 20
	ids := make([]int64, submissions)
	var wg sync.WaitGroup
	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			langs := []string{"en"}
			if i%2 == 0 {
				langs = []string{"hi", "en"}
			}
			ack, err := f.svc.Submit(context.Background(), models.AnnouncementRequest{Text: fmt.Sprintf("msg %d", i), Languages: langs})
			if assert.NoError(t, err) {
				ids[i] = ack.ID
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, submissions)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	for id := int64(1); id <= submissions; id++ {
		assert.True(t, seen[id], "missing id %d", id)
	}

	history := f.svc.History(context.Background())
	require.Len(t, history, submissions)
	messages := drain(sub)
	require.Len(t, messages, submissions)
	for i, msg := range messages {
		record := history[submissions-1-i]
		assert.Equal(t, int64(i+1), record.ID)
		event, ok := msg.Data.(models.BroadcastEvent)
		require.True(t, ok)
		assert.Equal(t, record.OriginalText, event.Results[0].Original)
	}
}
