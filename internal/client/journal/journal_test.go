package journal

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gokigennote/gokigen/internal/client/ai"
	"github.com/gokigennote/gokigen/internal/client/empathy"
	"github.com/gokigennote/gokigen/internal/client/entitlement"
	"github.com/gokigennote/gokigen/internal/client/localstore"
	"github.com/gokigennote/gokigen/internal/client/models"
	"github.com/gokigennote/gokigen/internal/client/quota"
	"github.com/gokigennote/gokigen/internal/client/repositories/kv"
	"github.com/gokigennote/gokigen/internal/client/syncengine"
	"github.com/gokigennote/gokigen/internal/common"
	"github.com/gokigennote/gokigen/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOffline = errors.New("offline")

// remote is an in-memory remote store that can be switched offline.
type remote struct {
	mu      sync.Mutex
	offline bool
	docs    map[uuid.UUID]models.Entry
}

func newRemote() *remote { return &remote{docs: map[uuid.UUID]models.Entry{}} }

func (r *remote) setOffline(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offline = v
}

func (r *remote) doc(id uuid.UUID) (models.Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.docs[id]
	return e, ok
}

func (r *remote) SaveEntry(_ context.Context, e models.Entry, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.offline {
		return errOffline
	}
	r.docs[e.ID] = e
	return nil
}

func (r *remote) LoadPage(_ context.Context, _ string, _ int, _ string) ([]models.Entry, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.offline {
		return nil, "", errOffline
	}
	out := make([]models.Entry, 0, len(r.docs))
	for _, e := range r.docs {
		out = append(out, e)
	}
	return out, "", nil
}

func (r *remote) DeleteEntry(_ context.Context, id uuid.UUID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.offline {
		return errOffline
	}
	delete(r.docs, id)
	return nil
}

func (r *remote) DeleteAll(_ context.Context, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.offline {
		return errOffline
	}
	r.docs = map[uuid.UUID]models.Entry{}
	return nil
}

func (r *remote) BatchMigrate(_ context.Context, entries []models.Entry, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.offline {
		return errOffline
	}
	for _, e := range entries {
		r.docs[e.ID] = e
	}
	return nil
}

// stubAssistant returns fixed results.
type stubAssistant struct {
	Assistant
	res ai.Result
	err error
}

func (s *stubAssistant) Empathy(context.Context, string, models.Mood) (ai.Result, error) {
	return s.res, s.err
}

func (s *stubAssistant) Reformulate(context.Context, string, models.ReformulationContext) (ai.Result, error) {
	return s.res, s.err
}

type fixture struct {
	journal *Journal
	engine  *syncengine.Engine
	remote  *remote
	local   *localstore.Store
	quota   *quota.Manager
	now     time.Time
}

func newFixture(t *testing.T, owned ...entitlement.Ownership) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2025, 11, 19, 21, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	store := kv.NewDiskvStore(filepath.Join(t.TempDir(), "kv"), 0)
	f.local = localstore.New(store, logging.Nop())
	f.remote = newRemote()
	f.engine = syncengine.New(f.local, f.remote, logging.Nop(), syncengine.Options{Now: clock})
	t.Cleanup(f.engine.Unbind)

	f.quota = quota.NewManager(f.local, time.UTC, quota.DefaultLimits())
	budget := quota.NewDailyBudget(f.local, time.UTC, quota.DefaultDailyNetworkBudget)
	coord := ai.New(nil, f.quota, budget, logging.Nop(), ai.Options{Now: clock})

	f.journal = New(f.engine, coord, f.quota, entitlement.StaticProvider{Items: owned}, logging.Nop(),
		Options{Now: clock, Location: time.UTC})
	return f
}

func (f *fixture) bind(t *testing.T) {
	t.Helper()
	f.engine.Bind(context.Background(), "u1")
	f.engine.Wait()
}

func TestSave_EmptyDraftIsRejected(t *testing.T) {
	f := newFixture(t)
	f.bind(t)

	f.journal.SetDraft("   ", models.MoodNeutral)
	_, err := f.journal.Save(context.Background())

	require.ErrorIs(t, err, common.ErrValidationEmpty)
	assert.Equal(t, Message{Kind: MessageError, Text: msgEmptyDraft}, f.journal.Messages().Get())
	assert.Empty(t, f.journal.Entries())
}

func TestSave_OfflineThenFlushOnReconnect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.bind(t)
	f.remote.setOffline(true)

	f.journal.SetDraft("疲れた", models.MoodVerySad)
	e, err := f.journal.Save(ctx)
	require.NoError(t, err)
	f.engine.Wait()

	want := empathy.Rewrite("疲れた", models.MoodVerySad)
	assert.Equal(t, want.Empathy, e.EmpathyText)
	assert.Equal(t, want.NextStep, e.NextStep)
	assert.Equal(t, []uuid.UUID{e.ID}, f.local.LoadPendingIDs(ctx, "u1"))
	require.Len(t, f.journal.Entries(), 1)
	assert.Equal(t, Message{Kind: MessageSuccess, Text: msgSaved}, f.journal.Messages().Get())
	assert.Empty(t, f.journal.Draft().Text)

	f.remote.setOffline(false)
	require.NoError(t, f.journal.Sync(ctx))

	got, ok := f.remote.doc(e.ID)
	require.True(t, ok)
	assert.Equal(t, "疲れた", got.OriginalText)
	assert.Empty(t, f.local.LoadPendingIDs(ctx, "u1"))
}

func TestSave_KeepsGeneratedEmpathy(t *testing.T) {
	f := newFixture(t)
	f.bind(t)

	f.journal.SetDraft("a calm walk", models.MoodHappy)
	d, err := f.journal.GenerateEmpathy(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, d.Empathy)
	assert.Equal(t, Message{Kind: MessageInfo, Text: msgLocalOnly}, f.journal.Messages().Get())

	e, err := f.journal.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, d.Empathy, e.EmpathyText)
	assert.Equal(t, d.NextStep, e.NextStep)
}

func TestReformulate_FillsDraft(t *testing.T) {
	f := newFixture(t)
	f.bind(t)

	f.journal.SetDraft("I need more time", models.MoodNeutral)
	f.journal.SetContext(models.ReformulationContext{
		Purpose: models.PurposeRequest, Audience: models.AudienceBoss, Tone: models.TonePolite,
	})
	d, err := f.journal.Reformulate(context.Background())
	require.NoError(t, err)
	assert.Contains(t, d.Reformulated, "I need more time")
}

func TestQuotaExceeded_ShowsPaywallThrottled(t *testing.T) {
	f := newFixture(t)
	stub := &stubAssistant{err: common.ErrQuotaExceeded}
	f.journal.assistant = stub
	f.journal.SetDraft("text", models.MoodSad)

	_, err := f.journal.GenerateEmpathy(context.Background())
	require.ErrorIs(t, err, common.ErrQuotaExceeded)
	assert.True(t, f.journal.Paywall().Get())
	assert.Equal(t, msgQuotaExceeded, f.journal.Messages().Get().Text)

	f.journal.DismissPaywall()
	f.now = f.now.Add(PaywallThrottle / 2)
	_, _ = f.journal.GenerateEmpathy(context.Background())
	assert.False(t, f.journal.Paywall().Get())

	f.now = f.now.Add(PaywallThrottle)
	_, _ = f.journal.GenerateEmpathy(context.Background())
	assert.True(t, f.journal.Paywall().Get())
}

func TestStaleResponse_IsSilent(t *testing.T) {
	f := newFixture(t)
	f.journal.assistant = &stubAssistant{err: common.ErrStaleResponse}
	f.journal.SetDraft("text", models.MoodSad)

	_, err := f.journal.GenerateEmpathy(context.Background())
	require.ErrorIs(t, err, common.ErrStaleResponse)
	assert.Equal(t, Message{}, f.journal.Messages().Get())
}

// gatedAssistant blocks until gate is closed.
type gatedAssistant struct {
	Assistant
	started chan struct{}
	gate    chan struct{}
}

func (g *gatedAssistant) Empathy(context.Context, string, models.Mood) (ai.Result, error) {
	close(g.started)
	<-g.gate
	return ai.Result{Empathy: "late", NextStep: "late"}, nil
}

func TestGenerateEmpathy_DropsResultForChangedDraft(t *testing.T) {
	f := newFixture(t)
	g := &gatedAssistant{started: make(chan struct{}), gate: make(chan struct{})}
	f.journal.assistant = g
	f.journal.SetDraft("first", models.MoodSad)

	done := make(chan Draft)
	go func() {
		d, _ := f.journal.GenerateEmpathy(context.Background())
		done <- d
	}()
	<-g.started
	f.journal.SetDraft("second", models.MoodSad)
	close(g.gate)

	d := <-done
	assert.Equal(t, "second", d.Text)
	assert.Empty(t, d.Empathy)
}

func TestNotices_MapToMessages(t *testing.T) {
	tests := []struct {
		notice ai.Notice
		want   Message
	}{
		{ai.NoticeDailyLimit, Message{Kind: MessageInfo, Text: msgDailyLimit}},
		{ai.NoticeRemoteUnavailable, Message{Kind: MessageError, Text: msgOfflineFallback}},
		{ai.NoticeLocalOnly, Message{Kind: MessageInfo, Text: msgLocalOnly}},
	}
	for _, tt := range tests {
		f := newFixture(t)
		f.journal.assistant = &stubAssistant{res: ai.Result{Notice: tt.notice, Empathy: "e", NextStep: "n"}}
		f.journal.SetDraft("text", models.MoodNeutral)

		d, err := f.journal.GenerateEmpathy(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "e", d.Empathy)
		assert.Equal(t, tt.want, f.journal.Messages().Get())
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.bind(t)

	f.journal.SetDraft("before", models.MoodSad)
	e, err := f.journal.Save(ctx)
	require.NoError(t, err)
	f.engine.Wait()

	f.now = f.now.Add(time.Hour)
	updated, err := f.journal.Update(ctx, e.ID, " after ", models.MoodHappy)
	require.NoError(t, err)
	f.engine.Wait()

	assert.Equal(t, e.ID, updated.ID)
	assert.Equal(t, "after", updated.OriginalText)
	assert.Equal(t, models.MoodHappy, updated.Mood)
	assert.Equal(t, f.now, updated.UpdatedAt)
	got, ok := f.remote.doc(e.ID)
	require.True(t, ok)
	assert.Equal(t, "after", got.OriginalText)

	_, err = f.journal.Update(ctx, uuid.New(), "x", models.MoodHappy)
	require.ErrorIs(t, err, syncengine.ErrEntryNotFound)
	assert.Equal(t, msgNotFound, f.journal.Messages().Get().Text)

	_, err = f.journal.Update(ctx, e.ID, "  ", models.MoodHappy)
	require.ErrorIs(t, err, common.ErrValidationEmpty)
}

func TestDeleteAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.bind(t)

	var ids []uuid.UUID
	for _, text := range []string{"one", "two", "three"} {
		f.journal.SetDraft(text, models.MoodNeutral)
		e, err := f.journal.Save(ctx)
		require.NoError(t, err)
		ids = append(ids, e.ID)
		f.now = f.now.Add(time.Minute)
	}
	f.engine.Wait()

	require.NoError(t, f.journal.Delete(ctx, ids[0]))
	f.engine.Wait()
	assert.Len(t, f.journal.Entries(), 2)
	assert.Equal(t, msgDeleted, f.journal.Messages().Get().Text)

	require.NoError(t, f.journal.DeleteAll(ctx))
	f.engine.Wait()
	assert.Empty(t, f.journal.Entries())
	assert.Equal(t, msgDeletedAll, f.journal.Messages().Get().Text)
}

func TestSync_ReportsFailure(t *testing.T) {
	f := newFixture(t)
	f.bind(t)
	f.remote.setOffline(true)

	err := f.journal.Sync(context.Background())
	require.Error(t, err)
	assert.Equal(t, Message{Kind: MessageError, Text: msgSyncFailed}, f.journal.Messages().Get())
}

func TestRefreshPlan_LifetimeQuota(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, entitlement.Ownership{ProductID: entitlement.ProductLifetime})

	assert.Equal(t, "10 left today", f.journal.RemainingQuota(ctx))

	tier, err := f.journal.RefreshPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, quota.TierLifetime, tier)
	assert.Equal(t, "200 left this month", f.journal.RemainingQuota(ctx))
}

func TestTrend_UsesSavedEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.bind(t)

	assert.True(t, f.journal.Trend().IsEmpty())
	for _, m := range []models.Mood{models.MoodHappy, models.MoodVeryHappy} {
		f.journal.SetDraft("day", m)
		_, err := f.journal.Save(ctx)
		require.NoError(t, err)
		f.now = f.now.AddDate(0, 0, 1)
	}

	snap := f.journal.Trend()
	assert.False(t, snap.IsEmpty())
	assert.Equal(t, 2, snap.ConsecutiveDays)
}

func TestExportJSON(t *testing.T) {
	id := uuid.MustParse("6f1c1e0e-8f49-4d0e-9f57-2d1c3a0c9f11")
	day := time.Date(2025, 11, 19, 12, 30, 0, 0, time.FixedZone("JST", 9*3600))
	entries := []models.Entry{{
		ID: id, Date: day, UpdatedAt: day, Mood: models.MoodSad,
		OriginalText: "疲れた", EmpathyText: "e", NextStep: "n",
	}}

	out, err := ExportJSON(entries)
	require.NoError(t, err)

	want := `[
  {
    "date": "2025-11-19T03:30:00Z",
    "empathyText": "e",
    "id": "6f1c1e0e-8f49-4d0e-9f57-2d1c3a0c9f11",
    "mood": -1,
    "nextStep": "n",
    "originalText": "疲れた",
    "reformulatedText": "",
    "updatedAt": "2025-11-19T03:30:00Z"
  }
]`
	assert.Equal(t, want, string(out))

	var back []map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Len(t, back, 1)
}

func TestExportJSON_EmptyIsArray(t *testing.T) {
	out, err := ExportJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}
