// Package journal is the single owner of the client's journal state. It
// holds the draft being written, routes AI actions through the
// coordinator, writes entries through the sync engine and turns every
// outcome into a short message for the user.
package journal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gokigennote/gokigen/internal/client/ai"
	"github.com/gokigennote/gokigen/internal/client/empathy"
	"github.com/gokigennote/gokigen/internal/client/entitlement"
	"github.com/gokigennote/gokigen/internal/client/models"
	"github.com/gokigennote/gokigen/internal/client/observe"
	"github.com/gokigennote/gokigen/internal/client/quota"
	"github.com/gokigennote/gokigen/internal/client/syncengine"
	"github.com/gokigennote/gokigen/internal/client/trend"
	"github.com/gokigennote/gokigen/internal/common"
	"github.com/gokigennote/gokigen/internal/logging"
	"github.com/google/uuid"
)

// Store is the part of the sync engine the journal writes through.
type Store interface {
	Entries() []models.Entry
	Save(ctx context.Context, entry models.Entry) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) error
	Reorder(ctx context.Context, from, to int) error
	LoadMore(ctx context.Context) (bool, error)
	FlushPending(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// Assistant is the AI coordinator.
type Assistant interface {
	Empathy(ctx context.Context, text string, mood models.Mood) (ai.Result, error)
	Reformulate(ctx context.Context, text string, rc models.ReformulationContext) (ai.Result, error)
}

type Quota interface {
	SetTier(t quota.Tier)
	Tier() quota.Tier
	RemainingText(ctx context.Context, now time.Time) string
}

type MessageKind int

const (
	MessageInfo MessageKind = iota
	MessageSuccess
	MessageError
)

type Message struct {
	Kind MessageKind
	Text string
}

const (
	msgSaved           = "Saved. Today is on the page."
	msgEmptyDraft      = "Try writing just one line first."
	msgBusy            = "Still working on the previous request. Try again in a moment."
	msgQuotaExceeded   = "You've used all AI rewrites for now. Upgrade for more."
	msgDailyLimit      = "Today's AI limit is reached. Using the offline helper for now."
	msgOfflineFallback = "Couldn't reach the AI. Continuing with the offline helper."
	msgLocalOnly       = "AI is not set up. Using the offline helper."
	msgDeleted         = "Deleted."
	msgDeletedAll      = "All entries deleted."
	msgNotFound        = "That entry no longer exists."
	msgSyncFailed      = "Sync will retry when you're back online."
	msgSynced          = "Everything is synced."
	msgFailed          = "Something went wrong. Please try again."
)

// PaywallThrottle keeps repeated quota hits from flashing the paywall.
const PaywallThrottle = 800 * time.Millisecond

// Draft is the entry being composed.
type Draft struct {
	Mood         models.Mood
	Text         string
	Empathy      string
	NextStep     string
	Reformulated string
	Context      models.ReformulationContext
}

type Journal struct {
	store        Store
	assistant    Assistant
	quota        Quota
	entitlements entitlement.Provider
	log          logging.Logger
	now          func() time.Time
	loc          *time.Location

	messages *observe.Value[Message]
	paywall  *observe.Value[bool]

	mu            sync.Mutex
	draft         Draft
	lastPaywallAt time.Time
}

type Options struct {
	Now      func() time.Time
	Location *time.Location
}

func New(store Store, assistant Assistant, q Quota, ent entitlement.Provider, log logging.Logger, opts Options) *Journal {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Journal{
		store:        store,
		assistant:    assistant,
		quota:        q,
		entitlements: ent,
		log:          log.With("module", "journal"),
		now:          opts.Now,
		loc:          opts.Location,
		messages:     observe.NewValue(Message{}),
		paywall:      observe.NewValue(false),
		draft:        Draft{Mood: models.MoodNeutral, Context: models.DefaultReformulationContext()},
	}
}

func (j *Journal) Messages() *observe.Value[Message] { return j.messages }

// Paywall is true while the upgrade prompt should be shown.
func (j *Journal) Paywall() *observe.Value[bool] { return j.paywall }

func (j *Journal) DismissPaywall() { j.paywall.Set(false) }

func (j *Journal) Draft() Draft {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.draft
}

// SetDraft replaces the text and mood. AI output for the previous text is
// dropped.
func (j *Journal) SetDraft(text string, mood models.Mood) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.draft.Text = text
	j.draft.Mood = mood
	j.draft.Empathy = ""
	j.draft.NextStep = ""
	j.draft.Reformulated = ""
}

func (j *Journal) SetContext(rc models.ReformulationContext) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.draft.Context = rc
}

func (j *Journal) Entries() []models.Entry { return j.store.Entries() }

// GenerateEmpathy fills the draft's empathy and next step.
func (j *Journal) GenerateEmpathy(ctx context.Context) (Draft, error) {
	d := j.Draft()
	res, err := j.assistant.Empathy(ctx, d.Text, d.Mood)
	if err != nil {
		j.fail(ctx, err)
		return j.Draft(), err
	}
	j.notice(res.Notice)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.draft.Text == d.Text {
		j.draft.Empathy = res.Empathy
		j.draft.NextStep = res.NextStep
	}
	return j.draft, nil
}

// Reformulate fills the draft's reformulated text for the chosen context.
func (j *Journal) Reformulate(ctx context.Context) (Draft, error) {
	d := j.Draft()
	res, err := j.assistant.Reformulate(ctx, d.Text, d.Context)
	if err != nil {
		j.fail(ctx, err)
		return j.Draft(), err
	}
	j.notice(res.Notice)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.draft.Text == d.Text && j.draft.Context == d.Context {
		j.draft.Reformulated = res.Text
	}
	return j.draft, nil
}

// Save turns the draft into an entry. Missing empathy or next step are
// filled by the offline rule engine.
func (j *Journal) Save(ctx context.Context) (models.Entry, error) {
	d := j.Draft()
	if strings.TrimSpace(d.Text) == "" {
		j.fail(ctx, common.ErrValidationEmpty)
		return models.Entry{}, common.ErrValidationEmpty
	}

	e := models.NewEntry(j.now(), d.Mood, d.Text)
	e.ReformulatedText = d.Reformulated
	e.EmpathyText, e.NextStep = d.Empathy, d.NextStep
	if e.EmpathyText == "" || e.NextStep == "" {
		r := empathy.Rewrite(e.OriginalText, e.Mood)
		e.EmpathyText, e.NextStep = r.Empathy, r.NextStep
	}

	if err := j.store.Save(ctx, e); err != nil {
		j.fail(ctx, err)
		return models.Entry{}, err
	}

	j.mu.Lock()
	j.draft = Draft{Mood: models.MoodNeutral, Context: d.Context}
	j.mu.Unlock()

	j.say(MessageSuccess, msgSaved)
	return e, nil
}

// Update replaces the text and mood of an existing entry.
func (j *Journal) Update(ctx context.Context, id uuid.UUID, text string, mood models.Mood) (models.Entry, error) {
	if strings.TrimSpace(text) == "" {
		j.fail(ctx, common.ErrValidationEmpty)
		return models.Entry{}, common.ErrValidationEmpty
	}
	var found *models.Entry
	for _, e := range j.store.Entries() {
		if e.ID == id {
			found = &e
			break
		}
	}
	if found == nil {
		j.fail(ctx, syncengine.ErrEntryNotFound)
		return models.Entry{}, syncengine.ErrEntryNotFound
	}

	e := found.Touch(j.now())
	e.OriginalText = strings.TrimSpace(text)
	e.Mood = mood
	if err := j.store.Save(ctx, e); err != nil {
		j.fail(ctx, err)
		return models.Entry{}, err
	}
	j.say(MessageSuccess, msgSaved)
	return e, nil
}

func (j *Journal) Delete(ctx context.Context, id uuid.UUID) error {
	if err := j.store.Delete(ctx, id); err != nil {
		j.fail(ctx, err)
		return err
	}
	j.say(MessageInfo, msgDeleted)
	return nil
}

func (j *Journal) DeleteAll(ctx context.Context) error {
	if err := j.store.DeleteAll(ctx); err != nil {
		j.fail(ctx, err)
		return err
	}
	j.say(MessageInfo, msgDeletedAll)
	return nil
}

func (j *Journal) Reorder(ctx context.Context, from, to int) error {
	if err := j.store.Reorder(ctx, from, to); err != nil {
		j.fail(ctx, err)
		return err
	}
	return nil
}

func (j *Journal) LoadMore(ctx context.Context) (bool, error) {
	ok, err := j.store.LoadMore(ctx)
	if err != nil {
		j.log.Warn(ctx, "load more failed", "err", err)
		j.say(MessageError, msgSyncFailed)
	}
	return ok, err
}

// Sync drains the outbox and refreshes the first page.
func (j *Journal) Sync(ctx context.Context) error {
	if err := j.store.FlushPending(ctx); err != nil {
		j.log.Warn(ctx, "flush failed", "err", err)
		j.say(MessageError, msgSyncFailed)
		return err
	}
	if err := j.store.Refresh(ctx); err != nil {
		j.log.Warn(ctx, "refresh failed", "err", err)
		j.say(MessageError, msgSyncFailed)
		return err
	}
	j.say(MessageSuccess, msgSynced)
	return nil
}

func (j *Journal) Trend() trend.Snapshot {
	return trend.Compute(j.store.Entries(), j.loc)
}

func (j *Journal) RemainingQuota(ctx context.Context) string {
	return j.quota.RemainingText(ctx, j.now())
}

// RefreshPlan re-reads purchases and updates the quota tier.
func (j *Journal) RefreshPlan(ctx context.Context) (quota.Tier, error) {
	if j.entitlements == nil {
		return j.quota.Tier(), nil
	}
	owned, err := j.entitlements.Owned(ctx)
	if err != nil {
		j.log.Warn(ctx, "entitlement refresh failed", "err", err)
		return j.quota.Tier(), err
	}
	tier := entitlement.Resolve(owned, j.now())
	j.quota.SetTier(tier)
	j.log.Info(ctx, "plan resolved", "tier", tier)
	return tier, nil
}

func (j *Journal) notice(n ai.Notice) {
	switch n {
	case ai.NoticeDailyLimit:
		j.say(MessageInfo, msgDailyLimit)
	case ai.NoticeRemoteUnavailable:
		j.say(MessageError, msgOfflineFallback)
	case ai.NoticeLocalOnly:
		j.say(MessageInfo, msgLocalOnly)
	}
}

// fail maps err to a user-facing message. Stale responses are silent.
func (j *Journal) fail(ctx context.Context, err error) {
	switch {
	case errors.Is(err, common.ErrStaleResponse):
		return
	case errors.Is(err, common.ErrValidationEmpty):
		j.say(MessageError, msgEmptyDraft)
	case errors.Is(err, common.ErrBusy):
		j.say(MessageInfo, msgBusy)
	case errors.Is(err, common.ErrQuotaExceeded):
		j.showPaywall()
		j.say(MessageError, msgQuotaExceeded)
	case errors.Is(err, syncengine.ErrEntryNotFound):
		j.say(MessageError, msgNotFound)
	default:
		j.log.Error(ctx, "journal operation failed", "err", err)
		j.say(MessageError, msgFailed)
	}
}

func (j *Journal) showPaywall() {
	j.mu.Lock()
	now := j.now()
	if !j.lastPaywallAt.IsZero() && now.Sub(j.lastPaywallAt) < PaywallThrottle {
		j.mu.Unlock()
		return
	}
	j.lastPaywallAt = now
	j.mu.Unlock()
	j.paywall.Set(true)
}

func (j *Journal) say(kind MessageKind, text string) {
	j.messages.Set(Message{Kind: kind, Text: text})
}
