package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/gokigennote/gokigen/internal/client/journal"
	"github.com/gokigennote/gokigen/internal/client/models"
	"github.com/gokigennote/gokigen/internal/client/observe"
	"github.com/gokigennote/gokigen/internal/client/quota"
	"github.com/gokigennote/gokigen/internal/client/remote"
	"github.com/gokigennote/gokigen/internal/client/trend"
	"github.com/gokigennote/gokigen/internal/logging"
	"github.com/google/uuid"
)

type fakeJournal struct {
	Journal

	msgs    *observe.Value[journal.Message]
	draft   journal.Draft
	entries []models.Entry
	calls   []string

	err       error
	saved     models.Entry
	updatedID uuid.UUID
	updated   string
	deleted   uuid.UUID
	moved     [2]int
	more      bool
	snap      trend.Snapshot
	export    []byte
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{msgs: observe.NewValue(journal.Message{})}
}

func (f *fakeJournal) say(text string) {
	f.msgs.Set(journal.Message{Kind: journal.MessageInfo, Text: text})
}

func (f *fakeJournal) Messages() *observe.Value[journal.Message] { return f.msgs }
func (f *fakeJournal) Draft() journal.Draft                      { return f.draft }
func (f *fakeJournal) SetDraft(text string, mood models.Mood) {
	f.draft = journal.Draft{Text: text, Mood: mood}
}
func (f *fakeJournal) SetContext(rc models.ReformulationContext) { f.draft.Context = rc }
func (f *fakeJournal) Entries() []models.Entry                   { return f.entries }

func (f *fakeJournal) GenerateEmpathy(context.Context) (journal.Draft, error) {
	f.calls = append(f.calls, "empathy")
	if f.err != nil {
		f.say(f.err.Error())
		return journal.Draft{}, f.err
	}
	f.draft.Empathy, f.draft.NextStep = "You did well.", "Rest early."
	return f.draft, nil
}

func (f *fakeJournal) Reformulate(context.Context) (journal.Draft, error) {
	f.calls = append(f.calls, "reformulate")
	f.draft.Reformulated = "polished"
	return f.draft, f.err
}

func (f *fakeJournal) Save(context.Context) (models.Entry, error) {
	f.calls = append(f.calls, "save")
	if f.err != nil {
		f.say(f.err.Error())
		return models.Entry{}, f.err
	}
	f.say("Saved.")
	return f.saved, nil
}

func (f *fakeJournal) Update(_ context.Context, id uuid.UUID, text string, mood models.Mood) (models.Entry, error) {
	f.updatedID, f.updated = id, text
	return models.Entry{ID: id, OriginalText: text, Mood: mood}, f.err
}

func (f *fakeJournal) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = id
	return f.err
}

func (f *fakeJournal) DeleteAll(context.Context) error {
	f.calls = append(f.calls, "deleteall")
	return f.err
}

func (f *fakeJournal) Reorder(_ context.Context, from, to int) error {
	f.moved = [2]int{from, to}
	return f.err
}

func (f *fakeJournal) LoadMore(context.Context) (bool, error) { return f.more, f.err }
func (f *fakeJournal) Sync(context.Context) error {
	f.calls = append(f.calls, "sync")
	return f.err
}
func (f *fakeJournal) Trend() trend.Snapshot                 { return f.snap }
func (f *fakeJournal) RemainingQuota(context.Context) string { return "3 left today" }
func (f *fakeJournal) RefreshPlan(context.Context) (quota.Tier, error) {
	return quota.TierLifetime, f.err
}
func (f *fakeJournal) ExportJSON() ([]byte, error) { return f.export, f.err }

type fakeBinder struct {
	bound   string
	unbound bool
}

func (b *fakeBinder) Bind(_ context.Context, userID string) { b.bound = userID }
func (b *fakeBinder) Unbind()                               { b.unbound = true }

type fakeExporter struct {
	exp remote.Export
	err error
}

func (e *fakeExporter) ExportEntries(context.Context) (remote.Export, error) { return e.exp, e.err }

// newTestApp returns an App driving j whose output lands in the buffer.
func newTestApp(t *testing.T, j *fakeJournal) (*App, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	a := &App{
		log:     logging.Nop(),
		journal: j,
		binder:  &fakeBinder{},
		reader:  bufio.NewReader(strings.NewReader("")),
		out:     out,
	}
	if j != nil {
		msgs, cancel := j.Messages().Subscribe()
		<-msgs
		a.msgs = msgs
		t.Cleanup(cancel)
	}
	return a, out
}

// stubText replaces getSimpleText with answers returned in order.
func stubText(t *testing.T, answers ...string) {
	t.Helper()
	orig := getSimpleText
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(answers) == 0 {
			return "", io.EOF
		}
		s := answers[0]
		answers = answers[1:]
		return s, nil
	}
	t.Cleanup(func() { getSimpleText = orig })
}

func stubMultiline(t *testing.T, text string) {
	t.Helper()
	orig := getMultiline
	getMultiline = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return text, nil }
	t.Cleanup(func() { getMultiline = orig })
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(_ io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}
