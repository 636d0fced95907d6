package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gokigennote/gokigen/internal/client/models"
)

var (
	errUsage      = errors.New("usage")
	errNoSuchItem = errors.New("no such entry")
)

// Write starts a new draft. The mood comes from args or is asked for.
func (a *App) Write(ctx context.Context, args []string) error {
	moodText := ""
	if len(args) > 0 {
		moodText = args[0]
	} else {
		var err error
		moodText, err = getSimpleText(a.reader, "Mood (-2..2 or an emoji 😢 😞 😐 🙂 😊)", a.out)
		if err != nil {
			return err
		}
	}
	mood, ok := models.ParseMood(moodText)
	if !ok {
		a.println("Unknown mood:", moodText)
		return errUsage
	}

	text, err := getMultiline(a.reader, "How was today?", a.out)
	if err != nil {
		return err
	}
	a.journal.SetDraft(text, mood)
	a.println(fmt.Sprintf("Draft %s %s", mood.Emoji(), text))
	return nil
}

var getMultiline = GetMultiline

func (a *App) Empathy(ctx context.Context) error {
	d, err := a.journal.GenerateEmpathy(ctx)
	a.printMessage()
	if err != nil {
		return err
	}
	a.println(d.Empathy)
	a.println("Next step:", d.NextStep)
	return nil
}

// Reformulate accepts an optional "purpose audience tone" triple.
func (a *App) Reformulate(ctx context.Context, args []string) error {
	if len(args) > 0 {
		if len(args) != 3 {
			a.println("Usage: reformulate [purpose audience tone]")
			return errUsage
		}
		rc := models.ReformulationContext{
			Purpose:  models.Purpose(args[0]),
			Audience: models.Audience(args[1]),
			Tone:     models.Tone(args[2]),
		}
		if err := rc.Validate(); err != nil {
			a.println(err)
			return err
		}
		a.journal.SetContext(rc)
	}

	d, err := a.journal.Reformulate(ctx)
	a.printMessage()
	if err != nil {
		return err
	}
	a.println(d.Reformulated)
	return nil
}

func (a *App) Save(ctx context.Context) error {
	e, err := a.journal.Save(ctx)
	a.printMessage()
	if err != nil {
		return err
	}
	a.println(e.EmpathyText)
	a.println("Next step:", e.NextStep)
	return nil
}

// List prints entries newest first, numbered from 1.
func (a *App) List(ctx context.Context) error {
	entries := a.journal.Entries()
	if len(entries) == 0 {
		a.println("No entries yet.")
		return nil
	}
	loc := a.location()
	for i, e := range entries {
		a.println(fmt.Sprintf("%3d. %s %s %s", i+1, e.Date.In(loc).Format("2006-01-02 15:04"), e.Mood.Emoji(), firstLine(e.OriginalText)))
	}
	return nil
}

func (a *App) More(ctx context.Context) error {
	ok, err := a.journal.LoadMore(ctx)
	a.printMessage()
	if err != nil {
		return err
	}
	if !ok {
		a.println("Nothing more to load.")
		return nil
	}
	return a.List(ctx)
}

// Edit replaces the text and mood of entry n.
func (a *App) Edit(ctx context.Context, args []string) error {
	e, err := a.entryAt(args)
	if err != nil {
		return err
	}
	moodText, err := getSimpleText(a.reader, fmt.Sprintf("Mood [%d]", e.Mood), a.out)
	if err != nil {
		return err
	}
	mood := e.Mood
	if moodText != "" {
		m, ok := models.ParseMood(moodText)
		if !ok {
			a.println("Unknown mood:", moodText)
			return errUsage
		}
		mood = m
	}
	text, err := getMultiline(a.reader, "New text", a.out)
	if err != nil {
		return err
	}
	if text == "" {
		text = e.OriginalText
	}
	_, err = a.journal.Update(ctx, e.ID, text, mood)
	a.printMessage()
	return err
}

func (a *App) Delete(ctx context.Context, args []string) error {
	e, err := a.entryAt(args)
	if err != nil {
		return err
	}
	err = a.journal.Delete(ctx, e.ID)
	a.printMessage()
	return err
}

// DeleteAll asks for confirmation first.
func (a *App) DeleteAll(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "Delete every entry? Type 'yes' to confirm", a.out)
	if err != nil {
		return err
	}
	if answer != "yes" {
		a.println("Cancelled.")
		return nil
	}
	err = a.journal.DeleteAll(ctx)
	a.printMessage()
	return err
}

// Move reorders the local list: move <from> <to>, both 1-based.
func (a *App) Move(ctx context.Context, args []string) error {
	if len(args) != 2 {
		a.println("Usage: move <from> <to>")
		return errUsage
	}
	from, err1 := strconv.Atoi(args[0])
	to, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		a.println("Usage: move <from> <to>")
		return errUsage
	}
	if err := a.journal.Reorder(ctx, from-1, to-1); err != nil {
		a.printMessage()
		return err
	}
	return a.List(ctx)
}

func (a *App) Trend(ctx context.Context) error {
	s := a.journal.Trend()
	if s.IsEmpty() {
		a.println("Write a few entries to see your trend.")
		return nil
	}
	a.println(fmt.Sprintf("%s average %.1f over %d entries, %d day streak", s.DominantEmoji, s.AverageScore, s.SampleCount, s.ConsecutiveDays))
	a.println(s.Feedback)
	return nil
}

func (a *App) Quota(ctx context.Context) error {
	a.println("AI rewrites:", a.journal.RemainingQuota(ctx))
	return nil
}

func (a *App) Plan(ctx context.Context) error {
	tier, err := a.journal.RefreshPlan(ctx)
	if err != nil {
		a.println("Could not refresh plan:", err)
		return err
	}
	a.println("Plan:", tier)
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	err := a.journal.Sync(ctx)
	a.printMessage()
	return err
}

func (a *App) entryAt(args []string) (models.Entry, error) {
	if len(args) != 1 {
		a.println("Usage: <command> <number from list>")
		return models.Entry{}, errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		a.println("Not a number:", args[0])
		return models.Entry{}, errUsage
	}
	entries := a.journal.Entries()
	if n < 1 || n > len(entries) {
		a.println("No entry", n)
		return models.Entry{}, fmt.Errorf("%w: %d", errNoSuchItem, n)
	}
	return entries[n-1], nil
}

func (a *App) location() *time.Location {
	if a.config == nil {
		return time.UTC
	}
	return a.config.Location()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
