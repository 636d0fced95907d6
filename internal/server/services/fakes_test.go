package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gokigennote/gokigen/internal/common"
	"github.com/gokigennote/gokigen/internal/dbx"
	"github.com/gokigennote/gokigen/internal/server/models"
	"github.com/gokigennote/gokigen/internal/server/repositories/entries"
	"github.com/gokigennote/gokigen/internal/server/repositories/refreshtokens"
	"github.com/gokigennote/gokigen/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error
	getOut    *models.User
	getErr    error
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}

func (f *fakeUsersRepo) GetUserByLogin(context.Context, string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeRefreshRepo struct {
	tokens    map[string]models.RefreshToken
	createErr error
	consumErr error
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID, token string, validity time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[token] = models.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (f *fakeRefreshRepo) Consume(_ context.Context, token string) (*models.RefreshToken, error) {
	if f.consumErr != nil {
		return nil, f.consumErr
	}
	rt, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(f.tokens, token)
	return &rt, nil
}

// fakeEntriesRepo keeps rows per user in memory and counts queries.
type fakeEntriesRepo struct {
	rows      map[string]map[string]models.Entry
	loads     int
	upsertErr error
	failOn    string
}

func newFakeEntriesRepo() *fakeEntriesRepo {
	return &fakeEntriesRepo{rows: map[string]map[string]models.Entry{}}
}

func (f *fakeEntriesRepo) Upsert(_ context.Context, e *models.Entry) error {
	if f.upsertErr != nil || e.ID == f.failOn {
		return errBoom
	}
	if f.rows[e.UserID] == nil {
		f.rows[e.UserID] = map[string]models.Entry{}
	}
	if cur, ok := f.rows[e.UserID][e.ID]; ok && cur.UpdatedAt.After(e.UpdatedAt) {
		return nil
	}
	f.rows[e.UserID][e.ID] = *e
	return nil
}

func (f *fakeEntriesRepo) sorted(userID string) []*models.Entry {
	var out []*models.Entry
	for _, e := range f.rows[userID] {
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (f *fakeEntriesRepo) LoadPage(_ context.Context, userID string, limit int, c *models.PageCursor) ([]*models.Entry, error) {
	f.loads++
	var out []*models.Entry
	for _, e := range f.sorted(userID) {
		if c != nil && !(e.Date.Before(c.Date) || (e.Date.Equal(c.Date) && e.ID < c.ID)) {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeEntriesRepo) Delete(_ context.Context, userID, id string) error {
	delete(f.rows[userID], id)
	return nil
}

func (f *fakeEntriesRepo) DeleteAll(_ context.Context, userID string) (int64, error) {
	n := int64(len(f.rows[userID]))
	delete(f.rows, userID)
	return n, nil
}

func (f *fakeEntriesRepo) SelectAll(_ context.Context, userID string) ([]*models.Entry, error) {
	return f.sorted(userID), nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	e *fakeEntriesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Entries(dbx.DBTX) entries.Repository             { return m.e }
