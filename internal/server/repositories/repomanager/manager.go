package repomanager

import (
	"context"
	"database/sql"

	"github.com/gokigennote/gokigen/internal/dbx"
	"github.com/gokigennote/gokigen/internal/server/repositories/entries"
	"github.com/gokigennote/gokigen/internal/server/repositories/refreshtokens"
	"github.com/gokigennote/gokigen/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so services can run
// several of them inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Entries(db dbx.DBTX) entries.Repository
}
