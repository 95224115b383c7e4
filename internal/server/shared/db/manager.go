package db

import (
	"context"
	"database/sql"

	"github.com/BharathKumarMurugan/cloud-drive/internal/server/files"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/sessions"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/users"
)

// RepositoryManager vends the repositories the server needs and owns the
// underlying connection plus schema migrations.
type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	Sessions() sessions.Repository
	Files() files.Repository
}
