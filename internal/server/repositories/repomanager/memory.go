package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/users"
)

// MemoryRepositoryManager hands out the same in-memory repositories for every
// connection. The DBTX argument is ignored.
type MemoryRepositoryManager struct {
	TokenStore *tokens.MemoryRepository
	UserStore  *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		TokenStore: tokens.NewMemoryRepository(),
		UserStore:  users.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *MemoryRepositoryManager) Tokens(dbx.DBTX) tokens.Repository {
	return m.TokenStore
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.UserStore
}
