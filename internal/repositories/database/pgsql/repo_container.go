package pgsql

import "github.com/jackc/pgx/v5/pgxpool"

// RepositoryContainer groups the pgx-backed ledger store ports for wiring.
type RepositoryContainer struct {
	Accounts     *PgxAccountRepository
	People       *PgxPersonRepository
	Transactions *PgxTransactionRepository
}

// NewRepositoryContainer builds all repositories over one shared pool.
func NewRepositoryContainer(pool *pgxpool.Pool) *RepositoryContainer {
	return &RepositoryContainer{
		Accounts:     NewAccountRepository(pool),
		People:       NewPersonRepository(pool),
		Transactions: NewTransactionRepository(pool),
	}
}
