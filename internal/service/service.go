// Package service implements the settlement engine's operations. Every
// mutation runs as one transaction: all preconditions hold or nothing
// is written. Exclusive access is taken only on the records an
// operation mutates (row locks), so independent listings, currencies
// and templates never block each other.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fairyhunter13/marketplace-settlement/pkg/database"
)

// DB is the database handle a service needs: direct queries plus the
// ability to begin transactions. *pgxpool.Pool satisfies it.
type DB interface {
	database.TxQuerier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CredentialResolver resolves an administrator token to its bound
// shop.
type CredentialResolver interface {
	ShopIDByCredential(ctx context.Context, q database.TxQuerier, token uuid.UUID) (uuid.UUID, error)
}

// EventRepositoryInterface persists lifecycle events.
type EventRepositoryInterface interface {
	Insert(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, kind string, payload any) error
}

// authorize verifies that the presented credential was issued for the
// target shop. There is no revocation path: an unknown token and a
// token bound to another shop fail identically.
func authorize(ctx context.Context, q database.TxQuerier, creds CredentialResolver, token, shopID uuid.UUID) error {
	if token == uuid.Nil {
		return ErrUnauthorized
	}
	bound, err := creds.ShopIDByCredential(ctx, q, token)
	if err != nil {
		return fmt.Errorf("verify credential: %w", err)
	}
	if bound == uuid.Nil || bound != shopID {
		return ErrUnauthorized
	}
	return nil
}
