package admin

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// EntryKind distinguishes the handful of economic operations a GM
// command or bank/depot window can perform.
type EntryKind string

const (
	KindBankDeposit   EntryKind = "bank_deposit"
	KindBankWithdraw  EntryKind = "bank_withdraw"
	KindDepotStore    EntryKind = "depot_store"
	KindDepotRetrieve EntryKind = "depot_retrieve"
	KindGMGrant       EntryKind = "gm_grant"
)

// Entry is one row of the append-only economic ledger.
type Entry struct {
	ID             int64
	AccountID      int32
	CharacterID    int32
	Kind           EntryKind
	Amount         int64
	ItemTemplateID *int32
	Reason         string
	CreatedAt      time.Time
}

// Ledger records economic transactions and ban-list membership, query
// shape grounded on the teacher's internal/persist/character_repo.go
// (plain pgx.Pool.Query/QueryRow, manual Scan, no ORM).
type Ledger struct {
	db *DB
}

func NewLedger(db *DB) *Ledger {
	return &Ledger{db: db}
}

// Record appends one ledger entry. The ledger is append-only: there is
// no Update or Delete, only new entries, so the transaction history is
// never silently rewritten.
func (l *Ledger) Record(ctx context.Context, e Entry) (int64, error) {
	var id int64
	err := l.db.Pool.QueryRow(ctx,
		`INSERT INTO ledger_entries (account_id, character_id, kind, amount, item_template_id, reason)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		e.AccountID, e.CharacterID, e.Kind, e.Amount, e.ItemTemplateID, e.Reason,
	).Scan(&id)
	return id, err
}

// EntriesForAccount returns an account's ledger history, most recent
// first, for the admin HTTP surface and support tooling.
func (l *Ledger) EntriesForAccount(ctx context.Context, accountID int32, limit int) ([]Entry, error) {
	rows, err := l.db.Pool.Query(ctx,
		`SELECT id, account_id, character_id, kind, amount, item_template_id, reason, created_at
		 FROM ledger_entries WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2`,
		accountID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.CharacterID, &e.Kind, &e.Amount, &e.ItemTemplateID, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Ban is one row of the ban list.
type Ban struct {
	AccountID int32
	Reason    string
	BannedBy  string
	ExpiresAt *time.Time // nil means permanent
	CreatedAt time.Time
}

// Ban inserts or replaces an account's ban record (an admin re-issuing a
// ban, e.g. to extend its duration, overwrites rather than stacking).
func (l *Ledger) Ban(ctx context.Context, b Ban) error {
	_, err := l.db.Pool.Exec(ctx,
		`INSERT INTO ban_list (account_id, reason, banned_by, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (account_id) DO UPDATE
		 SET reason = EXCLUDED.reason, banned_by = EXCLUDED.banned_by, expires_at = EXCLUDED.expires_at`,
		b.AccountID, b.Reason, b.BannedBy, b.ExpiresAt,
	)
	return err
}

func (l *Ledger) Unban(ctx context.Context, accountID int32) error {
	_, err := l.db.Pool.Exec(ctx, `DELETE FROM ban_list WHERE account_id = $1`, accountID)
	return err
}

// IsBanned reports whether accountID currently has an active ban,
// treating an expired entry as not banned (but leaves it in the table;
// a GM can still see the history via ban list listing tools).
func (l *Ledger) IsBanned(ctx context.Context, accountID int32) (bool, error) {
	var expiresAt *time.Time
	err := l.db.Pool.QueryRow(ctx,
		`SELECT expires_at FROM ban_list WHERE account_id = $1`, accountID,
	).Scan(&expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if expiresAt == nil {
		return true, nil
	}
	return time.Now().Before(*expiresAt), nil
}
