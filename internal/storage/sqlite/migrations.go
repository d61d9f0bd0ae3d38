package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// IMPORTANT: rounds must be created BEFORE expenses due to foreign key constraint.
// Token amounts can exceed 64 bits, so they are stored as decimal TEXT.
const schema = `
CREATE TABLE IF NOT EXISTS participants (
    ordinal INTEGER PRIMARY KEY,
    identity TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    registered_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS rounds (
    id TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    entry_count INTEGER NOT NULL,
    error TEXT,
    started_at INTEGER NOT NULL,
    finished_at INTEGER
);

CREATE TABLE IF NOT EXISTS expenses (
    seq INTEGER PRIMARY KEY,
    debtor TEXT NOT NULL,
    payer TEXT NOT NULL,
    amount TEXT NOT NULL,
    recorded_at INTEGER NOT NULL,
    round_id TEXT,
    FOREIGN KEY (debtor) REFERENCES participants(identity),
    FOREIGN KEY (payer) REFERENCES participants(identity),
    FOREIGN KEY (round_id) REFERENCES rounds(id)
);

CREATE TABLE IF NOT EXISTS legs (
    round_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    from_identity TEXT NOT NULL,
    to_identity TEXT NOT NULL,
    amount TEXT NOT NULL,
    PRIMARY KEY (round_id, seq),
    FOREIGN KEY (round_id) REFERENCES rounds(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS accounts (
    identity TEXT PRIMARY KEY,
    balance TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS allowances (
    owner TEXT NOT NULL,
    spender TEXT NOT NULL,
    amount TEXT NOT NULL,
    PRIMARY KEY (owner, spender)
);

CREATE INDEX IF NOT EXISTS idx_expenses_round_id ON expenses(round_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
