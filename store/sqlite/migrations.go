package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the feeledger store (SQLite).
var Migrations = migrate.NewGroup("feeledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_feeledger_fee_structures",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS feeledger_fee_structures (
    id                 TEXT PRIMARY KEY,
    class_section_id   TEXT NOT NULL,
    class_section_name TEXT NOT NULL DEFAULT '',
    academic_year      TEXT NOT NULL,
    currency           TEXT NOT NULL,
    total_amount       INTEGER NOT NULL,
    installments       TEXT NOT NULL DEFAULT '[]',
    created_at         TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at         TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_feeledger_fs_class_year ON feeledger_fee_structures (class_section_id, academic_year);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS feeledger_fee_structures`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_feeledger_payments",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS feeledger_payments (
    id                 TEXT PRIMARY KEY,
    student_id         TEXT NOT NULL,
    student_name       TEXT NOT NULL DEFAULT '',
    class_section_id   TEXT NOT NULL DEFAULT '',
    class_section_name TEXT NOT NULL DEFAULT '',
    installment_number INTEGER NOT NULL,
    amount             INTEGER NOT NULL,
    currency           TEXT NOT NULL,
    payment_date       TEXT NOT NULL,
    created_at         TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at         TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_feeledger_payments_student ON feeledger_payments (student_id, installment_number);
CREATE INDEX IF NOT EXISTS idx_feeledger_payments_date ON feeledger_payments (payment_date);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS feeledger_payments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_users",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS users (
    id                 TEXT PRIMARY KEY,
    name               TEXT NOT NULL DEFAULT '',
    email              TEXT NOT NULL DEFAULT '',
    role               TEXT NOT NULL DEFAULT 'student',
    class_section_id   TEXT NOT NULL DEFAULT '',
    class_section_name TEXT NOT NULL DEFAULT '',
    sr_no              TEXT NOT NULL DEFAULT '',
    roll_no            TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_users_role_class ON users (role, class_section_id);
`)
				return err
			},
			Down: func(_ context.Context, _ migrate.Executor) error {
				return nil
			},
		},
	)
}
