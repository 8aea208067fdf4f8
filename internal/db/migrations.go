package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'user_role') THEN
			CREATE TYPE user_role AS ENUM ('ADMIN', 'OPERADOR');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		cnpj VARCHAR(14) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role user_role NOT NULL,
		must_change_password BOOLEAN NOT NULL DEFAULT TRUE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		admin_id UUID REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_users_cnpj ON users (cnpj);`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		number VARCHAR(255) NOT NULL,
		supplier VARCHAR(255),
		start_date DATE,
		end_date DATE,
		pdf_path VARCHAR(512) NOT NULL DEFAULT '',
		admin_id UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_admin_id ON contracts (admin_id);`,
	`CREATE TABLE IF NOT EXISTS contract_items (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		item_no INTEGER,
		description TEXT,
		unit VARCHAR(64),
		quantity NUMERIC(18,3),
		unit_price NUMERIC(18,4),
		total_price NUMERIC(18,2)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_items_contract_id ON contract_items (contract_id);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contract_items_contract_item_no
		ON contract_items (contract_id, item_no) WHERE item_no IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		order_type VARCHAR(128) NOT NULL,
		order_number VARCHAR(128),
		issue_date DATE,
		reference_period VARCHAR(128),
		justification TEXT,
		total_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_contract_id ON orders (contract_id);`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		contract_item_id UUID NOT NULL REFERENCES contract_items(id),
		item_no INTEGER,
		description TEXT,
		unit VARCHAR(64),
		quantity NUMERIC(18,3) NOT NULL,
		unit_price NUMERIC(18,4),
		total_price NUMERIC(18,2)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items (order_id);`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_contract_item_id ON order_items (contract_item_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
