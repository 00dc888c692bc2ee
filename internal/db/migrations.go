package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'work_order_status') THEN
			CREATE TYPE work_order_status AS ENUM ('ACTIVE', 'PARTIAL', 'CLOSED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'adjustment_kind') THEN
			CREATE TYPE adjustment_kind AS ENUM ('EXTRA', 'SHORTFALL');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'cut_status') THEN
			CREATE TYPE cut_status AS ENUM ('DRAFT', 'READY_TO_BILL', 'BILLED', 'VOID');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS work_orders (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		center_id UUID NOT NULL,
		client_org_id UUID NOT NULL,
		status work_order_status NOT NULL DEFAULT 'ACTIVE',
		parent_work_order_id UUID REFERENCES work_orders(id),
		tax_rate NUMERIC(6,4) NOT NULL DEFAULT 0,
		subtotal NUMERIC(18,2) NOT NULL DEFAULT 0,
		tax_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		total NUMERIC(18,2) NOT NULL DEFAULT 0,
		created_by_user_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_work_orders_parent ON work_orders (parent_work_order_id) WHERE parent_work_order_id IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS service_lines (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		work_order_id UUID NOT NULL REFERENCES work_orders(id),
		service_id UUID NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		contracted_quantity BIGINT NOT NULL CHECK (contracted_quantity > 0),
		unit_price NUMERIC(18,4) NOT NULL,
		subtotal NUMERIC(18,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_service_lines_work_order ON service_lines (work_order_id);`,
	`CREATE TABLE IF NOT EXISTS service_items (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		service_line_id UUID NOT NULL REFERENCES service_lines(id),
		description TEXT NOT NULL DEFAULT '',
		size TEXT NOT NULL DEFAULT '',
		planned_quantity BIGINT NOT NULL DEFAULT 0,
		completed_quantity BIGINT NOT NULL DEFAULT 0,
		legacy_shortfall BIGINT NOT NULL DEFAULT 0,
		unit_price NUMERIC(18,4) NOT NULL,
		billable_total BIGINT NOT NULL DEFAULT 0,
		subtotal NUMERIC(18,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_service_items_line ON service_items (service_line_id);`,
	`CREATE TABLE IF NOT EXISTS progress_records (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		service_line_id UUID NOT NULL REFERENCES service_lines(id),
		applied_rate NUMERIC(18,4) NOT NULL DEFAULT 0,
		unit_price_applied NUMERIC(18,4) NOT NULL DEFAULT 0,
		quantity BIGINT NOT NULL CHECK (quantity > 0),
		comment TEXT NOT NULL DEFAULT '',
		created_by_user_id UUID NOT NULL,
		idempotency_key TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_progress_records_line ON progress_records (service_line_id);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_progress_idempotency
		ON progress_records (service_line_id, idempotency_key)
		WHERE idempotency_key <> '';`,
	`CREATE TABLE IF NOT EXISTS adjustments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		work_order_id UUID NOT NULL REFERENCES work_orders(id),
		service_item_id UUID NOT NULL REFERENCES service_items(id),
		kind adjustment_kind NOT NULL,
		quantity BIGINT NOT NULL CHECK (quantity > 0),
		reason TEXT,
		created_by_user_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_adjustments_item ON adjustments (service_item_id);`,
	`CREATE TABLE IF NOT EXISTS billing_cuts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		work_order_id UUID NOT NULL REFERENCES work_orders(id),
		period_start DATE NOT NULL,
		period_end DATE NOT NULL,
		folio VARCHAR(128) NOT NULL,
		status cut_status NOT NULL DEFAULT 'DRAFT',
		total_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		child_work_order_id UUID REFERENCES work_orders(id),
		created_by_user_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_billing_cuts_folio ON billing_cuts (folio);`,
	`CREATE INDEX IF NOT EXISTS idx_billing_cuts_work_order ON billing_cuts (work_order_id);`,
	`CREATE TABLE IF NOT EXISTS cut_details (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		billing_cut_id UUID NOT NULL REFERENCES billing_cuts(id) ON DELETE CASCADE,
		service_line_id UUID NOT NULL REFERENCES service_lines(id),
		service_item_id UUID REFERENCES service_items(id),
		description TEXT NOT NULL DEFAULT '',
		quantity_cut BIGINT NOT NULL CHECK (quantity_cut >= 0),
		unit_price_snapshot NUMERIC(18,4) NOT NULL,
		amount_snapshot NUMERIC(18,2) NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_cut_details_cut ON cut_details (billing_cut_id);`,
	`CREATE INDEX IF NOT EXISTS idx_cut_details_line ON cut_details (service_line_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
