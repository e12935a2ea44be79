package pgfreight

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS owners (
  id BIGSERIAL PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  full_name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'user',
  api_token TEXT NULL UNIQUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`
CREATE TABLE IF NOT EXISTS containers (
  id BIGSERIAL PRIMARY KEY,
  container_number TEXT NOT NULL UNIQUE,
  port_of_loading TEXT NOT NULL DEFAULT '',
  port_of_discharge TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'preparing',
  departure_date TIMESTAMPTZ NULL,
  arrival_date TIMESTAMPTZ NULL,
  notes TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		// Single canonical row per tracking number: the unique constraint is
		// what lets submissions upsert instead of producing duplicates that
		// would need after-the-fact reconciliation.
		`
CREATE TABLE IF NOT EXISTS trackings (
  id BIGSERIAL PRIMARY KEY,
  tracking_number TEXT NOT NULL UNIQUE,
  owner_id BIGINT NULL REFERENCES owners(id) ON DELETE SET NULL,
  container_id BIGINT NULL REFERENCES containers(id) ON DELETE SET NULL,
  shipping_mark TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending',
  cbm NUMERIC NULL,
  shipping_fee NUMERIC NULL,
  goods_type TEXT NULL,
  eta TIMESTAMPTZ NULL,
  date_added TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_trackings_container_mark ON trackings(container_id, shipping_mark)`,
		`CREATE INDEX IF NOT EXISTS idx_trackings_owner ON trackings(owner_id)`,
		`
CREATE TABLE IF NOT EXISTS shipping_marks (
  id BIGSERIAL PRIMARY KEY,
  mark_id TEXT NOT NULL UNIQUE,
  owner_id BIGINT NOT NULL UNIQUE REFERENCES owners(id) ON DELETE CASCADE,
  name TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		// Append-only rate ledger; both currency pairs share one table.
		`
CREATE TABLE IF NOT EXISTS exchange_rates (
  id BIGSERIAL PRIMARY KEY,
  kind TEXT NOT NULL,
  usd_to_ghs NUMERIC NULL,
  ghs_to_cny NUMERIC NULL,
  cny_to_ghs NUMERIC NULL,
  updated_by BIGINT NULL REFERENCES owners(id) ON DELETE SET NULL,
  notes TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_exchange_rates_kind_created ON exchange_rates(kind, created_at DESC)`,
		`
CREATE TABLE IF NOT EXISTS invoices (
  id BIGSERIAL PRIMARY KEY,
  invoice_number TEXT NOT NULL UNIQUE,
  shipping_mark TEXT NOT NULL DEFAULT '',
  customer_name TEXT NOT NULL DEFAULT '',
  customer_email TEXT NOT NULL DEFAULT '',
  subtotal NUMERIC NOT NULL DEFAULT 0,
  tax_amount NUMERIC NOT NULL DEFAULT 0,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL DEFAULT 0,
  exchange_rate NUMERIC NOT NULL DEFAULT 0,
  total_amount_ghs NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  issue_date TIMESTAMPTZ NOT NULL DEFAULT now(),
  due_date TIMESTAMPTZ NOT NULL DEFAULT now(),
  paid_date TIMESTAMPTZ NULL,
  payment_method TEXT NOT NULL DEFAULT '',
  payment_reference TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  container_id BIGINT NULL REFERENCES containers(id) ON DELETE SET NULL,
  created_by BIGINT NULL REFERENCES owners(id) ON DELETE SET NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_mark ON invoices(shipping_mark)`,
		`
CREATE TABLE IF NOT EXISTS invoice_items (
  id BIGSERIAL PRIMARY KEY,
  invoice_id BIGINT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
  tracking_id BIGINT NULL REFERENCES trackings(id) ON DELETE SET NULL,
  description TEXT NOT NULL DEFAULT '',
  tracking_number TEXT NOT NULL DEFAULT '',
  cbm NUMERIC NOT NULL DEFAULT 0,
  rate_per_cbm NUMERIC NOT NULL DEFAULT 0,
  goods_type TEXT NOT NULL DEFAULT '',
  total_amount NUMERIC NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice ON invoice_items(invoice_id)`,
		// Atomic per-day invoice numbering: the counter row's update lock
		// serializes concurrent creations on the same day.
		`
CREATE TABLE IF NOT EXISTS invoice_counters (
  day TEXT PRIMARY KEY,
  last_seq BIGINT NOT NULL DEFAULT 0
)`,
		`
CREATE TABLE IF NOT EXISTS notifications (
  id UUID PRIMARY KEY,
  owner_id BIGINT NULL REFERENCES owners(id) ON DELETE SET NULL,
  kind TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  subject TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'queued',
  error TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  sent_at TIMESTAMPTZ NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_owner_created ON notifications(owner_id, created_at DESC)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
