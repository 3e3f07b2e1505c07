package store

// Schema is the complaint table definition. In deployment the persister that
// consumes the mutation topics owns this table; integration tests create it
// directly.
const Schema = `
CREATE TABLE IF NOT EXISTS complaints (
	id                 TEXT PRIMARY KEY,
	tenant_id          TEXT NOT NULL,
	service_code       TEXT NOT NULL,
	service_request_id TEXT NOT NULL,
	description        TEXT,
	account_id         TEXT NOT NULL,
	application_status TEXT NOT NULL,
	source             TEXT NOT NULL,
	active             BOOLEAN NOT NULL DEFAULT TRUE,
	address_id         TEXT NOT NULL DEFAULT '',
	address_locality   TEXT NOT NULL DEFAULT '',
	address_city       TEXT NOT NULL DEFAULT '',
	address_district   TEXT NOT NULL DEFAULT '',
	address_region     TEXT NOT NULL DEFAULT '',
	address_state      TEXT NOT NULL DEFAULT '',
	address_pincode    TEXT NOT NULL DEFAULT '',
	address_landmark   TEXT,
	created_by         TEXT NOT NULL,
	created_time       BIGINT NOT NULL,
	last_modified_by   TEXT NOT NULL,
	last_modified_time BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_complaints_tenant_created
	ON complaints (tenant_id, created_time DESC);
CREATE INDEX IF NOT EXISTS idx_complaints_service_request
	ON complaints (service_request_id);
CREATE INDEX IF NOT EXISTS idx_complaints_account
	ON complaints (account_id);
`
