package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	surface    TEXT NOT NULL,
	id         INTEGER NOT NULL,
	content    TEXT NOT NULL,
	is_read    INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	position   INTEGER NOT NULL,
	PRIMARY KEY (surface, id)
);

CREATE TABLE IF NOT EXISTS pets (
	id          INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	species     TEXT NOT NULL DEFAULT '',
	breed       TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	listed_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_surface ON notifications(surface, position);
CREATE INDEX IF NOT EXISTS idx_pets_status ON pets(status);
CREATE INDEX IF NOT EXISTS idx_pets_listed_at ON pets(listed_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
