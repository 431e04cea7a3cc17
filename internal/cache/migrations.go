package cache

import "fmt"

// migrate runs all cache migrations
func (c *Cache) migrate() error {
	migrations := []string{
		migrationCreateDocuments,
	}

	for i, m := range migrations {
		if _, err := c.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

const migrationCreateDocuments = `
CREATE TABLE IF NOT EXISTS documents (
    scope TEXT NOT NULL,
    id TEXT NOT NULL,
    position INTEGER NOT NULL,
    fields TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    PRIMARY KEY (scope, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_scope ON documents(scope, position);
`
