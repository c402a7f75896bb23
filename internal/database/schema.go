package database

import (
	"fmt"
	"strings"
)

// column describes one column of a managed table. create is used inside
// CREATE TABLE; add, when set, is used by ALTER TABLE ADD COLUMN on older
// databases, where SQLite refuses non-constant defaults and constraints.
type column struct {
	name       string
	create     string
	add        string
	primaryKey bool
}

func (c column) addDefinition() string {
	if c.add != "" {
		return c.add
	}
	return c.create
}

type table struct {
	name        string
	columns     []column
	constraints []string
}

type index struct {
	name      string
	statement string
}

const (
	epochDefault = "TIMESTAMP NOT NULL DEFAULT '1970-01-01 00:00:00'"
	nowDefault   = "TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP"
)

func idColumn() column {
	return column{name: "id", primaryKey: true}
}

func textColumn(name string) column {
	return column{name: name, create: "TEXT NOT NULL DEFAULT ''"}
}

func intColumn(name string) column {
	return column{name: name, create: "INTEGER NOT NULL DEFAULT 0"}
}

func boolColumn(name string) column {
	return column{name: name, create: "BOOLEAN NOT NULL DEFAULT FALSE"}
}

func timeColumn(name string) column {
	return column{name: name, create: nowDefault, add: epochDefault}
}

// schemaTables lists the managed tables in creation order; referenced tables
// come first.
var schemaTables = []table{
	{
		name: "users",
		columns: []column{
			idColumn(),
			{name: "username", create: "TEXT NOT NULL UNIQUE", add: "TEXT NOT NULL DEFAULT ''"},
			textColumn("pin_code"),
			boolColumn("is_admin"),
			intColumn("viewed_count"),
			timeColumn("created_at"),
			timeColumn("last_login_at"),
		},
	},
	{
		name: "characters",
		columns: []column{
			idColumn(),
			textColumn("glyph"),
			textColumn("pinyin"),
			textColumn("english_translation"),
			textColumn("hebrew_translation"),
			intColumn("sentence_length"),
			intColumn("appearance_frequency"),
			timeColumn("created_at"),
		},
	},
	{
		name: "sentences",
		columns: []column{
			idColumn(),
			{name: "character_id", create: "BIGINT NOT NULL", add: "BIGINT NOT NULL DEFAULT 0"},
			textColumn("sentence"),
			textColumn("sentence_pinyin"),
			textColumn("sentence_english_translation"),
			textColumn("sentence_hebrew_translation"),
			timeColumn("created_at"),
		},
		constraints: []string{
			"FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE",
		},
	},
	{
		name: "user_progress",
		columns: []column{
			idColumn(),
			{name: "user_id", create: "BIGINT NOT NULL", add: "BIGINT NOT NULL DEFAULT 0"},
			{name: "character_id", create: "BIGINT NOT NULL", add: "BIGINT NOT NULL DEFAULT 0"},
			boolColumn("viewed"),
			boolColumn("completed"),
			timeColumn("last_accessed_at"),
			intColumn("times_practiced"),
		},
		constraints: []string{
			"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE",
			"FOREIGN KEY (character_id) REFERENCES characters(id) ON DELETE CASCADE",
		},
	},
	{
		name: "quiz_results",
		columns: []column{
			idColumn(),
			{name: "user_id", create: "BIGINT NOT NULL", add: "BIGINT NOT NULL DEFAULT 0"},
			{name: "kind", create: "TEXT NOT NULL DEFAULT 'translation'"},
			intColumn("total_questions"),
			intColumn("correct_answers"),
			timeColumn("started_at"),
			timeColumn("finished_at"),
		},
		constraints: []string{
			"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE",
		},
	},
}

// schemaIndexes are created after the tables. Each one is attempted on its
// own; a failure is logged and does not stop the migration.
var schemaIndexes = []index{
	{"ux_users_username", "CREATE UNIQUE INDEX IF NOT EXISTS ux_users_username ON users(username)"},
	{"idx_characters_frequency", "CREATE INDEX IF NOT EXISTS idx_characters_frequency ON characters(appearance_frequency DESC)"},
	{"idx_characters_sentence_length", "CREATE INDEX IF NOT EXISTS idx_characters_sentence_length ON characters(sentence_length)"},
	{"idx_sentences_character_id", "CREATE INDEX IF NOT EXISTS idx_sentences_character_id ON sentences(character_id)"},
	{"ux_user_progress_user_character", "CREATE UNIQUE INDEX IF NOT EXISTS ux_user_progress_user_character ON user_progress(user_id, character_id)"},
	{"idx_user_progress_viewed", "CREATE INDEX IF NOT EXISTS idx_user_progress_viewed ON user_progress(user_id, viewed)"},
	{"idx_user_progress_last_accessed", "CREATE INDEX IF NOT EXISTS idx_user_progress_last_accessed ON user_progress(user_id, last_accessed_at DESC)"},
	{"idx_quiz_results_user", "CREATE INDEX IF NOT EXISTS idx_quiz_results_user ON quiz_results(user_id, finished_at DESC)"},
}

func primaryKeyDefinition(driver string) string {
	if driver == DriverPostgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (t table) createStatement(driver string) string {
	defs := make([]string, 0, len(t.columns)+len(t.constraints))
	for _, c := range t.columns {
		def := c.create
		if c.primaryKey {
			def = primaryKeyDefinition(driver)
		}
		defs = append(defs, fmt.Sprintf("%s %s", c.name, def))
	}
	defs = append(defs, t.constraints...)

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.name, strings.Join(defs, ",\n\t"))
}
