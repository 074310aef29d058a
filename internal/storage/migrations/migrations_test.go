package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedFiles_Sorted(t *testing.T) {
	pg, err := embeddedFiles(PostgresFS, "postgres")
	require.NoError(t, err)
	require.NotEmpty(t, pg)
	for i := 1; i < len(pg); i++ {
		assert.Less(t, pg[i-1].name, pg[i].name)
	}

	ch, err := embeddedFiles(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, ch)
	for _, f := range ch {
		assert.NoError(t, validateNoSemicolonInStrings(f.sql), f.name)
	}
}

func TestSplitStatements(t *testing.T) {
	sql := `
-- comment; with semicolon
CREATE TABLE a (x UInt8) ENGINE = Memory;

CREATE TABLE b (y String) ENGINE = Memory;
`
	stmts := splitStatements(sql)
	require.Len(t, stmts, 2)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE a"))
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE b"))
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings("SELECT 'it''s'; SELECT 1;"))
	assert.Error(t, validateNoSemicolonInStrings("SELECT 'a;b';"))
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/scores")
	require.NoError(t, err)
	assert.Equal(t, "scores", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}
