package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/inkwell/pkg/content"
)

func TestRebind(t *testing.T) {
	sqlite := &Store{dialect: DialectSQLite}
	pg := &Store{dialect: DialectPostgres}

	query := "SELECT id FROM articles WHERE slug = ? AND published = ?"
	assert.Equal(t, query, sqlite.rebind(query))
	assert.Equal(t, "SELECT id FROM articles WHERE slug = $1 AND published = $2", pg.rebind(query))
	assert.Equal(t, "SELECT 1", pg.rebind("SELECT 1"))
}

func TestSQLiteDSNPinsPragmas(t *testing.T) {
	// Every connection the driver dials must carry the pragmas.
	assert.Equal(t,
		"inkwell.db?_case_sensitive_like=true&_fk=true",
		sqliteDSN("inkwell.db"))
	assert.Equal(t,
		"file:x?mode=memory&cache=shared&_case_sensitive_like=true&_fk=true",
		sqliteDSN("file:x?mode=memory&cache=shared"))
	// Caller-supplied values win.
	assert.Equal(t,
		"file:y?_fk=1&_case_sensitive_like=true",
		sqliteDSN("file:y?_fk=1"))
	assert.Equal(t,
		"file:z?_case_sensitive_like=false&_fk=true",
		sqliteDSN("file:z?_case_sensitive_like=false"))
}

func TestSearchClauseDialects(t *testing.T) {
	sqlite := &Store{dialect: DialectSQLite}
	pg := &Store{dialect: DialectPostgres}

	where, args := sqlite.searchClause("term", nil)
	assert.Contains(t, where, "LIKE")
	assert.NotContains(t, where, "ILIKE")
	assert.Equal(t, []interface{}{"%term%", "%term%", true}, args)

	where, _ = pg.searchClause("term", nil)
	assert.Contains(t, where, "ILIKE")
}

func TestSearchArticlesPropagatesCountError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &Store{db: db, dialect: DialectSQLite}
	boom := errors.New("disk on fire")
	mock.ExpectQuery("SELECT COUNT").WillReturnError(boom)

	_, _, err = store.SearchArticles(context.Background(), "x", nil, 10, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSettingPropagatesQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &Store{db: db, dialect: DialectSQLite}
	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT key, value FROM settings").WillReturnError(boom)

	_, err = store.GetSetting(context.Background(), "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateArticleRollsBackOnFieldError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &Store{db: db, dialect: DialectSQLite}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO articles").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO fields").WillReturnError(errors.New("constraint violated"))
	mock.ExpectRollback()

	article := &content.Article{
		Title:    "tx test",
		Body:     "body",
		AuthorID: 1,
		Fields:   []content.Field{{Kind: content.FieldImage, Value: "x.png"}},
	}
	err = store.CreateArticle(context.Background(), article)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
