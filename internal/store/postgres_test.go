package store

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/projectwatcher/pkg/errors"
)

var projectColumns = []string{"id", "title", "url", "publication_datetime"}

func newPostgresStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewSQLStore(sqlx.NewDb(mockDB, "postgres"), DialectPostgres), mock
}

func TestPostgresInsertUsesNumberedPlaceholders(t *testing.T) {
	s, mock := newPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO projects \(title, url, publication_datetime\)\s+VALUES \(\$1, \$2, \$3\)\s+ON CONFLICT \(url\) DO NOTHING\s+RETURNING id`).
		WithArgs("Project a", "https://www.99freelas.com.br/project/a", at(1).UnixMilli()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	got, err := s.Insert(context.Background(), rec("a", 1))
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertConflictIsDuplicateKey(t *testing.T) {
	s, mock := newPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO projects`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.Insert(context.Background(), rec("a", 1))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrDuplicateKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListWithoutLimitUsesPlainOffset(t *testing.T) {
	s, mock := newPostgresStore(t)

	mock.ExpectQuery(`SELECT id, title, url, publication_datetime FROM projects ORDER BY publication_datetime DESC, id DESC OFFSET \$1`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(projectColumns).
			AddRow(3, "Project c", "https://www.99freelas.com.br/project/c", at(3).UnixMilli()))

	recs, err := s.List(context.Background(), 0, 2)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].PublishedAt.Equal(at(3)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteOldestBeyond(t *testing.T) {
	s, mock := newPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectExec(`DELETE FROM projects WHERE id IN \(\s+SELECT id FROM projects ORDER BY publication_datetime ASC, id ASC LIMIT \$1\s+\)`).
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := s.DeleteOldestBeyond(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteOldestBeyondUnderBound(t *testing.T) {
	s, mock := newPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectRollback()

	n, err := s.DeleteOldestBeyond(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresExistsWrapsStorageError(t *testing.T) {
	s, mock := newPostgresStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("https://www.99freelas.com.br/project/a").
		WillReturnError(stderrors.New("connection reset"))

	_, err := s.Exists(context.Background(), "https://www.99freelas.com.br/project/a")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeStorage, errors.TypeOf(err))
}

func TestPostgresMigrateAcceptsOwnSchema(t *testing.T) {
	s, mock := newPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS projects`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT data_type FROM information_schema.columns`).
		WillReturnRows(sqlmock.NewRows([]string{"data_type"}).AddRow("bigint"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM pg_indexes`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	require.NoError(t, s.migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrateRejectsTimestampColumn(t *testing.T) {
	s, mock := newPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS projects`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT data_type FROM information_schema.columns`).
		WillReturnRows(sqlmock.NewRows([]string{"data_type"}).AddRow("timestamp without time zone"))

	err := s.migrate(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeConfiguration, errors.TypeOf(err))
	assert.Contains(t, err.Error(), "timestamp without time zone")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrateRejectsNonUniqueURL(t *testing.T) {
	s, mock := newPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS projects`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT data_type FROM information_schema.columns`).
		WillReturnRows(sqlmock.NewRows([]string{"data_type"}).AddRow("bigint"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM pg_indexes`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	err := s.migrate(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeConfiguration, errors.TypeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
