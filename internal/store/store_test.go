package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhinjs/segment-matcher-sub000/pkg/routes"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, zerolog.Nop()), mock
}

func TestInitSchema(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS routes").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRoutes(t *testing.T) {
	s, mock := newMockStore(t)
	set := routes.RouteSet{
		Source: "a.yml",
		Commands: []routes.Route{
			{Name: "hello", Pattern: "hello <name>", Description: "greet"},
			{Name: "ping", Pattern: "ping", Source: "b.yml"},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO routes").
		WithArgs("hello", "hello <name>", "greet", "a.yml").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO routes").
		WithArgs("ping", "ping", "", "b.yml").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.SaveRoutes(context.Background(), set))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRoutesRollsBack(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO routes").WillReturnError(boom)
	mock.ExpectRollback()

	err := s.SaveRoutes(context.Background(), routes.RouteSet{Commands: []routes.Route{{Name: "x", Pattern: "x"}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `"x"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoute(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM routes WHERE name").WithArgs("hello").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM routes WHERE name").WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.DeleteRoute(context.Background(), "hello")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DeleteRoute(context.Background(), "gone")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAndLoadRoutes(t *testing.T) {
	s, mock := newMockStore(t)
	cols := []string{"name", "pattern", "description", "source"}
	for i := 0; i < 2; i++ {
		mock.ExpectQuery("SELECT name, pattern, description, source FROM routes").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("hello", "hello <name>", "greet", "a.yml").
				AddRow("ping", "ping", "", "postgres"))
	}

	got, err := s.ListRoutes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []routes.Route{
		{Name: "hello", Pattern: "hello <name>", Description: "greet", Source: "a.yml"},
		{Name: "ping", Pattern: "ping", Source: "postgres"},
	}, got)

	set, err := s.LoadRouteSet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "postgres", set.Source)
	assert.Len(t, set.Commands, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRoutesEmpty(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT name").WillReturnRows(sqlmock.NewRows([]string{"name", "pattern", "description", "source"}))

	got, err := s.ListRoutes(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRunMigrations(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS routes").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS routes_source_idx").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE routes ADD COLUMN").WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := s.RunMigrations(context.Background(), "../../testdata/migrations")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsStopsOnError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("denied"))

	n, err := s.RunMigrations(context.Background(), "../../testdata/migrations")
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Contains(t, err.Error(), "001_routes.sql")
}
