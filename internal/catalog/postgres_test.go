package catalog

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	errx "github.com/MobiAdvisor-core/server/internal/core/error"
)

// ==========================
// Test Helper Functions
// ==========================

var phoneColumnNames = []string{
	"id", "company_name", "model_name", "processor", "launched_year", "user_rating", "user_review",
	"camera_rating", "battery_rating", "design_rating", "display_rating", "performance_rating", "memory_gb", "weight_g",
	"ram_gb", "front_camera_mp", "back_camera_mp", "battery_mah", "price_inr", "screen_size",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func phoneRow(rows *sqlmock.Rows, p model.Phone) *sqlmock.Rows {
	return rows.AddRow(p.ID, p.CompanyName, p.ModelName, p.Processor, 2024, p.UserRating, "",
		4.0, 4.0, 4.0, 4.0, p.PerformanceRating, p.MemoryGB, nil,
		p.RAMGB, 12.0, p.BackCameraMP, p.BatteryMAH, p.PriceINR, 6.5)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestBuildFindSQL(t *testing.T) {
	tests := []struct {
		name     string
		q        Query
		wantSQL  string
		wantArgs int
	}{
		{
			name:     "no filters default order",
			q:        Query{},
			wantSQL:  "SELECT " + phoneColumns + " FROM phones ORDER BY id ASC",
			wantArgs: 0,
		},
		{
			name: "filters with ordering and limit",
			q: Query{
				Company: "Samsung", MaxPrice: 20000, MinBattery: 5000,
				OrderBy: []Order{Desc(FieldBackCamera), Desc(FieldRating)}, Limit: 5,
			},
			wantSQL: "SELECT " + phoneColumns + " FROM phones WHERE company_name ILIKE $1 AND price_inr <= $2 AND battery_mah >= $3" +
				" ORDER BY back_camera_mp DESC, user_rating DESC, id ASC LIMIT $4",
			wantArgs: 4,
		},
		{
			name: "keywords share one placeholder per token",
			q:    Query{Keywords: []string{"pixel", "moto"}, MatchProcessor: true},
			wantSQL: "SELECT " + phoneColumns + " FROM phones WHERE (company_name ILIKE $1 OR model_name ILIKE $1 OR processor ILIKE $1" +
				" OR company_name ILIKE $2 OR model_name ILIKE $2 OR processor ILIKE $2) ORDER BY id ASC",
			wantArgs: 2,
		},
		{
			name:     "ids use ANY",
			q:        Query{IDs: []int64{1, 2}},
			wantSQL:  "SELECT " + phoneColumns + " FROM phones WHERE id = ANY($1) ORDER BY id ASC",
			wantArgs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sqlText, args := buildFindSQL(tt.q)
			assert.Equal(t, tt.wantSQL, sqlText)
			assert.Len(t, args, tt.wantArgs)
		})
	}
}

func TestLikePattern_EscapesWildcards(t *testing.T) {
	assert.Equal(t, `%100\%\_%`, likePattern(" 100%_ "))
}

func TestPostgresStore_Find(t *testing.T) {
	store, mock := newMockStore(t)
	phones := samplePhones()

	rows := sqlmock.NewRows(phoneColumnNames)
	phoneRow(rows, phones[1])
	mock.ExpectQuery(`SELECT .* FROM phones WHERE company_name ILIKE \$1 ORDER BY user_rating DESC, id ASC LIMIT \$2`).
		WithArgs("%Samsung%", 5).
		WillReturnRows(rows)

	got, err := store.Find(context.Background(), Query{Company: "Samsung", OrderBy: []Order{Desc(FieldRating)}, Limit: 5})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Galaxy A15", got[0].ModelName)
	require.NotNil(t, got[0].LaunchedYear)
	assert.Equal(t, 2024, *got[0].LaunchedYear)
	assert.Nil(t, got[0].WeightG)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Find_DBError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .* FROM phones`).WillReturnError(errors.New("connection reset"))

	_, err := store.Find(context.Background(), Query{})
	require.Error(t, err)
	assert.Equal(t, errx.KindUpstreamUnavailable, errx.KindOf(err))
}

func TestPostgresStore_GetByID(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows(phoneColumnNames)
	phoneRow(rows, samplePhones()[2])
	mock.ExpectQuery(regexp.QuoteMeta("FROM phones WHERE id = $1")).WithArgs(int64(3)).WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("FROM phones WHERE id = $1")).WithArgs(int64(42)).WillReturnError(sql.ErrNoRows)

	p, err := store.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Apple", p.CompanyName)

	_, err = store.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ExistIDs(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM phones WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(3))

	found, err := store.ExistIDs(context.Background(), []int64{1, 3, 99})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	empty, err := store.ExistIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Aggregate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\), COALESCE\(MIN\(price_inr\), 0\)`).
		WillReturnRows(sqlmock.NewRows([]string{"c", "a", "b", "c2", "d", "e", "f", "g", "h", "i", "j"}).
			AddRow(6, 14999, 129999, 48, 200, 3349, 6000, 4, 12, 128, 256))

	st, err := store.Aggregate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, st.Total)
	assert.Equal(t, model.Range{Min: 14999, Max: 129999}, st.Price)
	assert.Equal(t, model.Range{Min: 128, Max: 256}, st.Storage)
}

func TestPostgresStore_DistinctValues(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT company_name FROM phones WHERE company_name <> '' ORDER BY company_name")).
		WillReturnRows(sqlmock.NewRows([]string{"company_name"}).AddRow("Apple").AddRow("Samsung"))

	got, err := store.DistinctValues(context.Background(), FieldCompany)
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "Samsung"}, got)

	_, err = store.DistinctValues(context.Background(), Field("user_review; --"))
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestPostgresStore_InsertPhones(t *testing.T) {
	store, mock := newMockStore(t)
	phones := samplePhones()[:2]

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO phones`)
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	n, err := store.InsertPhones(context.Background(), phones)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertPhones_RollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO phones`)
	prep.ExpectExec().WillReturnError(errors.New("check constraint"))
	mock.ExpectRollback()

	_, err := store.InsertPhones(context.Background(), samplePhones()[:1])
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MigrateAndClear(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS phones`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM phones`).WillReturnResult(sqlmock.NewResult(0, 6))

	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, store.Clear(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
