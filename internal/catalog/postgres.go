package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	errx "github.com/MobiAdvisor-core/server/internal/core/error"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

const phoneColumns = "id, company_name, model_name, processor, launched_year, user_rating, user_review, " +
	"camera_rating, battery_rating, design_rating, display_rating, performance_rating, memory_gb, weight_g, " +
	"ram_gb, front_camera_mp, back_camera_mp, battery_mah, price_inr, screen_size"

const insertPhoneSQL = "INSERT INTO phones (company_name, model_name, processor, launched_year, user_rating, user_review, " +
	"camera_rating, battery_rating, design_rating, display_rating, performance_rating, memory_gb, weight_g, " +
	"ram_gb, front_camera_mp, back_camera_mp, battery_mah, price_inr, screen_size) " +
	"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)"

// PostgresStore is the catalog backed by the phones table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the phones table and its indexes when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		logx.Error().Err(err).Msg("failed to apply catalog schema")
		return errx.WrapDB(err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, q Query) ([]model.Phone, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	query, args := buildFindSQL(q)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logx.Error().Err(err).Str("component", "catalog").Msg("find phones failed")
		return nil, errx.WrapDB(err)
	}
	defer rows.Close()

	var phones []model.Phone
	for rows.Next() {
		p, err := scanPhone(rows)
		if err != nil {
			return nil, errx.WrapDB(err)
		}
		phones = append(phones, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapDB(err)
	}
	return phones, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*model.Phone, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+phoneColumns+" FROM phones WHERE id = $1", id)
	p, err := scanPhone(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		logx.Error().Err(err).Int64("phone_id", id).Msg("get phone failed")
		return nil, errx.WrapDB(err)
	}
	return &p, nil
}

func (s *PostgresStore) ExistIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	found := make(map[int64]struct{}, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id FROM phones WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		logx.Error().Err(err).Msg("exist ids query failed")
		return nil, errx.WrapDB(err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errx.WrapDB(err)
		}
		found[id] = struct{}{}
	}
	return found, errx.WrapDB(rows.Err())
}

func (s *PostgresStore) Aggregate(ctx context.Context) (*model.CatalogStats, error) {
	const q = "SELECT COUNT(*), " +
		"COALESCE(MIN(price_inr), 0), COALESCE(MAX(price_inr), 0), " +
		"COALESCE(MIN(back_camera_mp), 0), COALESCE(MAX(back_camera_mp), 0), " +
		"COALESCE(MIN(battery_mah), 0), COALESCE(MAX(battery_mah), 0), " +
		"COALESCE(MIN(ram_gb), 0), COALESCE(MAX(ram_gb), 0), " +
		"COALESCE(MIN(memory_gb), 0), COALESCE(MAX(memory_gb), 0) FROM phones"

	var st model.CatalogStats
	err := s.db.QueryRowContext(ctx, q).Scan(
		&st.Total,
		&st.Price.Min, &st.Price.Max,
		&st.Camera.Min, &st.Camera.Max,
		&st.Battery.Min, &st.Battery.Max,
		&st.RAM.Min, &st.RAM.Max,
		&st.Storage.Min, &st.Storage.Max,
	)
	if err != nil {
		logx.Error().Err(err).Msg("aggregate catalog failed")
		return nil, errx.WrapDB(err)
	}
	return &st, nil
}

func (s *PostgresStore) DistinctValues(ctx context.Context, f Field) ([]string, error) {
	if f != FieldCompany && f != FieldModel && f != FieldProcessor {
		return nil, fmt.Errorf("%w: %q", ErrInvalidField, f)
	}
	col := string(f)
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT "+col+" FROM phones WHERE "+col+" <> '' ORDER BY "+col)
	if err != nil {
		logx.Error().Err(err).Str("field", col).Msg("distinct values failed")
		return nil, errx.WrapDB(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errx.WrapDB(err)
		}
		out = append(out, v)
	}
	return out, errx.WrapDB(rows.Err())
}

// InsertPhones writes phones in a single transaction.
func (s *PostgresStore) InsertPhones(ctx context.Context, phones []model.Phone) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errx.WrapDB(err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertPhoneSQL)
	if err != nil {
		return 0, errx.WrapDB(err)
	}
	defer stmt.Close()

	n := 0
	for _, p := range phones {
		if _, err := stmt.ExecContext(ctx,
			p.CompanyName, p.ModelName, p.Processor, nullInt(p.LaunchedYear), p.UserRating, p.UserReview,
			p.CameraRating, p.BatteryRating, p.DesignRating, p.DisplayRating, p.PerformanceRating, p.MemoryGB,
			nullFloat(p.WeightG), p.RAMGB, p.FrontCameraMP, p.BackCameraMP, p.BatteryMAH, p.PriceINR, p.ScreenSize,
		); err != nil {
			logx.Error().Err(err).Str("phone", p.DisplayName()).Msg("insert phone failed")
			return 0, errx.WrapDB(err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, errx.WrapDB(err)
	}
	return n, nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM phones"); err != nil {
		return errx.WrapDB(err)
	}
	return nil
}

// ====================== SQL helpers ======================

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(s)) + "%"
}

func buildFindSQL(q Query) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(q.IDs) > 0 {
		where = append(where, "id = ANY("+arg(pq.Array(q.IDs))+")")
	}
	if q.Company != "" {
		where = append(where, "company_name ILIKE "+arg(likePattern(q.Company)))
	}
	if q.Model != "" {
		where = append(where, "model_name ILIKE "+arg(likePattern(q.Model)))
	}
	if len(q.AnyCompany) > 0 {
		var ors []string
		for _, c := range q.AnyCompany {
			if strings.TrimSpace(c) == "" {
				continue
			}
			ors = append(ors, "company_name ILIKE "+arg(likePattern(c)))
		}
		if len(ors) > 0 {
			where = append(where, "("+strings.Join(ors, " OR ")+")")
		}
	}
	if len(q.Keywords) > 0 {
		var ors []string
		for _, kw := range q.Keywords {
			if strings.TrimSpace(kw) == "" {
				continue
			}
			p := arg(likePattern(kw))
			ors = append(ors, "company_name ILIKE "+p, "model_name ILIKE "+p)
			if q.MatchProcessor {
				ors = append(ors, "processor ILIKE "+p)
			}
		}
		if len(ors) > 0 {
			where = append(where, "("+strings.Join(ors, " OR ")+")")
		}
	}
	if q.MinPrice > 0 {
		where = append(where, "price_inr >= "+arg(q.MinPrice))
	}
	if q.MaxPrice > 0 {
		where = append(where, "price_inr <= "+arg(q.MaxPrice))
	}
	if q.MinRAM > 0 {
		where = append(where, "ram_gb >= "+arg(q.MinRAM))
	}
	if q.MinBattery > 0 {
		where = append(where, "battery_mah >= "+arg(q.MinBattery))
	}
	if q.MinCamera > 0 {
		where = append(where, "back_camera_mp >= "+arg(q.MinCamera))
	}
	if q.MinStorage > 0 {
		where = append(where, "memory_gb >= "+arg(q.MinStorage))
	}

	var b strings.Builder
	b.WriteString("SELECT " + phoneColumns + " FROM phones")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY " + orderClause(q.OrderBy))
	if q.Limit > 0 {
		b.WriteString(" LIMIT " + arg(q.Limit))
	}
	return b.String(), args
}

func orderClause(orders []Order) string {
	parts := make([]string, 0, len(orders)+1)
	hasID := false
	for _, o := range orders {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		if o.Field == FieldID {
			hasID = true
		}
		parts = append(parts, string(o.Field)+" "+dir)
	}
	if !hasID {
		parts = append(parts, "id ASC")
	}
	return strings.Join(parts, ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhone(r rowScanner) (model.Phone, error) {
	var (
		p      model.Phone
		year   sql.NullInt64
		weight sql.NullFloat64
	)
	err := r.Scan(&p.ID, &p.CompanyName, &p.ModelName, &p.Processor, &year, &p.UserRating, &p.UserReview,
		&p.CameraRating, &p.BatteryRating, &p.DesignRating, &p.DisplayRating, &p.PerformanceRating, &p.MemoryGB,
		&weight, &p.RAMGB, &p.FrontCameraMP, &p.BackCameraMP, &p.BatteryMAH, &p.PriceINR, &p.ScreenSize)
	if err != nil {
		return model.Phone{}, err
	}
	if year.Valid {
		y := int(year.Int64)
		p.LaunchedYear = &y
	}
	if weight.Valid {
		w := weight.Float64
		p.WeightG = &w
	}
	return p, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

var _ Store = (*PostgresStore)(nil)
