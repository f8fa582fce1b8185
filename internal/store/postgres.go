package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/claudiormpaes/BondTrack/pkg/dates"
	"github.com/claudiormpaes/BondTrack/pkg/models"
	"github.com/claudiormpaes/BondTrack/pkg/table"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres connects to url and ensures the schema exists.
func NewPostgres(ctx context.Context, url string, logger *zap.Logger) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	p := &Postgres{pool: pool, logger: logger}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS anbima_curves (
			reference_date date NOT NULL,
			day_count int NOT NULL,
			rate_ipca double precision,
			rate_pre double precision,
			implied_inflation double precision,
			PRIMARY KEY (reference_date, day_count)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_anbima_curves_date ON anbima_curves (reference_date)`,
		`CREATE TABLE IF NOT EXISTS snd_trades (
			reference_date date NOT NULL,
			codigo text NOT NULL,
			emissor text,
			pu_minimo double precision,
			pu_medio double precision,
			pu_maximo double precision,
			quantidade double precision,
			numero_negocios double precision,
			volume_total double precision,
			PRIMARY KEY (reference_date, codigo)
		)`,
		`CREATE TABLE IF NOT EXISTS anbima_quotes (
			reference_date date NOT NULL,
			codigo text NOT NULL,
			emissor text,
			taxa_indicativa double precision,
			taxa_compra double precision,
			taxa_venda double precision,
			pu_teorico double precision,
			duration double precision,
			PRIMARY KEY (reference_date, codigo)
		)`,
		`CREATE TABLE IF NOT EXISTS snd_registry (
			codigo_ativo text PRIMARY KEY,
			emissor text,
			indexador text,
			deb_incent text,
			data_vencimento date
		)`,
	}
	for _, s := range stmts {
		if _, err := p.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}
	return nil
}

// --- curves ---

func (p *Postgres) CurvePoints(ctx context.Context, date civil.Date) ([]models.CurvePoint, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT day_count, rate_ipca, rate_pre, implied_inflation
		FROM anbima_curves
		WHERE reference_date = $1
		ORDER BY day_count`, date.In(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("%w: querying curve: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var out []models.CurvePoint
	for rows.Next() {
		pt := models.CurvePoint{ReferenceDate: date}
		if err := rows.Scan(&pt.DayCount, &pt.RateIPCA, &pt.RatePre, &pt.ImpliedInflation); err != nil {
			return nil, fmt.Errorf("scanning curve point: %w", err)
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

func (p *Postgres) LatestCurveDate(ctx context.Context) (civil.Date, bool, error) {
	var t *time.Time
	err := p.pool.QueryRow(ctx, `SELECT MAX(reference_date) FROM anbima_curves`).Scan(&t)
	if err != nil || t == nil {
		if err != nil {
			return civil.Date{}, false, fmt.Errorf("%w: latest curve date: %v", ErrUnavailable, err)
		}
		return civil.Date{}, false, nil
	}
	return civil.DateOf(*t), true, nil
}

func (p *Postgres) UpsertCurvePoints(ctx context.Context, points []models.CurvePoint) error {
	batch := &pgx.Batch{}
	for _, pt := range points {
		batch.Queue(`
			INSERT INTO anbima_curves (reference_date, day_count, rate_ipca, rate_pre, implied_inflation)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (reference_date, day_count) DO UPDATE
			SET rate_ipca = EXCLUDED.rate_ipca,
			    rate_pre = EXCLUDED.rate_pre,
			    implied_inflation = EXCLUDED.implied_inflation`,
			pt.ReferenceDate.In(time.UTC), pt.DayCount, pt.RateIPCA, pt.RatePre, pt.ImpliedInflation)
	}
	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range points {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upserting curve points: %w", err)
		}
	}
	return nil
}

// --- market frames ---

// queryFrame runs a SELECT and converts the result set into a raw frame,
// keeping the store's column names so the normalizer can do its job.
func (p *Postgres) queryFrame(ctx context.Context, sql string, args ...any) (*table.Table, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying frame: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	t := table.New(cols...)

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("reading frame row: %w", err)
		}
		r := make(table.Row, len(cols))
		for i, c := range cols {
			r[c] = normalizeDBValue(vals[i])
		}
		t.Append(r)
	}
	return t, rows.Err()
}

// normalizeDBValue maps driver types onto the cell types table.Row supports.
func normalizeDBValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return civil.DateOf(x).String()
	case int32:
		return int(x)
	case int64:
		return int(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

func (p *Postgres) Trades(ctx context.Context, date civil.Date) (*table.Table, error) {
	return p.queryFrame(ctx, `
		SELECT codigo, emissor, pu_minimo, pu_medio, pu_maximo,
		       quantidade, numero_negocios, volume_total
		FROM snd_trades WHERE reference_date = $1`, date.In(time.UTC))
}

func (p *Postgres) Quotes(ctx context.Context, date civil.Date) (*table.Table, error) {
	return p.queryFrame(ctx, `
		SELECT codigo, emissor, taxa_indicativa, taxa_compra, taxa_venda,
		       pu_teorico, duration
		FROM anbima_quotes WHERE reference_date = $1`, date.In(time.UTC))
}

func (p *Postgres) Registry(ctx context.Context) (*table.Table, error) {
	return p.queryFrame(ctx, `
		SELECT codigo_ativo, emissor, indexador, deb_incent, data_vencimento
		FROM snd_registry`)
}

func (p *Postgres) Dates(ctx context.Context) ([]civil.Date, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT DISTINCT reference_date FROM (
			SELECT reference_date FROM snd_trades
			UNION
			SELECT reference_date FROM anbima_quotes
		) d ORDER BY reference_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying dates: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var out []civil.Date
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning date: %w", err)
		}
		out = append(out, civil.DateOf(t))
	}
	return out, rows.Err()
}

func (p *Postgres) UpsertTrades(ctx context.Context, date civil.Date, t *table.Table) error {
	return p.replaceFrame(ctx, date, t, "snd_trades",
		[]string{"codigo", "emissor", "pu_minimo", "pu_medio", "pu_maximo", "quantidade", "numero_negocios", "volume_total"})
}

func (p *Postgres) UpsertQuotes(ctx context.Context, date civil.Date, t *table.Table) error {
	return p.replaceFrame(ctx, date, t, "anbima_quotes",
		[]string{"codigo", "emissor", "taxa_indicativa", "taxa_compra", "taxa_venda", "pu_teorico", "duration"})
}

// replaceFrame rewrites the frame for one reference date in a transaction:
// delete then insert, so a re-run of the ETL is idempotent.
func (p *Postgres) replaceFrame(ctx context.Context, date civil.Date, t *table.Table, tbl string, cols []string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE reference_date = $1`, tbl), date.In(time.UTC)); err != nil {
		return fmt.Errorf("clearing %s: %w", tbl, err)
	}

	placeholders := "$1"
	for i := range cols {
		placeholders += fmt.Sprintf(", $%d", i+2)
	}
	colList := "reference_date"
	for _, c := range cols {
		colList += ", " + c
	}
	sql := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, tbl, colList, placeholders)

	for _, r := range t.Rows() {
		args := make([]any, 0, len(cols)+1)
		args = append(args, date.In(time.UTC))
		for _, c := range cols {
			args = append(args, r[c])
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("inserting into %s: %w", tbl, err)
		}
	}

	if p.logger != nil {
		p.logger.Info("frame replaced",
			zap.String("table", tbl),
			zap.String("date", date.String()),
			zap.Int("rows", t.Len()))
	}
	return tx.Commit(ctx)
}

func (p *Postgres) ReplaceRegistry(ctx context.Context, t *table.Table) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE snd_registry`); err != nil {
		return fmt.Errorf("clearing snd_registry: %w", err)
	}
	for _, r := range t.Rows() {
		_, err := tx.Exec(ctx, `
			INSERT INTO snd_registry (codigo_ativo, emissor, indexador, deb_incent, data_vencimento)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (codigo_ativo) DO UPDATE
			SET emissor = EXCLUDED.emissor,
			    indexador = EXCLUDED.indexador,
			    deb_incent = EXCLUDED.deb_incent,
			    data_vencimento = EXCLUDED.data_vencimento`,
			r["codigo_ativo"], r["emissor"], r["indexador"], r["deb_incent"], registryDate(r))
		if err != nil {
			return fmt.Errorf("inserting registry row: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// registryDate converts the registry maturity cell into a nullable date arg.
// The SND export uses dd/mm/yyyy; stored rows come back as ISO.
func registryDate(r table.Row) any {
	s := r.String("data_vencimento")
	if s == "" {
		return nil
	}
	if d, err := dates.Normalize(s); err == nil {
		return d.In(time.UTC)
	}
	return nil
}
