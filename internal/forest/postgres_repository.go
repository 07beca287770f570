package forest

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
//
// First-write idempotency rides on a partial unique index:
//
//	CREATE UNIQUE INDEX forest_snapshots_initial_uq
//	    ON forest_snapshots (location) WHERE is_initial;
//
// so the race between concurrent first-time resolutions is settled in the
// database, and time-series appends (is_initial = FALSE) never conflict.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL snapshot repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const snapshotColumns = `
	id, location, display_name, recorded_at,
	tree_count, healthy_count, moderate_count, stressed_count, unhealthy_count,
	carbon_tons, area_ha, data_source, is_initial
`

// latestPerLocation selects the most recent snapshot for every location.
const latestPerLocation = `
	SELECT DISTINCT ON (location) ` + snapshotColumns + `
	FROM forest_snapshots
	ORDER BY location, recorded_at DESC, id DESC
`

// GetLatest retrieves the most recent snapshot for a location.
func (r *PostgresRepository) GetLatest(ctx context.Context, locationKey string) (*Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM forest_snapshots
		WHERE location = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`

	snap, err := r.scanSnapshot(r.pool.QueryRow(ctx, query, locationKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return snap, nil
}

// CreateInitial inserts the location's first snapshot if none exists.
func (r *PostgresRepository) CreateInitial(ctx context.Context, snap *Snapshot) (*Snapshot, bool, error) {
	query := `
		INSERT INTO forest_snapshots (
			location, display_name, recorded_at,
			tree_count, healthy_count, moderate_count, stressed_count, unhealthy_count,
			carbon_tons, area_ha, data_source, is_initial
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE)
		ON CONFLICT (location) WHERE is_initial DO NOTHING
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		snap.Location,
		snap.DisplayName,
		snap.RecordedAt,
		snap.TreeCount,
		snap.Counts.Healthy,
		snap.Counts.Moderate,
		snap.Counts.Stressed,
		snap.Counts.Unhealthy,
		snap.CarbonTons,
		snap.AreaHa,
		snap.DataSource,
	).Scan(&id)

	if err == nil {
		created := *snap
		created.ID = id
		created.IsInitial = true
		return &created, true, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// A racer won the insert; return its record.
	winner, err := r.getInitial(ctx, snap.Location)
	if err != nil {
		return nil, false, err
	}
	return winner, false, nil
}

// getInitial fetches the initial snapshot for a location.
func (r *PostgresRepository) getInitial(ctx context.Context, locationKey string) (*Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM forest_snapshots
		WHERE location = $1 AND is_initial
	`

	snap, err := r.scanSnapshot(r.pool.QueryRow(ctx, query, locationKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return snap, nil
}

// InsertSnapshot appends a time-series snapshot.
func (r *PostgresRepository) InsertSnapshot(ctx context.Context, snap *Snapshot) (*Snapshot, error) {
	query := `
		INSERT INTO forest_snapshots (
			location, display_name, recorded_at,
			tree_count, healthy_count, moderate_count, stressed_count, unhealthy_count,
			carbon_tons, area_ha, data_source, is_initial
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		snap.Location,
		snap.DisplayName,
		snap.RecordedAt,
		snap.TreeCount,
		snap.Counts.Healthy,
		snap.Counts.Moderate,
		snap.Counts.Stressed,
		snap.Counts.Unhealthy,
		snap.CarbonTons,
		snap.AreaHa,
		snap.DataSource,
	).Scan(&id)
	if err != nil {
		return nil, err
	}

	inserted := *snap
	inserted.ID = id
	inserted.IsInitial = false
	return &inserted, nil
}

// ListLatest returns the latest snapshot per location with sample counts.
func (r *PostgresRepository) ListLatest(ctx context.Context) ([]*LocationSummary, error) {
	query := `
		WITH latest AS (` + latestPerLocation + `),
		counts AS (
			SELECT location, COUNT(*) AS samples
			FROM forest_snapshots
			GROUP BY location
		)
		SELECT ` + prefixColumns("latest") + `, counts.samples
		FROM latest
		JOIN counts ON counts.location = latest.location
		ORDER BY latest.location
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*LocationSummary
	for rows.Next() {
		var snap Snapshot
		var samples int64
		if err := scanInto(rows, &snap, &samples); err != nil {
			return nil, err
		}
		summaries = append(summaries, &LocationSummary{Latest: &snap, SampleCount: samples})
	}
	return summaries, rows.Err()
}

// SearchLatest returns latest snapshots matching the substring query in
// either direction.
func (r *PostgresRepository) SearchLatest(ctx context.Context, query string) ([]*Snapshot, error) {
	sql := `
		WITH latest AS (` + latestPerLocation + `)
		SELECT ` + prefixColumns("latest") + `
		FROM latest
		WHERE latest.location LIKE '%' || $1 || '%'
		   OR $1 LIKE '%' || latest.location || '%'
		ORDER BY latest.location
	`

	rows, err := r.pool.Query(ctx, sql, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := scanInto(rows, &snap); err != nil {
			return nil, err
		}
		snaps = append(snaps, &snap)
	}
	return snaps, rows.Err()
}

// AggregateTotals sums the latest snapshot per location.
func (r *PostgresRepository) AggregateTotals(ctx context.Context, locationKey string) (*Totals, error) {
	sql := `
		WITH latest AS (` + latestPerLocation + `)
		SELECT
			COUNT(*),
			COALESCE(SUM(tree_count), 0),
			COALESCE(SUM(healthy_count), 0),
			COALESCE(SUM(moderate_count), 0),
			COALESCE(SUM(stressed_count), 0),
			COALESCE(SUM(unhealthy_count), 0),
			COALESCE(SUM(carbon_tons), 0),
			COALESCE(SUM(area_ha), 0)
		FROM latest
		WHERE $1 = '' OR location = $1
	`

	var t Totals
	err := r.pool.QueryRow(ctx, sql, locationKey).Scan(
		&t.Locations,
		&t.TreeCount,
		&t.Counts.Healthy,
		&t.Counts.Moderate,
		&t.Counts.Stressed,
		&t.Counts.Unhealthy,
		&t.CarbonTons,
		&t.AreaHa,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TopByCarbon returns the locations with the highest carbon tonnage.
func (r *PostgresRepository) TopByCarbon(ctx context.Context, limit int) ([]LocationCarbon, error) {
	if limit <= 0 {
		limit = 10
	}

	sql := `
		WITH latest AS (` + latestPerLocation + `)
		SELECT location, display_name, carbon_tons, tree_count
		FROM latest
		ORDER BY carbon_tons DESC, location
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var top []LocationCarbon
	for rows.Next() {
		var lc LocationCarbon
		if err := rows.Scan(&lc.Location, &lc.DisplayName, &lc.CarbonTons, &lc.TreeCount); err != nil {
			return nil, err
		}
		top = append(top, lc)
	}
	return top, rows.Err()
}

// scanSnapshot scans one snapshot row.
func (r *PostgresRepository) scanSnapshot(row pgx.Row) (*Snapshot, error) {
	var snap Snapshot
	if err := scanInto(row, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// scanInto scans the standard snapshot columns plus any trailing extras.
func scanInto(row pgx.Row, snap *Snapshot, extras ...any) error {
	dest := []any{
		&snap.ID,
		&snap.Location,
		&snap.DisplayName,
		&snap.RecordedAt,
		&snap.TreeCount,
		&snap.Counts.Healthy,
		&snap.Counts.Moderate,
		&snap.Counts.Stressed,
		&snap.Counts.Unhealthy,
		&snap.CarbonTons,
		&snap.AreaHa,
		&snap.DataSource,
		&snap.IsInitial,
	}
	dest = append(dest, extras...)
	return row.Scan(dest...)
}

// prefixColumns qualifies the snapshot column list with a table alias.
func prefixColumns(alias string) string {
	return alias + `.id, ` + alias + `.location, ` + alias + `.display_name, ` + alias + `.recorded_at,
		` + alias + `.tree_count, ` + alias + `.healthy_count, ` + alias + `.moderate_count,
		` + alias + `.stressed_count, ` + alias + `.unhealthy_count,
		` + alias + `.carbon_tons, ` + alias + `.area_ha, ` + alias + `.data_source, ` + alias + `.is_initial`
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
