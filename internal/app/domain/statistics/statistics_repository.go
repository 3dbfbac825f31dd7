package statistics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var _ StatisticsRepo = (*PostgresStatisticsRepo)(nil)

type StatisticsRepo interface {
	CountUsers(ctx context.Context) (int64, error)
	CountStartups(ctx context.Context) (int64, error)
	CountPostulacionesByEstado(ctx context.Context) (map[string]int64, error)
	CountPostulacionesByConvocatoria(ctx context.Context) (map[string]int64, error)
}

type PostgresStatisticsRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresStatisticsRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresStatisticsRepo {
	return &PostgresStatisticsRepo{logger: logger, pgpool: pgpool}
}

func (r *PostgresStatisticsRepo) CountUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users`)
}

func (r *PostgresStatisticsRepo) CountStartups(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM startups`)
}

func (r *PostgresStatisticsRepo) count(ctx context.Context, query string) (int64, error) {
	var n int64
	if err := r.pgpool.QueryRow(ctx, query).Scan(&n); err != nil {
		r.logger.Error("Error running count query", zap.Error(err))
		return 0, fmt.Errorf("database error counting rows: %w", err)
	}
	return n, nil
}

func (r *PostgresStatisticsRepo) CountPostulacionesByEstado(ctx context.Context) (map[string]int64, error) {
	query := `SELECT estado, COUNT(*) FROM postulaciones GROUP BY estado`
	return r.groupedCount(ctx, query)
}

func (r *PostgresStatisticsRepo) CountPostulacionesByConvocatoria(ctx context.Context) (map[string]int64, error) {
	query := `SELECT c.nombre, COUNT(p.id)
	          FROM convocatorias c
	          LEFT JOIN postulaciones p ON p.convocatoria_id = c.id
	          GROUP BY c.nombre`
	return r.groupedCount(ctx, query)
}

func (r *PostgresStatisticsRepo) groupedCount(ctx context.Context, query string) (map[string]int64, error) {
	rows, err := r.pgpool.Query(ctx, query)
	if err != nil {
		r.logger.Error("Error running grouped count", zap.Error(err))
		return nil, fmt.Errorf("database error counting rows: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("scanning count row: %w", err)
		}
		counts[key] = n
	}
	return counts, rows.Err()
}
