package statistics

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/impulsalab/convoca/internal/app/models"
)

var _ StatisticsService = (*StatisticsServiceImpl)(nil)

type StatisticsService interface {
	// Summary gathers the dashboard counters, fanning the queries out in
	// parallel.
	Summary(ctx context.Context) (*models.Statistics, error)
}

type StatisticsServiceImpl struct {
	logger *zap.Logger
	repo   StatisticsRepo
}

func NewStatisticsService(repo StatisticsRepo, logger *zap.Logger) *StatisticsServiceImpl {
	return &StatisticsServiceImpl{logger: logger, repo: repo}
}

func (s *StatisticsServiceImpl) Summary(ctx context.Context) (*models.Statistics, error) {
	var stats models.Statistics

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.CountUsers(gctx)
		stats.TotalUsuarios = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountStartups(gctx)
		stats.TotalStartups = n
		return err
	})
	g.Go(func() error {
		counts, err := s.repo.CountPostulacionesByEstado(gctx)
		stats.PostulacionesEstado = counts
		return err
	})
	g.Go(func() error {
		counts, err := s.repo.CountPostulacionesByConvocatoria(gctx)
		stats.PorConvocatoria = counts
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("Statistics gathering failed", zap.Error(err))
		return nil, err
	}
	return &stats, nil
}
