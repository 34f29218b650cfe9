package service

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sujalbistaa/cleancook/internal/metrics"
	"github.com/sujalbistaa/cleancook/internal/models"
)

// FuelCount is one row of the fuel-type distribution.
type FuelCount struct {
	FuelType string `json:"fuel_type"`
	Count    int64  `json:"count"`
}

// Stats is the community statistics response.
type Stats struct {
	TotalStories                int64       `json:"totalStories"`
	TotalThreads                int64       `json:"totalThreads"`
	TotalComments               int64       `json:"totalComments"`
	FuelTypeDistribution        []FuelCount `json:"fuelTypeDistribution"`
	CleanFuelAdoptionPercentage int         `json:"cleanFuelAdoptionPercentage"`
	Timestamp                   time.Time   `json:"timestamp"`
}

type adoption struct {
	CleanFuelCount int64
	TotalCount     int64
}

// AdoptionPercentage is round(100*clean/total), or 0 when total is 0.
func AdoptionPercentage(clean, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(clean) / float64(total) * 100))
}

// withDefault adapts fn for an errgroup: the result lands in dst, or def when
// fn fails. The returned func never reports an error, so one failing query
// cannot cancel or fail the others.
func withDefault[T any](ctx context.Context, dst *T, def T, fn func(context.Context) (T, error), onErr func(error)) func() error {
	return func() error {
		v, err := fn(ctx)
		if err != nil {
			onErr(err)
			v = def
		}
		*dst = v
		return nil
	}
}

// Stats runs the five aggregate queries concurrently and joins them. A failed
// query contributes a zero value instead of failing the response.
func (s *Service) Stats(ctx context.Context) *Stats {
	var (
		stories, threads, comments int64
		distribution               []FuelCount
		clean                      adoption
	)

	fallback := func(metric string) func(error) {
		return func(err error) {
			s.log.WithError(err).WithField("metric", metric).Error("stats query failed, using default")
			metrics.RecordStatsFallback(metric)
		}
	}

	var g errgroup.Group
	g.Go(withDefault(ctx, &stories, 0, s.countOf(&models.Story{}), fallback("totalStories")))
	g.Go(withDefault(ctx, &threads, 0, s.countOf(&models.Thread{}), fallback("totalThreads")))
	g.Go(withDefault(ctx, &comments, 0, s.countOf(&models.Comment{}), fallback("totalComments")))
	g.Go(withDefault(ctx, &distribution, []FuelCount{}, s.fuelDistribution, fallback("fuelTypeDistribution")))
	g.Go(withDefault(ctx, &clean, adoption{}, s.cleanFuelAdoption, fallback("cleanFuelAdoption")))
	_ = g.Wait()

	return &Stats{
		TotalStories:                stories,
		TotalThreads:                threads,
		TotalComments:               comments,
		FuelTypeDistribution:        distribution,
		CleanFuelAdoptionPercentage: AdoptionPercentage(clean.CleanFuelCount, clean.TotalCount),
		Timestamp:                   time.Now().UTC(),
	}
}

func (s *Service) countOf(model interface{}) func(context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		var n int64
		err := s.db.WithContext(ctx).Model(model).Count(&n).Error
		return n, err
	}
}

func (s *Service) fuelDistribution(ctx context.Context) ([]FuelCount, error) {
	rows := []FuelCount{}
	err := s.db.WithContext(ctx).
		Model(&models.Story{}).
		Select("fuel_type, COUNT(*) AS count").
		Where("fuel_type IS NOT NULL").
		Group("fuel_type").
		Order("fuel_type").
		Scan(&rows).Error
	return rows, err
}

func (s *Service) cleanFuelAdoption(ctx context.Context) (adoption, error) {
	var a adoption
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(CASE WHEN fuel_type IN ? THEN 1 END) AS clean_fuel_count,
			COUNT(*) AS total_count
		FROM stories
		WHERE fuel_type IS NOT NULL`, models.CleanFuelTypes).
		Scan(&a).Error
	return a, err
}
