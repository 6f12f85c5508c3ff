package views

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pribylovaa/dental-clinic/internal/clinic"
	"github.com/pribylovaa/dental-clinic/internal/models"
)

// Dashboard: сводка и записи на сегодня.
type Dashboard struct {
	Stats models.DashboardStats
	Today []models.Turno
}

// LoadDashboard грузит сводку и записи на день now параллельно.
// Первая ошибка отменяет второй запрос.
func LoadDashboard(ctx context.Context, api *clinic.API, now time.Time) (*Dashboard, error) {
	const op = "views.LoadDashboard"

	var (
		out   Dashboard
		stats *models.DashboardStats
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		stats, err = api.Dashboard.Stats(gctx)
		return err
	})

	g.Go(func() error {
		var err error
		out.Today, err = api.Turnos.ListByDate(gctx, now.Format(clinic.DateLayout), 0)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out.Stats = *stats

	return &out, nil
}
