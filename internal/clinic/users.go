package clinic

import (
	"context"
	"fmt"

	"github.com/pribylovaa/dental-clinic/internal/models"
)

type Users struct{ r Requester }

// List: публичные поля всех пользователей.
func (u *Users) List(ctx context.Context) ([]models.Odontologo, error) {
	const op = "clinic.Users.List"

	var out []models.Odontologo
	if err := u.r.Get(ctx, "/users", &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (u *Users) ListOdontologos(ctx context.Context) ([]models.Odontologo, error) {
	all, err := u.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Odontologo, 0, len(all))
	for _, o := range all {
		if o.Role == models.RoleOdontologo {
			out = append(out, o)
		}
	}

	return out, nil
}

type Dashboard struct{ r Requester }

func (d *Dashboard) Stats(ctx context.Context) (*models.DashboardStats, error) {
	const op = "clinic.Dashboard.Stats"

	var out models.DashboardStats
	if err := d.r.Get(ctx, "/stats/dashboard", &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}
