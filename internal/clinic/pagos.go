package clinic

import (
	"context"
	"fmt"

	apierrors "github.com/pribylovaa/dental-clinic/internal/errors"
	"github.com/pribylovaa/dental-clinic/internal/models"
)

const pagosPath = "/pagos"

type Pagos struct{ r Requester }

func (p *Pagos) List(ctx context.Context) ([]models.Pago, error) {
	const op = "clinic.Pagos.List"

	var out []models.Pago
	if err := p.r.Get(ctx, pagosPath, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (p *Pagos) ListByPaciente(ctx context.Context, pacienteID int) ([]models.Pago, error) {
	const op = "clinic.Pagos.ListByPaciente"

	path, err := idPath(pagosPath+"/paciente", pacienteID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out []models.Pago
	if err := p.r.Get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (p *Pagos) Create(ctx context.Context, in models.CreatePagoRequest) (*models.Pago, error) {
	const op = "clinic.Pagos.Create"

	switch {
	case in.PacienteID <= 0:
		return nil, fmt.Errorf("%s: %w", op, apierrors.Invalid("pacienteId", "patient is required"))
	case in.Monto <= 0:
		return nil, fmt.Errorf("%s: %w", op, apierrors.Invalid("monto", "amount must be positive"))
	case !in.Metodo.Valid():
		return nil, fmt.Errorf("%s: %w", op, apierrors.Invalid("metodo", "unknown payment method"))
	case in.Estado != "" && !in.Estado.Valid():
		return nil, fmt.Errorf("%s: %w", op, apierrors.Invalid("estado", "unknown payment state"))
	}

	var out models.Pago
	if err := p.r.Post(ctx, pagosPath, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (p *Pagos) Update(ctx context.Context, id int, in models.UpdatePagoRequest) (*models.Pago, error) {
	const op = "clinic.Pagos.Update"

	path, err := idPath(pagosPath, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case in.Monto != nil && *in.Monto <= 0:
		return nil, fmt.Errorf("%s: %w", op, apierrors.Invalid("monto", "amount must be positive"))
	case in.Metodo != "" && !in.Metodo.Valid():
		return nil, fmt.Errorf("%s: %w", op, apierrors.Invalid("metodo", "unknown payment method"))
	case in.Estado != "" && !in.Estado.Valid():
		return nil, fmt.Errorf("%s: %w", op, apierrors.Invalid("estado", "unknown payment state"))
	}

	var out models.Pago
	if err := p.r.Patch(ctx, path, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (p *Pagos) Remove(ctx context.Context, id int) error {
	const op = "clinic.Pagos.Remove"

	path, err := idPath(pagosPath, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := p.r.Delete(ctx, path, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
