package clinic

import (
	"context"
	"fmt"
	"strings"

	apierrors "github.com/pribylovaa/dental-clinic/internal/errors"
	"github.com/pribylovaa/dental-clinic/internal/models"
)

const pacientesPath = "/pacientes"

type Pacientes struct{ r Requester }

func (p *Pacientes) List(ctx context.Context) ([]models.Paciente, error) {
	const op = "clinic.Pacientes.List"

	var out []models.Paciente
	if err := p.r.Get(ctx, pacientesPath, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (p *Pacientes) Create(ctx context.Context, in models.CreatePacienteRequest) (*models.Paciente, error) {
	const op = "clinic.Pacientes.Create"

	if strings.TrimSpace(in.Nombre) == "" {
		return nil, fmt.Errorf("%s: %w", op, apierrors.Invalid("nombre", "name is required"))
	}

	var out models.Paciente
	if err := p.r.Post(ctx, pacientesPath, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// Update: PUT, бэкенд принимает частичное тело.
func (p *Pacientes) Update(ctx context.Context, id int, in models.UpdatePacienteRequest) (*models.Paciente, error) {
	const op = "clinic.Pacientes.Update"

	path, err := idPath(pacientesPath, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out models.Paciente
	if err := p.r.Put(ctx, path, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (p *Pacientes) Remove(ctx context.Context, id int) error {
	const op = "clinic.Pacientes.Remove"

	path, err := idPath(pacientesPath, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := p.r.Delete(ctx, path, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
