package clinic

import (
	"context"
	"errors"
	"fmt"

	apierrors "github.com/pribylovaa/dental-clinic/internal/errors"
	"github.com/pribylovaa/dental-clinic/internal/models"
)

const (
	historiasPath = "/historias-clinicas"
	registrosPath = "/historias-registros"
)

type Historias struct{ r Requester }

// GetByPaciente возвращает (nil, nil), если у пациента ещё нет истории (404).
func (h *Historias) GetByPaciente(ctx context.Context, pacienteID int) (*models.HistoriaClinica, error) {
	const op = "clinic.Historias.GetByPaciente"

	path, err := idPath(historiasPath, pacienteID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out models.HistoriaClinica
	if err := h.r.Get(ctx, path, &out); err != nil {
		if errors.Is(err, apierrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (h *Historias) Create(ctx context.Context, pacienteID int) (*models.HistoriaClinica, error) {
	const op = "clinic.Historias.Create"

	if pacienteID <= 0 {
		return nil, fmt.Errorf("%s: %w", op, apierrors.Invalid("pacienteId", "patient is required"))
	}

	var out models.HistoriaClinica
	if err := h.r.Post(ctx, historiasPath, models.CreateHistoriaRequest{PacienteID: pacienteID}, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// Registros: записи истории вместе с odontologo.
func (h *Historias) Registros(ctx context.Context, historiaID int) ([]models.HistoriaRegistro, error) {
	const op = "clinic.Historias.Registros"

	path, err := idPath(registrosPath+"/historia", historiaID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out []models.HistoriaRegistro
	if err := h.r.Get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (h *Historias) CreateRegistro(ctx context.Context, in models.CreateRegistroRequest) (*models.HistoriaRegistro, error) {
	const op = "clinic.Historias.CreateRegistro"

	switch {
	case in.HistoriaID <= 0:
		return nil, fmt.Errorf("%s: %w", op, apierrors.Invalid("historiaId", "clinical history is required"))
	case in.OdontologoID <= 0:
		return nil, fmt.Errorf("%s: %w", op, apierrors.Invalid("odontologoId", "dentist is required"))
	case in.Diagnostico == "":
		return nil, fmt.Errorf("%s: %w", op, apierrors.Invalid("diagnostico", "diagnosis is required"))
	}

	var out models.HistoriaRegistro
	if err := h.r.Post(ctx, registrosPath, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (h *Historias) UpdateRegistro(ctx context.Context, id int, in models.UpdateRegistroRequest) (*models.HistoriaRegistro, error) {
	const op = "clinic.Historias.UpdateRegistro"

	path, err := idPath(registrosPath, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out models.HistoriaRegistro
	if err := h.r.Patch(ctx, path, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}
