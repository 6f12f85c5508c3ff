package clinic

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	apierrors "github.com/pribylovaa/dental-clinic/internal/errors"
	"github.com/pribylovaa/dental-clinic/internal/models"
)

const (
	turnosPath = "/turnos"
	// DateLayout: формат даты в /turnos/fecha/:date.
	DateLayout = "2006-01-02"
)

type Turnos struct{ r Requester }

// List: будущие записи, фильтрует бэкенд.
func (t *Turnos) List(ctx context.Context) ([]models.Turno, error) {
	const op = "clinic.Turnos.List"

	var out []models.Turno
	if err := t.r.Get(ctx, turnosPath, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ListByDate: записи за день date (yyyy-mm-dd); odontologoID == 0 без фильтра.
func (t *Turnos) ListByDate(ctx context.Context, date string, odontologoID int) ([]models.Turno, error) {
	const op = "clinic.Turnos.ListByDate"

	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, fmt.Errorf("%s: %w", op, apierrors.Invalid("fecha", "date must be yyyy-mm-dd"))
	}

	path := turnosPath + "/fecha/" + date
	if odontologoID > 0 {
		path += "?" + url.Values{"odontologo": {strconv.Itoa(odontologoID)}}.Encode()
	}

	var out []models.Turno
	if err := t.r.Get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (t *Turnos) Create(ctx context.Context, in models.CreateTurnoRequest) (*models.Turno, error) {
	const op = "clinic.Turnos.Create"

	if err := validateTurno(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out models.Turno
	if err := t.r.Post(ctx, turnosPath, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (t *Turnos) Update(ctx context.Context, id int, in models.UpdateTurnoRequest) (*models.Turno, error) {
	const op = "clinic.Turnos.Update"

	path, err := idPath(turnosPath, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if in.Estado != "" && !in.Estado.Valid() {
		return nil, fmt.Errorf("%s: %w", op, apierrors.Invalid("estado", "unknown appointment state"))
	}

	var out models.Turno
	if err := t.r.Patch(ctx, path, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (t *Turnos) Remove(ctx context.Context, id int) error {
	const op = "clinic.Turnos.Remove"

	path, err := idPath(turnosPath, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := t.r.Delete(ctx, path, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func validateTurno(in models.CreateTurnoRequest) error {
	switch {
	case in.Fecha == "":
		return apierrors.Invalid("fecha", "date is required")
	case in.PacienteID <= 0:
		return apierrors.Invalid("pacienteId", "patient is required")
	case in.OdontologoID <= 0:
		return apierrors.Invalid("odontologoId", "dentist is required")
	case in.Estado != "" && !in.Estado.Valid():
		return apierrors.Invalid("estado", "unknown appointment state")
	}

	return nil
}
