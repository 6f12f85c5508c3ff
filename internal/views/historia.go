package views

import (
	"context"
	"errors"
	"slices"
	"sync"

	apierrors "github.com/pribylovaa/dental-clinic/internal/errors"
	"github.com/pribylovaa/dental-clinic/internal/models"
)

// ErrNoHistoria: запись нельзя добавить, пока у пациента нет истории.
var ErrNoHistoria = errors.New("no clinical history created")

// HistoriaSource: часть clinic.Historias, нужная экрану истории.
type HistoriaSource interface {
	GetByPaciente(ctx context.Context, pacienteID int) (*models.HistoriaClinica, error)
	Create(ctx context.Context, pacienteID int) (*models.HistoriaClinica, error)
	Registros(ctx context.Context, historiaID int) ([]models.HistoriaRegistro, error)
	CreateRegistro(ctx context.Context, in models.CreateRegistroRequest) (*models.HistoriaRegistro, error)
	UpdateRegistro(ctx context.Context, id int, in models.UpdateRegistroRequest) (*models.HistoriaRegistro, error)
}

// Historia: история одного пациента и её записи.
type Historia struct {
	src HistoriaSource

	mu         sync.RWMutex
	pacienteID int
	historia   *models.HistoriaClinica
	registros  []models.HistoriaRegistro
	errMsg     string
}

func NewHistoria(src HistoriaSource) *Historia {
	return &Historia{src: src}
}

// Load выбирает пациента и загружает его историю, затем записи
// (с odontologo, которого нет во вложенных registros истории).
// pacienteID <= 0 сбрасывает view.
func (h *Historia) Load(ctx context.Context, pacienteID int) error {
	h.mu.Lock()
	h.pacienteID = pacienteID
	h.historia = nil
	h.registros = nil
	h.errMsg = ""
	h.mu.Unlock()

	if pacienteID <= 0 {
		return nil
	}

	hc, err := h.src.GetByPaciente(ctx, pacienteID)
	if err != nil {
		return h.failLoad(err)
	}

	if hc == nil {
		return nil
	}

	regs, err := h.src.Registros(ctx, hc.ID)
	if err != nil {
		return h.failLoad(err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Пока шла загрузка, могли выбрать другого пациента.
	if h.pacienteID != pacienteID {
		return nil
	}

	h.historia = hc
	h.registros = regs

	return nil
}

func (h *Historia) failLoad(err error) error {
	h.mu.Lock()
	h.historia = nil
	h.registros = nil
	h.errMsg = apierrors.Message(err)
	h.mu.Unlock()

	return err
}

// Current: история или nil, если её ещё нет.
func (h *Historia) Current() *models.HistoriaClinica {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.historia
}

func (h *Historia) Registros() []models.HistoriaRegistro {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return slices.Clone(h.registros)
}

func (h *Historia) Err() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.errMsg
}

// Create заводит историю выбранному пациенту; без пациента ничего не делает.
func (h *Historia) Create(ctx context.Context) (*models.HistoriaClinica, error) {
	h.mu.RLock()
	pid := h.pacienteID
	h.mu.RUnlock()

	if pid <= 0 {
		return nil, nil
	}

	hc, err := h.src.Create(ctx, pid)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.historia = hc
	h.registros = slices.Clone(hc.Registros)
	h.mu.Unlock()

	return hc, nil
}

// AddRegistro добавляет запись в начало списка.
func (h *Historia) AddRegistro(ctx context.Context, in models.CreateRegistroRequest) (*models.HistoriaRegistro, error) {
	h.mu.RLock()
	hc := h.historia
	h.mu.RUnlock()

	if hc == nil {
		return nil, ErrNoHistoria
	}

	in.HistoriaID = hc.ID

	reg, err := h.src.CreateRegistro(ctx, in)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.registros = append([]models.HistoriaRegistro{*reg}, h.registros...)
	h.mu.Unlock()

	return reg, nil
}

func (h *Historia) UpdateRegistro(ctx context.Context, id int, in models.UpdateRegistroRequest) (*models.HistoriaRegistro, error) {
	reg, err := h.src.UpdateRegistro(ctx, id, in)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	for i := range h.registros {
		if h.registros[i].ID == id {
			h.registros[i] = *reg
		}
	}
	h.mu.Unlock()

	return reg, nil
}
