// views: локальные копии серверных ресурсов для одного экрана.
// Каждый view живёт сам по себе, согласованности между view нет.
package views

import (
	"context"
	"slices"
	"strings"
	"sync"

	apierrors "github.com/pribylovaa/dental-clinic/internal/errors"
	"github.com/pribylovaa/dental-clinic/internal/models"
)

// Resource: CRUD-ресурс API с элементами T, телом создания C и обновления U.
type Resource[T, C, U any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, in C) (*T, error)
	Update(ctx context.Context, id int, in U) (*T, error)
	Remove(ctx context.Context, id int) error
}

// Placement: куда встаёт созданный элемент.
type Placement int

const (
	Append Placement = iota
	Prepend
)

// Collection: список ресурса, который меняется только после успеха на сервере.
type Collection[T, C, U any] struct {
	src   Resource[T, C, U]
	id    func(T) int
	place Placement
	// order, если задан, пересортировывает список после Create и Update.
	order func(a, b T) int

	mu     sync.RWMutex
	items  []T
	errMsg string
	loaded bool
}

func NewCollection[T, C, U any](src Resource[T, C, U], id func(T) int, place Placement, order func(a, b T) int) *Collection[T, C, U] {
	return &Collection[T, C, U]{src: src, id: id, place: place, order: order}
}

// Load перечитывает список. При ошибке список очищается, текст
// ошибки доступен через Err.
func (c *Collection[T, C, U]) Load(ctx context.Context) error {
	items, err := c.src.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.loaded = true
	if err != nil {
		c.items = nil
		c.errMsg = apierrors.Message(err)
		return err
	}

	c.items = items
	c.errMsg = ""

	return nil
}

func (c *Collection[T, C, U]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.items)
}

// Err: сообщение последней неудачной загрузки или "".
func (c *Collection[T, C, U]) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.errMsg
}

func (c *Collection[T, C, U]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.loaded
}

func (c *Collection[T, C, U]) Create(ctx context.Context, in C) (*T, error) {
	created, err := c.src.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.place == Prepend {
		c.items = append([]T{*created}, c.items...)
	} else {
		c.items = append(c.items, *created)
	}
	c.sortLocked()

	return created, nil
}

func (c *Collection[T, C, U]) Update(ctx context.Context, id int, in U) (*T, error) {
	updated, err := c.src.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.id(c.items[i]) == id {
			c.items[i] = *updated
		}
	}
	c.sortLocked()

	return updated, nil
}

func (c *Collection[T, C, U]) Delete(ctx context.Context, id int) error {
	if err := c.src.Remove(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = slices.DeleteFunc(c.items, func(it T) bool { return c.id(it) == id })

	return nil
}

func (c *Collection[T, C, U]) sortLocked() {
	if c.order != nil {
		slices.SortStableFunc(c.items, c.order)
	}
}

type (
	PacientesView = Collection[models.Paciente, models.CreatePacienteRequest, models.UpdatePacienteRequest]
	TurnosView    = Collection[models.Turno, models.CreateTurnoRequest, models.UpdateTurnoRequest]
	PagosView     = Collection[models.Pago, models.CreatePagoRequest, models.UpdatePagoRequest]
)

// NewPacientes: новые пациенты в конец списка.
func NewPacientes(src Resource[models.Paciente, models.CreatePacienteRequest, models.UpdatePacienteRequest]) *PacientesView {
	return NewCollection(src, func(p models.Paciente) int { return p.ID }, Append, nil)
}

// NewTurnos держит записи отсортированными по fecha после изменений.
func NewTurnos(src Resource[models.Turno, models.CreateTurnoRequest, models.UpdateTurnoRequest]) *TurnosView {
	return NewCollection(src, func(t models.Turno) int { return t.ID }, Append, func(a, b models.Turno) int {
		return strings.Compare(a.Fecha, b.Fecha)
	})
}

// NewPagos: последние платежи сверху.
func NewPagos(src Resource[models.Pago, models.CreatePagoRequest, models.UpdatePagoRequest]) *PagosView {
	return NewCollection(src, func(p models.Pago) int { return p.ID }, Prepend, nil)
}
