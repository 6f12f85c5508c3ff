// clinic: типизированные обёртки над ресурсами REST API клиники.
// Ретраи, refresh и обработка 401 живут в api.Client, здесь только пути и модели.
package clinic

import (
	"context"
	"fmt"

	apierrors "github.com/pribylovaa/dental-clinic/internal/errors"
)

//go:generate mockgen -source=clinic.go -destination=../../mocks/requester.go -package=mocks

// Requester: поверхность глаголов клиента API. *api.Client её реализует.
type Requester interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// API собирает все ресурсы над одним Requester.
type API struct {
	Pacientes *Pacientes
	Turnos    *Turnos
	Historias *Historias
	Pagos     *Pagos
	Users     *Users
	Dashboard *Dashboard
}

func New(r Requester) *API {
	return &API{
		Pacientes: &Pacientes{r: r},
		Turnos:    &Turnos{r: r},
		Historias: &Historias{r: r},
		Pagos:     &Pagos{r: r},
		Users:     &Users{r: r},
		Dashboard: &Dashboard{r: r},
	}
}

// idPath: base/id для положительного id.
func idPath(base string, id int) (string, error) {
	if id <= 0 {
		return "", apierrors.Invalid("id", fmt.Sprintf("invalid id %d", id))
	}

	return fmt.Sprintf("%s/%d", base, id), nil
}
