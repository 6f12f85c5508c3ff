package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type Paciente struct {
	ID        int    `json:"id"`
	Nombre    string `json:"nombre"`
	DNI       string `json:"dni"`
	Telefono  string `json:"telefono"`
	CreatedAt string `json:"createdAt"`
}

type CreatePacienteRequest struct {
	Nombre   string `json:"nombre"`
	DNI      string `json:"dni"`
	Telefono string `json:"telefono"`
}

// UpdatePacienteRequest: частичное обновление, пустые поля не отправляются.
type UpdatePacienteRequest struct {
	Nombre   string `json:"nombre,omitempty"`
	DNI      string `json:"dni,omitempty"`
	Telefono string `json:"telefono,omitempty"`
}

type EstadoTurno string

const (
	TurnoPendiente  EstadoTurno = "PENDIENTE"
	TurnoConfirmado EstadoTurno = "CONFIRMADO"
	TurnoCancelado  EstadoTurno = "CANCELADO"
)

func (e EstadoTurno) Valid() bool {
	switch e {
	case TurnoPendiente, TurnoConfirmado, TurnoCancelado:
		return true
	}

	return false
}

// Odontologo: публичные поля пользователя из /users.
type Odontologo struct {
	ID        int    `json:"id"`
	Nombre    string `json:"nombre"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"createdAt"`
}

type TurnoPaciente struct {
	ID        int     `json:"id"`
	Nombre    string  `json:"nombre"`
	DNI       string  `json:"dni"`
	Telefono  *string `json:"telefono,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

type Turno struct {
	ID           int           `json:"id"`
	Fecha        string        `json:"fecha"`
	Motivo       *string       `json:"motivo,omitempty"`
	Estado       EstadoTurno   `json:"estado"`
	PacienteID   int           `json:"pacienteId"`
	OdontologoID int           `json:"odontologoId"`
	CreatedAt    string        `json:"createdAt"`
	Paciente     TurnoPaciente `json:"paciente"`
	Odontologo   Odontologo    `json:"odontologo"`
}

// CreateTurnoRequest: если Estado пустой, бэкенд ставит PENDIENTE.
type CreateTurnoRequest struct {
	Fecha        string      `json:"fecha"`
	Motivo       string      `json:"motivo,omitempty"`
	Estado       EstadoTurno `json:"estado,omitempty"`
	PacienteID   int         `json:"pacienteId"`
	OdontologoID int         `json:"odontologoId"`
}

type UpdateTurnoRequest struct {
	Fecha        string      `json:"fecha,omitempty"`
	Motivo       *string     `json:"motivo,omitempty"`
	Estado       EstadoTurno `json:"estado,omitempty"`
	PacienteID   int         `json:"pacienteId,omitempty"`
	OdontologoID int         `json:"odontologoId,omitempty"`
}

type HistoriaClinica struct {
	ID         int                `json:"id"`
	PacienteID int                `json:"pacienteId"`
	Paciente   Paciente           `json:"paciente"`
	CreatedAt  string             `json:"createdAt"`
	Registros  []HistoriaRegistro `json:"registros"`
}

type HistoriaRegistro struct {
	ID            int        `json:"id"`
	Fecha         string     `json:"fecha"`
	Diagnostico   string     `json:"diagnostico"`
	Tratamiento   string     `json:"tratamiento"`
	Observaciones *string    `json:"observaciones,omitempty"`
	HistoriaID    int        `json:"historiaId"`
	OdontologoID  int        `json:"odontologoId"`
	Odontologo    Odontologo `json:"odontologo"`
	CreatedAt     string     `json:"createdAt"`
	UpdatedAt     string     `json:"updatedAt"`
}

type CreateHistoriaRequest struct {
	PacienteID int `json:"pacienteId"`
}

type CreateRegistroRequest struct {
	HistoriaID    int    `json:"historiaId"`
	Diagnostico   string `json:"diagnostico"`
	Tratamiento   string `json:"tratamiento"`
	Observaciones string `json:"observaciones,omitempty"`
	OdontologoID  int    `json:"odontologoId"`
}

type UpdateRegistroRequest struct {
	Diagnostico   string `json:"diagnostico,omitempty"`
	Tratamiento   string `json:"tratamiento,omitempty"`
	Observaciones string `json:"observaciones,omitempty"`
}

type MetodoPago string

const (
	PagoEfectivo      MetodoPago = "EFECTIVO"
	PagoTarjeta       MetodoPago = "TARJETA"
	PagoTransferencia MetodoPago = "TRANSFERENCIA"
)

func (m MetodoPago) Valid() bool {
	switch m {
	case PagoEfectivo, PagoTarjeta, PagoTransferencia:
		return true
	}

	return false
}

type EstadoPago string

const (
	PagoPendiente EstadoPago = "PENDIENTE"
	PagoPagado    EstadoPago = "PAGADO"
	PagoAnulado   EstadoPago = "ANULADO"
)

func (e EstadoPago) Valid() bool {
	switch e {
	case PagoPendiente, PagoPagado, PagoAnulado:
		return true
	}

	return false
}

// Decimal: десятичная сумма в текстовом виде. Prisma отдаёт Decimal
// строкой ("1500.00"), но число (1500) тоже принимается.
type Decimal string

func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*d = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Decimal(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decimal: want string or number, got %s", data)
	}
	*d = Decimal(n.String())

	return nil
}

// Pago: сумма в Monto, см. Decimal.
type Pago struct {
	ID          int        `json:"id"`
	PacienteID  int        `json:"pacienteId"`
	TurnoID     *int       `json:"turnoId,omitempty"`
	Monto       Decimal    `json:"monto"`
	Fecha       string     `json:"fecha"`
	Metodo      MetodoPago `json:"metodo"`
	Estado      EstadoPago `json:"estado"`
	Observacion *string    `json:"observacion,omitempty"`
	Paciente    Paciente   `json:"paciente"`
	Turno       *Turno     `json:"turno,omitempty"`
	CreatedAt   string     `json:"createdAt"`
	UpdatedAt   string     `json:"updatedAt"`
}

// Amount разбирает десятичную строку Monto.
func (p Pago) Amount() (float64, error) {
	v, err := strconv.ParseFloat(string(p.Monto), 64)
	if err != nil {
		return 0, fmt.Errorf("pago %d: invalid monto %q: %w", p.ID, p.Monto, err)
	}

	return v, nil
}

// CreatePagoRequest: на отправку сумма идёт числом.
type CreatePagoRequest struct {
	PacienteID  int        `json:"pacienteId"`
	TurnoID     int        `json:"turnoId"`
	Monto       float64    `json:"monto"`
	Metodo      MetodoPago `json:"metodo"`
	Observacion string     `json:"observacion,omitempty"`
	Estado      EstadoPago `json:"estado,omitempty"`
}

type UpdatePagoRequest struct {
	PacienteID  int        `json:"pacienteId,omitempty"`
	TurnoID     int        `json:"turnoId,omitempty"`
	Monto       *float64   `json:"monto,omitempty"`
	Metodo      MetodoPago `json:"metodo,omitempty"`
	Observacion string     `json:"observacion,omitempty"`
	Estado      EstadoPago `json:"estado,omitempty"`
}

type DashboardStats struct {
	TotalPacientes      int `json:"totalPacientes"`
	TurnosHoy           int `json:"turnosHoy"`
	TurnosPendientesHoy int `json:"turnosPendientesHoy"`
	TurnosFuturos       int `json:"turnosFuturos"`
}
