package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	apierrors "github.com/pribylovaa/dental-clinic/internal/errors"
	"github.com/pribylovaa/dental-clinic/internal/models"
	"github.com/pribylovaa/dental-clinic/internal/views"
)

// parseID: положительный числовой id из позиционного аргумента.
func parseID(field, raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apierrors.Invalid(field, field+" must be a positive integer")
	}

	return id, nil
}

func deleteCmd(cfgPath func() string, what string, remove func(ctx context.Context, a *app, id int) error) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a " + what,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, args []string) error {
			id, err := parseID("id", args[0])
			if err != nil {
				return err
			}

			if err := remove(ctx, a, id); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s %d deleted\n", what, id)
			return nil
		}),
	}
}

func pacientesCmd(cfgPath func() string) *cobra.Command {
	cmd := &cobra.Command{Use: "pacientes", Short: "Manage patients"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List patients",
		Args:  cobra.NoArgs,
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, _ []string) error {
			v := views.NewPacientes(a.clinic.Pacientes)
			if err := v.Load(ctx); err != nil {
				return err
			}

			return a.print(v.Items())
		}),
	})

	var in models.CreatePacienteRequest
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a patient",
		Args:  cobra.NoArgs,
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, _ []string) error {
			p, err := a.clinic.Pacientes.Create(ctx, in)
			if err != nil {
				return err
			}

			return a.print(p)
		}),
	}
	create.Flags().StringVar(&in.Nombre, "nombre", "", "full name")
	create.Flags().StringVar(&in.DNI, "dni", "", "national id")
	create.Flags().StringVar(&in.Telefono, "telefono", "", "phone")

	var upd models.UpdatePacienteRequest
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Update a patient",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, args []string) error {
			id, err := parseID("id", args[0])
			if err != nil {
				return err
			}

			p, err := a.clinic.Pacientes.Update(ctx, id, upd)
			if err != nil {
				return err
			}

			return a.print(p)
		}),
	}
	update.Flags().StringVar(&upd.Nombre, "nombre", "", "full name")
	update.Flags().StringVar(&upd.DNI, "dni", "", "national id")
	update.Flags().StringVar(&upd.Telefono, "telefono", "", "phone")

	cmd.AddCommand(create, update, deleteCmd(cfgPath, "paciente", func(ctx context.Context, a *app, id int) error {
		return a.clinic.Pacientes.Remove(ctx, id)
	}))

	return cmd
}

func turnosCmd(cfgPath func() string) *cobra.Command {
	cmd := &cobra.Command{Use: "turnos", Short: "Manage appointments"}

	var (
		fecha      string
		odontologo int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List upcoming appointments, or one day with --fecha",
		Args:  cobra.NoArgs,
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, _ []string) error {
			if fecha == "" {
				v := views.NewTurnos(a.clinic.Turnos)
				if err := v.Load(ctx); err != nil {
					return err
				}

				return a.print(v.Items())
			}

			out, err := a.clinic.Turnos.ListByDate(ctx, fecha, odontologo)
			if err != nil {
				return err
			}

			return a.print(out)
		}),
	}
	list.Flags().StringVar(&fecha, "fecha", "", "day, yyyy-mm-dd")
	list.Flags().IntVar(&odontologo, "odontologo", 0, "filter by dentist id (with --fecha)")

	var (
		in     models.CreateTurnoRequest
		estado string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Book an appointment",
		Args:  cobra.NoArgs,
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, _ []string) error {
			in.Estado = models.EstadoTurno(estado)

			t, err := a.clinic.Turnos.Create(ctx, in)
			if err != nil {
				return err
			}

			return a.print(t)
		}),
	}
	create.Flags().StringVar(&in.Fecha, "fecha", "", "date and time, RFC 3339")
	create.Flags().StringVar(&in.Motivo, "motivo", "", "reason")
	create.Flags().StringVar(&estado, "estado", "", "PENDIENTE, CONFIRMADO or CANCELADO")
	create.Flags().IntVar(&in.PacienteID, "paciente", 0, "patient id")
	create.Flags().IntVar(&in.OdontologoID, "odontologo", 0, "dentist id")

	var (
		upd       models.UpdateTurnoRequest
		updEstado string
		motivo    string
	)
	var update *cobra.Command
	update = &cobra.Command{
		Use:   "update ID",
		Short: "Update an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, args []string) error {
			id, err := parseID("id", args[0])
			if err != nil {
				return err
			}

			upd.Estado = models.EstadoTurno(updEstado)
			if update.Flags().Changed("motivo") {
				upd.Motivo = &motivo
			}

			t, err := a.clinic.Turnos.Update(ctx, id, upd)
			if err != nil {
				return err
			}

			return a.print(t)
		}),
	}
	update.Flags().StringVar(&upd.Fecha, "fecha", "", "date and time, RFC 3339")
	update.Flags().StringVar(&motivo, "motivo", "", "reason")
	update.Flags().StringVar(&updEstado, "estado", "", "PENDIENTE, CONFIRMADO or CANCELADO")
	update.Flags().IntVar(&upd.PacienteID, "paciente", 0, "patient id")
	update.Flags().IntVar(&upd.OdontologoID, "odontologo", 0, "dentist id")

	cmd.AddCommand(list, create, update, deleteCmd(cfgPath, "turno", func(ctx context.Context, a *app, id int) error {
		return a.clinic.Turnos.Remove(ctx, id)
	}))

	return cmd
}

func historiaCmd(cfgPath func() string) *cobra.Command {
	cmd := &cobra.Command{Use: "historia", Short: "Clinical history of a patient"}

	cmd.AddCommand(&cobra.Command{
		Use:   "show PACIENTE_ID",
		Short: "Show the history and its records",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, args []string) error {
			pid, err := parseID("pacienteId", args[0])
			if err != nil {
				return err
			}

			v := views.NewHistoria(a.clinic.Historias)
			if err := v.Load(ctx, pid); err != nil {
				return err
			}

			hc := v.Current()
			if hc == nil {
				return views.ErrNoHistoria
			}

			out := *hc
			out.Registros = v.Registros()

			return a.print(out)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create PACIENTE_ID",
		Short: "Open a clinical history",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, args []string) error {
			pid, err := parseID("pacienteId", args[0])
			if err != nil {
				return err
			}

			hc, err := a.clinic.Historias.Create(ctx, pid)
			if err != nil {
				return err
			}

			return a.print(hc)
		}),
	})

	return cmd
}

func registrosCmd(cfgPath func() string) *cobra.Command {
	cmd := &cobra.Command{Use: "registros", Short: "Clinical history records"}

	var (
		pid int
		in  models.CreateRegistroRequest
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a record to the patient's history",
		Args:  cobra.NoArgs,
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, _ []string) error {
			v := views.NewHistoria(a.clinic.Historias)
			if err := v.Load(ctx, pid); err != nil {
				return err
			}

			reg, err := v.AddRegistro(ctx, in)
			if err != nil {
				return err
			}

			return a.print(reg)
		}),
	}
	add.Flags().IntVar(&pid, "paciente", 0, "patient id")
	add.Flags().StringVar(&in.Diagnostico, "diagnostico", "", "diagnosis")
	add.Flags().StringVar(&in.Tratamiento, "tratamiento", "", "treatment")
	add.Flags().StringVar(&in.Observaciones, "observaciones", "", "notes")
	add.Flags().IntVar(&in.OdontologoID, "odontologo", 0, "dentist id")

	var upd models.UpdateRegistroRequest
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Update a record",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, args []string) error {
			id, err := parseID("id", args[0])
			if err != nil {
				return err
			}

			reg, err := a.clinic.Historias.UpdateRegistro(ctx, id, upd)
			if err != nil {
				return err
			}

			return a.print(reg)
		}),
	}
	update.Flags().StringVar(&upd.Diagnostico, "diagnostico", "", "diagnosis")
	update.Flags().StringVar(&upd.Tratamiento, "tratamiento", "", "treatment")
	update.Flags().StringVar(&upd.Observaciones, "observaciones", "", "notes")

	cmd.AddCommand(add, update)

	return cmd
}

func pagosCmd(cfgPath func() string) *cobra.Command {
	cmd := &cobra.Command{Use: "pagos", Short: "Manage payments"}

	var paciente int
	list := &cobra.Command{
		Use:   "list",
		Short: "List payments, optionally of one patient",
		Args:  cobra.NoArgs,
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, _ []string) error {
			if paciente > 0 {
				out, err := a.clinic.Pagos.ListByPaciente(ctx, paciente)
				if err != nil {
					return err
				}

				return a.print(out)
			}

			v := views.NewPagos(a.clinic.Pagos)
			if err := v.Load(ctx); err != nil {
				return err
			}

			return a.print(v.Items())
		}),
	}
	list.Flags().IntVar(&paciente, "paciente", 0, "patient id")

	var (
		in             models.CreatePagoRequest
		metodo, estado string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a payment",
		Args:  cobra.NoArgs,
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, _ []string) error {
			in.Metodo = models.MetodoPago(metodo)
			in.Estado = models.EstadoPago(estado)

			p, err := a.clinic.Pagos.Create(ctx, in)
			if err != nil {
				return err
			}

			return a.print(p)
		}),
	}
	create.Flags().IntVar(&in.PacienteID, "paciente", 0, "patient id")
	create.Flags().IntVar(&in.TurnoID, "turno", 0, "appointment id")
	create.Flags().Float64Var(&in.Monto, "monto", 0, "amount")
	create.Flags().StringVar(&metodo, "metodo", "", "EFECTIVO, TARJETA or TRANSFERENCIA")
	create.Flags().StringVar(&in.Observacion, "observacion", "", "note")
	create.Flags().StringVar(&estado, "estado", "", "PENDIENTE, PAGADO or ANULADO")

	var (
		upd                  models.UpdatePagoRequest
		monto                float64
		updMetodo, updEstado string
	)
	var update *cobra.Command
	update = &cobra.Command{
		Use:   "update ID",
		Short: "Update a payment",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, args []string) error {
			id, err := parseID("id", args[0])
			if err != nil {
				return err
			}

			if update.Flags().Changed("monto") {
				upd.Monto = &monto
			}
			upd.Metodo = models.MetodoPago(updMetodo)
			upd.Estado = models.EstadoPago(updEstado)

			p, err := a.clinic.Pagos.Update(ctx, id, upd)
			if err != nil {
				return err
			}

			return a.print(p)
		}),
	}
	update.Flags().IntVar(&upd.PacienteID, "paciente", 0, "patient id")
	update.Flags().IntVar(&upd.TurnoID, "turno", 0, "appointment id")
	update.Flags().Float64Var(&monto, "monto", 0, "amount")
	update.Flags().StringVar(&updMetodo, "metodo", "", "EFECTIVO, TARJETA or TRANSFERENCIA")
	update.Flags().StringVar(&upd.Observacion, "observacion", "", "note")
	update.Flags().StringVar(&updEstado, "estado", "", "PENDIENTE, PAGADO or ANULADO")

	cmd.AddCommand(list, create, update, deleteCmd(cfgPath, "pago", func(ctx context.Context, a *app, id int) error {
		return a.clinic.Pagos.Remove(ctx, id)
	}))

	return cmd
}

func odontologosCmd(cfgPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "odontologos",
		Short: "List dentists",
		Args:  cobra.NoArgs,
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, _ []string) error {
			out, err := a.clinic.Users.ListOdontologos(ctx)
			if err != nil {
				return err
			}

			return a.print(out)
		}),
	}
}

func dashboardCmd(cfgPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Today's summary",
		Args:  cobra.NoArgs,
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, _ []string) error {
			d, err := views.LoadDashboard(ctx, a.clinic, time.Now())
			if err != nil {
				return err
			}

			return a.print(d)
		}),
	}
}
