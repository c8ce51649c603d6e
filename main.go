// File: clinicbook/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"clinicbook/api"
	"clinicbook/authority"
	"clinicbook/config"
	"clinicbook/models"
	adminsvc "clinicbook/services/admin"
	"clinicbook/services/booking"
	doctorsvc "clinicbook/services/doctor"
	"clinicbook/services/schedule"
	"clinicbook/session"
	"clinicbook/utils"
)

const usage = `clinicctl - clinic appointment booking client

Usage: clinicctl <command> [flags]

Account:
  register  -name -email -password [-role patient|doctor|admin] [-specialization]
  login     -email -password
  logout
  whoami

Patient:
  services
  doctors      [-service id]
  dates        -service id -doctor id
  slots        -service id -doctor id -date YYYY-MM-DD
  book         -service id -doctor id -date YYYY-MM-DD -slot RFC3339
  appointments
  cancel       -id appointment

Doctor:
  profile
  set-services -services id,id,...
  schedule
  slot-add     -start RFC3339 -end RFC3339
  slot-delete  -index n
  patients
  record       -id appointment [-diagnosis] [-notes] [-status] [-next RFC3339]

Admin:
  admin-users
  admin-appointments
  admin-assign    -user id -services id,id,...
  service-add     -name -duration min [-fee] [-description]
  service-delete  -id

Development:
  devserver
`

// app wires the session, the API client and the role services together.
type app struct {
	session     *session.Session
	client      *api.Client
	store       *schedule.Store
	coordinator *booking.Coordinator
	doctor      *doctorsvc.Service
	admin       *adminsvc.Service
}

func newApp() *app {
	logger := utils.GetLogger()
	cfg := config.AppConfig

	sess := session.New(cfg.CredentialsFile, logger)
	sess.Hydrate()

	client := api.NewClient(cfg.APIBaseURL, sess, logger,
		api.WithTimeout(time.Duration(cfg.RequestTimeoutSec)*time.Second),
		api.WithRateLimit(cfg.MaxRequestsPerMin),
	)

	store := schedule.NewStore(client, sess, logger)
	resolver := booking.NewResolver(logger)

	return &app{
		session:     sess,
		client:      client,
		store:       store,
		coordinator: booking.NewCoordinator(client, store, resolver, sess, logger),
		doctor:      doctorsvc.NewService(client, sess, logger),
		admin:       adminsvc.NewService(client, sess, logger),
	}
}

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	command := os.Args[1]
	args := os.Args[2:]

	if command == "devserver" {
		if err := authority.New(logger).Run(config.AppConfig.DevServerAddr); err != nil {
			logger.Sugar().Fatalf("devserver failed: %v", err)
		}
		return
	}

	ctx := context.Background()
	if err := newApp().run(ctx, command, args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		name := fs.String("name", "", "full name")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		role := fs.String("role", models.RolePatient, "account role")
		spec := fs.String("specialization", "", "doctor specialization")
		fs.Parse(args)
		user, err := a.session.Register(ctx, a.client, models.RegisterRequest{
			Name: *name, Email: *email, Password: *password,
			Role: *role, Specialization: *spec,
		})
		if err != nil {
			return err
		}
		fmt.Printf("registered as %s (%s)\n", user.Name, user.Role)
		return nil

	case "login":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		fs.Parse(args)
		user, err := a.session.Login(ctx, a.client, *email, *password)
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s (%s)\n", user.Name, user.Role)
		return nil

	case "logout":
		if err := a.session.Logout(); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil

	case "whoami":
		user, ok := a.session.User()
		if !ok {
			fmt.Println("not logged in")
			return nil
		}
		fmt.Printf("%s <%s> role=%s\n", user.Name, user.Email, user.Role)
		return nil

	case "services":
		services, err := a.client.Services(ctx)
		if err != nil {
			return err
		}
		for _, s := range services {
			fmt.Printf("%s  %s (%d min, %.2f)\n", s.ID, s.Name, s.DurationMin, s.Fee)
		}
		return nil

	case "doctors":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		serviceID := fs.String("service", "", "filter by offered service id")
		fs.Parse(args)
		doctors, err := a.client.Doctors(ctx)
		if err != nil {
			return err
		}
		if *serviceID != "" {
			a.coordinator.SelectService(*serviceID)
			doctors = a.coordinator.EligibleDoctors(doctors)
		}
		for _, d := range doctors {
			fmt.Printf("%s  %s (%s)\n", d.ID, d.Name, d.Specialization)
		}
		return nil

	case "dates":
		dates, err := a.selectUpToDoctor(ctx, args, nil)
		if err != nil {
			return err
		}
		for _, d := range dates {
			fmt.Println(d)
		}
		return nil

	case "slots":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		date := fs.String("date", "", "calendar date YYYY-MM-DD")
		if _, err := a.selectUpToDoctor(ctx, args, fs); err != nil {
			return err
		}
		slots, err := a.coordinator.SelectDate(*date)
		if err != nil {
			return err
		}
		for _, s := range slots {
			fmt.Printf("%s - %s\n", s.Start, s.End)
		}
		return nil

	case "book":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		date := fs.String("date", "", "calendar date YYYY-MM-DD")
		slot := fs.String("slot", "", "slot start (RFC3339)")
		if _, err := a.selectUpToDoctor(ctx, args, fs); err != nil {
			return err
		}
		if _, err := a.coordinator.SelectDate(*date); err != nil {
			return err
		}
		if err := a.coordinator.SelectSlot(*slot); err != nil {
			return err
		}
		appt, err := a.coordinator.Submit(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("booked %s with %s at %s\n", appt.Service.Name(), appt.Doctor.Name(), appt.Start)
		return nil

	case "appointments":
		appts, err := a.coordinator.MyAppointments(ctx)
		if err != nil {
			return err
		}
		printAppointments(appts)
		return nil

	case "cancel":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		id := fs.String("id", "", "appointment id")
		fs.Parse(args)
		appts, err := a.coordinator.MyAppointments(ctx)
		if err != nil {
			return err
		}
		for _, appt := range appts {
			if appt.ID == *id {
				if err := a.coordinator.Cancel(ctx, appt); err != nil {
					return err
				}
				fmt.Println("appointment cancelled")
				return nil
			}
		}
		return fmt.Errorf("no appointment with id %q", *id)

	case "profile":
		user, err := a.doctor.Profile(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s> %s\n", user.Name, user.Email, user.Specialization)
		for _, ref := range user.Services {
			fmt.Printf("  offers %s  %s\n", ref.ID, ref.Name())
		}
		return nil

	case "set-services":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		services := fs.String("services", "", "comma-separated service ids")
		fs.Parse(args)
		user, err := a.doctor.SetServices(ctx, splitList(*services))
		if err != nil {
			return err
		}
		fmt.Printf("now offering %d services\n", len(user.Services))
		return nil

	case "schedule":
		sched, err := a.store.LoadMine(ctx)
		if err != nil {
			return err
		}
		for i, s := range sched.Slots {
			state := "free"
			if s.Booked {
				state = "booked"
			}
			fmt.Printf("[%d] %s - %s (%s)\n", i, s.Start, s.End, state)
		}
		return nil

	case "slot-add":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		start := fs.String("start", "", "slot start (RFC3339)")
		end := fs.String("end", "", "slot end (RFC3339)")
		fs.Parse(args)
		if _, err := a.store.AddSlots(ctx, []models.SlotRange{{Start: *start, End: *end}}); err != nil {
			return err
		}
		fmt.Println("slot added")
		return nil

	case "slot-delete":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		index := fs.Int("index", -1, "slot index")
		fs.Parse(args)
		sched, err := a.store.LoadMine(ctx)
		if err != nil {
			return err
		}
		if _, err := a.store.DeleteSlot(ctx, sched.ID, *index); err != nil {
			return err
		}
		fmt.Println("slot deleted")
		return nil

	case "patients":
		appts, err := a.doctor.Appointments(ctx)
		if err != nil {
			return err
		}
		printAppointments(appts)
		return nil

	case "record":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		id := fs.String("id", "", "appointment id")
		diagnosis := fs.String("diagnosis", "", "diagnosis")
		notes := fs.String("notes", "", "notes")
		status := fs.String("status", "", "booked|completed|cancelled")
		next := fs.String("next", "", "next visit (RFC3339)")
		fs.Parse(args)
		appt, err := a.doctor.UpdateAppointment(ctx, *id, models.AppointmentUpdate{
			Diagnosis: *diagnosis, Notes: *notes, Status: *status, NextVisitAt: *next,
		})
		if err != nil {
			return err
		}
		fmt.Printf("updated appointment %s (status %s)\n", appt.ID, appt.Status)
		return nil

	case "admin-users":
		users, err := a.admin.Users(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Printf("%s  %s <%s> role=%s\n", u.ID, u.Name, u.Email, u.Role)
		}
		return nil

	case "admin-appointments":
		appts, err := a.admin.Appointments(ctx)
		if err != nil {
			return err
		}
		printAppointments(appts)
		return nil

	case "admin-assign":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		userID := fs.String("user", "", "doctor user id")
		services := fs.String("services", "", "comma-separated service ids")
		fs.Parse(args)
		user, err := a.admin.AssignServices(ctx, *userID, splitList(*services))
		if err != nil {
			return err
		}
		fmt.Printf("assigned %d services to %s\n", len(user.Services), user.Name)
		return nil

	case "service-add":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		name := fs.String("name", "", "service name")
		description := fs.String("description", "", "description")
		duration := fs.Int("duration", 0, "duration in minutes")
		fee := fs.Float64("fee", 0, "fee")
		fs.Parse(args)
		svc, err := a.admin.CreateService(ctx, models.Service{
			Name: *name, Description: *description, DurationMin: *duration, Fee: *fee,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created service %s (%s)\n", svc.Name, svc.ID)
		return nil

	case "service-delete":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		id := fs.String("id", "", "service id")
		fs.Parse(args)
		if err := a.admin.DeleteService(ctx, *id); err != nil {
			return err
		}
		fmt.Println("service deleted")
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

// selectUpToDoctor parses -service and -doctor (plus any extra flags already
// registered on fs) and walks the booking funnel up to the doctor selection.
func (a *app) selectUpToDoctor(ctx context.Context, args []string, fs *flag.FlagSet) ([]string, error) {
	if fs == nil {
		fs = flag.NewFlagSet("select", flag.ExitOnError)
	}
	serviceID := fs.String("service", "", "service id")
	doctorID := fs.String("doctor", "", "doctor id")
	fs.Parse(args)

	a.coordinator.SelectService(*serviceID)
	return a.coordinator.SelectDoctor(ctx, *doctorID)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printAppointments(appts []models.Appointment) {
	for _, appt := range appts {
		line := fmt.Sprintf("%s  %s  %s  [%s]", appt.ID, appt.Start, appt.Service.Name(), appt.Status)
		if name := appt.Doctor.Name(); name != "" {
			line += "  dr: " + name
		}
		if name := appt.Patient.Name(); name != "" {
			line += "  patient: " + name
		}
		if appt.Diagnosis != "" {
			line += "  dx: " + appt.Diagnosis
		}
		fmt.Println(line)
	}
}
