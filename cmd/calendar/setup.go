package main

import (
	"calendar-backend/cmd/calendar/auth"
	"calendar-backend/cmd/calendar/model"
	"calendar-backend/cmd/calendar/repository"
	"context"
	"errors"
	"flag"
	"io"
	"strings"
	"time"

	"github.com/goforj/godump"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const setupEventTitle = "Setup Test Event"

type setupUsers interface {
	CountAdmins(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, user model.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
}

type setupCountries interface {
	ListCountries(ctx context.Context) ([]model.Country, error)
}

type setupEvents interface {
	CreateEvent(ctx context.Context, event model.Event) (int64, error)
}

// setup prepares a fresh database: schema, reference data, the first
// administrator and a sample event for today.
type setup struct {
	migrate   func(ctx context.Context) error
	seeds     map[string]func(ctx context.Context) (int, error)
	users     setupUsers
	countries setupCountries
	events    setupEvents
	cfg       EnvCfg
	logger    *zap.Logger
	now       func() time.Time
}

// setupResult is what -dump prints.
type setupResult struct {
	Seeded  map[string]int
	AdminID int64
	EventID int64
}

func runSetup(ctx context.Context, db *gorm.DB, cfg EnvCfg, logger *zap.Logger, out io.Writer, args []string) error {

	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	fs.SetOutput(out)
	dump := fs.Bool("dump", false, "dump the created rows")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s := setup{
		migrate: func(ctx context.Context) error {
			return repository.Migrate(ctx, db)
		},
		seeds: map[string]func(ctx context.Context) (int, error){
			"countries": func(ctx context.Context) (int, error) {
				return repository.SeedCountries(ctx, db)
			},
			"categories": func(ctx context.Context) (int, error) {
				return repository.SeedCategories(ctx, db)
			},
		},
		users:     repository.NewUserRepo(db),
		countries: repository.NewCountryRepo(db),
		events:    repository.NewEventRepo(db),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}

	result, err := s.run(ctx)
	if err != nil {
		return err
	}

	if *dump {
		godump.Dump(result)
	}
	return nil
}

func (s setup) run(ctx context.Context) (setupResult, error) {

	result := setupResult{Seeded: map[string]int{}}

	if err := s.migrate(ctx); err != nil {
		return result, err
	}
	s.logger.Info("schema migrated")

	for _, name := range []string{"countries", "categories"} {
		n, err := s.seeds[name](ctx)
		if err != nil {
			return result, err
		}
		result.Seeded[name] = n
		s.logger.Info("reference data seeded", zap.String("table", name), zap.Int("rows", n))
	}

	adminID, err := s.ensureAdmin(ctx)
	if err != nil {
		return result, err
	}
	result.AdminID = adminID

	countries, err := s.countries.ListCountries(ctx)
	if err != nil {
		return result, err
	}
	if len(countries) == 0 {
		return result, errors.New("no countries available for the setup event")
	}

	eventID, err := s.events.CreateEvent(ctx, s.sampleEvent(countries[0].ID, adminID))
	if err != nil {
		return result, err
	}
	result.EventID = eventID
	s.logger.Info("setup event created", zap.Int64("event_id", eventID), zap.String("country", countries[0].Name))

	s.logger.Info("setup completed")
	return result, nil
}

// ensureAdmin creates the configured administrator when the database has
// none and returns the configured administrator's id, or 0 when none is
// configured.
func (s setup) ensureAdmin(ctx context.Context) (int64, error) {

	email := strings.TrimSpace(s.cfg.AdminEmail)
	if email == "" || s.cfg.AdminPassword == "" {
		s.logger.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set; skipping administrator")
		return 0, nil
	}

	admins, err := s.users.CountAdmins(ctx)
	if err != nil {
		return 0, err
	}
	if admins > 0 {
		existing, err := s.users.GetUserByEmail(ctx, email)
		if model.IsNotFound(err) {
			s.logger.Info("administrator already present")
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return existing.ID, nil
	}

	if len(s.cfg.AdminPassword) < auth.MinPasswordLength {
		return 0, errors.New("ADMIN_PASSWORD must be at least 8 characters")
	}
	hash, err := auth.HashPassword(s.cfg.AdminPassword)
	if err != nil {
		return 0, err
	}

	approvedAt := s.now()
	id, err := s.users.CreateUser(ctx, model.User{
		Name:         s.cfg.AdminName,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Status:       model.UserActive,
		ApprovedAt:   &approvedAt,
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("administrator created", zap.Int64("user_id", id), zap.String("email", email))
	return id, nil
}

func (s setup) sampleEvent(countryID, adminID int64) model.Event {
	start, end := model.NewTimeOfDay(10, 0, 0), model.NewTimeOfDay(11, 0, 0)
	draft := model.EventDraft{
		Title:       setupEventTitle,
		Description: "This is a test event created during setup",
		StartDate:   model.DateOf(s.now()),
		StartTime:   &start,
		EndTime:     &end,
		Category:    model.DefaultCategory,
		Priority:    model.PriorityMedium,
		CountryID:   &countryID,
	}
	if adminID > 0 {
		draft.CreatedBy = &adminID
	}
	return model.NewEvent(draft, s.now())
}
