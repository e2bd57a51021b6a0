package main

import (
	"context"
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/flowlearn/pawfessor/apps/api/echo"
	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/course"
	"github.com/flowlearn/pawfessor/core/generator"
	"github.com/flowlearn/pawfessor/core/memory"
	"github.com/flowlearn/pawfessor/core/profile"
	aisvc "github.com/flowlearn/pawfessor/services/ai"
	emailsvc "github.com/flowlearn/pawfessor/services/email"
	logsvc "github.com/flowlearn/pawfessor/services/logger"
	"github.com/flowlearn/pawfessor/storage/database"
	inmemdb "github.com/flowlearn/pawfessor/storage/database/inmem"
	sqlxrepos "github.com/flowlearn/pawfessor/storage/database/sqlx"
)

const engineMemory = "memory"

type (
	dbLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// dbCloser releases the database; a no-op with the in-memory engine.
	dbCloser func() error

	serverParams struct {
		dig.In
		Conf         *core.Config
		Logger       core.Logger
		ProfileSvc   *profile.Service
		CourseSvc    *course.Service
		GeneratorSvc *generator.Service
		Memories     *memory.Registry
		Validate     *validator.Validate
		Translator   ut.Translator
	}
)

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger("API"), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(logsvc.NewStdLogger("DB"), conf)
}

func newStorage(conf *core.Config, loggerParam dbLoggerParam) (profile.Repository, course.Repository, dbCloser) {
	if conf.Database.Engine == engineMemory {
		loggerParam.Logger.Warn("Using the in-memory database: data is lost on exit")
		db := inmemdb.NewDB()
		return inmemdb.NewProfileRepository(db), inmemdb.NewCourseRepository(db), func() error { return nil }
	}

	setUp := func() (*sqlx.DB, error) {
		ctx := context.Background()
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return sqlxrepos.NewProfileRepository(db), sqlxrepos.NewCourseRepository(db), db.Close
}

func newProfileGetter(repo profile.Repository) course.ProfileGetter {
	return repo
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logsvc.NewStdLogger("MAIL"), logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidation() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	profile.InitValidators(validate, translator)
	return validate, translator
}

func newMemoryRegistry(conf *core.Config, logger core.Logger) *memory.Registry {
	return memory.NewRegistry(conf.Memory.Dir, logger)
}

// newGeneratorService returns nil when no AI provider is configured; generation endpoints then answer 503.
func newGeneratorService(conf *core.Config, validate *validator.Validate, logger core.Logger) *generator.Service {
	provider, err := aisvc.New(conf.AI, nil)
	if err != nil {
		logger.Warn(fmt.Sprintf("Course generation disabled: %v", err))
		return nil
	}
	return generator.NewService(provider, validate)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:         p.Conf,
		Logger:       p.Logger,
		ProfileSvc:   p.ProfileSvc,
		CourseSvc:    p.CourseSvc,
		GeneratorSvc: p.GeneratorSvc,
		Memories:     p.Memories,
		Validate:     p.Validate,
		Translator:   p.Translator,
	})
}

// newContainer returns the dependency injection dig.Container of the API.
func newContainer() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(newProfileGetter))
	must(c.Provide(newEmailService))
	must(c.Provide(newValidation))
	must(c.Provide(newMemoryRegistry))
	must(c.Provide(newGeneratorService))
	must(c.Provide(profile.NewService))
	must(c.Provide(course.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
