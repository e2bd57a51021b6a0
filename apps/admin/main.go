package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/generator"
	"github.com/flowlearn/pawfessor/core/memory"
	"github.com/flowlearn/pawfessor/core/profile"
	aisvc "github.com/flowlearn/pawfessor/services/ai"
	logsvc "github.com/flowlearn/pawfessor/services/logger"
	"github.com/flowlearn/pawfessor/storage/database"
	inmemdb "github.com/flowlearn/pawfessor/storage/database/inmem"
	sqlxrepos "github.com/flowlearn/pawfessor/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger("ADMIN"), conf)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	profile.InitValidators(validate, translator)

	cli := commandLine{
		memories: memory.NewRegistry(conf.Memory.Dir, logger),
		out:      os.Stdout,
	}

	// set up DB
	if conf.Database.Engine == "memory" {
		cli.profileSvc = profile.NewService(inmemdb.NewProfileRepository(inmemdb.NewDB()), validate)
	} else {
		db, err := database.Open(context.Background(), conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		defer db.Close()

		cli.db = db
		cli.profileSvc = profile.NewService(sqlxrepos.NewProfileRepository(db), validate)
	}

	if provider, err := aisvc.New(conf.AI, nil); err != nil {
		cli.generatorErr = err
	} else {
		cli.generatorSvc = generator.NewService(provider, validate)
	}

	// start CLI
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
