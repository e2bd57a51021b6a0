package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/flowlearn/pawfessor/core/generator"
	"github.com/flowlearn/pawfessor/core/memory"
	"github.com/flowlearn/pawfessor/core/profile"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp       = errors.New("help provided")
	errNoDatabase = errors.New("no database configured: set database.engine to postgres")
)

type commandLine struct {
	db           *sqlx.DB // nil with the in-memory engine
	profileSvc   *profile.Service
	memories     *memory.Registry
	generatorSvc *generator.Service
	generatorErr error // why generatorSvc is nil
	out          io.Writer
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) printUsage() {
	cli.printf("Usage:\n")
	cli.printf("  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, create NAME...)\n")
	cli.printf("  addprofile -name NAME -email EMAIL [-role ROLE] - create a profile; the password is prompted next\n")
	cli.printf("  setpassword -email EMAIL - reset a profile's password\n")
	cli.printf("  memory list|get|clear -user ID [-key KEY] - inspect a user's memories\n")
	cli.printf("  generate -topic TOPIC [-source FILE] [-level LEVEL] - generate a course outline\n")
}

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword() (string, error) {
	cli.printf("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cli.printf("\n")
	return string(pwd), err
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addProfileCmd := flag.NewFlagSet("addprofile", flag.ExitOnError)
	addProfileName := addProfileCmd.String("name", "", "The profile's name.")
	addProfileEmail := addProfileCmd.String("email", "", "The profile's email. The password will be prompted next.")
	addProfileRole := addProfileCmd.String("role", profile.RoleStudent, "One of student, teacher or admin.")

	setPasswordCmd := flag.NewFlagSet("setpassword", flag.ExitOnError)
	setPasswordEmail := setPasswordCmd.String("email", "", "The profile's email. The password will be prompted next.")

	memoryCmd := flag.NewFlagSet("memory", flag.ExitOnError)
	memoryUser := memoryCmd.String("user", "", "The profile ID owning the memories.")
	memoryKey := memoryCmd.String("key", "", "The memory key (get only).")

	generateCmd := flag.NewFlagSet("generate", flag.ExitOnError)
	generateTopic := generateCmd.String("topic", "", "The course topic.")
	generateSource := generateCmd.String("source", "", "A document (text, HTML, PDF or XLSX) the course is built from.")
	generateLevel := generateCmd.String("level", "", "One of beginner, intermediate or advanced.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "addprofile":
		if err := addProfileCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addProfileName == "" || *addProfileEmail == "" {
			addProfileCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addProfileCmd.Usage()
			return errHelp
		}
		return cli.addProfile(*addProfileName, *addProfileEmail, *addProfileRole, pwd)

	case "setpassword":
		if err := setPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setPasswordEmail == "" {
			setPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			setPasswordCmd.Usage()
			return errHelp
		}
		return cli.setPassword(*setPasswordEmail, pwd)

	case "memory":
		if len(args) < 3 {
			memoryCmd.Usage()
			return errHelp
		}
		action := args[2]
		if err := memoryCmd.Parse(args[3:]); err != nil {
			return err
		}
		if *memoryUser == "" {
			memoryCmd.Usage()
			return errHelp
		}
		return cli.memory(action, *memoryUser, *memoryKey)

	case "generate":
		if err := generateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *generateTopic == "" {
			generateCmd.Usage()
			return errHelp
		}
		return cli.generate(*generateTopic, *generateSource, *generateLevel)

	default:
		cli.printUsage()
		return errHelp
	}
}
