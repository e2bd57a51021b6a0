package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/flowlearn/pawfessor/core/generator"
	sourcesvc "github.com/flowlearn/pawfessor/services/source"
)

var generateTimeout = 2 * time.Minute

// generate asks the AI provider for an outline and prints it as JSON, without saving anything.
// The source file may be plain text, HTML, PDF or a spreadsheet.
func (cli *commandLine) generate(topic, sourceFile, level string) error {
	if cli.generatorSvc == nil {
		if cli.generatorErr == nil {
			return errors.New("course generation is not available")
		}
		return errors.Wrap(cli.generatorErr, "course generation is not available")
	}

	req := generator.Request{Topic: topic, Level: level}
	if sourceFile != "" {
		text, err := sourcesvc.ReadFile(sourceFile)
		if err != nil {
			return errors.Wrap(err, "reading source")
		}
		req.SourceText = text
	}

	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	outline, err := cli.generatorSvc.Generate(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(outline)
}
