package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/likelion-sch/recruit/core/application"
)

// finalize records the doc or final decision of an application.
func (cli *commandLine) finalize(id int, stage, decision string) error {
	ctx := context.Background()
	d := application.Decision(strings.ToUpper(strings.TrimSpace(decision)))

	var (
		app application.Application
		err error
	)
	switch application.Stage(strings.ToLower(strings.TrimSpace(stage))) {
	case application.StageDoc:
		app, err = cli.appSvc.FinalizeDoc(ctx, id, d)
	case application.StageFinal:
		app, err = cli.appSvc.FinalizeFinal(ctx, id, d)
	default:
		return fmt.Errorf("unknown stage %q: must be doc or final", stage)
	}
	if err != nil {
		return err
	}

	c := color.New(color.FgGreen)
	if d == application.DecisionRejected {
		c = color.New(color.FgRed)
	}
	c.Fprintf(cli.out, "application #%d: doc=%s final=%s\n", app.ID, app.DocDecision, app.FinalDecision)
	return nil
}
