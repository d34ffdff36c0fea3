package main

import (
	"context"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/volatiletech/null/v8"

	"github.com/likelion-sch/recruit/core/application"
)

func formatAvg(avg null.Float64) string {
	if !avg.Valid {
		return "-"
	}
	return strconv.FormatFloat(avg.Float64, 'f', 2, 64)
}

func (cli *commandLine) listApplicants(filter application.QueryFilter) error {
	page, err := cli.appSvc.Query(context.Background(), filter)
	if err != nil {
		return err
	}

	color.New(color.FgCyan).Fprintf(cli.out, "\nApplicants (page %d/%d, %d total)\n", page.Page, page.TotalPages, page.Count)

	table := tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"ID", "Name", "Email", "Track", "Status", "Doc", "Interview", "Total", "Doc Decision", "Final Decision"})
	for _, a := range page.Results {
		table.Append([]string{
			strconv.Itoa(a.ID),
			a.User.Name,
			a.User.Email,
			string(a.Track),
			string(a.Status),
			formatAvg(a.DocAvg),
			formatAvg(a.InterviewAvg),
			formatAvg(a.TotalAvg),
			string(a.DocDecision),
			string(a.FinalDecision),
		})
	}
	table.Render()

	if page.HasNext {
		color.New(color.FgYellow).Fprintf(cli.out, "more results: -page %d\n", page.Page+1)
	}
	return nil
}
