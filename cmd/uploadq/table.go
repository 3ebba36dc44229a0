package main

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"uploadq/internal/queue"
)

func renderResults(tasks []queue.Task) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Name", "Size", "Status", "Retries", "Duration", "Error"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	now := time.Now().UTC()
	for _, task := range tasks {
		duration := ""
		if d := task.Duration(now); d > 0 {
			duration = d.Round(time.Millisecond).String()
		}
		tw.AppendRow(table.Row{
			task.Name,
			humanize.Bytes(uint64(task.Size)),
			strings.ToUpper(string(task.Status)),
			task.RetryCount,
			duration,
			task.ErrorMessage,
		})
	}
	return tw.Render()
}
