package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/atvirokodosprendimai/portafolio/internal/application"
	"github.com/atvirokodosprendimai/portafolio/internal/domain"
)

func printJSON(v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printRegistry(items []*domain.EntityDef) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.Name,
			item.Group,
			item.Endpoint,
			item.Key.Segment + "/" + strings.Join(item.Key.Fields, "/"),
			string(item.Search),
			orDash(item.View),
		})
	}
	printTable([]string{"NAME", "GROUP", "ENDPOINT", "KEY", "SEARCH", "VIEW"}, rows)
}

func printPing(items []application.PingResult) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		status := "ok"
		if !item.OK {
			status = "FAIL"
		}
		rows = append(rows, []string{
			item.Entity,
			item.Endpoint,
			status,
			strconv.Itoa(item.Rows),
			item.Elapsed.Round(time.Millisecond).String(),
			orDash(item.Error),
		})
	}
	printTable([]string{"ENTITY", "ENDPOINT", "STATUS", "ROWS", "ELAPSED", "ERROR"}, rows)
}

func printAuditEntries(items []domain.AuditEntry) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			formatTime(item.CreatedAt),
			item.Actor,
			item.Entity,
			string(item.Action),
			orDash(item.Key),
			item.Outcome,
		})
	}
	printTable([]string{"ID", "AT", "ACTOR", "ENTITY", "ACTION", "KEY", "OUTCOME"}, rows)
}

// printRecords prints backend rows with their fields as columns, in name
// order, since rows carry no schema of their own.
func printRecords(items []map[string]any) {
	seen := make(map[string]bool)
	var headers []string
	for _, item := range items {
		for k := range item {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}
	sort.Strings(headers)

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rec := domain.Record(item)
		row := make([]string, 0, len(headers))
		for _, h := range headers {
			row = append(row, orDash(rec.Text(h)))
		}
		rows = append(rows, row)
	}
	printTable(headers, rows)
}
