package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dataviz-pro/vizx/pkg/api"
	"github.com/dataviz-pro/vizx/pkg/query"
	"github.com/spf13/cobra"
)

func newBrowseCmd() *cobra.Command {
	var (
		page    int
		limit   int
		sortBy  string
		order   string
		search  string
		filters []string
	)
	cmd := &cobra.Command{
		Use:   "browse <dataset-id>",
		Short: "Fetch one page of a dataset with sorting, search and filters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := buildBrowseQuery(page, limit, sortBy, order, search, filters)
			if err != nil {
				return err
			}

			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()
			datasetID := args[0]

			res, err := app.client.FetchPage(cmd.Context(), datasetID, q)
			if err != nil {
				return err
			}

			printPage(cmd.Context(), app, datasetID, res)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", query.DefaultLimit, "rows per page (10, 25, 50 or 100)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "column to sort by")
	cmd.Flags().StringVar(&order, "order", query.OrderAsc, "sort order (asc|desc)")
	cmd.Flags().StringVar(&search, "search", "", "free-text search")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "filter as column:operator:value (repeatable)")
	return cmd
}

// buildBrowseQuery assembles the one-shot view state from the flag
// values, rejecting inputs the server would refuse before any request is
// made.
func buildBrowseQuery(page, limit int, sortBy, order, search string, filters []string) (query.Query, error) {
	q := query.New()
	if !query.ValidLimit(limit) {
		return q, fmt.Errorf("invalid limit %d, expected one of 10, 25, 50 or 100", limit)
	}
	if sortBy != "" {
		q.UpdateSort(sortBy)
		if order == query.OrderDesc {
			q.SortOrder = query.OrderDesc
		}
	}
	if search != "" {
		q.UpdateSearch(search)
	}
	q.UpdateLimit(limit)
	for _, raw := range filters {
		f, err := parseFilter(raw)
		if err != nil {
			return q, err
		}
		q.AddFilter(f)
	}
	// Page last: every other mutation resets it.
	q.UpdatePage(page)
	return q, nil
}

// parseFilter turns "age:gt:30" into a structured filter.
func parseFilter(raw string) (query.Filter, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 {
		return query.Filter{}, fmt.Errorf("invalid filter %q, expected column:operator:value", raw)
	}
	f := query.Filter{Column: parts[0], Operator: query.Operator(parts[1]), Value: parts[2]}
	if !f.Operator.Valid() {
		return query.Filter{}, fmt.Errorf("invalid filter operator %q", parts[1])
	}
	if f.Column == "" || f.Value == "" {
		return query.Filter{}, fmt.Errorf("invalid filter %q, column and value are required", raw)
	}
	return f, nil
}

func printPage(ctx context.Context, app *appCtx, datasetID string, res *api.PageResult) {
	columns := datasetColumns(ctx, app, datasetID, res.Data)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(columns, "\t")))
	for _, row := range res.Data {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = fmt.Sprintf("%v", row[col])
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	_ = w.Flush()

	p := res.Pagination
	fmt.Printf("page %d of %d (%d rows total)\n", p.Page, p.Pages, p.Total)
}

// datasetColumns prefers the dataset's own column order and falls back to
// sorted row keys.
func datasetColumns(ctx context.Context, app *appCtx, datasetID string, rows []api.Row) []string {
	if datasets, err := app.client.ListDatasets(ctx); err == nil {
		for _, d := range datasets {
			if d.ID == datasetID {
				return d.Columns
			}
		}
	}
	if len(rows) == 0 {
		return nil
	}
	columns := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}
