package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDatasetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Manage uploaded datasets",
	}
	cmd.AddCommand(
		newDatasetsListCmd(),
		newDatasetsUploadCmd(),
		newDatasetsDeleteCmd(),
		newDatasetsStatsCmd(),
		newDatasetsInsightsCmd(),
	)
	return cmd
}

func newDatasetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List datasets visible to you",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			datasets, err := app.client.ListDatasets(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tROWS\tCOLUMNS\tSIZE\tCREATED")
			for _, d := range datasets {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
					d.ID, d.Name, d.RowCount, len(d.Columns), d.FileSize,
					d.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newDatasetsUploadCmd() *cobra.Command {
	var name, description string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a CSV or Excel file as a new dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			ds, err := app.client.UploadDataset(cmd.Context(), f, filepath.Base(path), name, description)
			if err != nil {
				return err
			}
			fmt.Printf("Uploaded %s: id=%s rows=%d columns=%d\n", ds.Name, ds.ID, ds.RowCount, len(ds.Columns))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "dataset name (defaults to the file name)")
	cmd.Flags().StringVar(&description, "description", "", "optional description")
	return cmd
}

func newDatasetsDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a dataset you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()
			id := args[0]

			// Check the role rule locally before asking the server.
			if s, ok := app.sessions.Get(); ok {
				datasets, err := app.client.ListDatasets(cmd.Context())
				if err != nil {
					return err
				}
				for _, d := range datasets {
					if d.ID == id && !d.CanDelete(s.User) {
						return fmt.Errorf("you do not have permission to delete %q", d.Name)
					}
				}
			}

			if !yes {
				fmt.Printf("Delete dataset %s? [y/N] ", id)
				line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
				if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
					fmt.Println("Aborted")
					return nil
				}
			}

			if err := app.client.DeleteDataset(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Println("Deleted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func newDatasetsStatsCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "stats [id]",
		Short: "Show column statistics for one dataset, or --all for every dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			if all {
				datasets, err := app.client.ListDatasets(cmd.Context())
				if err != nil {
					return err
				}
				ids := make([]string, 0, len(datasets))
				names := map[string]string{}
				for _, d := range datasets {
					ids = append(ids, d.ID)
					names[d.ID] = d.Name
				}
				stats, err := app.client.StatsForDatasets(cmd.Context(), ids)
				if err != nil {
					return err
				}
				for _, id := range ids {
					if s, ok := stats[id]; ok {
						fmt.Printf("%s: %d rows, %d columns, %d numeric\n",
							names[id], s.TotalRows, s.TotalColumns, len(s.NumericColumns))
					}
				}
				return nil
			}

			if len(args) != 1 {
				return fmt.Errorf("a dataset id is required unless --all is set")
			}
			s, err := app.client.Stats(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("rows: %d\ncolumns: %d\n", s.TotalRows, s.TotalColumns)
			fmt.Printf("numeric: %s\n", strings.Join(s.NumericColumns, ", "))
			fmt.Printf("categorical: %s\n", strings.Join(s.CategoricalColumns, ", "))

			cols := make([]string, 0, len(s.DataTypes))
			for col := range s.DataTypes {
				cols = append(cols, col)
			}
			sort.Strings(cols)
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COLUMN\tTYPE\tMISSING")
			for _, col := range cols {
				fmt.Fprintf(w, "%s\t%s\t%d\n", col, s.DataTypes[col], s.MissingValues[col])
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "summarize every visible dataset")
	return cmd
}

func newDatasetsInsightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights <id>",
		Short: "Show server-generated insights for a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			ins, err := app.client.Insights(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("domain: %s\n", ins.Domain)
			keys := make([]string, 0, len(ins.Insights))
			for k := range ins.Insights {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%s: %v\n", k, ins.Insights[k])
			}
			if len(ins.SuggestedCharts) > 0 {
				fmt.Println("suggested charts:")
				for _, c := range ins.SuggestedCharts {
					fmt.Printf("  %v\n", c)
				}
			}
			return nil
		},
	}
}
