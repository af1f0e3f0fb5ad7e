package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dataviz-pro/vizx/pkg/api"
	"github.com/spf13/cobra"
)

func newChartCmd() *cobra.Command {
	var (
		chartType string
		xAxis     string
		yAxis     string
		groupBy   string
		aggregate string
	)
	cmd := &cobra.Command{
		Use:   "chart <dataset-id>",
		Short: "Generate a chart series for a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			cfg := api.ChartConfig{
				ChartType: api.ChartType(chartType),
				XAxis:     xAxis,
				YAxis:     yAxis,
				GroupBy:   groupBy,
				Aggregate: api.Aggregate(aggregate),
			}
			data, err := app.client.FetchChart(cmd.Context(), args[0], cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			header := "LABEL"
			for _, ds := range data.Datasets {
				if ds.Label != "" {
					header += "\t" + ds.Label
				} else {
					header += "\tVALUE"
				}
			}
			fmt.Fprintln(w, header)
			for i, label := range data.Labels {
				line := fmt.Sprintf("%v", label)
				for _, ds := range data.Datasets {
					if i < len(ds.Data) {
						line += fmt.Sprintf("\t%g", ds.Data[i])
					} else {
						line += "\t-"
					}
				}
				fmt.Fprintln(w, line)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&chartType, "type", string(api.ChartBar), "chart type (bar|line|pie|scatter)")
	cmd.Flags().StringVar(&xAxis, "x", "", "X axis column")
	cmd.Flags().StringVar(&yAxis, "y", "", "Y axis column (empty means count)")
	cmd.Flags().StringVar(&groupBy, "group-by", "", "group series by column")
	cmd.Flags().StringVar(&aggregate, "aggregate", string(api.AggCount), "aggregate (count|sum|avg|min|max)")
	_ = cmd.MarkFlagRequired("x")
	return cmd
}
