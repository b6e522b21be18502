package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"opsdash/internal/services"
	api "opsdash/pkg/contracts/api/v1"
)

type kpisOptions struct {
	input      inputOptions
	department string
	start      string
	end        string
	sort       string
	order      string
	table      bool
}

func newKPIsCmd(root *rootOptions) *cobra.Command {
	opts := &kpisOptions{}

	cmd := &cobra.Command{
		Use:   "kpis [file]",
		Short: "Print the dashboard KPIs and rollups as JSON",
		Long: `Loads a CSV or XLSX file, applies the department and date filters and prints
the KPI summary, department rollups, daily trend and SLA summary as JSON.
Without a file the generated sample is used unless --sample=false.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKPIs(cmd, args, root, opts)
		},
	}

	opts.input.register(cmd)
	cmd.Flags().StringVar(&opts.department, "department", "", "department filter (default All)")
	cmd.Flags().StringVar(&opts.start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.end, "end", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "table sort column")
	cmd.Flags().StringVar(&opts.order, "order", "", "table sort order, asc or desc")
	cmd.Flags().BoolVar(&opts.table, "table", false, "include the filtered rows")
	return cmd
}

func runKPIs(cmd *cobra.Command, args []string, root *rootOptions, opts *kpisOptions) error {
	ctx := cmd.Context()
	r, err := newRunner(root, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := r.load(ctx, cmd, args, opts.input); err != nil {
		return err
	}

	q, err := services.ParseDashboardQuery(api.DashboardQuery{
		Department: opts.department,
		Start:      opts.start,
		End:        opts.end,
		Sort:       opts.sort,
		Order:      opts.order,
	})
	if err != nil {
		return err
	}
	q.UseSample = opts.input.sample

	dash, err := r.svc.Render(ctx, cliSession, q)
	if err != nil {
		return err
	}
	if !opts.table {
		dash.Table = nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(dash)
}
