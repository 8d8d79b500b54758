package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/triovision/erpauth/kpi"
	"github.com/triovision/erpauth/tui"
)

func newKPICmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kpi",
		Short: "Production KPI tools",
	}
	cmd.AddCommand(newKPISummaryCmd(), newKPISearchCmd(), newKPIDashboardCmd(a))
	return cmd
}

func readSheet(path string) ([]kpi.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := kpi.ParseManpower(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func newKPISummaryCmd() *cobra.Command {
	var line, shift string
	cmd := &cobra.Command{
		Use:   "summary <manpower.csv>",
		Short: "Print efficiency, output and defect totals for a manpower sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readSheet(args[0])
			if err != nil {
				return err
			}
			rows = kpi.Filter(rows, line, shift)
			s := kpi.Summarize(rows)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "rows\t%d\n", s.Rows)
			fmt.Fprintf(w, "target hours\t%.1f\n", s.TotalTarget)
			fmt.Fprintf(w, "actual hours\t%.1f\n", s.TotalActual)
			fmt.Fprintf(w, "efficiency\t%.1f%%\n", s.Efficiency)
			fmt.Fprintf(w, "output\t%.0f\n", s.TotalOutput)
			fmt.Fprintf(w, "defect rate\t%.2f%%\n", s.DefectRate)
			fmt.Fprintf(w, "productivity\t%.1f per head\n", s.Productivity)
			if err := w.Flush(); err != nil {
				return err
			}

			trend := kpi.Trend(rows)
			if len(trend) == 0 {
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout())
			w = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "date\tefficiency\toutput")
			for _, p := range trend {
				fmt.Fprintf(w, "%s\t%.1f\t%.0f\n", p.Date, p.Efficiency, p.Output)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&line, "line", kpi.All, "production line filter")
	cmd.Flags().StringVar(&shift, "shift", kpi.All, "shift filter")
	return cmd
}

func newKPISearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the KPI catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hits := kpi.SearchCatalog(args[0])
			if len(hits) == 0 {
				return fmt.Errorf("no KPI matches %q", args[0])
			}
			for _, h := range hits {
				fmt.Fprintln(cmd.OutOrStdout(), h)
			}
			return nil
		},
	}
}

func newKPIDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard <manpower.csv>",
		Short: "Open the interactive KPI dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readSheet(args[0])
			if err != nil {
				return err
			}
			client, err := a.clientFor(cmd.Context())
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(tui.NewDashboardModel(signedInUser(client), rows), tea.WithAltScreen()).Run()
			return err
		},
	}
}
