package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/devs/datarecording"
	"github.com/sarchlab/devs/tracing"
)

// TraceReport is printed by the trace command.
type TraceReport struct {
	Table string `yaml:"table"`
	Total int    `yaml:"total"`
	Rows  []any  `yaml:"rows"`
}

type traceOptions struct {
	table   string
	model   string
	runID   string
	orderBy string
	limit   int
	offset  int
}

var traceTables = map[string]struct {
	name   string
	sample any
}{
	"transitions": {tracing.TransitionTable, tracing.TransitionRecord{}},
	"outputs":     {tracing.OutputTable, tracing.OutputRecord{}},
}

func newTraceCmd() *cobra.Command {
	o := &traceOptions{}

	cmd := &cobra.Command{
		Use:   "trace FILE",
		Short: "Query the traces recorded by a run.",
		Long: `Reads the transitions or the outputs recorded in a .sqlite3 ` +
			`file by "devs devstone --record" and prints them as YAML.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := o.query(cmd, args[0])
			if err != nil {
				return err
			}

			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(report)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.table, "table", "transitions", "transitions or outputs")
	flags.StringVar(&o.model, "model", "", "only rows of this model")
	flags.StringVar(&o.runID, "run", "", "only rows of this run")
	flags.StringVar(&o.orderBy, "order-by", "Time", "column to sort by")
	flags.IntVar(&o.limit, "limit", 100, "maximum number of rows, 0 for all")
	flags.IntVar(&o.offset, "offset", 0, "number of rows to skip")

	return cmd
}

func (o *traceOptions) query(cmd *cobra.Command, file string) (TraceReport, error) {
	table, ok := traceTables[o.table]
	if !ok {
		return TraceReport{}, fmt.Errorf("unknown table %q", o.table)
	}

	if _, err := os.Stat(file); err != nil {
		return TraceReport{}, err
	}

	reader, err := datarecording.NewReader(file)
	if err != nil {
		return TraceReport{}, err
	}
	defer reader.Close()

	if err := reader.MapTable(table.name, table.sample); err != nil {
		return TraceReport{}, err
	}

	params := datarecording.QueryParams{
		OrderBy: o.orderBy,
		Limit:   o.limit,
		Offset:  o.offset,
	}

	where := func(clause string, arg any) {
		if params.Where != "" {
			params.Where += " AND "
		}

		params.Where += clause
		params.Args = append(params.Args, arg)
	}

	if o.model != "" {
		where("Model = ?", o.model)
	}

	if o.runID != "" {
		where("RunID = ?", o.runID)
	}

	rows, total, err := reader.Query(cmd.Context(), table.name, params)
	if err != nil {
		return TraceReport{}, err
	}

	return TraceReport{Table: table.name, Total: total, Rows: rows}, nil
}
