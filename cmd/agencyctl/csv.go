package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"agency-dashboard-backend/internal/csvio"
)

var csvCmd = &cobra.Command{
	Use:   "csv",
	Short: "Offline CSV helpers",
}

var csvNormalizeCmd = &cobra.Command{
	Use:   "normalize <file.csv | ->",
	Short: "Parse a CSV file and print it back in canonical form",
	Long: `Reads a campaign CSV file (or stdin when the argument is "-"), parses it
the way campaign import does and prints the result: trimmed fields, padded
rows, extra fields dropped and quoting only where needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runCSVNormalize,
}

func init() {
	csvCmd.AddCommand(csvNormalizeCmd)
}

func runCSVNormalize(cmd *cobra.Command, args []string) error {
	var (
		raw []byte
		err error
	)
	if args[0] == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return err
	}

	table := csvio.Parse(string(raw))
	if len(table.Headers) == 0 {
		return fmt.Errorf("%s: no header row", args[0])
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), csvio.Generate(table.Headers, table.Rows))
	return err
}
