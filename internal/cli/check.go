package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/billcraft/internal/infrastructure/fileinput"
)

func newCheckCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check <bundle-file>",
		Short: "Check an invoice bundle file for problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := fileinput.Load(args[0])
			if err != nil {
				return err
			}

			warnings := fileinput.Check(bundle)
			fmt.Fprint(cmd.OutOrStdout(), renderWarnings(warnings))

			if strict && len(warnings) > 0 {
				return fmt.Errorf("%d problem(s) found", len(warnings))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when problems are found")
	return cmd
}
