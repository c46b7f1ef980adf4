package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/garyjia/billcraft/internal/infrastructure/fileinput"
	"github.com/garyjia/billcraft/internal/invoice/render"
)

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var (
		output  string
		variant string
	)

	cmd := &cobra.Command{
		Use:   "render <bundle-file>",
		Short: "Render an invoice bundle to HTML without a browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			if variant == "" {
				variant = cfg.Render.Variant
			}
			v, err := render.ParseVariant(variant)
			if err != nil {
				return err
			}

			bundle, err := fileinput.Load(args[0])
			if err != nil {
				return err
			}

			doc, err := render.NewRenderer(render.Options{
				Variant:        v,
				CurrencySymbol: cfg.Render.CurrencySymbol,
			}).Render(*bundle)
			if err != nil {
				return fmt.Errorf("rendering failed: %w", err)
			}

			if output == "" || output == "-" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), doc.HTML)
				return err
			}
			if err := os.WriteFile(output, []byte(doc.HTML), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprint(cmd.ErrOrStderr(), renderSummary("Rendered "+doc.InvoiceNumber, []summaryRow{
				{"file", output},
				{"height", fmt.Sprintf("~%dpx", doc.Height)},
				{"defaults", fmt.Sprintf("%d", len(doc.Defaults))},
			}))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write HTML to this file instead of stdout")
	cmd.Flags().StringVar(&variant, "variant", "", "Document variant: basic, standard or detailed")
	return cmd
}
