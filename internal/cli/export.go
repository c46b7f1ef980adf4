package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/billcraft/internal/application/service"
	"github.com/garyjia/billcraft/internal/container"
	"github.com/garyjia/billcraft/internal/domain/entity"
	"github.com/garyjia/billcraft/internal/infrastructure/fileinput"
	"github.com/garyjia/billcraft/internal/infrastructure/storage"
)

// Export formats
const (
	formatPDF  = "pdf"
	formatXLSX = "xlsx"
	formatHTML = "html"
)

type exportOptions struct {
	invoiceID string
	ownerID   string
	file      string
	format    string
	outDir    string
}

// artifact is one generated export, ready to be written
type artifact struct {
	invoice  entity.Invoice
	data     []byte
	filename string
	rows     []summaryRow
}

func newExportCmd(root *rootOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an invoice as PDF, XLSX or HTML",
		Long: "Export a stored invoice (--invoice with --owner) or an invoice bundle file (--file).\n" +
			"Files are written to {output_dir}/{owner}/{invoice_number}.{format}.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}

			cfg, logger, err := root.load(true)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ccfg, err := cfg.ToContainerConfig()
			if err != nil {
				return err
			}
			if opts.outDir != "" {
				ccfg.Export.OutputDir = opts.outDir
			}

			c, err := container.NewContainer(ccfg, logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if opts.file != "" {
				err = c.StartOffline(ctx)
			} else {
				err = c.Start(ctx)
			}
			if err != nil {
				return err
			}
			defer func() {
				if err := c.Close(); err != nil {
					logger.Error("Failed to close container", zap.Error(err))
				}
			}()

			art, owner, err := opts.produce(ctx, c)
			if err != nil {
				return err
			}

			path, err := c.Storage().SaveExport(ctx, storage.OwnerExportName(owner, art.filename), art.data)
			if err != nil {
				return err
			}

			rows := append([]summaryRow{{"file", path}}, art.rows...)
			fmt.Fprint(cmd.OutOrStdout(), renderSummary("Exported "+displayNumber(art.invoice), rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.invoiceID, "invoice", "", "Invoice id in the database")
	cmd.Flags().StringVar(&opts.ownerID, "owner", "", "Owning business id (required with --invoice)")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Invoice bundle file (YAML or JSON)")
	cmd.Flags().StringVar(&opts.format, "format", formatPDF, "Output format: pdf, xlsx or html")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "Output directory (overrides export.output_dir)")
	return cmd
}

func (o *exportOptions) validate() error {
	o.format = strings.ToLower(strings.TrimSpace(o.format))
	switch o.format {
	case formatPDF, formatXLSX, formatHTML:
	default:
		return fmt.Errorf("unknown format %q: use pdf, xlsx or html", o.format)
	}

	switch {
	case o.file != "" && o.invoiceID != "":
		return fmt.Errorf("--file and --invoice are mutually exclusive")
	case o.file == "" && o.invoiceID == "":
		return fmt.Errorf("one of --file or --invoice is required")
	case o.invoiceID != "" && o.ownerID == "":
		return fmt.Errorf("--owner is required with --invoice")
	}
	return nil
}

// produce generates the export and returns the owner it is filed under
func (o *exportOptions) produce(ctx context.Context, c *container.Container) (*artifact, string, error) {
	if o.file == "" {
		art, err := o.fromDatabase(ctx, c.ExportService())
		return art, o.ownerID, err
	}

	bundle, err := fileinput.Load(o.file)
	if err != nil {
		return nil, "", err
	}
	owner := o.ownerID
	if owner == "" {
		owner = bundle.Invoice.UserID
	}
	art, err := o.fromBundle(ctx, c, *bundle)
	return art, owner, err
}

func (o *exportOptions) fromDatabase(ctx context.Context, svc service.ExportService) (*artifact, error) {
	req := service.ExportRequest{OwnerID: o.ownerID, InvoiceID: o.invoiceID}

	switch o.format {
	case formatXLSX:
		wb, err := svc.ExportWorkbook(ctx, req)
		if err != nil {
			return nil, err
		}
		return &artifact{
			invoice:  entity.Invoice{InvoiceNumber: strings.TrimSuffix(wb.Filename, ".xlsx")},
			data:     wb.Bytes,
			filename: wb.Filename,
		}, nil
	case formatHTML:
		doc, err := svc.RenderHTML(ctx, req)
		if err != nil {
			return nil, err
		}
		inv := entity.Invoice{InvoiceNumber: doc.InvoiceNumber}
		return &artifact{invoice: inv, data: []byte(doc.HTML), filename: htmlFilename(inv)}, nil
	default:
		doc, err := svc.ExportPDF(ctx, req)
		if err != nil {
			return nil, err
		}
		return pdfArtifact(entity.Invoice{InvoiceNumber: doc.InvoiceNumber}, doc), nil
	}
}

func (o *exportOptions) fromBundle(ctx context.Context, c *container.Container, bundle entity.InvoiceBundle) (*artifact, error) {
	inv := bundle.Invoice
	pipeline := c.Pipeline()

	switch o.format {
	case formatXLSX:
		data, err := pipeline.Workbooks.Build(bundle)
		if err != nil {
			return nil, err
		}
		return &artifact{invoice: inv, data: data, filename: inv.WorkbookFilename()}, nil
	case formatHTML:
		doc, err := pipeline.Renderer.Render(bundle)
		if err != nil {
			return nil, err
		}
		return &artifact{invoice: inv, data: []byte(doc.HTML), filename: htmlFilename(inv)}, nil
	default:
		doc, err := c.ExportService().ExportBundle(ctx, bundle)
		if err != nil {
			return nil, err
		}
		return pdfArtifact(inv, doc), nil
	}
}

func pdfArtifact(inv entity.Invoice, doc *service.PDFDocument) *artifact {
	rows := []summaryRow{
		{"pages", fmt.Sprintf("%d", doc.Pages)},
		{"request", doc.RequestID},
	}
	if n := len(doc.Defaults); n > 0 {
		rows = append(rows, summaryRow{"defaults", warnStyle.Render(fmt.Sprintf("%d field(s) missing", n))})
	}
	if doc.TotalsMismatch {
		rows = append(rows, summaryRow{"totals", warnStyle.Render("stored total differs from computed total")})
	}
	return &artifact{invoice: inv, data: doc.Bytes, filename: doc.Filename, rows: rows}
}

func htmlFilename(inv entity.Invoice) string {
	return strings.TrimSuffix(inv.PDFFilename(), ".pdf") + ".html"
}

func displayNumber(inv entity.Invoice) string {
	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		return "invoice"
	}
	return inv.InvoiceNumber
}
