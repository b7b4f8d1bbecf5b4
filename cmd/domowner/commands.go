// cmd/domowner/commands.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"domowner/internal/adapters/httpapi"
	"domowner/internal/adapters/output"
	"domowner/internal/core/domain"
	"domowner/internal/core/usecases"
	"domowner/internal/platform/config"
	"domowner/internal/platform/ui"
	"domowner/internal/platform/validator"
	"domowner/internal/sources/nvd"
)

func newInferCmd(c *cli) *cobra.Command {
	var (
		sample  bool
		quiet   bool
		asJSON  bool
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "infer [FILE|-]",
		Short: "Run the full pipeline on a record and print the owner",
		Example: `  domowner infer --sample
  domowner infer record.json --json
  cat record.yaml | domowner infer - -p ollama`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quiet = quiet || c.cfg.Output.Quiet
			asJSON = asJSON || c.cfg.Output.Format == "json"
			if !cmd.Flags().Changed("out") {
				outPath = c.cfg.Output.Path
			}

			record, err := readRecord(argOrStdin(args), cmd.InOrStdin(), sample)
			if err != nil {
				return err
			}

			presenter := ui.Presenter(ui.NewNoopPresenter())
			if !quiet && !asJSON {
				presenter = ui.NewPTermPresenterTo(cmd.ErrOrStderr(), isTerminal(cmd.ErrOrStderr()))
			}
			defer presenter.Close()

			a, err := buildApp(cmd.Context(), c.cfg, c.logger, buildOptions{withInference: true, presenter: presenter})
			if err != nil {
				return err
			}
			defer a.Close()

			report, runErr := a.pipeline.Run(cmd.Context(), record)
			if report == nil {
				return runErr
			}
			report.Answer = withProvider(report.Answer, c.cfg.Inference.Provider, c.cfg.Inference.Model)

			opts := exportOptions(c.cfg, outPath)
			if outPath != "" {
				if err := output.NewJSONExporter().Export(report, opts); err != nil {
					return fmt.Errorf("json output: %w", err)
				}
				c.logger.Info("report written", "path", outPath)
			}

			stdout := cmd.OutOrStdout()
			switch {
			case asJSON:
				opts.OutputPath = ""
				if err := output.NewJSONExporterTo(stdout).Export(report, opts); err != nil {
					return fmt.Errorf("json output: %w", err)
				}
			case quiet:
				printAnswer(stdout, report)
			default:
				opts.IncludeContext = false
				if err := output.NewTableExporterTo(stdout).Export(report, opts); err != nil {
					return fmt.Errorf("table output: %w", err)
				}
			}
			return runErr
		},
	}

	f := cmd.Flags()
	f.BoolVar(&sample, "sample", false, "Use the built-in org:github/azure record")
	f.BoolVarP(&quiet, "quiet", "q", false, "Print only the domains and the answer")
	f.BoolVar(&asJSON, "json", false, "Print the full report as JSON")
	f.StringVarP(&outPath, "out", "o", "", "Also write the JSON report to this file or directory")
	return cmd
}

func newExtractCmd(c *cli) *cobra.Command {
	var (
		asJSON    bool
		noExclude bool
	)

	cmd := &cobra.Command{
		Use:   "extract [FILE|-]",
		Short: "Print the registrable domains found in a record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := readRecord(argOrStdin(args), cmd.InOrStdin(), false)
			if err != nil {
				return err
			}

			var ex usecases.Excluder
			if !noExclude {
				ex = usecases.NewExclusionPolicy(c.cfg.Exclusions).Excludes
			}
			ext := usecases.Extract(record, ex)

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), ext, c.cfg.Output.Pretty)
			}
			writeExtraction(cmd.OutOrStdout(), ext)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().BoolVar(&noExclude, "no-exclude", false, "Do not apply the exclusion rules")
	return cmd
}

func newWhoisCmd(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whois DOMAIN...",
		Short: "Look up domains with the configured WHOIS backend",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domains := make([]domain.CanonicalDomain, 0, len(args))
			for _, arg := range args {
				d, ok := usecases.RegistrableDomain(arg)
				if !ok {
					return usageErr(fmt.Errorf("%q is not a registrable domain", arg))
				}
				domains = append(domains, d)
			}

			a, err := buildApp(cmd.Context(), c.cfg, c.logger, buildOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.resolver.Resolve(cmd.Context(), domains)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res, c.cfg.Output.Pretty)
			}
			for _, e := range res.Entries() {
				fmt.Fprintf(cmd.OutOrStdout(), "== %s (%s) ==\n%s\n\n", e.Domain, a.resolver.Backend(), strings.TrimSpace(e.Response))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newServeCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := c.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}

			a, err := buildApp(cmd.Context(), cfg, c.logger, buildOptions{withInference: true, runtimeMetrics: true})
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := httpapi.New(httpapi.Options{
				Config:   cfg.Server,
				Pipeline: a.pipeline,
				Resolver: a.resolver,
				Excluder: a.excluder,
				CVE:      newNVD(c),
				Logger:   c.logger,
				Metrics:  a.metrics,
				Version:  version,
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func newCVECmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "cve CVE-ID",
		Short: "Fetch a CVE record from the NVD API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.ToUpper(strings.TrimSpace(args[0]))
			if !validator.IsCVEID(id) {
				return usageErr(fmt.Errorf("%w: %q", domain.ErrInvalidCVE, args[0]))
			}

			body, err := newNVD(c).Lookup(cmd.Context(), id)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := json.Indent(&buf, body, "", "  "); err != nil {
				return err
			}
			buf.WriteByte('\n')
			_, err = buf.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// sin config: version debe funcionar aunque la configuración sea inválida
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			config.PrintVersion(cmd.OutOrStdout(), buildInfo())
		},
	}
}

func newConfigCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration (secrets masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.cfg.ToYAML()
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
}

func newNVD(c *cli) *nvd.Client {
	return nvd.New(nvd.Config{
		BaseURL:   c.cfg.NVD.BaseURL,
		APIKey:    c.cfg.NVD.APIKey,
		Timeout:   c.cfg.NVD.Timeout,
		UserAgent: userAgent(),
	}, c.logger)
}

func argOrStdin(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func withProvider(a *domain.AnswerResult, provider, model string) *domain.AnswerResult {
	if a == nil {
		return nil
	}
	if a.Provider == "" {
		a.Provider = provider
	}
	if a.Model == "" {
		a.Model = model
	}
	return a
}

// printAnswer: una línea con los dominios y otra con la respuesta.
func printAnswer(w io.Writer, report *domain.Report) {
	fmt.Fprintf(w, "domains: %s\n", strings.Join(report.DomainStrings(), ", "))
	if report.Answer == nil {
		fmt.Fprintf(w, "error: %s\n", report.Error)
		return
	}
	fmt.Fprintf(w, "answer: %s (score %.4f, span %d-%d)\n",
		report.Answer.Answer, report.Answer.Score, report.Answer.Start, report.Answer.End)
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json output: %w", err)
	}
	return nil
}
