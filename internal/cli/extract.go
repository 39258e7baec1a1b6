package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wheelpeek/pkg/observability"
	"github.com/matzehuels/wheelpeek/pkg/pipeline"
)

// extractOpts holds the command-line flags for the extract command.
type extractOpts struct {
	detailed bool // print every extraction with its source instead of the name map
	compact  bool // single-line JSON
}

// extractCommand creates the extract command.
func (c *CLI) extractCommand() *cobra.Command {
	var opts extractOpts

	cmd := &cobra.Command{
		Use:   "extract REF...",
		Short: "Print the top-level modules of each wheel as JSON",
		Long: `Print a JSON object mapping each package name to the lines of its
wheel's top_level.txt.

A REF is a requirement ("requests", "requests==2.31.0", "numpy>=1.26,<2")
resolved against the package index, or a path to a local .whl file. Only the
archive's central directory and the top_level.txt entry are transferred.

If any reference fails, nothing is printed and the command exits non-zero.`,
		Example: `  wheelpeek extract requests
  wheelpeek extract "urllib3>=2" ./dist/mypkg-0.1.0-py3-none-any.whl
  wheelpeek extract --detailed numpy==1.26.4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExtract(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include the reference and archive location of each result")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "print JSON on a single line")

	return cmd
}

func (c *CLI) runExtract(cmd *cobra.Command, args []string, opts extractOpts) error {
	ctx := cmd.Context()

	refs, err := pipeline.ParseReferences(args)
	if err != nil {
		return err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	var hooks observability.Hooks
	var spinner *Spinner
	if isTerminal(statusOut) {
		spinner = newSpinner(ctx, statusOut, "Extracting", len(refs))
		hooks.Extract = spinner
	}
	runner, err := c.newRunner(ctx, cfg, hooks)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	if spinner != nil {
		spinner.Start()
	}
	result, err := runner.Extract(ctx, refs)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	for _, e := range result.Extractions {
		if len(e.Lines) == 0 {
			c.Logger.Warn("no marker in archive", "ref", e.Ref, "source", e.Source)
		}
	}
	prog.done(fmt.Sprintf("Extracted %d references", len(refs)))

	var out any = result.Map()
	if opts.detailed {
		out = result
	}
	return writeJSON(cmd.OutOrStdout(), out, opts.compact)
}

func writeJSON(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
