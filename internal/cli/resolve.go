package cli

import (
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wheelpeek/pkg/integrations/pypi"
	"github.com/matzehuels/wheelpeek/pkg/observability"
	"github.com/matzehuels/wheelpeek/pkg/python"
)

// resolvedWheel is the JSON form of a resolved requirement.
type resolvedWheel struct {
	Requirement    string            `json:"requirement"`
	Filename       string            `json:"filename"`
	Version        string            `json:"version"`
	Tags           string            `json:"tags"`
	URL            string            `json:"url"`
	RequiresPython string            `json:"requires_python,omitempty"`
	Hashes         map[string]string `json:"hashes,omitempty"`
}

func newResolvedWheel(req python.Requirement, c *pypi.Candidate) resolvedWheel {
	r := resolvedWheel{
		Requirement: req.String(),
		Filename:    c.File.Filename,
		Version:     c.Wheel.Version.String(),
		Tags:        c.Wheel.Tags,
		URL:         c.File.URL,
		Hashes:      c.File.Hashes,
	}
	if c.File.RequiresPython != nil {
		r.RequiresPython = *c.File.RequiresPython
	}
	return r
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve REQUIREMENT...",
		Short: "Show which wheel each requirement selects",
		Long: `Show the wheel each requirement resolves to without reading the archive.

Yanked files and files whose name is not a valid wheel filename are skipped;
the highest remaining version allowed by the constraint wins.`,
		Example: `  wheelpeek resolve requests
  wheelpeek resolve --json "django>=4,<5" flask`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs := make([]python.Requirement, 0, len(args))
			for _, arg := range args {
				req, err := python.ParseRequirement(arg)
				if err != nil {
					return err
				}
				reqs = append(reqs, req)
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), cfg, observability.Hooks{})
			if err != nil {
				return err
			}
			defer runner.Close()

			resolved := make([]resolvedWheel, 0, len(reqs))
			for _, req := range reqs {
				candidate, err := runner.Resolve(cmd.Context(), req)
				if err != nil {
					return err
				}
				resolved = append(resolved, newResolvedWheel(req, candidate))
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), resolved, false)
			}
			for i, r := range resolved {
				if i > 0 {
					io.WriteString(cmd.OutOrStdout(), "\n")
				}
				printResolved(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a summary")

	return cmd
}

func printResolved(w io.Writer, r resolvedWheel) {
	printTitle(w, r.Requirement)
	printKeyValue(w, "file", r.Filename)
	printKeyValue(w, "version", r.Version)
	printKeyValue(w, "tags", r.Tags)
	printKeyValue(w, "url", StyleLink.Render(r.URL))
	if r.RequiresPython != "" {
		printKeyValue(w, "requires-python", r.RequiresPython)
	}
	algos := make([]string, 0, len(r.Hashes))
	for algo := range r.Hashes {
		algos = append(algos, algo)
	}
	sort.Strings(algos)
	for _, algo := range algos {
		printKeyValue(w, algo, r.Hashes[algo])
	}
}
