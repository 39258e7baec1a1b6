package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wheelpeek/pkg/archive"
	"github.com/matzehuels/wheelpeek/pkg/observability"
	"github.com/matzehuels/wheelpeek/pkg/pipeline"
)

// listedEntry is the JSON form of a central directory entry.
type listedEntry struct {
	Name             string `json:"name"`
	Method           string `json:"method"`
	CompressedSize   int64  `json:"compressed_size"`
	UncompressedSize int64  `json:"uncompressed_size"`
}

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list REF",
		Short: "List the entries of a wheel",
		Long: `List every entry in a wheel's central directory with its compression
method and sizes. Only the directory is transferred; no entry data is read.`,
		Example: `  wheelpeek list requests==2.31.0
  wheelpeek list --json ./dist/mypkg-0.1.0-py3-none-any.whl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := pipeline.ParseReferences(args)
			if err != nil {
				return err
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

			a, err := runner.OpenArchive(cmd.Context(), refs[0])
			if err != nil {
				return err
			}
			defer a.Close()

			entries := a.Reader.Entries()
			if asJSON {
				listed := make([]listedEntry, len(entries))
				for i, e := range entries {
					listed[i] = listedEntry{
						Name:             e.Name,
						Method:           archive.MethodName(e.Method),
						CompressedSize:   e.CompressedSize,
						UncompressedSize: e.UncompressedSize,
					}
				}
				return writeJSON(cmd.OutOrStdout(), listed, false)
			}

			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{
					e.Name,
					archive.MethodName(e.Method),
					strconv.FormatInt(e.CompressedSize, 10),
					strconv.FormatInt(e.UncompressedSize, 10),
				}
			}
			printTitle(cmd.OutOrStdout(), a.Location)
			printKeyValue(cmd.OutOrStdout(), "directory offset", strconv.FormatInt(a.Reader.DirectoryOffset(), 10))
			printTable(cmd.OutOrStdout(), []string{"NAME", "METHOD", "COMPRESSED", "SIZE"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}
