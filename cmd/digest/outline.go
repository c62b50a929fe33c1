package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/digest"
	"github.com/dgallion1/docrank/internal/spans"
)

func newOutlineCmd(root *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "outline <file>",
		Short: "Extract the title and H1-H3 outline of a document",
		Long: `Classify the font sizes of a document into H1, H2 and H3 tiers and write
{title, outline} as JSON. The default destination is outline.json next to the
input file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := root.logger(cmd.ErrOrStderr())

			path := args[0]
			o, err := digest.OutlineFile(path, spans.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})
			if err != nil {
				return err
			}

			dest := out
			if dest == "" {
				dest = filepath.Join(filepath.Dir(path), "outline.json")
			}
			if err := digest.WriteJSON(dest, o); err != nil {
				return err
			}
			log.Debug("outline written", "document", path, "headings", len(o.Outline), "out", dest)
			renderOutline(cmd.OutOrStdout(), o, dest)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (default: outline.json beside the input)")
	return cmd
}
