package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docrank/internal/app"
	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/digest"
)

type rankOptions struct {
	dataDir   string
	outputDir string
	mode      string
	topN      int
	profile   string
	provider  string
	model     string
}

func newRankCmd(root *rootOptions) *cobra.Command {
	opts := &rankOptions{}
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank the sections of a document collection",
		Long: `Read <data-dir>/input.json, rank the documents under <data-dir>/pdfs and
write <output-dir>/summary.json. Flags override the matching environment
variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			flags := cmd.Flags()
			if flags.Changed("top-n") {
				cfg.TopN = opts.topN
			}
			if flags.Changed("profile") {
				cfg.ProfilePath = opts.profile
			}
			if flags.Changed("provider") {
				cfg.EmbedProvider = opts.provider
			}
			if flags.Changed("model") {
				cfg.EmbedModel = opts.model
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			mode, err := digest.ParseMode(opts.mode)
			if err != nil {
				return err
			}

			log := root.logger(cmd.ErrOrStderr())
			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.Runner.RunDir(cmd.Context(), opts.dataDir, opts.outputDir, mode, cfg.TopN)
			if err != nil {
				return err
			}
			renderSummary(cmd.OutOrStdout(), out, filepath.Join(opts.outputDir, "summary.json"))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dataDir, "data-dir", "data", "Directory holding input.json and pdfs/")
	f.StringVar(&opts.outputDir, "output-dir", "output", "Directory to write summary.json into")
	f.StringVar(&opts.mode, "mode", string(digest.ModeSections), "Ranking unit: sections or chunks")
	f.IntVarP(&opts.topN, "top-n", "n", 10, "Number of results to keep (0 = all) [TOP_N]")
	f.StringVar(&opts.profile, "profile", "", "Domain profile YAML (default: built-in travel) [DIGEST_PROFILE]")
	f.StringVar(&opts.provider, "provider", "ollama", "Embedding provider: ollama or hash [EMBED_PROVIDER]")
	f.StringVar(&opts.model, "model", "nomic-embed-text", "Embedding model [EMBED_MODEL]")
	return cmd
}
