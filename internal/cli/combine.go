package cli

import (
	"github.com/spf13/cobra"
)

// CombineCmd creates the combine command, a shorthand for run --combine-only.
// It rebuilds the combined episode from the narration texts and per-chapter
// audio of a previous run, re-measuring durations and recomputing chapter
// markers, without touching the LLM.
func CombineCmd(env *Env) *cobra.Command {
	var opts RunOptions
	opts.CombineOnly = true

	cmd := &cobra.Command{
		Use:   "combine",
		Short: "Rebuild the episode from existing per-chapter artifacts",
		Long: `Rebuild the combined episode from a previous run's artifacts.

Reads the narration texts and per-chapter MP3s from the output directory,
re-measures each chapter's duration, recomputes chapter markers, and
renders the combined script fresh. Rewrite and per-chapter rendering are
not re-run, so this is the cheap retry path after an assembly failure.`,
		Example: `  tech-talk-cast combine -o ~/casts
  tech-talk-cast combine -o ~/casts --pause-ms 1500`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), env, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "directory holding the previous run's artifacts")
	cmd.Flags().StringVar(&opts.Voice, "voice", "", "synthesis voice for the combined render")
	cmd.Flags().IntVar(&opts.Rate, "rate", 0, "speaking rate in words per minute")
	cmd.Flags().IntVar(&opts.Bitrate, "bitrate", 0, "MP3 bitrate in kbps")
	cmd.Flags().Int64Var(&opts.PauseMs, "pause-ms", 0, "silence between chapters in milliseconds")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose progress output")

	return cmd
}
