package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jvmcov/jvmcov/pkg/atomicfs"
	"github.com/jvmcov/jvmcov/pkg/execdata"
)

var (
	mergeOutput string

	mergeCmd = &cobra.Command{
		Use:   "merge <exec-file>...",
		Short: "Merge execution data files into one",
		Long: `Merge loads every input file into a single store, combining probe
arrays of matching classes, and writes the result atomically to the
output file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			logger, _, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			loader := execdata.NewLoader(logger)
			for _, path := range args {
				if err := loader.Load(path); err != nil {
					return err
				}
			}

			out, err := atomicfs.Create(mergeOutput, atomicfs.WithSync())
			if err != nil {
				return err
			}
			defer func() {
				_ = out.Discard()
			}()

			writer, err := execdata.NewWriter(out)
			if err != nil {
				return err
			}
			if err := loader.Save(writer); err != nil {
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}

			logger.Info("Wrote merged execution data",
				zap.String("path", mergeOutput),
				zap.Int("classes", loader.Store().Len()),
				zap.Int("sessions", len(loader.Sessions().Sessions())),
			)
			return nil
		},
	}
)

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "path of the merged exec file")
	_ = mergeCmd.MarkFlagRequired("output")
	_ = mergeCmd.MarkFlagFilename("output")
	rootCmd.AddCommand(mergeCmd)
}
