package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jvmcov/jvmcov/pkg/execdata"
)

var validateCmd = &cobra.Command{
	Use:   "validate <exec-file>...",
	Short: "Check that files are well-formed execution data of a supported version",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		logger, _, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		for _, path := range args {
			if err := execdata.ValidateFile(path); err != nil {
				return err
			}
			logger.Info("Valid execution data file", zap.String("path", path))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
