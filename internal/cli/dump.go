package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jvmcov/jvmcov/pkg/execdata"
	"github.com/jvmcov/jvmcov/pkg/xpflag"
)

var (
	dumpFormat = xpflag.NewOneOf("text", "text", "json")

	dumpCmd = &cobra.Command{
		Use:   "dump <exec-file>",
		Short: "List the sessions and execution data entries of an exec file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, _, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			loader := execdata.NewLoader(logger)
			if err := loader.Load(args[0]); err != nil {
				return err
			}

			switch dumpFormat.String() {
			case "json":
				return dumpJSON(cmd.OutOrStdout(), loader)
			default:
				return dumpText(cmd.OutOrStdout(), loader)
			}
		},
	}
)

func init() {
	dumpCmd.Flags().Var(dumpFormat, "format", "output format, one of "+dumpFormat.Variants())
	_ = dumpCmd.RegisterFlagCompletionFunc("format", dumpFormat.Complete)
	rootCmd.AddCommand(dumpCmd)
}

func dumpText(w io.Writer, loader *execdata.Loader) error {
	for _, info := range loader.Sessions().Sessions() {
		_, err := fmt.Fprintf(w, "session %s: start %s, dump %s\n",
			info.ID,
			info.Start.Format(time.RFC3339),
			info.Dump.Format(time.RFC3339),
		)
		if err != nil {
			return err
		}
	}
	for _, data := range loader.Store().Contents() {
		_, err := fmt.Fprintf(w, "%016x  %-50s %d of %d probes hit\n",
			data.ID, data.Name, data.Hits(), len(data.Probes))
		if err != nil {
			return err
		}
	}
	return nil
}

type dumpSession struct {
	ID    string    `json:"id"`
	Start time.Time `json:"start"`
	Dump  time.Time `json:"dump"`
}

type dumpEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Hits   int    `json:"hits"`
	Probes int    `json:"probes"`
}

func dumpJSON(w io.Writer, loader *execdata.Loader) error {
	out := struct {
		Sessions []dumpSession `json:"sessions"`
		Entries  []dumpEntry   `json:"entries"`
	}{
		Sessions: []dumpSession{},
		Entries:  []dumpEntry{},
	}
	for _, info := range loader.Sessions().Sessions() {
		out.Sessions = append(out.Sessions, dumpSession{
			ID:    info.ID,
			Start: info.Start,
			Dump:  info.Dump,
		})
	}
	for _, data := range loader.Store().Contents() {
		out.Entries = append(out.Entries, dumpEntry{
			ID:     fmt.Sprintf("%016x", data.ID),
			Name:   data.Name,
			Hits:   data.Hits(),
			Probes: len(data.Probes),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
