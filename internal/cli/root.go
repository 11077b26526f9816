package cli

import (
	"fmt"
	"os"

	"github.com/acolita/phpwire/pkg/phpserialize"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "phpser",
		Short: "inspect and convert PHP serialize() data",
		Long: fmt.Sprintf(`phpser (v%s)

Decodes the text format written by PHP's serialize() into JSON or YAML,
encodes JSON or YAML documents back into it, and dumps token trees with
byte positions for debugging malformed payloads.`, Version),
		SilenceUsage:       true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: dumpMetrics,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of phpser",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "phpser v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(InitConfig)

	RootCmd.AddCommand(decodeCmd)
	RootCmd.AddCommand(encodeCmd)
	RootCmd.AddCommand(inspectCmd)
	RootCmd.AddCommand(checkCmd)
	RootCmd.AddCommand(versionCmd)

	key := "log-level"
	RootCmd.PersistentFlags().String(key, "warning", WrapString("log level (debug, info, notice, warning, error, critical)"))
	key = "metrics"
	RootCmd.PersistentFlags().Bool(key, false, WrapString("write codec counters in Prometheus format to stderr when the command finishes"))

	SetupDecodeFlags(decodeCmd)
	SetupDecodeFlags(inspectCmd)
	SetupDecodeFlags(checkCmd)
}

// setup binds the flags of the executing command and configures logging.
func setup(cmd *cobra.Command, _ []string) error {
	if err := BindCommandFlags(cmd); err != nil {
		return err
	}
	return SetupLogging(cmd.ErrOrStderr())
}

func dumpMetrics(cmd *cobra.Command, _ []string) error {
	if GetMetricsEnabled() {
		phpserialize.WriteMetrics(cmd.ErrOrStderr())
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
