package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/acolita/phpwire/pkg/phpserialize"
	"github.com/joho/godotenv"
	"github.com/op/go-logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

var log = logging.MustGetLogger("phpser")

var stderrLogFormat = logging.MustStringFormatter(
	`%{color:reset}%{color}%{time:15:04:05.000} [%{module}/%{shortfunc}] [%{level}] %{message}`,
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupDecodeFlags adds the decoder configuration flags to a command. Struct
// binding options have no flags since the commands decode untyped.
func SetupDecodeFlags(cmd *cobra.Command) {
	key := "list-promotion"
	cmd.Flags().String(key, "consecutive", WrapString("when an array becomes a list (consecutive, never, any)"))

	key = "stdclass"
	cmd.Flags().String(key, "map", WrapString("what stdClass objects decode to (map, dynamic, throw)"))

	key = "encoding"
	cmd.Flags().String(key, "", WrapString("charset of string payloads, e.g. iso-8859-1 or windows-1252 (default UTF-8)"))

	key = "max-depth"
	cmd.Flags().Int(key, phpserialize.DefaultMaxDepth, WrapString("maximum nesting depth of arrays and objects (0 disables the limit)"))
}

// InitConfig loads env files and prepares viper to read PHPSER_* variables
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("phpser")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// SetupLogging routes all modules to w at the configured level.
func SetupLogging(w io.Writer) error {
	level, err := logging.LogLevel(viper.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", viper.GetString("log-level"), err)
	}
	backend := logging.NewBackendFormatter(logging.NewLogBackend(w, "", 0), stderrLogFormat)
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)
	return nil
}

// GetDecodeOptions reads the decoder configuration from viper
func GetDecodeOptions() (phpserialize.DecodeOptions, error) {
	opts := phpserialize.DefaultDecodeOptions()
	opts.MaxDepth = viper.GetInt("max-depth")

	var err error
	if opts.ListPromotion, err = phpserialize.ParseListPromotion(viper.GetString("list-promotion")); err != nil {
		return opts, err
	}
	if opts.StdClass, err = phpserialize.ParseStdClassPolicy(viper.GetString("stdclass")); err != nil {
		return opts, err
	}
	if name := viper.GetString("encoding"); name != "" {
		enc, err := htmlindex.Get(name)
		if err != nil {
			return opts, fmt.Errorf("invalid encoding %s: %w", name, err)
		}
		opts.InputEncoding = enc
	}
	return opts, nil
}

// GetMetricsEnabled reports whether counters are dumped after a command
func GetMetricsEnabled() bool {
	return viper.GetBool("metrics")
}

// readInput returns the named file, or stdin when no file (or "-") is given
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, err
	}
	log.Debugf("read %d bytes from %s", len(data), args[0])
	return data, nil
}
