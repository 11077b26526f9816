package cli

import (
	"bytes"
	"fmt"

	"github.com/acolita/phpwire/pkg/phpserialize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	decodeCmd = &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode serialized PHP data into JSON or YAML",
		Long: `Decode serialized PHP data read from file (or stdin) and print it as
JSON or YAML. Map and property order is kept. Objects carry their class
name in a "__class" member (JSON) or a !php/object: tag (YAML).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			opts, err := GetDecodeOptions()
			if err != nil {
				return err
			}
			val, err := phpserialize.Deserialize(trimInput(data), phpserialize.WithDecodeOptions(opts))
			if err != nil {
				return err
			}
			log.Infof("decoded %s from %d bytes", val.Type(), len(data))

			out, err := render(val, viper.GetString("format"), viper.GetBool("pretty"))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	encodeCmd = &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode a JSON or YAML document as serialized PHP data",
		Long: `Encode a JSON or YAML document read from file (or stdin). Mappings with a
leading "__class" key or a !php/object: tag become objects; everything
else becomes arrays.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			val, err := phpserialize.ParseDocument(data)
			if err != nil {
				return err
			}
			out, err := phpserialize.Serialize(val)
			if err != nil {
				return err
			}
			log.Infof("encoded %s into %d bytes", val.Type(), len(out))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
			return err
		},
	}
	inspectCmd = &cobra.Command{
		Use:   "inspect [file]",
		Short: "Print the token tree of serialized PHP data with byte positions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			opts, err := GetDecodeOptions()
			if err != nil {
				return err
			}
			tok, err := phpserialize.Tokenize(trimInput(data), phpserialize.WithDecodeOptions(opts))
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), tok.Dump())
			return err
		},
	}
	checkCmd = &cobra.Command{
		Use:   "check [file]",
		Short: "Validate serialized PHP data",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			opts, err := GetDecodeOptions()
			if err != nil {
				return err
			}
			if _, err := phpserialize.Tokenize(trimInput(data), phpserialize.WithDecodeOptions(opts)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
)

func init() {
	key := "format"
	decodeCmd.Flags().String(key, "json", WrapString("output format (json, yaml)"))
	key = "pretty"
	decodeCmd.Flags().Bool(key, false, WrapString("indent JSON output"))
}

// trimInput drops the line break editors and shells append. A serialized
// value always ends in ';' or '}', so this never touches payload bytes.
func trimInput(data []byte) []byte {
	return bytes.TrimRight(data, "\r\n")
}

func render(val phpserialize.Value, format string, pretty bool) ([]byte, error) {
	switch format {
	case "json":
		out, err := val.MarshalJSON()
		if err != nil {
			return nil, err
		}
		if pretty {
			if out, err = phpserialize.IndentJSON(out); err != nil {
				return nil, err
			}
		}
		return append(out, '\n'), nil
	case "yaml":
		return yaml.Marshal(val)
	default:
		return nil, fmt.Errorf("invalid format %s", format)
	}
}
