package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/aeonkit/internal/mockdata"
)

// Output formats shared by the listing commands.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// addFormatFlag registers --format/-f restricted to the given formats.
func addFormatFlag(cmd *cobra.Command, target *string, formats ...string) {
	cmd.Flags().StringVarP(target, "format", "f", formats[0],
		fmt.Sprintf("Output format (%s)", strings.Join(formats, ", ")))
	AddFlagValidation(cmd, "format", func(value string) error {
		return validateFormat(value, formats)
	})
}

func validateFormat(format string, formats []string) error {
	for _, f := range formats {
		if strings.EqualFold(format, f) {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q, must be one of: %s", format, strings.Join(formats, ", "))
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// parseAssignments turns repeated --set name=value flags into a field bag.
// Values keep their text; "@file" reads the value from a file.
func parseAssignments(assignments []string) (*mockdata.FieldBag, error) {
	bag := mockdata.NewFieldBag()
	for _, a := range assignments {
		name, value, ok := strings.Cut(a, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q, expected name=value", a)
		}
		if strings.HasPrefix(value, "@") {
			data, err := os.ReadFile(strings.TrimPrefix(value, "@"))
			if err != nil {
				return nil, fmt.Errorf("reading value of %s: %w", name, err)
			}
			value = string(data)
		}
		bag.Set(name, value)
	}
	return bag, nil
}

// writeStructured encodes v as indented JSON or YAML.
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch strings.ToLower(format) {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	}
}
