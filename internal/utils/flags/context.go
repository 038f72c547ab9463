// Package flags binds the flags shared by the fleet commands to Cobra commands.
package flags

import "github.com/spf13/cobra"

const (
	// RecursiveFlagName selects repository discovery beneath the given directories.
	RecursiveFlagName = "recursive"
	// RecursiveFlagShorthand is the shorthand for RecursiveFlagName.
	RecursiveFlagShorthand = "r"
	// RecursiveFlagUsage describes RecursiveFlagName.
	RecursiveFlagUsage = "Treat arguments as roots and operate on every repository found beneath them"
	// OutputFlagName selects how command results are rendered.
	OutputFlagName = "output"
	// OutputFlagShorthand is the shorthand for OutputFlagName.
	OutputFlagShorthand = "o"
	// OutputFlagUsage describes OutputFlagName.
	OutputFlagUsage = "Result encoding written to standard output"
	// OutputFormatYAML renders results as YAML.
	OutputFormatYAML = "yaml"
	// OutputFormatJSON renders results as indented JSON.
	OutputFormatJSON = "json"
)

// SelectionFlagValues stores the directory selection and rendering flags of a command.
type SelectionFlagValues struct {
	Recursive bool
	Output    *ChoiceValue
}

// BindSelectionFlags attaches --recursive and --output to command.
func BindSelectionFlags(command *cobra.Command, defaults SelectionFlagValues) *SelectionFlagValues {
	values := &SelectionFlagValues{Recursive: defaults.Recursive, Output: defaults.Output}
	if values.Output == nil {
		values.Output = NewChoiceValue(OutputFormatYAML, []string{OutputFormatYAML, OutputFormatJSON})
	}
	if command == nil {
		return values
	}

	flagSet := command.Flags()
	if flagSet.Lookup(RecursiveFlagName) == nil {
		flagSet.BoolVarP(&values.Recursive, RecursiveFlagName, RecursiveFlagShorthand, defaults.Recursive, RecursiveFlagUsage)
	}
	if flagSet.Lookup(OutputFlagName) == nil {
		flagSet.VarP(values.Output, OutputFlagName, OutputFlagShorthand, FormatChoiceUsage(values.Output.Value(), []string{OutputFormatYAML, OutputFormatJSON}, OutputFlagUsage))
	}
	return values
}
