package flags

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestFormatChoiceUsage(t *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "DefaultFirstChoice",
			defaultChoice:  "yaml",
			choices:        []string{"yaml", "json"},
			description:    "Render results as YAML or JSON.",
			expectedOutput: "`<YAML|json>` Render results as YAML or JSON.",
		},
		{
			name:           "DefaultSecondChoice",
			defaultChoice:  "csv",
			choices:        []string{"xlsx", "csv"},
			description:    "Spreadsheet format.",
			expectedOutput: "`<xlsx|CSV>` Spreadsheet format.",
		},
		{
			name:           "EmptyDescription",
			defaultChoice:  "yaml",
			choices:        []string{"yaml", "json"},
			expectedOutput: "`<YAML|json>`",
		},
		{
			name:           "DuplicatesAndBlanksIgnored",
			defaultChoice:  "json",
			choices:        []string{"json", " JSON ", "", "yaml"},
			description:    "Pick one.",
			expectedOutput: "`<JSON|yaml>` Pick one.",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expectedOutput, FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description))
		})
	}
}

func TestChoiceValueAcceptsOnlyConfiguredChoices(t *testing.T) {
	flagSet := pflag.NewFlagSet("choice", pflag.ContinueOnError)
	value := AddChoiceFlag(flagSet, "output", "yaml", []string{"yaml", "json"}, "Result encoding.")
	require.Equal(t, "yaml", value.Value())

	require.NoError(t, flagSet.Parse([]string{"--output", "JSON"}))
	require.Equal(t, "json", value.Value())

	rejectingSet := pflag.NewFlagSet("choice", pflag.ContinueOnError)
	AddChoiceFlag(rejectingSet, "output", "yaml", []string{"yaml", "json"}, "")
	require.ErrorContains(t, rejectingSet.Parse([]string{"--output", "xml"}), "unsupported value \"xml\"")
}

func TestAddChoiceFlagReusesExistingRegistration(t *testing.T) {
	flagSet := pflag.NewFlagSet("choice", pflag.ContinueOnError)
	first := AddChoiceFlag(flagSet, "format", "xlsx", []string{"xlsx", "csv"}, "")
	second := AddChoiceFlag(flagSet, "format", "csv", []string{"xlsx", "csv"}, "")
	require.Same(t, first, second)
}
