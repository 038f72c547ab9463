package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestBindSelectionFlagsUsesDefaultsAndParsesValues(t *testing.T) {
	command := &cobra.Command{}

	values := BindSelectionFlags(command, SelectionFlagValues{})
	require.NotNil(t, values)
	require.False(t, values.Recursive)
	require.Equal(t, OutputFormatYAML, values.Output.Value())

	require.NoError(t, command.ParseFlags([]string{"-r", "--output", "json"}))
	require.True(t, values.Recursive)
	require.Equal(t, OutputFormatJSON, values.Output.Value())
}

func TestBindSelectionFlagsToleratesNilCommand(t *testing.T) {
	values := BindSelectionFlags(nil, SelectionFlagValues{Recursive: true})
	require.True(t, values.Recursive)
	require.Equal(t, OutputFormatYAML, values.Output.Value())
}
