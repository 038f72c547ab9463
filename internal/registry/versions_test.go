package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fulutas/stackmit-app/internal/registry"
)

func TestCompareVersions(testInstance *testing.T) {
	testCases := []struct {
		name     string
		declared string
		latest   string
		found    bool
		expected registry.UpToDate
		label    string
	}{
		{name: "caret_equal", declared: "^1.2.3", latest: "1.2.3", found: true, expected: registry.UpToDateYes, label: "Yes"},
		{name: "tilde_equal", declared: "~4.0.0", latest: "4.0.0", found: true, expected: registry.UpToDateYes, label: "Yes"},
		{name: "exact_equal", declared: "2.0.0", latest: "2.0.0", found: true, expected: registry.UpToDateYes, label: "Yes"},
		{name: "older", declared: "^1.2.3", latest: "1.3.0", found: true, expected: registry.UpToDateNo, label: "No"},
		{name: "only_one_prefix_stripped", declared: "^^1.0.0", latest: "1.0.0", found: true, expected: registry.UpToDateNo, label: "No"},
		{name: "range_is_not_interpreted", declared: ">=1.0.0", latest: "1.0.0", found: true, expected: registry.UpToDateNo, label: "No"},
		{name: "lookup_failed_is_unknown", declared: "^1.2.3", latest: "", found: false, expected: registry.UpToDateUnknown, label: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			state := registry.CompareVersions(testCase.declared, testCase.latest, testCase.found)
			require.Equal(testInstance, testCase.expected, state)
			require.Equal(testInstance, testCase.label, state.Label())
		})
	}
}
