package flags

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/pflag"
)

const (
	choicePlaceholderTemplateConstant = "<%s>"
	choiceSeparatorConstant           = "|"
	choiceUsageEmptyTemplateConstant  = "`%s`"
	choiceUsageFullTemplateConstant   = "`%s` %s"
	choiceValueTypeConstant           = "choice"
	choiceRejectedTemplateConstant    = "unsupported value %q (expected one of %s)"
)

// ChoiceValue is a pflag.Value restricted to a fixed, case-insensitive set of options.
type ChoiceValue struct {
	selected string
	choices  []string
}

// NewChoiceValue builds a ChoiceValue preset to defaultChoice.
func NewChoiceValue(defaultChoice string, choices []string) *ChoiceValue {
	return &ChoiceValue{
		selected: normalizeChoice(defaultChoice),
		choices:  normalizeChoices(choices),
	}
}

// AddChoiceFlag registers a choice flag on flagSet and returns its value holder.
func AddChoiceFlag(flagSet *pflag.FlagSet, name string, defaultChoice string, choices []string, description string) *ChoiceValue {
	value := NewChoiceValue(defaultChoice, choices)
	if flagSet == nil || len(name) == 0 {
		return value
	}
	if existing := flagSet.Lookup(name); existing != nil {
		if existingChoice, isChoice := existing.Value.(*ChoiceValue); isChoice {
			return existingChoice
		}
		return value
	}
	flagSet.Var(value, name, FormatChoiceUsage(defaultChoice, choices, description))
	return value
}

// Set accepts any configured choice regardless of case.
func (value *ChoiceValue) Set(rawValue string) error {
	candidate := normalizeChoice(rawValue)
	if !lo.Contains(value.choices, candidate) {
		return fmt.Errorf(choiceRejectedTemplateConstant, rawValue, strings.Join(value.choices, choiceSeparatorConstant))
	}
	value.selected = candidate
	return nil
}

func (value *ChoiceValue) String() string {
	if value == nil {
		return ""
	}
	return value.selected
}

func (value *ChoiceValue) Type() string {
	return choiceValueTypeConstant
}

// Value returns the selected choice in lower case.
func (value *ChoiceValue) Value() string {
	return value.String()
}

// FormatChoiceUsage renders "`<a|B|c>` description" with the default choice upper-cased.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	normalizedDefault := normalizeChoice(defaultChoice)
	displayed := lo.Map(normalizeChoices(choices), func(choice string, _ int) string {
		if choice == normalizedDefault {
			return strings.ToUpper(choice)
		}
		return choice
	})
	placeholder := fmt.Sprintf(choicePlaceholderTemplateConstant, strings.Join(displayed, choiceSeparatorConstant))

	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplateConstant, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplateConstant, placeholder, trimmedDescription)
}

func normalizeChoice(choice string) string {
	return strings.ToLower(strings.TrimSpace(choice))
}

func normalizeChoices(choices []string) []string {
	normalized := lo.Map(choices, func(choice string, _ int) string {
		return normalizeChoice(choice)
	})
	return lo.Uniq(lo.Compact(normalized))
}
