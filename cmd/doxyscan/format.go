package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"doxyscan/internal/commands"
	"doxyscan/internal/errors"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
	FormatYAML  OutputFormat = "yaml"
)

func (f OutputFormat) valid() bool {
	return f == FormatJSON || f == FormatHuman || f == FormatYAML
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", errors.New(errors.UnsupportedFormat, fmt.Sprintf("unsupported format: %s", format), nil)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatYAML goes through JSON so that the json tags name the keys.
func formatYAML(resp interface{}) (string, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	var generic interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *ClassifyResponse:
		return formatClassifyHuman(v), nil
	case *TokensResponse:
		return formatTokensHuman(v), nil
	case *CommandListResponse:
		return formatCommandListHuman(v), nil
	case *commands.Description:
		return formatDescriptionHuman(v), nil
	case *ParamsResponse:
		return formatParamsHuman(v), nil
	case *IndexResponse:
		return formatIndexHuman(v), nil
	case *IndexStatusResponse:
		return formatIndexStatusHuman(v), nil
	case *IndexShowResponse:
		return formatIndexShowHuman(v), nil
	case *LintResponse:
		return formatLintHuman(v), nil
	case *SearchResponse:
		return formatSearchHuman(v), nil
	case *VersionResponse:
		return formatVersionHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatDescriptionHuman(d *commands.Description) string {
	var b strings.Builder
	name := d.Signature
	if name == "" {
		name = `\` + d.Name
	}
	fmt.Fprintf(&b, "%s\n", name)
	fmt.Fprintf(&b, "  group:     %s\n", d.Group)
	fmt.Fprintf(&b, "  position:  %s\n", d.Position)
	if len(d.Aliases) > 0 {
		fmt.Fprintf(&b, "  aliases:   %s\n", strings.Join(d.Aliases, ", "))
	}
	if len(d.Arguments) > 0 {
		fmt.Fprintf(&b, "  arguments: %s\n", strings.Join(d.Arguments, " "))
	}
	if d.Help != "" {
		fmt.Fprintf(&b, "\n%s\n", d.Help)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
