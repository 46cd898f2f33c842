package recipe

import (
	"fmt"

	"github.com/openclaw/clawctl/internal/backend"
	"github.com/openclaw/clawctl/internal/configdoc"
)

// patchCommands expands a rendered config_patch template into one
// "config set" command per leaf.
//
// The template was rendered textually (string-replace, not JSON-aware)
// during resolution, so it may no longer parse as JSON - a parameter
// containing a quote, say. In that case we fall back to a single set
// command against the document root: the value parse fails at preview
// with the rendered template quoted in the per-command error, instead
// of an exception swallowing the whole recipe.
func patchCommands(rendered string) ([]Command, error) {
	value, err := configdoc.ParseJSONValue(rendered)
	if err != nil {
		return []Command{{
			Label:  "Apply config patch (template did not parse as JSON)",
			Tokens: backend.ConfigSetTokens(configdoc.RootPath, rendered),
		}}, nil
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config_patch: template must be a JSON object, got %T", value)
	}
	if len(obj) == 0 {
		return nil, fmt.Errorf("config_patch: template resolved to an empty object")
	}

	leaves := configdoc.WalkLeaves("", obj)
	cmds := make([]Command, 0, len(leaves))
	for _, leaf := range leaves {
		encoded, err := configdoc.EncodeJSONValue(leaf.Value)
		if err != nil {
			return nil, fmt.Errorf("config_patch: encode %s: %w", leaf.Path, err)
		}
		cmds = append(cmds, Command{
			Label:  fmt.Sprintf("Set %s", leaf.Path),
			Tokens: backend.ConfigSetTokens(leaf.Path, encoded),
		})
	}
	return cmds, nil
}
