package stack

import (
	"fmt"
	"sort"
	"strings"
)

// Parameter is one template parameter.
type Parameter struct {
	Key   string
	Value string
}

// Tag is one stack tag.
type Tag struct {
	Key   string
	Value string
}

// Plan is the desired state of one stack. It is built once before the
// provider request and never modified afterwards.
type Plan struct {
	Name         string
	Template     string
	Parameters   []Parameter
	Tags         []Tag
	Capabilities []string
}

// NewPlan builds a plan with parameters and tags sorted by key and parameter
// values converted to strings. Lists become comma-delimited values.
func NewPlan(name, template string, parameters map[string]any, tags map[string]string, capabilities []string) Plan {
	plan := Plan{
		Name:         name,
		Template:     template,
		Capabilities: append([]string(nil), capabilities...),
	}

	for _, k := range sortedKeys(parameters) {
		plan.Parameters = append(plan.Parameters, Parameter{Key: k, Value: stringify(parameters[k])})
	}
	for _, k := range sortedKeys(tags) {
		plan.Tags = append(plan.Tags, Tag{Key: k, Value: tags[k]})
	}

	return plan
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(val, ",")
	default:
		return fmt.Sprint(val)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
