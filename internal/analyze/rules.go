package analyze

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// Rules is the duplicate policy given to the model.
type Rules struct {
	Instruction   string    `yaml:"instruction"`
	Duplicates    []Example `yaml:"duplicates"`
	NotDuplicates []Example `yaml:"not_duplicates"`
	Rules         []string  `yaml:"rules"`
	Scenario      string    `yaml:"scenario"`
}

// Example is a pair of item names with a short explanation.
type Example struct {
	A    string `yaml:"a"`
	B    string `yaml:"b"`
	Note string `yaml:"note"`
}

// DefaultRules returns the built-in strict exact-duplicate policy.
func DefaultRules() Rules {
	r, err := parseRules(defaultRulesYAML)
	if err != nil {
		panic(err) // embedded file is fixed at build time
	}
	return r
}

// LoadRules reads rules from path. An empty path returns DefaultRules.
// Sections left empty in the file fall back to the defaults.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, eris.Wrapf(err, "analyze: read rules %s", path)
	}
	r, err := parseRules(data)
	if err != nil {
		return Rules{}, err
	}

	def := DefaultRules()
	if r.Instruction == "" {
		r.Instruction = def.Instruction
	}
	if len(r.Rules) == 0 {
		r.Rules = def.Rules
	}
	if len(r.Duplicates) == 0 {
		r.Duplicates = def.Duplicates
	}
	if len(r.NotDuplicates) == 0 {
		r.NotDuplicates = def.NotDuplicates
	}
	return r, nil
}

func parseRules(data []byte) (Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, eris.Wrap(err, "analyze: parse rules")
	}
	return r, nil
}

// Render formats the rules as the system prompt text.
func (r Rules) Render() string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(r.Instruction))
	sb.WriteString("\n")

	if len(r.Duplicates) > 0 {
		sb.WriteString("\nDUPLICATE EXAMPLES (✅ CORRECT):\n")
		writeExamples(&sb, r.Duplicates)
	}
	if len(r.NotDuplicates) > 0 {
		sb.WriteString("\nNOT DUPLICATES (❌ WRONG):\n")
		writeExamples(&sb, r.NotDuplicates)
	}
	if len(r.Rules) > 0 {
		sb.WriteString("\nRULES:\n")
		for i, rule := range r.Rules {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, rule)
		}
	}
	if s := strings.TrimSpace(r.Scenario); s != "" {
		sb.WriteString("\nEXAMPLE SCENARIO:\n")
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeExamples(sb *strings.Builder, examples []Example) {
	for _, e := range examples {
		fmt.Fprintf(sb, "- %q vs %q", e.A, e.B)
		if e.Note != "" {
			fmt.Fprintf(sb, " (%s)", e.Note)
		}
		sb.WriteString("\n")
	}
}
