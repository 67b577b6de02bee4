package routing

import (
	"fmt"
	"os"
	"strings"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/envelope"

	"gopkg.in/yaml.v3"
)

// Classifier produces the deterministic routing baseline for an envelope.
type Classifier interface {
	Classify(env envelope.Envelope) Decision
}

// Rule maps keywords to a routing assignment. Rules are evaluated in order;
// the first rule with a matching keyword wins.
type Rule struct {
	Intent     string   `yaml:"intent"`
	Category   string   `yaml:"category"`
	Department string   `yaml:"department"`
	Tags       []string `yaml:"tags"`
	Keywords   []string `yaml:"keywords"`
}

// RuleSet is the data backing the keyword classifier.
type RuleSet struct {
	Rules   []Rule `yaml:"rules"`
	Default Rule   `yaml:"default"`
}

// KeywordClassifier is the deterministic baseline classifier. It scans the
// subject, body, latest comment, and message list for rule keywords.
type KeywordClassifier struct {
	rules RuleSet
}

// defaultRuleSet covers the supported intent set. Order matters: first
// match wins, so the more specific intents come first.
var defaultRuleSet = RuleSet{
	Rules: []Rule{
		{
			Intent:     IntentOrderStatus,
			Category:   "orders",
			Department: "support",
			Tags:       []string{TagRoutingApplied},
			Keywords: []string{
				"where is my order", "order status", "wheres my order",
				"track my order", "tracking number", "tracking info",
				"has my order shipped", "shipping status", "when will my order",
				"order update", "package status", "my package",
			},
		},
		{
			Intent:     IntentReturn,
			Category:   "orders",
			Department: "support",
			Tags:       []string{TagRoutingApplied, TagEmailSupportTeam},
			Keywords:   []string{"return my", "refund", "send it back", "return label", "exchange"},
		},
		{
			Intent:     IntentCancellation,
			Category:   "orders",
			Department: "support",
			Tags:       []string{TagRoutingApplied, TagEmailSupportTeam},
			Keywords:   []string{"cancel my order", "cancel the order", "cancellation"},
		},
	},
	Default: Rule{
		Intent:     IntentGeneral,
		Category:   "support",
		Department: "support",
		Tags:       []string{TagRoutingApplied, TagEmailSupportTeam},
	},
}

// NewKeywordClassifier returns a classifier backed by the embedded rules.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{rules: defaultRuleSet}
}

// NewKeywordClassifierFromFile loads a YAML rule set, falling back to the
// embedded rules when path is empty.
func NewKeywordClassifierFromFile(path string) (*KeywordClassifier, error) {
	if strings.TrimSpace(path) == "" {
		return NewKeywordClassifier(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classifier rules: %w", err)
	}

	var rules RuleSet
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse classifier rules: %w", err)
	}
	if len(rules.Rules) == 0 {
		return nil, fmt.Errorf("classifier rules file %s contains no rules", path)
	}
	if rules.Default.Intent == "" {
		rules.Default = defaultRuleSet.Default
	}

	return &KeywordClassifier{rules: rules}, nil
}

// Classify runs the ordered keyword rules over the envelope text.
func (c *KeywordClassifier) Classify(env envelope.Envelope) Decision {
	haystack := classifierText(env)

	for _, rule := range c.rules.Rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(haystack, strings.ToLower(keyword)) {
				return Decision{
					Category:   rule.Category,
					Intent:     rule.Intent,
					Department: rule.Department,
					Tags:       AppendTags(nil, rule.Tags...),
					Reason:     "keyword:" + keyword,
				}
			}
		}
	}

	d := c.rules.Default
	return Decision{
		Category:   d.Category,
		Intent:     d.Intent,
		Department: d.Department,
		Tags:       AppendTags(nil, d.Tags...),
		Reason:     "default",
	}
}

func classifierText(env envelope.Envelope) string {
	var sb strings.Builder
	sb.WriteString(env.Subject())
	sb.WriteString("\n")
	sb.WriteString(env.Body())
	sb.WriteString("\n")
	sb.WriteString(env.LatestComment())
	for _, msg := range env.Messages() {
		sb.WriteString("\n")
		sb.WriteString(msg)
	}
	return strings.ToLower(sb.String())
}
