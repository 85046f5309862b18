package game

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Tag is an independent category an action text can fall into
type Tag string

const (
	TagPhysical    Tag = "physical"
	TagCombat      Tag = "combat"
	TagHeavy       Tag = "heavy"
	TagRest        Tag = "rest"
	TagDanger      Tag = "danger"
	TagExploration Tag = "exploration"
)

// Tags lists every tag in evaluation order
var Tags = []Tag{TagPhysical, TagCombat, TagHeavy, TagRest, TagDanger, TagExploration}

// RuleSet is the keyword table driving the classifier
type RuleSet struct {
	Keywords  map[Tag][]string `yaml:"keywords"`
	Precision struct {
		Distance string   `yaml:"distance"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"precision"`
}

// LoadRules parses a YAML rule table
func LoadRules(data []byte) (RuleSet, error) {
	var rules RuleSet
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("failed to parse rules: %w", err)
	}
	return rules, nil
}

// Classification is the result of classifying one action text
type Classification struct {
	Tags    []Tag
	Precise bool
}

// Has reports whether the classification carries the tag
func (c Classification) Has(tag Tag) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Strings returns the tags as plain strings
func (c Classification) Strings() []string {
	out := make([]string, len(c.Tags))
	for i, t := range c.Tags {
		out[i] = string(t)
	}
	return out
}

// Classifier tags free-form action text. It is pure and safe for concurrent use.
type Classifier struct {
	keywords  map[Tag][]string
	distance  *regexp.Regexp
	precision []string
}

// NewClassifier builds a classifier from a rule table
func NewClassifier(rules RuleSet) (*Classifier, error) {
	c := &Classifier{
		keywords: make(map[Tag][]string, len(rules.Keywords)),
	}
	for tag, words := range rules.Keywords {
		c.keywords[tag] = lowerAll(words)
	}
	c.precision = lowerAll(rules.Precision.Keywords)

	if rules.Precision.Distance != "" {
		re, err := regexp.Compile("(?i)" + rules.Precision.Distance)
		if err != nil {
			return nil, fmt.Errorf("invalid distance pattern: %w", err)
		}
		c.distance = re
	}
	return c, nil
}

// DefaultClassifier returns a classifier over the built-in rule table
func DefaultClassifier() *Classifier {
	rules, err := LoadRules(defaultRules)
	if err != nil {
		panic(err)
	}
	c, err := NewClassifier(rules)
	if err != nil {
		panic(err)
	}
	return c
}

// Classify tags the text. Unrecognized text yields no tags.
func (c *Classifier) Classify(text string) Classification {
	lower := strings.ToLower(text)

	var result Classification
	for _, tag := range Tags {
		if containsAny(lower, c.keywords[tag]) {
			result.Tags = append(result.Tags, tag)
		}
	}
	result.Precise = c.IsPrecise(text)
	return result
}

// IsPrecise reports whether the text gives a distance, direction or body part
func (c *Classifier) IsPrecise(text string) bool {
	if c.distance != nil && c.distance.MatchString(text) {
		return true
	}
	return containsAny(strings.ToLower(text), c.precision)
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(strings.ToLower(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
