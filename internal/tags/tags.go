// Package tags suggests post tags from keywords found in a title.
package tags

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Rule maps a tag to the pattern that triggers it.
type Rule struct {
	Tag     string
	Pattern *regexp.Regexp
}

// Dictionary is an ordered list of rules. Suggestions come back in rule order.
type Dictionary struct {
	rules []Rule
}

// ruleFile is one entry of a YAML dictionary file.
type ruleFile struct {
	Tag     string `yaml:"tag"`
	Pattern string `yaml:"pattern"`
}

var defaultRules = []ruleFile{
	{"Education", `\b(school|education|learn(ing)?|study(ing)?|teach(ing)?)\b`},
	{"Technology", `\b(computer|AI|software|programming|code(ing)?|tech(nology)?|hardware|internet|app(s)|robotics|cybersecurity)\b`},
	{"Health", `\b(health|fitness|workout|exercise|diet|nutrition|yoga|self\s?care)\b`},
	{"Travel", `\b(travel(ing)?|vacation|trip|journey|tour(ism)?|hiking)\b`},
	{"Food", `\b(food|cook(ing)?|recipe|eat(ing)?|cuisine|meal)\b`},
	{"Pets", `\b(pet(s)?|dog(s)?|cat(s)?|bird(s)?|hamster(s)?|reptile(s)?|rabbits(s)?|pupp(y|ies)|kitten(s)?|guinea\s?pig(s)?|fish|fluffy)\b`},
	{"Hobbies", `\b(hobby|hobbies|craft(s)?|DIY|art(s)?|draw(ing)?|paint(ing)?|photograph(y|er)?|garden(ing)?|programming|cod(ing)?)\b`},
}

var defaultDictionary = mustCompile(defaultRules)

// Default returns the built-in dictionary.
func Default() *Dictionary {
	return defaultDictionary
}

// Suggest returns the tags of the built-in dictionary that match title.
func Suggest(title string) []string {
	return defaultDictionary.Suggest(title)
}

// New compiles a dictionary from tag/pattern pairs. Patterns are matched
// case-insensitively.
func New(pairs ...[2]string) (*Dictionary, error) {
	entries := make([]ruleFile, 0, len(pairs))
	for _, p := range pairs {
		entries = append(entries, ruleFile{Tag: p[0], Pattern: p[1]})
	}
	return compile(entries)
}

// Load reads a YAML dictionary: a sequence of {tag, pattern} mappings.
// An empty path yields the built-in dictionary.
func Load(path string) (*Dictionary, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tag dictionary: %w", err)
	}
	var entries []ruleFile
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse tag dictionary %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("tag dictionary %s has no rules", path)
	}
	return compile(entries)
}

// Suggest returns every tag whose pattern matches title, in dictionary order.
// The result is never nil.
func (d *Dictionary) Suggest(title string) []string {
	out := []string{}
	for _, r := range d.rules {
		if r.Pattern.MatchString(title) {
			out = append(out, r.Tag)
		}
	}
	return out
}

// Tags lists the dictionary's tags in order.
func (d *Dictionary) Tags() []string {
	out := make([]string, 0, len(d.rules))
	for _, r := range d.rules {
		out = append(out, r.Tag)
	}
	return out
}

func compile(entries []ruleFile) (*Dictionary, error) {
	rules := make([]Rule, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Tag == "" || e.Pattern == "" {
			return nil, fmt.Errorf("tag rule needs both tag and pattern (tag=%q)", e.Tag)
		}
		if seen[e.Tag] {
			return nil, fmt.Errorf("duplicate tag %q", e.Tag)
		}
		seen[e.Tag] = true
		re, err := regexp.Compile(`(?i)` + e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", e.Tag, err)
		}
		rules = append(rules, Rule{Tag: e.Tag, Pattern: re})
	}
	return &Dictionary{rules: rules}, nil
}

func mustCompile(entries []ruleFile) *Dictionary {
	d, err := compile(entries)
	if err != nil {
		panic(err)
	}
	return d
}
