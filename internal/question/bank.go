package question

import (
	"embed"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed bank/default.yaml
var bankFS embed.FS

// Bank is the fixed prompt pool used when no remote content is available.
type Bank struct {
	tiers   map[string][]string
	shuffle func(n int, swap func(i, j int))
}

type bankFile struct {
	Easy   []string `yaml:"easy"`
	Medium []string `yaml:"medium"`
	Hard   []string `yaml:"hard"`
}

// DefaultBank returns the embedded prompt pool.
func DefaultBank() (*Bank, error) {
	data, err := bankFS.ReadFile("bank/default.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded bank: %w", err)
	}
	return ParseBank(data)
}

// LoadBank reads a prompt pool from disk, or the embedded one when path is empty.
func LoadBank(path string) (*Bank, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultBank()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank %s: %w", path, err)
	}
	return ParseBank(data)
}

// ParseBank decodes a YAML prompt pool keyed by difficulty.
func ParseBank(data []byte) (*Bank, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}

	b := &Bank{
		tiers: map[string][]string{
			DifficultyEasy:   cleanPrompts(f.Easy),
			DifficultyMedium: cleanPrompts(f.Medium),
			DifficultyHard:   cleanPrompts(f.Hard),
		},
		shuffle: rand.Shuffle,
	}
	for _, tier := range Tiers {
		if len(b.tiers[tier]) < PerTier {
			return nil, fmt.Errorf("question bank needs at least %d %s prompts, got %d", PerTier, tier, len(b.tiers[tier]))
		}
	}
	return b, nil
}

// Draw picks PerTier distinct prompts from every tier, easy first.
func (b *Bank) Draw() []Prompt {
	out := make([]Prompt, 0, SetSize)
	for _, tier := range Tiers {
		pool := append([]string(nil), b.tiers[tier]...)
		if len(pool) > PerTier {
			b.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		}
		for _, text := range pool[:PerTier] {
			out = append(out, Prompt{Text: text, Difficulty: tier})
		}
	}
	return out
}

func cleanPrompts(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
