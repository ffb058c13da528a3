package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sudooom.kifu/internal/game/mahjong/riichi"
)

// LoadRulePresets 读取命名规则集
// 未出现的字段取默认规则的值
func LoadRulePresets(path string) (map[string]riichi.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule presets: %w", err)
	}
	return ParseRulePresets(data)
}

// ParseRulePresets 解析规则集 yaml
func ParseRulePresets(data []byte) (map[string]riichi.Rules, error) {
	var raw struct {
		Presets map[string]yaml.Node `yaml:"presets"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse rule presets: %w", err)
	}

	presets := make(map[string]riichi.Rules, len(raw.Presets)+1)
	presets["default"] = riichi.DefaultRules()
	for name, node := range raw.Presets {
		rules := riichi.DefaultRules()
		if err := node.Decode(&rules); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		if rules.StartPoints <= 0 {
			return nil, fmt.Errorf("preset %q: start_points must be positive", name)
		}
		presets[name] = rules
	}
	return presets, nil
}
