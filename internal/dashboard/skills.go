package dashboard

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/ayush-that/clawboard/internal/domain"
)

// reservedSectionKeys are meta entries inside config sections that do not
// name a skill or channel.
var reservedSectionKeys = map[string]bool{
	"enabled":   true,
	"defaults":  true,
	"allowlist": true,
}

// Skills enumerates the skills section of the cached gateway configuration.
// Failures, including an unreadable config, degrade to an empty list.
func (s *Service) Skills(ctx context.Context, settings domain.GatewaySettings) []domain.SkillData {
	section := s.configSection(ctx, settings, "skills")

	skills := make([]domain.SkillData, 0, len(section))
	for name, value := range section {
		if reservedSectionKeys[name] {
			continue
		}
		skill := domain.SkillData{Name: name, Enabled: true}
		if obj, ok := value.(map[string]any); ok {
			if desc, ok := obj["description"].(string); ok {
				skill.Description = desc
			}
			if enabled, ok := obj["enabled"].(bool); ok {
				skill.Enabled = enabled
			}
		}
		skills = append(skills, skill)
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	return skills
}

// Channels enumerates the channels section of the cached gateway
// configuration. Failures degrade to an empty list.
func (s *Service) Channels(ctx context.Context, settings domain.GatewaySettings) []domain.ChannelConfig {
	section := s.configSection(ctx, settings, "channels")

	channels := make([]domain.ChannelConfig, 0, len(section))
	for name, value := range section {
		if reservedSectionKeys[name] {
			continue
		}
		channel := domain.ChannelConfig{Name: name, Enabled: true}
		if obj, ok := value.(map[string]any); ok {
			if typ, ok := obj["type"].(string); ok {
				channel.Type = typ
			}
			if enabled, ok := obj["enabled"].(bool); ok {
				channel.Enabled = enabled
			}
		}
		channels = append(channels, channel)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].Name < channels[j].Name })
	return channels
}

// configSection parses the raw configuration text and returns one named
// top-level section, or nil when anything along the way fails.
func (s *Service) configSection(ctx context.Context, settings domain.GatewaySettings, name string) map[string]any {
	cfg, err := s.config.Get(ctx, settings)
	if err != nil {
		s.fail(ctx, name, err)
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(cfg.Raw), &raw); err != nil {
		s.fail(ctx, name, err)
		return nil
	}
	section, _ := raw[name].(map[string]any)
	return section
}
