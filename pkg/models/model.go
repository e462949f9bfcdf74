package models

import "strings"

// Provider identifiers accepted by the model factory.
const (
	ProviderOpenAI    = "openai"
	ProviderCustom    = "custom"
	ProviderDeepSeek  = "deepseek"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderArk       = "ark"
	ProviderOllama    = "ollama"
	ProviderQianfan   = "qianfan"
	ProviderQwen      = "qwen"
)

// SupportedModelProviders supported model providers
var SupportedModelProviders = map[string]struct{}{
	ProviderOpenAI:    {},
	ProviderDeepSeek:  {},
	ProviderAnthropic: {},
	ProviderGoogle:    {},
	ProviderArk:       {},
	ProviderOllama:    {},
	ProviderQianfan:   {},
	ProviderQwen:      {},
	ProviderCustom:    {},
}

// ModelConfig describes one completion endpoint.
type ModelConfig struct {
	Provider string         `json:"provider" yaml:"provider"`
	Model    string         `json:"model" yaml:"model"`
	BaseUrl  string         `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	ApiKey   string         `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Extra    map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

func (m *ModelConfig) Normalize() {
	m.Provider = strings.ToLower(strings.TrimSpace(m.Provider))
	m.Model = strings.TrimSpace(m.Model)
	if m.Extra == nil {
		m.Extra = map[string]any{}
	}
}

// ExtraString reads a string-valued vendor field.
func (m *ModelConfig) ExtraString(key string) string {
	if m == nil || m.Extra == nil {
		return ""
	}
	v, _ := m.Extra[key].(string)
	return v
}
