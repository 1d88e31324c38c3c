package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/medgrove/med-web-ui/internal/handlers"
	"github.com/medgrove/med-web-ui/internal/prompt"
	"github.com/medgrove/med-web-ui/internal/services"
	"gopkg.in/yaml.v3"
)

type llmConfig interface {
	llm(systemPrompt string, logger *slog.Logger) (handlers.LLM, error)
}

// BaseLLMConfig contains the common fields for all LLM configurations.
type BaseLLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

type config struct {
	Port         string    `yaml:"port"`
	SystemPrompt string    `yaml:"systemPrompt"`
	DataDir      string    `yaml:"dataDir"`
	DocsDir      string    `yaml:"docsDir"`
	LLM          llmConfig `yaml:"llm"`
}

type groqConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string  `yaml:"apiKey"`
	Temperature   float32 `yaml:"temperature"`
	MaxTokens     int     `yaml:"maxTokens"`
}

type ollamaConfig struct {
	BaseLLMConfig `yaml:",inline"`
	Host          string `yaml:"host"`
}

// defaultConfig is used when no config file exists: a Groq-backed assistant
// keyed from the environment.
func defaultConfig() config {
	return config{
		Port:    "8080",
		DataDir: "data",
		LLM:     &groqConfig{},
	}
}

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig struct {
		Port         string         `yaml:"port"`
		SystemPrompt string         `yaml:"systemPrompt"`
		DataDir      string         `yaml:"dataDir"`
		DocsDir      string         `yaml:"docsDir"`
		LLM          map[string]any `yaml:"llm"`
	}

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	c.Port = rawConfig.Port
	c.SystemPrompt = rawConfig.SystemPrompt
	c.DataDir = rawConfig.DataDir
	c.DocsDir = rawConfig.DocsDir
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}

	llmProvider, ok := rawConfig.LLM["provider"].(string)
	if !ok {
		return fmt.Errorf("llm provider is required")
	}

	llmRawYAML, err := yaml.Marshal(rawConfig.LLM)
	if err != nil {
		return err
	}

	var llm llmConfig
	switch llmProvider {
	case "groq":
		llm = &groqConfig{}
	case "ollama":
		llm = &ollamaConfig{}
	default:
		return fmt.Errorf("unknown llm provider: %s", llmProvider)
	}

	if err := yaml.Unmarshal(llmRawYAML, llm); err != nil {
		return err
	}

	c.LLM = llm
	return nil
}

func (c config) systemPrompt() string {
	if c.SystemPrompt != "" {
		return c.SystemPrompt
	}
	return prompt.System
}

func (g groqConfig) llm(systemPrompt string, logger *slog.Logger) (handlers.LLM, error) {
	apiKey := g.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("groq api key is required")
	}

	model := g.Model
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	temperature := g.Temperature
	if temperature == 0 {
		temperature = 0.3
	}
	maxTokens := g.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	return services.NewGroq(apiKey, model, systemPrompt, temperature, maxTokens, logger), nil
}

func (o ollamaConfig) llm(systemPrompt string, _ *slog.Logger) (handlers.LLM, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	host := o.Host
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	return services.NewOllama(host, o.Model, systemPrompt), nil
}
