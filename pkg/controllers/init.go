package controllers

import (
	"fmt"
	"os"
	"strings"

	"github.com/killallgit/oracle/pkg/config"
	"github.com/killallgit/oracle/pkg/endpoint"
	"github.com/killallgit/oracle/pkg/logger"
)

// InitConfig contains configuration for controller initialization.
// Non-empty fields override the loaded Config.
type InitConfig struct {
	Config               *config.Config
	Model                string
	EndpointURL          string
	DeveloperMessagePath string
}

// InitializeConversationController builds the endpoint client and a
// controller from configuration.
func InitializeConversationController(cfg *InitConfig) (*ConversationController, error) {
	log := logger.WithComponent("controller_init")

	if cfg.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	settings := cfg.Config

	model := cfg.Model
	if model == "" {
		model = settings.Chat.Model
	}

	endpointSettings := settings.Endpoint
	if cfg.EndpointURL != "" {
		endpointSettings.URL = cfg.EndpointURL
	}
	url, err := endpointSettings.ResolveURL()
	if err != nil {
		return nil, err
	}

	apiKey, err := endpointSettings.ResolveAPIKey()
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		log.Warn("No API key configured; requests will carry an empty api_key")
	}

	developerMessage := settings.Chat.DeveloperMessage
	if cfg.DeveloperMessagePath != "" {
		loaded, err := loadDeveloperMessage(cfg.DeveloperMessagePath)
		if err != nil {
			return nil, err
		}
		developerMessage = loaded
	}

	client := endpoint.NewClient(url, endpoint.WithTimeout(endpointSettings.Timeout))
	log.Debug("Created endpoint client",
		"url", url,
		"model", model,
		"timeout", endpointSettings.Timeout.String())

	return NewConversationController(client, Options{
		Model:            model,
		DeveloperMessage: developerMessage,
		APIKey:           apiKey,
		WelcomeMessage:   settings.Chat.WelcomeMessage,
	}), nil
}

// loadDeveloperMessage reads the developer message from a file
func loadDeveloperMessage(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read developer message file: %w", err)
	}

	message := strings.TrimSpace(string(content))
	if message == "" {
		return "", fmt.Errorf("developer message file %s is empty", path)
	}
	return message, nil
}
