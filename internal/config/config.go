package config

import (
	"os"
	"strconv"
)

func Load() (*Config, error) {
	canonPath := os.Getenv("WOS_CANON")
	if canonPath == "" {
		canonPath = "canon.db"
	}

	registryPath := os.Getenv("WOS_REGISTRY")
	if registryPath == "" {
		registryPath = "registry.db"
	}

	artifactsDir := os.Getenv("WOS_ARTIFACTS")
	if artifactsDir == "" {
		artifactsDir = "artifacts"
	}

	timezone := os.Getenv("TZ")
	if timezone == "" {
		timezone = "UTC"
	}

	return &Config{
		CanonPath:    canonPath,
		RegistryPath: registryPath,
		ArtifactsDir: artifactsDir,
		IntentsFile:  os.Getenv("WOS_INTENTS"),
		Timezone:     timezone,
		LLM:          loadLLMConfig(),
		Embedder:     loadEmbedderConfig(),
		Workflow:     loadWorkflowConfig(),
		Workspace:    loadWorkspaceConfig(),
		Notify:       loadNotifyConfig(),
		Storage:      loadStorageConfig(),
		Server:       loadServerConfig(),
	}, nil
}

func loadLLMConfig() LLMConfig {
	provider := os.Getenv("LLM_PROVIDER")

	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" && provider == "claude" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" && provider == "openai" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	return LLMConfig{
		Provider: provider,
		APIKey:   apiKey,
		BaseURL:  os.Getenv("LLM_BASE_URL"),
		Model:    os.Getenv("LLM_MODEL"),
	}
}

func loadEmbedderConfig() EmbedderConfig {
	provider := os.Getenv("EMBEDDER_PROVIDER")

	apiKey := os.Getenv("EMBEDDER_API_KEY")
	if apiKey == "" && provider == "openai" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	return EmbedderConfig{
		Provider: provider,
		APIKey:   apiKey,
		BaseURL:  os.Getenv("EMBEDDER_BASE_URL"),
		Model:    os.Getenv("EMBEDDER_MODEL"),
	}
}

func loadWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		BaseURL: os.Getenv("N8N_BASE_URL"),
		APIKey:  os.Getenv("N8N_API_KEY"),
	}
}

func loadWorkspaceConfig() WorkspaceConfig {
	return WorkspaceConfig{
		Token:      os.Getenv("NOTION_API_KEY"),
		DatabaseID: os.Getenv("NOTION_APPROVAL_DB"),
		BaseURL:    os.Getenv("NOTION_BASE_URL"),
	}
}

func loadNotifyConfig() NotifyConfig {
	chatID, _ := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)

	return NotifyConfig{
		Channel:        os.Getenv("NOTIFY_CHANNEL"),
		Token:          os.Getenv("NOTIFY_TOKEN"),
		TelegramChatID: chatID,
		DiscordChannel: os.Getenv("DISCORD_CHANNEL_ID"),
	}
}

func loadStorageConfig() StorageConfig {
	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")

	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "minio:9000"
	}

	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "wos-artifacts"
	}

	return StorageConfig{
		Enabled:   accessKey != "" && secretKey != "",
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Bucket:    bucket,
		UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
	}
}

func loadServerConfig() ServerConfig {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return ServerConfig{Port: port}
}
