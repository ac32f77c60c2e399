package config

type Config struct {
	CanonPath    string
	RegistryPath string
	ArtifactsDir string
	IntentsFile  string
	Timezone     string

	LLM       LLMConfig
	Embedder  EmbedderConfig
	Workflow  WorkflowConfig
	Workspace WorkspaceConfig
	Notify    NotifyConfig
	Storage   StorageConfig
	Server    ServerConfig
}

type LLMConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

type EmbedderConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// WorkflowConfig points at the external workflow host.
type WorkflowConfig struct {
	BaseURL string
	APIKey  string
}

// WorkspaceConfig is the approval medium (Notion-compatible workspace).
type WorkspaceConfig struct {
	Token      string
	DatabaseID string
	BaseURL    string
}

type NotifyConfig struct {
	Channel        string
	Token          string
	TelegramChatID int64
	DiscordChannel string
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type ServerConfig struct {
	Port string
}
