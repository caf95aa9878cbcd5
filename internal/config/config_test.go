package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Bot: BotConfig{
			Token:    "test-token",
			Language: "ua",
		},
		Media: MediaConfig{
			MaxDurationMinutes: 12,
			MaxFileSizeMB:      50,
			TargetSizeMB:       40,
		},
	}
}

func TestConfig_Validate_Success(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate() should pass, got %v", err)
	}
}

func TestConfig_Validate_MissingToken(t *testing.T) {
	cfg := validConfig()
	cfg.Bot.Token = ""

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail for missing BOT_TOKEN")
	}
}

func TestConfig_Validate_UnknownLanguage(t *testing.T) {
	cfg := validConfig()
	cfg.Bot.Language = "de"

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail for unsupported language")
	}
}

func TestConfig_Validate_TargetNotBelowCeiling(t *testing.T) {
	cfg := validConfig()
	cfg.Media.TargetSizeMB = 50

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail when target size is not below the size ceiling")
	}
}

func TestServerConfig_Address(t *testing.T) {
	tests := []struct {
		name string
		cfg  ServerConfig
		want string
	}{
		{
			name: "default",
			cfg:  ServerConfig{Host: "0.0.0.0", Port: 8099},
			want: "0.0.0.0:8099",
		},
		{
			name: "localhost",
			cfg:  ServerConfig{Host: "localhost", Port: 8080},
			want: "localhost:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Address(); got != tt.want {
				t.Errorf("Address() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMediaConfig_DerivedValues(t *testing.T) {
	cfg := MediaConfig{
		MaxDurationMinutes: 12,
		MaxFileSizeMB:      50,
		TargetSizeMB:       40,
	}

	if got := cfg.MaxDuration(); got != 12*time.Minute {
		t.Errorf("MaxDuration() = %v, want %v", got, 12*time.Minute)
	}
	if got := cfg.MaxFileSizeBytes(); got != 50*1024*1024 {
		t.Errorf("MaxFileSizeBytes() = %d, want %d", got, 50*1024*1024)
	}
	if got := cfg.TargetSizeBytes(); got != 40*1024*1024 {
		t.Errorf("TargetSizeBytes() = %d, want %d", got, 40*1024*1024)
	}
}

func TestLoad_FromYAMLFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
bot:
  token: "yaml-token"
  language: "en"
media:
  throttle_threshold: 5
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Bot.Token != "yaml-token" {
		t.Errorf("Token = %q, want %q", cfg.Bot.Token, "yaml-token")
	}
	if cfg.Bot.Language != "en" {
		t.Errorf("Language = %q, want %q", cfg.Bot.Language, "en")
	}
	if cfg.Media.ThrottleThreshold != 5 {
		t.Errorf("ThrottleThreshold = %d, want 5", cfg.Media.ThrottleThreshold)
	}
	// Defaults still applied to fields the file omits
	if cfg.Media.MaxFileSizeMB != 50 {
		t.Errorf("MaxFileSizeMB = %d, want default 50", cfg.Media.MaxFileSizeMB)
	}
	if cfg.Media.ThrottleDelay != 15*time.Second {
		t.Errorf("ThrottleDelay = %v, want default 15s", cfg.Media.ThrottleDelay)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
bot:
  token: "yaml-token"
media:
  max_file_size_mb: 50
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("MAX_FILE_SIZE_MB", "45")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Bot.Token != "env-token" {
		t.Errorf("Token should be from env, got %q", cfg.Bot.Token)
	}
	if cfg.Media.MaxFileSizeMB != 45 {
		t.Errorf("MaxFileSizeMB should be from env, got %d", cfg.Media.MaxFileSizeMB)
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("BOT_TOKEN", "test-token")
	t.Setenv("ALLOWED_CHAT_IDS", "-100123,42")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Bot.Token != "test-token" {
		t.Errorf("Token = %q, want %q", cfg.Bot.Token, "test-token")
	}
	if len(cfg.Access.AllowedChatIDs) != 2 || cfg.Access.AllowedChatIDs[0] != -100123 {
		t.Errorf("AllowedChatIDs = %v, want [-100123 42]", cfg.Access.AllowedChatIDs)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	invalidYAML := `
bot:
  token: "unterminated
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Load should fail for invalid YAML")
	}
}

func TestLoad_NonexistentFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Load should fail for nonexistent file")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	if _, err := Load(""); err == nil {
		t.Error("Load should fail validation without BOT_TOKEN")
	}
}
