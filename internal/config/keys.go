package config

import "os"

// CredentialSource represents where a credential value comes from.
type CredentialSource string

const (
	SourceEnv    CredentialSource = "env"
	SourceConfig CredentialSource = "config"
	SourceNone   CredentialSource = "none"
)

// CredentialStatus represents the status of one broker credential.
type CredentialStatus struct {
	Name   string           `json:"name"`
	Source CredentialSource `json:"source"`
	IsSet  bool             `json:"is_set"`
	Masked string           `json:"masked,omitempty"` // e.g., "P52...xyz"
}

// CheckCredentials returns the status of every broker credential the
// live-price pipeline needs.
func CheckCredentials(cfg *Config) []CredentialStatus {
	return []CredentialStatus{
		checkCredential("SmartAPI Key", cfg.Broker.APIKey, "GOLDPULSE_BROKER_API_KEY"),
		checkCredential("Client Code", cfg.Broker.ClientCode, "GOLDPULSE_BROKER_CLIENT_CODE"),
		checkCredential("MPIN", cfg.Broker.MPIN, "GOLDPULSE_BROKER_MPIN"),
		checkCredential("TOTP Secret", cfg.Broker.TOTPSecret, "GOLDPULSE_BROKER_TOTP_SECRET"),
	}
}

// checkCredential checks if a credential is set and where it came from.
func checkCredential(name, value, envVar string) CredentialStatus {
	status := CredentialStatus{
		Name:  name,
		IsSet: value != "",
	}

	if value != "" {
		if os.Getenv(envVar) != "" {
			status.Source = SourceEnv
		} else {
			status.Source = SourceConfig
		}
		status.Masked = maskValue(value)
	} else {
		status.Source = SourceNone
	}

	return status
}

// maskValue masks a credential for display, showing only first 3 and last 3 chars.
func maskValue(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:3] + "..." + value[len(value)-3:]
}
