package keyring

import (
	"fmt"
	"os"

	zkr "github.com/zalando/go-keyring"
)

const serviceName = "twotruths"

// APIKey retrieves the stored model API key for a provider from the OS
// keychain.
func APIKey(provider string) (string, error) {
	key, err := zkr.Get(serviceName, provider+"-api-key")
	if err != nil {
		return "", fmt.Errorf("keychain get: %w", err)
	}
	return key, nil
}

// SetAPIKey stores a model API key for a provider in the OS keychain.
func SetAPIKey(provider, key string) error {
	return zkr.Set(serviceName, provider+"-api-key", key)
}

// DeleteAPIKey removes a provider's API key from the OS keychain.
func DeleteAPIKey(provider string) error {
	return zkr.Delete(serviceName, provider+"-api-key")
}

// Available returns true if the OS keychain is functional.
// Returns false if TWOTRUTHS_KEYRING_DISABLED=1 is set (opt-in for
// headless/CI/Docker). Otherwise probes the keychain with a test
// write/delete cycle.
func Available() bool {
	if os.Getenv("TWOTRUTHS_KEYRING_DISABLED") == "1" {
		return false
	}
	testService := "twotruths-keyring-probe"
	testAccount := "probe"
	if err := zkr.Set(testService, testAccount, "ok"); err != nil {
		return false
	}
	_ = zkr.Delete(testService, testAccount)
	return true
}
