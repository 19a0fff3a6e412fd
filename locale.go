package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Locale struct {
	translations map[string]string
	locale       string
}

var globalLocale *Locale

// defaultMessages are the built-in en_US strings. A lang/<locale>.yaml file
// next to the executable overrides individual keys (pt_BR is the natural
// override for this site).
var defaultMessages = map[string]string{
	"banner_title":          "Loterias Online Purchase Assistant",
	"dry_run_mode":          "🧪 DRY RUN MODE - Will stop before the final payment submit",
	"debug_mode":            "🔍 DEBUG MODE - Detailed logging enabled",
	"stdin_not_interactive": "⚠️  stdin is not a terminal; code prompts will read piped input",
	"interrupt_received":    "Interrupt received, closing browser...",
	"artifacts_at":          "Artifacts: %s",
	"run_success":           "SUCCESS",
	"run_failed":            "FAILED",
	"run_failed_reason":     "Reason: %v",

	"cleaning_up":                 "🧹 Cleaning up browser session...",
	"browser_destroyed":           "✓ Browser session closed",
	"browser_launching":           "🚀 Launching browser...",
	"browser_using_system_chrome": "✓ Using system Chrome",
	"browser_chrome_not_found":    "System Chrome not found, downloading Chromium...",
	"windows_leakless_disabled":   "ℹ️  Leakless mode disabled on Windows",
	"browser_launched":            "✓ Browser ready",
	"browser_closed_by_user":      "Browser window was closed",
	"shutting_down":               "Shutting down...",

	"prompt_login_code":   "Enter login email code:",
	"prompt_payment_code": "Enter payment code:",
	"prompt_empty_retry":  "Code cannot be empty, try again.",
}

// InitLocale initializes the global locale system. Override files are
// optional; without one the embedded en_US strings are used.
func InitLocale() error {
	locale := DetectSystemLocale()

	l, err := LoadLocale(locale)
	if err != nil {
		globalLocale = &Locale{translations: defaultMessages, locale: "en_US"}
		return nil
	}

	globalLocale = l
	return nil
}

// DetectSystemLocale detects the user's system locale
func DetectSystemLocale() string {
	for _, env := range []string{"LANG", "LC_ALL", "LC_MESSAGES"} {
		if locale := os.Getenv(env); locale != "" {
			// Typically like "pt_BR.UTF-8"
			parts := strings.Split(locale, ".")
			if len(parts) > 0 && parts[0] != "" {
				return parts[0]
			}
		}
	}

	return "en_US"
}

// LoadLocale loads a locale override file from the lang/ directory next to
// the executable.
func LoadLocale(locale string) (*Locale, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	return LoadLocaleFrom(filepath.Join(filepath.Dir(exePath), "lang"), locale)
}

// LoadLocaleFrom loads a locale file from an explicit directory, merging it
// over the embedded defaults.
func LoadLocaleFrom(dir, locale string) (*Locale, error) {
	localeFile := filepath.Join(dir, locale+".yaml")

	data, err := os.ReadFile(localeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read locale file %s: %w", localeFile, err)
	}

	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse locale file %s: %w", localeFile, err)
	}

	translations := make(map[string]string, len(defaultMessages)+len(overrides))
	for key, value := range defaultMessages {
		translations[key] = value
	}
	for key, value := range overrides {
		translations[key] = value
	}

	return &Locale{
		translations: translations,
		locale:       locale,
	}, nil
}

// T translates a key with optional fmt.Sprintf parameters. Unknown keys are
// returned as-is.
func T(key string, params ...interface{}) string {
	translations := defaultMessages
	if globalLocale != nil {
		translations = globalLocale.translations
	}

	translation, ok := translations[key]
	if !ok {
		return key
	}

	if len(params) > 0 {
		return fmt.Sprintf(translation, params...)
	}

	return translation
}

// GetLocale returns the current locale code (e.g., "en_US", "pt_BR")
func GetLocale() string {
	if globalLocale == nil {
		return "en_US"
	}
	return globalLocale.locale
}
