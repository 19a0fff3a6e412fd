package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var testEnvContent = `CAIXA_USERNAME=12345678900
CAIXA_PASSWORD=hunter2
FAVORITE_ITEM_NAME_EXACT=Mega-Sena — Concurso 2700
EXPECTED_TOTAL=R$ 15,00
CARD_HOLDER_NAME=FULANO DE TAL
CARD_NUMBER=4111111111111111
CARD_EXP_MONTH=12
CARD_EXP_YEAR=2030
CARD_CVV=123
`

// clearRunEnv unsets every run-related var so values leaking from the test
// process environment cannot shadow the env file. A set-but-empty var would
// still block godotenv's non-override load, so the vars are removed outright
// and restored on cleanup.
func clearRunEnv(t *testing.T) {
	t.Helper()

	keys := append([]string{}, requiredEnvKeys...)
	keys = append(keys, "BASE_URL", "HEADLESS", "SLOW_MO_MS", "TIMEOUT_MS",
		"USER_DATA_DIR", "USE_SAVED_CARD", "SAVED_CARD_TEXT", "SAVED_CARD_LAST4")

	for _, key := range keys {
		key := key
		if old, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, old) })
			os.Unsetenv(key)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	clearRunEnv(t)
	dir := t.TempDir()

	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte(testEnvContent), 0600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	config, err := LoadConfig(envPath, filepath.Join(dir, "selectors.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if config.Username != "12345678900" {
		t.Errorf("Username = %q", config.Username)
	}
	if config.FavoriteName != "Mega-Sena — Concurso 2700" {
		t.Errorf("FavoriteName = %q", config.FavoriteName)
	}
	if config.ExpectedCentavos != 1500 {
		t.Errorf("ExpectedCentavos = %d, want 1500", config.ExpectedCentavos)
	}
	if !config.UseSavedCard {
		t.Error("UseSavedCard should default to true")
	}
	if config.TimeoutMs != 30000 {
		t.Errorf("TimeoutMs = %d, want default 30000", config.TimeoutMs)
	}
	if config.BaseURL == "" {
		t.Error("BaseURL should have a default")
	}
	if config.Selectors.PaySubmitText != "Pagar" {
		t.Errorf("PaySubmitText = %q, want default", config.Selectors.PaySubmitText)
	}
}

func TestLoadConfigMissingVars(t *testing.T) {
	clearRunEnv(t)
	dir := t.TempDir()

	// Only a partial env file: everything else must be reported by name.
	partial := "CAIXA_USERNAME=12345678900\nCAIXA_PASSWORD=hunter2\n"
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte(partial), 0600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	_, err := LoadConfig(envPath, filepath.Join(dir, "selectors.yaml"))
	if err == nil {
		t.Fatal("LoadConfig should fail with missing vars")
	}
	if kind := kindOf(err); kind != KindConfigMissing {
		t.Errorf("error kind = %s, want %s", kind, KindConfigMissing)
	}

	msg := err.Error()
	for _, name := range []string{"FAVORITE_ITEM_NAME_EXACT", "EXPECTED_TOTAL", "CARD_CVV"} {
		if !strings.Contains(msg, name) {
			t.Errorf("error %q should name missing var %s", msg, name)
		}
	}
	for _, name := range []string{"CAIXA_USERNAME", "CAIXA_PASSWORD"} {
		if strings.Contains(msg, name+",") || strings.HasSuffix(msg, name) {
			t.Errorf("error %q should not list provided var %s", msg, name)
		}
	}
}

func TestLoadConfigBadTotal(t *testing.T) {
	clearRunEnv(t)
	dir := t.TempDir()

	content := strings.Replace(testEnvContent, "EXPECTED_TOTAL=R$ 15,00", "EXPECTED_TOTAL=quinze reais", 1)
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	_, err := LoadConfig(envPath, filepath.Join(dir, "selectors.yaml"))
	if err == nil {
		t.Fatal("LoadConfig should reject an unparseable EXPECTED_TOTAL")
	}
	if kind := kindOf(err); kind != KindConfigMissing {
		t.Errorf("error kind = %s, want %s", kind, KindConfigMissing)
	}
}

func TestLoadSelectorsCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")

	selectors, err := LoadSelectors(path)
	if err != nil {
		t.Fatalf("LoadSelectors returned error: %v", err)
	}
	if selectors.LoginNextText != "Próximo" {
		t.Errorf("LoginNextText = %q, want default", selectors.LoginNextText)
	}
	if selectors.FavoritesAddButtonText != "Adicionar" {
		t.Errorf("FavoritesAddButtonText = %q, want default", selectors.FavoritesAddButtonText)
	}

	// The file is written out so the user can edit it for the next run.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("selectors file was not created: %v", err)
	}
	if !strings.Contains(string(data), "login_next_text") {
		t.Error("written selectors file should carry the yaml keys")
	}
}

func TestLoadSelectorsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")

	content := "total: '#checkout-total'\npay_submit_text: 'Pagar agora'\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write selectors file: %v", err)
	}

	selectors, err := LoadSelectors(path)
	if err != nil {
		t.Fatalf("LoadSelectors returned error: %v", err)
	}
	if selectors.Total != "#checkout-total" {
		t.Errorf("Total = %q, want override", selectors.Total)
	}
	if selectors.PaySubmitText != "Pagar agora" {
		t.Errorf("PaySubmitText = %q, want override", selectors.PaySubmitText)
	}
	// Untouched keys keep their defaults.
	if selectors.SuccessText != "Pagamento realizado" {
		t.Errorf("SuccessText = %q, want default", selectors.SuccessText)
	}
}

func TestLoadSelectorsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	if err := os.WriteFile(path, []byte("total: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write selectors file: %v", err)
	}

	if _, err := LoadSelectors(path); err == nil {
		t.Error("LoadSelectors should fail on invalid yaml")
	}
}

func TestBoolEnv(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"", true, true},
		{"", false, false},
		{"1", false, true},
		{"true", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"0", true, false},
		{"false", true, false},
		{"nonsense", true, false},
	}

	for _, tt := range tests {
		t.Setenv("BOOL_ENV_TEST", tt.value)
		if got := boolEnv("BOOL_ENV_TEST", tt.def); got != tt.want {
			t.Errorf("boolEnv(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.want)
		}
	}
}

func TestIntEnv(t *testing.T) {
	tests := []struct {
		value string
		def   int
		want  int
	}{
		{"", 150, 150},
		{"2500", 150, 2500},
		{"abc", 150, 150},
	}

	for _, tt := range tests {
		t.Setenv("INT_ENV_TEST", tt.value)
		if got := intEnv("INT_ENV_TEST", tt.def); got != tt.want {
			t.Errorf("intEnv(%q, %d) = %d, want %d", tt.value, tt.def, got, tt.want)
		}
	}
}

func TestMaskCard(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"4111111111111111", "************1111"},
		{"4111 1111 1111 1111", "************1111"},
		{"1234", "****"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := MaskCard(tt.input); got != tt.want {
			t.Errorf("MaskCard(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
