package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full run configuration. Secrets and per-run values come
// from an env-style file (.env); selector overrides come from a YAML file
// that is written out with defaults on first run.
type Config struct {
	BaseURL     string
	Headless    bool
	SlowMoMs    int
	TimeoutMs   int
	UserDataDir string

	Username string
	Password string

	FavoriteName     string
	ExpectedTotal    string
	ExpectedCentavos int64

	CardHolder     string
	CardNumber     string
	CardExpMonth   string
	CardExpYear    string
	CardCVV        string
	UseSavedCard   bool
	SavedCardText  string
	SavedCardLast4 string

	DryRun    bool
	DebugMode bool

	Selectors SelectorConfig
}

// SelectorConfig holds CSS selector overrides and the visible-text
// fallbacks used when no selector is configured. Empty selectors mean
// "use the built-in candidate lists".
type SelectorConfig struct {
	LoginUsername  string `yaml:"login_username"`
	LoginNext      string `yaml:"login_next"`
	LoginNextText  string `yaml:"login_next_text"`
	LoginPassword  string `yaml:"login_password"`
	LoginSubmit    string `yaml:"login_submit"`
	LoginOTPInput  string `yaml:"login_otp_input"`
	LoginOTPSubmit string `yaml:"login_otp_submit"`

	CookieAccept       string `yaml:"cookie_accept"`
	CookieAcceptText   string `yaml:"cookie_accept_text"`
	AgeGatePromptText  string `yaml:"age_gate_prompt_text"`
	AgeGateConfirm     string `yaml:"age_gate_confirm"`
	AgeGateConfirmText string `yaml:"age_gate_confirm_text"`
	AccessLogin        string `yaml:"access_login"`
	AccessLoginText    string `yaml:"access_login_text"`
	EnterSite          string `yaml:"enter_site"`
	EnterSiteText      string `yaml:"enter_site_text"`

	AccountMenu     string `yaml:"account_menu"`
	AccountMenuText string `yaml:"account_menu_text"`

	FavoritesEntry         string `yaml:"favorites_entry"`
	FavoritesEntryText     string `yaml:"favorites_entry_text"`
	FavoritesAddButton     string `yaml:"favorites_add_button"`
	FavoritesAddButtonText string `yaml:"favorites_add_button_text"`

	CartEntry     string `yaml:"cart_entry"`
	CartEntryText string `yaml:"cart_entry_text"`

	CheckoutButton     string `yaml:"checkout_button"`
	CheckoutButtonText string `yaml:"checkout_button_text"`
	Total              string `yaml:"total"`

	SavedCard    string `yaml:"saved_card"`
	CardHolder   string `yaml:"card_holder"`
	CardNumber   string `yaml:"card_number"`
	CardExpMonth string `yaml:"card_exp_month"`
	CardExpYear  string `yaml:"card_exp_year"`
	CardCVV      string `yaml:"card_cvv"`

	PaySubmit     string `yaml:"pay_submit"`
	PaySubmitText string `yaml:"pay_submit_text"`

	PaymentOTPInput  string `yaml:"payment_otp_input"`
	PaymentOTPSubmit string `yaml:"payment_otp_submit"`

	SuccessText string `yaml:"success_text"`
	FailureText string `yaml:"failure_text"`
}

func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		LoginNextText:          "Próximo",
		CookieAcceptText:       "Aceitar",
		AgeGatePromptText:      "Você tem mais de 18 anos?",
		AgeGateConfirmText:     "Sim",
		AccessLoginText:        "Acessar",
		AccountMenuText:        "Minha Conta",
		FavoritesEntryText:     "Carrinhos favoritos",
		FavoritesAddButtonText: "Adicionar",
		CartEntryText:          "Carrinho",
		CheckoutButtonText:     "Finalizar",
		PaySubmitText:          "Pagar",
		SuccessText:            "Pagamento realizado",
		FailureText:            "Pagamento recusado",
	}
}

// requiredEnvKeys must be present (non-empty) before a browser is launched.
var requiredEnvKeys = []string{
	"CAIXA_USERNAME",
	"CAIXA_PASSWORD",
	"FAVORITE_ITEM_NAME_EXACT",
	"EXPECTED_TOTAL",
	"CARD_HOLDER_NAME",
	"CARD_NUMBER",
	"CARD_EXP_MONTH",
	"CARD_EXP_YEAR",
	"CARD_CVV",
}

// LoadConfig loads the env layer (envPath, optional: real environment
// variables also count) and the selector layer (selectorsPath, created with
// defaults when missing).
func LoadConfig(envPath, selectorsPath string) (*Config, error) {
	// Values already exported in the environment win over the file,
	// matching godotenv's non-override load.
	_ = godotenv.Load(envPath)

	var missing []string
	required := func(name string) string {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			missing = append(missing, name)
		}
		return v
	}

	config := &Config{
		BaseURL:     optionalEnv("BASE_URL", "https://www.loteriasonline.caixa.gov.br/silce-web/#/home"),
		Headless:    boolEnv("HEADLESS", false),
		SlowMoMs:    intEnv("SLOW_MO_MS", 150),
		TimeoutMs:   intEnv("TIMEOUT_MS", 30000),
		UserDataDir: optionalEnv("USER_DATA_DIR", ".rod-profile"),

		Username: required("CAIXA_USERNAME"),
		Password: required("CAIXA_PASSWORD"),

		FavoriteName:  required("FAVORITE_ITEM_NAME_EXACT"),
		ExpectedTotal: required("EXPECTED_TOTAL"),

		CardHolder:     required("CARD_HOLDER_NAME"),
		CardNumber:     required("CARD_NUMBER"),
		CardExpMonth:   required("CARD_EXP_MONTH"),
		CardExpYear:    required("CARD_EXP_YEAR"),
		CardCVV:        required("CARD_CVV"),
		UseSavedCard:   boolEnv("USE_SAVED_CARD", true),
		SavedCardText:  optionalEnv("SAVED_CARD_TEXT", ""),
		SavedCardLast4: optionalEnv("SAVED_CARD_LAST4", ""),
	}

	if len(missing) > 0 {
		return nil, stepErr("config", KindConfigMissing,
			"missing required env vars: %s", strings.Join(missing, ", "))
	}

	centavos, err := ParseMoney(config.ExpectedTotal)
	if err != nil {
		return nil, stepErr("config", KindConfigMissing,
			"EXPECTED_TOTAL is not a valid amount: %v", err)
	}
	config.ExpectedCentavos = centavos

	selectors, err := LoadSelectors(selectorsPath)
	if err != nil {
		return nil, err
	}
	config.Selectors = selectors

	return config, nil
}

// LoadSelectors reads the selector override file, writing one with defaults
// first when it does not exist yet.
func LoadSelectors(path string) (SelectorConfig, error) {
	selectors := DefaultSelectors()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveSelectors(path, selectors); err != nil {
			return selectors, err
		}
		return selectors, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return selectors, err
	}

	if err := yaml.Unmarshal(data, &selectors); err != nil {
		return selectors, err
	}

	return selectors, nil
}

func SaveSelectors(path string, selectors SelectorConfig) error {
	data, err := yaml.Marshal(selectors)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func optionalEnv(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func boolEnv(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func intEnv(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// MaskCard hides all but the last four digits of a card number for logging.
func MaskCard(cardNumber string) string {
	var digits []byte
	for i := 0; i < len(cardNumber); i++ {
		if cardNumber[i] >= '0' && cardNumber[i] <= '9' {
			digits = append(digits, cardNumber[i])
		}
	}

	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + string(digits[len(digits)-4:])
}
