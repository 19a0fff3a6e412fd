package main

import (
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
)

const paymentOTPModalSelector = "#confirm-cancel-cvv"

func (a *Automation) isCartPage() bool {
	return a.textExists("Carrinho de Apostas", 900*time.Millisecond) ||
		a.textExists("Apostas Individuais", 900*time.Millisecond) ||
		a.textExists("Ir pra pagamento", 900*time.Millisecond)
}

func (a *Automation) isFavoritesPage() bool {
	return a.textExists("Carrinhos Favoritos", 700*time.Millisecond)
}

func (a *Automation) isHomeProductsPage() bool {
	return a.textExists("Todos os produtos", 700*time.Millisecond)
}

func (a *Automation) confirmationModalVisible() bool {
	return a.anyVisible([]string{
		".modal.in", ".modal.show", "[role='dialog']", ".sweet-alert.visible",
	}, 700*time.Millisecond)
}

func (a *Automation) isCheckoutOrPaymentPage() bool {
	url := strings.ToLower(a.currentURL())
	if strings.Contains(url, "pagamento") {
		return true
	}

	if a.textExists("Forma de Pagamento", 700*time.Millisecond) {
		return true
	}

	if a.confirmationModalVisible() && a.textExists("Confirma", 700*time.Millisecond) {
		return true
	}

	if a.isHomeProductsPage() || a.isFavoritesPage() || a.isCartPage() {
		return false
	}

	payText := a.config.Selectors.PaySubmitText
	if payText == "" {
		payText = "Pagar"
	}
	if a.textExists(payText, 700*time.Millisecond) {
		return true
	}

	s := a.config.Selectors
	paymentFields := []string{
		s.CardNumber,
		s.CardHolder,
		s.CardCVV,
		"input[name='cardNumber']",
		"input[autocomplete='cc-number']",
		"input[name='cvv']",
		"input[autocomplete='cc-csc']",
	}
	return a.anyVisible(paymentFields, 700*time.Millisecond)
}

// navigateCartRoutes falls back to the SPA's hash routes when no cart
// control can be clicked.
func (a *Automation) navigateCartRoutes() bool {
	current := a.currentURL()
	if current == "" {
		return false
	}

	base := strings.SplitN(current, "#", 2)[0]
	for _, route := range []string{"#/carrinho", "#/cart", "#/checkout"} {
		target := base + route

		page := a.page.Timeout(15 * time.Second)
		if err := page.Navigate(target); err != nil {
			page.CancelTimeout()
			continue
		}
		_ = page.WaitLoad()
		page.CancelTimeout()

		if a.isFavoritesPage() {
			continue
		}
		if a.textExists("Finalizar", 1200*time.Millisecond) || a.textExists("Pagamento", 1200*time.Millisecond) {
			a.logf("Opened cart by direct route: %s", target)
			return true
		}
	}

	return false
}

func (a *Automation) openCart() bool {
	s := a.config.Selectors

	if strings.TrimSpace(s.CartEntry) != "" {
		if a.clickIfPresent([]string{s.CartEntry}, 2200*time.Millisecond) {
			a.pause(500)
			if a.isCartPage() {
				a.logf("Opened cart by configured selector")
				return true
			}
		}
	}

	cartSelectors := []string{
		"nav .navbar-right a:has(.fa-shopping-cart)",
		"nav .navbar-right button:has(.fa-shopping-cart)",
		"a:has(.fa-shopping-cart)",
		"button:has(.fa-shopping-cart)",
		"a[href*='carrinho' i]",
		"a[href*='cart' i]",
		"[data-testid*='cart' i]",
	}
	for _, sel := range cartSelectors {
		if a.clickIfPresent([]string{sel}, probeTimeout) {
			a.pause(500)
			if a.isCartPage() {
				a.logf("Opened cart using selector: %s", sel)
				return true
			}
		}
	}

	// "Carrinho" but not "Carrinhos favoritos".
	if a.clickIfPresentPattern(`/\bcarrinho\b(?!s?\s+favorit)|\bcart\b/i`, probeTimeout) {
		a.pause(500)
		if a.isCartPage() {
			a.logf("Opened cart by text pattern")
			return true
		}
	}

	if s.CartEntryText != "" && a.clickIfPresentText(s.CartEntryText, probeTimeout) {
		a.pause(500)
		if a.isCartPage() {
			a.logf("Opened cart by configured text: %s", s.CartEntryText)
			return true
		}
	}

	return a.navigateCartRoutes()
}

// handleCheckoutConfirmationModal confirms the "are you sure" modal the
// site raises between cart and payment. Best effort.
func (a *Automation) handleCheckoutConfirmationModal() {
	if !a.confirmationModalVisible() && !a.textExists("Confirma", 700*time.Millisecond) {
		return
	}

	if a.clickIfPresentPattern(`/\bconfirmar\b|\bsim\b|\bcontinuar\b/i`, 2*time.Second) {
		a.logf("Confirmed checkout modal")
		a.pause(500)
	}
}

func (a *Automation) clickCheckout() bool {
	s := a.config.Selectors

	tryOne := func(clicked bool, how string) bool {
		if !clicked {
			return false
		}
		a.pause(700)
		a.handleCheckoutConfirmationModal()
		if a.isCheckoutOrPaymentPage() {
			a.logf("Opened checkout %s", how)
			return true
		}
		return false
	}

	if strings.TrimSpace(s.CheckoutButton) != "" {
		if tryOne(a.clickIfPresent([]string{s.CheckoutButton}, 2500*time.Millisecond), "by configured selector") {
			return true
		}
	}

	if tryOne(a.clickIfPresentPattern(`/ir\s+pra\s+pagamento/i`, 2500*time.Millisecond), "by explicit payment CTA") {
		return true
	}

	if tryOne(a.clickIfPresentPattern(`/finalizar|checkout|pagamento|fechar pedido/i`, 2500*time.Millisecond), "by text pattern") {
		return true
	}

	for _, text := range []string{s.CheckoutButtonText, "Finalizar", "Pagamento"} {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if tryOne(a.clickIfPresentText(text, 2*time.Second), "by text: "+text) {
			return true
		}
	}

	return false
}

// totalSelectors are probed when no explicit total selector is configured.
var totalSelectors = []string{
	"[data-testid='cart-total']",
	".total-value",
	".cart-total",
	".valor-total",
	"td.total",
	"span.total",
}

// ValidateTotal reads the displayed checkout total and compares it to the
// configured expected amount, in centavos. Mismatch aborts the run before
// any payment interaction.
func (a *Automation) ValidateTotal() error {
	selectors := totalSelectors
	if s := strings.TrimSpace(a.config.Selectors.Total); s != "" {
		selectors = []string{s}
	}

	el := a.firstVisible(selectors, 5*time.Second)
	if el == nil {
		// No recognizable total element; fall back to exact text presence.
		if a.textExists(a.config.ExpectedTotal, 5*time.Second) {
			a.logf("Expected total %q found on page", a.config.ExpectedTotal)
			return nil
		}
		return stepErr("checkout", KindElementNotFound,
			"displayed total not found on page, expected %q", a.config.ExpectedTotal)
	}

	text, err := el.Timeout(5 * time.Second).Text()
	if err != nil {
		return stepErr("checkout", KindElementNotFound, "failed to read total: %v", err)
	}

	actual, err := ParseMoney(text)
	if err != nil {
		return stepErr("checkout", KindTotalMismatch,
			"displayed total %q is not a parseable amount: %v", strings.TrimSpace(text), err)
	}

	if actual != a.config.ExpectedCentavos {
		return stepErr("checkout", KindTotalMismatch,
			"expected total %q, got %q", a.config.ExpectedTotal, strings.TrimSpace(text))
	}

	a.logf("Checkout total validated: %s", FormatMoney(actual))
	return nil
}

func (a *Automation) paymentSubmitVisible() bool {
	s := a.config.Selectors

	if strings.TrimSpace(s.PaySubmit) != "" && a.anyVisible([]string{s.PaySubmit}, 700*time.Millisecond) {
		return true
	}

	payText := s.PaySubmitText
	if payText == "" {
		payText = "Pagar"
	}
	return a.textExists(payText, 700*time.Millisecond)
}

func (a *Automation) waitForPaymentSubmit(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if a.paymentSubmitVisible() {
			return true
		}
		a.pause(250)
	}
	return false
}

// selectSavedCardByLast4 scans clickable card entries for one ending in the
// configured digits.
func (a *Automation) selectSavedCardByLast4(last4 string) bool {
	if a.clickIfPresentPattern(`/`+last4+`\s*$|final\s*`+last4+`/i`, 2200*time.Millisecond) {
		a.logf("Selected saved card ending in %s", last4)
		return true
	}
	return false
}

func (a *Automation) selectAnySavedCard() bool {
	candidates := []string{
		"[data-testid*='saved-card']",
		".saved-card",
		".cartao-salvo",
		"input[type='radio'][name*='card' i]",
		"input[type='radio'][name*='cartao' i]",
	}
	if a.clickIfPresent(candidates, 2*time.Second) {
		a.logf("Selected a saved card entry")
		return true
	}
	return false
}

// selectOrFillCard prepares the payment method: a saved card when one is
// configured and clickable, the card form otherwise.
func (a *Automation) selectOrFillCard() error {
	s := a.config.Selectors

	// The payment page groups methods; make sure credit card is active.
	if a.textExists("Cartão de crédito", time.Second) {
		a.clickIfPresentPattern(`/cart[aã]o de cr[eé]dito/i`, 1200*time.Millisecond)
	}

	if a.config.UseSavedCard {
		if strings.TrimSpace(s.SavedCard) != "" {
			if a.clickIfPresent([]string{s.SavedCard}, 2200*time.Millisecond) {
				a.logf("Selected saved card by configured selector")
				a.waitForPaymentSubmit(5 * time.Second)
				return nil
			}
		}
		if a.config.SavedCardText != "" && a.clickIfPresentText(a.config.SavedCardText, 2200*time.Millisecond) {
			a.logf("Selected saved card by text")
			a.waitForPaymentSubmit(5 * time.Second)
			return nil
		}
		if a.config.SavedCardLast4 != "" && a.selectSavedCardByLast4(a.config.SavedCardLast4) {
			a.waitForPaymentSubmit(5 * time.Second)
			return nil
		}
		if a.selectAnySavedCard() {
			a.waitForPaymentSubmit(5 * time.Second)
			return nil
		}
		a.logf("USE_SAVED_CARD=true but no saved card was clickable; falling back to card form")
	}

	fields := []struct {
		value     string
		selectors []string
		name      string
	}{
		{a.config.CardHolder, []string{s.CardHolder, "input[name='cardHolder']", "input[name='holderName']", "input[autocomplete='cc-name']"}, "card holder"},
		{a.config.CardNumber, []string{s.CardNumber, "input[name='cardNumber']", "input[autocomplete='cc-number']", "input[inputmode='numeric']"}, "card number"},
		{a.config.CardExpMonth, []string{s.CardExpMonth, "input[name='expMonth']", "input[autocomplete='cc-exp-month']"}, "expiry month"},
		{a.config.CardExpYear, []string{s.CardExpYear, "input[name='expYear']", "input[autocomplete='cc-exp-year']", "input[autocomplete='cc-exp']"}, "expiry year"},
		{a.config.CardCVV, []string{s.CardCVV, "input[name='cvv']", "input[name='securityCode']", "input[autocomplete='cc-csc']"}, "cvv"},
	}

	for _, f := range fields {
		if _, err := a.fillFirst(f.value, f.selectors, 2*time.Second); err != nil {
			return stepErr("payment", KindElementNotFound, "%s field: %v", f.name, err)
		}
	}

	return nil
}

func (a *Automation) clickPaymentSubmit() bool {
	s := a.config.Selectors

	if strings.TrimSpace(s.PaySubmit) != "" && a.clickIfPresent([]string{s.PaySubmit}, 2500*time.Millisecond) {
		a.logf("Clicked payment submit by configured selector")
		return true
	}

	payText := s.PaySubmitText
	if payText == "" {
		payText = "Pagar"
	}
	if a.clickIfPresentText(payText, 2500*time.Millisecond) {
		a.logf("Clicked payment submit by text: %s", payText)
		return true
	}

	return false
}

// paymentOTPModal returns the visible challenge-code modal, or nil.
func (a *Automation) paymentOTPModal() *rod.Element {
	return a.firstVisible([]string{paymentOTPModalSelector}, 4*time.Second)
}

func paymentOTPInputSelectors(c *Config) []string {
	return []string{
		c.Selectors.PaymentOTPInput,
		"input[name='cvv']",
		"input[name*='codigo']",
		"input[id*='codigo']",
		"input[placeholder*='código']",
		"input[placeholder*='codigo']",
		"input[inputmode='numeric']",
		"input[type='tel']",
		"input[type='password']",
		"input[type='text']",
	}
}

// fillPaymentOTP fills the challenge code strictly inside the confirmation
// modal. No fallback: the code must never be typed into any other field on
// a payment page.
func (a *Automation) fillPaymentOTP(code string) error {
	modal := a.paymentOTPModal()
	if modal == nil {
		return stepErr("payment", KindElementNotFound,
			"payment code modal %q not found; refusing to fill code outside the modal",
			paymentOTPModalSelector)
	}

	field := firstVisibleIn(modal, paymentOTPInputSelectors(a.config))
	if field == nil {
		return stepErr("payment", KindElementNotFound,
			"payment code input is not visible inside the confirmation modal")
	}

	_ = field.SelectAllText()
	if err := field.Timeout(3 * time.Second).Input(code); err != nil {
		return stepErr("payment", KindElementNotFound, "failed to type payment code: %v", err)
	}

	return nil
}

var paymentOTPDismissWords = []string{"cancelar", "fechar", "voltar", "sair"}

// clickPaymentOTPSubmit clicks the confirm action inside the modal,
// skipping anything that looks like a dismiss action.
func (a *Automation) clickPaymentOTPSubmit() bool {
	if s := strings.TrimSpace(a.config.Selectors.PaymentOTPSubmit); s != "" {
		if a.clickIfPresent([]string{s}, 2500*time.Millisecond) {
			a.logf("Clicked payment code submit by configured selector")
			return true
		}
	}

	modal := a.paymentOTPModal()
	if modal == nil {
		return false
	}

	buttons, err := modal.Elements("button, a, input[type='submit']")
	if err != nil {
		return false
	}

	for _, btn := range buttons {
		if ok, _ := btn.Visible(); !ok {
			continue
		}
		text, err := btn.Timeout(time.Second).Text()
		if err != nil {
			continue
		}
		label := normalizeLabel(text)

		dismiss := false
		for _, word := range paymentOTPDismissWords {
			if strings.Contains(label, word) {
				dismiss = true
				break
			}
		}
		if dismiss {
			continue
		}

		if strings.Contains(label, "confirmar") || strings.Contains(label, "enviar") ||
			strings.Contains(label, "validar") || strings.Contains(label, "pagar") {
			if a.clickElement(btn) {
				a.logf("Clicked payment code submit: %s", strings.TrimSpace(text))
				return true
			}
		}
	}

	return false
}

func (a *Automation) paymentOTPModalStillVisible() bool {
	return a.anyVisible([]string{paymentOTPModalSelector}, 700*time.Millisecond)
}

// waitForPaymentResult polls the page for the success or failure marker.
// Returns "success", "failure" or "unknown".
func (a *Automation) waitForPaymentResult(timeout time.Duration) string {
	a.logf("Waiting for payment processing confirmation")
	s := a.config.Selectors
	deadline := time.Now().Add(timeout)

	successPattern := `/pagamento realizado|aposta(s)? realizada(s)?|sucesso|comprovante/i`
	failurePattern := `/pagamento recusado|n[aã]o autorizado|falha|negado/i`

	for time.Now().Before(deadline) {
		if _, err := a.page.Info(); err != nil {
			return "unknown"
		}

		if s.SuccessText != "" && a.textExists(s.SuccessText, 400*time.Millisecond) {
			return "success"
		}
		if s.FailureText != "" && a.textExists(s.FailureText, 300*time.Millisecond) {
			return "failure"
		}

		if a.findByPattern(successPattern, 300*time.Millisecond) != nil {
			return "success"
		}
		if a.findByPattern(failurePattern, 300*time.Millisecond) != nil {
			return "failure"
		}

		a.pause(500)
	}

	return "unknown"
}

// RunCheckoutAndPayment drives the cart, total validation, payment method
// and challenge-code steps, then reports the outcome.
func (a *Automation) RunCheckoutAndPayment() error {
	a.logf("Opening cart before checkout")
	if !a.openCart() {
		return stepErr("checkout", KindElementNotFound, "could not open cart from favorites page")
	}
	if !a.isCartPage() {
		return stepErr("checkout", KindElementNotFound, "cart page was not detected after cart open click")
	}
	a.Snapshot("cart_opened")

	a.logf("Going to checkout")
	if !a.clickCheckout() {
		return stepErr("checkout", KindElementNotFound, "could not find checkout action from cart page")
	}
	a.Snapshot("checkout_opened")

	a.handleCheckoutConfirmationModal()

	a.logf("Validating expected total")
	if err := a.ValidateTotal(); err != nil {
		return err
	}

	a.handleCheckoutConfirmationModal()

	a.logf("Preparing payment method")
	if err := a.selectOrFillCard(); err != nil {
		return err
	}
	a.Snapshot("payment_form_ready")

	if a.config.DryRun {
		a.logf("Dry run: stopping before payment submit")
		a.Snapshot("dry_run_stop")
		return nil
	}

	a.logf("Submitting payment")
	a.waitForPaymentSubmit(6 * time.Second)
	if !a.clickPaymentSubmit() {
		return stepErr("payment", KindElementNotFound, "no visible payment submit button found")
	}
	a.Snapshot("payment_submitted")

	a.logf("Waiting for payment challenge code")
	code, err := PromptCode(os.Stdin, os.Stdout, T("prompt_payment_code"))
	if err != nil {
		return stepErr("payment", KindOTPRejected, "payment code: %v", err)
	}

	if err := a.fillPaymentOTP(code); err != nil {
		return err
	}
	a.pause(350)

	submitted := false
	for attempt := 1; attempt <= 2; attempt++ {
		if !a.clickPaymentOTPSubmit() {
			break
		}
		a.pause(500)
		if !a.paymentOTPModalStillVisible() {
			submitted = true
			break
		}
		if attempt < 2 {
			a.logf("Payment code modal still open; retrying confirm click")
		}
	}

	if !submitted {
		if a.paymentOTPModalStillVisible() {
			return stepErr("payment", KindOTPRejected,
				"payment code modal is still open after confirm clicks")
		}
		return stepErr("payment", KindOTPRejected,
			"payment code modal closed without processing confirmation")
	}
	a.Snapshot("payment_otp_submitted")

	switch a.waitForPaymentResult(90 * time.Second) {
	case "success":
		a.logf("Payment success text detected")
		a.Snapshot("payment_success")
		return nil
	case "failure":
		a.Snapshot("payment_failure")
		return stepErr("payment", KindPaymentDeclined,
			"payment failure text detected: %s", a.config.Selectors.FailureText)
	default:
		a.logf("Payment status not confirmed within wait timeout")
		a.Snapshot("payment_result_unknown")
		return stepErr("payment", KindTimeout,
			"payment was submitted but final confirmation was not detected within timeout")
	}
}
