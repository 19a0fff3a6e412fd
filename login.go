package main

import (
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/input"
)

// The login form changes between campaigns, so every field is located
// through a candidate list: configured override first, then the variants
// observed on the site.

func usernameSelectors(c *Config) []string {
	return []string{
		c.Selectors.LoginUsername,
		"input[name='username']",
		"input[autocomplete='username']",
		"input[name='cpf']",
		"input[name*='cpf']",
		"input[id*='cpf']",
		"input[placeholder*='CPF']",
		"input[placeholder*='cpf']",
		"input[aria-label*='CPF']",
		"input[aria-label*='cpf']",
		"input[type='text']",
		"input[type='email']",
	}
}

func passwordSelectors(c *Config) []string {
	return []string{
		c.Selectors.LoginPassword,
		"input[name='password']",
		"input[autocomplete='current-password']",
		"input[name='senha']",
		"input[name*='senha']",
		"input[id*='senha']",
		"input[placeholder*='Senha']",
		"input[placeholder*='senha']",
		"input[aria-label*='Senha']",
		"input[aria-label*='senha']",
		"input[type='password']",
	}
}

func loginOTPSelectors(c *Config) []string {
	return []string{
		c.Selectors.LoginOTPInput,
		"input[name='otp']",
		"input[name='codigo']",
		"input[name*='codigo']",
		"input[id*='codigo']",
		"input[placeholder*='Código']",
		"input[placeholder*='codigo']",
		"input[placeholder*='código']",
		"input[aria-label*='Código']",
		"input[aria-label*='codigo']",
		"input[aria-label*='código']",
		"input[inputmode='numeric']",
		"input[type='tel']",
		"input[type='text']",
	}
}

const probeTimeout = 1200 * time.Millisecond

func (a *Automation) loginInputsVisible() bool {
	return a.anyVisible(usernameSelectors(a.config), probeTimeout)
}

func (a *Automation) passwordVisible() bool {
	return a.anyVisible(passwordSelectors(a.config), probeTimeout)
}

func (a *Automation) loginOTPVisible() bool {
	return a.anyVisible(loginOTPSelectors(a.config), probeTimeout)
}

func (a *Automation) isLoginDomain() bool {
	return strings.Contains(a.currentURL(), loginDomain)
}

// clearInterstitials dismisses the known overlays: cookie consent, age
// gate, site-entry splash. Each action is optional; absence is not an
// error. Up to 3 passes to catch overlays revealed by earlier dismissals.
func (a *Automation) clearInterstitials() {
	s := a.config.Selectors

	for i := 0; i < 3; i++ {
		changed := false

		if a.clickIfPresent([]string{s.CookieAccept}, probeTimeout) {
			a.logf("Cookie banner accepted by selector")
			changed = true
		} else if a.clickIfPresentText(s.CookieAcceptText, probeTimeout) {
			a.logf("Cookie banner accepted by text")
			changed = true
		}

		// Only confirm the age gate when its prompt is actually on screen,
		// the confirm text alone ("Sim") is too generic to click blindly.
		if a.textExists(s.AgeGatePromptText, time.Second) {
			if a.clickIfPresent([]string{s.AgeGateConfirm}, probeTimeout) {
				a.logf("Age gate confirmed by selector")
				changed = true
			} else if a.clickIfPresentText(s.AgeGateConfirmText, probeTimeout) {
				a.logf("Age gate confirmed by text")
				changed = true
			}
		}

		if a.clickIfPresent([]string{s.EnterSite}, probeTimeout) {
			a.logf("Clicked site entry by selector")
			changed = true
		} else if a.clickIfPresentText(s.EnterSiteText, probeTimeout) {
			a.logf("Clicked site entry by text")
			changed = true
		}

		if changed {
			a.pause(600)
		}
	}
}

// isLoggedInSession detects a still-valid session from a previous run: the
// account menu is visible and the login call-to-action is not.
func (a *Automation) isLoggedInSession() bool {
	if a.loginInputsVisible() || a.passwordVisible() || a.loginOTPVisible() {
		return false
	}
	if a.isLoginDomain() {
		return false
	}

	accountText := a.config.Selectors.AccountMenuText
	if accountText == "" {
		accountText = "Minha Conta"
	}
	hasAccountMarker := a.textExists(accountText, probeTimeout) || a.textExists("Olá", probeTimeout)

	accessText := a.config.Selectors.AccessLoginText
	if accessText == "" {
		accessText = "Acessar"
	}
	hasLoginCTA := a.textExists(accessText, 800*time.Millisecond)

	return hasAccountMarker && !hasLoginCTA
}

// prepareLoginPage clears interstitials and clicks the access affordance
// until the login form is visible.
func (a *Automation) prepareLoginPage() error {
	a.logf("Preparing page for login form")
	s := a.config.Selectors

	for i := 0; i < 4; i++ {
		if a.loginInputsVisible() {
			a.logf("Login form detected")
			return nil
		}
		if a.isLoggedInSession() {
			a.logf("Session already active while preparing login page")
			return nil
		}

		a.clearInterstitials()

		changed := false
		if a.clickIfPresent([]string{s.AccessLogin}, probeTimeout) {
			a.logf("Clicked login access by selector")
			changed = true
		} else if a.clickIfPresentText(s.AccessLoginText, probeTimeout) {
			a.logf("Clicked login access by text")
			changed = true
		}

		a.resolveActivePage()

		if a.loginInputsVisible() {
			a.logf("Login form detected")
			return nil
		}
		if a.isLoggedInSession() {
			a.logf("Session became active during login page preparation")
			return nil
		}

		if changed {
			a.pause(600)
		}
	}

	shot := a.Snapshot("login_form_not_visible")
	return stepErr("login", KindElementNotFound,
		"login form was not visible after handling interstitials. url=%s screenshot=%s",
		a.currentURL(), shot)
}

func (a *Automation) clickLoginNext() bool {
	s := a.config.Selectors

	if a.clickIfPresent([]string{s.LoginNext}, 2500*time.Millisecond) {
		a.logf("Clicked login next by selector")
		return true
	}

	for _, text := range []string{s.LoginNextText, "Próximo"} {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if a.clickIfPresentText(text, 2*time.Second) {
			a.logf("Clicked login next by text: %s", text)
			return true
		}
	}

	return false
}

func (a *Automation) clickLoginSubmit() bool {
	s := a.config.Selectors

	if a.clickIfPresent([]string{s.LoginSubmit}, 2500*time.Millisecond) {
		a.logf("Clicked login submit by selector")
		return true
	}

	if a.clickIfPresentPattern(`/entrar|acessar|continuar/i`, 2500*time.Millisecond) {
		a.logf("Clicked login submit by text pattern")
		return true
	}

	return false
}

func (a *Automation) clickLoginOTPSubmit() bool {
	s := a.config.Selectors

	if a.clickIfPresent([]string{s.LoginOTPSubmit}, 2500*time.Millisecond) {
		a.logf("Clicked login code submit by selector")
		return true
	}

	if a.clickIfPresentPattern(`/enviar|confirmar|validar/i`, 2500*time.Millisecond) {
		a.logf("Clicked login code submit by text pattern")
		return true
	}

	return false
}

// submitLoginOTP submits the already-filled email code, tolerating forms
// that auto-advance as soon as the last digit is typed.
func (a *Automation) submitLoginOTP() error {
	a.pause(400)
	a.resolveActivePage()

	if a.passwordVisible() {
		a.logf("Code entry auto-advanced to password step")
		return nil
	}

	if !a.loginOTPVisible() && !a.isLoginDomain() {
		a.logf("Code entry auto-completed login flow")
		return nil
	}

	if a.clickLoginOTPSubmit() {
		return nil
	}

	if el := a.firstVisible(loginOTPSelectors(a.config), 1500*time.Millisecond); el != nil {
		a.pressKey(el, input.Enter)
		a.logf("Submitted login code by pressing Enter")
		return nil
	}

	return stepErr("login", KindElementNotFound,
		"unable to submit login code. url=%s", a.currentURL())
}

// waitForLoginStep waits for the CPF two-step flow to land on either the
// password field or the email code field.
func (a *Automation) waitForLoginStep(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	clickedReceiveCode := false

	for time.Now().Before(deadline) {
		a.resolveActivePage()

		if a.passwordVisible() {
			a.logf("Password field detected")
			return "password", nil
		}
		if a.loginOTPVisible() {
			a.logf("Login validation code field detected")
			return "otp", nil
		}

		if !clickedReceiveCode && a.clickIfPresentPattern(`/receber\s+c[oó]digo/i`, 1500*time.Millisecond) {
			clickedReceiveCode = true
			a.logf("Clicked receive-code button")
			a.pause(500)
			continue
		}

		a.pause(250)
	}

	return "", stepErr("login", KindTimeout,
		"login did not advance to password or code step. url=%s", a.currentURL())
}

// waitForPasswordOrCompletion waits for the post-code state: either the
// password field shows up or the flow leaves the login domain entirely.
func (a *Automation) waitForPasswordOrCompletion(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		a.resolveActivePage()

		if a.passwordVisible() {
			a.logf("Password field detected after code submission")
			return "password", nil
		}
		if !a.isLoginDomain() {
			a.logf("Login flow complete after code, url: %s", a.currentURL())
			return "done", nil
		}

		a.pause(250)
	}

	return "", stepErr("login", KindTimeout,
		"login did not complete after code submission. url=%s", a.currentURL())
}

// promptLoginOTP blocks for the manually received email code, fills and
// submits it.
func (a *Automation) promptLoginOTP() error {
	a.logf("Waiting for login email code")

	code, err := PromptCode(os.Stdin, os.Stdout, T("prompt_login_code"))
	if err != nil {
		return stepErr("login", KindOTPRejected, "login email code: %v", err)
	}

	if _, err := a.fillFirst(code, loginOTPSelectors(a.config), 10*time.Second); err != nil {
		return stepErr("login", KindElementNotFound, "login code field: %v", err)
	}

	if err := a.submitLoginOTP(); err != nil {
		return err
	}
	a.Snapshot("login_otp_submitted")
	return nil
}

func (a *Automation) fillPassword() error {
	if _, err := a.fillFirst(a.config.Password, passwordSelectors(a.config), 10*time.Second); err != nil {
		return stepErr("login", KindElementNotFound, "password field: %v", err)
	}
	return nil
}

// RunLogin drives the whole authentication step: interstitials, CPF
// two-step login, email code checkpoint.
func (a *Automation) RunLogin() error {
	a.logf("Opening base URL")
	if err := a.openBase(); err != nil {
		return stepErr("login", KindTimeout, "%v", err)
	}
	a.Snapshot("home_loaded")

	a.clearInterstitials()
	if a.isLoggedInSession() {
		a.logf("Session already active; skipping login")
		a.Snapshot("login_skipped_session_active")
		return nil
	}

	if err := a.prepareLoginPage(); err != nil {
		return err
	}
	if a.isLoggedInSession() {
		a.logf("Session already active after preparation; skipping login")
		a.Snapshot("login_skipped_session_active")
		return nil
	}
	a.Snapshot("login_ready")

	a.logf("Submitting username")
	usernameEl, err := a.fillFirst(a.config.Username, usernameSelectors(a.config), 6*time.Second)
	if err != nil {
		return stepErr("login", KindElementNotFound, "username field: %v", err)
	}

	currentStep := "unknown"
	if a.passwordVisible() {
		currentStep = "password"
	}

	if currentStep != "password" {
		// CPF two-step variant: identifier, "next", then password or code.
		a.logf("Password field not visible yet, advancing login step")
		a.pressKey(usernameEl, input.Tab)

		if !a.clickLoginNext() {
			return stepErr("login", KindElementNotFound,
				"unable to click login next button. url=%s", a.currentURL())
		}

		currentStep, err = a.waitForLoginStep(30 * time.Second)
		if err != nil {
			return err
		}
		a.Snapshot("login_after_next")
	}

	if currentStep == "otp" {
		if err := a.promptLoginOTP(); err != nil {
			return err
		}

		afterStep, err := a.waitForPasswordOrCompletion(30 * time.Second)
		if err != nil {
			return err
		}
		if afterStep == "done" {
			a.logf("Login step completed after email code challenge")
			return nil
		}

		a.resolveActivePage()
		if !a.isLoginDomain() || !a.passwordVisible() {
			a.logf("Password step skipped after email code")
			return nil
		}

		if err := a.fillPassword(); err != nil {
			return err
		}
		if !a.clickLoginSubmit() {
			if !a.isLoginDomain() {
				a.logf("Login finished while trying password submit click")
				return nil
			}
			return stepErr("login", KindElementNotFound,
				"unable to click login submit button after code. url=%s", a.currentURL())
		}
		a.Snapshot("login_submitted")
		a.logf("Login step completed after code + password")
		return nil
	}

	if err := a.fillPassword(); err != nil {
		return err
	}
	if !a.clickLoginSubmit() {
		return stepErr("login", KindElementNotFound,
			"unable to click login submit button. url=%s", a.currentURL())
	}
	a.Snapshot("login_submitted")
	a.pause(1200)

	// Some accounts get the email challenge after the password instead.
	if a.loginOTPVisible() {
		if err := a.promptLoginOTP(); err != nil {
			return err
		}
	}

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		a.resolveActivePage()
		if !a.isLoginDomain() && !strings.Contains(strings.ToLower(a.currentURL()), "login") {
			a.logf("Login step completed, url: %s", a.currentURL())
			return nil
		}
		a.pause(400)
	}

	return stepErr("login", KindOTPRejected,
		"still on login page after credential submission. url=%s", a.currentURL())
}
