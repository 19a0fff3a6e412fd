package main

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const loginDomain = "login.caixa.gov.br"

// Automation owns the browser session for the whole run. One page, strictly
// sequential use; closed at run end or on fatal error.
type Automation struct {
	config    *Config
	artifacts *RunArtifacts
	browser   *rod.Browser
	page      *rod.Page
	launcher  *launcher.Launcher
	stopChan  chan bool
}

func NewAutomation(config *Config, artifacts *RunArtifacts) *Automation {
	return &Automation{
		config:    config,
		artifacts: artifacts,
		stopChan:  make(chan bool, 1),
	}
}

func (a *Automation) Close() {
	select {
	case a.stopChan <- true:
	default:
	}

	fmt.Println(T("cleaning_up"))

	if a.page != nil {
		a.page.Close()
	}

	if a.browser != nil {
		a.browser.Close()
	}

	if a.launcher != nil {
		a.launcher.Cleanup()
	}

	fmt.Println(T("browser_destroyed"))
}

func (a *Automation) isBrowserAlive() bool {
	if a.browser == nil {
		return false
	}

	_, err := a.browser.Version()
	if err != nil {
		a.debugLog("Browser version check failed: %v", err)
		return false
	}

	if a.page != nil {
		_, err := a.page.Info()
		if err != nil {
			a.debugLog("Page info check failed: %v", err)
			return false
		}
	}

	return true
}

func (a *Automation) checkBrowserOrExit() {
	if !a.isBrowserAlive() {
		fmt.Println(T("browser_closed_by_user"))
		fmt.Println(T("shutting_down"))
		a.artifacts.Close()
		os.Exit(0)
	}
}

func (a *Automation) watchBrowser() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopChan:
			return
		case <-ticker.C:
			a.checkBrowserOrExit()
		}
	}
}

func (a *Automation) debugLog(format string, args ...interface{}) {
	if a.config.DebugMode {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}

func (a *Automation) logf(format string, args ...interface{}) {
	a.artifacts.Log.Printf(format, args...)
}

func (a *Automation) setupBrowser() error {
	fmt.Println(T("browser_launching"))

	// Disable leakless mode on Windows to prevent deadlock
	// See: https://github.com/go-rod/rod/issues/853
	useLeakless := runtime.GOOS != "windows"

	chromePath, chromeExists := launcher.LookPath()

	a.launcher = launcher.New().
		Leakless(useLeakless).
		Headless(a.config.Headless)

	// Persistent profile so the site remembers the device between runs and
	// skips some of the login challenges.
	if a.config.UserDataDir != "" {
		a.launcher = a.launcher.UserDataDir(a.config.UserDataDir)
	}

	if chromeExists {
		a.launcher = a.launcher.Bin(chromePath)
		fmt.Println(T("browser_using_system_chrome"))
	} else {
		fmt.Println(T("browser_chrome_not_found"))
	}

	if runtime.GOOS == "windows" {
		fmt.Println(T("windows_leakless_disabled"))
	}

	url, err := a.launcher.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if a.config.SlowMoMs > 0 {
		browser = browser.SlowMotion(time.Duration(a.config.SlowMoMs) * time.Millisecond)
	}
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	a.browser = browser

	a.page, err = stealth.Page(a.browser)
	if err != nil {
		return fmt.Errorf("failed to create stealth page: %w", err)
	}

	userAgent := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	if err := a.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
		a.debugLog("Warning: Failed to set User-Agent: %v", err)
	}

	go a.watchBrowser()

	fmt.Println(T("browser_launched"))
	return nil
}

// openBase navigates to the configured base URL, fatal on timeout.
func (a *Automation) openBase() error {
	page := a.page.Timeout(a.pageTimeout())
	defer page.CancelTimeout()

	if err := page.Navigate(a.config.BaseURL); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", a.config.BaseURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("page failed to load: %w", err)
	}

	return nil
}

func (a *Automation) pageTimeout() time.Duration {
	return time.Duration(a.config.TimeoutMs) * time.Millisecond
}

// Snapshot captures a best-effort full-page screenshot for the run
// artifacts. Failures are logged and swallowed: a missing screenshot must
// never abort the purchase flow.
func (a *Automation) Snapshot(step string) string {
	if a.page == nil {
		return ""
	}

	data, err := a.page.Timeout(5 * time.Second).Screenshot(true, nil)
	if err != nil {
		a.debugLog("Screenshot failed at %s: %v", step, err)
		return ""
	}

	path, err := a.artifacts.SaveScreenshot(data, step)
	if err != nil {
		a.debugLog("Screenshot save failed at %s: %v", step, err)
		return ""
	}

	a.logf("Screenshot: %s", path)
	return path
}

func (a *Automation) currentURL() string {
	if a.page == nil {
		return ""
	}
	info, err := a.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (a *Automation) pause(ms int) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// resolveActivePage switches to another tab when the login pops one open or
// closes the original. Prefers a page off the login domain.
func (a *Automation) resolveActivePage() {
	pages, err := a.browser.Pages()
	if err != nil || len(pages) == 0 {
		return
	}

	if _, err := a.page.Info(); err == nil && !strings.Contains(a.currentURL(), loginDomain) {
		return
	}

	var loginPage *rod.Page
	for i := len(pages) - 1; i >= 0; i-- {
		info, err := pages[i].Info()
		if err != nil || info.URL == "" {
			continue
		}
		if !strings.Contains(info.URL, loginDomain) {
			a.logf("Switched to active page: %s", info.URL)
			a.page = pages[i]
			return
		}
		if loginPage == nil {
			loginPage = pages[i]
		}
	}

	if loginPage != nil && loginPage != a.page {
		a.page = loginPage
	}
}

// ---- element helpers ----
//
// The flow is a sequence of "find something visible among these candidates"
// operations. Selectors come first (config override, then built-in lists),
// visible text is the fallback. Every helper is bounded: nothing here waits
// forever.

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

type visibilityChecker interface {
	Visible() (bool, error)
}

// pollVisible waits for el to become visible until deadline. A present but
// still-hidden element (hidden input, collapsing panel) gets the remaining
// time to show up instead of being skipped on the first check.
func pollVisible(el visibilityChecker, deadline time.Time) bool {
	for {
		if ok, _ := el.Visible(); ok {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(120 * time.Millisecond)
	}
}

// firstVisible returns the first visible element matching any of the
// selectors, or nil. Each selector gets up to timeout to appear and
// become visible.
func (a *Automation) firstVisible(selectors []string, timeout time.Duration) *rod.Element {
	for _, sel := range nonEmpty(selectors) {
		deadline := time.Now().Add(timeout)
		el, err := a.page.Timeout(timeout).Element(sel)
		if err != nil {
			continue
		}
		el = el.CancelTimeout()
		if pollVisible(el, deadline) {
			return el
		}
	}
	return nil
}

func (a *Automation) anyVisible(selectors []string, timeout time.Duration) bool {
	return a.firstVisible(selectors, timeout) != nil
}

func (a *Automation) clickElement(el *rod.Element) bool {
	if el == nil {
		return false
	}
	_ = el.ScrollIntoView()
	if err := el.Timeout(2 * time.Second).Click(proto.InputMouseButtonLeft, 1); err != nil {
		a.debugLog("Click failed: %v", err)
		return false
	}
	return true
}

// clickIfPresent clicks the first visible candidate. Absence is not an
// error: used for the best-effort interstitial dismissals.
func (a *Automation) clickIfPresent(selectors []string, timeout time.Duration) bool {
	return a.clickElement(a.firstVisible(selectors, timeout))
}

// jsTextPattern builds a case-insensitive JS regex matching text literally.
func jsTextPattern(text string) string {
	quoted := strings.ReplaceAll(regexp.QuoteMeta(text), "/", `\/`)
	return "/" + quoted + "/i"
}

// clickableTags covers what the site uses for actions and labels.
const clickableTags = "a, button, span, div, label, p, td, h1, h2, h3, input[type='submit']"

// findByPattern polls for a visible element whose text matches the JS regex
// pattern until timeout.
func (a *Automation) findByPattern(pattern string, timeout time.Duration) *rod.Element {
	deadline := time.Now().Add(timeout)
	for {
		has, el, err := a.page.HasR(clickableTags, pattern)
		if err == nil && has {
			if ok, _ := el.Visible(); ok {
				return el
			}
		}
		if time.Now().After(deadline) {
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
}

func (a *Automation) findByText(text string, timeout time.Duration) *rod.Element {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return a.findByPattern(jsTextPattern(text), timeout)
}

func (a *Automation) clickIfPresentText(text string, timeout time.Duration) bool {
	return a.clickElement(a.findByText(text, timeout))
}

func (a *Automation) clickIfPresentPattern(pattern string, timeout time.Duration) bool {
	return a.clickElement(a.findByPattern(pattern, timeout))
}

func (a *Automation) textExists(text string, timeout time.Duration) bool {
	return a.findByText(text, timeout) != nil
}

// fillFirst fills the first visible candidate field with value, replacing
// any existing content.
func (a *Automation) fillFirst(value string, selectors []string, timeout time.Duration) (*rod.Element, error) {
	el := a.firstVisible(selectors, timeout)
	if el == nil {
		return nil, fmt.Errorf("no visible field among selectors: %v", nonEmpty(selectors))
	}

	_ = el.SelectAllText()
	if err := el.Timeout(3 * time.Second).Input(value); err != nil {
		return nil, fmt.Errorf("failed to type into field: %w", err)
	}

	return el, nil
}

func (a *Automation) pressKey(el *rod.Element, key input.Key) {
	if el == nil {
		return
	}
	if err := el.Timeout(2 * time.Second).Type(key); err != nil {
		a.debugLog("Key press failed: %v", err)
	}
}

// firstVisibleIn finds a visible element among selectors scoped to el,
// without waiting for elements to appear.
func firstVisibleIn(scope *rod.Element, selectors []string) *rod.Element {
	for _, sel := range nonEmpty(selectors) {
		found, err := scope.Elements(sel)
		if err != nil {
			continue
		}
		for _, candidate := range found {
			if ok, _ := candidate.Visible(); ok {
				return candidate
			}
		}
	}
	return nil
}
