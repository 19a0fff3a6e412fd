package main

import (
	"strings"
	"time"

	"github.com/go-rod/rod"
)

// accentFolds maps the accented runes that show up in the site's labels to
// their plain forms, so a configured name matches the page label regardless
// of accent encoding.
var accentFolds = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n',
}

// normalizeLabel lowers, folds accents and collapses whitespace so that two
// renderings of the same label compare equal.
func normalizeLabel(s string) string {
	lowered := strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if folded, ok := accentFolds[r]; ok {
			r = folded
		}
		b.WriteRune(r)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// matchFavorite finds the single row whose label equals target after
// normalization. Zero matches and multiple matches are both errors: this
// precedes a payment, so a silent pick of the first row is unacceptable.
func matchFavorite(names []string, target string) (int, error) {
	want := normalizeLabel(target)

	matched := -1
	count := 0
	for i, name := range names {
		if normalizeLabel(name) == want {
			count++
			if matched < 0 {
				matched = i
			}
		}
	}

	switch {
	case count == 0:
		return -1, stepErr("favorites", KindElementNotFound,
			"favorite item %q was not found. visible favorites: %v", target, names)
	case count > 1:
		return -1, stepErr("favorites", KindAmbiguousMatch,
			"favorite item %q matched %d rows; refusing to guess", target, count)
	}

	return matched, nil
}

func (a *Automation) openFavoritesDirect() bool {
	s := a.config.Selectors

	if a.clickIfPresent([]string{s.FavoritesEntry}, 2*time.Second) {
		a.logf("Opened favorites section by selector")
		return true
	}

	if a.clickIfPresentPattern(`/carrinh(o|os)\s+favorit/i`, 2*time.Second) {
		a.logf("Opened favorites section by text pattern")
		return true
	}

	if a.clickIfPresentText(s.FavoritesEntryText, 2*time.Second) {
		a.logf("Opened favorites section by configured text")
		return true
	}

	return false
}

func (a *Automation) openAccountMenu() bool {
	s := a.config.Selectors

	if a.clickIfPresent([]string{s.AccountMenu}, 2200*time.Millisecond) {
		a.logf("Opened account menu by selector")
		return true
	}

	accountText := s.AccountMenuText
	if accountText == "" {
		accountText = "Minha Conta"
	}
	if a.clickIfPresentText(accountText, 2200*time.Millisecond) {
		a.logf("Opened account menu by text: %s", accountText)
		return true
	}

	// Collapsed mobile-style navigation.
	menuSelectors := []string{
		"button[aria-label*='menu' i]",
		".navbar-toggle",
		"[data-testid='menu-button']",
	}
	if a.clickIfPresent(menuSelectors, probeTimeout) {
		a.logf("Opened navigation menu")
		a.pause(400)
		return true
	}

	return false
}

func (a *Automation) openFavoritesSection() bool {
	if a.openFavoritesDirect() {
		return true
	}

	if a.openAccountMenu() {
		a.Snapshot("account_menu_opened")
		a.pause(500)
		if a.openFavoritesDirect() {
			a.logf("Opened favorites section after opening account menu")
			return true
		}
	}

	return false
}

// waitForFavoritesList waits for the favorites table to have rows, riding
// out the loading spinner.
func (a *Automation) waitForFavoritesList(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	spinnerSelectors := []string{
		".fa-spinner",
		".spinner",
		"[class*='loading' i]",
	}

	for time.Now().Before(deadline) {
		rows, err := a.page.Elements("table tbody tr")
		if err == nil && len(rows) > 0 {
			return true
		}

		if a.anyVisible(spinnerSelectors, 300*time.Millisecond) {
			a.pause(300)
			continue
		}
		a.pause(250)
	}

	return false
}

// favoriteRowNames returns the rows of the favorites table and their
// first-cell labels, index-aligned.
func (a *Automation) favoriteRowNames() ([]*rod.Element, []string, error) {
	rows, err := a.page.Elements("table tbody tr")
	if err != nil {
		return nil, nil, err
	}

	names := make([]string, len(rows))
	for i, row := range rows {
		cells, err := row.Elements("td")
		if err != nil || len(cells) == 0 {
			continue
		}
		text, err := cells[0].Timeout(1200 * time.Millisecond).Text()
		if err != nil {
			continue
		}
		names[i] = strings.TrimSpace(text)
	}

	return rows, names, nil
}

func (a *Automation) clickAddToCartInRow(row *rod.Element) bool {
	candidates := []string{
		"a[title*='adicionar' i], button[title*='adicionar' i]",
		"a[aria-label*='adicionar' i], button[aria-label*='adicionar' i]",
		"a:has(i.fa-shopping-cart), button:has(i.fa-shopping-cart)",
		"a:has(.fa-shopping-cart), button:has(.fa-shopping-cart)",
		"td:last-child a, td:last-child button",
	}

	if el := firstVisibleIn(row, candidates); el != nil {
		if a.clickElement(el) {
			a.logf("Clicked add-to-cart action in favorite row")
			return true
		}
	}

	return a.clickAddByText(row)
}

// clickAddByText falls back to the configured add-button label when no
// structural candidate matched in the row.
func (a *Automation) clickAddByText(row *rod.Element) bool {
	text := a.config.Selectors.FavoritesAddButtonText
	if text == "" {
		text = "Adicionar"
	}
	want := normalizeLabel(text)

	actions, err := row.Elements("a, button")
	if err != nil {
		return false
	}

	for _, el := range actions {
		if ok, _ := el.Visible(); !ok {
			continue
		}
		label, err := el.Timeout(time.Second).Text()
		if err != nil {
			continue
		}
		if strings.Contains(normalizeLabel(label), want) {
			if a.clickElement(el) {
				a.logf("Clicked add-to-cart action by text: %s", text)
				return true
			}
		}
	}

	return false
}

// RunFavorites opens the saved favorites view, finds the one configured
// cart by exact label match and adds it to the basket.
func (a *Automation) RunFavorites() error {
	a.logf("Opening favorites section")
	if !a.openFavoritesSection() {
		return stepErr("favorites", KindElementNotFound, "could not open favorite cart section")
	}
	a.Snapshot("favorites_opened")

	a.logf("Waiting for favorites list to load")
	if !a.waitForFavoritesList(20 * time.Second) {
		return stepErr("favorites", KindTimeout, "favorites list did not load in time")
	}

	a.logf("Matching favorite item %q", a.config.FavoriteName)
	rows, names, err := a.favoriteRowNames()
	if err != nil {
		return stepErr("favorites", KindElementNotFound, "failed to read favorites table: %v", err)
	}

	idx, err := matchFavorite(names, a.config.FavoriteName)
	if err != nil {
		return err
	}
	row := rows[idx]

	if s := a.config.Selectors.FavoritesAddButton; strings.TrimSpace(s) != "" {
		el := firstVisibleIn(row, []string{s})
		if el == nil || !a.clickElement(el) {
			return stepErr("favorites", KindElementNotFound,
				"favorite row found, but configured add button selector did not match")
		}
	} else if !a.clickAddToCartInRow(row) {
		return stepErr("favorites", KindElementNotFound,
			"favorite row found, but no clickable add-to-cart action was detected")
	}

	a.Snapshot("favorite_item_added")

	// Cart badge is informational only.
	badges := []string{"[data-testid='cart-count']", ".cart-count", "span.badge"}
	if !a.anyVisible(badges, 2*time.Second) {
		a.logf("Cart badge not detected; continuing with checkout step")
	}

	return nil
}
