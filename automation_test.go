package main

import (
	"reflect"
	"testing"
	"time"
)

func TestNonEmpty(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"filters blanks", []string{"#a", "", "  ", ".b"}, []string{"#a", ".b"}},
		{"all blank", []string{"", " "}, []string{}},
		{"nil", nil, []string{}},
		{"passthrough", []string{"input[name='x']"}, []string{"input[name='x']"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nonEmpty(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("nonEmpty(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestJSTextPattern(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Pagar", "/Pagar/i"},
		{"Ir pra pagamento", "/Ir pra pagamento/i"},
		{"R$ 15,00", `/R\$ 15,00/i`},
		{"a/b", `/a\/b/i`},
		{"Próximo", "/Próximo/i"},
	}

	for _, tt := range tests {
		if got := jsTextPattern(tt.input); got != tt.want {
			t.Errorf("jsTextPattern(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNewAutomation(t *testing.T) {
	config := &Config{TimeoutMs: 12000}
	a := NewAutomation(config, nil)

	if a == nil {
		t.Fatal("NewAutomation returned nil")
	}
	if a.stopChan == nil {
		t.Error("stopChan should be initialized")
	}
	if a.pageTimeout() != 12*time.Second {
		t.Errorf("pageTimeout() = %v, want 12s", a.pageTimeout())
	}
}

type fakeVisibility struct {
	visibleAfter int
	calls        int
}

func (f *fakeVisibility) Visible() (bool, error) {
	f.calls++
	return f.calls > f.visibleAfter, nil
}

func TestPollVisible(t *testing.T) {
	tests := []struct {
		name         string
		visibleAfter int
		deadline     time.Duration
		want         bool
	}{
		{"immediately visible", 0, 0, true},
		{"becomes visible within deadline", 2, 2 * time.Second, true},
		{"never visible", 1000, 300 * time.Millisecond, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := &fakeVisibility{visibleAfter: tt.visibleAfter}
			if got := pollVisible(el, time.Now().Add(tt.deadline)); got != tt.want {
				t.Errorf("pollVisible() = %v, want %v", got, tt.want)
			}
			if el.calls == 0 {
				t.Error("Visible should be checked at least once")
			}
		})
	}
}

func TestPageHelpersNilPage(t *testing.T) {
	a := NewAutomation(&Config{}, nil)

	if url := a.currentURL(); url != "" {
		t.Errorf("currentURL() without a page = %q, want empty", url)
	}
	if path := a.Snapshot("anything"); path != "" {
		t.Errorf("Snapshot() without a page = %q, want empty", path)
	}
}
