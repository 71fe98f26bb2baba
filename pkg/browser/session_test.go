package browser

import "testing"

func TestIsRegularURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://docs.tempo.xyz/quickstart/faucet", true},
		{"about:blank", true},
		{"chrome-extension://abcdef/home.html", false},
		{"chrome://newtab/", false},
		{"devtools://devtools/bundled/inspector.html", false},
	}

	for _, tt := range tests {
		if got := isRegularURL(tt.url); got != tt.want {
			t.Errorf("isRegularURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
