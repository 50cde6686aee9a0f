package feed

import "testing"

func TestIsSafeExternalURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://habitica.com/profile/abc", true},
		{"http://example.com", true},
		{"file:///etc/passwd", false},
		{"javascript:alert(1)", false},
		{"/profile/abc", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isSafeExternalURL(tt.url); got != tt.want {
			t.Fatalf("isSafeExternalURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestProfileURL(t *testing.T) {
	build := ProfileURL("https://habitica.com/")
	if got := build("a b"); got != "https://habitica.com/profile/a%20b" {
		t.Fatalf("got %q", got)
	}
}

func TestOpenProfile_RefusesUnsafeURL(t *testing.T) {
	orig := startBrowser
	startBrowser = func(string) error { t.Fatalf("browser must not open"); return nil }
	t.Cleanup(func() { startBrowser = orig })

	msg := openProfile("file:///etc/passwd", "x")().(profileOpenedMsg)
	if msg.err == nil {
		t.Fatalf("expected refusal")
	}
}
