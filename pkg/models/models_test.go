package models

import "testing"

// TestParseAuthMode verifies mode names, the empty default and rejection.
func TestParseAuthMode(t *testing.T) {
	tests := []struct {
		in      string
		want    AuthMode
		wantErr bool
	}{
		{"", AuthNone, false},
		{"basic", AuthBasic, false},
		{" Header ", AuthHeader, false},
		{"cookie", AuthCookie, false},
		{"kerberos", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAuthMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseAuthMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}

// TestMajorOf verifies the leading version number is extracted.
func TestMajorOf(t *testing.T) {
	tests := map[string]int{
		"7.10.2":   7,
		"8.11.0":   8,
		"5":        5,
		" 6.8.23 ": 6,
		"":         0,
		"x.y":      0,
		"-1.0":     0,
	}
	for in, want := range tests {
		if got := MajorOf(in); got != want {
			t.Errorf("MajorOf(%q) = %d, want %d", in, got, want)
		}
	}
}

// TestConnectionProfile_Validate verifies required fields per auth mode.
func TestConnectionProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       ConnectionProfile
		wantErr bool
	}{
		{"minimal", ConnectionProfile{Name: "a", Endpoint: "http://x:9200"}, false},
		{"no name", ConnectionProfile{Endpoint: "http://x:9200"}, true},
		{"no endpoint", ConnectionProfile{Name: "a"}, true},
		{"bad mode", ConnectionProfile{Name: "a", Endpoint: "http://x:9200", AuthMode: "ntlm"}, true},
		{"header without name", ConnectionProfile{Name: "a", Endpoint: "http://x:9200", AuthMode: AuthHeader}, true},
		{"header", ConnectionProfile{Name: "a", Endpoint: "http://x:9200", AuthMode: AuthHeader, HeaderName: "Authorization"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestParseTemplateKind verifies kinds are required and case-insensitive.
func TestParseTemplateKind(t *testing.T) {
	if k, err := ParseTemplateKind("Composable"); err != nil || k != TemplateComposable {
		t.Errorf("unexpected %q, %v", k, err)
	}
	for _, in := range []string{"", "v2"} {
		if _, err := ParseTemplateKind(in); err == nil {
			t.Errorf("%q: expected an error", in)
		}
	}
}
