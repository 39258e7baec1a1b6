package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	tmpl := Template()
	if !strings.HasPrefix(tmpl, "{{.Name}} version ") || !strings.Contains(tmpl, Commit) {
		t.Errorf("Template() = %q", tmpl)
	}
	if !strings.Contains(String(), "version: "+Version) {
		t.Errorf("String() = %q", String())
	}
}

func TestUserAgent(t *testing.T) {
	if got := UserAgent(); got != "wheelpeek/"+Version {
		t.Errorf("UserAgent() = %q", got)
	}
}
