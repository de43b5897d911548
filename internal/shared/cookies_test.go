package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCurl = `curl 'https://www.youtube.com/' \
  -H 'accept: text/html' \
  -H 'accept-language: en-US,en;q=0.9' \
  -H 'cookie: VISITOR_INFO1_LIVE=abc123; PREF=f6=40000000; SID=secret-value' \
  -H 'user-agent: Mozilla/5.0'`

func TestParseCurlCommand(t *testing.T) {
	headers, err := ParseCurlCommand([]byte(sampleCurl))
	if err != nil {
		t.Fatalf("ParseCurlCommand() error = %v", err)
	}

	if headers.Headers["accept"] != "text/html" {
		t.Errorf("accept header = %q, want text/html", headers.Headers["accept"])
	}
	if _, ok := headers.Headers["cookie"]; ok {
		t.Error("cookie should be extracted, not kept in the header map")
	}
	if !strings.Contains(headers.Cookie, "VISITOR_INFO1_LIVE=abc123") {
		t.Errorf("cookie = %q, want the VISITOR_INFO1_LIVE pair", headers.Cookie)
	}
}

func TestParseCurlCommandCookieFlag(t *testing.T) {
	cmd := `curl 'https://www.youtube.com/' -H 'accept: text/html' -b 'SID=from-flag; HSID=xyz'`

	headers, err := ParseCurlCommand([]byte(cmd))
	if err != nil {
		t.Fatalf("ParseCurlCommand() error = %v", err)
	}
	if headers.Cookie != "SID=from-flag; HSID=xyz" {
		t.Errorf("cookie = %q, want the -b value", headers.Cookie)
	}
}

func TestParseCurlCommandEmpty(t *testing.T) {
	if _, err := ParseCurlCommand([]byte("curl 'https://example.com'")); err == nil {
		t.Error("expected error for a command with no headers")
	}
}

func TestParseCurlFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curl.sh")
	if err := os.WriteFile(path, []byte(sampleCurl), 0644); err != nil {
		t.Fatal(err)
	}

	headers, err := ParseCurlFile(path)
	if err != nil {
		t.Fatalf("ParseCurlFile() error = %v", err)
	}
	if headers.Cookie == "" {
		t.Error("cookie not parsed from file")
	}

	if _, err := ParseCurlFile(filepath.Join(t.TempDir(), "missing.sh")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestToCookieJar(t *testing.T) {
	headers := &CurlHeaders{Cookie: "SID=abc; PREF=f6=40000000; malformed"}

	jar := headers.ToCookieJar(".youtube.com")

	if !strings.HasPrefix(jar, "# Netscape HTTP Cookie File\n") {
		t.Error("jar lacks the Netscape header line")
	}

	lines := strings.Split(strings.TrimSpace(jar), "\n")
	if len(lines) != 3 {
		t.Fatalf("jar lines = %d, want header + 2 cookies", len(lines))
	}
	if lines[1] != ".youtube.com\tTRUE\t/\tTRUE\t0\tSID\tabc" {
		t.Errorf("first cookie line = %q", lines[1])
	}
	// Values containing '=' keep everything after the first cut.
	if !strings.HasSuffix(lines[2], "PREF\tf6=40000000") {
		t.Errorf("second cookie line = %q", lines[2])
	}
}

func TestWriteCookieJar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")

	headers := &CurlHeaders{Cookie: "SID=abc"}
	if err := headers.WriteCookieJar(path, ".youtube.com"); err != nil {
		t.Fatalf("WriteCookieJar() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading jar: %v", err)
	}
	if !strings.Contains(string(data), "SID\tabc") {
		t.Errorf("jar content = %q", string(data))
	}

	empty := &CurlHeaders{}
	err = empty.WriteCookieJar(path, ".youtube.com")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("WriteCookieJar() with no cookies error = %v, want ErrInvalidInput", err)
	}
}
