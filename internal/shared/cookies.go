// Utilities for importing browser cookies from a copied cURL command.
//
// yt-dlp consumes cookies in Netscape cookie-jar format. The easiest way for
// a user to hand those over is "Copy as cURL" from the browser dev tools;
// this file parses that command and converts the Cookie header into a jar.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// CurlHeaders represents parsed headers and cookies from a cURL command.
type CurlHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*CurlHeaders, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command string and extracts headers.
func ParseCurlCommand(data []byte) (*CurlHeaders, error) {
	curlCmd := string(data)
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)
	var cookie string

	headerRegex := regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	matches := headerRegex.FindAllStringSubmatch(curlCmd, -1)

	for _, match := range matches {
		var headerLine string
		if match[1] != "" {
			headerLine = match[1]
		} else {
			headerLine = match[2]
		}

		parts := strings.SplitN(headerLine, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if strings.ToLower(key) != "cookie" {
				headers[key] = value
			} else if cookie == "" {
				cookie = value
			}
		}
	}

	cookieRegex := regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
	cookieMatches := cookieRegex.FindStringSubmatch(curlCmd)
	if len(cookieMatches) > 1 {
		if cookieMatches[1] != "" {
			cookie = cookieMatches[1]
		} else {
			cookie = cookieMatches[2]
		}
	}

	if len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("no headers found in curl command")
	}

	return &CurlHeaders{
		Headers: headers,
		Cookie:  cookie,
	}, nil
}

// ToCookieJar converts the Cookie header into Netscape cookie-jar format
// scoped to the given domain (e.g. ".youtube.com").
func (c *CurlHeaders) ToCookieJar(domain string) string {
	var b strings.Builder
	b.WriteString("# Netscape HTTP Cookie File\n")

	for _, pair := range strings.Split(c.Cookie, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		name, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}

		// domain, include-subdomains, path, secure, expiry (0 = session), name, value
		fmt.Fprintf(&b, "%s\tTRUE\t/\tTRUE\t0\t%s\t%s\n", domain, name, value)
	}

	return b.String()
}

// WriteCookieJar writes the parsed cookies to path in Netscape format.
func (c *CurlHeaders) WriteCookieJar(path, domain string) error {
	if c.Cookie == "" {
		return fmt.Errorf("%w: curl command carried no cookies", ErrInvalidInput)
	}

	if err := os.WriteFile(path, []byte(c.ToCookieJar(domain)), 0600); err != nil {
		return fmt.Errorf("failed to write cookie jar: %w", err)
	}

	return nil
}
