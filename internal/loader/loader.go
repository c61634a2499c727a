package loader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"ragkb/internal/domain"
)

var (
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	hspaceRe     = regexp.MustCompile(`[ \t]{2,}`)
)

// Loader turns raw documents (local files or web pages) into cleaned
// plain text ready for chunking.
type Loader struct {
	client *http.Client
}

func New(fetchTimeout time.Duration) *Loader {
	if fetchTimeout <= 0 {
		fetchTimeout = 15 * time.Second
	}
	return &Loader{client: &http.Client{Timeout: fetchTimeout}}
}

// LoadFile extracts cleaned text from a .txt, .md or .pdf file. Any other
// extension is an input-validation error, raised before any work is done.
func (l *Loader) LoadFile(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return Clean(string(data)), nil
	case ".pdf":
		text, err := extractPDF(path)
		if err != nil {
			return "", fmt.Errorf("extract pdf %s: %w", path, err)
		}
		return Clean(text), nil
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(path))
	}
}

// LoadURL fetches a web page and extracts its text with script, style and
// noscript markup removed. The page title (or the URL when the page has
// none) is prefixed before the body.
func (l *Loader) LoadURL(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidURL, rawURL)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return "", &domain.CapabilityError{Stage: "fetch document", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", &domain.CapabilityError{
			Stage: "fetch document",
			Err:   fmt.Errorf("%s: status %s", rawURL, resp.Status),
		}
	}

	title, body, err := extractHTML(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", rawURL, err)
	}
	if title == "" {
		title = rawURL
	}
	return title + "\n\n" + Clean(body), nil
}

// Clean collapses runs of 3+ newlines to exactly 2 and runs of 2+
// horizontal whitespace to a single space, then trims.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	text = hspaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
