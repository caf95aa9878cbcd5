// Package responses supplies the localized user-facing strings. The string
// tables are embedded and loaded once at startup.
package responses

import (
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"
)

//go:embed responses_ua.json responses_en.json
var files embed.FS

// Provider resolves user-facing message strings for one configured language.
type Provider struct {
	strings  map[string]string
	mentions []string
}

type responseFile struct {
	Responses []string          `json:"responses"`
	Strings   map[string]string `json:"strings"`
}

// Load parses the embedded string table for the given language ("ua" or "en").
func Load(language string) (*Provider, error) {
	filename := "responses_en.json"
	if language == "ua" {
		filename = "responses_ua.json"
	}

	data, err := files.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read responses: %w", err)
	}

	var parsed responseFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	if len(parsed.Responses) == 0 {
		return nil, fmt.Errorf("%s: empty responses list", filename)
	}

	return &Provider{
		strings:  parsed.Strings,
		mentions: parsed.Responses,
	}, nil
}

// RandomMention returns a random reply for bot-mention messages.
func (p *Provider) RandomMention() string {
	return p.mentions[rand.Intn(len(p.mentions))]
}

// NotSupported explains that the site is not allow-listed.
func (p *Provider) NotSupported() string {
	return p.strings["not_supported"]
}

// RequiresLogin explains that the content needs an authenticated session.
func (p *Provider) RequiresLogin() string {
	return p.strings["requires_login"]
}

// NotAllowed tells the sender they are outside the access lists.
func (p *Provider) NotAllowed() string {
	return p.strings["not_allowed"]
}

// TooLong explains a duration rejection.
func (p *Provider) TooLong(minutes int) string {
	return fmt.Sprintf(p.strings["too_long"], minutes)
}

// TooLarge explains a size rejection.
func (p *Provider) TooLarge(megabytes int64) string {
	return fmt.Sprintf(p.strings["too_large"], megabytes)
}

// ExtractionFailed is the generic download-failure message.
func (p *Provider) ExtractionFailed() string {
	return p.strings["extraction_failed"]
}

// SendError reports a hard transport failure with the reported error text.
func (p *Provider) SendError(errText string) string {
	return fmt.Sprintf(p.strings["send_error"], errText)
}
