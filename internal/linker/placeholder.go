package linker

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
)

const (
	// PlaceholderLength is the textual length of a placeholder, equal to a
	// hex formatted address without 0x prefix.
	PlaceholderLength = 40

	maxLegacyNameLength = PlaceholderLength - 4
	hashedPrefix        = "__$"
	hashedSuffix        = "$__"
	hashLength          = PlaceholderLength - len(hashedPrefix) - len(hashedSuffix)
)

// Placeholder is a link reference found in a bytecode template
type Placeholder struct {
	// Text is the literal placeholder as it appears in the template
	Text string
	// Offset is the position of the placeholder in the template
	Offset int
	// Name is set for legacy placeholders, which embed the (possibly
	// truncated) library name
	Name string
	// Hash is set for hashed placeholders
	Hash string
}

// Hashed reports whether the placeholder uses the keccak-based format
func (p Placeholder) Hashed() bool {
	return p.Hash != ""
}

// Label is a human readable identifier for the placeholder
func (p Placeholder) Label() string {
	if p.Hashed() {
		return "$" + p.Hash + "$"
	}
	return p.Name
}

// LegacyPlaceholder returns the "__Name____" placeholder solc <0.5 emits for name
func LegacyPlaceholder(name string) string {
	if len(name) > maxLegacyNameLength {
		name = name[:maxLegacyNameLength]
	}
	text := "__" + name
	return text + strings.Repeat("_", PlaceholderLength-len(text))
}

// HashedPlaceholder returns the "__$hash$__" placeholder solc >=0.5 emits
// for a fully qualified library name.
func HashedPlaceholder(fqName string) string {
	return hashedPrefix + placeholderHash(fqName) + hashedSuffix
}

func placeholderHash(fqName string) string {
	return hex.EncodeToString(crypto.Keccak256([]byte(fqName)))[:hashLength]
}

// ShortName strips a "path:" qualifier from a library name
func ShortName(name string) string {
	if idx := strings.LastIndex(name, ":"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// Placeholders scans a template and returns every placeholder occurrence in order
func Placeholders(template string) ([]Placeholder, error) {
	var found []Placeholder
	for i := 0; i < len(template); {
		if template[i] != '_' {
			i++
			continue
		}
		if i+PlaceholderLength > len(template) {
			return nil, fmt.Errorf("malformed placeholder at offset %d: template ends after %d characters",
				i, len(template)-i)
		}

		text := template[i : i+PlaceholderLength]
		p := Placeholder{Text: text, Offset: i}
		switch {
		case strings.HasPrefix(text, hashedPrefix):
			if !strings.HasSuffix(text, hashedSuffix) {
				return nil, fmt.Errorf("malformed hashed placeholder at offset %d: %q", i, text)
			}
			p.Hash = text[len(hashedPrefix) : len(hashedPrefix)+hashLength]
		case strings.HasPrefix(text, "__"):
			// a name ending in "_" cannot be told apart from the padding;
			// PlaceholderNames recovers it from the known library names
			p.Name = strings.TrimRight(text[2:], "_")
			if p.Name == "" {
				return nil, fmt.Errorf("malformed placeholder at offset %d: empty name", i)
			}
		default:
			return nil, fmt.Errorf("malformed placeholder at offset %d: %q", i, text)
		}

		found = append(found, p)
		i += PlaceholderLength
	}
	return found, nil
}

// PlaceholderNames returns the distinct dependency names referenced by the
// templates, in order of first appearance. libraries lists the names known
// for the artifact, usually fully qualified ("path:Name"). Hashed
// placeholders are named through it, and a legacy placeholder is expanded to
// the single known name that renders the same text, which recovers names
// the compiler truncated to fit.
func PlaceholderNames(libraries []string, templates ...string) ([]string, error) {
	byHash := make(map[string]string, len(libraries))
	byText := make(map[string][]string, len(libraries))
	for _, lib := range libraries {
		if _, dup := byHash[placeholderHash(lib)]; dup {
			continue
		}
		byHash[placeholderHash(lib)] = lib
		text := LegacyPlaceholder(lib)
		byText[text] = append(byText[text], lib)
	}

	seen := make(map[string]bool)
	var names []string
	for _, template := range templates {
		placeholders, err := Placeholders(template)
		if err != nil {
			return nil, err
		}
		for _, p := range placeholders {
			name := p.Name
			if p.Hashed() {
				lib, ok := byHash[p.Hash]
				if !ok {
					return nil, &domain.MissingLinkDependencyError{Name: p.Label()}
				}
				name = lib
			} else {
				switch candidates := byText[p.Text]; len(candidates) {
				case 0:
				case 1:
					name = candidates[0]
				default:
					return nil, fmt.Errorf("ambiguous link reference %q: matches %s",
						p.Name, strings.Join(candidates, ", "))
				}
			}
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names, nil
}
