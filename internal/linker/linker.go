// Package linker substitutes library placeholders in compiled bytecode
// templates with deployed addresses.
package linker

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
)

// Link replaces every placeholder in template with the address mapped to its
// dependency name. Keys of addresses may be plain or fully qualified
// ("path:Name") library names. Only addresses referenced by the template are
// validated.
//
// Link is all-or-nothing: it returns MissingLinkDependencyError or
// MalformedAddressError without producing output. The result has exactly the
// length of template.
func Link(template string, addresses map[string]string) (string, error) {
	placeholders, err := Placeholders(template)
	if err != nil {
		return "", err
	}
	if len(placeholders) == 0 {
		return template, nil
	}

	byText := make(map[string]string, 2*len(addresses))
	for name := range addresses {
		byText[LegacyPlaceholder(name)] = name
		byText[HashedPlaceholder(name)] = name
	}

	replacements := make([]string, len(placeholders))
	formatted := make(map[string]string)
	for i, p := range placeholders {
		name, ok := byText[p.Text]
		if !ok {
			return "", &domain.MissingLinkDependencyError{Name: p.Label()}
		}
		if _, done := formatted[name]; !done {
			addr, err := FormatAddress(name, addresses[name])
			if err != nil {
				return "", err
			}
			formatted[name] = addr
		}
		replacements[i] = formatted[name]
	}

	var b strings.Builder
	b.Grow(len(template))
	last := 0
	for i, p := range placeholders {
		b.WriteString(template[last:p.Offset])
		b.WriteString(replacements[i])
		last = p.Offset + PlaceholderLength
	}
	b.WriteString(template[last:])
	return b.String(), nil
}

// FormatAddress validates value and renders it the way it is embedded in
// bytecode: 40 lowercase hex characters without prefix.
func FormatAddress(name, value string) (string, error) {
	if !common.IsHexAddress(value) {
		return "", &domain.MalformedAddressError{Name: name, Value: value}
	}
	return hex.EncodeToString(common.HexToAddress(value).Bytes()), nil
}

// HasPlaceholders reports whether template still contains link references
func HasPlaceholders(template string) bool {
	return strings.ContainsRune(template, '_')
}
