package linker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
)

const (
	library13Addr = "0xd3cda913deb6f67967b99d67acdfa1712c293601"
	mathAddr      = "0x1111111111111111111111111111111111111111"
)

func TestLegacyPlaceholder(t *testing.T) {
	assert.Equal(t, "__Library13_____________________________", LegacyPlaceholder("Library13"))
	assert.Len(t, LegacyPlaceholder("Library13"), PlaceholderLength)

	long := strings.Repeat("L", 50)
	p := LegacyPlaceholder(long)
	assert.Len(t, p, PlaceholderLength)
	assert.Equal(t, "__"+strings.Repeat("L", 36)+"__", p)
}

func TestHashedPlaceholder(t *testing.T) {
	p := HashedPlaceholder("src/Library13.sol:Library13")
	assert.Len(t, p, PlaceholderLength)
	assert.True(t, strings.HasPrefix(p, "__$"))
	assert.True(t, strings.HasSuffix(p, "$__"))
	assert.NotEqual(t, p, HashedPlaceholder("src/Other.sol:Library13"))
}

func TestLink(t *testing.T) {
	lib := LegacyPlaceholder("Library13")
	math := LegacyPlaceholder("Math")

	tests := []struct {
		name      string
		template  string
		addresses map[string]string
		want      string
	}{
		{
			name:      "single placeholder",
			template:  "0x6060" + lib + "6000",
			addresses: map[string]string{"Library13": library13Addr},
			want:      "0x6060" + "d3cda913deb6f67967b99d67acdfa1712c293601" + "6000",
		},
		{
			name:      "repeated placeholder without prefix",
			template:  "60" + lib + "56" + lib,
			addresses: map[string]string{"Library13": library13Addr},
			want:      "60d3cda913deb6f67967b99d67acdfa1712c29360156d3cda913deb6f67967b99d67acdfa1712c293601",
		},
		{
			name:     "multiple names",
			template: "0x" + math + "00" + lib,
			addresses: map[string]string{
				"Library13": library13Addr,
				"Math":      mathAddr,
			},
			want: "0x" + strings.Repeat("11", 20) + "00d3cda913deb6f67967b99d67acdfa1712c293601",
		},
		{
			name:      "checksummed address is lowercased",
			template:  lib,
			addresses: map[string]string{"Library13": "0xD3CDA913deB6f67967B99D67aCDFa1712C293601"},
			want:      "d3cda913deb6f67967b99d67acdfa1712c293601",
		},
		{
			name:      "hashed placeholder",
			template:  "0x60" + HashedPlaceholder("src/Library13.sol:Library13") + "00",
			addresses: map[string]string{"src/Library13.sol:Library13": library13Addr},
			want:      "0x60d3cda913deb6f67967b99d67acdfa1712c29360100",
		},
		{
			name:      "no placeholders is identity",
			template:  "0x6060604052",
			addresses: nil,
			want:      "0x6060604052",
		},
		{
			name:      "unused malformed entries are ignored",
			template:  lib,
			addresses: map[string]string{"Library13": library13Addr, "Other": "nope"},
			want:      "d3cda913deb6f67967b99d67acdfa1712c293601",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Link(tt.template, tt.addresses)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(tt.template))
			assert.False(t, HasPlaceholders(got))
		})
	}
}

func TestLinkMissingDependency(t *testing.T) {
	template := "0x60" + LegacyPlaceholder("Library13") + LegacyPlaceholder("Math")

	got, err := Link(template, map[string]string{"Library13": library13Addr})
	require.Error(t, err)
	assert.Empty(t, got)

	var missing *domain.MissingLinkDependencyError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "Math", missing.Name)
}

func TestLinkMalformedAddress(t *testing.T) {
	template := "0x60" + LegacyPlaceholder("Library13")

	for _, value := range []string{"0x1234", "", "0xzzcda913deb6f67967b99d67acdfa1712c293601"} {
		got, err := Link(template, map[string]string{"Library13": value})
		require.Error(t, err, value)
		assert.Empty(t, got)

		var malformed *domain.MalformedAddressError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, "Library13", malformed.Name)
		assert.ErrorIs(t, err, domain.ErrInvalidAddress)
	}
}

func TestPlaceholders(t *testing.T) {
	t.Run("finds all occurrences in order", func(t *testing.T) {
		template := "60" + LegacyPlaceholder("A") + "61" + HashedPlaceholder("x.sol:B")
		found, err := Placeholders(template)
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, "A", found[0].Name)
		assert.Equal(t, 2, found[0].Offset)
		assert.True(t, found[1].Hashed())
		assert.Equal(t, 44, found[1].Offset)
	})

	t.Run("truncated placeholder", func(t *testing.T) {
		_, err := Placeholders("6060__Library13___")
		assert.Error(t, err)
	})

	t.Run("broken hashed placeholder", func(t *testing.T) {
		p := HashedPlaceholder("x.sol:B")
		broken := p[:len(p)-3] + "000"
		_, err := Placeholders(broken)
		assert.Error(t, err)
	})
}

func TestPlaceholderNames(t *testing.T) {
	bytecode := "0x60" + LegacyPlaceholder("Library13") + LegacyPlaceholder("Math") + LegacyPlaceholder("Library13")
	runtime := "0x60" + HashedPlaceholder("src/Util.sol:Util") + LegacyPlaceholder("Library13")

	names, err := PlaceholderNames([]string{"src/Util.sol:Util"}, bytecode, runtime)
	require.NoError(t, err)
	assert.Equal(t, []string{"Library13", "Math", "src/Util.sol:Util"}, names)

	t.Run("unknown hash", func(t *testing.T) {
		_, err := PlaceholderNames(nil, runtime)
		var missing *domain.MissingLinkDependencyError
		require.True(t, errors.As(err, &missing))
		assert.True(t, strings.HasPrefix(missing.Name, "$"))
	})

	t.Run("truncated legacy name is expanded", func(t *testing.T) {
		fq := "contracts/libraries/Library13.sol:Library13"
		template := "0x60" + LegacyPlaceholder(fq)

		names, err := PlaceholderNames([]string{"contracts/Multiply13.sol:Multiply13", fq, "Library13"}, template)
		require.NoError(t, err)
		assert.Equal(t, []string{fq}, names)

		linked, err := Link(template, map[string]string{names[0]: library13Addr})
		require.NoError(t, err)
		assert.Equal(t, "0x60d3cda913deb6f67967b99d67acdfa1712c293601", linked)
	})

	t.Run("truncated legacy name without candidates", func(t *testing.T) {
		fq := "contracts/libraries/Library13.sol:Library13"
		names, err := PlaceholderNames(nil, LegacyPlaceholder(fq))
		require.NoError(t, err)
		assert.Equal(t, []string{"contracts/libraries/Library13.sol:Li"}, names)
	})

	t.Run("ambiguous truncated legacy name", func(t *testing.T) {
		a := "contracts/libraries/Library13.sol:LibraryA"
		b := "contracts/libraries/Library13.sol:LibraryB"
		_, err := PlaceholderNames([]string{a, b}, LegacyPlaceholder(a))
		assert.ErrorContains(t, err, "ambiguous link reference")
	})

	t.Run("no placeholders", func(t *testing.T) {
		names, err := PlaceholderNames(nil, "0x6060", "0x6060")
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}

func TestUnderscoreNames(t *testing.T) {
	t.Run("leading underscore is kept", func(t *testing.T) {
		found, err := Placeholders(LegacyPlaceholder("_Math"))
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "_Math", found[0].Name)

		linked, err := Link(LegacyPlaceholder("_Math"), map[string]string{found[0].Name: mathAddr})
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("11", 20), linked)
	})

	t.Run("trailing underscore is recovered from known names", func(t *testing.T) {
		template := LegacyPlaceholder("Math_")

		found, err := Placeholders(template)
		require.NoError(t, err)
		assert.Equal(t, "Math", found[0].Name)

		names, err := PlaceholderNames([]string{"Math_"}, template)
		require.NoError(t, err)
		assert.Equal(t, []string{"Math_"}, names)

		linked, err := Link(template, map[string]string{"Math_": mathAddr})
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("11", 20), linked)
	})
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "Library13", ShortName("src/Library13.sol:Library13"))
	assert.Equal(t, "Library13", ShortName("Library13"))
}
