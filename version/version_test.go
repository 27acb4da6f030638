package version

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestGenerate(t *testing.T) {
	instant := time.Date(2024, 3, 5, 13, 7, 9, 0, time.UTC)

	tests := []struct {
		desc     string
		base     string
		clock    Clock
		expected string
		err      error
	}{
		{
			"stamps base with UTC suffix",
			"1.0.0",
			fixedClock(instant),
			"1.0.0+20240305.130709",
			nil,
		},
		{
			"pre-release base is stamped as-is",
			"2.1.0-rc.1",
			fixedClock(instant),
			"2.1.0-rc.1+20240305.130709",
			nil,
		},
		{
			"local time is rendered in UTC",
			"1.0.0",
			fixedClock(time.Date(2024, 3, 5, 22, 7, 9, 0, time.FixedZone("JST", 9*60*60))),
			"1.0.0+20240305.130709",
			nil,
		},
		{
			"empty base is rejected",
			"",
			fixedClock(instant),
			"",
			ErrInvalidVersion,
		},
		{
			"base containing separator is rejected",
			"1.0.0+dev",
			fixedClock(instant),
			"",
			ErrInvalidVersion,
		},
		{
			"zero clock reading fails",
			"1.0.0",
			fixedClock(time.Time{}),
			"",
			ErrClockUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := NewGenerator(tt.clock).Generate(tt.base)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected error %v, got %v", tt.err, err)
				}
				if got != "" {
					t.Errorf("expected no output on failure, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestGenerateSuffixShape(t *testing.T) {
	suffix := regexp.MustCompile(`^\d{8}\.\d{6}$`)
	bases := []string{"0.0.1", "1.2.3", "10.20.30", "1.0.0-beta.2"}

	g := NewGenerator(nil)
	for _, base := range bases {
		got, err := g.Generate(base)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", base, err)
		}
		if !strings.HasPrefix(got, base+Separator) {
			t.Errorf("expected %q to start with %q", got, base+Separator)
		}
		if s := strings.TrimPrefix(got, base+Separator); !suffix.MatchString(s) {
			t.Errorf("suffix %q does not match YYYYMMDD.HHMMSS", s)
		}
	}
}

func TestGenerateSameSecond(t *testing.T) {
	g := NewGenerator(fixedClock(time.Date(2025, 1, 31, 23, 59, 59, 500000000, time.UTC)))

	first, err := g.Generate("1.2.3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := g.Generate("1.2.3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("same-second invocations differ: %q vs %q", first, second)
	}
}

func TestGenerateDifferentSeconds(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a, err := NewGenerator(fixedClock(base)).Generate("1.2.3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewGenerator(fixedClock(base.Add(time.Second))).Generate("1.2.3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Errorf("invocations a second apart produced identical output: %q", a)
	}
}

func TestSchemeParse(t *testing.T) {
	tests := []struct {
		desc    string
		scheme  Scheme
		base    string
		format  string
		want    string
		wantErr bool
	}{
		{"semver accepts bare triple", SchemeSemVer, "1.2.3", "", "1.2.3", false},
		{"empty scheme defaults to semver", "", "v1.2.3", "", "v1.2.3", false},
		{"semver rejects two segments", SchemeSemVer, "1.2", "", "", true},
		{"calver accepts matching base", SchemeCalVer, "2024.03.5", "YYYY.0M.MICRO", "2024.03.5", false},
		{"calver rejects mismatch", SchemeCalVer, "1.2.3", "YYYY.0M.MICRO", "", true},
		{"calver requires a format", SchemeCalVer, "2024.03.5", "", "", true},
		{"unknown scheme fails", Scheme("datever"), "1.2.3", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := tt.scheme.Parse(tt.base, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.String() != tt.want {
				t.Errorf("Parse() = %v, want %v", got.String(), tt.want)
			}
		})
	}
}
