// Package duration resolves free-text and preset duration tokens into
// concrete expiry policies. Mute durations are counted in minutes, ban
// durations in days; the two resolvers are independent.
package duration

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	// MinMuteMinutes and MaxMuteMinutes bound custom mute input (28 days).
	MinMuteMinutes = 1
	MaxMuteMinutes = 40320
	// MinBanDays and MaxBanDays bound custom ban input.
	MinBanDays = 1
	MaxBanDays = 365
)

// Resolution is the outcome of parsing a duration token.
type Resolution struct {
	Indefinite bool
	Offset     time.Duration
}

// ExpiryAt returns the expiry timestamp for an enforcement performed at now.
// The second value is false when the resolution is indefinite.
func (r Resolution) ExpiryAt(now time.Time) (time.Time, bool) {
	if r.Indefinite {
		return time.Time{}, false
	}
	return now.Add(r.Offset), true
}

// Indefinite returns a resolution with no expiry.
func Indefinite() Resolution {
	return Resolution{Indefinite: true}
}

// Minutes returns a finite resolution of n minutes.
func Minutes(n int) Resolution {
	return Resolution{Offset: time.Duration(n) * time.Minute}
}

// Days returns a finite resolution of n days.
func Days(n int) Resolution {
	return Resolution{Offset: time.Duration(n) * 24 * time.Hour}
}

// ResolveMute parses a mute duration token into minutes. Preset button
// tokens ("30", "60", "180", "1440", "none") and free-text descriptors
// ("30 минут", "1 час", "3 часа", "1 день", "Без ограничений") share one
// normalization path. Unparseable tokens resolve to indefinite with a
// logged warning.
func ResolveMute(token string, log *slog.Logger) Resolution {
	norm := normalize(token)
	if norm == "" || norm == "n/a" {
		return Indefinite()
	}

	if strings.Contains(norm, "без") || strings.Contains(norm, "none") {
		return Indefinite()
	}

	if n, ok := leadingInt(norm); ok {
		switch {
		case strings.Contains(norm, "мин"):
			return Minutes(n)
		case strings.Contains(norm, "час"):
			return Minutes(n * 60)
		case containsDayWord(norm):
			return Minutes(n * 1440)
		default:
			// bare number: preset callback tokens carry raw minutes
			return Minutes(n)
		}
	}

	if log != nil {
		log.Warn("unparseable mute duration, treating as indefinite", slog.String("token", token))
	}
	return Indefinite()
}

// ResolveBan parses a ban duration token into days. Preset tokens ("1",
// "3", "7", "30", "365") and descriptors ("7 дней", "год") share one path;
// the permanent keyword family resolves to indefinite.
func ResolveBan(token string, log *slog.Logger) Resolution {
	norm := normalize(token)
	if norm == "" || norm == "n/a" {
		return Indefinite()
	}

	if strings.Contains(norm, "перм") || strings.Contains(norm, "вечно") || strings.Contains(norm, "навсегда") {
		return Indefinite()
	}

	if strings.Contains(norm, "год") {
		return Days(365)
	}

	if n, ok := leadingInt(norm); ok {
		return Days(n)
	}

	if log != nil {
		log.Warn("unparseable ban duration, treating as indefinite", slog.String("token", token))
	}
	return Indefinite()
}

// ValidCustomMuteMinutes reports whether n is an acceptable custom mute value.
func ValidCustomMuteMinutes(n int) bool {
	return n >= MinMuteMinutes && n <= MaxMuteMinutes
}

var maxBanDays = MaxBanDays

// SetMaxBanDays overrides the custom ban upper bound from configuration.
// Values below the minimum are ignored.
func SetMaxBanDays(n int) {
	if n >= MinBanDays {
		maxBanDays = n
	}
}

// ValidCustomBanDays reports whether n is an acceptable custom ban value.
func ValidCustomBanDays(n int) bool {
	return n >= MinBanDays && n <= maxBanDays
}

func normalize(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}

func containsDayWord(s string) bool {
	return strings.Contains(s, "день") || strings.Contains(s, "дня") || strings.Contains(s, "дней")
}

// leadingInt parses the integer prefix of s.
func leadingInt(s string) (int, bool) {
	end := 0
	for end < len(s) && unicode.IsDigit(rune(s[end])) {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
