package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Sri Lankan phone numbers: 0XXXXXXXXX or +94XXXXXXXXX.
	phonePattern = regexp.MustCompile(`^(?:\+94|0)\d{9}$`)
	// NIC: old format 9 digits + V/X, new format 12 digits.
	nicPattern = regexp.MustCompile(`^(?:\d{9}[VvXx]|\d{12})$`)
)

const (
	MaxUploadBytes = 10 << 20

	// Sri Lanka bounding box for coordinate sanity checks.
	minLatitude  = 5.9
	maxLatitude  = 9.9
	minLongitude = 79.4
	maxLongitude = 82.0
)

var allowedUploadExts = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".heic": true,
}

func CheckEmail(v string) string {
	if !emailPattern.MatchString(strings.TrimSpace(v)) {
		return "enter a valid email address"
	}
	return ""
}

func CheckPhone(v string) string {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(v)
	if !phonePattern.MatchString(cleaned) {
		return "enter a valid Sri Lankan phone number"
	}
	return ""
}

func CheckNIC(v string) string {
	if !nicPattern.MatchString(strings.TrimSpace(v)) {
		return "enter a valid NIC number"
	}
	return ""
}

// CheckPassword enforces the minimum strength used for valuer accounts.
func CheckPassword(v string) string {
	if len(v) < 8 {
		return "password must be at least 8 characters"
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range v {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return "password must contain upper case, lower case and a digit"
	}
	return ""
}

// CheckNumber parses a numeric field, optionally enforcing a non-negative value.
func CheckNumber(v any, allowNegative bool) string {
	f, ok := ToFloat(v)
	if !ok {
		return "enter a valid number"
	}
	if !allowNegative && f < 0 {
		return "value cannot be negative"
	}
	return ""
}

// CheckDateNotFuture validates a date string and rejects dates after today.
func CheckDateNotFuture(v string) string {
	t, err := ParseDate(v)
	if err != nil {
		return "enter a valid date"
	}
	if t.After(time.Now()) {
		return "date cannot be in the future"
	}
	return ""
}

// CheckCoordinates rejects points outside Sri Lanka.
func CheckCoordinates(lat, lng float64) string {
	if lat < minLatitude || lat > maxLatitude || lng < minLongitude || lng > maxLongitude {
		return "coordinates are outside Sri Lanka"
	}
	return ""
}

// CheckUploadFile enforces the per-file size limit and extension allow-list.
func CheckUploadFile(filename string, size int64) string {
	if size > MaxUploadBytes {
		return fmt.Sprintf("file exceeds the %dMB limit", MaxUploadBytes>>20)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedUploadExts[ext] {
		return "file type not allowed (pdf, jpg, jpeg, png, heic)"
	}
	return ""
}

// ParseDate accepts the date layouts seen in survey plans and deeds.
func ParseDate(v string) (time.Time, error) {
	s := strings.TrimSpace(v)
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		"02/01/2006",
		"02.01.2006",
		"2 January 2006",
		"January 2, 2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", v)
}

// ToFloat coerces the numeric shapes that survive JSON decoding.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
