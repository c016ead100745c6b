package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Platform is the display data for a marketplace source.
type Platform struct {
	Name string
	Icon string
	url  string
}

const defaultPlatformIcon = "🛒"

var platforms = map[string]Platform{
	"lotteon":   {Name: "롯데ON", Icon: "🏬", url: "https://www.lotteon.com/p/product/%s"},
	"elevenst":  {Name: "11번가", Icon: "🛍️", url: "https://www.11st.co.kr/products/%s"},
	"coupang":   {Name: "쿠팡", Icon: "📦", url: "https://www.coupang.com/vp/products/%s"},
	"naver":     {Name: "네이버쇼핑", Icon: "🔍", url: "https://search.shopping.naver.com/catalog/%s"},
	"auction":   {Name: "옥션", Icon: "⚡"},
	"interpark": {Name: "인터파크", Icon: "🎫"},
}

// PlatformFor resolves a source case-insensitively; unknown sources keep their own name.
func PlatformFor(source string) Platform {
	if p, ok := platforms[strings.ToLower(source)]; ok {
		return p
	}
	return Platform{Name: source, Icon: defaultPlatformIcon}
}

// ProductURL builds the marketplace page for a product, or "#" when the
// platform has no known URL scheme.
func ProductURL(source, productID string) string {
	p := PlatformFor(source)
	if p.url == "" {
		return "#"
	}
	return fmt.Sprintf(p.url, productID)
}

// FormatPrice renders a won amount with thousands separators, e.g. "10,000원".
func FormatPrice(price float64) string {
	n := int64(math.Round(price))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "원"
}

// RatingStars renders a 0-5 rating as five star glyphs with an optional half star.
func RatingStars(rating float64) string {
	rating = math.Max(0, math.Min(5, rating))
	full := int(math.Floor(rating))
	half := rating-float64(full) >= 0.5
	empty := 5 - full
	if half {
		empty--
	}
	var b strings.Builder
	b.WriteString(strings.Repeat("★", full))
	if half {
		b.WriteString("⯨")
	}
	b.WriteString(strings.Repeat("☆", empty))
	return b.String()
}

// RelativeTime describes how long ago t was, in Korean.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	minutes := int(d / time.Minute)
	hours := minutes / 60
	days := hours / 24
	months := days / 30
	years := days / 365

	switch {
	case years > 0:
		return fmt.Sprintf("%d년 전", years)
	case months > 0:
		return fmt.Sprintf("%d개월 전", months)
	case days > 0:
		return fmt.Sprintf("%d일 전", days)
	case hours > 0:
		return fmt.Sprintf("%d시간 전", hours)
	case minutes > 0:
		return fmt.Sprintf("%d분 전", minutes)
	default:
		return "방금 전"
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts the formats the backend emits; zone-less values are read in loc.
func parseTimestamp(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
