package model

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Capital estimate bounds in USD.
const (
	DefaultCapitalUSD = 50000
	MinCapitalUSD     = 5000
)

var capitalAmountRe = regexp.MustCompile(`(?i)([\d,.]+)\s*(K|M|B)?`)

// ParseCapitalRange turns a free-text range such as "$50K-200K" or "$1.5M" into a
// single USD estimate: the mean of every amount found, floored at MinCapitalUSD.
// Unparseable or empty input yields DefaultCapitalUSD.
func ParseCapitalRange(s string) int64 {
	if strings.TrimSpace(s) == "" {
		return DefaultCapitalUSD
	}

	var sum float64
	var n int
	for _, m := range capitalAmountRe.FindAllStringSubmatch(s, -1) {
		raw, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil || math.IsInf(raw, 0) || math.IsNaN(raw) {
			continue
		}
		switch strings.ToUpper(m[2]) {
		case "B":
			raw *= 1e9
		case "M":
			raw *= 1e6
		case "K":
			raw *= 1e3
		}
		if raw > 0 {
			sum += raw
			n++
		}
	}
	if n == 0 {
		return DefaultCapitalUSD
	}

	avg := math.Round(sum / float64(n))
	return int64(math.Max(avg, MinCapitalUSD))
}

// CapitalEstimate returns ParseCapitalRange of the firm's required capital.
func (f Firm) CapitalEstimate() int64 {
	return ParseCapitalRange(f.RequiredCapital)
}
