package feed

import (
	"sort"
	"strconv"
	"strings"

	"github.com/auricpulse/goldpulse/pkg/models"
)

// The broadcast feeds share one overall line shape: an optional numeric
// row-id, a multi-token product label, then a fixed-size numeric suffix.
// Vendors differ in suffix width, label matching, and column stability, so
// each shape gets its own named strategy below. All strategies are pure
// functions of the raw text: a line that does not parse is dropped, never
// surfaced as an error, and no emitted record ever has a missing numeric
// field.

// lines splits raw feed text into trimmed, non-blank lines.
func lines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// matchesAny reports whether the line contains any of the marker substrings.
// Matching is case-insensitive, like the dealer terminals themselves.
func matchesAny(line string, markers []string) bool {
	upper := strings.ToUpper(line)
	for _, m := range markers {
		if strings.Contains(upper, strings.ToUpper(m)) {
			return true
		}
	}
	return false
}

// label joins the tokens between the leading row-id and the numeric suffix
// back into the product name.
func label(tokens []string, suffixLen int) string {
	return strings.Join(tokens[1:len(tokens)-suffixLen], " ")
}

// parseFloats parses every token or reports failure; a single bad token
// disqualifies the whole line.
func parseFloats(tokens []string) ([]float64, bool) {
	out := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// ParseDealerRows parses the common dealer broadcast shape: row-id, product
// label, then buy/sell/high/low. With exact=false a line is a candidate when
// it contains any marker substring; with exact=true the reconstructed product
// label must equal one of the markers (some vendors reuse marker words across
// unrelated rows).
func ParseDealerRows(raw, source string, markers []string, exact bool) []models.DealerQuote {
	var quotes []models.DealerQuote

	for _, line := range lines(raw) {
		tokens := strings.Fields(line)
		if len(tokens) < 6 {
			continue
		}

		product := label(tokens, 4)
		if exact {
			if !containsExact(markers, product) {
				continue
			}
		} else if !matchesAny(line, markers) {
			continue
		}

		nums, ok := parseFloats(tokens[len(tokens)-4:])
		if !ok {
			continue
		}

		quotes = append(quotes, models.DealerQuote{
			Source:  source,
			Product: product,
			Buy:     nums[0],
			Sell:    nums[1],
			High:    nums[2],
			Low:     nums[3],
		})
	}
	return quotes
}

// ParseStatusRows parses the five-column variant where a status flag trails
// the numeric suffix: row-id, label, buy/sell/high/low, status.
//
// Known feed quirk: for "GOLD 999 BIS" rows this vendor's provider publishes
// the sell price in the high column, so sell is taken from high for that
// product. This is a documented special case of the upstream feed, not a
// heuristic.
func ParseStatusRows(raw, source string, markers []string) []models.DealerQuote {
	var quotes []models.DealerQuote

	for _, line := range lines(raw) {
		if !matchesAny(line, markers) {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) < 7 {
			continue
		}

		nums, ok := parseFloats(tokens[len(tokens)-5 : len(tokens)-1])
		if !ok {
			continue
		}

		product := label(tokens, 5)
		buy, sell, high, low := nums[0], nums[1], nums[2], nums[3]
		if strings.Contains(product, "GOLD 999 BIS") {
			sell = high
		}

		quotes = append(quotes, models.DealerQuote{
			Source:  source,
			Product: product,
			Buy:     buy,
			Sell:    sell,
			High:    high,
			Low:     low,
			Status:  tokens[len(tokens)-1],
		})
	}
	return quotes
}

// ParseCostingRows parses premium-costing silver rows. The trailing five
// tokens are costing/buy/sell/high/low; they are carried as the strings the
// feed publishes because some feeds omit numeric formatting entirely. The
// product label is fixed per feed.
func ParseCostingRows(raw, source, product string, markers []string) []models.SilverCosting {
	var costings []models.SilverCosting

	for _, line := range lines(raw) {
		if !matchesAny(line, markers) {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) < 5 {
			continue
		}

		tail := tokens[len(tokens)-5:]
		costings = append(costings, models.SilverCosting{
			Source:  source,
			Product: product,
			Costing: tail[0],
			Buy:     tail[1],
			Sell:    tail[2],
			High:    tail[3],
			Low:     tail[4],
		})
	}
	return costings
}

// ParseRankedComposite reconstructs a single quote from a feed whose column
// order is not stable. It takes the first line matching a marker, collects
// every numeric token except the bare "999" purity literal, sorts them
// ascending and reads the top four as low/buy/sell/high. Returns nil when no
// line matches or fewer than four numeric tokens are found.
func ParseRankedComposite(raw, source, product string, markers []string) *models.CompositeQuote {
	var line string
	for _, l := range lines(raw) {
		if matchesAny(l, markers) {
			line = l
			break
		}
	}
	if line == "" {
		return nil
	}

	var values []float64
	for _, tok := range strings.Fields(line) {
		if tok == "999" {
			continue
		}
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			values = append(values, v)
		}
	}
	if len(values) < 4 {
		return nil
	}

	sort.Float64s(values)
	top := values[len(values)-4:]

	return &models.CompositeQuote{
		Source:  source,
		Product: product,
		Low:     formatPrice(top[0]),
		Buy:     formatPrice(top[1]),
		Sell:    formatPrice(top[2]),
		High:    formatPrice(top[3]),
	}
}

func containsExact(markers []string, product string) bool {
	for _, m := range markers {
		if m == product {
			return true
		}
	}
	return false
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
