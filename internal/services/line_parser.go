package services

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/kulkarnip/stockscan/internal/models"
)

// ErrInvalidLineData reports a line that matched the expected shape but
// carried unusable values (blank name, unparseable quantity).
var ErrInvalidLineData = errors.New("invalid line data")

// LineParser extracts product mentions from single lines of OCR text.
//
// The token pattern is deliberately narrow and matches the fixed layout of
// the bills this system ingests: a product name made of letters and
// whitespace, immediately followed by a quantity digit run, optionally
// followed later in the line by a price token. Product names containing
// digits, multi-line item descriptions, and quantities separated from the
// name by punctuation are not recognized; callers decide whether a
// non-matching line is reportable.
type LineParser struct {
	itemPattern  *regexp.Regexp
	pricePattern *regexp.Regexp
}

// NewLineParser creates a new line parser
func NewLineParser() *LineParser {
	return &LineParser{
		// NAME QTY: longest leading run of letters and whitespace, then digits
		itemPattern: regexp.MustCompile(`([a-zA-Z\s]+)([0-9]+)`),
		// Optional $, optional whitespace, digits, optional two-digit fraction
		pricePattern: regexp.MustCompile(`\$?\s*([0-9]+(\.[0-9]{2})?)`),
	}
}

// ParseBillLine parses one bill line into a name and quantity.
// Returns nil when the line does not match; a non-match is not an error.
func (p *LineParser) ParseBillLine(line string) *models.ParsedLineItem {
	item, err := p.parse(line, false)
	if err != nil {
		return nil
	}
	return item
}

// ParseInvoiceLine parses one invoice line into a name, quantity and
// optional price. Returns (nil, nil) when the line does not match and
// (nil, ErrInvalidLineData) when it matches but the values are unusable.
func (p *LineParser) ParseInvoiceLine(line string) (*models.ParsedLineItem, error) {
	return p.parse(line, true)
}

func (p *LineParser) parse(line string, withPrice bool) (*models.ParsedLineItem, error) {
	loc := p.itemPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return nil, nil
	}

	name := strings.TrimSpace(line[loc[2]:loc[3]])
	quantity, err := strconv.Atoi(line[loc[4]:loc[5]])
	if name == "" || err != nil {
		return nil, ErrInvalidLineData
	}

	item := &models.ParsedLineItem{
		RawLine:     line,
		ProductName: name,
		Quantity:    quantity,
	}

	if withPrice {
		item.Price = p.extractPrice(line[loc[1]:])
	}

	return item, nil
}

// extractPrice looks for the first price token in the remainder of a line
func (p *LineParser) extractPrice(text string) *float64 {
	matches := p.pricePattern.FindStringSubmatch(text)
	if matches == nil {
		return nil
	}

	price, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return nil
	}

	return &price
}
