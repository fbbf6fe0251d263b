package preset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/posterize/internal/bandset"
	"github.com/MeKo-Tech/posterize/internal/colorspace"
)

// Parse builds a document from comma separated breaks ("120,200") and hex
// colors ("#0000ff,#ff0000,ffff00"). Empty breaks are spread evenly over the
// tone range for the given number of colors.
func Parse(breaks, colors string) (Document, error) {
	var doc Document

	for _, field := range splitList(colors) {
		c, err := colorspace.HexToRGB(field)
		if err != nil {
			return Document{}, fmt.Errorf("invalid color %q: %w", field, err)
		}
		doc.Colors = append(doc.Colors, c)
	}

	fields := splitList(breaks)
	if len(fields) == 0 {
		doc.Breaks = bandset.EvenBreaks(len(doc.Colors))
	}
	for _, field := range fields {
		b, err := strconv.Atoi(field)
		if err != nil {
			return Document{}, fmt.Errorf("invalid break %q: %w", field, err)
		}
		doc.Breaks = append(doc.Breaks, b)
	}

	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Hex returns the colors as a comma separated hex list, the inverse of the
// colors argument of Parse.
func (d Document) Hex() string {
	parts := make([]string, len(d.Colors))
	for i, c := range d.Colors {
		parts[i] = colorspace.RGBToHex(c)
	}
	return strings.Join(parts, ",")
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
