package domain

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders n with thousands separators, e.g. 10,800,000,000.
func FormatAmount(n int64) string {
	return amountPrinter.Sprintf("%d", n)
}
