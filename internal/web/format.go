package web

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var indianEnglish = language.MustParse("en-IN")

// rupees renders an amount with Indian digit grouping, e.g. ₹1,50,000 or
// ₹1,100.50. Only the whole part goes through the printer so paise stay exact.
func rupees(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	whole, paise, _ := strings.Cut(d.StringFixed(2), ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + "₹" + d.String()
	}

	out := sign + "₹" + message.NewPrinter(indianEnglish).Sprint(number.Decimal(n))
	if paise != "00" {
		out += "." + paise
	}
	return out
}

func formatDate(t time.Time) string {
	return t.Local().Format("02 Jan 2006, 15:04")
}
