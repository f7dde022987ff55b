package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)
)

// Series identifies a document numbering sequence.
type Series string

const (
	SeriesInvoiceForm  Series = "invoice_form"
	SeriesSalesInvoice Series = "sales_invoice"
	SeriesPayment      Series = "payment_entry"
)

var templates = map[Series]string{
	SeriesInvoiceForm:  "IF-{YYYY}-{SEQ5}",
	SeriesSalesInvoice: "SINV-{YYYY}-{SEQ5}",
	SeriesPayment:      "PE-{YYYY}-{SEQ5}",
}

// Template returns the number template of a series.
func Template(series Series) (string, bool) {
	tmpl, ok := templates[series]
	return tmpl, ok
}

// FormatNumber formats a document name from a template, the posting date and a sequence.
//
// This function is PURE:
// - No side effects
// - No DB access
// - Fully deterministic
func FormatNumber(
	template string,
	postingDate time.Time,
	seq int64,
) (string, error) {

	if template == "" {
		return "", fmt.Errorf("number template is empty")
	}

	if seq <= 0 {
		return "", fmt.Errorf("invalid sequence: %d", seq)
	}

	out := template

	// Date tokens
	out = strings.ReplaceAll(out, "{YYYY}", postingDate.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", postingDate.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", postingDate.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", postingDate.Format("02"))

	out = strings.ReplaceAll(out, "{SEQ}", strconv.FormatInt(seq, 10))

	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := seqPadRe.FindStringSubmatch(m)
		if len(match) != 2 {
			return m
		}

		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}

		return fmt.Sprintf("%0*d", width, seq)
	})

	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in number format: %s", out)
	}

	return out, nil
}
