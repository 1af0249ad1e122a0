package render

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/zaqqye/vdi_docgen/internal/models"
)

var (
	nonCode   = regexp.MustCompile(`[^A-Z0-9]+`)
	wordSplit = regexp.MustCompile(`[^A-Za-z0-9]+`)
	podToken  = regexp.MustCompile(`^pod\d+$`)
)

// Filename builds CUST_PROJ_CODE_yyyymmdd-hhmm.ext from the record.
func Filename(rec models.Submission, code, ext string) string {
	customer := firstText(rec, "customer_name", "global_customer_name")
	project := firstText(rec, "project_name", "global_project_name")
	stamp := timestamp(rec).Format("20060102-1504")
	return CustomerAbbrev(customer) + "_" + ProjectAbbrev(project) + "_" + code + "_" + stamp + "." + ext
}

func firstText(rec models.Submission, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(rec.Text(k)); s != "" {
			return s
		}
	}
	return ""
}

var customerOverrides = []struct {
	re   *regexp.Regexp
	code string
}{
	{regexp.MustCompile(`(?i)\bPACAF\b|\bPacific\s+Air\s+Forces\b`), "PACAF"},
	{regexp.MustCompile(`(?i)\bDiamondback\s+Energy\b`), "DBE"},
}

// CustomerAbbrev shortens a customer name to at most five letters.
func CustomerAbbrev(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "CUST"
	}
	for _, o := range customerOverrides {
		if o.re.MatchString(name) {
			return o.code
		}
	}
	out := nonCode.ReplaceAllString(initials(name, 5), "")
	if out == "" {
		return "CUST"
	}
	return out
}

// ProjectAbbrev shortens a project name: well known words get fixed codes and
// short tokens are kept as they are.
func ProjectAbbrev(name string) string {
	var parts []string
	for _, tok := range wordSplit.Split(strings.TrimSpace(name), -1) {
		if tok == "" {
			continue
		}
		low := strings.ToLower(tok)
		switch {
		case strings.HasPrefix(low, "horizon"):
			parts = append(parts, "HZN")
		case low == "vcf" || low == "vcloud" || low == "cloudfoundation":
			parts = append(parts, "VCF")
		case low == "deploy" || low == "deployment" || low == "impl" || low == "implementation":
			parts = append(parts, "IMPL")
		case low == "pod":
			parts = append(parts, "POD")
		case podToken.MatchString(low):
			parts = append(parts, strings.ToUpper(tok))
		case len(tok) <= 3 || isDigits(tok):
			parts = append(parts, strings.ToUpper(tok))
		}
	}
	out := strings.Join(parts, "")
	if out == "" {
		out = initials(name, 8)
	}
	out = nonCode.ReplaceAllString(strings.ToUpper(out), "")
	if len(out) > 10 {
		out = out[:10]
	}
	if out == "" {
		return "PRJ"
	}
	return out
}

// initials prefers the capitals already in s, then the first letter of each word.
func initials(s string, max int) string {
	var caps []rune
	for _, r := range s {
		if unicode.IsUpper(r) && r < unicode.MaxASCII {
			caps = append(caps, r)
		}
	}
	if len(caps) == 0 {
		for _, tok := range wordSplit.Split(s, -1) {
			if tok != "" {
				caps = append(caps, unicode.ToUpper(rune(tok[0])))
			}
		}
	}
	if len(caps) > max {
		caps = caps[:max]
	}
	return string(caps)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
