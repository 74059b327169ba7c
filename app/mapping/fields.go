package mapping

import (
	"regexp"
	"strings"
	"unicode"
)

// Target field names. FieldUnknown is the sentinel for columns the
// classifier could not map with enough confidence.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldPhone   = "phone"
	FieldAddress = "address"
	FieldCity    = "city"
	FieldState   = "state"
	FieldZip     = "zipCode"
	FieldNotes   = "notes"
	FieldSource  = "source"
	FieldTags    = "tags"
	FieldUnknown = "unknown"
)

// fieldSpec declares everything the classifier knows about one target
// field: header synonyms, a value validator, and its tie-break priority.
// New fields and locales are added here, not in classifier logic.
type fieldSpec struct {
	target string

	// keywords are normalized header tokens that indicate this field.
	// English and Spanish synonyms both appear since contact exports in
	// the contractor market come in either language.
	keywords []string

	// validate scores one non-empty cell value in [0,1] for how strongly
	// it looks like this field's values.
	validate func(string) float64
}

// fieldSpecs is ordered by tie-break priority: when two fields score within
// the tie epsilon, the one earlier in this list wins. Order and scoring are
// fixed, so classification is deterministic.
var fieldSpecs = []fieldSpec{
	{
		target: FieldName,
		keywords: []string{
			"name", "full name", "fullname", "contact", "contact name",
			"client", "client name", "customer", "nombre", "nombre completo",
			"cliente", "contacto",
		},
		validate: scoreNameValue,
	},
	{
		target: FieldEmail,
		keywords: []string{
			"email", "e-mail", "e mail", "mail", "email address", "correo",
			"correo electronico",
		},
		validate: scoreEmailValue,
	},
	{
		target: FieldPhone,
		keywords: []string{
			"phone", "tel", "telephone", "phone number", "cell", "mobile",
			"celular", "telefono", "movil", "fax",
		},
		validate: scorePhoneValue,
	},
	{
		target: FieldAddress,
		keywords: []string{
			"address", "street", "street address", "addr", "direccion",
			"domicilio", "calle",
		},
		validate: scoreAddressValue,
	},
	{
		target: FieldCity,
		keywords: []string{
			"city", "town", "ciudad", "municipio",
		},
		validate: scoreCityValue,
	},
	{
		target: FieldState,
		keywords: []string{
			"state", "province", "region", "estado", "provincia",
		},
		validate: scoreStateValue,
	},
	{
		target: FieldZip,
		keywords: []string{
			"zip", "zipcode", "zip code", "postal", "postal code",
			"postcode", "codigo postal", "cp",
		},
		validate: scoreZipValue,
	},
	{
		target: FieldNotes,
		keywords: []string{
			"notes", "note", "comments", "comment", "description", "remarks",
			"notas", "comentarios", "observaciones",
		},
		validate: scoreNotesValue,
	},
	{
		target: FieldSource,
		keywords: []string{
			"source", "lead source", "origin", "referral", "fuente", "origen",
		},
		validate: scoreShortLabelValue,
	},
	{
		target: FieldTags,
		keywords: []string{
			"tags", "tag", "labels", "label", "categories", "category",
			"etiquetas", "categoria",
		},
		validate: scoreTagsValue,
	},
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// scoreEmailValue checks the value against the email shape.
func scoreEmailValue(v string) float64 {
	if emailPattern.MatchString(strings.TrimSpace(v)) {
		return 1
	}
	if strings.Contains(v, "@") {
		return 0.5
	}
	return 0
}

// scorePhoneValue uses a digit-count heuristic: 7 to 15 digits with only
// phone punctuation around them.
func scorePhoneValue(v string) float64 {
	digits := 0
	for _, r := range v {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '+' || r == '.':
			// phone punctuation
		default:
			return 0
		}
	}
	if digits >= 7 && digits <= 15 {
		return 1
	}
	return 0
}

// scoreNameValue favors short multi-token alphabetic values.
func scoreNameValue(v string) float64 {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > 60 {
		return 0
	}
	for _, r := range v {
		if !unicode.IsLetter(r) && r != ' ' && r != '\'' && r != '-' && r != '.' {
			return 0
		}
	}
	if len(strings.Fields(v)) >= 2 {
		return 1
	}
	return 0.6
}

// scoreAddressValue looks for the number-then-words shape of street
// addresses ("123 Main St").
func scoreAddressValue(v string) float64 {
	fields := strings.Fields(strings.TrimSpace(v))
	if len(fields) < 2 {
		return 0
	}
	hasNumber := false
	hasWord := false
	for _, f := range fields {
		if isDigits(f) {
			hasNumber = true
		} else {
			hasWord = true
		}
	}
	if hasNumber && hasWord {
		return 1
	}
	if hasWord && len(fields) >= 3 {
		return 0.4
	}
	return 0
}

// scoreCityValue favors one-to-three-token alphabetic values.
func scoreCityValue(v string) float64 {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > 40 {
		return 0
	}
	fields := strings.Fields(v)
	if len(fields) == 0 || len(fields) > 3 {
		return 0
	}
	for _, r := range v {
		if !unicode.IsLetter(r) && r != ' ' && r != '.' && r != '-' {
			return 0
		}
	}
	return 0.8
}

// scoreStateValue favors two-letter state codes and short region names.
func scoreStateValue(v string) float64 {
	v = strings.TrimSpace(v)
	if len(v) == 2 && isLetters(v) {
		return 1
	}
	if len(v) > 2 && len(v) <= 20 && isLetters(strings.ReplaceAll(v, " ", "")) {
		return 0.5
	}
	return 0
}

// scoreZipValue checks the US postal-code shape (5 digits, optional +4).
func scoreZipValue(v string) float64 {
	if zipPattern.MatchString(strings.TrimSpace(v)) {
		return 1
	}
	return 0
}

// scoreNotesValue is the free-text length heuristic: long multi-word values
// look like notes.
func scoreNotesValue(v string) float64 {
	v = strings.TrimSpace(v)
	if len(v) > 80 {
		return 1
	}
	if len(v) > 40 && len(strings.Fields(v)) >= 5 {
		return 0.7
	}
	return 0
}

// scoreShortLabelValue accepts short single-token labels (lead sources).
func scoreShortLabelValue(v string) float64 {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > 30 {
		return 0
	}
	if len(strings.Fields(v)) <= 2 {
		return 0.4
	}
	return 0
}

// scoreTagsValue looks for delimiter-separated label lists.
func scoreTagsValue(v string) float64 {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > 120 {
		return 0
	}
	if strings.Contains(v, ";") || strings.Contains(v, "|") {
		return 0.8
	}
	if strings.Contains(v, ",") && len(v) <= 60 {
		return 0.5
	}
	return 0
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
