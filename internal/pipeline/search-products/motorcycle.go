// internal/pipeline/search-products/motorcycle.go
package searchproducts

import (
	"regexp"
	"strings"

	"lubebot/internal/knowledge"
	"lubebot/internal/models"
)

// Motorcycle oils split into scooter (JASO MB, wet-clutch unsafe) and manual
// transmission (JASO MA / MA2) lines. Recommending across that split is worse
// than recommending nothing, so classification is layered: an explicit word in
// the message wins, then the certification the classifier extracted, then the
// brand/model vocabulary.

const (
	subTypeScooter = "scooter"
	subTypeManual  = "manual"
)

var (
	// "MA" must not match inside "MA2"; a word boundary after "MA" excludes
	// a following digit.
	certMAPattern  = regexp.MustCompile(`\bMA\b`)
	certMA2Pattern = regexp.MustCompile(`\bMA2\b`)
	certMBPattern  = regexp.MustCompile(`\bMB\b`)
)

type motoTables struct {
	ScooterWords  []string `json:"scooterWords"`
	ManualWords   []string `json:"manualWords"`
	ScooterModels []string `json:"scooterModels"`
	ManualModels  []string `json:"manualModels"`
}

func defaultMotoTables() motoTables {
	return motoTables{
		ScooterWords:  []string{"scooter", "scooty", "matic", "cvt", "gearless"},
		ManualWords:   []string{"gear bike", "manual clutch", "geared", "sports bike", "cruiser"},
		ScooterModels: []string{"activa", "jupiter", "access 125", "dio", "ntorq", "vespa", "burgman", "fascino", "maestro"},
		ManualModels:  []string{"classic 350", "bullet", "royal enfield", "splendor", "pulsar", "apache", "fz", "mt 15", "duke", "himalayan", "unicorn", "shine"},
	}
}

func loadMotoTables(store *knowledge.Store) motoTables {
	tables := defaultMotoTables()
	if store == nil {
		return tables
	}
	var loaded motoTables
	if store.DecodeNamed("moto_classification", &loaded) {
		if len(loaded.ScooterWords) > 0 {
			tables.ScooterWords = loaded.ScooterWords
		}
		if len(loaded.ManualWords) > 0 {
			tables.ManualWords = loaded.ManualWords
		}
		if len(loaded.ScooterModels) > 0 {
			tables.ScooterModels = loaded.ScooterModels
		}
		if len(loaded.ManualModels) > 0 {
			tables.ManualModels = loaded.ManualModels
		}
	}
	return tables
}

// classifyVehicleSubType resolves which motorcycle line the user needs.
// Returns "" when the vehicle is not a motorcycle or nothing decides it.
func classifyVehicleSubType(message string, intent models.Intent, tables motoTables) string {
	if !intent.IsMotorcycle {
		return ""
	}
	lower := strings.ToLower(message)

	for _, w := range tables.ScooterWords {
		if strings.Contains(lower, w) {
			return subTypeScooter
		}
	}
	for _, w := range tables.ManualWords {
		if strings.Contains(lower, w) {
			return subTypeManual
		}
	}

	for _, cert := range intent.Certifications {
		upper := strings.ToUpper(cert)
		if certMBPattern.MatchString(upper) {
			return subTypeScooter
		}
		if certMAPattern.MatchString(upper) || certMA2Pattern.MatchString(upper) {
			return subTypeManual
		}
	}

	model := strings.ToLower(intent.VehicleModel)
	if model == "" {
		model = lower
	}
	for _, m := range tables.ScooterModels {
		if strings.Contains(model, m) {
			return subTypeScooter
		}
	}
	for _, m := range tables.ManualModels {
		if strings.Contains(model, m) {
			return subTypeManual
		}
	}

	return ""
}

// classifyEntrySubType tags a catalog entry as a scooter or manual line
// product from its certifications and text.
func classifyEntrySubType(entry models.CatalogEntry, tables motoTables) string {
	certText := strings.ToUpper(strings.Join(entry.Certifications, " "))
	if certMBPattern.MatchString(certText) {
		return subTypeScooter
	}
	if certMAPattern.MatchString(certText) || certMA2Pattern.MatchString(certText) {
		return subTypeManual
	}

	text := strings.ToLower(entry.Title + " " + entry.Description)
	for _, w := range tables.ScooterWords {
		if strings.Contains(text, w) {
			return subTypeScooter
		}
	}
	for _, w := range tables.ManualWords {
		if strings.Contains(text, w) {
			return subTypeManual
		}
	}
	return ""
}

// certMatches reports whether a wanted certification appears in the entry's
// certification list as a whole token. Plain "MA" never matches an "MA2"
// product.
func certMatches(wanted string, entryCerts []string) bool {
	wantedUpper := strings.ToUpper(strings.TrimSpace(wanted))
	if wantedUpper == "" {
		return false
	}
	certText := strings.ToUpper(strings.Join(entryCerts, " "))
	switch wantedUpper {
	case "MA", "JASO MA":
		return certMAPattern.MatchString(certText)
	case "MA2", "JASO MA2":
		return certMA2Pattern.MatchString(certText)
	case "MB", "JASO MB":
		return certMBPattern.MatchString(certText)
	}
	pattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(wantedUpper) + `\b`)
	if err != nil {
		return false
	}
	return pattern.MatchString(certText)
}

// syntheticGrade ranks the base-oil tier a title advertises. Full synthetic 3,
// synthetic technology 2, mineral 1, unstated 1.5.
func syntheticGrade(title string) float64 {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "full synthetic"),
		strings.Contains(lower, "fully synthetic"),
		strings.Contains(lower, "100% synthetic"):
		return 3
	case strings.Contains(lower, "synthetic technology"),
		strings.Contains(lower, "semi synthetic"),
		strings.Contains(lower, "semi-synthetic"),
		strings.Contains(lower, "synthetic blend"):
		return 2
	case strings.Contains(lower, "mineral"):
		return 1
	}
	return 1.5
}
