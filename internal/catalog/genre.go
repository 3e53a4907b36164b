package catalog

import "strings"

// genreRules is checked in order; the first subject match wins.
var genreRules = []struct {
	subject string
	genre   string
}{
	{"Science fiction", "Science Fiction"},
	{"Fantasy", "Fantasy Fiction"},
	{"Juvenile fiction", "Young Adult Fiction"},
	{"Mystery fiction", "Mystery Fiction"},
	{"Historical fiction", "Historical Fiction"},
	{"Humor", "Humor"},
	{"Western", "Western Fiction"},
	{"Adventure", "Adventure Fiction"},
	{"Short stories", "Short Stories"},
}

// GeneralFiction is the genre of works matching no rule.
const GeneralFiction = "General Fiction"

// Genre derives a display genre from a raw subjects string.
func Genre(subjects string) string {
	for _, r := range genreRules {
		if strings.Contains(subjects, r.subject) {
			return r.genre
		}
	}
	return GeneralFiction
}
