package comps

import "regexp"

// brandSpec couples a canonical manufacturer name with the name variants that
// identify it in listing text and the model-number shapes that brand uses.
// The roster is an ordered table; extending brand coverage means adding a row
// here, never touching extraction control flow.
type brandSpec struct {
	// Canonical is the normalized brand name reported on sale records.
	Canonical string

	// aliases are name variants matched against passage text and the
	// caller's brand hint.  Order matters: longer, more specific variants
	// come first so "Case IH" wins over "Case".
	aliases []string

	// modelPatterns are tried in order against the passage text once the
	// brand is fixed; the first capture group of the first match wins.
	modelPatterns []*regexp.Regexp
}

// brandRoster lists the manufacturers the extractor recognises.  Table order
// is the scan order when no brand hint resolves, so the most common brands
// in North American farm auctions come first.
var brandRoster = []brandSpec{
	{
		Canonical: "John Deere",
		aliases:   []string{"John Deere"},
		modelPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(\d+[A-Z]+R?)\b`),    // 8370R, 5075E
			regexp.MustCompile(`\b([A-Z]\d+[A-Z]?)\b`), // S780, X9
		},
	},
	{
		Canonical: "Case",
		aliases:   []string{"Case IH", "CaseIH", "Case"},
		modelPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(\d+[A-Z]+)\b`),  // 4440A, 9250T
			regexp.MustCompile(`\b([A-Z]+-\d+)\b`), // CVX-175
		},
	},
	{
		Canonical: "New Holland",
		aliases:   []string{"New Holland"},
		modelPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(T\d+\.\d+)\b`), // T6.175
			regexp.MustCompile(`\b(T\d+)\b`),      // T7, T8
		},
	},
	{
		Canonical: "Kubota",
		aliases:   []string{"Kubota"},
		modelPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(M\d-\d{3})\b`),            // M7-172
			regexp.MustCompile(`\b([BLM]X?\d{3,4}[A-Z]*)\b`), // L3901, MX5400
		},
	},
	{
		Canonical: "Massey Ferguson",
		aliases:   []string{"Massey Ferguson", "Massey"},
		modelPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\bMF\s?(\d{3,4}[A-Z]?)\b`), // MF 4710
			regexp.MustCompile(`\b(\d{4}[A-Z])\b`),         // 8737S
		},
	},
	{
		Canonical: "AGCO",
		aliases:   []string{"AGCO"},
		modelPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(DT\d{3}[A-Z]?)\b`), // DT250B
			regexp.MustCompile(`\b(RT\d{3})\b`),       // RT155
		},
	},
	{
		Canonical: "Fendt",
		aliases:   []string{"Fendt"},
		modelPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(\d{3}\s?Vario)\b`), // 724 Vario
			regexp.MustCompile(`\b(9\d{2})\b`),        // 942
		},
	},
	{
		Canonical: "Claas",
		aliases:   []string{"Claas"},
		modelPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(AXION\s?\d{3})\b`),
			regexp.MustCompile(`\b(ARION\s?\d{3})\b`),
		},
	},
	{
		Canonical: "Deutz-Fahr",
		aliases:   []string{"Deutz-Fahr", "Deutz Fahr"},
		modelPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(\d{4}\s?TTV)\b`), // 6215 TTV
			regexp.MustCompile(`\b(Agrotron\s?\d{3})\b`),
		},
	},
	{
		Canonical: "Caterpillar",
		aliases:   []string{"Caterpillar", "CAT"},
		modelPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(MT\d{3}[A-Z]?)\b`), // MT875E
			regexp.MustCompile(`\b(Challenger\s?\d{2,3})\b`),
		},
	},
}

// aliasMatchers caches a word-boundary, case-insensitive matcher per alias so
// short variants like "CAT" never fire inside words like "cattle".
var aliasMatchers = buildAliasMatchers()

func buildAliasMatchers() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp)
	for _, spec := range brandRoster {
		for _, alias := range spec.aliases {
			if _, ok := m[alias]; !ok {
				m[alias] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(alias) + `\b`)
			}
		}
	}
	return m
}
