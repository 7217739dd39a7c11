package domain

// Bilingual holds the same text in Persian and English
type Bilingual struct {
	FA string `json:"fa"`
	EN string `json:"en"`
}

// Local returns the text for the given locale
func (b Bilingual) Local(l Locale) string {
	if l == LocaleEN {
		return b.EN
	}
	return b.FA
}

// Traffic is the optional travel advice with grounding links
type Traffic struct {
	Bilingual
	Links []string `json:"links"`
}

// Insight is the AI generated commentary for a selected day
type Insight struct {
	Insight Bilingual `json:"insight"`
	Prayer  Bilingual `json:"prayer"`
	Traffic Traffic   `json:"traffic"`
}
