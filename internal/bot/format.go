package bot

import (
	"html"
	"strconv"
	"strings"

	"github.com/tazhate/taqvim/internal/domain"
)

var persianDigits = strings.NewReplacer(
	"0", "۰", "1", "۱", "2", "۲", "3", "۳", "4", "۴",
	"5", "۵", "6", "۶", "7", "۷", "8", "۸", "9", "۹",
)

// localDigits writes n with Persian digits for the Persian locale
func localDigits(n int, l domain.Locale) string {
	s := strconv.Itoa(n)
	if l == domain.LocaleFA {
		return persianDigits.Replace(s)
	}
	return s
}

func tr(l domain.Locale, fa, en string) string {
	if l == domain.LocaleEN {
		return en
	}
	return fa
}

// formatInsight renders model output as escaped HTML
func formatInsight(ins domain.Insight, l domain.Locale) string {
	var sb strings.Builder

	sb.WriteString("🕊 <b>" + tr(l, "بینش روز", "Daily insight") + "</b>\n")
	sb.WriteString(html.EscapeString(ins.Insight.Local(l)))
	sb.WriteString("\n\n🙏 <b>" + tr(l, "دعای روز", "Prayer") + "</b>\n")
	sb.WriteString(html.EscapeString(ins.Prayer.Local(l)))

	if traffic := ins.Traffic.Local(l); traffic != "" {
		sb.WriteString("\n\n🚗 <b>" + tr(l, "مسیر", "Travel") + "</b>\n")
		sb.WriteString(html.EscapeString(traffic))
	}
	for _, link := range ins.Traffic.Links {
		sb.WriteString("\n🔗 " + html.EscapeString(link))
	}

	return sb.String()
}
