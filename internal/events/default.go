package events

import "github.com/tazhate/taqvim/internal/domain"

// Saint Sarkis Cathedral, Tehran: default venue for church events
var churchLocation = struct {
	address   string
	addressEn string
	coords    domain.LatLng
}{
	address:   "تهران، خیابان کریمخان زند، نبش خیابان استاد نجات‌اللهی، کلیسای جامع سرکیس مقدس",
	addressEn: "Saint Sarkis Cathedral, Karimkhan Zand St, Tehran, Iran",
	coords:    domain.LatLng{Lat: 35.7036, Lng: 51.4150},
}

func churchCoords() *domain.LatLng {
	c := churchLocation.coords
	return &c
}

// DefaultEvents returns the built-in festivals and church feasts
func DefaultEvents() []domain.CalendarEvent {
	return []domain.CalendarEvent{
		// Ancient Persian festivals
		{
			Month: 1, Day: 1, Title: "جشن نوروز", TitleEn: "Nowruz Festival", Type: domain.EventCultural,
			Description:   "آغاز سال نو خورشیدی و رستاخیز طبیعت",
			DescriptionEn: "The Persian New Year and the rebirth of nature",
			Narrative:     "نوروز نماد پیروزی نور بر تاریکی و کهن‌ترین جشن ایرانی است که همزمان با اعتدال بهاری آغاز می‌شود.",
			NarrativeEn:   "Nowruz symbolizes the victory of light over darkness and is the oldest Persian festival, beginning exactly at the vernal equinox.",
		},
		{
			Month: 1, Day: 13, Title: "سیزده‌بدر", TitleEn: "Nature Day", Type: domain.EventCultural,
			Description:   "روز آشتی با طبیعت",
			DescriptionEn: "The day of reconciliation with nature",
			Narrative:     "ایرانیان در این روز به دشت و صحرا می‌روند تا آخرین روز جشن‌های نوروزی را در آغوش طبیعت سپری کنند.",
			NarrativeEn:   "On this day, Persians head to the outdoors to spend the final day of Nowruz holidays in the embrace of nature.",
		},
		{
			Month: 4, Day: 10, Title: "جشن تیرگان", TitleEn: "Tirgan Festival", Type: domain.EventCultural,
			Description:   "جشن آب‌ریزگان و بزرگداشت آرش کمانگیر",
			DescriptionEn: "The festival of water and commemoration of Arash the Archer",
			Narrative:     "تیرگان یادآور حماسه تعیین مرزهای ایران توسط آرش کمانگیر و جشنی برای طلب باران است.",
			NarrativeEn:   "Tirgan commemorates the epic boundary-setting of Iran by Arash the Archer and is a festival to pray for rain.",
		},
		{
			Month: 7, Day: 16, Title: "جشن مهرگان", TitleEn: "Mehregan Festival", Type: domain.EventCultural,
			Description:   "جشن مهر، دوستی و اعتدال پاییزی",
			DescriptionEn: "The festival of love, friendship, and the autumnal equinox",
			Narrative:     "مهرگان پس از نوروز بزرگترین جشن ایرانی است که بر پایه دوستی و پیمان‌داری بنا شده است.",
			NarrativeEn:   "After Nowruz, Mehregan is the largest Persian festival, built upon the values of friendship and covenant.",
		},
		{
			Month: 9, Day: 30, Title: "شب یلدا", TitleEn: "Yalda Night", Type: domain.EventCultural,
			Description:   "جشن بلندترین شب سال و زایش خورشید",
			DescriptionEn: "The celebration of the longest night and the birth of the Sun",
			Narrative:     "یلدا نماد غلبه نور بر تاریکی است؛ شبی که خانواده‌ها گرد هم می‌آیند تا طلوع خورشید را نظاره‌گر باشند.",
			NarrativeEn:   "Yalda symbolizes the victory of light over darkness; a night when families gather to witness the rising of the new Sun.",
		},

		// Christian holidays
		{
			Month: 10, Day: 4, Title: "میلاد حضرت مسیح (غربی)", TitleEn: "Christmas Day (Western)", Type: domain.EventHoliday,
			Description:   "جشن ولادت عیسی مسیح منجی عالم",
			DescriptionEn: "The celebration of the birth of Jesus Christ, Savior of the world",
			Narrative:     "تجلی کلمه خدا در جسم؛ روزی که مژده رهایی و عشق الهی به تمامی جهانیان ابلاغ شد.",
			NarrativeEn:   "The manifestation of the Word of God in flesh; the day the news of liberation and divine love reached the world.",
			Location:      churchLocation.address,
			LocationEn:    churchLocation.addressEn,
			Coords:        churchCoords(),
		},
		{
			Month: 1, Day: 7, Title: "میلاد مسیح (ارتدکس)", TitleEn: "Christmas (Orthodox)", Type: domain.EventHoliday,
			Description:   "ولادت منجی در تقویم کلیساهای شرقی",
			DescriptionEn: "The birth of the Savior according to the Eastern Church calendar",
			Narrative:     "بسیاری از جوامع ارتدکس و شرقی، میلاد مسیح را در این روز با آیین‌های خاص خود جشن می‌گیرند.",
			NarrativeEn:   "Many Orthodox and Eastern communities celebrate the birth of Christ on this day with their unique traditions.",
			Location:      churchLocation.address,
			LocationEn:    churchLocation.addressEn,
			Coords:        churchCoords(),
		},
		{
			Month: 4, Day: 10, Title: "عید تادئوس مقدس (قره کلیسا)", TitleEn: "Feast of St. Thaddeus", Type: domain.EventReligious,
			Description:   "زیارت سالانه در قدیمی‌ترین کلیسای جهان",
			DescriptionEn: "Annual pilgrimage to one of the world's oldest churches",
			Narrative:     "یادبود شهادت سنت تادئوس که آیین مسیحیت را به فلات ایران و ارمنستان آورد.",
			NarrativeEn:   "Commemorating the martyrdom of St. Thaddeus, who brought Christianity to the Persian plateau and Armenia.",
			Location:      "آذربایجان غربی، ماکو، کلیسای تادئوس مقدس (قره کلیسا)",
			LocationEn:    "Monastery of Saint Thaddeus, Maku, West Azerbaijan, Iran",
			Coords:        &domain.LatLng{Lat: 39.0921, Lng: 44.5436},
		},
		{
			Month: 5, Day: 24, Title: "عروج مریم مقدس", TitleEn: "Assumption of Mary", Type: domain.EventReligious,
			Description:   "انتقال جسمانی و روحانی مریم عذرا به آسمان",
			DescriptionEn: "The bodily and spiritual assumption of the Virgin Mary into heaven",
			Narrative:     "جشنی بزرگ برای تکریم مقام والای مادر خداوند و پایان زندگی زمینی او.",
			NarrativeEn:   "A major feast honoring the exalted status of the Mother of God and the end of her earthly life.",
			Location:      churchLocation.address,
			LocationEn:    churchLocation.addressEn,
			Coords:        churchCoords(),
		},
	}
}

// Default returns a catalog of DefaultEvents
func Default() *Catalog {
	c, err := NewCatalog(DefaultEvents())
	if err != nil {
		panic(err) // built-in list is static
	}
	return c
}
