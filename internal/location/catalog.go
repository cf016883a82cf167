package location

var defaultCities = []City{
	{
		ID:   "guwahati",
		Name: "Guwahati",
		Localities: []Locality{
			{ID: "ganeshguri", Name: "Ganeshguri"},
			{ID: "beltola", Name: "Beltola"},
			{ID: "dispur", Name: "Dispur"},
			{ID: "six_mile", Name: "Six Mile"},
			{ID: "zoo_road", Name: "Zoo Road"},
			{ID: "paltan_bazaar", Name: "Paltan Bazaar"},
			{ID: "chandmari", Name: "Chandmari"},
			{ID: "maligaon", Name: "Maligaon"},
			{ID: "jalukbari", Name: "Jalukbari"},
			{ID: "khanapara", Name: "Khanapara"},
		},
	},
	{
		ID:   "shillong",
		Name: "Shillong",
		Localities: []Locality{
			{ID: "police_bazaar", Name: "Police Bazaar"},
			{ID: "laitumkhrah", Name: "Laitumkhrah"},
			{ID: "nongthymmai", Name: "Nongthymmai"},
			{ID: "mawlai", Name: "Mawlai"},
		},
	},
	{
		ID:   "tezpur",
		Name: "Tezpur",
		Localities: []Locality{
			{ID: "mission_charali", Name: "Mission Charali"},
			{ID: "kacharigaon", Name: "Kacharigaon"},
		},
	},
	{
		ID:   "jorhat",
		Name: "Jorhat",
		Localities: []Locality{
			{ID: "na_ali", Name: "Na-Ali"},
			{ID: "cinnamara", Name: "Cinnamara"},
		},
	},
}
