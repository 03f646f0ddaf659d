package service

import (
	"fmt"
	"strings"
)

var firstNames = []string{
	"Aaliyah", "Adrian", "Aiko", "Alejandro", "Amara", "Andre", "Anika", "Arjun",
	"Beatriz", "Bennett", "Camila", "Chen", "Chloe", "Dario", "Deepa", "Elena",
	"Elias", "Emeka", "Farah", "Felix", "Grace", "Hana", "Hugo", "Imani",
	"Isaac", "Jasmine", "Javier", "Jonas", "Kai", "Keira", "Leila", "Liam",
	"Lucia", "Malik", "Maya", "Mateo", "Mei", "Nadia", "Niko", "Noah",
	"Olivia", "Omar", "Priya", "Quinn", "Rafael", "Rosa", "Sami", "Sofia",
	"Tariq", "Tessa", "Uma", "Viktor", "Wen", "Yara", "Yusuf", "Zoe",
}

var lastNames = []string{
	"Abebe", "Alvarez", "Andersen", "Bauer", "Bianchi", "Campbell", "Chandra", "Costa",
	"Dubois", "Edwards", "Fischer", "Fujita", "Garcia", "Gupta", "Haddad", "Hansen",
	"Ibrahim", "Ivanova", "Jensen", "Kaur", "Kim", "Kowalski", "Larsen", "Lopez",
	"Mbeki", "Moreau", "Murphy", "Nakamura", "Nguyen", "Novak", "Okafor", "Olsen",
	"Patel", "Petrov", "Quiroga", "Reyes", "Rossi", "Santos", "Schmidt", "Silva",
	"Tanaka", "Torres", "Usman", "Vargas", "Walsh", "Weber", "Yamamoto", "Zhang",
}

var companyWords = []string{
	"Apex", "Beacon", "Cobalt", "Delta", "Ember", "Falcon", "Granite", "Harbor",
	"Indigo", "Juniper", "Keystone", "Lumen", "Meridian", "Northwind", "Orchid", "Pinnacle",
	"Quartz", "Redwood", "Summit", "Tidal", "Umbra", "Vertex", "Willow", "Zenith",
}

var companySuffixes = []string{"Group", "Holdings", "Industries", "Labs", "LLC", "Partners", "Systems", "Inc"}

var projectNouns = []string{
	"Platform Modernization", "Data Migration", "Cloud Readiness", "ERP Rollout",
	"Process Redesign", "Analytics Foundation", "Security Assessment", "CRM Upgrade",
	"Supply Chain Review", "Digital Strategy", "Cost Optimization", "Integration Program",
}

type location struct {
	City    string
	Country string
}

var regionLocations = map[string][]location{
	"North America": {
		{"Los Angeles", "United States"}, {"New York", "United States"}, {"Chicago", "United States"},
		{"Houston", "United States"}, {"Philadelphia", "United States"}, {"Phoenix", "United States"},
		{"Toronto", "Canada"},
	},
	"EMEA": {
		{"London", "England"}, {"Paris", "France"}, {"Berlin", "Germany"}, {"Madrid", "Spain"},
		{"Milan", "Italy"}, {"Amsterdam", "Netherlands"}, {"Stockholm", "Sweden"}, {"Warsaw", "Poland"},
		{"Vienna", "Austria"}, {"Dubai", "United Arab Emirates"},
	},
	"Central and South America": {
		{"Sao Paulo", "Brazil"}, {"Mexico City", "Mexico"}, {"Buenos Aires", "Argentina"}, {"Bogota", "Colombia"},
		{"Lima", "Peru"}, {"Santiago", "Chile"}, {"Quito", "Ecuador"}, {"Guatemala City", "Guatemala"},
	},
	"Asia Pacific": {
		{"Shanghai", "China"}, {"Tokyo", "Japan"}, {"Bangalore", "India"}, {"Seoul", "South Korea"},
		{"Sydney", "Australia"}, {"Jakarta", "Indonesia"}, {"Manila", "Philippines"}, {"Bangkok", "Thailand"},
		{"Kuala Lumpur", "Malaysia"}, {"Hanoi", "Vietnam"},
	},
}

var fallbackLocation = location{City: "New York", Country: "United States"}

func pick(r *Rand, words []string) string {
	return words[r.Intn(len(words))]
}

func randomPhone(r *Rand) string {
	return fmt.Sprintf("%03d-%03d-%04d", r.IntBetween(200, 989), r.IntBetween(200, 999), r.Intn(10000))
}

// emailFor builds an address that stays unique through the consultant ID.
func emailFor(first, last, id, domain string) string {
	local := strings.ToLower(first + "." + last)
	return fmt.Sprintf("%s.%s@%s", local, strings.ToLower(id), domain)
}
