package checkout

import (
	"strings"

	"github.com/xenking/storefront/internal/domain/pricing"
)

// Districts lists the 64 districts of Bangladesh in display order.
var Districts = []string{
	"Bagerhat", "Bandarban", "Barguna", "Barishal", "Bhola", "Bogura",
	"Brahmanbaria", "Chandpur", "Chapai Nawabganj", "Chattogram", "Chuadanga",
	"Cox's Bazar", "Cumilla", "Dhaka", "Dinajpur", "Faridpur", "Feni",
	"Gaibandha", "Gazipur", "Gopalganj", "Habiganj", "Jamalpur", "Jashore",
	"Jhalokati", "Jhenaidah", "Joypurhat", "Khagrachhari", "Khulna",
	"Kishoreganj", "Kurigram", "Kushtia", "Lakshmipur", "Lalmonirhat",
	"Madaripur", "Magura", "Manikganj", "Meherpur", "Moulvibazar", "Munshiganj",
	"Mymensingh", "Naogaon", "Narail", "Narayanganj", "Narsingdi", "Natore",
	"Netrokona", "Nilphamari", "Noakhali", "Pabna", "Panchagarh", "Patuakhali",
	"Pirojpur", "Rajbari", "Rajshahi", "Rangamati", "Rangpur", "Satkhira",
	"Shariatpur", "Sherpur", "Sirajganj", "Sunamganj", "Sylhet", "Tangail",
	"Thakurgaon",
}

// capital is the only district delivered at the inside-Dhaka rate.
const capital = "Dhaka"

var districtIndex = func() map[string]string {
	m := make(map[string]string, len(Districts))
	for _, d := range Districts {
		m[strings.ToLower(d)] = d
	}
	return m
}()

// LookupDistrict returns the canonical spelling of name, matched without
// regard to case or surrounding space.
func LookupDistrict(name string) (string, bool) {
	d, ok := districtIndex[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// ZoneFor maps a canonical district name to its delivery zone.
func ZoneFor(district string) pricing.Zone {
	switch district {
	case "":
		return pricing.ZoneNone
	case capital:
		return pricing.ZoneDhaka
	default:
		return pricing.ZoneOutside
	}
}
