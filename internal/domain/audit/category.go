package audit

import (
	"strings"
	"unicode"
)

// Category identifies one conversion sub-score of a hotel booking site.
type Category string

const (
	MobileBooking     Category = "mobileBooking"
	TrustSignals      Category = "trustSignals"
	BookingFriction   Category = "bookingFriction"
	VisualAppeal      Category = "visualAppeal"
	LoadSpeed         Category = "loadSpeed"
	PriceTransparency Category = "priceTransparency"
	RoomPresentation  Category = "roomPresentation"
	UrgencySignals    Category = "urgencySignals"
)

// Categories lists every category in canonical order. Ranking ties resolve in this order.
var Categories = []Category{
	MobileBooking,
	TrustSignals,
	BookingFriction,
	VisualAppeal,
	LoadSpeed,
	PriceTransparency,
	RoomPresentation,
	UrgencySignals,
}

// NoteThreshold separates "needs improvement" advice from "good" advice.
const NoteThreshold = 70

type categorySpec struct {
	floor  int
	width  int
	weight float64
	weak   string
	good   string
}

var categorySpecs = map[Category]categorySpec{
	MobileBooking: {
		floor: 50, width: 30, weight: 0.20,
		weak: "Mobile experience needs optimization for touch interactions and simplified booking flow.",
		good: "Good mobile optimization detected.",
	},
	TrustSignals: {
		floor: 60, width: 25, weight: 0.15,
		weak: "Consider adding security badges, guest reviews, and certifications prominently.",
		good: "Trust signals are well displayed.",
	},
	BookingFriction: {
		floor: 65, width: 20, weight: 0.18,
		weak: "Reduce booking steps and simplify the reservation process.",
		good: "Booking process is streamlined.",
	},
	VisualAppeal: {
		floor: 55, width: 25, weight: 0.12,
		weak: "Enhance property photography and implement virtual tours.",
		good: "Visual presentation is engaging.",
	},
	LoadSpeed: {
		floor: 50, width: 30, weight: 0.15,
		weak: "Page load time exceeds 3 seconds. Optimize images and scripts.",
		good: "Site loads quickly.",
	},
	PriceTransparency: {
		floor: 60, width: 25, weight: 0.10,
		weak: "Display total pricing upfront including all fees and taxes.",
		good: "Pricing is transparent.",
	},
	RoomPresentation: {
		floor: 65, width: 20, weight: 0.08,
		weak: "Add detailed room descriptions, amenities list, and 360° views.",
		good: "Rooms are well presented.",
	},
	UrgencySignals: {
		floor: 40, width: 35, weight: 0.02,
		weak: "Implement real-time availability updates and limited-time offers.",
		good: "Urgency tactics are effective.",
	},
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categorySpecs[c]
	return ok
}

// Weight is the category's share of the aggregate score.
func (c Category) Weight() float64 {
	return categorySpecs[c].weight
}

// Range returns the inclusive bounds produced by the random generator.
func (c Category) Range() (min, max int) {
	spec := categorySpecs[c]
	return spec.floor, spec.floor + spec.width - 1
}

// Note returns the fixed advisory text for the given score.
func (c Category) Note(score int) string {
	spec := categorySpecs[c]
	if score < NoteThreshold {
		return spec.weak
	}
	return spec.good
}

// DisplayName turns "mobileBooking" into "Mobile Booking".
func (c Category) DisplayName() string {
	var b strings.Builder
	for i, r := range string(c) {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
