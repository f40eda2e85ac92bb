package airquality

// Level is a named AQI severity band.
type Level struct {
	Label string
	Color string
	Min   int
	Max   int
}

// Levels are the AQI bands, contiguous over [0, 9999].
var Levels = []Level{
	{Label: "Good", Color: "#00e400", Min: 0, Max: 50},
	{Label: "Moderate", Color: "#ffff00", Min: 51, Max: 100},
	{Label: "Unhealthy for Sensitive Groups", Color: "#ff7e00", Min: 101, Max: 150},
	{Label: "Unhealthy", Color: "#ff0000", Min: 151, Max: 200},
	{Label: "Very Unhealthy", Color: "#8f3f97", Min: 201, Max: 300},
	{Label: "Hazardous", Color: "#7e0023", Min: 301, Max: 9999},
}

// Classify returns the band containing aqi. Anything outside [0, 9999]
// is reported as Hazardous.
func Classify(aqi int) Level {
	for _, l := range Levels {
		if aqi >= l.Min && aqi <= l.Max {
			return l
		}
	}
	return Levels[len(Levels)-1]
}

// Recommendation is the health advice for an AQI value.
type Recommendation struct {
	Level          string   `json:"level"`
	Color          string   `json:"color"`
	Recommendation string   `json:"recommendation"`
	Activities     []string `json:"activities"`
}

type advice struct {
	summary    string
	activities []string
}

var adviceByLabel = map[string]advice{
	"Good": {
		summary: "Air quality is satisfactory. Enjoy outdoor activities.",
		activities: []string{
			"Great day for a run or bike ride.",
			"Open windows to ventilate your home.",
			"Outdoor sports and picnics are fine.",
		},
	},
	"Moderate": {
		summary: "Acceptable for most people. Sensitive groups should consider reducing prolonged outdoor exertion.",
		activities: []string{
			"Light outdoor activities are okay for most people.",
			"Sensitive individuals should keep activity short.",
			"Consider wearing a mask if you have allergies.",
		},
	},
	"Unhealthy for Sensitive Groups": {
		summary: "Sensitive groups should limit outdoor activities.",
		activities: []string{
			"Children and elderly should stay indoors.",
			"Asthmatics should carry their inhaler.",
			"Avoid strenuous outdoor exercise.",
		},
	},
	"Unhealthy": {
		summary: "Everyone should wear a mask and limit outdoor exposure.",
		activities: []string{
			"Wear a surgical mask or N95 outdoors.",
			"Limit time outside to essential trips only.",
			"Keep indoor air clean with air purifiers.",
		},
	},
	"Very Unhealthy": {
		summary: "Stay indoors as much as possible. Wear N95 masks if outdoors.",
		activities: []string{
			"Stay indoors with windows closed.",
			"Use an N95 mask if you must go outside.",
			"Run air purifiers on high inside.",
		},
	},
	"Hazardous": {
		summary: "Health alert: avoid all outdoor activities. Keep windows and doors closed.",
		activities: []string{
			"Do NOT go outdoors.",
			"Seal gaps around doors and windows.",
			"Contact local health authorities for guidance.",
		},
	},
}

// Recommend layers the advice table on top of Classify.
func Recommend(aqi int) Recommendation {
	return recommendFor(Classify(aqi))
}

func recommendFor(level Level) Recommendation {
	a, ok := adviceByLabel[level.Label]
	if !ok {
		return Recommendation{
			Level:          level.Label,
			Color:          level.Color,
			Recommendation: "Check local guidelines.",
			Activities:     []string{},
		}
	}
	activities := make([]string, len(a.activities))
	copy(activities, a.activities)
	return Recommendation{
		Level:          level.Label,
		Color:          level.Color,
		Recommendation: a.summary,
		Activities:     activities,
	}
}
