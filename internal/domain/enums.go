package domain

// Duration is one of the three mandatory plan pillars. Each value maps to a
// fixed day count and an intensity curve through durationTable.
type Duration string

const (
	DurationShort    Duration = "SHORT"    // 7 days
	DurationMedium   Duration = "MEDIUM"   // 14 days
	DurationStandard Duration = "STANDARD" // 21 days
	DurationLong     Duration = "LONG"     // 90 days
)

// IntensityCurve shapes the per-week difficulty ceiling of a plan.
type IntensityCurve string

const (
	CurveFlat        IntensityCurve = "flat"        // constant (1 then 2)
	CurveProgressive IntensityCurve = "progressive" // 1 -> 2 -> 3 by week
	CurveWave        IntensityCurve = "wave"        // 5-week active/maintenance cycle
)

type durationMeta struct {
	TotalDays int
	Curve     IntensityCurve
}

// durationTable is the single source of truth for duration-derived values.
var durationTable = map[Duration]durationMeta{
	DurationShort:    {TotalDays: 7, Curve: CurveFlat},
	DurationMedium:   {TotalDays: 14, Curve: CurveProgressive},
	DurationStandard: {TotalDays: 21, Curve: CurveProgressive},
	DurationLong:     {TotalDays: 90, Curve: CurveWave},
}

func (d Duration) Valid() bool {
	_, ok := durationTable[d]
	return ok
}

// TotalDays returns the canonical day count for the duration (0 if invalid).
func (d Duration) TotalDays() int {
	return durationTable[d].TotalDays
}

// Curve returns the intensity curve for the duration.
func (d Duration) Curve() IntensityCurve {
	return durationTable[d].Curve
}

// DurationForDays maps a canonical day count back to its duration.
func DurationForDays(days int) (Duration, bool) {
	for _, d := range []Duration{DurationShort, DurationMedium, DurationStandard, DurationLong} {
		if durationTable[d].TotalDays == days {
			return d, true
		}
	}
	return "", false
}

// CanonicalDayCount reports whether days is one of {7, 14, 21, 90}.
func CanonicalDayCount(days int) bool {
	_, ok := DurationForDays(days)
	return ok
}

// Focus is the dominant content category of a plan.
type Focus string

const (
	FocusSomatic    Focus = "somatic"
	FocusCognitive  Focus = "cognitive"
	FocusBoundaries Focus = "boundaries"
	FocusRest       Focus = "rest"
	FocusMixed      Focus = "mixed"
)

// FocusShare is one complementary category entry of a focus distribution.
// Order matters: remainders are assigned in table order, so the table uses a
// slice rather than a map.
type FocusShare struct {
	Category Focus
	Ratio    float64
}

// FocusDistribution describes how plan slots split between the dominant
// category and its complements (the 80/20 rule).
type FocusDistribution struct {
	Dominant      float64
	Complementary []FocusShare
}

var focusTable = map[Focus]FocusDistribution{
	FocusSomatic: {
		Dominant: 0.8,
		Complementary: []FocusShare{
			{Category: FocusCognitive, Ratio: 0.1},
			{Category: FocusRest, Ratio: 0.1},
		},
	},
	FocusCognitive: {
		Dominant: 0.8,
		Complementary: []FocusShare{
			{Category: FocusSomatic, Ratio: 0.1},
			{Category: FocusBoundaries, Ratio: 0.1},
		},
	},
	FocusBoundaries: {
		Dominant: 0.8,
		Complementary: []FocusShare{
			{Category: FocusCognitive, Ratio: 0.15},
			{Category: FocusRest, Ratio: 0.05},
		},
	},
	FocusRest: {
		// Rest plans stay closer to pure rest content.
		Dominant: 0.9,
		Complementary: []FocusShare{
			{Category: FocusSomatic, Ratio: 0.1},
		},
	},
	FocusMixed: {
		Dominant: 0.4,
		Complementary: []FocusShare{
			{Category: FocusSomatic, Ratio: 0.25},
			{Category: FocusCognitive, Ratio: 0.25},
			{Category: FocusBoundaries, Ratio: 0.1},
		},
	},
}

func (f Focus) Valid() bool {
	_, ok := focusTable[f]
	return ok
}

// Distribution returns the slot split rule for the focus.
func (f Focus) Distribution() FocusDistribution {
	return focusTable[f]
}

// Load fixes the number of steps per day and their slot-type structure.
type Load string

const (
	LoadLite      Load = "LITE"      // 1 step/day
	LoadMid       Load = "MID"       // 2 steps/day
	LoadIntensive Load = "INTENSIVE" // 3 steps/day
)

var loadTable = map[Load][]SlotType{
	LoadLite:      {SlotCore},
	LoadMid:       {SlotCore, SlotSupport},
	LoadIntensive: {SlotCore, SlotSupport, SlotRest},
}

func (l Load) Valid() bool {
	_, ok := loadTable[l]
	return ok
}

// SlotsPerDay returns how many steps each plan day carries under this load.
func (l Load) SlotsPerDay() int {
	return len(loadTable[l])
}

// SlotStructure returns a copy of the slot types composed into each day.
func (l Load) SlotStructure() []SlotType {
	structure := loadTable[l]
	out := make([]SlotType, len(structure))
	copy(out, structure)
	return out
}

// LoadForSlotCount maps a daily slot count back to its load value.
func LoadForSlotCount(count int) (Load, bool) {
	for _, l := range []Load{LoadLite, LoadMid, LoadIntensive} {
		if len(loadTable[l]) == count {
			return l, true
		}
	}
	return "", false
}

// SlotType is a step's functional role within a day.
type SlotType string

const (
	SlotCore      SlotType = "CORE"
	SlotSupport   SlotType = "SUPPORT"
	SlotEmergency SlotType = "EMERGENCY"
	SlotRest      SlotType = "REST"
)

// slotTimeTable maps each slot type to its time-of-day preference order.
var slotTimeTable = map[SlotType][]TimeSlot{
	SlotCore:      {TimeMorning, TimeDay},
	SlotSupport:   {TimeDay, TimeEvening},
	SlotEmergency: {TimeEvening},
	SlotRest:      {TimeEvening},
}

func (s SlotType) Valid() bool {
	_, ok := slotTimeTable[s]
	return ok
}

// TimePreferences returns the preferred delivery time slots, most preferred
// first.
func (s SlotType) TimePreferences() []TimeSlot {
	prefs := slotTimeTable[s]
	out := make([]TimeSlot, len(prefs))
	copy(out, prefs)
	return out
}

// TimeSlot is the wall-clock period a step is delivered in.
type TimeSlot string

const (
	TimeMorning TimeSlot = "MORNING"
	TimeDay     TimeSlot = "DAY"
	TimeEvening TimeSlot = "EVENING"
)

// AllTimeSlots lists the legal time slots in day order.
func AllTimeSlots() []TimeSlot {
	return []TimeSlot{TimeMorning, TimeDay, TimeEvening}
}

func (t TimeSlot) Valid() bool {
	switch t {
	case TimeMorning, TimeDay, TimeEvening:
		return true
	}
	return false
}
