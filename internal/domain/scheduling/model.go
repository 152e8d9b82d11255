package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment. Appointments are created
// as StatusScheduled and only ever move through explicit transitions; they
// are never physically deleted.
type Status string

const (
	StatusScheduled      Status = "scheduled"
	StatusAwaitingVitals Status = "awaiting_vitals"
	StatusWaiting        Status = "waiting"
	StatusInConsultation Status = "in_consultation"
	StatusCompleted      Status = "completed"
	StatusMissed         Status = "missed"
)

var validStatuses = map[Status]bool{
	StatusScheduled:      true,
	StatusAwaitingVitals: true,
	StatusWaiting:        true,
	StatusInConsultation: true,
	StatusCompleted:      true,
	StatusMissed:         true,
}

// IsValid reports whether s is a known appointment status.
func (s Status) IsValid() bool { return validStatuses[s] }

// IsTerminal reports whether s admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusMissed
}

// transitions is the explicit state machine. Terminal states have no exits,
// and nothing ever returns to StatusScheduled.
var transitions = map[Status]map[Status]bool{
	StatusScheduled: {
		StatusAwaitingVitals: true,
		StatusWaiting:        true,
		StatusInConsultation: true,
		StatusCompleted:      true,
		StatusMissed:         true,
	},
	StatusAwaitingVitals: {
		StatusWaiting:        true,
		StatusInConsultation: true,
		StatusCompleted:      true,
		StatusMissed:         true,
	},
	StatusWaiting: {
		StatusInConsultation: true,
		StatusCompleted:      true,
		StatusMissed:         true,
	},
	StatusInConsultation: {
		StatusWaiting:        true,
		StatusCompleted:      true,
		StatusMissed:         true,
	},
}

// CanTransition reports whether the state machine permits moving from one
// status to another.
func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

// ClockTime is a time of day in minutes since midnight. It carries no date
// and no time zone; appointments compare wall-clock minutes only.
type ClockTime int

// ParseClock parses "HH:MM" or "HH:MM:SS" into a ClockTime. Seconds are
// accepted for compatibility with clients sending full time strings but are
// discarded.
func ParseClock(s string) (ClockTime, error) {
	var h, m, sec int
	switch strings.Count(s, ":") {
	case 1:
		if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return 0, fmt.Errorf("invalid time %q", s)
		}
	case 2:
		if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
			return 0, fmt.Errorf("invalid time %q", s)
		}
	default:
		return 0, fmt.Errorf("invalid time %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return ClockTime(h*60 + m), nil
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *ClockTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	ct, err := ParseClock(s)
	if err != nil {
		return err
	}
	*t = ct
	return nil
}

// Appointment maps to the appointment table.
type Appointment struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	ProviderID uuid.UUID `db:"provider_id" json:"provider_id"`
	Date       time.Time `db:"date" json:"date"`
	StartTime  ClockTime `db:"start_minute" json:"start_time"`
	EndTime    ClockTime `db:"end_minute" json:"end_time"`
	Status     Status    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// WorkingInterval is the open/close window a provider is bookable within on
// one weekday. A provider has at most one interval per weekday.
type WorkingInterval struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ProviderID uuid.UUID `db:"provider_id" json:"provider_id"`
	Weekday    string    `db:"weekday" json:"weekday"`
	StartTime  ClockTime `db:"start_minute" json:"start_time"`
	EndTime    ClockTime `db:"end_minute" json:"end_time"`
}

// Weekday names as the clinic registers them (Spanish, lowercase).
var spanishWeekdays = map[time.Weekday]string{
	time.Sunday:    "domingo",
	time.Monday:    "lunes",
	time.Tuesday:   "martes",
	time.Wednesday: "miércoles",
	time.Thursday:  "jueves",
	time.Friday:    "viernes",
	time.Saturday:  "sábado",
}

// unaccented spellings are accepted on input alongside the canonical names.
var weekdayAliases = map[string]string{
	"miercoles": "miércoles",
	"sabado":    "sábado",
}

// WeekdayName returns the Spanish weekday name for a date.
func WeekdayName(d time.Time) string {
	return spanishWeekdays[d.Weekday()]
}

// NormalizeWeekday lowercases a weekday name and resolves unaccented
// spellings to the canonical form. Returns false for unknown names.
func NormalizeWeekday(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := weekdayAliases[n]; ok {
		n = alias
	}
	for _, canonical := range spanishWeekdays {
		if n == canonical {
			return n, true
		}
	}
	return "", false
}
