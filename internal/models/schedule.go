package models

// TimeSlot is a bookable start time within a day.
type TimeSlot struct {
	Time      string `json:"time"` // HH:MM
	Available bool   `json:"available"`
}

// WorkingHours describes the opening window and an optional break.
type WorkingHours struct {
	Start      string `json:"start" yaml:"start"`
	End        string `json:"end" yaml:"end"`
	BreakStart string `json:"breakStart,omitempty" yaml:"break_start,omitempty"`
	BreakEnd   string `json:"breakEnd,omitempty" yaml:"break_end,omitempty"`
}

// HasBreak reports whether both break bounds are set.
func (w WorkingHours) HasBreak() bool {
	return w.BreakStart != "" && w.BreakEnd != ""
}

// ScheduleConfig is the persisted schedule configuration.
type ScheduleConfig struct {
	WorkingHours WorkingHours `json:"workingHours" yaml:"working_hours"`
	SlotDuration int          `json:"slotDuration" yaml:"slot_duration"` // minutes
	CustomSlots  []string     `json:"customSlots" yaml:"custom_slots"`
}

// DefaultScheduleConfig returns the configuration used when nothing is saved.
func DefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		WorkingHours: WorkingHours{
			Start:      "09:00",
			End:        "18:00",
			BreakStart: "13:00",
			BreakEnd:   "14:00",
		},
		SlotDuration: 30,
		CustomSlots:  []string{},
	}
}
