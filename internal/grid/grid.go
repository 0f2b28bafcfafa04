package grid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Coord addresses one cell of a time grid: a day column and a slot row.
type Coord struct {
	Day  int `json:"day"`
	Slot int `json:"slot"`
}

// Point is a pointer position in surface units (terminal cells, or abstract
// units for remote clients).
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Config describes the visible window of a week grid.
type Config struct {
	Days        int `json:"days" yaml:"days"`
	StartHour   int `json:"startHour" yaml:"startHour"`
	EndHour     int `json:"endHour" yaml:"endHour"`
	SlotMinutes int `json:"slotMinutes" yaml:"slotMinutes"`
}

// DefaultConfig is a Monday-first week from 06:00 to midnight in half-hour slots.
func DefaultConfig() Config {
	return Config{Days: 7, StartHour: 6, EndHour: 24, SlotMinutes: 30}
}

func (c Config) Validate() error {
	switch c.SlotMinutes {
	case 15, 30, 60:
	default:
		return fmt.Errorf("grid: slot minutes must be 15, 30 or 60 (got %d)", c.SlotMinutes)
	}
	if c.Days <= 0 {
		return errors.New("grid: days must be positive")
	}
	if c.StartHour < 0 || c.EndHour > 24 || c.StartHour >= c.EndHour {
		return fmt.Errorf("grid: invalid hour window %d-%d", c.StartHour, c.EndHour)
	}
	return nil
}

func (c Config) SlotsPerDay() int {
	if c.SlotMinutes <= 0 || c.EndHour <= c.StartHour {
		return 0
	}
	return (c.EndHour - c.StartHour) * 60 / c.SlotMinutes
}

// Valid reports whether co lies inside the visible window.
func (c Config) Valid(co Coord) bool {
	return co.Day >= 0 && co.Day < c.Days && co.Slot >= 0 && co.Slot < c.SlotsPerDay()
}

// SlotTime returns the wall-clock start of a slot.
func (c Config) SlotTime(slot int) (hour, minute int) {
	mins := c.StartHour*60 + slot*c.SlotMinutes
	return mins / 60, mins % 60
}

func (c Config) SlotLabel(slot int) string {
	h, m := c.SlotTime(slot)
	return fmt.Sprintf("%02d:%02d", h, m)
}

// SlotAt maps a wall-clock time onto the slot that contains it.
func (c Config) SlotAt(hour, minute int) (int, bool) {
	if c.SlotMinutes <= 0 {
		return 0, false
	}
	mins := hour*60 + minute - c.StartHour*60
	if mins < 0 {
		return 0, false
	}
	slot := mins / c.SlotMinutes
	if slot >= c.SlotsPerDay() {
		return 0, false
	}
	return slot, true
}

// KeyOf encodes a coordinate as "d<day>-HH-MM". The encoding is by wall-clock
// time, so the same moment keys identically regardless of slot size.
func (c Config) KeyOf(co Coord) string {
	h, m := c.SlotTime(co.Slot)
	return fmt.Sprintf("d%d-%02d-%02d", co.Day, h, m)
}

// ParseKey is the inverse of KeyOf. Keys that do not land on a slot boundary
// inside the window are rejected.
func (c Config) ParseKey(key string) (Coord, bool) {
	day, hour, minute, ok := SplitKey(key)
	if !ok {
		return Coord{}, false
	}
	if c.SlotMinutes <= 0 || minute%c.SlotMinutes != 0 {
		return Coord{}, false
	}
	slot, ok := c.SlotAt(hour, minute)
	if !ok {
		return Coord{}, false
	}
	co := Coord{Day: day, Slot: slot}
	if !c.Valid(co) {
		return Coord{}, false
	}
	return co, true
}

// SplitKey parses the raw fields of a cell key without any window checks.
func SplitKey(key string) (day, hour, minute int, ok bool) {
	key = strings.TrimSpace(key)
	if !strings.HasPrefix(key, "d") {
		return 0, 0, 0, false
	}
	parts := strings.Split(key[1:], "-")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	nums := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, 0, 0, false
		}
		nums[i] = n
	}
	if nums[1] > 23 || nums[2] > 59 {
		return 0, 0, 0, false
	}
	return nums[0], nums[1], nums[2], true
}

// IndexKey is the canonical key of a list position.
func IndexKey(i int) string {
	return "i" + strconv.Itoa(i)
}
