package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// RoleName enumerates the RBAC roles.
type RoleName string

const (
	RoleAdmin     RoleName = "admin"
	RoleOrganizer RoleName = "organizer"
	RoleLeader    RoleName = "leader"
)

// User represents an authenticated account.
type User struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex" json:"email"`
	Password  string    `json:"-"`
	Role      RoleName  `gorm:"type:varchar(16)" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Day aggregates the ordered slots of one camp day.
type Day struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	CampID       string    `gorm:"type:uuid;index" json:"campId"`
	Name         string    `json:"name"`
	Date         string    `gorm:"type:varchar(10);index" json:"date"` // YYYY-MM-DD
	Slots        []Slot    `gorm:"foreignKey:DayID" json:"slots"`
	TotalMinutes int       `gorm:"-" json:"totalMinutes"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Slot is one time-boxed entry of a day's schedule.
type Slot struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	DayID      string    `gorm:"type:uuid;index" json:"dayId"`
	OrderInDay int       `gorm:"index" json:"orderInDay"`
	Start      string    `gorm:"type:varchar(5)" json:"start"` // HH:MM
	End        string    `gorm:"type:varchar(5)" json:"end"`   // HH:MM
	ActivityID string    `gorm:"type:uuid;index" json:"activityId,omitempty"`
	Title      string    `json:"title"`
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Activity is a reusable program item slots can link to.
type Activity struct {
	ID              string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string    `gorm:"index" json:"name"`
	Category        string    `gorm:"type:varchar(32)" json:"category"`
	DurationMinutes int       `json:"durationMinutes"`
	Description     string    `gorm:"type:text" json:"description"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ActivitySummary is the small record handed to schedule views.
type ActivitySummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Category        string `json:"category"`
	DurationMinutes int    `json:"durationMinutes"`
}

// Summary reduces an activity to its schedule-facing fields.
func (a Activity) Summary() ActivitySummary {
	return ActivitySummary{
		ID:              a.ID,
		Name:            a.Name,
		Category:        a.Category,
		DurationMinutes: a.DurationMinutes,
	}
}

// ValidTimeOfDay reports whether s is a well-formed same-day HH:MM value.
func ValidTimeOfDay(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil {
		return false
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil {
		return false
	}
	return h >= 0 && h <= 23 && m >= 0 && m <= 59
}

// Validate checks the slot's time invariants.
func (s Slot) Validate() error {
	if !ValidTimeOfDay(s.Start) {
		return fmt.Errorf("invalid start time %q", s.Start)
	}
	if !ValidTimeOfDay(s.End) {
		return fmt.Errorf("invalid end time %q", s.End)
	}
	// Same-day wall-clock times compare correctly as strings.
	if strings.Compare(s.End, s.Start) <= 0 {
		return fmt.Errorf("end %q must be after start %q", s.End, s.Start)
	}
	return nil
}

// Minutes returns the slot length in minutes, 0 when either time is malformed.
func (s Slot) Minutes() int {
	if !ValidTimeOfDay(s.Start) || !ValidTimeOfDay(s.End) {
		return 0
	}
	sh, _ := strconv.Atoi(s.Start[:2])
	sm, _ := strconv.Atoi(s.Start[3:])
	eh, _ := strconv.Atoi(s.End[:2])
	em, _ := strconv.Atoi(s.End[3:])
	d := (eh*60 + em) - (sh*60 + sm)
	if d < 0 {
		return 0
	}
	return d
}

// ComputeTotalMinutes sums slot lengths into the display-only total.
func (d *Day) ComputeTotalMinutes() {
	total := 0
	for _, s := range d.Slots {
		total += s.Minutes()
	}
	d.TotalMinutes = total
}

// ETag derives the day's version marker from its last write and slot count.
func (d *Day) ETag() string {
	return fmt.Sprintf("%x-%d", d.UpdatedAt.UnixNano(), len(d.Slots))
}

// OrdersDense reports whether the slots' order values form a permutation of 1..N.
func OrdersDense(slots []Slot) bool {
	orders := make([]int, 0, len(slots))
	for _, s := range slots {
		orders = append(orders, s.OrderInDay)
	}
	sort.Ints(orders)
	for i, o := range orders {
		if o != i+1 {
			return false
		}
	}
	return true
}

// SortByOrder sorts slots by their position in the day.
func SortByOrder(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].OrderInDay < slots[j].OrderInDay
	})
}
