package models

import "testing"

func TestValidTimeOfDay(t *testing.T) {
	valid := []string{"00:00", "09:30", "23:59", "12:05"}
	for _, v := range valid {
		if !ValidTimeOfDay(v) {
			t.Fatalf("expected %q to be valid", v)
		}
	}
	invalid := []string{"", "9:30", "24:00", "12:60", "12-30", "ab:cd", "12:3"}
	for _, v := range invalid {
		if ValidTimeOfDay(v) {
			t.Fatalf("expected %q to be invalid", v)
		}
	}
}

func TestSlotValidateRejectsInvertedTimes(t *testing.T) {
	s := Slot{Start: "10:00", End: "09:00"}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for end before start")
	}
	s = Slot{Start: "10:00", End: "10:00"}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for zero-length slot")
	}
	s = Slot{Start: "10:00", End: "11:15"}
	if err := s.Validate(); err != nil {
		t.Fatalf("expected valid slot, got %v", err)
	}
}

func TestComputeTotalMinutes(t *testing.T) {
	d := Day{Slots: []Slot{
		{Start: "09:00", End: "10:30"},
		{Start: "10:30", End: "11:00"},
		{Start: "bad", End: "11:00"},
	}}
	d.ComputeTotalMinutes()
	if d.TotalMinutes != 120 {
		t.Fatalf("expected 120 total minutes, got %d", d.TotalMinutes)
	}
}

func TestOrdersDense(t *testing.T) {
	slots := []Slot{{OrderInDay: 2}, {OrderInDay: 1}, {OrderInDay: 3}}
	if !OrdersDense(slots) {
		t.Fatal("expected permutation of 1..3 to be dense")
	}
	slots = []Slot{{OrderInDay: 1}, {OrderInDay: 3}}
	if OrdersDense(slots) {
		t.Fatal("expected gap to be reported")
	}
	slots = []Slot{{OrderInDay: 1}, {OrderInDay: 1}}
	if OrdersDense(slots) {
		t.Fatal("expected duplicate to be reported")
	}
	if !OrdersDense(nil) {
		t.Fatal("expected empty list to be dense")
	}
}
