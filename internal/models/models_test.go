package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseGender(t *testing.T) {
	tests := []struct {
		input   string
		want    Gender
		wantErr bool
	}{
		{input: "male", want: GenderMale},
		{input: " Female ", want: GenderFemale},
		{input: "OTHER", want: GenderOther},
		{input: "", wantErr: true},
		{input: "unknown", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseGender(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGender(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseGender(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestChildProfileInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "Aarav Kumar", want: "AK"},
		{name: "maya", want: "M"},
		{name: "Anna Maria Lopez", want: "AM"},
		{name: "  ", want: ""},
		{name: "élodie durand", want: "ÉD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChildProfile{Name: tt.name}.Initials()
			if got != tt.want {
				t.Errorf("Initials() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProfileUpdateApply(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p := ChildProfile{ID: "1", Name: "Aarav", Age: "3 years", Gender: GenderMale, MedicalNotes: "none", CreatedAt: created}

	name := "Aarav Kumar"
	notes := ""
	other := GenderOther
	got := ProfileUpdate{Name: &name, MedicalNotes: &notes, Gender: &other}.Apply(p)

	if got.Name != "Aarav Kumar" || got.MedicalNotes != "" || got.Gender != GenderOther {
		t.Errorf("fields not merged: %+v", got)
	}
	if got.Age != "3 years" || got.ID != "1" || !got.CreatedAt.Equal(created) {
		t.Errorf("untouched fields changed: %+v", got)
	}
	if p.Name != "Aarav" {
		t.Error("Apply must not mutate its argument")
	}
}

func TestChildProfileJSONLayout(t *testing.T) {
	p := ChildProfile{ID: "1", Name: "Aarav", Age: "3", DateOfBirth: "2021-06-15", Gender: GenderMale}
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	s := string(raw)
	for _, field := range []string{`"dateOfBirth":"2021-06-15"`, `"gender":"male"`, `"createdAt"`} {
		if !strings.Contains(s, field) {
			t.Errorf("expected %s in %s", field, s)
		}
	}
	if strings.Contains(s, "medicalNotes") {
		t.Errorf("empty optional fields should be omitted: %s", s)
	}
}
