package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Gender of a tracked child
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Genders lists the accepted values in display order
var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

// ParseGender validates a raw form or storage value
func ParseGender(s string) (Gender, error) {
	g := Gender(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return g, nil
	}
	return "", fmt.Errorf("invalid gender %q", s)
}

// ChildProfile represents one tracked child. JSON names follow the
// persisted storage layout.
type ChildProfile struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Age               string    `json:"age"`
	DateOfBirth       string    `json:"dateOfBirth"`
	Gender            Gender    `json:"gender"`
	Photo             string    `json:"photo,omitempty"`
	SpecialNeeds      string    `json:"specialNeeds,omitempty"`
	LearningGoals     string    `json:"learningGoals,omitempty"`
	MedicalNotes      string    `json:"medicalNotes,omitempty"`
	AssignedCaregiver string    `json:"assignedCaregiver,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Initials returns up to two upper-case initials for the avatar fallback
func (p ChildProfile) Initials() string {
	var b strings.Builder
	for _, part := range strings.Fields(p.Name) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	return b.String()
}

// ProfileInput carries every caller-supplied field of a new profile
type ProfileInput struct {
	Name              string
	Age               string
	DateOfBirth       string
	Gender            Gender
	Photo             string
	SpecialNeeds      string
	LearningGoals     string
	MedicalNotes      string
	AssignedCaregiver string
}

// ProfileUpdate is a partial update; nil fields are left unchanged
type ProfileUpdate struct {
	Name              *string
	Age               *string
	DateOfBirth       *string
	Gender            *Gender
	Photo             *string
	SpecialNeeds      *string
	LearningGoals     *string
	MedicalNotes      *string
	AssignedCaregiver *string
}

// Apply merges the non-nil fields into p
func (u ProfileUpdate) Apply(p ChildProfile) ChildProfile {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Name, u.Name)
	set(&p.Age, u.Age)
	set(&p.DateOfBirth, u.DateOfBirth)
	set(&p.Photo, u.Photo)
	set(&p.SpecialNeeds, u.SpecialNeeds)
	set(&p.LearningGoals, u.LearningGoals)
	set(&p.MedicalNotes, u.MedicalNotes)
	set(&p.AssignedCaregiver, u.AssignedCaregiver)
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	return p
}

// UpdateFromInput builds an update that replaces every field with in's values
func UpdateFromInput(in ProfileInput) ProfileUpdate {
	return ProfileUpdate{
		Name:              &in.Name,
		Age:               &in.Age,
		DateOfBirth:       &in.DateOfBirth,
		Gender:            &in.Gender,
		Photo:             &in.Photo,
		SpecialNeeds:      &in.SpecialNeeds,
		LearningGoals:     &in.LearningGoals,
		MedicalNotes:      &in.MedicalNotes,
		AssignedCaregiver: &in.AssignedCaregiver,
	}
}

// InputFrom copies a profile's editable fields, used to prefill edit forms
func InputFrom(p ChildProfile) ProfileInput {
	return ProfileInput{
		Name:              p.Name,
		Age:               p.Age,
		DateOfBirth:       p.DateOfBirth,
		Gender:            p.Gender,
		Photo:             p.Photo,
		SpecialNeeds:      p.SpecialNeeds,
		LearningGoals:     p.LearningGoals,
		MedicalNotes:      p.MedicalNotes,
		AssignedCaregiver: p.AssignedCaregiver,
	}
}
