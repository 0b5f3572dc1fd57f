package profile

import (
	"time"

	"littlesteps/internal/models"
)

// ExampleProfileID is the fixed id of the seeded example profile.
const ExampleProfileID = "1"

// exampleProfile is shown to a device that has never stored any profiles.
func exampleProfile(now time.Time) models.ChildProfile {
	return models.ChildProfile{
		ID:                ExampleProfileID,
		Name:              "Aarav Kumar",
		Age:               "3 years 5 months",
		DateOfBirth:       "2021-06-15",
		Gender:            models.GenderMale,
		SpecialNeeds:      "Speech delay, requires regular therapy sessions",
		LearningGoals:     "Improve verbal communication and social interaction",
		AssignedCaregiver: "Dr. Sharma",
		CreatedAt:         now.UTC(),
	}
}
