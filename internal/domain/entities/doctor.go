package entities

import (
	"time"

	"github.com/google/uuid"
)

// Doctor represents a clinician who can be matched and booked against.
type Doctor struct {
	ID                   uuid.UUID `json:"id" db:"id"`
	Name                 string    `json:"name" db:"name"`
	Specialty            string    `json:"specialty" db:"specialty"`
	SubSpecialty         *string   `json:"sub_specialty,omitempty" db:"sub_specialty"`
	YearsExperience      int       `json:"years_experience" db:"years_experience"`
	Rating               float64   `json:"rating" db:"rating"`
	TotalConsultations   int       `json:"total_consultations" db:"total_consultations"`
	IsVerified           bool      `json:"is_verified" db:"is_verified"`
	IsAvailable          bool      `json:"is_available" db:"is_available"`
	Timezone             string    `json:"timezone" db:"timezone"`
	Bio                  *string   `json:"bio,omitempty" db:"bio"`
	Languages            []string  `json:"languages,omitempty" db:"languages"`
	ConsultationFeeBase  float64   `json:"consultation_fee_base" db:"consultation_fee_base"`
	ProfileImageURL      *string   `json:"profile_image_url,omitempty" db:"profile_image_url"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks that the doctor entity satisfies the invariants in
// SPEC_FULL §3: name and specialty required, rating within [0, 5],
// non-negative consultation count and experience.
func (d *Doctor) Validate() error {
	if d.Name == "" {
		return ErrInvalidDoctorName
	}
	if d.Specialty == "" {
		return ErrInvalidDoctorSpecialty
	}
	if d.Rating < 0.0 || d.Rating > 5.0 {
		return ErrInvalidDoctorRating
	}
	if d.TotalConsultations < 0 {
		return ErrInvalidConsultationCount
	}
	if d.YearsExperience < 0 {
		return ErrInvalidYearsExperience
	}
	return nil
}

// NewDoctor creates an unverified, available doctor with the given name
// and specialty. Verification is a separate admin transition.
func NewDoctor(name, specialty string) *Doctor {
	now := time.Now()
	return &Doctor{
		ID:          uuid.New(),
		Name:        name,
		Specialty:   specialty,
		IsVerified:  false,
		IsAvailable: true,
		Timezone:    "UTC",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Verify marks the doctor as administratively verified.
func (d *Doctor) Verify() {
	d.IsVerified = true
	d.UpdatedAt = time.Now()
}

// minAcceptableRating is the floor below which a doctor is excluded from
// matching regardless of verification/availability (§4.E).
const minAcceptableRating = 3.0

// CanBeBooked reports whether the doctor is eligible to receive new
// appointments: verified, currently available, and rated at or above the
// matching engine's acceptable floor.
func (d *Doctor) CanBeBooked() bool {
	return d.IsVerified && d.IsAvailable && d.Rating >= minAcceptableRating
}

// ExperienceScore normalizes years of experience into [0, 1], capping at
// 20 years per the matching engine's weighted formula (§4.E).
func (d *Doctor) ExperienceScore() float64 {
	const cap = 20.0
	if d.YearsExperience <= 0 {
		return 0
	}
	score := float64(d.YearsExperience) / cap
	if score > 1.0 {
		return 1.0
	}
	return score
}

// RatingScore normalizes the 0-5 rating into [0, 1].
func (d *Doctor) RatingScore() float64 {
	if d.Rating <= 0 {
		return 0
	}
	score := d.Rating / 5.0
	if score > 1.0 {
		return 1.0
	}
	return score
}
