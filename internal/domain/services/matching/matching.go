// Package matching implements the doctor matching engine (§4.E), grounded
// on original_source's matching.rs (calculate_match_score,
// find_matching_doctors). The weighting is a deterministic formula, not
// an ML model (spec.md §9 open question (b)).
package matching

import (
	"context"
	"sort"
	"strings"
	"time"

	"telemed-booking-core/internal/domain/entities"
	"telemed-booking-core/internal/domain/ports/repositories"
	"telemed-booking-core/internal/domain/services/availability"
	apperrors "telemed-booking-core/pkg/errors"
)

// Weights mirror calculate_match_score's 40/30/20/10 split.
const (
	specialtyWeight    = 0.4
	availabilityWeight = 0.3
	ratingWeight       = 0.2
	experienceWeight   = 0.1
)

// Match pairs a candidate doctor with its theoretical slots and score.
type Match struct {
	Doctor       *entities.Doctor
	Slots        []entities.AvailableSlot
	Score        float64
	MatchReasons []string
}

// Engine finds and ranks doctors for a booking request.
type Engine struct {
	doctors      repositories.DoctorRepository
	availability *availability.Engine
}

func NewEngine(doctors repositories.DoctorRepository, availabilityEngine *availability.Engine) *Engine {
	return &Engine{doctors: doctors, availability: availabilityEngine}
}

// FindMatches returns candidates for req ranked by score descending, most
// relevant first, capped at maxResults (0 means unlimited).
func (e *Engine) FindMatches(ctx context.Context, req entities.BookingRequest, loc *time.Location, maxResults int) ([]Match, error) {
	candidates, err := e.candidateDoctors(ctx, req.Specialty)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, &apperrors.SpecialtyNotAvailable{Specialty: req.Specialty}
	}

	var matches []Match
	for _, doctor := range candidates {
		if !doctor.CanBeBooked() {
			continue
		}
		slots, err := e.availability.SlotsForDate(ctx, doctor.ID, req.PreferredDate, req.DurationMinutes, loc)
		if err != nil {
			continue
		}
		score := scoreMatch(doctor, req, slots)
		matches = append(matches, Match{
			Doctor:       doctor,
			Slots:        slots,
			Score:        score,
			MatchReasons: matchReasons(doctor, req, slots),
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches, nil
}

func (e *Engine) candidateDoctors(ctx context.Context, specialty string) ([]*entities.Doctor, error) {
	if specialty == "" {
		return e.doctors.ListAvailable(ctx)
	}
	return e.doctors.FindBySpecialty(ctx, specialty)
}

// scoreMatch is the deterministic weighted sum from calculate_match_score,
// normalized to 0-1: specialty (40%), theoretical availability (30%),
// rating (20%), experience (10%).
func scoreMatch(doctor *entities.Doctor, req entities.BookingRequest, slots []entities.AvailableSlot) float64 {
	score := 0.0

	if req.Specialty != "" {
		if strings.Contains(strings.ToLower(doctor.Specialty), strings.ToLower(req.Specialty)) {
			score += specialtyWeight
		}
	} else {
		score += specialtyWeight * 0.8
	}

	if len(slots) > 0 {
		availabilityScore := 1.0
		if req.PreferredTimeStart != nil && req.PreferredTimeEnd != nil {
			matching := 0
			for _, s := range slots {
				minutes := s.Start.Hour()*60 + s.Start.Minute()
				if minutes >= req.PreferredTimeStart.MinutesSinceMidnight() && minutes <= req.PreferredTimeEnd.MinutesSinceMidnight() {
					matching++
				}
			}
			if matching == 0 {
				availabilityScore = 0.5
			}
		}
		score += availabilityWeight * availabilityScore
	}

	score += ratingWeight * doctor.RatingScore()
	score += experienceWeight * doctor.ExperienceScore()

	return score
}

func matchReasons(doctor *entities.Doctor, req entities.BookingRequest, slots []entities.AvailableSlot) []string {
	var reasons []string
	if req.Specialty != "" && strings.Contains(strings.ToLower(doctor.Specialty), strings.ToLower(req.Specialty)) {
		reasons = append(reasons, "specializes in "+req.Specialty)
	}
	if len(slots) > 0 {
		reasons = append(reasons, "has theoretical availability on the requested date")
	}
	if doctor.Rating >= 4.0 {
		reasons = append(reasons, "highly rated")
	}
	if doctor.YearsExperience >= 5 {
		reasons = append(reasons, "experienced clinician")
	}
	if doctor.IsVerified {
		reasons = append(reasons, "verified doctor")
	}
	return reasons
}
