package store

import (
	"context"
	"fmt"
	"time"
)

type seedSpecialty struct {
	name        string
	description string
}

type seedDoctor struct {
	name      string
	specialty string
	bio       string
}

var seedSpecialties = []seedSpecialty{
	{"Cardiology", "Heart and blood vessel disorders"},
	{"Ophthalmology", "Eye disorders and vision care"},
	{"Otolaryngology", "Ear, nose, and throat disorders (ENT)"},
	{"Orthopedics", "Bone and joint disorders"},
	{"Neurology", "Brain, spinal cord, and nerve disorders"},
	{"Dermatology", "Skin disorders"},
	{"Pulmonology", "Lung and respiratory disorders"},
	{"Gastroenterology", "Digestive system disorders"},
}

var seedDoctors = []seedDoctor{
	{"Dr. Jane Smith", "Cardiology", "Specializes in cardiovascular surgery with 15 years of experience"},
	{"Dr. Robert Johnson", "Cardiology", "Expert in cardiac rehabilitation"},
	{"Dr. Sarah Chen", "Ophthalmology", "Specializes in retinal surgery"},
	{"Dr. Michael Torres", "Ophthalmology", "Focused on pediatric eye care"},
	{"Dr. Emily Wilson", "Otolaryngology", "Specializes in voice and swallowing disorders"},
	{"Dr. William Davis", "Otolaryngology", "Expert in sinus surgery"},
	{"Dr. David Lee", "Orthopedics", "Specializes in sports medicine and joint replacement"},
	{"Dr. Jennifer White", "Orthopedics", "Focus on spinal disorders"},
	{"Dr. Richard Brown", "Neurology", "Specializes in stroke treatment and prevention"},
	{"Dr. Rebecca Martinez", "Neurology", "Expert in headache and migraine management"},
	{"Dr. Thomas Jackson", "Dermatology", "Specializes in skin cancer detection and treatment"},
	{"Dr. Lisa Kim", "Dermatology", "Focus on pediatric dermatology"},
	{"Dr. Mark Thompson", "Pulmonology", "Specializes in asthma and COPD management"},
	{"Dr. Elizabeth Clark", "Pulmonology", "Expert in sleep apnea and sleep disorders"},
	{"Dr. Anthony Rodriguez", "Gastroenterology", "Specializes in inflammatory bowel disease"},
	{"Dr. Michelle Patel", "Gastroenterology", "Focus on liver disorders"},
}

// Hourly slots offered during a clinic day, skipping the lunch hour.
var seedSlotTimes = []string{"09:00", "10:00", "11:00", "13:00", "14:00", "15:00", "16:00"}

// Seed populates the specialty/doctor catalog and an availability calendar
// covering weekdays over the two weeks after start. It goes through the
// find-or-create paths so running it twice leaves the catalog unchanged.
func Seed(ctx context.Context, s Store, start time.Time) error {
	specialtyIDs := make(map[string]int64, len(seedSpecialties))
	for _, sp := range seedSpecialties {
		created, err := s.EnsureSpecialty(ctx, sp.name, sp.description)
		if err != nil {
			return fmt.Errorf("seed specialty %q: %w", sp.name, err)
		}
		specialtyIDs[sp.name] = created.ID
	}

	for i, d := range seedDoctors {
		specialtyID, ok := specialtyIDs[d.specialty]
		if !ok {
			return fmt.Errorf("seed doctor %q: unknown specialty %q", d.name, d.specialty)
		}
		doctor, err := s.EnsureDoctor(ctx, d.name, specialtyID, d.bio)
		if err != nil {
			return fmt.Errorf("seed doctor %q: %w", d.name, err)
		}

		// Spread doctors across the calendar deterministically: each one
		// works alternating weekdays and a rotating subset of the day's slots.
		day := truncateToDay(start)
		for offset := 1; offset <= 14; offset++ {
			date := day.AddDate(0, 0, offset)
			if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
				continue
			}
			if (offset+i)%2 != 0 {
				continue
			}
			for j, slot := range seedSlotTimes {
				if (j+i)%3 == 2 {
					continue
				}
				if err := s.AddAvailability(ctx, doctor.ID, date, slot, true); err != nil {
					return fmt.Errorf("seed availability for %q: %w", d.name, err)
				}
			}
		}
	}
	return nil
}
