package service

import (
	"fmt"

	"github.com/pkordes/securecheck/internal/domain"
)

// Narrate describes a stored record in one short paragraph, e.g.
//
//	On 2024-05-01, a 27-year-old Male driver was stopped for Speeding at
//	3.05 PM. A search was conducted, and the driver received a ticket. The stop
//	lasted 16-30 min. It was drug-related.
func Narrate(r domain.StopRecord) string {
	search := "No search was conducted"
	if r.SearchConducted {
		search = "A search was conducted"
	}
	drugs := "It was not drug-related."
	if r.DrugsRelatedStop {
		drugs = "It was drug-related."
	}
	return fmt.Sprintf("On %s, a %d-year-old %s driver was stopped for %s at %s. %s, %s. The stop lasted %s. %s",
		r.StopDate.Format(domain.DateLayout), r.DriverAge, r.DriverGender, r.Violation,
		r.StopTime.Display(), search, outcomePhrase(r.StopOutcome), r.StopDuration, drugs)
}

func outcomePhrase(outcome string) string {
	switch outcome {
	case domain.OutcomeTicket:
		return "and the driver received a ticket"
	case domain.OutcomeArrest:
		return "and the driver was arrested"
	case domain.OutcomeWarning:
		return "and the driver was warned"
	}
	return "and the outcome was " + outcome
}
