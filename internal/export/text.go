// Package export renders the emergency view as printable plain text for
// wallet cards and fridge sheets.
package export

import (
	"fmt"
	"strings"

	"github.com/medvault/medvault/internal/profile"
)

// RenderText lays out the view as a fixed plain-text card. Pure and total:
// any view renders, and the same view always renders the same bytes.
func RenderText(view *profile.EmergencyView) string {
	var b strings.Builder

	b.WriteString("=== EMERGENCY MEDICAL INFORMATION ===\n")
	fmt.Fprintf(&b, "Patient: %s\n", view.Patient.Name)
	fmt.Fprintf(&b, "DOB: %s (Age: %d)\n", view.Patient.DOB, view.Patient.Age)
	fmt.Fprintf(&b, "Blood Type: %s\n", view.Patient.BloodType)
	fmt.Fprintf(&b, "Gender: %s\n", view.Patient.Gender)
	b.WriteString("\n")

	b.WriteString("CRITICAL ALLERGIES:\n")
	critical := 0
	for _, a := range view.CriticalAllergies {
		// The view also carries high-severity entries; the printed card
		// lists only the critical tier.
		if a.Severity != "critical" {
			continue
		}
		fmt.Fprintf(&b, "  - %s: %s\n", a.Substance, a.Reaction)
		critical++
	}
	if critical == 0 {
		b.WriteString("  None reported\n")
	}
	b.WriteString("\n")

	b.WriteString("CURRENT MEDICATIONS:\n")
	if len(view.CurrentMedications) == 0 {
		b.WriteString("  None reported\n")
	} else {
		for _, m := range view.CurrentMedications {
			flag := ""
			if m.Critical {
				flag = " [CRITICAL]"
			}
			fmt.Fprintf(&b, "  - %s %s %s%s\n", m.Name, m.Dosage, m.Frequency, flag)
		}
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Emergency Contact: %s (%s)\n",
		view.EmergencyContact.Name, view.EmergencyContact.Relationship)
	fmt.Fprintf(&b, "Phone: %s\n", view.EmergencyContact.Phone)
	fmt.Fprintf(&b, "Updated: %s", view.Updated)

	return b.String()
}
