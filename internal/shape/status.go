package shape

import "strings"

// StatusLabel maps a status onto its display label. The mapping is total:
// anything outside the known enumeration falls through unchanged.
func StatusLabel(status string) string {
	switch normalizeStatus(status) {
	case "on_track":
		return "On Track"
	case "ahead":
		return "Ahead"
	case "at_risk":
		return "At Risk"
	case "behind":
		return "Behind"
	case "completed":
		return "Completed"
	default:
		return status
	}
}

// StatusColor maps a status onto its badge color pair. Unknown statuses land
// in the neutral default bucket rather than failing.
func StatusColor(status string) string {
	switch normalizeStatus(status) {
	case "on_track":
		return "bg-[#EEF8FF] text-[#2563EB]"
	case "ahead":
		return "bg-[#ECFDF5] text-[#059669]"
	case "at_risk":
		return "bg-[#FFF2EB] text-[#FF8A5B]"
	case "behind":
		return "bg-[#FFF1F2] text-[#DC2626]"
	default:
		return "bg-zinc-100 text-zinc-800"
	}
}

func normalizeStatus(status string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(status)), " ", "_")
}
