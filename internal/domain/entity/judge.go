package entity

// JudgeID identifies one member of the fixed judging panel. The panel is a
// closed set: adding or removing a judge is a compile-time change, never
// configuration.
type JudgeID int

const (
	JudgeVisual JudgeID = iota
	JudgeLinguistic
	JudgeAudience
)

// judgeCount is the size of the panel. Every JudgingResult carries exactly
// this many scores.
const judgeCount = 3

// String returns the judge's display name.
func (j JudgeID) String() string {
	switch j {
	case JudgeVisual:
		return "Visual"
	case JudgeLinguistic:
		return "Linguistic"
	case JudgeAudience:
		return "Audience"
	default:
		return "Unknown"
	}
}

// Valid reports whether j names a real panel member.
func (j JudgeID) Valid() bool {
	return j >= JudgeVisual && j <= JudgeAudience
}

// Criteria returns the judge's ordered scoring criteria. The lists are fixed
// data passed to the scoring backend as structured context; they carry no
// scoring logic themselves.
func (j JudgeID) Criteria() []string {
	switch j {
	case JudgeVisual:
		return []string{
			"Cinematic imagery and shot composition",
			"Visual coherence with the source work",
			"Color, lighting and atmosphere",
			"Motion and pacing of described scenes",
			"Overall production value of the concept",
		}
	case JudgeLinguistic:
		return []string{
			"Correct and natural use of the required vocabulary",
			"Grammar and fluency of the prompt text",
			"Richness and precision of word choice",
			"Narrative clarity and structure",
			"Creative wordplay and tone",
		}
	case JudgeAudience:
		return []string{
			"Immediate emotional hook",
			"Entertainment value and rewatchability",
			"Originality versus the source material",
			"Shareability and broad appeal",
			"Memorability of the concept",
		}
	default:
		return nil
	}
}

// JudgePanel returns the full panel in its fixed scoring order:
// Visual, then Linguistic, then Audience.
func JudgePanel() []JudgeID {
	return []JudgeID{JudgeVisual, JudgeLinguistic, JudgeAudience}
}

// PanelSize returns the number of judges on the panel.
func PanelSize() int {
	return judgeCount
}
