package model

import "fmt"

// Grade is one of the five ordinal knee osteoarthritis severity classes.
type Grade int

const (
	GradeHealthy Grade = iota
	GradeDoubtful
	GradeMinimal
	GradeModerate
	GradeSevere
)

// Labels is the fixed label table indexed by Grade. The network's output
// order follows it.
var Labels = [...]string{"0_Healthy", "1_Doubtful", "2_Minimal", "3_Moderate", "4_Severe"}

// NumGrades is the size of the network's output layer.
const NumGrades = len(Labels)

// Valid reports whether g indexes the label table.
func (g Grade) Valid() bool {
	return g >= 0 && int(g) < NumGrades
}

func (g Grade) String() string {
	if !g.Valid() {
		return fmt.Sprintf("Grade(%d)", int(g))
	}
	return Labels[g]
}

// Metadata is the optional provenance record stored next to the weights.
type Metadata struct {
	Version   string   `json:"version"`
	SHA256    string   `json:"sha256"`
	Source    string   `json:"source"`
	Classes   []string `json:"classes"`
	ImageSize int      `json:"image_size"`
}

// Prediction is the result of classifying one image.
type Prediction struct {
	GradeIndex      int     `json:"grade_index"`
	Label           string  `json:"label"`
	ConfidenceScore float64 `json:"confidence_score"`

	// Probabilities holds the full softmax output keyed by label.
	Probabilities map[string]float64 `json:"-"`
}

// Grade returns the predicted class.
func (p *Prediction) Grade() Grade {
	return Grade(p.GradeIndex)
}
