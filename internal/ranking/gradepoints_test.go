package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradePoint(t *testing.T) {
	tests := []struct {
		grade     string
		points    float64
		countable bool
	}{
		{grade: "A+", points: 4.0, countable: true},
		{grade: "A", points: 4.0, countable: true},
		{grade: "A-", points: 3.7, countable: true},
		{grade: "B+", points: 3.3, countable: true},
		{grade: "B", points: 3.0, countable: true},
		{grade: "B-", points: 2.7, countable: true},
		{grade: "C+", points: 2.3, countable: true},
		{grade: "C", points: 2.0, countable: true},
		{grade: "C-", points: 1.7, countable: true},
		{grade: "D", points: 1.0, countable: true},
		{grade: "F", points: 0.0, countable: true},
		{grade: "AB", points: 0.0, countable: true},
		{grade: "I-we", points: 0.0, countable: true},
		{grade: "I-ca", points: 0.0, countable: true},
		{grade: "N/A", countable: false},
		{grade: "", countable: false},
		{grade: "a", countable: false},
		{grade: "E", countable: false},
	}

	for _, tt := range tests {
		t.Run(tt.grade, func(t *testing.T) {
			points, ok := GradePoint(tt.grade)
			assert.Equal(t, tt.countable, ok)
			if tt.countable {
				assert.Equal(t, tt.points, points)
			}
		})
	}
}
