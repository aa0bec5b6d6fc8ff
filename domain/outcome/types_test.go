package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_LabelsGroupCaseInsensitively(t *testing.T) {
	table := &Table{Records: []Record{
		{PatientID: "p1", VitalStatus: "Dead", Score: 1},
		{PatientID: "p2", VitalStatus: "alive", Score: 2},
		{PatientID: "p3", VitalStatus: "Alive", Score: 3},
		{PatientID: "p4", VitalStatus: "DEAD", Score: 4},
		{PatientID: "p5", VitalStatus: "Not Reported", Score: 5},
	}}

	assert.Equal(t, []string{"alive", "Dead"}, table.Labels())
	assert.Equal(t, []float64{2, 3}, table.Scores("ALIVE"))
	assert.Equal(t, []float64{1, 4}, table.Scores("dead"))
}

func TestTable_DropMissingKeepsOrder(t *testing.T) {
	table := &Table{Records: []Record{
		{PatientID: "p1", VitalStatus: "Alive"},
		{PatientID: "p2", VitalStatus: "unknown"},
		{PatientID: "p3", VitalStatus: "Dead"},
	}}

	kept := table.DropMissing()
	assert.Equal(t, 2, kept.Len())
	assert.True(t, kept.Contains("p3"))
	assert.False(t, kept.Contains("p2"))
}
