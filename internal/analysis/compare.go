package analysis

import (
	"immunoscope/adapters/stats/ranksum"
	"immunoscope/domain/core"
	"immunoscope/domain/outcome"
)

// SignificanceThreshold is the fixed alpha for the verdict
const SignificanceThreshold = 0.05

// CompareGroups runs the two-sided rank-sum test of immune score between the
// two outcome groups. Groups are ordered by label; the first is x.
func CompareGroups(t *outcome.Table) (outcome.TestResult, error) {
	labels := t.Labels()
	if len(labels) != 2 {
		return outcome.TestResult{}, core.NewInsufficientGroupsError(labels)
	}

	test := ranksum.NewMannWhitneyTest()
	x, y := t.Scores(labels[0]), t.Scores(labels[1])
	res, err := test.Compare(x, y)
	if err != nil {
		return outcome.TestResult{}, err
	}

	return outcome.TestResult{
		Method:      test.Name(),
		Alternative: test.Alternative(),
		Statistic:   res.Statistic,
		PValue:      res.PValue,
		Exact:       res.Exact,
		GroupX:      labels[0],
		GroupY:      labels[1],
		NX:          res.NX,
		NY:          res.NY,
	}, nil
}

// Decide applies the fixed threshold to a p-value
func Decide(pValue float64) outcome.Verdict {
	if pValue < SignificanceThreshold {
		return outcome.VerdictSignificant
	}
	return outcome.VerdictTrend
}
