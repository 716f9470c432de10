// internal/metrics/types.go
package metrics

import "math"

// Series is the running statistics of one named operation, such as the
// completions sent to one model or the calls made to one tool.
type Series struct {
	Name     string `json:"name"`
	Requests int64  `json:"requests"`
	Failures int64  `json:"failures"`

	DurationMillis   RunningStat `json:"duration_ms"`
	PromptTokens     RunningStat `json:"prompt_tokens"`
	CompletionTokens RunningStat `json:"completion_tokens"`
}

// RunningStat holds the necessary values for online calculation of mean, variance, and stddev.
type RunningStat struct {
	Count int64   `json:"-"`
	Mean  float64 `json:"mean"`
	M2    float64 `json:"-"` // Sum of squares of differences from the current mean
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// StdDev is the sample standard deviation, zero below two samples.
func (rs RunningStat) StdDev() float64 {
	if rs.Count < 2 {
		return 0
	}
	return math.Sqrt(rs.M2 / float64(rs.Count-1))
}

// Sum is the total of every recorded value.
func (rs RunningStat) Sum() float64 {
	return rs.Mean * float64(rs.Count)
}
