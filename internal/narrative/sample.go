// Package narrative prepares price history for the remote narrative-analysis service
// and turns its fixed-format free-text answer into structured report sections.
package narrative

// Sampling parameters: the most recent RecentWindow rows are kept in full, older rows
// are thinned to every Stride-th row.
const (
	RecentWindow = 60
	Stride       = 2
)

// SampleIndices returns the row indices selected from an n-row history: every
// Stride-th index (starting at 0) of the rows before the recent window, followed by
// all indices of the recent window. The result is strictly increasing.
func SampleIndices(n int) []int {
	if n <= 0 {
		return nil
	}
	split := n - RecentWindow
	if split < 0 {
		split = 0
	}
	idx := make([]int, 0, RecentWindow+(split+Stride-1)/Stride)
	for i := 0; i < split; i += Stride {
		idx = append(idx, i)
	}
	for i := split; i < n; i++ {
		idx = append(idx, i)
	}
	return idx
}
