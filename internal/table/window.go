package table

// WindowEntry is one element of a pagination control: either a concrete page
// number or an ellipsis standing in for a run of omitted pages.
type WindowEntry struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// ComputeWindow returns the abbreviated page-number sequence shown in
// pagination controls: page 1, page totalPages, every page within delta of
// currentPage, and a single ellipsis wherever consecutive emitted pages leave
// a gap of more than one.
//
// currentPage is not clamped; callers own navigation bounds.
func ComputeWindow(totalPages, currentPage, delta int) []WindowEntry {
	if totalPages <= 0 {
		return []WindowEntry{}
	}

	entries := make([]WindowEntry, 0, 2*delta+4)
	last := 0
	for p := 1; p <= totalPages; p++ {
		if p != 1 && p != totalPages && abs(p-currentPage) > delta {
			continue
		}
		if last > 0 && p-last > 1 {
			entries = append(entries, WindowEntry{Ellipsis: true})
		}
		entries = append(entries, WindowEntry{Page: p})
		last = p
	}
	return entries
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
