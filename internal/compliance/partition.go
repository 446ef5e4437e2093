package compliance

import "github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/models"

// Partitioner hands out consecutive chunks of a control list. It owns a
// cursor over the caller's slice and never modifies it.
type Partitioner struct {
	controls []models.Control
	limit    int
	next     int
}

// NewPartitioner creates a partitioner yielding chunks of at most limit
// controls. A limit below one is treated as one.
func NewPartitioner(controls []models.Control, limit int) *Partitioner {
	if limit < 1 {
		limit = 1
	}
	return &Partitioner{controls: controls, limit: limit}
}

// Next returns the next chunk, or false once the list is exhausted.
func (p *Partitioner) Next() ([]models.Control, bool) {
	if p.next >= len(p.controls) {
		return nil, false
	}

	end := min(p.next+p.limit, len(p.controls))
	chunk := p.controls[p.next:end:end]
	p.next = end
	return chunk, true
}

// Remaining returns the number of controls not yet handed out.
func (p *Partitioner) Remaining() int {
	return len(p.controls) - p.next
}

// ChunkCount returns how many chunks n controls produce at the given limit.
func ChunkCount(n, limit int) int {
	if limit < 1 {
		limit = 1
	}
	return (n + limit - 1) / limit
}
