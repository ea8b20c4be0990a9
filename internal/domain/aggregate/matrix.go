package aggregate

import "github.com/okian/compass/internal/domain/model"

type cell struct {
	collaborator string
	project      string
}

// AllocationMatrix answers summed hours per (collaborator, project).
type AllocationMatrix struct {
	Collaborators []string
	Projects      []string
	hours         map[cell]float64
}

// MatrixRow is a dense row of the matrix, aligned with Projects.
type MatrixRow struct {
	Collaborator string    `json:"collaborator"`
	Hours        []float64 `json:"hours"`
	Total        float64   `json:"total"`
}

// BuildAllocationMatrix sums hours for the given axes. Records outside the
// axes are ignored; nil axes default to every distinct value in records.
func BuildAllocationMatrix(records []model.WorkLog, collaborators, projects []string) *AllocationMatrix {
	if collaborators == nil {
		collaborators = DistinctCollaborators(records)
	}
	if projects == nil {
		projects = DistinctProjects(records)
	}
	m := &AllocationMatrix{
		Collaborators: collaborators,
		Projects:      projects,
		hours:         make(map[cell]float64),
	}
	wantC := toSet(collaborators)
	wantP := toSet(projects)
	for _, r := range records {
		if _, ok := wantC[r.Collaborator]; !ok {
			continue
		}
		if _, ok := wantP[r.Project]; !ok {
			continue
		}
		m.hours[cell{r.Collaborator, r.Project}] += r.HoursWorked
	}
	return m
}

// Hours returns the summed hours for the pair, 0 when there are none.
func (m *AllocationMatrix) Hours(collaborator, project string) float64 {
	if m == nil {
		return 0
	}
	return m.hours[cell{collaborator, project}]
}

// Rows materialises the matrix in axis order.
func (m *AllocationMatrix) Rows() []MatrixRow {
	rows := make([]MatrixRow, 0, len(m.Collaborators))
	for _, c := range m.Collaborators {
		row := MatrixRow{Collaborator: c, Hours: make([]float64, len(m.Projects))}
		for j, p := range m.Projects {
			h := m.Hours(c, p)
			row.Hours[j] = h
			row.Total += h
		}
		rows = append(rows, row)
	}
	return rows
}

// Max returns the largest cell value, used to scale heat maps.
func (m *AllocationMatrix) Max() float64 {
	highest := 0.0
	for _, h := range m.hours {
		if h > highest {
			highest = h
		}
	}
	return highest
}

// TopAllocationMatrix builds the matrix over the n collaborators and n
// projects with the most hours. n <= 0 keeps every value.
func TopAllocationMatrix(records []model.WorkLog, n int) *AllocationMatrix {
	collaborators := Names(Top(RankHoursBy(records, ByCollaborator), n))
	projects := Names(Top(RankHoursBy(records, ByProject), n))
	return BuildAllocationMatrix(records, collaborators, projects)
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
