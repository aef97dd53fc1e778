package serializers

import "github.com/coreybb/timetrack/models"

// ProjectInput is the writable part of a project. Membership is read-only here.
type ProjectInput struct {
	Name *string `json:"name" validate:"required,min=1,max=100"`
}

func (in *ProjectInput) ApplyTo(project *models.Project, present Present) {
	if present["name"] && in.Name != nil {
		project.Name = *in.Name
	}
}

// ProjectRepresentation embeds the caller's own time records for the project.
type ProjectRepresentation struct {
	ID      int64               `json:"id"`
	Name    string              `json:"name"`
	Users   []int64             `json:"users"`
	Records []models.TimeRecord `json:"records"`
}

// NewProjectRepresentation pairs a project with records, which must already
// be the caller's own, ordered newest first.
func NewProjectRepresentation(project models.Project, records []models.TimeRecord) ProjectRepresentation {
	users := project.UserIDs
	if users == nil {
		users = []int64{}
	}
	own := []models.TimeRecord{}
	for _, record := range records {
		if record.ProjectID == project.ID {
			own = append(own, record)
		}
	}
	return ProjectRepresentation{
		ID:      project.ID,
		Name:    project.Name,
		Users:   users,
		Records: own,
	}
}

// NewProjectRepresentations is NewProjectRepresentation over a list, sharing
// one pass of the caller's records.
func NewProjectRepresentations(projects []models.Project, records []models.TimeRecord) []ProjectRepresentation {
	byProject := make(map[int64][]models.TimeRecord)
	for _, record := range records {
		byProject[record.ProjectID] = append(byProject[record.ProjectID], record)
	}

	out := make([]ProjectRepresentation, 0, len(projects))
	for _, project := range projects {
		out = append(out, NewProjectRepresentation(project, byProject[project.ID]))
	}
	return out
}
