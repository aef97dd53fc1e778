package routehandlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coreybb/timetrack/datastore"
	"github.com/coreybb/timetrack/models"
	"github.com/coreybb/timetrack/serializers"
	"github.com/coreybb/timetrack/webutil"
)

// ProjectHandler holds dependencies for project route handlers.
type ProjectHandler struct {
	Repo    ProjectStore
	Members MemberStore
	Records TimeRecordStore
	Policy  AccessPolicy
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(repo ProjectStore, members MemberStore, records TimeRecordStore, policy AccessPolicy) *ProjectHandler {
	return &ProjectHandler{Repo: repo, Members: members, Records: records, Policy: policy}
}

func (h *ProjectHandler) filterFor(me *models.User) datastore.ProjectFilter {
	if h.Policy.ScopeProjectsToMembers {
		return datastore.ProjectFilter{MemberID: &me.ID}
	}
	return datastore.ProjectFilter{}
}

// HandleGetProjects lists projects, each carrying the caller's own records.
func (h *ProjectHandler) HandleGetProjects(w http.ResponseWriter, r *http.Request) error {
	me, err := caller(r)
	if err != nil {
		return err
	}

	projects, err := h.Repo.GetProjects(r.Context(), h.filterFor(me))
	if err != nil {
		return fmt.Errorf("failed to retrieve projects: %w", err)
	}
	records, err := h.Records.GetTimeRecords(r.Context(), datastore.TimeRecordFilter{UserID: me.ID})
	if err != nil {
		return fmt.Errorf("failed to retrieve time records for user %d: %w", me.ID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, serializers.NewProjectRepresentations(projects, records))
	return nil
}

func (h *ProjectHandler) HandleGetProject(w http.ResponseWriter, r *http.Request) error {
	me, project, err := h.load(r)
	if err != nil {
		return err
	}
	return h.respond(w, r, http.StatusOK, me, project)
}

// HandleCreateProject creates a project; the caller becomes its first member.
func (h *ProjectHandler) HandleCreateProject(w http.ResponseWriter, r *http.Request) error {
	me, err := caller(r)
	if err != nil {
		return err
	}

	var in serializers.ProjectInput
	present, err := decode(r, &in)
	if err != nil {
		return err
	}
	if err := serializers.Validate(&in, present, false); err != nil {
		return err
	}

	var project models.Project
	in.ApplyTo(&project, present)
	if err := h.Repo.CreateProject(r.Context(), &project, me.ID); err != nil {
		return storeError(err, "Project")
	}

	slog.Info("Project created", "project_id", project.ID, "name", project.Name, "user_id", me.ID)
	webutil.RespondWithJSON(w, http.StatusCreated, serializers.NewProjectRepresentation(project, nil))
	return nil
}

func (h *ProjectHandler) HandleReplaceProject(w http.ResponseWriter, r *http.Request) error {
	return h.update(w, r, false)
}

func (h *ProjectHandler) HandlePatchProject(w http.ResponseWriter, r *http.Request) error {
	return h.update(w, r, true)
}

func (h *ProjectHandler) update(w http.ResponseWriter, r *http.Request, partial bool) error {
	me, project, err := h.load(r)
	if err != nil {
		return err
	}

	var in serializers.ProjectInput
	present, err := decode(r, &in)
	if err != nil {
		return err
	}
	if err := serializers.Validate(&in, present, partial); err != nil {
		return err
	}

	in.ApplyTo(project, present)
	if err := h.Repo.UpdateProject(r.Context(), project); err != nil {
		return storeError(err, "Project")
	}
	return h.respond(w, r, http.StatusOK, me, project)
}

// HandleDeleteProject removes a project together with every time record
// logged against it, whoever owns them.
func (h *ProjectHandler) HandleDeleteProject(w http.ResponseWriter, r *http.Request) error {
	me, project, err := h.load(r)
	if err != nil {
		return err
	}
	if err := h.Repo.DeleteProject(r.Context(), project.ID); err != nil {
		return storeError(err, "Project")
	}

	slog.Info("Project deleted", "project_id", project.ID, "user_id", me.ID)
	webutil.RespondNoContent(w)
	return nil
}

// HandleGetMembers lists the users belonging to a project.
func (h *ProjectHandler) HandleGetMembers(w http.ResponseWriter, r *http.Request) error {
	_, project, err := h.load(r)
	if err != nil {
		return err
	}

	members, err := h.Members.GetMembers(r.Context(), project.ID)
	if err != nil {
		return fmt.Errorf("failed to retrieve members of project %d: %w", project.ID, err)
	}
	webutil.RespondWithJSON(w, http.StatusOK, members)
	return nil
}

// HandleAddMember adds the user in the path to the project. Repeating it is harmless.
func (h *ProjectHandler) HandleAddMember(w http.ResponseWriter, r *http.Request) error {
	_, project, err := h.load(r)
	if err != nil {
		return err
	}
	userID, err := pathID(r, ParamUserID)
	if err != nil {
		return err
	}

	if err := h.Members.AddMember(r.Context(), project.ID, userID); err != nil {
		return storeError(err, "Project")
	}
	webutil.RespondNoContent(w)
	return nil
}

func (h *ProjectHandler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) error {
	_, project, err := h.load(r)
	if err != nil {
		return err
	}
	userID, err := pathID(r, ParamUserID)
	if err != nil {
		return err
	}

	if err := h.Members.RemoveMember(r.Context(), project.ID, userID); err != nil {
		return storeError(err, "Membership")
	}
	webutil.RespondNoContent(w)
	return nil
}

// load resolves the caller and the project named in the path. Projects the
// access policy hides are reported as not found.
func (h *ProjectHandler) load(r *http.Request) (*models.User, *models.Project, error) {
	me, err := caller(r)
	if err != nil {
		return nil, nil, err
	}
	projectID, err := pathID(r, ParamID)
	if err != nil {
		return nil, nil, err
	}

	project, err := h.Repo.GetProjectByID(r.Context(), projectID, h.filterFor(me))
	if err != nil {
		return nil, nil, storeError(err, "Project")
	}
	return me, project, nil
}

func (h *ProjectHandler) respond(w http.ResponseWriter, r *http.Request, status int, me *models.User, project *models.Project) error {
	records, err := h.Records.GetTimeRecords(r.Context(), datastore.TimeRecordFilter{
		UserID:    me.ID,
		ProjectID: &project.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to retrieve time records for project %d: %w", project.ID, err)
	}
	webutil.RespondWithJSON(w, status, serializers.NewProjectRepresentation(*project, records))
	return nil
}
