package routehandlers

import (
	"context"

	"github.com/coreybb/timetrack/datastore"
	"github.com/coreybb/timetrack/models"
)

// UserStore is the user persistence the handlers rely on.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	GetUsers(ctx context.Context, onlyID *int64) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, userID int64) error
}

type ProjectStore interface {
	CreateProject(ctx context.Context, project *models.Project, creatorID int64) error
	GetProjectByID(ctx context.Context, projectID int64, filter datastore.ProjectFilter) (*models.Project, error)
	GetProjects(ctx context.Context, filter datastore.ProjectFilter) ([]models.Project, error)
	UpdateProject(ctx context.Context, project *models.Project) error
	DeleteProject(ctx context.Context, projectID int64) error
}

type MemberStore interface {
	AddMember(ctx context.Context, projectID, userID int64) error
	RemoveMember(ctx context.Context, projectID, userID int64) error
	GetMembers(ctx context.Context, projectID int64) ([]models.User, error)
}

type TimeRecordStore interface {
	CreateTimeRecord(ctx context.Context, record *models.TimeRecord) error
	GetTimeRecordByID(ctx context.Context, recordID, userID int64) (*models.TimeRecord, error)
	GetTimeRecords(ctx context.Context, filter datastore.TimeRecordFilter) ([]models.TimeRecord, error)
	UpdateTimeRecord(ctx context.Context, record *models.TimeRecord) error
	DeleteTimeRecord(ctx context.Context, recordID, userID int64) error
}

// AccessPolicy selects how far authenticated callers reach beyond their own
// time records. The zero value lets any authenticated caller read and write
// every project and every user.
type AccessPolicy struct {
	// ScopeProjectsToMembers hides projects the caller is not a member of.
	ScopeProjectsToMembers bool
	// RestrictUsersToSelf limits the user controller to the caller's own row.
	RestrictUsersToSelf bool
}
