package datastore

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/coreybb/timetrack/models"
)

// openTestDB connects to the database named by TIMETRACK_TEST_DATABASE_URL,
// migrates it and empties every table. Tests skip when it is unset.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TIMETRACK_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TIMETRACK_TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	_, err = db.ExecContext(ctx,
		`TRUNCATE time_records, project_users, auth_tokens, projects, users RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to reset tables: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, repo *UserRepository, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username}
	if err := repo.CreateUser(context.Background(), &user); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func TestPostgres_UserConstraints(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, users, "ann@example.com")

	dup := models.User{Username: "ann@example.com"}
	err := users.CreateUser(ctx, &dup)
	var ce *ConstraintError
	if !errors.As(err, &ce) || ce.Constraint != "users_username_key" {
		t.Fatalf("expected users_username_key violation, got %v", err)
	}

	exists, err := users.EmailExists(ctx, "ANN@example.COM")
	if err != nil || !exists {
		t.Errorf("expected case-insensitive email match, got %v, %v", exists, err)
	}

	if _, err := users.GetUserByID(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_TokenIsStablePerUser(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	tokens := NewTokenRepository(db)
	ctx := context.Background()

	ann := createTestUser(t, users, "ann@example.com")

	first, err := tokens.GetOrCreateToken(ctx, ann.ID, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := tokens.GetOrCreateToken(ctx, ann.ID, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Key != second.Key {
		t.Errorf("expected one token per user, got %s and %s", first.Key, second.Key)
	}

	owner, err := tokens.GetUserByTokenKey(ctx, first.Key)
	if err != nil || owner.ID != ann.ID {
		t.Errorf("expected token to resolve to user %d, got %v, %v", ann.ID, owner, err)
	}
	if _, err := tokens.GetUserByTokenKey(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows for unknown key, got %v", err)
	}
}

func TestPostgres_TimeRecordsScopedToOwner(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	projects := NewProjectRepository(db)
	records := NewTimeRecordRepository(db)
	ctx := context.Background()

	ann := createTestUser(t, users, "ann@example.com")
	bob := createTestUser(t, users, "bob@example.com")

	project := models.Project{Name: "Apollo"}
	if err := projects.CreateProject(ctx, &project, ann.ID); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	record := models.TimeRecord{
		UserID:      ann.ID,
		ProjectID:   project.ID,
		TimeStarted: start,
		TimeEnded:   start.Add(90 * time.Minute),
	}
	if err := records.CreateTimeRecord(ctx, &record); err != nil {
		t.Fatalf("failed to create record: %v", err)
	}
	if record.ProjectName != "Apollo" || record.Duration.String() != "1:30:00" {
		t.Errorf("unexpected record after insert: %+v", record)
	}

	if _, err := records.GetTimeRecordByID(ctx, record.ID, bob.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected other users' records to be not found, got %v", err)
	}
	list, err := records.GetTimeRecords(ctx, TimeRecordFilter{UserID: bob.ID})
	if err != nil || len(list) != 0 {
		t.Errorf("expected no records for bob, got %v, %v", list, err)
	}

	got, err := records.GetTimeRecordByID(ctx, record.ID, ann.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.TimeStarted.Equal(start) || got.Duration != record.Duration {
		t.Errorf("unexpected stored record: %+v", got)
	}

	bad := record
	bad.ProjectID = project.ID + 100
	err = records.UpdateTimeRecord(ctx, &bad)
	var ce *ConstraintError
	if !errors.As(err, &ce) || ce.Constraint != "time_records_project_id_fkey" {
		t.Errorf("expected project foreign key violation, got %v", err)
	}
}

func TestPostgres_ProjectDeleteCascades(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	projects := NewProjectRepository(db)
	members := NewProjectMemberRepository(db)
	records := NewTimeRecordRepository(db)
	ctx := context.Background()

	ann := createTestUser(t, users, "ann@example.com")
	bob := createTestUser(t, users, "bob@example.com")

	project := models.Project{Name: "Apollo"}
	if err := projects.CreateProject(ctx, &project, ann.ID); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	if err := members.AddMember(ctx, project.ID, bob.ID); err != nil {
		t.Fatalf("failed to add member: %v", err)
	}
	if err := members.AddMember(ctx, project.ID, bob.ID); err != nil {
		t.Fatalf("expected repeated add to be a no-op, got %v", err)
	}

	fetched, err := projects.GetProjectByID(ctx, project.ID, ProjectFilter{MemberID: &bob.ID})
	if err != nil || len(fetched.UserIDs) != 2 {
		t.Fatalf("expected two members visible to bob, got %v, %v", fetched, err)
	}

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	for _, owner := range []int64{ann.ID, bob.ID} {
		r := models.TimeRecord{UserID: owner, ProjectID: project.ID, TimeStarted: start, TimeEnded: start.Add(time.Hour)}
		if err := records.CreateTimeRecord(ctx, &r); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}
	}

	if err := projects.DeleteProject(ctx, project.ID); err != nil {
		t.Fatalf("failed to delete project: %v", err)
	}

	var remaining int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM time_records`).Scan(&remaining); err != nil {
		t.Fatalf("failed to count records: %v", err)
	}
	if remaining != 0 {
		t.Errorf("expected records to cascade, %d remain", remaining)
	}
	if err := projects.DeleteProject(ctx, project.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestPostgres_ProjectFilterHidesNonMembers(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	projects := NewProjectRepository(db)
	ctx := context.Background()

	ann := createTestUser(t, users, "ann@example.com")
	bob := createTestUser(t, users, "bob@example.com")

	project := models.Project{Name: "Apollo"}
	if err := projects.CreateProject(ctx, &project, ann.ID); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	all, err := projects.GetProjects(ctx, ProjectFilter{})
	if err != nil || len(all) != 1 {
		t.Fatalf("expected one project unfiltered, got %v, %v", all, err)
	}
	scoped, err := projects.GetProjects(ctx, ProjectFilter{MemberID: &bob.ID})
	if err != nil || len(scoped) != 0 {
		t.Errorf("expected bob to see no projects, got %v, %v", scoped, err)
	}
	if _, err := projects.GetProjectByID(ctx, project.ID, ProjectFilter{MemberID: &bob.ID}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for hidden project, got %v", err)
	}
}

func TestPostgres_UserDeleteCascades(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	tokens := NewTokenRepository(db)
	projects := NewProjectRepository(db)
	members := NewProjectMemberRepository(db)
	records := NewTimeRecordRepository(db)
	ctx := context.Background()

	ann := createTestUser(t, users, "ann@example.com")
	bob := createTestUser(t, users, "bob@example.com")

	project := models.Project{Name: "Apollo"}
	if err := projects.CreateProject(ctx, &project, ann.ID); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	if err := members.AddMember(ctx, project.ID, bob.ID); err != nil {
		t.Fatalf("failed to add member: %v", err)
	}
	token, err := tokens.GetOrCreateToken(ctx, bob.ID, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	record := models.TimeRecord{UserID: bob.ID, ProjectID: project.ID, TimeStarted: start, TimeEnded: start.Add(time.Hour)}
	if err := records.CreateTimeRecord(ctx, &record); err != nil {
		t.Fatalf("failed to create record: %v", err)
	}

	if err := users.DeleteUser(ctx, bob.ID); err != nil {
		t.Fatalf("failed to delete user: %v", err)
	}

	for _, table := range []string{"time_records", "project_users", "auth_tokens"} {
		var remaining int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE user_id = $1`, bob.ID).Scan(&remaining); err != nil {
			t.Fatalf("failed to count %s: %v", table, err)
		}
		if remaining != 0 {
			t.Errorf("expected %s rows to cascade, %d remain", table, remaining)
		}
	}
	if _, err := tokens.GetUserByTokenKey(ctx, token.Key); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected the deleted user's token to stop resolving, got %v", err)
	}
	fetched, err := projects.GetProjectByID(ctx, project.ID, ProjectFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fetched.UserIDs) != 1 || fetched.UserIDs[0] != ann.ID {
		t.Errorf("expected only ann to remain a member, got %v", fetched.UserIDs)
	}
	if err := users.DeleteUser(ctx, bob.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestPostgres_CenturiesLongRecord(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	projects := NewProjectRepository(db)
	records := NewTimeRecordRepository(db)
	ctx := context.Background()

	ann := createTestUser(t, users, "ann@example.com")
	project := models.Project{Name: "Apollo"}
	if err := projects.CreateProject(ctx, &project, ann.ID); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	record := models.TimeRecord{
		UserID:      ann.ID,
		ProjectID:   project.ID,
		TimeStarted: time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC),
		TimeEnded:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := records.CreateTimeRecord(ctx, &record); err != nil {
		t.Fatalf("failed to create record: %v", err)
	}

	got, err := records.GetTimeRecordByID(ctx, record.ID, ann.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Duration.String() != "118338 days, 0:00:00" {
		t.Errorf("expected 118338 days, 0:00:00, got %q", got.Duration)
	}
}
