package api

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coreybb/timetrack/datastore"
	"github.com/coreybb/timetrack/models"
)

// memStore is an in-memory stand-in for the PostgreSQL repositories,
// including their cascade and constraint behaviour.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]models.User
	tokens   map[int64]string
	projects map[int64]models.Project
	members  map[int64]map[int64]bool
	records  map[int64]models.TimeRecord
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]models.User{},
		tokens:   map[int64]string{},
		projects: map[int64]models.Project{},
		members:  map[int64]map[int64]bool{},
		records:  map[int64]models.TimeRecord{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

// --- users ---

func (s *memStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return &datastore.ConstraintError{Code: "23505", Constraint: "users_username_key"}
		}
	}
	user.ID = s.id()
	user.DateJoined = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s *memStore) GetUserByID(_ context.Context, userID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, datastore.ErrNotFound
	}
	return &u, nil
}

func (s *memStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, datastore.ErrNotFound
}

func (s *memStore) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) GetUsers(_ context.Context, onlyID *int64) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := []models.User{}
	for _, u := range s.users {
		if onlyID == nil || u.ID == *onlyID {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	return users, nil
}

func (s *memStore) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return datastore.ErrNotFound
	}
	for _, u := range s.users {
		if u.ID != user.ID && u.Username == user.Username {
			return &datastore.ConstraintError{Code: "23505", Constraint: "users_username_key"}
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *memStore) DeleteUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return datastore.ErrNotFound
	}
	delete(s.users, userID)
	delete(s.tokens, userID)
	for _, m := range s.members {
		delete(m, userID)
	}
	for id, r := range s.records {
		if r.UserID == userID {
			delete(s.records, id)
		}
	}
	return nil
}

// --- tokens ---

func (s *memStore) GetOrCreateToken(_ context.Context, userID int64, candidateKey string) (*models.AuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[userID]; !ok {
		s.tokens[userID] = candidateKey
	}
	return &models.AuthToken{Key: s.tokens[userID], UserID: userID}, nil
}

func (s *memStore) GetUserByTokenKey(_ context.Context, key string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, k := range s.tokens {
		if k == key {
			u := s.users[userID]
			return &u, nil
		}
	}
	return nil, datastore.ErrNotFound
}

// --- projects ---

func (s *memStore) memberIDs(projectID int64) []int64 {
	ids := []int64{}
	for userID := range s.members[projectID] {
		ids = append(ids, userID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *memStore) visible(projectID int64, filter datastore.ProjectFilter) bool {
	return filter.MemberID == nil || s.members[projectID][*filter.MemberID]
}

func (s *memStore) CreateProject(_ context.Context, project *models.Project, creatorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	project.ID = s.id()
	project.CreatedAt = time.Now()
	s.projects[project.ID] = *project
	s.members[project.ID] = map[int64]bool{creatorID: true}
	project.UserIDs = []int64{creatorID}
	return nil
}

func (s *memStore) GetProjectByID(_ context.Context, projectID int64, filter datastore.ProjectFilter) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok || !s.visible(projectID, filter) {
		return nil, datastore.ErrNotFound
	}
	p.UserIDs = s.memberIDs(projectID)
	return &p, nil
}

func (s *memStore) GetProjects(_ context.Context, filter datastore.ProjectFilter) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	projects := []models.Project{}
	for id, p := range s.projects {
		if s.visible(id, filter) {
			p.UserIDs = s.memberIDs(id)
			projects = append(projects, p)
		}
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

func (s *memStore) UpdateProject(_ context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[project.ID]; !ok {
		return datastore.ErrNotFound
	}
	s.projects[project.ID] = *project
	for id, r := range s.records {
		if r.ProjectID == project.ID {
			r.ProjectName = project.Name
			s.records[id] = r
		}
	}
	return nil
}

func (s *memStore) DeleteProject(_ context.Context, projectID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[projectID]; !ok {
		return datastore.ErrNotFound
	}
	delete(s.projects, projectID)
	delete(s.members, projectID)
	for id, r := range s.records {
		if r.ProjectID == projectID {
			delete(s.records, id)
		}
	}
	return nil
}

// --- members ---

func (s *memStore) AddMember(_ context.Context, projectID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[projectID]; !ok {
		return &datastore.ConstraintError{Code: "23503", Constraint: "project_users_project_id_fkey"}
	}
	if _, ok := s.users[userID]; !ok {
		return &datastore.ConstraintError{Code: "23503", Constraint: "project_users_user_id_fkey"}
	}
	s.members[projectID][userID] = true
	return nil
}

func (s *memStore) RemoveMember(_ context.Context, projectID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.members[projectID][userID] {
		return datastore.ErrNotFound
	}
	delete(s.members[projectID], userID)
	return nil
}

func (s *memStore) GetMembers(_ context.Context, projectID int64) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := []models.User{}
	for _, id := range s.memberIDs(projectID) {
		users = append(users, s.users[id])
	}
	return users, nil
}

// --- time records ---

func (s *memStore) CreateTimeRecord(_ context.Context, record *models.TimeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[record.ProjectID]
	if !ok {
		return &datastore.ConstraintError{Code: "23503", Constraint: "time_records_project_id_fkey"}
	}
	record.ComputeDuration()
	record.ID = s.id()
	record.ProjectName = p.Name
	s.records[record.ID] = *record
	return nil
}

func (s *memStore) GetTimeRecordByID(_ context.Context, recordID, userID int64) (*models.TimeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[recordID]
	if !ok || r.UserID != userID {
		return nil, datastore.ErrNotFound
	}
	return &r, nil
}

func (s *memStore) GetTimeRecords(_ context.Context, filter datastore.TimeRecordFilter) ([]models.TimeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := []models.TimeRecord{}
	for _, r := range s.records {
		if r.UserID != filter.UserID {
			continue
		}
		if filter.ProjectID != nil && r.ProjectID != *filter.ProjectID {
			continue
		}
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID > records[j].ID })
	return records, nil
}

func (s *memStore) UpdateTimeRecord(_ context.Context, record *models.TimeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[record.ID]
	if !ok || existing.UserID != record.UserID {
		return datastore.ErrNotFound
	}
	p, ok := s.projects[record.ProjectID]
	if !ok {
		return &datastore.ConstraintError{Code: "23503", Constraint: "time_records_project_id_fkey"}
	}
	record.ComputeDuration()
	record.ProjectName = p.Name
	s.records[record.ID] = *record
	return nil
}

func (s *memStore) DeleteTimeRecord(_ context.Context, recordID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[recordID]
	if !ok || r.UserID != userID {
		return datastore.ErrNotFound
	}
	delete(s.records, recordID)
	return nil
}
