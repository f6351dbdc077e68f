package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hourbook/directory"
	"hourbook/hours"
)

// The store doubles as the local implementation of the directory lookup
// interfaces. Deployments with a remote issue tracker swap only the
// IssueTracker side for tracker.Client.

var (
	_ directory.UserDirectory  = (*Store)(nil)
	_ directory.ProjectCatalog = (*Store)(nil)
	_ directory.IssueTracker   = (*Store)(nil)
)

func (s *Store) FindUserByUsername(username string) (*directory.User, error) {
	user := directory.User{}
	err := s.db.QueryRow(`SELECT id, username, email FROM users WHERE username = ?;`,
		username).Scan(&user.ID, &user.Username, &user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", username, hours.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query user %s: %w", username, err)
	}
	return &user, nil
}

// ListUserProjects returns the distinct union of projects linked to the
// user's teams, ordered by name.
func (s *Store) ListUserProjects(userID int64) ([]directory.Project, error) {
	rows, err := s.db.Query(`
SELECT DISTINCT p.id, p.name
FROM projects p
JOIN team_projects tp ON tp.project_id = p.id
JOIN user_teams ut ON ut.team_id = tp.team_id
WHERE ut.user_id = ?
ORDER BY p.name;`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user projects: %w", err)
	}
	defer rows.Close()

	projects := make([]directory.Project, 0, 8)
	for rows.Next() {
		var project directory.Project
		if err := rows.Scan(&project.ID, &project.Name); err != nil {
			return nil, fmt.Errorf("scan user project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (s *Store) FindProjectByName(name string) (*directory.Project, error) {
	project := directory.Project{}
	err := s.db.QueryRow(`SELECT id, name FROM projects WHERE name = ?;`,
		name).Scan(&project.ID, &project.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", name, hours.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query project %s: %w", name, err)
	}
	return &project, nil
}

func (s *Store) FindProjectByID(id int64) (*directory.Project, error) {
	project := directory.Project{}
	err := s.db.QueryRow(`SELECT id, name FROM projects WHERE id = ?;`,
		id).Scan(&project.ID, &project.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, hours.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query project %d: %w", id, err)
	}
	return &project, nil
}

// FindRepositoryByName accepts either an owner-qualified "owner/name" or a
// bare repository name. Absence yields (nil, nil).
func (s *Store) FindRepositoryByName(name string) (*directory.Repository, error) {
	var (
		row  *sql.Row
		repo directory.Repository
	)
	if owner, bare, ok := strings.Cut(name, "/"); ok {
		row = s.db.QueryRow(`SELECT id, owner, name FROM repositories WHERE owner = ? AND name = ?;`, owner, bare)
	} else {
		row = s.db.QueryRow(`SELECT id, owner, name FROM repositories WHERE name = ? ORDER BY id LIMIT 1;`, name)
	}
	err := row.Scan(&repo.ID, &repo.Owner, &repo.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query repository %s: %w", name, err)
	}
	return &repo, nil
}

// FindIssue returns the issue by number within the repository, or (nil, nil)
// when it does not exist.
func (s *Store) FindIssue(repo *directory.Repository, number int) (*directory.Issue, error) {
	issue := directory.Issue{RepositoryID: repo.ID, Number: number}
	err := s.db.QueryRow(`
SELECT id, title, need, project_id FROM issues WHERE repository_id = ? AND number = ?;`,
		repo.ID, number).Scan(&issue.ID, &issue.Title, &issue.Need, &issue.ProjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query issue %s#%d: %w", repo.DistinctName(), number, err)
	}
	return &issue, nil
}

// === admin inserts, used by the directory CLI commands and tests ===

func (s *Store) AddUser(username, email string) (*directory.User, error) {
	res, err := s.db.Exec(`INSERT INTO users (username, email) VALUES (?, ?);`, username, email)
	if err != nil {
		return nil, fmt.Errorf("insert user %s: %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read inserted user id: %w", err)
	}
	return &directory.User{ID: id, Username: username, Email: email}, nil
}

func (s *Store) FindTeamByName(name string) (*directory.Team, error) {
	team := &directory.Team{}
	err := s.db.QueryRow(`SELECT id, name FROM teams WHERE name = ?;`, name).
		Scan(&team.ID, &team.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team %s: %w", name, hours.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find team %s: %w", name, err)
	}
	return team, nil
}

func (s *Store) AddTeam(name string) (*directory.Team, error) {
	res, err := s.db.Exec(`INSERT INTO teams (name) VALUES (?);`, name)
	if err != nil {
		return nil, fmt.Errorf("insert team %s: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read inserted team id: %w", err)
	}
	return &directory.Team{ID: id, Name: name}, nil
}

func (s *Store) AddProject(name string) (*directory.Project, error) {
	res, err := s.db.Exec(`INSERT INTO projects (name) VALUES (?);`, name)
	if err != nil {
		return nil, fmt.Errorf("insert project %s: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read inserted project id: %w", err)
	}
	return &directory.Project{ID: id, Name: name}, nil
}

func (s *Store) AddUserToTeam(userID, teamID int64) error {
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO user_teams (user_id, team_id) VALUES (?, ?);`,
		userID, teamID); err != nil {
		return fmt.Errorf("link user %d to team %d: %w", userID, teamID, err)
	}
	return nil
}

func (s *Store) GrantTeamProject(teamID, projectID int64) error {
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO team_projects (team_id, project_id) VALUES (?, ?);`,
		teamID, projectID); err != nil {
		return fmt.Errorf("grant project %d to team %d: %w", projectID, teamID, err)
	}
	return nil
}

func (s *Store) AddRepository(owner, name string) (*directory.Repository, error) {
	res, err := s.db.Exec(`INSERT INTO repositories (owner, name) VALUES (?, ?);`, owner, name)
	if err != nil {
		return nil, fmt.Errorf("insert repository %s/%s: %w", owner, name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read inserted repository id: %w", err)
	}
	return &directory.Repository{ID: id, Owner: owner, Name: name}, nil
}

func (s *Store) AddIssue(repositoryID int64, number int, title, need string, projectID int64) (*directory.Issue, error) {
	res, err := s.db.Exec(`
INSERT INTO issues (repository_id, number, title, need, project_id) VALUES (?, ?, ?, ?, ?);`,
		repositoryID, number, title, need, projectID)
	if err != nil {
		return nil, fmt.Errorf("insert issue #%d: %w", number, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read inserted issue id: %w", err)
	}
	return &directory.Issue{
		ID:           id,
		RepositoryID: repositoryID,
		Number:       number,
		Title:        title,
		Need:         need,
		ProjectID:    projectID,
	}, nil
}
