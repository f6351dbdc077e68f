// Package directory defines the collaborator types and lookup interfaces the
// hours subsystem depends on: user identities, customer projects, and the
// issue tracker. Implementations live elsewhere (storage provides a SQLite
// one, tracker a remote HTTP one).
package directory

import "fmt"

type User struct {
	ID       int64
	Username string
	Email    string
}

type Team struct {
	ID   int64
	Name string
}

type Project struct {
	ID   int64
	Name string
}

type Repository struct {
	ID    int64
	Owner string
	Name  string
}

// DistinctName returns the owner-qualified repository name, or the bare name
// when no owner is known.
func (r Repository) DistinctName() string {
	if r.Owner == "" {
		return r.Name
	}
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

// Issue is a tracker ticket. Exactly one of ProjectID and ProjectName is set
// by an implementation when the issue can be traced to a customer project:
// the SQLite directory knows project IDs, the remote tracker only names.
type Issue struct {
	ID           int64
	RepositoryID int64
	Number       int
	Title        string
	Need         string
	ProjectID    int64
	ProjectName  string
}

// UserDirectory resolves user identities and their authorized projects.
type UserDirectory interface {
	// FindUserByUsername returns the user or an error wrapping hours.ErrNotFound.
	FindUserByUsername(username string) (*User, error)
	// ListUserProjects returns the distinct union of projects linked to the
	// teams the user belongs to.
	ListUserProjects(userID int64) ([]Project, error)
}

// ProjectCatalog resolves customer projects by name or ID.
type ProjectCatalog interface {
	FindProjectByName(name string) (*Project, error)
	FindProjectByID(id int64) (*Project, error)
}

// IssueTracker resolves repositories and their issues. Both lookups return
// (nil, nil) when the target simply does not exist; absence is not an error
// for the import pipeline.
type IssueTracker interface {
	FindRepositoryByName(name string) (*Repository, error)
	FindIssue(repo *Repository, number int) (*Issue, error)
}
