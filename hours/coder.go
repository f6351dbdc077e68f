package hours

import (
	"errors"
	"fmt"

	"hourbook/directory"
)

// Coder is a request-scoped view over a user identity plus the projects the
// user may log hours against. The project set is resolved once at
// construction and never re-queried.
type Coder struct {
	User     directory.User
	Projects []directory.Project
}

// NewCoder builds a coder from an already-resolved user and project set.
// Every coder must have at least one authorized project.
func NewCoder(user directory.User, projects []directory.Project) (*Coder, error) {
	if len(projects) == 0 {
		return nil, fmt.Errorf("coder %s: %w", user.Username, ErrNoAuthorizedProjects)
	}
	return &Coder{User: user, Projects: projects}, nil
}

// ResolveCoder looks up the user by username and computes its authorized
// project set: the union, across the user's teams, of each team's linked
// projects.
func ResolveCoder(dir directory.UserDirectory, username string) (*Coder, error) {
	user, err := dir.FindUserByUsername(username)
	if err != nil {
		return nil, err
	}
	projects, err := dir.ListUserProjects(user.ID)
	if err != nil {
		return nil, fmt.Errorf("list projects for %s: %w", username, err)
	}
	return NewCoder(*user, projects)
}

// ResolveCoderOrNone is the non-fatal variant of ResolveCoder: it swallows
// exactly the no-authorized-projects failure and returns nil instead. Any
// other error still propagates.
func ResolveCoderOrNone(dir directory.UserDirectory, username string) (*Coder, error) {
	coder, err := ResolveCoder(dir, username)
	if err != nil {
		if errors.Is(err, ErrNoAuthorizedProjects) {
			return nil, nil
		}
		return nil, err
	}
	return coder, nil
}

// IsAuthorized reports whether the project is in the coder's set.
func (c *Coder) IsAuthorized(projectID int64) bool {
	for _, project := range c.Projects {
		if project.ID == projectID {
			return true
		}
	}
	return false
}

func (c *Coder) String() string {
	return c.User.Username
}
