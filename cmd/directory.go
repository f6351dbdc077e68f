package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hourbook/config"
	"hourbook/storage"
)

var (
	directoryDBPath    string
	directoryUserEmail string
	directoryIssueNeed string
	directoryIssueProj string
)

var directoryCmd = &cobra.Command{
	Use:   "directory",
	Short: "Manage local users, teams, projects, repositories, and issues",
	Long: `Maintain the local directory the import pipeline resolves against: users
and their teams, customer projects, repositories, and issues. In deployments
with a remote tracker only users, teams, and projects live here.`,
}

var directoryUserCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var directoryUserAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *storage.Store) error {
			user, err := store.AddUser(args[0], directoryUserEmail)
			if err != nil {
				return err
			}
			fmt.Printf("Added user %s (id %d)\n", user.Username, user.ID)
			return nil
		})
	},
}

var directoryTeamCmd = &cobra.Command{
	Use:   "team",
	Short: "Manage teams and their members",
}

var directoryTeamAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a team",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *storage.Store) error {
			team, err := store.AddTeam(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Added team %s (id %d)\n", team.Name, team.ID)
			return nil
		})
	},
}

var directoryTeamMemberCmd = &cobra.Command{
	Use:   "member <team> <username>",
	Short: "Add a user to a team",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *storage.Store) error {
			team, err := store.FindTeamByName(args[0])
			if err != nil {
				return err
			}
			user, err := store.FindUserByUsername(args[1])
			if err != nil {
				return err
			}
			if err := store.AddUserToTeam(user.ID, team.ID); err != nil {
				return err
			}
			fmt.Printf("Added %s to team %s\n", user.Username, team.Name)
			return nil
		})
	},
}

var directoryTeamGrantCmd = &cobra.Command{
	Use:   "grant <team> <project>",
	Short: "Link a team to a project its members may log hours against",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *storage.Store) error {
			team, err := store.FindTeamByName(args[0])
			if err != nil {
				return err
			}
			project, err := store.FindProjectByName(args[1])
			if err != nil {
				return err
			}
			if err := store.GrantTeamProject(team.ID, project.ID); err != nil {
				return err
			}
			fmt.Printf("Granted project %s to team %s\n", project.Name, team.Name)
			return nil
		})
	},
}

var directoryProjectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage customer projects",
}

var directoryProjectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a customer project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *storage.Store) error {
			project, err := store.AddProject(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Added project %s (id %d)\n", project.Name, project.ID)
			return nil
		})
	},
}

var directoryRepoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage repositories",
}

var directoryRepoAddCmd = &cobra.Command{
	Use:   "add <owner/name>",
	Short: "Add a repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *storage.Store) error {
			owner, name, found := strings.Cut(args[0], "/")
			if !found {
				owner, name = "", args[0]
			}
			repo, err := store.AddRepository(owner, name)
			if err != nil {
				return err
			}
			fmt.Printf("Added repository %s (id %d)\n", repo.DistinctName(), repo.ID)
			return nil
		})
	},
}

var directoryIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Manage issues",
}

var directoryIssueAddCmd = &cobra.Command{
	Use:   "add <owner/name> <number> <title>",
	Short: "Add an issue to a repository",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *storage.Store) error {
			repo, err := store.FindRepositoryByName(args[0])
			if err != nil {
				return err
			}
			if repo == nil {
				return fmt.Errorf("repository %s is not registered", args[0])
			}
			number, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid issue number %q: %w", args[1], err)
			}

			var projectID int64
			if directoryIssueProj != "" {
				project, err := store.FindProjectByName(directoryIssueProj)
				if err != nil {
					return err
				}
				projectID = project.ID
			}

			issue, err := store.AddIssue(repo.ID, number, args[2], directoryIssueNeed, projectID)
			if err != nil {
				return err
			}
			fmt.Printf("Added issue %s#%d (id %d)\n", repo.DistinctName(), issue.Number, issue.ID)
			return nil
		})
	},
}

func withStore(fn func(*storage.Store) error) error {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return err
	}
	store, err := storage.Open(resolveDBPath(directoryDBPath, cfg))
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func init() {
	rootCmd.AddCommand(directoryCmd)
	directoryCmd.AddCommand(directoryUserCmd)
	directoryCmd.AddCommand(directoryTeamCmd)
	directoryCmd.AddCommand(directoryProjectCmd)
	directoryCmd.AddCommand(directoryRepoCmd)
	directoryCmd.AddCommand(directoryIssueCmd)
	directoryUserCmd.AddCommand(directoryUserAddCmd)
	directoryTeamCmd.AddCommand(directoryTeamAddCmd)
	directoryTeamCmd.AddCommand(directoryTeamMemberCmd)
	directoryTeamCmd.AddCommand(directoryTeamGrantCmd)
	directoryProjectCmd.AddCommand(directoryProjectAddCmd)
	directoryRepoCmd.AddCommand(directoryRepoAddCmd)
	directoryIssueCmd.AddCommand(directoryIssueAddCmd)

	directoryCmd.PersistentFlags().StringVar(&directoryDBPath, "db", "", "SQLite database path (default from config)")
	directoryUserAddCmd.Flags().StringVar(&directoryUserEmail, "email", "", "User email")
	directoryIssueAddCmd.Flags().StringVar(&directoryIssueNeed, "need", "", "Need the issue belongs to")
	directoryIssueAddCmd.Flags().StringVar(&directoryIssueProj, "project", "", "Project the issue belongs to")
}
