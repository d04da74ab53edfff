// Command admin manages groups and users from the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"unicode/utf8"

	"yatube/internal/bootstrap"
	"yatube/internal/config"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

const usageText = `Usage:
  admin group-create <slug> <title> [description]  - Create a group
  admin group-delete <slug>                        - Delete a group; its posts stay without a group
  admin user-delete <username>                     - Delete a user and all of their posts
  admin list-groups                                - List all groups`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usageText)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer bootstrap.Close(db)

	a := &admin{
		users:  repository.NewUserRepository(db),
		groups: repository.NewGroupRepository(db),
		out:    os.Stdout,
	}
	if err := a.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type admin struct {
	users  repository.UserRepository
	groups repository.GroupRepository
	out    io.Writer
}

func (a *admin) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s", usageText)
	}

	switch args[0] {
	case "group-create":
		if len(args) < 3 {
			return fmt.Errorf("usage: admin group-create <slug> <title> [description]")
		}
		description := ""
		if len(args) > 3 {
			description = strings.Join(args[3:], " ")
		}
		return a.createGroup(ctx, args[1], args[2], description)

	case "group-delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: admin group-delete <slug>")
		}
		return a.deleteGroup(ctx, args[1])

	case "user-delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: admin user-delete <username>")
		}
		return a.deleteUser(ctx, args[1])

	case "list-groups":
		return a.listGroups(ctx)

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usageText)
	}
}

func (a *admin) createGroup(ctx context.Context, slug, title, description string) error {
	slug = strings.TrimSpace(slug)
	title = strings.TrimSpace(title)

	if err := validation.ValidateGroupSlug(slug); err != nil {
		return err
	}
	if title == "" || utf8.RuneCountInString(title) > models.GroupTitleMaxLen {
		return fmt.Errorf("title must be 1 to %d characters", models.GroupTitleMaxLen)
	}

	group := &models.Group{Title: title, Slug: slug}
	if description = strings.TrimSpace(description); description != "" {
		group.Description = &description
	}
	if err := a.groups.Create(ctx, group); err != nil {
		return fmt.Errorf("create group %q: %w", slug, err)
	}

	fmt.Fprintf(a.out, "Created group %s (ID: %d)\n", group.Slug, group.ID)
	return nil
}

func (a *admin) deleteGroup(ctx context.Context, slug string) error {
	if err := a.groups.Delete(ctx, slug); err != nil {
		return fmt.Errorf("delete group %q: %w", slug, err)
	}
	fmt.Fprintf(a.out, "Deleted group %s\n", slug)
	return nil
}

func (a *admin) deleteUser(ctx context.Context, username string) error {
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("find user %q: %w", username, err)
	}
	if err := a.users.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("delete user %q: %w", username, err)
	}
	fmt.Fprintf(a.out, "Deleted user %s (ID: %d) and their posts\n", user.Username, user.ID)
	return nil
}

func (a *admin) listGroups(ctx context.Context) error {
	groups, err := a.groups.List(ctx)
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}
	if len(groups) == 0 {
		fmt.Fprintln(a.out, "No groups found")
		return nil
	}
	for _, g := range groups {
		fmt.Fprintf(a.out, "ID: %d | Slug: %s | Title: %s\n", g.ID, g.Slug, g.Title)
	}
	return nil
}
