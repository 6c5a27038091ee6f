package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gurkanbulca/dailytasks/internal/client"
	"github.com/gurkanbulca/dailytasks/internal/models"
)

func (a *app) loginCommand() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.store.Login(cmd.Context(), args[0], passwordOrEnv(password))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (id %d)\n", sess.Username, sess.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (or DAILYTASKS_PASSWORD)")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (a *app) registerCommand() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.store.Register(cmd.Context(), args[0], passwordOrEnv(password))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (id %d). Run `dailytasks login %s` to start.\n", args[0], id, args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (or DAILYTASKS_PASSWORD)")
	return cmd
}

func (a *app) listCommand() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, optionally for one due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loggedIn(); err != nil {
				return err
			}

			var filter *models.Date
			if date != "" {
				d, err := parseDay(date, time.Now())
				if err != nil {
					return err
				}
				filter = &d
			}

			if err := a.store.SelectDate(cmd.Context(), filter); err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), a.store.State().Tasks, time.Now())
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "due date (YYYY-MM-DD, today, tomorrow, yesterday)")
	return cmd
}

func (a *app) addCommand() *cobra.Command {
	var (
		due         string
		description string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loggedIn(); err != nil {
				return err
			}

			d, err := parseDay(due, time.Now())
			if err != nil {
				return err
			}

			task, err := a.store.CreateTask(cmd.Context(), client.NewTask{
				Title:       strings.Join(args, " "),
				Description: description,
				DueDate:     d,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %d due %s\n", task.ID, client.DueLabel(task.DueDate, time.Now()))
			return nil
		},
	}
	cmd.Flags().StringVar(&due, "due", "today", "due date (YYYY-MM-DD, today, tomorrow, yesterday)")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	return cmd
}

func (a *app) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loggedIn(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			task, err := a.store.OpenTask(cmd.Context(), id)
			if err != nil {
				return explain(err)
			}
			printTask(cmd.OutOrStdout(), task, time.Now())
			return nil
		},
	}
}

func (a *app) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "status <id> <pending|in-progress|completed>",
		Short:     "Change a task's status",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(models.StatusPending), string(models.StatusInProgress), string(models.StatusCompleted)},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loggedIn(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			task, err := a.store.ChangeStatus(cmd.Context(), id, models.Status(args[1]))
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now %s\n", task.ID, task.Status)
			return nil
		},
	}
}

func (a *app) editCommand() *cobra.Command {
	var title, description, due string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task's title, description or due date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loggedIn(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var patch client.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("due") {
				d, err := parseDay(due, time.Now())
				if err != nil {
					return err
				}
				patch.DueDate = &d
			}

			task, err := a.store.SaveTask(cmd.Context(), id, patch)
			if err != nil {
				return explain(err)
			}
			printTask(cmd.OutOrStdout(), task, time.Now())
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&due, "due", "", "new due date")
	return cmd
}

func (a *app) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loggedIn(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := a.store.DeleteTask(cmd.Context(), id); err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
			return nil
		},
	}
}

func printTasks(w io.Writer, tasks []models.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Title", "Due", "Status"})
	table.SetAutoWrapText(false)
	for _, t := range tasks {
		table.Append([]string{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			client.DueLabel(t.DueDate, now),
			string(t.Status),
		})
	}
	table.Render()
}

func printTask(w io.Writer, t *models.Task, now time.Time) {
	fmt.Fprintf(w, "#%d %s\n", t.ID, t.Title)
	fmt.Fprintf(w, "  Status:  %s\n", t.Status)
	fmt.Fprintf(w, "  Due:     %s (%s)\n", client.DueLabel(t.DueDate, now), t.DueDate)
	fmt.Fprintf(w, "  Created: %s\n", t.CreationDate.Local().Format(time.RFC1123))
	if t.Description != "" {
		fmt.Fprintf(w, "\n%s\n", t.Description)
	}
}

// parseDay accepts YYYY-MM-DD or a day relative to now.
func parseDay(s string, now time.Time) (models.Date, error) {
	today := models.DateOf(now)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDays(1), nil
	case "yesterday":
		return today.AddDays(-1), nil
	}
	return models.ParseDate(s)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func passwordOrEnv(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("DAILYTASKS_PASSWORD")
}

// explain turns a 404 into a friendlier message.
func explain(err error) error {
	if client.IsNotFound(err) {
		return errors.New("task not found")
	}
	return err
}
