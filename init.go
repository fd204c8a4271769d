package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"github.com/wansing/newsroom/auth"
	"github.com/wansing/newsroom/core"
	"github.com/wansing/newsroom/util"
	"golang.org/x/term"
)

const (
	colorFlag       = "color"
	descriptionFlag = "description"
	emailFlag       = "email"
	iconFlag        = "icon"
	nameFlag        = "name"
	orderFlag       = "order"
	roleFlag        = "role"
	slugFlag        = "slug"
)

var insertUserFlags = map[string]cobraflags.Flag{
	emailFlag: &cobraflags.StringFlag{
		Name:  emailFlag,
		Usage: "email address of the new user",
	},
	nameFlag: &cobraflags.StringFlag{
		Name:  nameFlag,
		Usage: "full name of the new user",
	},
	roleFlag: &cobraflags.StringFlag{
		Name:  roleFlag,
		Value: auth.Subscriber.String(),
		Usage: "role of the new user: " + roleNames(),
	},
}

var setRoleFlags = map[string]cobraflags.Flag{
	emailFlag: &cobraflags.StringFlag{
		Name:  emailFlag,
		Usage: "email address of the user",
	},
	roleFlag: &cobraflags.StringFlag{
		Name:  roleFlag,
		Usage: "new role: " + roleNames(),
	},
}

var insertCategoryFlags = map[string]cobraflags.Flag{
	nameFlag: &cobraflags.StringFlag{
		Name:  nameFlag,
		Usage: "name of the category",
	},
	slugFlag: &cobraflags.StringFlag{
		Name:  slugFlag,
		Usage: "url slug, derived from the name if empty",
	},
	descriptionFlag: &cobraflags.StringFlag{
		Name:  descriptionFlag,
		Usage: "description of the category",
	},
	colorFlag: &cobraflags.StringFlag{
		Name:  colorFlag,
		Value: "#3B82F6",
		Usage: "color code of the category",
	},
	iconFlag: &cobraflags.StringFlag{
		Name:  iconFlag,
		Usage: "icon name of the category",
	},
	orderFlag: &cobraflags.StringFlag{
		Name:  orderFlag,
		Value: "0",
		Usage: "sort order of the category",
	},
}

func roleNames() string {
	var names = []string{}
	for _, r := range auth.Roles() {
		names = append(names, r.String())
	}
	return strings.Join(names, ", ")
}

func newInitCommand() *cobra.Command {

	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Set up users and categories",
	}

	var insertUserCmd = &cobra.Command{
		Use:   "insert-user",
		Short: "Create a user, the password is read from the terminal",
		RunE:  insertUser,
	}
	registerFlags(insertUserCmd, insertUserFlags)

	var setRoleCmd = &cobra.Command{
		Use:   "set-role",
		Short: "Change the role of a user",
		RunE:  setRole,
	}
	registerFlags(setRoleCmd, setRoleFlags)

	var insertCategoryCmd = &cobra.Command{
		Use:   "insert-category",
		Short: "Create a category",
		RunE:  insertCategory,
	}
	registerFlags(insertCategoryCmd, insertCategoryFlags)

	initCmd.AddCommand(insertUserCmd, setRoleCmd, insertCategoryCmd)
	return initCmd
}

func readPassword() (string, error) {

	fmt.Printf("password: ")
	pass1, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("error reading password: %w", err)
	}

	fmt.Printf("repeat password: ")
	pass2, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("error reading password: %w", err)
	}

	if !bytes.Equal(pass1, pass2) {
		return "", errors.New("passwords don't match")
	}

	return string(pass1), nil
}

func insertUser(cmd *cobra.Command, args []string) error {

	var email = insertUserFlags[emailFlag].GetString()
	var name = insertUserFlags[nameFlag].GetString()

	if !util.IsValidEmail(email) {
		return fmt.Errorf("invalid email address: %q", email)
	}
	if name == "" {
		name = strings.Split(email, "@")[0]
	}

	role, err := auth.ParseRole(insertUserFlags[roleFlag].GetString())
	if err != nil {
		return err
	}

	password, err := readPassword()
	if err != nil {
		return err
	}
	if problems := util.ValidatePassword(password); len(problems) > 0 {
		return errors.New(strings.Join(problems, ", "))
	}

	db, sqlDB, err := openDB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var ctx = context.Background()

	user, err := db.InsertUser(ctx, email, password)
	if err != nil {
		return fmt.Errorf("error creating user %s: %w", email, err)
	}

	// created by an admin, so we trust the address
	if err := db.SetEmailVerified(ctx, user.ID, true); err != nil {
		return err
	}

	var now = time.Now()
	if err := db.InsertProfile(ctx, &auth.Profile{
		UserID:        user.ID,
		FullName:      name,
		Role:          role,
		IsActive:      true,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}); err != nil {
		return fmt.Errorf("error creating profile: %w", err)
	}

	slog.Info("user created", "email", user.Email, "role", role.String())
	return nil
}

func setRole(cmd *cobra.Command, args []string) error {

	role, err := auth.ParseRole(setRoleFlags[roleFlag].GetString())
	if err != nil {
		return err
	}

	db, sqlDB, err := openDB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var ctx = context.Background()

	user, err := db.GetUserByEmail(ctx, setRoleFlags[emailFlag].GetString())
	if err != nil {
		return fmt.Errorf("error getting user: %w", err)
	}

	if err := db.ProfileDB.SetRole(ctx, user.ID, role); err != nil {
		return fmt.Errorf("error setting role: %w", err)
	}

	slog.Info("role changed", "email", user.Email, "role", role.String())
	return nil
}

func insertCategory(cmd *cobra.Command, args []string) error {

	var name = strings.TrimSpace(insertCategoryFlags[nameFlag].GetString())
	if name == "" {
		return errors.New("missing category name")
	}

	var slug = insertCategoryFlags[slugFlag].GetString()
	if slug == "" {
		slug = util.Slugify(name)
	}

	order, err := strconv.Atoi(insertCategoryFlags[orderFlag].GetString())
	if err != nil {
		return fmt.Errorf("invalid sort order: %w", err)
	}

	db, sqlDB, err := openDB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var category = &core.Category{
		Name:        name,
		Slug:        slug,
		Description: insertCategoryFlags[descriptionFlag].GetString(),
		ColorCode:   insertCategoryFlags[colorFlag].GetString(),
		Icon:        insertCategoryFlags[iconFlag].GetString(),
		SortOrder:   order,
		IsActive:    true,
	}

	if err := db.InsertCategory(context.Background(), category); err != nil {
		return fmt.Errorf("error creating category: %w", err)
	}

	slog.Info("category created", "name", category.Name, "slug", category.Slug)
	return nil
}
