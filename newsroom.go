package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-extras/cobraflags"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wansing/newsroom/auth"
	"github.com/wansing/newsroom/backend"
	"github.com/wansing/newsroom/core"
	"github.com/wansing/newsroom/filestore"
	"github.com/wansing/newsroom/frontend"
	"github.com/wansing/newsroom/sqldb"
	"github.com/wansing/newsroom/sqldb/mysql"
	"github.com/wansing/newsroom/sqldb/sqlite3"
	"github.com/wansing/newsroom/util"
	"github.com/xo/dburl"
)

const (
	baseFlag           = "base"
	dbFlag             = "db"
	listenFlag         = "listen"
	logLevelFlag       = "log-level"
	profileTimeoutFlag = "profile-timeout"
	rolesFlag          = "roles"
	uploadsFlag        = "uploads"
)

// global flags, bound to viper
var globalFlags = map[string]cobraflags.Flag{
	// MySQL: collation should be utf8mb4_unicode_ci
	dbFlag: &cobraflags.StringFlag{
		Name:  dbFlag,
		Value: "sqlite3:newsroom.sqlite3?_busy_timeout=10000&_journal=WAL&_sync=NORMAL&cache=shared",
		Usage: "sql database url, see github.com/xo/dburl",
	},
	logLevelFlag: &cobraflags.StringFlag{
		Name:  logLevelFlag,
		Value: "info",
		Usage: "log level (debug, info, warn, error)",
	},
	rolesFlag: &cobraflags.StringFlag{
		Name:  rolesFlag,
		Value: "roles.ini",
		Usage: "ini file with the fallback role policy",
	},
	uploadsFlag: &cobraflags.StringFlag{
		Name:  uploadsFlag,
		Value: "uploads",
		Usage: "directory for uploaded images",
	},
}

var serveFlags = map[string]cobraflags.Flag{
	// Your reverse proxy must not strip the prefix. So if you're using nginx, the "proxy_pass" value should not end with a slash.
	baseFlag: &cobraflags.StringFlag{
		Name:  baseFlag,
		Value: "",
		Usage: "strip off this prefix from every HTTP request and prepend it to every link",
	},
	listenFlag: &cobraflags.StringFlag{
		Name:  listenFlag,
		Value: "127.0.0.1:8080",
		Usage: "serve HTTP content at this ip:port",
	},
	profileTimeoutFlag: &cobraflags.StringFlag{
		Name:  profileTimeoutFlag,
		Value: auth.DefaultProfileTimeout.String(),
		Usage: "how long to wait for a user profile before a fallback profile is used",
	},
}

// registerFlags registers the global flags and the given command-specific flags.
func registerFlags(cmd *cobra.Command, flags map[string]cobraflags.Flag) {
	cobraflags.RegisterMap(cmd, globalFlags)
	if flags != nil {
		cobraflags.RegisterMap(cmd, flags)
	}
}

func bindFlags(cmd *cobra.Command, flags map[string]cobraflags.Flag) error {
	for name := range flags {
		if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

func initConfig() error {

	viper.SetEnvPrefix("NEWSROOM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("newsroom")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString(logLevelFlag))); err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func main() {

	var rootCmd = &cobra.Command{
		Use:           "newsroom",
		Short:         "News portal with an editorial workflow",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, globalFlags); err != nil {
				return err
			}
			return initConfig()
		},
	}

	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the site and the admin panel",
		RunE:  serve,
	}
	registerFlags(serveCmd, serveFlags)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newInitCommand())
	rootCmd.RunE = serve // serve is the default
	registerFlags(rootCmd, serveFlags)

	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

// openDB opens the database and assembles the CoreDB. The caller must close the sql.DB.
func openDB() (*core.CoreDB, *sql.DB, error) {

	dbURL, err := dburl.Parse(viper.GetString(dbFlag))
	if err != nil {
		return nil, nil, fmt.Errorf("could not parse database url: %w", err)
	}

	sqlDB, err := sql.Open(dbURL.Driver, dbURL.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open sql database: %w", err)
	}

	if err = sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("could not ping sql database: %w", err)
	}

	slog.Info("using database", "driver", dbURL.Driver)

	var sessionStore scs.Store
	switch dbURL.Driver {
	case "mysql":
		sessionStore = mysql.NewSessionStore(sqlDB)
	case "sqlite3":
		sessionStore = sqlite3.NewSessionStore(sqlDB)
	default:
		sqlDB.Close()
		return nil, nil, fmt.Errorf("unknown database backend: %s", dbURL.Driver)
	}

	policy, err := auth.LoadFallbackPolicy(viper.GetString(rolesFlag))
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	db := &core.CoreDB{
		FallbackPolicy: policy,
		ProfileTimeout: viper.GetDuration(profileTimeoutFlag),
		Uploads:        &filestore.Store{UploadDir: viper.GetString(uploadsFlag)},
		Logger:         slog.Default(),
	}

	if err := db.Init(sessionStore, base()); err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	// order matters because of foreign tables in prepared statements
	db.UserDB = sqldb.NewUserDB(sqlDB)
	db.ProfileDB = sqldb.NewProfileDB(sqlDB)
	db.CategoryDB = sqldb.NewCategoryDB(sqlDB)
	db.ArticleDB = sqldb.NewArticleDB(sqlDB)
	db.AnalyticsDB = sqldb.NewAnalyticsDB(sqlDB)

	return db, sqlDB, nil
}

// base returns the url prefix with a leading slash and without a trailing slash, or the empty string.
func base() string {
	var b = strings.Trim(viper.GetString(baseFlag), "/")
	if b != "" {
		b = "/" + b
	}
	return b
}

func serve(cmd *cobra.Command, args []string) error {

	if err := bindFlags(cmd, serveFlags); err != nil {
		return err
	}

	db, sqlDB, err := openDB()
	if err != nil {
		return err
	}
	defer func() {
		slog.Info("closing database")
		sqlDB.Close()
	}()

	return listen(db, viper.GetString(listenFlag), base())
}

// publishScheduled runs CoreDB.PublishScheduled now and then every interval until ctx is done. It calls wg.Done when it returns.
func publishScheduled(ctx context.Context, db *core.CoreDB, interval time.Duration, wg *sync.WaitGroup) {
	defer wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	db.PublishScheduled(ctx)
	for {
		select {
		case <-ticker.C:
			db.PublishScheduled(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func listen(db *core.CoreDB, addr string, base string) error {

	// golang mux recovers from panics, so the program won't crash

	var mux = http.NewServeMux()
	var waitingControllers sync.WaitGroup

	var wait = func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			waitingControllers.Add(1)
			defer waitingControllers.Done()
			h.ServeHTTP(w, req)
		})
	}

	util.HandlePrefix(mux, base+"/assets", http.FileServer(http.Dir("assets")))
	util.HandlePrefix(mux, base+"/uploads", db.Uploads)
	util.HandlePrefix(mux, base+"/admin", wait(backend.NewBackendRouter(db, base)))
	util.HandlePrefix(mux, base, wait(frontend.NewRouter(db, base)))

	// listener and listen

	sigintChannel := make(chan os.Signal, 1)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	slog.Info("listening", "addr", addr)

	httpSrv := &http.Server{
		Handler:      db.SessionManager.LoadAndSave(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := httpSrv.Serve(listener); err != nil {

			// don't panic, we want a graceful shutdown
			if err != http.ErrServerClosed {
				slog.Error("error listening", "err", err)
			}

			// ensure graceful shutdown
			sigintChannel <- os.Interrupt
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	waitingControllers.Add(1)
	go publishScheduled(ctx, db, time.Minute, &waitingControllers)

	// graceful shutdown

	signal.Notify(sigintChannel, os.Interrupt, syscall.SIGTERM) // SIGINT (Interrupt) or SIGTERM
	<-sigintChannel

	slog.Info("shutting down")
	cancel()
	httpSrv.Close()

	waitingControllers.Wait()
	return nil
}
