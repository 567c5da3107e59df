package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rryowa/taskmarket/internal/client"
	"github.com/rryowa/taskmarket/internal/migrations"
	"github.com/rryowa/taskmarket/internal/models"
	"github.com/rryowa/taskmarket/internal/query"
	"github.com/rryowa/taskmarket/internal/service"
	"github.com/rryowa/taskmarket/internal/session"
	"github.com/rryowa/taskmarket/internal/store"
	"github.com/rryowa/taskmarket/internal/store/file"
	"github.com/rryowa/taskmarket/internal/store/memory"
	pgstore "github.com/rryowa/taskmarket/internal/store/postgres"
	redisstore "github.com/rryowa/taskmarket/internal/store/redis"
	"github.com/rryowa/taskmarket/internal/util"

	_ "github.com/lib/pq"
)

type app struct {
	auth       *service.AuthService
	tasks      *service.TaskService
	categories *service.CategoryService
	chat       *service.ChatService
	log        *zap.SugaredLogger
}

func main() {
	ctx := context.Background()
	logger := util.NewZapLogger()

	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	apiConfig := util.NewAPIConfig()
	storeConfig := util.NewStoreConfig()

	credStore, cleanupFuncs, err := newStore(ctx, storeConfig, logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}

	sessionManager := session.NewManager(logger)
	apiClient := client.New(apiConfig, credStore, sessionManager, logger)

	a := &app{
		auth:       service.NewAuthService(apiClient, credStore, sessionManager, logger),
		tasks:      service.NewTaskService(apiClient, apiConfig.PageLimit, logger),
		categories: service.NewCategoryService(apiClient, logger),
		chat:       service.NewChatService(apiClient, logger),
		log:        logger,
	}

	runErr := a.run(ctx, args[0], args[1:])

	for _, cleanup := range cleanupFuncs {
		cleanup()
	}
	if runErr != nil {
		var respErr util.ResponseError
		if errors.As(runErr, &respErr) && len(respErr.Fields) > 0 {
			for field, msg := range respErr.Fields {
				logger.Errorw("validation error", "field", field, "message", msg)
			}
		}
		logger.Fatal(zap.Error(runErr))
	}
}

func newStore(ctx context.Context, cfg *util.StoreConfig, logger *zap.SugaredLogger) (store.Store, []func(), error) {
	switch cfg.Backend {
	case "file":
		s, err := file.New(cfg.Dir, logger)
		return s, nil, err
	case "memory":
		return memory.New(), nil, nil
	case "redis":
		redisClient, cleanup, err := util.NewRedisClient(ctx, logger, util.NewRedisConfig())
		if err != nil {
			return nil, nil, err
		}
		return redisstore.New(redisClient), []func(){cleanup}, nil
	case "postgres":
		db, cleanup, err := util.NewDBConnection(logger)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.RunMigrations(db, logger); err != nil {
			cleanup()
			return nil, nil, err
		}
		return pgstore.New(db), []func(){cleanup}, nil
	default:
		return nil, nil, fmt.Errorf("unknown TOKEN_STORE backend: %q", cfg.Backend)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "me":
		return a.me(ctx)
	case "tasks":
		return a.listTasks(ctx, args)
	case "task":
		return a.showTask(ctx, args)
	case "post":
		return a.postTask(ctx, args)
	case "offer":
		return a.makeOffer(ctx, args)
	case "categories":
		return a.listCategories(ctx)
	case "chats":
		return a.listChats(ctx)
	case "logout":
		return a.logout(ctx)
	default:
		usage()
		return fmt.Errorf("unknown command: %q", command)
	}
}

func (a *app) register(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("register", pflag.ExitOnError)
	name := flags.String("name", "", "display name")
	email := flags.String("email", "", "email address")
	password := flags.String("password", "", "password")
	if err := flags.Parse(args); err != nil {
		return err
	}

	profile, err := a.auth.Register(ctx, models.RegisterRequest{
		Name:            *name,
		Email:           *email,
		Password:        *password,
		ConfirmPassword: *password,
	})
	if err != nil {
		return err
	}

	a.log.Infow("registered", "email", *email)
	return printJSON(profile)
}

func (a *app) login(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("login", pflag.ExitOnError)
	email := flags.String("email", "", "email address")
	password := flags.String("password", "", "password")
	if err := flags.Parse(args); err != nil {
		return err
	}

	profile, err := a.auth.Login(ctx, *email, *password)
	if err != nil {
		return err
	}

	a.log.Infow("logged in", "email", *email)
	return printJSON(profile)
}

func (a *app) me(ctx context.Context) error {
	profile, err := a.auth.Me(ctx)
	if err != nil {
		return err
	}
	return printJSON(profile)
}

func (a *app) listTasks(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("tasks", pflag.ExitOnError)
	search := flags.String("search", "", "free-text search")
	status := flags.String("status", "", "task status filter")
	category := flags.String("category", "", "category slug")
	location := flags.String("location", "", "location filter")
	minPrice := flags.Float64("min-price", 0, "minimum budget")
	maxPrice := flags.Float64("max-price", 0, "maximum budget")
	sortBy := flags.String("sort", "", "sort key")
	tags := flags.StringSlice("tags", nil, "tag filters")
	pages := flags.Int("pages", 1, "number of pages to fetch")
	mine := flags.Bool("mine", false, "only my tasks")
	if err := flags.Parse(args); err != nil {
		return err
	}

	filters := query.Filters{
		Search:   *search,
		Status:   *status,
		Category: *category,
		Location: *location,
		MinPrice: *minPrice,
		MaxPrice: *maxPrice,
		SortBy:   *sortBy,
		Tags:     *tags,
	}

	pager := a.tasks.Pager(filters)
	if *mine {
		pager = a.tasks.MyTasksPager(filters)
	}

	for i := 0; i < *pages && pager.HasMore(); i++ {
		if _, err := pager.FetchNext(ctx); err != nil {
			if errors.Is(err, query.ErrNoMorePages) {
				break
			}
			return err
		}
	}

	items := pager.Items()
	for _, t := range items {
		fmt.Printf("%-8s %-10s %8.2f  %s\n", t.ID, t.Status, t.Budget, t.Title)
	}
	fmt.Printf("%d of %d tasks\n", len(items), pager.Total())
	return nil
}

func (a *app) showTask(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: task <id>")
	}
	detail, err := a.tasks.Get(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(detail)
}

func (a *app) postTask(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("post", pflag.ExitOnError)
	title := flags.String("title", "", "task title")
	description := flags.String("description", "", "task description")
	category := flags.String("category", "", "category slug")
	location := flags.String("location", "", "task location")
	budget := flags.Float64("budget", 0, "budget")
	tags := flags.StringSlice("tags", nil, "tags")
	if err := flags.Parse(args); err != nil {
		return err
	}

	task, err := a.tasks.Create(ctx, models.CreateTaskRequest{
		Title:       *title,
		Description: *description,
		Category:    *category,
		Location:    *location,
		Budget:      *budget,
		Tags:        *tags,
	})
	if err != nil {
		return err
	}

	a.log.Infow("task created")
	if task == nil {
		return nil
	}
	return printJSON(task)
}

func (a *app) makeOffer(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("offer", pflag.ExitOnError)
	taskID := flags.String("task", "", "task id")
	price := flags.Float64("price", 0, "offered price")
	description := flags.String("description", "", "offer description")
	estimated := flags.String("estimated-time", "", "estimated time")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *taskID == "" {
		return errors.New("--task is required")
	}

	offer, err := a.tasks.MakeOffer(ctx, *taskID, models.OfferRequest{
		Price:         *price,
		Description:   *description,
		EstimatedTime: *estimated,
	})
	if err != nil {
		return err
	}
	return printJSON(offer)
}

func (a *app) listCategories(ctx context.Context) error {
	categories, err := a.categories.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range categories {
		fmt.Printf("%-20s %s\n", c.Slug, c.Name)
	}
	return nil
}

func (a *app) listChats(ctx context.Context) error {
	conversations, err := a.chat.Conversations(ctx)
	if err != nil {
		return err
	}
	for _, conv := range conversations {
		fmt.Printf("%-8s [%d unread] %s: %s\n", conv.ID, conv.UnreadCount, conv.TaskTitle, conv.LastMessage)
	}
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.log.Info("logged out")
	return nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: taskmarket <command> [flags]

commands:
  register      create an account (--name --email --password)
  login         sign in (--email --password)
  me            show the current profile
  tasks         browse tasks (--search --status --category --pages --mine ...)
  task <id>     show one task
  post          post a task (--title --budget ...)
  offer         make an offer (--task --price ...)
  categories    list categories
  chats         list conversations
  logout        drop stored credentials`)
}
