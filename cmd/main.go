package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/classboard/classboard-cli/internal/api"
	"github.com/classboard/classboard-cli/internal/models"
	"github.com/classboard/classboard-cli/internal/realtime"
	"github.com/classboard/classboard-cli/internal/service"
	"github.com/classboard/classboard-cli/internal/session"
	"github.com/classboard/classboard-cli/internal/storage/file"
	"github.com/classboard/classboard-cli/internal/util"
)

var readPasswordFunc = term.ReadPassword // mockable

type app struct {
	auth        *service.AuthService
	store       *session.Store
	classes     *api.ClassService
	homeworks   *api.HomeworkService
	submissions *api.SubmissionService
	users       *api.UserService
	files       *api.FileService
	rtCfg       *util.RealtimeConfig
	log         *zap.SugaredLogger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := util.NewZapLogger()
	defer logger.Sync() //nolint:errcheck

	clientCfg := util.NewClientConfig()
	sessionCfg := util.NewSessionConfig()

	store := session.NewStore(logger)
	profiles := file.NewProfileRepository(sessionCfg.ProfilePath, logger)

	// All clients share one jar so the http-only refresh cookie follows
	// login, refresh and logout alike.
	jar, err := cookiejar.New(nil)
	if err != nil {
		logger.Fatalw("Failed to create cookie jar", "error", err)
	}

	rawHTTP := &http.Client{Timeout: clientCfg.APITimeout, Jar: jar}
	rawClient := api.NewClient(clientCfg.BaseURL, rawHTTP, rawHTTP, logger)

	tokenService := service.NewTokenService(rawClient, store, sessionCfg, logger)

	authTransport := api.NewAuthTransport(nil, store, tokenService, logger)
	authHTTP := &http.Client{Timeout: clientCfg.APITimeout, Jar: jar, Transport: authTransport}
	fileHTTP := &http.Client{Timeout: clientCfg.FileTimeout, Jar: jar, Transport: authTransport}
	client := api.NewClient(clientCfg.BaseURL, authHTTP, fileHTTP, logger)

	authService := service.NewAuthService(client, tokenService, store, profiles, logger)

	scheduler := service.NewRefreshScheduler(tokenService, store, sessionCfg, logger)
	scheduler.Start()
	defer scheduler.Stop()

	a := &app{
		auth:        authService,
		store:       store,
		classes:     api.NewClassService(client),
		homeworks:   api.NewHomeworkService(client),
		submissions: api.NewSubmissionService(client),
		users:       api.NewUserService(client),
		files:       api.NewFileService(client),
		rtCfg:       util.NewRealtimeConfig(),
		log:         logger,
	}

	if err := a.run(ctx, os.Args); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		a.printUsage()
		return errors.New("no command given")
	}

	// Every command except login starts with the silent rehydration.
	cmd := args[1]
	if cmd != "login" {
		if err := a.auth.InitAuth(ctx); err != nil {
			return err
		}
	}

	switch cmd {
	case "login":
		return a.login(ctx, args[2:])
	case "logout":
		a.auth.Logout(ctx)
		return nil
	case "whoami":
		return a.whoami()
	case "classes":
		return a.listClasses(ctx)
	case "join":
		return a.joinClass(ctx, args[2:])
	case "homework":
		return a.listHomework(ctx, args[2:])
	case "submit":
		return a.submit(ctx, args[2:])
	case "download":
		return a.download(ctx, args[2:])
	case "dashboard":
		return a.dashboard(ctx)
	case "watch":
		return a.watch(ctx)
	default:
		a.printUsage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func (a *app) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  login -u USERNAME            - log in (password prompted)")
	fmt.Println("  logout                       - log out and clear local state")
	fmt.Println("  whoami                       - show the current user")
	fmt.Println("  classes                      - list your classes")
	fmt.Println("  join CODE                    - join a class by invite code")
	fmt.Println("  homework CLASS_ID            - list homework of a class")
	fmt.Println("  submit HOMEWORK_ID [TEXT] [-f FILE]")
	fmt.Println("                               - submit homework content, optionally with a file")
	fmt.Println("  download FILE_ID [OUT]       - download an attachment")
	fmt.Println("  dashboard                    - overview of classes and homework")
	fmt.Println("  watch                        - stream realtime notifications")
}

func (a *app) login(ctx context.Context, args []string) error {
	loginCmd := flag.NewFlagSet("login", flag.ExitOnError)
	username := loginCmd.String("u", "", "username")
	if err := loginCmd.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		loginCmd.Usage()
		return errors.New("username required")
	}

	fmt.Print("Enter password: ")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return err
	}

	user, err := a.auth.Login(ctx, models.LoginRequest{Username: *username, Password: string(pwd)})
	if err != nil {
		return err
	}

	fmt.Printf("Welcome, %s (%s)\n", user.Name(), user.Role)
	return nil
}

func (a *app) whoami() error {
	user := a.store.CurrentUser()
	if user == nil {
		return errors.New("not logged in")
	}
	fmt.Printf("%s (%s, %s)\n", user.Name(), user.Username, user.Role)
	return nil
}

func (a *app) listClasses(ctx context.Context) error {
	resp, err := a.classes.List(ctx, models.ListParams{})
	if err != nil {
		return err
	}
	for _, c := range resp.Items {
		fmt.Printf("%-12s  %-30s  %d members\n", c.ID, c.Name, c.MemberCount)
	}
	return nil
}

func (a *app) joinClass(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("invite code required")
	}
	class, err := a.classes.Join(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Joined %s\n", class.Name)
	return nil
}

func (a *app) listHomework(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("class id required")
	}
	resp, err := a.homeworks.List(ctx, args[0], "", models.ListParams{})
	if err != nil {
		return err
	}
	for _, hw := range resp.Items {
		deadline := "no deadline"
		if hw.Deadline != nil {
			deadline = hw.Deadline.Format("2006-01-02 15:04")
		}
		status := "-"
		if hw.MySubmission != nil {
			status = hw.MySubmission.Status
		}
		fmt.Printf("%-12s  %-30s  due %-17s  %s\n", hw.ID, hw.Title, deadline, status)
	}
	return nil
}

func (a *app) submit(ctx context.Context, args []string) error {
	var homeworkID, content, filePath string
	for i := 0; i < len(args); i++ {
		if args[i] == "-f" {
			if i+1 >= len(args) {
				return errors.New("-f requires a file path")
			}
			i++
			filePath = args[i]
			continue
		}
		if homeworkID == "" {
			homeworkID = args[i]
		} else {
			content = args[i]
		}
	}
	if homeworkID == "" {
		return errors.New("homework id required")
	}

	req := models.SubmitHomeworkRequest{Content: content}
	if filePath != "" {
		f, err := os.Open(filePath)
		if err != nil {
			return err
		}
		defer f.Close()

		info, err := a.files.Upload(ctx, filepath.Base(filePath), f)
		if err != nil {
			return err
		}
		req.Attachments = []string{info.ID}
	}

	sub, err := a.submissions.Submit(ctx, homeworkID, req)
	if err != nil {
		return err
	}
	fmt.Printf("Submitted (version %d, status %s)\n", sub.Version, sub.Status)
	return nil
}

func (a *app) download(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("file id required")
	}
	out := args[0]
	if len(args) > 1 {
		out = args[1]
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := a.files.Download(ctx, args[0], f); err != nil {
		os.Remove(out)
		return err
	}
	fmt.Printf("Saved %s\n", out)
	return nil
}

// dashboard fetches classes and the user profile concurrently and then the
// homework of every class.
func (a *app) dashboard(ctx context.Context) error {
	var (
		classResp *models.ClassListResponse
		me        *models.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		classResp, err = a.classes.List(gctx, models.ListParams{})
		return err
	})
	g.Go(func() error {
		var err error
		me, err = a.users.Me(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("%s, %d classes\n\n", me.Name(), len(classResp.Items))

	for _, c := range classResp.Items {
		hw, err := a.homeworks.List(ctx, c.ID, "", models.ListParams{PageSize: 5})
		if err != nil {
			return err
		}
		fmt.Printf("%s:\n", c.Name)
		for _, h := range hw.Items {
			fmt.Printf("  - %s\n", h.Title)
		}
	}
	return nil
}

func (a *app) watch(ctx context.Context) error {
	rt := realtime.NewClient(a.rtCfg, a.store, func(msg realtime.Message) {
		fmt.Printf("[%s] %s %s\n", msg.Timestamp, msg.Type, string(msg.Payload))
	}, a.log)
	return rt.Run(ctx)
}
