// Package server initializes and runs the application server. It wires the
// database, the blob storage backend, the OTP mailer and the HTTP endpoint,
// and handles graceful shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/BharathKumarMurugan/cloud-drive/internal/logging"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/blob"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/config"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/files"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/httpapi"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/otp"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/shared/db"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/users"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	userService *users.Service
	fileService *files.Service
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	m, err := db.NewPostgresRepositoryManager(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	storage, err := blob.NewS3Storage(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	mailer := otp.NewSMTPMailer(c.SMTPAddr, c.SMTPFrom)
	issuer := otp.NewPostgresIssuer(m.Conn(), mailer, c.OtpValidityDuration)

	us := users.NewService(m.Users(), m.Sessions(), issuer, logger, c)
	fs := files.NewService(m.Files(), storage, logger)

	return &App{config: c, logger: logger, userService: us, fileService: fs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.logger, app.userService, app.fileService, app.config)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
}
