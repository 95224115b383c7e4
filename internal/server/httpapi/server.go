// Package httpapi exposes the authentication and file catalog services over
// HTTP. Sessions travel in an HttpOnly cookie; every protected route resolves
// the cookie to a user before touching any data.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BharathKumarMurugan/cloud-drive/internal/logging"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/config"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/files"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/users"
)

// userSvc and fileSvc are the slices of the services the HTTP layer consumes.
type userSvc interface {
	CreateAccount(ctx context.Context, fullName, email string) (string, error)
	SignIn(ctx context.Context, email string) (string, error)
	ResendOtp(ctx context.Context, email string) error
	VerifyOtp(ctx context.Context, accountID, code string) (string, error)
	ResolveCurrentUser(ctx context.Context, secret string) (*users.User, error)
	SignOut(ctx context.Context, secret string) error
}

type fileSvc interface {
	Upload(ctx context.Context, owner *users.User, name string, content io.Reader, size int64) (*files.FileRecord, error)
	Get(ctx context.Context, user *users.User, fileID string) (*files.FileRecord, error)
	List(ctx context.Context, user *users.User, opts files.ListOptions) ([]*files.FileRecord, error)
	Rename(ctx context.Context, user *users.User, fileID string, newName string) error
	Share(ctx context.Context, user *users.User, fileID string, emails []string) error
	Delete(ctx context.Context, user *users.User, fileID string) error
	DownloadURL(ctx context.Context, user *users.User, fileID string) (string, error)
	Usage(ctx context.Context, ownerID string) (*files.UsageReport, error)
}

type Server struct {
	address         string
	logger          logging.Logger
	users           userSvc
	files           fileSvc
	cookieSecure    bool
	sessionValidity time.Duration
}

func NewServer(l logging.Logger, us *users.Service, fs *files.Service, cfg *config.Config) *Server {
	return &Server{
		address:         cfg.EndpointAddrHTTP,
		logger:          l.With("module", "http_server"),
		users:           us,
		files:           fs,
		cookieSecure:    cfg.CookieSecure,
		sessionValidity: cfg.SessionValidityDuration,
	}
}

// Router builds the route table. Split out from Run so tests can drive it
// through httptest without binding a socket.
func (s *Server) Router() *gin.Engine {

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/sign-up", s.signUp)
		authGroup.POST("/sign-in", s.signIn)
		authGroup.POST("/otp/resend", s.resendOtp)
		authGroup.POST("/otp/verify", s.verifyOtp)
		authGroup.POST("/sign-out", s.signOut)
	}

	apiGroup := r.Group("/api", s.requireUser)
	{
		apiGroup.GET("/me", s.currentUser)
		apiGroup.GET("/usage", s.usage)
		apiGroup.GET("/files", s.listFiles)
		apiGroup.POST("/files", s.uploadFile)
		apiGroup.GET("/files/:id", s.getFile)
		apiGroup.GET("/files/:id/download", s.downloadFile)
		apiGroup.PATCH("/files/:id/name", s.renameFile)
		apiGroup.PATCH("/files/:id/share", s.shareFile)
		apiGroup.DELETE("/files/:id", s.deleteFile)
	}

	return r
}

func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
