package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BharathKumarMurugan/cloud-drive/internal/common"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/files"
)

func (s *Server) signUp(c *gin.Context) {
	var input struct {
		FullName string `json:"fullName" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accountID, err := s.users.CreateAccount(c.Request.Context(), input.FullName, input.Email)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accountId": accountID})
}

func (s *Server) signIn(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accountID, err := s.users.SignIn(c.Request.Context(), input.Email)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accountId": accountID})
}

func (s *Server) resendOtp(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.users.ResendOtp(c.Request.Context(), input.Email); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

func (s *Server) verifyOtp(c *gin.Context) {
	var input struct {
		AccountID string `json:"accountId" binding:"required"`
		Code      string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	secret, err := s.users.VerifyOtp(c.Request.Context(), input.AccountID, input.Code)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.setSessionCookie(c, secret)
	c.JSON(http.StatusOK, gin.H{"accountId": input.AccountID})
}

// signOut revokes the session and clears the cookie. It redirects even when
// revocation fails upstream: the browser's copy of the secret is gone either
// way.
func (s *Server) signOut(c *gin.Context) {

	secret, _ := c.Cookie(common.SessionCookieName)
	if secret != "" {
		_ = s.users.SignOut(c.Request.Context(), secret)
	}

	s.clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/auth/sign-in")
}

func (s *Server) currentUser(c *gin.Context) {
	c.JSON(http.StatusOK, sessionUser(c))
}

func (s *Server) listFiles(c *gin.Context) {

	opts := files.ListOptions{
		Search: c.Query("search"),
		Sort:   files.ParseSort(c.Query("sort")),
	}

	if raw := c.Query("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if cat, ok := files.ParseCategory(strings.TrimSpace(t)); ok {
				opts.Types = append(opts.Types, cat)
			}
		}
	}

	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			opts.Limit = n
		}
	}

	records, err := s.files.List(c.Request.Context(), sessionUser(c), opts)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if records == nil {
		records = []*files.FileRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"files": records})
}

func (s *Server) uploadFile(c *gin.Context) {

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}

	src, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer src.Close()

	record, err := s.files.Upload(c.Request.Context(), sessionUser(c), header.Filename, src, header.Size)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (s *Server) getFile(c *gin.Context) {
	record, err := s.files.Get(c.Request.Context(), sessionUser(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) downloadFile(c *gin.Context) {
	url, err := s.files.DownloadURL(c.Request.Context(), sessionUser(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (s *Server) renameFile(c *gin.Context) {
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.files.Rename(c.Request.Context(), sessionUser(c), c.Param("id"), input.Name); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "renamed"})
}

func (s *Server) shareFile(c *gin.Context) {
	var input struct {
		Emails []string `json:"emails" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.files.Share(c.Request.Context(), sessionUser(c), c.Param("id"), input.Emails); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "shared"})
}

func (s *Server) deleteFile(c *gin.Context) {
	if err := s.files.Delete(c.Request.Context(), sessionUser(c), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) usage(c *gin.Context) {
	report, err := s.files.Usage(c.Request.Context(), sessionUser(c).ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrorForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, common.ErrInvalidOtp):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
	case errors.Is(err, common.ErrOtpDispatch):
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not send code"})
	default:
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
