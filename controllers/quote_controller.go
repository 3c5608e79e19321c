package controllers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/baro-studio/baro-api/config"
	"github.com/baro-studio/baro-api/utils"
)

// MailSender sends the quote email. Indirected so tests can capture the
// outgoing message instead of talking to an SMTP relay.
type MailSender func(to, subject, body string, attachments []utils.Attachment) error

// QuoteController relays quote-request form submissions by email. Nothing is
// persisted; the form fields and attachments go straight to the recipient.
type QuoteController struct {
	send MailSender
}

// NewQuoteController creates a QuoteController using the real mailer.
func NewQuoteController() *QuoteController {
	return &QuoteController{send: utils.SendMailWithAttachments}
}

// NewQuoteControllerWithSender creates a QuoteController with a custom sender.
func NewQuoteControllerWithSender(send MailSender) *QuoteController {
	return &QuoteController{send: send}
}

// SendQuote accepts a multipart form with contact fields plus optional file
// attachments and relays it to the configured recipient.
func (q *QuoteController) SendQuote(ctx *gin.Context) {
	cfg := config.Get()
	if cfg.QuoteRecipient == "" {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "quote recipient not configured")
		return
	}

	if err := ctx.Request.ParseMultipartForm(maxUploadSize); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid multipart form")
		return
	}

	name := strings.TrimSpace(ctx.PostForm("name"))
	email := strings.TrimSpace(ctx.PostForm("email"))
	message := strings.TrimSpace(ctx.PostForm("message"))
	company := strings.TrimSpace(ctx.PostForm("company"))
	phone := strings.TrimSpace(ctx.PostForm("phone"))

	if name == "" || email == "" || message == "" {
		utils.Error(ctx, http.StatusBadRequest, 40051, "name, email and message are required")
		return
	}

	var attachments []utils.Attachment
	if form := ctx.Request.MultipartForm; form != nil {
		for _, header := range form.File["attachments"] {
			if header.Size > maxUploadSize {
				utils.Error(ctx, http.StatusBadRequest, 40052, "attachment exceeds 50MB")
				return
			}
			f, err := header.Open()
			if err != nil {
				utils.Error(ctx, http.StatusBadRequest, 40053, "unreadable attachment")
				return
			}
			data, err := io.ReadAll(io.LimitReader(f, maxUploadSize))
			f.Close()
			if err != nil {
				utils.Error(ctx, http.StatusBadRequest, 40053, "unreadable attachment")
				return
			}
			attachments = append(attachments, utils.Attachment{
				Filename:    filepath.Base(header.Filename),
				ContentType: header.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}

	subject := fmt.Sprintf("[Quote Request] %s", name)
	var body strings.Builder
	fmt.Fprintf(&body, "Name: %s\n", name)
	fmt.Fprintf(&body, "Email: %s\n", email)
	if company != "" {
		fmt.Fprintf(&body, "Company: %s\n", company)
	}
	if phone != "" {
		fmt.Fprintf(&body, "Phone: %s\n", phone)
	}
	fmt.Fprintf(&body, "\n%s\n", message)

	if err := q.send(cfg.QuoteRecipient, subject, body.String(), attachments); err != nil {
		utils.Sugar.Errorf("quote mail failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to send quote request")
		return
	}

	utils.Success(ctx, gin.H{"message": "quote request sent"})
}
