package controllers_test

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/baro-studio/baro-api/controllers"
	"github.com/baro-studio/baro-api/utils"
)

func quoteRouter(send controllers.MailSender) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/quote", controllers.NewQuoteControllerWithSender(send).SendQuote)
	return r
}

func quoteForm(t *testing.T, fields map[string]string, attachment string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if attachment != "" {
		fw, err := mw.CreateFormFile("attachments", attachment)
		require.NoError(t, err)
		_, err = fw.Write([]byte("attachment data"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestSendQuoteRelaysMail(t *testing.T) {
	newTestEnv(t) // loads config with the quote recipient

	var gotTo, gotSubject, gotBody string
	var gotAtts []utils.Attachment
	r := quoteRouter(func(to, subject, body string, atts []utils.Attachment) error {
		gotTo, gotSubject, gotBody, gotAtts = to, subject, body, atts
		return nil
	})

	buf, contentType := quoteForm(t, map[string]string{
		"name":    "Kim Minsoo",
		"email":   "minsoo@example.com",
		"message": "Need a quote for 500 machined parts.",
		"company": "Acme Precision",
		"phone":   "010-1234-5678",
	}, "drawing.dwg")

	req := httptest.NewRequest(http.MethodPost, "/api/quote", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "sales@example.com", gotTo)
	require.Contains(t, gotSubject, "Kim Minsoo")
	require.Contains(t, gotBody, "minsoo@example.com")
	require.Contains(t, gotBody, "Acme Precision")
	require.Contains(t, gotBody, "Need a quote for 500 machined parts.")
	require.Len(t, gotAtts, 1)
	require.Equal(t, "drawing.dwg", gotAtts[0].Filename)
	require.Equal(t, []byte("attachment data"), gotAtts[0].Data)
}

func TestSendQuoteRequiresContactFields(t *testing.T) {
	newTestEnv(t)

	r := quoteRouter(func(to, subject, body string, atts []utils.Attachment) error {
		t.Fatal("mail must not be sent for an invalid form")
		return nil
	})

	buf, contentType := quoteForm(t, map[string]string{
		"name": "Kim Minsoo",
		// email and message missing
	}, "")

	req := httptest.NewRequest(http.MethodPost, "/api/quote", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "40051")
}

func TestSendQuoteReportsMailerFailure(t *testing.T) {
	newTestEnv(t)

	r := quoteRouter(func(to, subject, body string, atts []utils.Attachment) error {
		return errors.New("smtp unreachable")
	})

	buf, contentType := quoteForm(t, map[string]string{
		"name":    "Kim Minsoo",
		"email":   "minsoo@example.com",
		"message": "hello",
	}, "")

	req := httptest.NewRequest(http.MethodPost, "/api/quote", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "50051")
}
