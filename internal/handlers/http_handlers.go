package handlers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"segredex/internal/derangement"
	"segredex/internal/linkcodec"
	"segredex/internal/models"
	"segredex/internal/services"
)

// HTTPHandler holds the dependencies for the HTTP handlers, like the draw service.
type HTTPHandler struct {
	service   *services.DrawService
	templates *template.Template
	baseURL   string
}

// NewHTTPHandler creates a new HTTPHandler. An empty baseURL makes links
// point back at the host the draw was requested from.
func NewHTTPHandler(service *services.DrawService, templates *template.Template, baseURL string) *HTTPHandler {
	return &HTTPHandler{
		service:   service,
		templates: templates,
		baseURL:   baseURL,
	}
}

// linkView is a share link as shown on the links page.
type linkView struct {
	Name     string
	URL      string
	WhatsApp string
}

// renderPage is a helper to perform a two-step template rendering.
// It first executes the content template into a buffer, then executes the main
// layout template, passing the rendered content as a variable.
func (h *HTTPHandler) renderPage(c *gin.Context, status int, pageData gin.H, contentTmpl string) {
	buf := new(bytes.Buffer)
	if err := h.templates.ExecuteTemplate(buf, contentTmpl, pageData); err != nil {
		logger.Errorf("Error executing content template %s: %v", contentTmpl, err)
		c.String(http.StatusInternalServerError, "Template rendering error")
		return
	}

	pageData["PageContent"] = template.HTML(buf.String())

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(c.Writer, "layout.html", pageData); err != nil {
		logger.Errorf("Error executing layout template: %v", err)
	}
}

// RegisterPublicRoutes registers routes that need no browser session.
func (h *HTTPHandler) RegisterPublicRoutes(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.POST("/api/reveal", h.RevealJSON)
}

// RegisterTenantRoutes registers routes scoped to a browser session.
func (h *HTTPHandler) RegisterTenantRoutes(router gin.IRoutes) {
	router.GET("/", h.ShowIndex)
	router.POST("/draw", h.PerformDraw)
	router.POST("/reset", h.ResetDraw)
	router.GET("/export-links-csv", h.ExportLinksCSV)

	router.GET("/api/draws", h.GetDrawJSON)
	router.POST("/api/draws", h.CreateDrawJSON)
	router.DELETE("/api/draws", h.ResetDrawJSON)
}

// ShowIndex shows the viewer page when the request carries a share link,
// the links of the session's draw when there is one, and the admin form
// otherwise.
func (h *HTTPHandler) ShowIndex(c *gin.Context) {
	query := c.Request.URL.Query()
	if query.Has(linkcodec.ParamGiver) && query.Has(linkcodec.ParamToken) {
		h.showReveal(c, query.Get(linkcodec.ParamGiver), query.Get(linkcodec.ParamToken))
		return
	}

	result, err := h.service.Results(c.Request.Context(), sessionID(c))
	switch {
	case err == nil:
		h.renderPage(c, http.StatusOK, gin.H{"title": "Draw links", "Links": linkViews(result)}, "links.html")
	case errors.Is(err, services.ErrNoDraw):
		h.renderPage(c, http.StatusOK, gin.H{"title": "Secret Santa"}, "index.html")
	default:
		logger.Errorf("Error loading draw: %v", err)
		h.renderPage(c, http.StatusInternalServerError, gin.H{"title": "Secret Santa", "Error": "Could not load the current draw."}, "index.html")
	}
}

func (h *HTTPHandler) showReveal(c *gin.Context, giver, token string) {
	receiver, err := h.service.Reveal(giver, token)
	if err != nil {
		h.renderPage(c, http.StatusUnprocessableEntity, gin.H{"title": "Invalid link"}, "invalid.html")
		return
	}
	h.renderPage(c, http.StatusOK, gin.H{"title": "Your Secret Santa", "Giver": giver, "Receiver": receiver}, "viewer.html")
}

// PerformDraw handles the admin form: names from the textarea, or from the
// first column of an uploaded CSV when one is attached.
func (h *HTTPHandler) PerformDraw(c *gin.Context) {
	rawNames := c.PostForm("names")
	names := services.ParseNames(rawNames)

	if file, _, err := c.Request.FormFile("participantCSV"); err == nil {
		defer file.Close()
		names, err = readNamesCSV(file)
		if err != nil {
			h.renderPage(c, http.StatusBadRequest, gin.H{"title": "Secret Santa", "Names": rawNames, "Error": "Error reading CSV: " + err.Error()}, "index.html")
			return
		}
	}

	if _, err := h.service.Draw(c.Request.Context(), sessionID(c), names, h.linkBase(c)); err != nil {
		status, msg := drawErrorMessage(err)
		h.renderPage(c, status, gin.H{"title": "Secret Santa", "Names": rawNames, "Error": msg}, "index.html")
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// ResetDraw clears the session's draw.
func (h *HTTPHandler) ResetDraw(c *gin.Context) {
	if err := h.service.Reset(c.Request.Context(), sessionID(c)); err != nil {
		logger.Errorf("Error resetting draw: %v", err)
		c.String(http.StatusInternalServerError, "Could not reset the draw")
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// ExportLinksCSV handles the request to download the share links as a CSV file.
func (h *HTTPHandler) ExportLinksCSV(c *gin.Context) {
	result, err := h.service.Results(c.Request.Context(), sessionID(c))
	if err != nil {
		c.String(http.StatusNotFound, "No draw to export")
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment;filename=secret_santa_links.csv")

	// Add BOM to ensure UTF-8 compatibility in Excel
	c.Writer.Write([]byte("\xef\xbb\xbf"))

	w := csv.NewWriter(c.Writer)
	if err := w.Write([]string{"Participant", "Link"}); err != nil {
		logger.Errorf("Error writing CSV header: %v", err)
		return
	}
	for _, link := range result.Links {
		if err := w.Write([]string{link.Giver.Name, link.URL}); err != nil {
			logger.Errorf("Error writing CSV row: %v", err)
			return
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		logger.Errorf("Error flushing CSV writer: %v", err)
	}
}

type createDrawRequest struct {
	Names []string `json:"names" binding:"required"`
}

type revealRequest struct {
	Giver string `json:"u"`
	Token string `json:"k" binding:"required"`
}

// CreateDrawJSON runs a draw from a JSON list of names.
func (h *HTTPHandler) CreateDrawJSON(c *gin.Context) {
	var req createDrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "names are required"})
		return
	}

	names := make([]string, 0, len(req.Names))
	for _, n := range req.Names {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}

	result, err := h.service.Draw(c.Request.Context(), sessionID(c), names, h.linkBase(c))
	if err != nil {
		status, msg := drawErrorMessage(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetDrawJSON returns the session's draw.
func (h *HTTPHandler) GetDrawJSON(c *gin.Context) {
	result, err := h.service.Results(c.Request.Context(), sessionID(c))
	if errors.Is(err, services.ErrNoDraw) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no draw in this session"})
		return
	}
	if err != nil {
		logger.Errorf("Error loading draw: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load the draw"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ResetDrawJSON clears the session's draw.
func (h *HTTPHandler) ResetDrawJSON(c *gin.Context) {
	if err := h.service.Reset(c.Request.Context(), sessionID(c)); err != nil {
		logger.Errorf("Error resetting draw: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reset the draw"})
		return
	}
	c.Status(http.StatusNoContent)
}

// RevealJSON decodes one share link.
func (h *HTTPHandler) RevealJSON(c *gin.Context) {
	var req revealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "u and k are required"})
		return
	}
	receiver, err := h.service.Reveal(req.Giver, req.Token)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid or tampered link"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"giver": req.Giver, "receiver": receiver})
}

// linkBase is the configured public URL, or the origin and path of the
// current request.
func (h *HTTPHandler) linkBase(c *gin.Context) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + "/"
}

func drawErrorMessage(err error) (int, string) {
	var dup *derangement.DuplicateParticipantError
	switch {
	case errors.Is(err, derangement.ErrInsufficientParticipants):
		return http.StatusUnprocessableEntity, "Enter at least 3 participants."
	case errors.As(err, &dup):
		return http.StatusUnprocessableEntity, fmt.Sprintf("The list has duplicate names: %s.", dup.Name)
	case errors.Is(err, derangement.ErrEmptyParticipant):
		return http.StatusUnprocessableEntity, "Participant names cannot be empty."
	case errors.Is(err, derangement.ErrDerangementUnsatisfiable):
		logger.Warningf("Draw failed: %v", err)
		return http.StatusInternalServerError, "The draw could not be completed, please try again."
	default:
		logger.Errorf("Draw failed: %v", err)
		return http.StatusInternalServerError, "Error generating the draw."
	}
}

func readNamesCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	var names []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) == 0 {
			continue
		}
		if name := strings.TrimSpace(record[0]); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func linkViews(result *models.DrawResult) []linkView {
	views := make([]linkView, len(result.Links))
	for i, link := range result.Links {
		views[i] = linkView{
			Name:     link.Giver.Name,
			URL:      link.URL,
			WhatsApp: whatsAppURL(link.Giver.Name, link.URL),
		}
	}
	return views
}

func whatsAppURL(name, link string) string {
	msg := fmt.Sprintf("Hi %s! 🎁\n\nOpen this link to find out who you drew for Secret Santa:\n%s", name, link)
	return "https://wa.me/?text=" + strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
}
