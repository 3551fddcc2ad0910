package main

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mudler/xlog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shadow7/omnichunk/pkg/chunk"
	"github.com/shadow7/omnichunk/pkg/config"
	"github.com/shadow7/omnichunk/pkg/intake"
	"github.com/shadow7/omnichunk/pkg/metrics"
)

func newServer(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validator: validator.New()}
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/api/health", health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/api/chunks/split", split(cfg))
	e.POST("/api/chunks/merge", merge)
	e.POST("/api/chunks/validate", validate(cfg))
	e.POST("/api/words/count", countWords)
	e.POST("/api/manuscripts/intake", intakeManuscript(cfg))

	return e
}

func startAPI(cfg *config.Config) {
	e := newServer(cfg)
	xlog.Info("Starting API", "address", cfg.ListenAddress)
	e.Logger.Fatal(e.Start(cfg.ListenAddress))
}

type requestValidator struct {
	validator *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	return v.validator.Struct(i)
}

func errorMessage(message string) map[string]string {
	return map[string]string{"error": message}
}

func health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// split handles splitting a text into chunks. Sizes left out of the request
// fall back to the configured ones.
func split(cfg *config.Config) func(c echo.Context) error {
	return func(c echo.Context) error {
		type request struct {
			Text         string `json:"text"`
			MaxChunkSize *int   `json:"max_chunk_size" validate:"omitempty,gt=0"`
			OverlapSize  *int   `json:"overlap_size" validate:"omitempty,gte=0"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}
		if err := c.Validate(r); err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage(err.Error()))
		}

		maxChunkSize, overlapSize := cfg.MaxChunkSize, cfg.OverlapSize
		if r.MaxChunkSize != nil {
			maxChunkSize = *r.MaxChunkSize
		}
		if r.OverlapSize != nil {
			overlapSize = *r.OverlapSize
		}

		chunks, err := chunk.Split(r.Text, maxChunkSize, overlapSize)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage(err.Error()))
		}

		metrics.SplitInputSize.Observe(float64(utf8.RuneCountInString(r.Text)))
		metrics.ChunksProduced.Observe(float64(len(chunks)))
		xlog.Debug("Split text", "chunks", len(chunks), "max_chunk_size", maxChunkSize, "overlap_size", overlapSize)

		return c.JSON(http.StatusOK, chunks)
	}
}

func merge(c echo.Context) error {
	type request struct {
		Chunks []string `json:"chunks"`
	}

	r := new(request)
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
	}

	text, stats := chunk.NewMerger().MergeWithStats(r.Chunks)
	metrics.ObserveMerge(stats.Collapsed)
	if stats.Fallbacks > 0 {
		xlog.Debug("Merged without overlap at some boundaries", "boundaries", stats.Fallbacks)
	}

	return c.JSON(http.StatusOK, map[string]string{"text": text})
}

func validate(cfg *config.Config) func(c echo.Context) error {
	return func(c echo.Context) error {
		type request struct {
			Original         string   `json:"original"`
			Edited           string   `json:"edited"`
			TolerancePercent *float64 `json:"tolerance_percent" validate:"omitempty,gte=0"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}
		if err := c.Validate(r); err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage(err.Error()))
		}

		tolerance := cfg.TolerancePercent
		if r.TolerancePercent != nil {
			tolerance = *r.TolerancePercent
		}

		report := chunk.ValidateLength(r.Original, r.Edited, tolerance)
		metrics.ObserveValidation(report.IsValid)

		return c.JSON(http.StatusOK, report)
	}
}

func countWords(c echo.Context) error {
	type request struct {
		Text string `json:"text"`
	}

	r := new(request)
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
	}

	return c.JSON(http.StatusOK, map[string]int{"words": chunk.CountWords(r.Text)})
}

// intakeManuscript handles uploading the files of one manuscript
func intakeManuscript(cfg *config.Config) func(c echo.Context) error {
	limits := intake.Limits{
		MaxFiles:    cfg.MaxFiles,
		MaxFileSize: cfg.MaxFileSize,
		MinWords:    cfg.MinWords,
		MaxWords:    cfg.MaxWords,
	}

	return func(c echo.Context) error {
		form, err := c.MultipartForm()
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Failed to read form: "+err.Error()))
		}

		headers := uploadedFiles(form)
		files := make([]intake.File, 0, len(headers))
		for _, header := range headers {
			if header.Size > limits.MaxFileSize {
				return c.JSON(http.StatusBadRequest, errorMessage("File too large: "+header.Filename))
			}

			f, err := header.Open()
			if err != nil {
				return c.JSON(http.StatusBadRequest, errorMessage("Failed to open file: "+err.Error()))
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return c.JSON(http.StatusInternalServerError, errorMessage("Failed to read file: "+err.Error()))
			}

			files = append(files, intake.File{Name: header.Filename, Data: data})
		}

		manuscript, err := intake.Merge(files, limits)
		switch {
		case err == nil:
		case errors.Is(err, intake.ErrTooFewWords), errors.Is(err, intake.ErrTooManyWords):
			return c.JSON(http.StatusUnprocessableEntity, errorMessage(err.Error()))
		case errors.Is(err, intake.ErrFileCount),
			errors.Is(err, intake.ErrFileTooLarge),
			errors.Is(err, intake.ErrUnsupportedType):
			return c.JSON(http.StatusBadRequest, errorMessage(err.Error()))
		default:
			xlog.Error("Failed to read manuscript", "error", err)
			return c.JSON(http.StatusBadRequest, errorMessage("Failed to read manuscript: "+err.Error()))
		}

		return c.JSON(http.StatusOK, manuscript)
	}
}

// uploadedFiles returns the uploaded files in order. Numbered fields
// (file_1, file_2, ...) win; otherwise the files[] or files array is used.
func uploadedFiles(form *multipart.Form) []*multipart.FileHeader {
	type numbered struct {
		n       int
		headers []*multipart.FileHeader
	}

	var fields []numbered
	for key, headers := range form.File {
		suffix, ok := strings.CutPrefix(key, "file_")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 1 {
			continue
		}
		fields = append(fields, numbered{n: n, headers: headers})
	}

	if len(fields) > 0 {
		sort.Slice(fields, func(i, j int) bool { return fields[i].n < fields[j].n })
		var out []*multipart.FileHeader
		for _, f := range fields {
			out = append(out, f.headers...)
		}
		return out
	}

	if headers := form.File["files[]"]; len(headers) > 0 {
		return headers
	}
	return form.File["files"]
}
