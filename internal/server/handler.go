package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cleared-dev/spendview/internal/importer"
	"github.com/cleared-dev/spendview/internal/model"
	"github.com/cleared-dev/spendview/internal/summary"
	"github.com/cleared-dev/spendview/internal/tracker"
)

// FilesField is the multipart field carrying CSV uploads.
const FilesField = "files"

// SummaryRequest holds the optional date bounds of a summary request.
type SummaryRequest struct {
	Start  string `form:"start" query:"start" validate:"omitempty,datetime=2006-01-02"`
	End    string `form:"end" query:"end" validate:"omitempty,datetime=2006-01-02"`
	Format string `form:"format" query:"format" validate:"omitempty,oneof=csv xlsx json"`
}

// PartitionCounts reports how many rows landed in each partition.
type PartitionCounts struct {
	Credits int `json:"credits"`
	Debits  int `json:"debits"`
	Zeros   int `json:"zeros"`
}

// SummaryResponse is the payload of a successful summary request.
type SummaryResponse struct {
	Empty      bool             `json:"empty"`
	Message    string           `json:"message,omitempty"`
	Partitions *PartitionCounts `json:"partitions,omitempty"`
	Duplicates []string         `json:"duplicates,omitempty"`
	Summary    *summary.Summary `json:"summary,omitempty"`
}

// RangeResponse describes the selectable date range.
type RangeResponse struct {
	DefaultStart string `json:"default_start"`
	DefaultEnd   string `json:"default_end"`
	Min          string `json:"min"`
	Max          string `json:"max"`
}

// SuccessResponse is the envelope for successful JSON responses.
type SuccessResponse struct {
	Data      any    `json:"data"`
	RequestID string `json:"request_id,omitempty"`
}

// Handler serves the summary endpoints.
type Handler struct {
	svc *tracker.Service
}

// NewHandler creates a Handler over svc.
func NewHandler(svc *tracker.Service) *Handler {
	return &Handler{svc: svc}
}

// Range returns the default range and its bounds.
//
// Method: GET /api/v1/range
func (h *Handler) Range(c echo.Context) error {
	def := h.svc.DefaultRange()
	return c.JSON(http.StatusOK, SuccessResponse{
		Data: RangeResponse{
			DefaultStart: def.Start.Format(time.DateOnly),
			DefaultEnd:   def.End.Format(time.DateOnly),
			Min:          h.svc.MinDate().Format(time.DateOnly),
			Max:          h.svc.Today().Format(time.DateOnly),
		},
		RequestID: GetRequestID(c),
	})
}

// Summarize ingests the uploaded CSVs and returns the spend summary.
//
// Method: POST /api/v1/summary (multipart/form-data)
//
// Form fields:
//   - files: one or more CSV files
//   - start, end: optional YYYY-MM-DD bounds, defaulting to the configured range
//
// Responses:
//   - 200: summary, or {"empty": true} when no files were sent
//   - 400: malformed or out-of-bounds dates
//   - 413: upload too large
//   - 422: a file failed to parse
func (h *Handler) Summarize(c echo.Context) error {
	req, err := bindRequest(c)
	if err != nil {
		return err
	}
	res, err := h.run(c, req)
	if err != nil {
		return err
	}

	if res.Empty {
		return c.JSON(http.StatusOK, SuccessResponse{
			Data:      SummaryResponse{Empty: true, Message: tracker.NoFilesMessage},
			RequestID: GetRequestID(c),
		})
	}

	p := res.Book.Partitions
	return c.JSON(http.StatusOK, SuccessResponse{
		Data: SummaryResponse{
			Partitions: &PartitionCounts{Credits: len(p.Credits), Debits: len(p.Debits), Zeros: len(p.Zeros)},
			Duplicates: res.Book.Duplicates,
			Summary:    &res.Summary,
		},
		RequestID: GetRequestID(c),
	})
}

// Export is Summarize rendered as a downloadable file.
//
// Method: POST /api/v1/summary/export?format=csv|xlsx|json
func (h *Handler) Export(c echo.Context) error {
	req, err := bindRequest(c)
	if err != nil {
		return err
	}
	res, err := h.run(c, req)
	if err != nil {
		return err
	}
	if res.Empty {
		return echo.NewHTTPError(http.StatusBadRequest, tracker.NoFilesMessage)
	}

	var buf bytes.Buffer
	switch req.Format {
	case "json":
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="spend-summary.json"`)
		return c.JSON(http.StatusOK, res.Summary)
	case "xlsx":
		if err := summary.WriteXLSX(&buf, res.Summary); err != nil {
			return err
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="spend-summary.xlsx"`)
		return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	default:
		if err := summary.WriteCSV(&buf, res.Summary); err != nil {
			return err
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="spend-summary.csv"`)
		return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	}
}

// bindRequest reads query parameters first, then lets form fields override them.
func bindRequest(c echo.Context) (SummaryRequest, error) {
	var req SummaryRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return req, err
	}
	if err := c.Bind(&req); err != nil {
		return req, err
	}
	if err := c.Validate(&req); err != nil {
		return req, err
	}
	return req, nil
}

func (h *Handler) run(c echo.Context, req SummaryRequest) (*tracker.Result, error) {
	uploads, err := readUploads(c)
	if err != nil {
		return nil, err
	}

	rng, err := h.resolveRange(req)
	if err != nil {
		return nil, err
	}

	res, err := h.svc.Run(uploads, rng)
	if err != nil {
		if errors.Is(err, tracker.ErrInvalidRange) {
			return nil, err
		}
		return nil, ingestError{err: err}
	}
	return res, nil
}

func (h *Handler) resolveRange(req SummaryRequest) (model.DateRange, error) {
	rng := h.svc.DefaultRange()
	if req.Start != "" {
		start, err := time.Parse(time.DateOnly, req.Start)
		if err != nil {
			return model.DateRange{}, echo.NewHTTPError(http.StatusBadRequest, "invalid start date")
		}
		rng.Start = start
	}
	if req.End != "" {
		end, err := time.Parse(time.DateOnly, req.End)
		if err != nil {
			return model.DateRange{}, echo.NewHTTPError(http.StatusBadRequest, "invalid end date")
		}
		rng.End = end
	}
	return rng, nil
}

func readUploads(c echo.Context) ([]importer.Upload, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form").SetInternal(err)
	}

	headers := form.File[FilesField]
	uploads := make([]importer.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, importer.Upload{Name: fh.Filename, Content: data})
	}
	return uploads, nil
}
