package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/racket-rankings/parsers"
	"github.com/Dosada05/racket-rankings/services"
	"github.com/Dosada05/racket-rankings/utils"
)

const (
	maxUploadBytes   = 32 << 20 // 32MB
	dateLayout       = "2006-01-02"
	defaultPageLimit = 20
)

type TournamentHandler struct {
	importService     services.ImportService
	tournamentService services.TournamentService
}

func NewTournamentHandler(importService services.ImportService, tournamentService services.TournamentService) *TournamentHandler {
	return &TournamentHandler{importService: importService, tournamentService: tournamentService}
}

// Upload принимает multipart-форму с файлом xlsx и метаданными турнира
// и запускает импорт. Ответ — сводка импорта с построчными ошибками.
func (h *TournamentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequestResponse(w, r, errors.New("request must be multipart form data with a file"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, r, errors.New("file is required"))
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
		badRequestResponse(w, r, errors.New("only .xlsx files are supported"))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	meta, err := metaFromForm(r, header.Filename, data)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	wb, err := parsers.ParseWorkbook(data)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.importService.ImportFromWorkbook(r.Context(), meta, wb)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func metaFromForm(r *http.Request, fileName string, data []byte) (services.ImportMeta, error) {
	meta := services.ImportMeta{
		Name:             strings.TrimSpace(r.FormValue("name")),
		OriginalFileName: fileName,
		ContentDigest:    utils.FileDigest(data),
		RawFile:          data,
	}
	if location := strings.TrimSpace(r.FormValue("location")); location != "" {
		meta.Location = &location
	}

	now := time.Now().UTC().Truncate(24 * time.Hour)
	meta.StartDate, meta.EndDate = now, now
	if raw := r.FormValue("start_date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return meta, errors.New("start_date must be in YYYY-MM-DD format")
		}
		meta.StartDate = parsed
		meta.EndDate = parsed
	}
	if raw := r.FormValue("end_date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return meta, errors.New("end_date must be in YYYY-MM-DD format")
		}
		meta.EndDate = parsed
	}
	if meta.EndDate.Before(meta.StartDate) {
		return meta, errors.New("end_date must not be before start_date")
	}
	return meta, nil
}

// CheckFile отвечает, был ли файл уже загружен, не начиная импорт.
func (h *TournamentHandler) CheckFile(w http.ResponseWriter, r *http.Request) {
	var input struct {
		FileName      string `json:"file_name"`
		ContentDigest string `json:"content_digest"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.FileName == "" {
		badRequestResponse(w, r, errors.New("file_name is required"))
		return
	}

	check, err := h.tournamentService.CheckFile(r.Context(), input.FileName, input.ContentDigest)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, check, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultPageLimit)
	offset := queryInt(r, "offset", 0)

	tournaments, err := h.tournamentService.List(r.Context(), limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	detail, err := h.tournamentService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, detail, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "tournament deleted, points reverted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func idParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		return 0, errors.New("invalid " + name + " parameter")
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
