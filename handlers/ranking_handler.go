package handlers

import (
	"net/http"

	"github.com/Dosada05/racket-rankings/models"
	"github.com/Dosada05/racket-rankings/services"
)

type RankingHandler struct {
	rankingService services.RankingService
}

func NewRankingHandler(rankingService services.RankingService) *RankingHandler {
	return &RankingHandler{rankingService: rankingService}
}

func (h *RankingHandler) Overall(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	rankings, err := h.rankingService.Overall(r.Context(), page, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, rankings, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RankingHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := idParam(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	page, limit := pageParams(r)

	rankings, err := h.rankingService.ByCategory(r.Context(), categoryID, page, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, rankings, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RankingHandler) ByType(w http.ResponseWriter, r *http.Request) {
	categoryType := models.CategoryType(r.URL.Query().Get("type"))
	page, limit := pageParams(r)

	rankings, err := h.rankingService.ByType(r.Context(), categoryType, page, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, rankings, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RankingHandler) ByTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	typeFilter := models.CategoryType(r.URL.Query().Get("type"))
	page, limit := pageParams(r)

	rankings, err := h.rankingService.ByTournament(r.Context(), tournamentID, typeFilter, page, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, rankings, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RankingHandler) ByTournamentCategory(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	categoryID, err := idParam(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	page, limit := pageParams(r)

	rankings, err := h.rankingService.ByTournamentCategory(r.Context(), tournamentID, categoryID, page, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, rankings, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func pageParams(r *http.Request) (page, limit int) {
	return queryInt(r, "page", 1), queryInt(r, "limit", 50)
}
