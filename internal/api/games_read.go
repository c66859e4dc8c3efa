package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ericogr/duel-arena/internal/bot"
	"github.com/ericogr/duel-arena/internal/constants"
)

type botView struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Class      string         `json:"class,omitempty"`
	Level      int            `json:"level"`
	Difficulty bot.Difficulty `json:"difficulty"`
}

// ListBots returns the configured bot roster.
func (h *GameHandler) ListBots(c *gin.Context) {
	bots := h.arena.Bots()
	out := make([]botView, 0, len(bots))
	for _, b := range bots {
		out = append(out, botView{ID: b.ID, Name: b.Name, Class: b.Class, Level: b.Level, Difficulty: b.Difficulty})
	}
	c.JSON(http.StatusOK, out)
}

// ListGames returns the live sessions, oldest first.
func (h *GameHandler) ListGames(c *gin.Context) {
	c.JSON(http.StatusOK, h.arena.Games())
}

// GetLobby returns the online players and pending challenge count.
func (h *GameHandler) GetLobby(c *gin.Context) {
	c.JSON(http.StatusOK, h.arena.Snapshot())
}

// ListLeaderboard returns the top players by wins (desc), limited to top 10 by default.
func (h *GameHandler) ListLeaderboard(c *gin.Context) {
	profiles, err := h.progress.TopPlayers(c.Request.Context(), queryLimit(c, 10))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchLeaderboard})
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// GetProfile returns the caller's stored profile and progression.
func (h *GameHandler) GetProfile(c *gin.Context) {
	p, err := h.progress.Progress(c.Request.Context(), c.GetString(constants.CtxParticipantID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrProfileNotFound})
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListOutcomes returns the caller's latest match outcomes.
func (h *GameHandler) ListOutcomes(c *gin.Context) {
	out, err := h.progress.Outcomes(c.Request.Context(), c.GetString(constants.CtxParticipantID), queryLimit(c, 20))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchOutcomes})
		return
	}
	c.JSON(http.StatusOK, out)
}

// queryLimit reads ?limit=N within 1..100.
func queryLimit(c *gin.Context, def int) int {
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			return n
		}
	}
	return def
}
