package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"availability-engine/internal/engine"
	"availability-engine/internal/external"
)

// GET /resources/:id/calendar/busy?date=YYYY-MM-DD
// Shows what connected calendars block on a date. Always 200 unless the
// request itself is bad; unreachable calendars come back as warnings.
func (a *App) ExternalBusyHandler(c *gin.Context) {
	date, err := engine.ParseDate(c.Query("date"))
	if err != nil {
		badRequest(c, "date required (YYYY-MM-DD)")
		return
	}

	res, err := a.ExternalBusy(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		a.writeError(c, err)
		return
	}

	busy := res.Intervals
	if busy == nil {
		busy = []engine.BusyInterval{}
	}
	c.JSON(http.StatusOK, gin.H{
		"date":     date,
		"busy":     busy,
		"count":    len(busy),
		"dropped":  res.Dropped,
		"degraded": res.Status() == external.StatusDegraded,
		"warnings": res.Warnings(),
	})
}
