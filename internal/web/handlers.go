package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hray3182/ClassSync/internal/ai"
	"github.com/hray3182/ClassSync/internal/errkind"
	"github.com/hray3182/ClassSync/internal/ics"
	"github.com/hray3182/ClassSync/internal/models"
	"github.com/hray3182/ClassSync/internal/schedule"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

type semesterRange struct {
	Name      string      `json:"name"`
	StartDate models.Date `json:"start_date"`
	EndDate   models.Date `json:"end_date"`
}

// handleCatalog lists the form choices. ?days=Tuesday,Thursday narrows the
// time slots to those days.
func (s *Server) handleCatalog(c *gin.Context) {
	cat := s.svc.Catalog()
	today := s.svc.Today()

	semesters := make([]semesterRange, 0, len(cat.Semesters))
	for _, sem := range cat.Semesters {
		start, end, err := cat.SemesterRange(sem.Name, today)
		if err != nil {
			s.fail(c, err)
			return
		}
		semesters = append(semesters, semesterRange{Name: sem.Name, StartDate: start, EndDate: end})
	}

	slots := append(append([]string{}, cat.MWFSlots...), cat.TThSlots...)
	if raw := c.Query("days"); raw != "" {
		days, err := models.ParseWeekdays(strings.Split(raw, ","))
		if err != nil {
			s.fail(c, fmt.Errorf("%w: %v", errkind.ErrInvalid, err))
			return
		}
		slots = cat.TimeSlotsFor(days)
	}

	var providers []string
	if s.auth != nil {
		providers = s.auth.Names()
	}
	c.JSON(http.StatusOK, gin.H{
		"timezone":          cat.Timezone,
		"today":             today,
		"semesters":         semesters,
		"time_slots":        slots,
		"buildings":         cat.Buildings,
		"default_reminders": cat.DefaultReminders,
		"providers":         providers,
	})
}

func (s *Server) handlePush(c *gin.Context) {
	var req schedule.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errkind.ErrInvalid, err))
		return
	}
	summary, err := s.svc.Push(c.Request.Context(), sessionOf(c), req)
	if err != nil {
		if summary != nil && len(summary.Results) > 0 {
			s.failWithResults(c, err, summary.Results)
			return
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleListEvents(c *gin.Context) {
	events, err := s.svc.List(c.Request.Context(), sessionOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleGetEvent(c *gin.Context) {
	ctx := c.Request.Context()
	ev, err := s.svc.Get(ctx, sessionOf(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	deleted, err := s.svc.DeletedDates(ctx, ev.EventID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if deleted == nil {
		deleted = []models.Date{}
	}
	c.JSON(http.StatusOK, gin.H{"event": ev, "deleted_occurrences": deleted})
}

func (s *Server) handleUpdateEvent(c *gin.Context) {
	var in schedule.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errkind.ErrInvalid, err))
		return
	}
	ev, err := s.svc.Update(c.Request.Context(), sessionOf(c), c.Param("id"), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": ev})
}

func (s *Server) handleDeleteEvent(c *gin.Context) {
	id := c.Param("id")
	if err := s.svc.DeleteSeries(c.Request.Context(), sessionOf(c), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

type deleteOccurrencesRequest struct {
	Dates []models.Date `json:"dates"`
}

func (s *Server) handleDeleteOccurrences(c *gin.Context) {
	var req deleteOccurrencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errkind.ErrInvalid, err))
		return
	}
	results, err := s.svc.DeleteOccurrences(c.Request.Context(), sessionOf(c), c.Param("id"), req.Dates)
	if err != nil {
		if len(results) > 0 {
			s.failWithResults(c, err, results)
			return
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) handleListOccurrences(c *gin.Context) {
	occ, err := s.svc.Occurrences(c.Request.Context(), sessionOf(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"occurrences": occ})
}

func (s *Server) handleSync(c *gin.Context) {
	report, err := s.svc.SyncStatus(c.Request.Context(), sessionOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.svc.Stats(c.Request.Context(), sessionOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// handleExportICS serves the merged view as an iCalendar file, with removed
// occurrences as exceptions.
func (s *Server) handleExportICS(c *gin.Context) {
	ctx := c.Request.Context()
	events, err := s.svc.List(ctx, sessionOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}

	deleted := make(map[string][]models.Date)
	for _, ev := range events {
		dates, err := s.svc.DeletedDates(ctx, ev.EventID)
		if err != nil {
			s.fail(c, err)
			return
		}
		if len(dates) > 0 {
			deleted[ev.EventID] = dates
		}
	}

	body, skipped := ics.Export(events, deleted, s.svc.Catalog().Location(), time.Now())
	if len(skipped) > 0 {
		s.logger.Warn("events left out of export", zap.Strings("event_ids", skipped))
	}
	c.Header("Content-Disposition", `attachment; filename="classes.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

type parseRequest struct {
	Text string `json:"text" binding:"required"`
}

func (s *Server) handleParseClasses(c *gin.Context) {
	if s.parser == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "class parsing is not configured"})
		return
	}
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errkind.ErrInvalid, err))
		return
	}

	cat := s.svc.Catalog()
	hints := ai.Hints{
		TimeSlots: append(append([]string{}, cat.MWFSlots...), cat.TThSlots...),
		Buildings: cat.BuildingCodes(),
	}
	for _, sem := range cat.Semesters {
		hints.Semesters = append(hints.Semesters, sem.Name)
	}

	parsed, err := s.parser.ParseClasses(c.Request.Context(), req.Text, hints)
	if err != nil {
		s.logger.Error("class parsing failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	classes := make([]schedule.ClassInput, len(parsed.Classes))
	for i, pc := range parsed.Classes {
		classes[i] = schedule.ClassInput{
			ClassName: pc.ClassName,
			Location:  pc.Location,
			Days:      pc.Days,
			TimeSlot:  pc.TimeSlot,
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"semester": parsed.Semester,
		"classes":  classes,
		"notes":    parsed.Notes,
	})
}
