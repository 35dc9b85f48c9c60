package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Liyanipatel27/attendance-new/internal/attendance"
	"github.com/Liyanipatel27/attendance-new/internal/timetable"
	"github.com/Liyanipatel27/attendance-new/pkg/types"
)

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getTimetable(c *gin.Context) {
	identity := c.Param("identity")
	day := c.Query("day")
	if day != "" {
		canonical, ok := types.CanonicalDay(day)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown day " + day})
			return
		}
		day = canonical
	}

	grid, err := s.cache.GetGrid(c.Request.Context(), identity, day)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no timetable for " + identity})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "timetable temporarily unavailable"})
		return
	}
	c.JSON(http.StatusOK, grid)
}

// clockParams reads the optional day and now query parameters, defaulting
// to the server's wall clock.
func (s *Server) clockParams(c *gin.Context) (day string, now int, ok bool) {
	wall := time.Now()
	day = c.Query("day")
	if day == "" {
		day = wall.Weekday().String()
	}
	if _, valid := types.CanonicalDay(day); !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown day " + day})
		return "", 0, false
	}

	now = timetable.MinutesOfDay(wall)
	if raw := c.Query("now"); raw != "" {
		parsed, err := timetable.ParseClock(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return "", 0, false
		}
		now = parsed
	}
	return day, now, true
}

func (s *Server) getCurrentSlot(c *gin.Context) {
	identity := c.Param("identity")
	day, now, ok := s.clockParams(c)
	if !ok {
		return
	}

	slot, err := s.resolver.ResolveCurrentSlot(c.Request.Context(), identity, day, now)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "slot resolution temporarily unavailable"})
		return
	}
	// nil slot is a valid answer: nothing scheduled right now.
	c.JSON(http.StatusOK, gin.H{"identity": identity, "day": day, "slot": slot})
}

type createSessionRequest struct {
	Faculty string `json:"faculty" binding:"required"`
}

func (s *Server) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, now, ok := s.clockParams(c)
	if !ok {
		return
	}

	slot, err := s.resolver.ResolveCurrentSlot(c.Request.Context(), req.Faculty, day, now)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "slot resolution temporarily unavailable"})
		return
	}
	if slot == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no teaching slot active for " + req.Faculty})
		return
	}

	session := &types.AttendanceSession{
		Faculty:    req.Faculty,
		Subject:    slot.Subject,
		ClassGroup: slot.ClassGroup,
		TimeSlot:   slot.TimeSlot,
	}
	if slot.Room != nil {
		session.Room = *slot.Room
	}
	s.broker.StartSession(session)
	c.JSON(http.StatusCreated, session)
}

func (s *Server) endSession(c *gin.Context) {
	faculty := c.Param("faculty")
	if !s.broker.EndSession(faculty) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session for " + faculty})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ended": faculty})
}

func (s *Server) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": s.broker.ActiveSessions()})
}

type verifyAttendanceRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Image     string `json:"image" binding:"required"`
	Faculty   string `json:"faculty" binding:"required"`
}

func (s *Server) verifyAttendance(c *gin.Context) {
	var req verifyAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, ok := s.broker.CurrentSession(req.Faculty)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session for " + req.Faculty})
		return
	}

	slot := &types.Slot{
		TimeSlot:   session.TimeSlot,
		Subject:    session.Subject,
		ClassGroup: session.ClassGroup,
	}
	if session.Room != "" {
		room := session.Room
		slot.Room = &room
	}

	result, err := s.gateway.MarkWithImage(c.Request.Context(), req.StudentID, req.Image, slot)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record attendance"})
		return
	}
	if result.Reason == attendance.ReasonVerificationUnavailable {
		c.JSON(http.StatusServiceUnavailable, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) commitAttendance(c *gin.Context) {
	var rec types.AttendanceRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if rec.StudentID == "" || rec.Subject == "" || rec.TimeSlot == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student_id, subject and time_slot are required"})
		return
	}
	if err := s.gateway.Commit(c.Request.Context(), &rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) attendanceByDate(c *gin.Context) {
	records, err := s.store.AttendanceByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load attendance"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (s *Server) searchAttendance(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}
	records, err := s.store.SearchAttendance(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search attendance"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (s *Server) listStudents(c *gin.Context) {
	students, err := s.store.ListStudents(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load students"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (s *Server) addStudent(c *gin.Context) {
	var student types.Student
	if err := c.ShouldBindJSON(&student); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if student.EnrollmentNo == "" || student.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enrollment_no and name are required"})
		return
	}
	if err := s.store.AddStudent(c.Request.Context(), &student); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, student)
}

func (s *Server) listFaculty(c *gin.Context) {
	faculty, err := s.store.ListFaculty(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load faculty"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"faculty": faculty})
}

func (s *Server) addFaculty(c *gin.Context) {
	var f types.Faculty
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if f.EmployeeID == "" || f.FullName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employee_id and full_name are required"})
		return
	}
	if err := s.store.AddFaculty(c.Request.Context(), &f); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (s *Server) putFacultySchedule(c *gin.Context) {
	var rows []types.TimetableEntry
	if err := c.ShouldBindJSON(&rows); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name := c.Param("name")
	if err := s.store.ReplaceFacultySchedule(c.Request.Context(), name, rows); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store schedule"})
		return
	}
	s.cache.Invalidate(name)
	c.JSON(http.StatusOK, gin.H{"identity": name, "rows": len(rows)})
}

func (s *Server) putClassSchedule(c *gin.Context) {
	var rows []types.TimetableEntry
	if err := c.ShouldBindJSON(&rows); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	section := c.Param("section")
	if err := s.store.ReplaceClassSchedule(c.Request.Context(), section, rows); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store schedule"})
		return
	}
	s.cache.Invalidate(section)
	c.JSON(http.StatusOK, gin.H{"identity": section, "rows": len(rows)})
}

func (s *Server) invalidateCache(c *gin.Context) {
	identity := c.Param("identity")
	s.cache.Invalidate(identity)
	c.JSON(http.StatusOK, gin.H{"invalidated": identity})
}
