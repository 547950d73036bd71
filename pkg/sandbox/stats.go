package sandbox

import (
	"math"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harrisonrobin/taskhr/pkg/model"
)

func (s *Server) overview(c *gin.Context) {
	out := model.Overview{
		TotalEmployees:  s.hr.TotalEmployees,
		ActiveEmployees: s.hr.ActiveEmployees,
		PendingLeaves:   s.hr.PendingLeaves,
		PresentToday:    s.hr.PresentToday,
	}
	teams := make(map[string]bool)
	s.mu.RLock()
	for _, t := range s.tasks {
		out.TotalTasks++
		if t.Status == model.StatusDone {
			out.CompletedTasks++
		} else {
			out.ActiveTasks++
		}
		if t.TeamID != "" {
			teams[t.TeamID] = true
		}
	}
	s.mu.RUnlock()
	out.TotalTeams = len(teams)
	ok(c, http.StatusOK, out)
}

func (s *Server) departments(c *gin.Context) {
	ok(c, http.StatusOK, s.hr.Departments)
}

func intQuery(c *gin.Context, key string, def int) (int, bool) {
	v := c.Query(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func (s *Server) attendance(c *gin.Context) {
	now := s.now()
	month, okMonth := intQuery(c, "month", int(now.Month()))
	year, okYear := intQuery(c, "year", now.Year())
	if !okMonth || !okYear || month < 1 || month > 12 {
		fail(c, http.StatusBadRequest, "Invalid month or year")
		return
	}
	out := s.hr.Attendance
	out.Month = month
	out.Year = year
	ok(c, http.StatusOK, out)
}

func (s *Server) leaves(c *gin.Context) {
	year, valid := intQuery(c, "year", s.now().Year())
	if !valid {
		fail(c, http.StatusBadRequest, "Invalid year")
		return
	}
	ok(c, http.StatusOK, model.LeaveStats{Year: year, ByType: s.hr.Leaves})
}

// teamPerformance reports the share of done tasks per team, highest first.
func (s *Server) teamPerformance(c *gin.Context) {
	type tally struct{ done, total int }
	byTeam := make(map[string]*tally)
	s.mu.RLock()
	for _, t := range s.tasks {
		if t.TeamID == "" {
			continue
		}
		tl, exists := byTeam[t.TeamID]
		if !exists {
			tl = &tally{}
			byTeam[t.TeamID] = tl
		}
		tl.total++
		if t.Status == model.StatusDone {
			tl.done++
		}
	}
	s.mu.RUnlock()

	out := make([]model.TeamPerformance, 0, len(byTeam))
	for team, tl := range byTeam {
		pct := math.Round(float64(tl.done)/float64(tl.total)*1000) / 10
		out = append(out, model.TeamPerformance{Team: team, Performance: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Performance != out[j].Performance {
			return out[i].Performance > out[j].Performance
		}
		return out[i].Team < out[j].Team
	})
	ok(c, http.StatusOK, out)
}
