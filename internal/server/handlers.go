package server

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/adaptiq/internal/engine"
	"github.com/abhisek/adaptiq/internal/performance"
)

type startSessionRequest struct {
	SessionID string               `json:"session_id"`
	Metrics   *performance.Metrics `json:"metrics"`
}

func (s *Server) startSession(c *gin.Context) {
	var req startSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	sess, err := s.engine.StartSession(c.Request.Context(), engine.StartOptions{
		SessionID: req.SessionID,
		Metrics:   req.Metrics,
	})
	if err != nil {
		s.engineError(c, err)
		return
	}
	created(c, sess)
}

func (s *Server) listSessions(c *gin.Context) {
	success(c, gin.H{"sessions": s.engine.Sessions()})
}

func (s *Server) endSession(c *gin.Context) {
	sum, err := s.engine.EndSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.engineError(c, err)
		return
	}
	success(c, gin.H{
		"summary":  sum,
		"accuracy": sum.Accuracy(),
	})
}

func (s *Server) nextQuestion(c *gin.Context) {
	subject := c.Query("subject")
	if subject == "" {
		badRequest(c, "subject is required")
		return
	}
	stable := false
	if raw := c.Query("stable"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "stable must be a boolean")
			return
		}
		stable = v
	}

	q, err := s.engine.NextQuestion(c.Request.Context(), engine.Request{
		SessionID: c.Param("id"),
		Subject:   subject,
		SkillArea: c.Query("skill_area"),
		Stable:    stable,
	})
	if err != nil {
		s.engineError(c, err)
		return
	}
	success(c, questionView{
		ID:         q.ID,
		TemplateID: q.TemplateID,
		Text:       q.QuestionText,
		Options:    q.Options,
		Subject:    q.Subject,
		SkillArea:  q.SkillArea,
		Type:       string(q.Type),
		Difficulty: q.Difficulty,
		Stable:     q.Stable,
	})
}

// questionView hides the answer from the learner.
type questionView struct {
	ID         string   `json:"id"`
	TemplateID string   `json:"template_id"`
	Text       string   `json:"question_text"`
	Options    []string `json:"options"`
	Subject    string   `json:"subject"`
	SkillArea  string   `json:"skill_area"`
	Type       string   `json:"type"`
	Difficulty int      `json:"difficulty"`
	Stable     bool     `json:"stable"`
}

type answerRequest struct {
	QuestionID      string  `json:"question_id" binding:"required"`
	Answer          string  `json:"answer"`
	OptionIndex     *int    `json:"option_index"`
	ResponseTimeSec float64 `json:"response_time_sec"`
	Concept         string  `json:"concept"`
}

func (s *Server) submitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.OptionIndex == nil && req.Answer == "" {
		badRequest(c, "answer or option_index is required")
		return
	}

	res, err := s.engine.SubmitAnswer(c.Request.Context(), engine.AnswerInput{
		SessionID:       c.Param("id"),
		QuestionID:      req.QuestionID,
		Answer:          req.Answer,
		OptionIndex:     req.OptionIndex,
		ResponseTimeSec: req.ResponseTimeSec,
		Concept:         req.Concept,
	})
	if err != nil {
		s.engineError(c, err)
		return
	}
	success(c, res)
}

func (s *Server) sessionMetrics(c *gin.Context) {
	m, err := s.engine.Metrics(c.Param("id"))
	if err != nil {
		s.engineError(c, err)
		return
	}
	success(c, m)
}

type engagementRequest struct {
	Level *float64 `json:"level" binding:"required"`
}

func (s *Server) setEngagement(c *gin.Context) {
	var req engagementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := s.engine.SetEngagement(c.Param("id"), *req.Level); err != nil {
		s.engineError(c, err)
		return
	}
	s.sessionMetrics(c)
}

func (s *Server) phasePlan(c *gin.Context) {
	minutes, err := strconv.Atoi(c.DefaultQuery("minutes", "60"))
	if err != nil || minutes < 0 {
		badRequest(c, "minutes must be a non-negative integer")
		return
	}
	plan, err := s.engine.PhasePlan(c.Param("id"), minutes)
	if err != nil {
		s.engineError(c, err)
		return
	}
	success(c, gin.H{"total_minutes": minutes, "phases": plan})
}

type advanceRequest struct {
	TimeInPhase      float64 `json:"time_in_phase"`
	PlannedPhaseTime float64 `json:"planned_phase_time"`
	PhasePerformance float64 `json:"phase_performance"`
}

func (s *Server) shouldAdvance(c *gin.Context) {
	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	ok, err := s.engine.ShouldAdvance(c.Param("id"), req.TimeInPhase, req.PlannedPhaseTime, req.PhasePerformance)
	if err != nil {
		s.engineError(c, err)
		return
	}
	success(c, gin.H{"advance": ok})
}
