package controller

import (
	"errors"
	"net/http"
	"strconv"

	"exam_center_backend/internal/service"
	"exam_center_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GradingController struct {
	GradingService *service.GradingService
}

func NewGradingController(gradingService *service.GradingService) *GradingController {
	return &GradingController{GradingService: gradingService}
}

// statusFor maps the service error taxonomy onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, util.ErrExamNotFound),
		errors.Is(err, util.ErrAttemptNotFound),
		errors.Is(err, util.ErrAnswerNotFound),
		errors.Is(err, util.ErrGradeNotFound),
		errors.Is(err, util.ErrResultNotFound):
		return http.StatusNotFound
	case errors.Is(err, util.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, util.ErrMarksOutOfRange),
		errors.Is(err, util.ErrAttemptNotGradable),
		errors.Is(err, util.ErrAttemptNotGraded),
		errors.Is(err, util.ErrNotFullyGraded):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (c *GradingController) fail(ctx *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		util.LogInternalError(ctx, err)
		return
	}
	util.Error(ctx, code, err.Error())
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// @Summary 查看评分会话
// @Tags 评分
// @Produce json
// @Security BearerAuth
// @Param id path int true "答卷ID"
// @Success 200 {object} util.Response
// @Router /api/grading/attempts/{id} [get]
func (c *GradingController) GetSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	attempt, err := c.GradingService.GetSession(user.UserID, user.Role, attemptID)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// @Summary 教师评分单个答案
// @Tags 评分
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "答案ID"
// @Param body body service.GradeAnswerRequest true "分数与评语"
// @Success 200 {object} util.Response
// @Router /api/grading/answers/{id}/grade [post]
func (c *GradingController) GradeAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	answerID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req service.GradeAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	grade, err := c.GradingService.GradeAnswer(user.UserID, user.Role, answerID, req)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, grade)
}

// @Summary 批量评分
// @Tags 评分
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "答卷ID"
// @Param body body service.BatchGradeRequest true "评分条目"
// @Success 200 {object} util.Response
// @Router /api/grading/attempts/{id}/batch [post]
func (c *GradingController) BatchGrade(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req service.BatchGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.GradingService.BatchGrade(user.UserID, user.Role, attemptID, req)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary AI 评分整份答卷
// @Tags 评分
// @Produce json
// @Security BearerAuth
// @Param id path int true "答卷ID"
// @Success 200 {object} util.Response
// @Router /api/grading/attempts/{id}/ai [post]
func (c *GradingController) AIGradeSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	stats, err := c.GradingService.AIGradeSession(ctx.Request.Context(), user.UserID, user.Role, attemptID)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// @Summary 审核 AI 评分
// @Tags 评分
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "成绩ID"
// @Param body body service.ApproveGradeRequest false "可选覆盖分数/评语"
// @Success 200 {object} util.Response
// @Router /api/grading/grades/{id}/approve [post]
func (c *GradingController) ApproveGrade(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	gradeID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req service.ApproveGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	grade, err := c.GradingService.ApproveGrade(user.UserID, user.Role, gradeID, req)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, grade)
}

// @Summary 修改已有成绩
// @Tags 评分
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "成绩ID"
// @Param body body service.GradeAnswerRequest true "分数与评语"
// @Success 200 {object} util.Response
// @Router /api/grading/grades/{id} [put]
func (c *GradingController) EditGrade(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	gradeID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req service.GradeAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	grade, err := c.GradingService.EditGrade(user.UserID, user.Role, gradeID, req)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, grade)
}

// @Summary 结算答卷成绩
// @Tags 评分
// @Produce json
// @Security BearerAuth
// @Param id path int true "答卷ID"
// @Success 200 {object} util.Response
// @Router /api/grading/attempts/{id}/finalize [post]
func (c *GradingController) FinalizeSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	result, err := c.GradingService.FinalizeSession(user.UserID, user.Role, attemptID)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 重开已结算的答卷
// @Tags 评分
// @Produce json
// @Security BearerAuth
// @Param id path int true "答卷ID"
// @Success 200 {object} util.Response
// @Router /api/grading/attempts/{id}/reopen [post]
func (c *GradingController) ReopenSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.GradingService.ReopenSession(user.UserID, user.Role, attemptID); err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"reopened": true})
}
